// Package config loads process configuration from the environment.
//
// An optional .env file is read first; variables already set in the
// environment win over it. The result is checked with struct tags before use.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/uvacab/ev5validator/registry"
)

// Environment keys.
const (
	EnvDataDir            = "EV5_DATA_DIR"
	EnvOutputDir          = "EV5_OUTPUT_DIR"
	EnvSchemaPath         = "EV5_SCHEMA_PATH"
	EnvRegistryURL        = "EV5_REGISTRY_URL"
	EnvRegistryFile       = "EV5_REGISTRY_FILE"
	EnvRegistryTimeout    = "EV5_REGISTRY_TIMEOUT"
	EnvRegistryRetries    = "EV5_REGISTRY_RETRIES"
	EnvRegistryCheck      = "EV5_REGISTRY_CHECK"
	EnvWorkers            = "EV5_WORKERS"
	EnvSectionMode        = "EV5_SECTION_MODE"
	EnvCaseFold           = "EV5_CASE_FOLD"
	EnvValidateFieldTypes = "EV5_VALIDATE_FIELD_TYPES"
	EnvValidateCodes      = "EV5_VALIDATE_CODES"
	EnvMaxIssues          = "EV5_MAX_ISSUES"
	EnvFormat             = "EV5_FORMAT"
	EnvRedisAddress       = "REDIS_ADDRESS"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
)

// Config is the process configuration.
type Config struct {
	DataDir    string `validate:"required"`
	OutputDir  string `validate:"required"`
	SchemaPath string `validate:"required"`

	RegistryURL     string        `validate:"omitempty,url"`
	RegistryFile    string
	RegistryTimeout time.Duration `validate:"gt=0"`
	RegistryRetries int           `validate:"min=1,max=10"`
	RegistryCheck   string

	Workers            int `validate:"min=0"`
	SectionMode        bool
	CaseFold           bool
	ValidateFieldTypes bool
	ValidateCodes      bool
	MaxIssues          int `validate:"min=0"`

	Format string `validate:"oneof=csv xlsx both"`

	RedisAddress string `validate:"omitempty,hostname_port"`

	LogLevel  string `validate:"oneof=debug info warn warning error none off"`
	LogFormat string `validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DataDir:            "Data",
		OutputDir:          filepath.Join("Data", "ProcessedFiles"),
		SchemaPath:         "schema.json",
		RegistryURL:        registry.DefaultURL,
		RegistryTimeout:    registry.DefaultTimeout,
		RegistryRetries:    registry.DefaultRetries,
		ValidateFieldTypes: true,
		ValidateCodes:      true,
		Format:             "csv",
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads envFiles (".env" when none are given; missing files are fine),
// then the environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from lookup without validating it.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str(EnvDataDir, &cfg.DataDir)
	cfg.OutputDir = filepath.Join(cfg.DataDir, "ProcessedFiles")
	p.str(EnvOutputDir, &cfg.OutputDir)
	p.str(EnvSchemaPath, &cfg.SchemaPath)
	p.str(EnvRegistryURL, &cfg.RegistryURL)
	p.str(EnvRegistryFile, &cfg.RegistryFile)
	p.duration(EnvRegistryTimeout, &cfg.RegistryTimeout)
	p.integer(EnvRegistryRetries, &cfg.RegistryRetries)
	p.str(EnvRegistryCheck, &cfg.RegistryCheck)
	p.integer(EnvWorkers, &cfg.Workers)
	p.boolean(EnvSectionMode, &cfg.SectionMode)
	p.boolean(EnvCaseFold, &cfg.CaseFold)
	p.boolean(EnvValidateFieldTypes, &cfg.ValidateFieldTypes)
	p.boolean(EnvValidateCodes, &cfg.ValidateCodes)
	p.integer(EnvMaxIssues, &cfg.MaxIssues)
	p.str(EnvFormat, &cfg.Format)
	p.str(EnvRedisAddress, &cfg.RedisAddress)
	p.str(EnvLogLevel, &cfg.LogLevel)
	p.str(EnvLogFormat, &cfg.LogFormat)

	cfg.Format = strings.ToLower(cfg.Format)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		fields[ve.Field()] = ve.Tag()
	}
	return &Error{Fields: fields}
}

// Error lists the fields that failed validation and the rule each broke.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " (" + e.Fields[name] + ")"
	}
	return "invalid configuration: " + strings.Join(parts, ", ")
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare numbers are seconds.
		secs, nerr := strconv.Atoi(v)
		if nerr != nil {
			p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		d = time.Duration(secs) * time.Second
	}
	*dst = d
}
