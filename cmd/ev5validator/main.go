// Package main implements the ev5validator CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/uvacab/ev5validator/config"
	"github.com/uvacab/ev5validator/report"
)

const (
	version = "0.1.0"
	usage   = `ev5validator - EV5 code validator

Validates the coded fields of EV5 files against the registry of valid codes
and writes a report for every file with invalid entries.

Usage:
  ev5validator [options] [file-or-dir]...

With no arguments the data directory (-data, EV5_DATA_DIR) is scanned for
*.ev5 files. Options override environment variables and .env.

Examples:
  ev5validator
  ev5validator -schema schema.yaml -format both Data/
  ev5validator -registry-file valid_codes_20240101.csv batch_01.ev5
  ev5validator -sections -fold -workers 8 Data/

Exit status: 0 all valid, 1 invalid entries or unreadable files, 2 fatal error.

Options:
`
)

// Exit codes.
const (
	exitOK     = 0
	exitIssues = 1
	exitFatal  = 2
)

// Options holds CLI configuration.
type Options struct {
	Config  *config.Config
	Format  report.Format
	Inputs  []string
	Verbose bool
	Quiet   bool
}

func main() {
	envFile := envFileArg(os.Args[1:])
	cfg, err := config.Load(envFile...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}

	opts, showVersion, err := parseFlags(flag.CommandLine, os.Args[1:], cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}
	if showVersion {
		fmt.Printf("ev5validator v%s\n", version)
		os.Exit(exitOK)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitCode := run(ctx, opts, os.Stdout)
	stop()
	os.Exit(exitCode)
}

// envFileArg picks the -env value before flags are parsed, so the file can
// seed the defaults the flags override.
func envFileArg(args []string) []string {
	for i, arg := range args {
		switch {
		case arg == "-env" || arg == "--env":
			if i+1 < len(args) {
				return []string{args[i+1]}
			}
		case strings.HasPrefix(arg, "-env="), strings.HasPrefix(arg, "--env="):
			return []string{arg[strings.Index(arg, "=")+1:]}
		}
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string, cfg *config.Config) (*Options, bool, error) {
	opts := &Options{Config: cfg}

	var format string
	var lenient, showVersion, logJSON bool
	var timeout time.Duration

	fs.String("env", "", "Env file to load before reading the environment (default .env)")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Directory scanned for *.ev5 files when no inputs are given")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for reports")
	fs.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "Schema file (.json, .yaml)")
	fs.StringVar(&cfg.RegistryURL, "registry-url", cfg.RegistryURL, "Registry endpoint")
	fs.StringVar(&cfg.RegistryFile, "registry-file", cfg.RegistryFile, "Read the registry from a file instead of the endpoint")
	fs.DurationVar(&timeout, "timeout", cfg.RegistryTimeout, "Registry request timeout")
	fs.IntVar(&cfg.RegistryRetries, "retries", cfg.RegistryRetries, "Registry fetch attempts")
	fs.StringVar(&cfg.RegistryCheck, "check", cfg.RegistryCheck, "FHIRPath expression the registry response must satisfy")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Files validated in parallel (0 = number of CPUs)")
	fs.BoolVar(&cfg.SectionMode, "sections", cfg.SectionMode, "Files group records under '--- BLOCK ---' headers")
	fs.BoolVar(&cfg.CaseFold, "fold", cfg.CaseFold, "Compare codes case-insensitively")
	fs.BoolVar(&lenient, "lenient", !cfg.ValidateFieldTypes, "Do not report fields missing from the registry")
	fs.IntVar(&cfg.MaxIssues, "max-issues", cfg.MaxIssues, "Issues kept per file (0 = all)")
	fs.StringVar(&format, "format", cfg.Format, "Report format: csv, xlsx, both")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for the registry fallback snapshot")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error, none")
	fs.BoolVar(&logJSON, "log-json", cfg.LogFormat == "json", "Log as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Same as -log-level debug")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Only print the final summary")
	fs.BoolVar(&showVersion, "v", false, "Show version")

	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["data"] && !set["out"] && os.Getenv(config.EnvOutputDir) == "" {
		cfg.OutputDir = filepath.Join(cfg.DataDir, "ProcessedFiles")
	}

	cfg.RegistryTimeout = timeout
	cfg.ValidateFieldTypes = !lenient
	cfg.Format = strings.ToLower(format)
	cfg.LogFormat = "text"
	if logJSON {
		cfg.LogFormat = "json"
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, showVersion, err
	}

	f, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, showVersion, err
	}
	opts.Format = f

	opts.Inputs = fs.Args()
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{cfg.DataDir}
	}
	return opts, showVersion, nil
}
