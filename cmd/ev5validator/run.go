package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/config"
	"github.com/uvacab/ev5validator/engine"
	"github.com/uvacab/ev5validator/pkg/logger"
	"github.com/uvacab/ev5validator/registry"
	"github.com/uvacab/ev5validator/report"
	"github.com/uvacab/ev5validator/schema"
	"github.com/uvacab/ev5validator/terminology"
)

// previewLimit is the number of issues printed per file.
const previewLimit = 10

func run(ctx context.Context, opts *Options, out io.Writer) int {
	cfg := opts.Config
	setupLogging(cfg)

	writer := report.NewWriter(cfg.OutputDir, opts.Format)
	log := logger.WithFields(logger.Fields{"run_id": writer.RunID()})
	start := time.Now()

	source, err := buildSource(ctx, cfg)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFatal
	}

	// Registry
	say(opts, out, "Validating registry...\n")
	if err := source.Ping(ctx); err != nil {
		fmt.Fprintf(out, "Registry validation failed: %v\n", err)
		return exitFatal
	}
	say(opts, out, "Registry is reachable and valid.\n")

	codes, err := source.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error fetching registry: %v\n", err)
		return exitFatal
	}

	var snapOpts []terminology.SnapshotOption
	if cfg.CaseFold {
		snapOpts = append(snapOpts, terminology.WithCaseFold())
	}
	snap, err := terminology.NewSnapshot(codes, snapOpts...)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFatal
	}
	say(opts, out, "Loaded %d valid codes for %d fields.\n", snap.Size(), len(snap.Fields()))
	if snap.Duplicates() > 0 {
		log.Warnf("registry has %d duplicate codes; first occurrence kept", snap.Duplicates())
	}

	// Schema
	index, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		fmt.Fprintf(out, "Schema not loaded: %v\n", err)
		return exitFatal
	}

	if paths, err := writer.WriteValidCodes(snap); err != nil {
		log.Warnf("failed to export valid codes: %v", err)
	} else {
		for _, p := range paths {
			log.Debug("exported ", p)
		}
	}

	files, err := discover(opts.Inputs)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFatal
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No .ev5 files found in %v\n", opts.Inputs)
		return exitOK
	}
	say(opts, out, "Found %d .ev5 files to validate.\n", len(files))

	v, err := engine.New(index, snap,
		ev.WithFieldValidation(cfg.ValidateFieldTypes),
		ev.WithCodeValidation(cfg.ValidateCodes),
		ev.WithSections(cfg.SectionMode),
		ev.WithMaxIssues(cfg.MaxIssues),
		ev.WithWorkerCount(cfg.Workers),
	)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFatal
	}

	reports := v.ValidateBatch(ctx, files)
	defer func() {
		for _, r := range reports {
			r.Release()
		}
	}()

	exitCode := exitOK
	for _, r := range reports {
		printReport(opts, out, r)
		if r.Failed() || r.HasIssues() {
			exitCode = exitIssues
		}
		if r.Failed() {
			continue
		}
		paths, err := writer.WriteReport(r)
		if err != nil {
			fmt.Fprintf(out, "  Failed to write report: %v\n", err)
			exitCode = exitFatal
			continue
		}
		for _, p := range paths {
			say(opts, out, "  Schema validation results written to %s\n", p)
		}
	}

	summary, err := writer.WriteSummary(reports)
	if err != nil {
		fmt.Fprintf(out, "Failed to write summary: %v\n", err)
		return exitFatal
	}

	m := v.Metrics().Snapshot()
	fmt.Fprintf(out, "\nValidated %d files (%d failed): %d tokens, %d invalid, %d unknown field. Summary: %s\n",
		m.FilesTotal, m.FilesFailed, m.TokensTotal, m.TokensInvalid, m.TokensUnknown, summary)
	log.WithField("elapsed", time.Since(start).String()).Info("run complete")

	return exitCode
}

func printReport(opts *Options, out io.Writer, r *ev.Report) {
	if opts.Quiet {
		return
	}
	fmt.Fprintf(out, "\nProcessing %s...\n", r.File)
	if r.Failed() {
		fmt.Fprintf(out, "  Skipped: %v\n", r.Err)
		return
	}

	fmt.Fprintf(out, "  Checked %d coded fields.\n", r.TotalTokens)
	if r.UnrecognizedLines > 0 {
		fmt.Fprintf(out, "  Unrecognized lines: %d\n", r.UnrecognizedLines)
	}
	if !r.HasIssues() {
		fmt.Fprintf(out, "  All coded fields valid.\n")
		return
	}

	total := r.InvalidCount + r.UnknownFieldCount
	fmt.Fprintf(out, "  Invalid entries: %d\n", total)
	for i, res := range r.Issues {
		if i == previewLimit {
			break
		}
		fmt.Fprintf(out, "    %s.%s = %s\n", res.Token.Block, res.Token.Field, res.Token.Value)
	}
	if total > previewLimit {
		fmt.Fprintf(out, "    ...and %d more.\n", total-previewLimit)
	}
}

func buildSource(ctx context.Context, cfg *config.Config) (registry.Source, error) {
	var source registry.Source
	if cfg.RegistryFile != "" {
		source = registry.NewFileSource(cfg.RegistryFile)
	} else {
		clientOpts := []registry.ClientOption{
			registry.WithURL(cfg.RegistryURL),
			registry.WithTimeout(cfg.RegistryTimeout),
			registry.WithRetries(cfg.RegistryRetries),
		}
		if cfg.RegistryCheck != "" {
			chk, err := registry.NewCheck(cfg.RegistryCheck, "")
			if err != nil {
				return nil, err
			}
			clientOpts = append(clientOpts, registry.WithChecks(chk))
		}
		source = registry.NewClient(clientOpts...)
	}

	if cfg.RedisAddress == "" {
		return source, nil
	}
	client, err := registry.DialRedis(ctx, cfg.RedisAddress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		logger.Warn("registry snapshot store disabled: %v", err)
		return source, nil
	}
	return registry.NewCachedSource(source, registry.NewRedisStore(client, "", 0)), nil
}

func setupLogging(cfg *config.Config) {
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	logger.SetJSON(cfg.LogFormat == "json")
}

func say(opts *Options, out io.Writer, format string, args ...any) {
	if opts.Quiet {
		return
	}
	fmt.Fprintf(out, format, args...)
}
