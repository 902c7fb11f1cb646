// Package ev5validator checks the coded fields of pipe-delimited EV5 data
// files against a snapshot of an external code registry.
//
// The root package holds the vocabulary shared by the engine and its
// collaborators: tokens, per-token results, per-file reports, the error
// taxonomy, functional options and run metrics.
//
// # Quick Start
//
//	import (
//	    ev "github.com/uvacab/ev5validator"
//	    "github.com/uvacab/ev5validator/engine"
//	    "github.com/uvacab/ev5validator/registry"
//	    "github.com/uvacab/ev5validator/schema"
//	    "github.com/uvacab/ev5validator/terminology"
//	)
//
//	idx, err := schema.Load("schema.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	codes, err := registry.NewClient().Fetch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	snap, err := terminology.NewSnapshot(codes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := engine.New(idx, snap, ev.WithWorkerCount(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := v.Validate("tape.ev5")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range report.Issues {
//	    fmt.Println(r)
//	}
//
// # Classification
//
// Every schema-resolved token of a code-validated field gets one status:
//
//   - VALID: the registry lists the value for the field
//   - INVALID: the registry knows the field but not the value
//   - UNKNOWN_FIELD: the registry has no codes at all for the field
//
// Only non-valid results are kept in a Report; valid tokens are counted.
//
// # Errors
//
// SchemaError and RegistryError are construction-time failures and abort a
// run. FileAccessError affects a single file; batch validation records it on
// that file's report and moves on.
package ev5validator
