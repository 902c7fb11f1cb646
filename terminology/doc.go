// Package terminology holds the registry snapshot: the immutable set of
// valid (field, code) pairs a validation run checks tokens against.
//
// A Snapshot is built once per run, from the raw triples returned by the
// registry collaborator or from FHIR R4 CodeSystem resources, and is then
// shared read-only by every validation worker.
//
// Example usage:
//
//	snap, err := terminology.NewSnapshot(codes, terminology.WithCaseFold())
//	if err != nil {
//	    return err // *ev.RegistryError
//	}
//
//	snap.Contains("BODY_TYPE", "SEDAN")
//	snap.ExpectedCodes("BODY_TYPE") // "COUPE, SEDAN, ..."
package terminology
