/*
Package refit orchestrates a fixed five-phase refactoring pipeline with a
human approval gate after every phase.

The phases are scan, critique, plan, execute and validate, always in that
order. Each phase hands its output to a configured executor process, persists
the result as an artifact, and parks at a gate until the operator approves the
output, requests a revision, or abandons the run. State survives process exits:
every invocation re-reads the persisted record, so a run can be resumed days
later from any machine that sees the same storage.

The library follows a hexagonal layout. Phase and run semantics live in
pkg/domain with no dependencies; pkg/ports declares the storage and execution
interfaces; adapters for the local filesystem, Redis and subprocess execution
live under internal/adapters. The Pipeline type in this package wires those
pieces together for embedding; the refit CLI is a thin layer over the same
API.

# Usage

	p, err := refit.New(".refit/runs")
	if err != nil {
		log.Fatal(err)
	}
	runID, _, err := p.Start(ctx)
	// ... later, after reviewing the scan output:
	rec, err := p.Approve(ctx, runID, "looks right")
*/
package refit

// Version is the library and CLI release version.
const Version = "0.2.0"
