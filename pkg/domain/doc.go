/*
Package domain contains the core domain models for the refit pipeline.

It defines the fundamental entities of the orchestrator, such as Phases,
the StateRecord and Artifacts. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - StateRecord: The authoritative snapshot of a run (phase statuses, decisions).
  - PhaseStatus: The per-phase state machine enumeration.
  - Decision: A recorded human gate outcome (approve, revise, skip).
  - Artifact: The output content produced by a completed phase execution.
*/
package domain
