/*
Package ports defines the driven ports (interfaces) for the refit orchestrator.

These interfaces decouple the pipeline controller from external implementations,
allowing the orchestrator to work with various storage backends and executors.

# Key Interfaces

  - StateStore: Atomic persistence of a run's StateRecord.
  - ArtifactStore: Persistence of per-phase output artifacts.
  - RunStore: Run directory lifecycle and "latest" resolution.
  - PhaseExecutor: The opaque collaborator that performs a phase's actual work.
  - DistributedLocker: Optional locking for concurrent invocations on shared storage.
*/
package ports
