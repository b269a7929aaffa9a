/*
Package ports defines the driven ports (interfaces) of the sampler.

These interfaces decouple the sampling core from external implementations,
allowing runs to be checkpointed to various storage backends.

# Key Interfaces

  - CheckpointStore: Responsible for persisting and loading run checkpoints.
  - Restarter: Decides when to save and whether to resume a run.
  - RunLocker: Grants a sampler exclusive use of a run ID.
*/
package ports
