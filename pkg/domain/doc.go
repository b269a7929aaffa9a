/*
Package domain contains the value types shared by the nested sampler, its
adapters and its hosts.

It is kept free of numerics and I/O: run states, lifecycle events and hooks,
the serialisable checkpoint of a run and the end-of-run summary, plus the
sentinel errors every layer wraps.

# Key Entities

  - RunState: UNINITIALIZED → INITIALIZED → ITERATING → TERMINATED.
  - Checkpoint: the ensemble, the posterior and the evidence bookkeeping of a run.
  - Summary: evidence, information, posterior statistics and engine counters.
  - LifecycleHooks: callbacks for observability.
*/
package domain
