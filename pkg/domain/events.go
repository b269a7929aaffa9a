package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventIteration  EventType = "iteration"
	EventCheckpoint EventType = "checkpoint"
	EventRunFinish  EventType = "run_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// IterationEvent describes the state after one discard/replace cycle.
type IterationEvent struct {
	EventBase
	Iteration   int       `json:"iteration"`
	LogZ        float64   `json:"log_z"`
	Information float64   `json:"information"`
	LowLhood    float64   `json:"low_lhood"`
	NPars       int       `json:"npars"`
	Parameters  []float64 `json:"parameters"`
}

// CheckpointEvent reports a save or a restore of the run state.
type CheckpointEvent struct {
	EventBase
	Iteration int  `json:"iteration"`
	Restored  bool `json:"restored"`
}

// RunEvent marks the start and the end of a run. Summary is nil at start.
type RunEvent struct {
	EventBase
	Summary *Summary `json:"summary,omitempty"`
}

// LifecycleHooks defines callbacks for sampler observability.
// Hooks run on the orchestrator goroutine and must not block.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnIteration  func(context.Context, *IterationEvent)
	OnCheckpoint func(context.Context, *CheckpointEvent)
	OnRunFinish  func(context.Context, *RunEvent)
}

// Combine returns hooks that call every non-nil hook of hs in order.
func Combine(hs ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range hs {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnIteration: func(ctx context.Context, e *IterationEvent) {
			for _, h := range hs {
				if h.OnIteration != nil {
					h.OnIteration(ctx, e)
				}
			}
		},
		OnCheckpoint: func(ctx context.Context, e *CheckpointEvent) {
			for _, h := range hs {
				if h.OnCheckpoint != nil {
					h.OnCheckpoint(ctx, e)
				}
			}
		},
		OnRunFinish: func(ctx context.Context, e *RunEvent) {
			for _, h := range hs {
				if h.OnRunFinish != nil {
					h.OnRunFinish(ctx, e)
				}
			}
		},
	}
}
