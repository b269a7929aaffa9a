package domain

import (
	"slices"
	"time"
)

// WalkerState is the serialisable form of one ensemble member.
type WalkerState struct {
	ID       int       `json:"id"`
	Parent   int       `json:"parent"`
	Allpars  []float64 `json:"allpars"`
	FitIndex []int     `json:"fit_index"`
	LogL     float64   `json:"log_l"`
	NHyper   int       `json:"nhyper"`
}

// SampleState is the serialisable form of one posterior sample.
type SampleState struct {
	ID       int       `json:"id"`
	Parent   int       `json:"parent"`
	Allpars  []float64 `json:"allpars"`
	FitIndex []int     `json:"fit_index"`
	LogL     float64   `json:"log_l"`
	LogW     float64   `json:"log_w"`
	NHyper   int       `json:"nhyper"`
}

// Checkpoint is everything needed to resume a run at Iteration.
type Checkpoint struct {
	RunID       string        `json:"run_id"`
	Iteration   int           `json:"iteration"`
	LogZ        float64       `json:"log_z"`
	Information float64       `json:"information"`
	Ensemble    int           `json:"ensemble"`
	Discard     int           `json:"discard"`
	Seed        uint64        `json:"seed"`
	Walkers     []WalkerState `json:"walkers,omitempty"`
	Samples     []SampleState `json:"samples,omitempty"`
	SavedAt     time.Time     `json:"saved_at"`

	// Envelope holds the sealed checkpoint when a store middleware encrypts it.
	Envelope string `json:"envelope,omitempty"`
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	out := *c
	out.Walkers = make([]WalkerState, len(c.Walkers))
	for i, w := range c.Walkers {
		w.Allpars = slices.Clone(w.Allpars)
		w.FitIndex = slices.Clone(w.FitIndex)
		out.Walkers[i] = w
	}
	out.Samples = make([]SampleState, len(c.Samples))
	for i, s := range c.Samples {
		s.Allpars = slices.Clone(s.Allpars)
		s.FitIndex = slices.Clone(s.FitIndex)
		out.Samples[i] = s
	}
	return &out
}
