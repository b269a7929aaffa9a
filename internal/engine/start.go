package engine

import (
	"math"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Start draws an independent point from the prior. It populates the
// ensemble, usually with a floor of -inf.
type Start struct{ base }

// NewStart returns the start engine.
func NewStart(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Start {
	return &Start{newBase("start", walkers, d, seed, opts)}
}

func (e *Start) Clone(seed uint64) Engine {
	return &Start{e.clone(seed)}
}

func (e *Start) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	changed := e.changed(w)
	u := make([]float64, len(w.FitIndex))
	for trial := 1; ; trial++ {
		for k := range u {
			u[k] = e.rng.Float64()
		}
		allpars := e.place(w, sp, u)
		logL := e.logL(w, allpars, changed)
		if logL >= lowLhood {
			e.accept(w, allpars, logL)
			return 1
		}
		if trial >= e.maxTrials {
			e.counters.failed.Add(1)
			return 0
		}
		e.counters.reject.Add(1)
	}
}

// Random redraws one entry at a time, uniformly within the extent of the
// ensemble widened by one walker spacing.
type Random struct{ base }

// NewRandom returns the random engine.
func NewRandom(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Random {
	return &Random{newBase("random", walkers, d, seed, opts)}
}

func (e *Random) Clone(seed uint64) Engine {
	return &Random{e.clone(seed)}
}

func (e *Random) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	n := 2.0
	if e.walkers != nil && e.walkers.Ensemble() > 1 {
		n = float64(e.walkers.Ensemble())
	}

	moves := 0
	for _, k := range e.rng.Perm(len(w.FitIndex)) {
		fi := w.FitIndex[k]
		idx := w.Index(fi)
		span := e.box.Span(fi)
		r := span.Range * n / (n - 1)
		lo := math.Max(0, span.Min-r/n)
		hi := math.Min(1, lo+r)

		allpars := append([]float64(nil), w.Allpars...)
		for trial := 1; ; trial++ {
			allpars[idx] = sp.ToDomain(fi, lo+(hi-lo)*e.rng.Float64())
			logL := e.logL(w, allpars, []int{idx})
			if logL >= lowLhood {
				e.accept(w, allpars, logL)
				moves++
				break
			}
			if trial >= e.maxTrials {
				e.counters.failed.Add(1)
				break
			}
			e.counters.reject.Add(1)
		}
	}
	return moves
}
