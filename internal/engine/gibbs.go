package engine

import (
	"slices"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Gibbs moves one fitted entry at a time by a random step drawn from the
// extent of the ensemble along that entry. The step halves after each
// rejection.
type Gibbs struct{ base }

// NewGibbs returns the gibbs engine.
func NewGibbs(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Gibbs {
	return &Gibbs{newBase("gibbs", walkers, d, seed, opts)}
}

func (e *Gibbs) Clone(seed uint64) Engine {
	return &Gibbs{e.clone(seed)}
}

func (e *Gibbs) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	moves := 0
	for _, k := range e.rng.Perm(len(w.FitIndex)) {
		fi := w.FitIndex[k]
		idx := w.Index(fi)
		u0 := sp.ToUnit(fi, w.Allpars[idx])
		scale := e.box.Span(fi).Range

		allpars := slices.Clone(w.Allpars)
		for trial := 1; ; trial++ {
			allpars[idx] = sp.ToDomain(fi, fold(u0+scale*(2*e.rng.Float64()-1)))
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
			scale /= 2
		}
	}
	return moves
}

// Step moves all fitted entries jointly, a number of times per call, by
// random steps drawn from the extent of the ensemble. The step halves after
// each rejection and is reset after an acceptance.
type Step struct{ base }

// NewStep returns the step engine.
func NewStep(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Step {
	return &Step{newBase("step", walkers, d, seed, opts)}
}

func (e *Step) Clone(seed uint64) Engine {
	return &Step{e.clone(seed)}
}

func (e *Step) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	changed := e.changed(w)
	moves := 0
	u := make([]float64, len(w.FitIndex))
	for step := 0; step < e.steps; step++ {
		u0 := e.unitPoint(w, sp)
		scale := 1.0
		for trial := 1; ; trial++ {
			for k, fi := range w.FitIndex {
				u[k] = fold(u0[k] + scale*e.box.Span(fi).Range*(2*e.rng.Float64()-1))
			}
			allpars := e.place(w, sp, u)
			logL := e.logL(w, allpars, changed)
			if logL >= lowLhood {
				e.accept(w, allpars, logL)
				moves++
				break
			}
			if trial >= e.maxTrials {
				e.counters.failed.Add(1)
				return moves
			}
			e.counters.reject.Add(1)
			scale /= 2
		}
	}
	return moves
}
