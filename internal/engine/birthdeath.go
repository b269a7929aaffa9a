package engine

import (
	"slices"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/model"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Birth appends a model parameter, drawn from its prior, to a walker of a
// dynamic model.
type Birth struct{ base }

// NewBirth returns the birth engine.
func NewBirth(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Birth {
	return &Birth{newBase("birth", walkers, d, seed, opts)}
}

func (e *Birth) Clone(seed uint64) Engine {
	return &Birth{e.clone(seed)}
}

// Death removes the last model parameter of a walker of a dynamic model.
type Death struct{ base }

// NewDeath returns the death engine.
func NewDeath(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Death {
	return &Death{newBase("death", walkers, d, seed, opts)}
}

func (e *Death) Clone(seed uint64) Engine {
	return &Death{e.clone(seed)}
}

func dynamic(w *walker.Walker) (model.Dynamic, bool) {
	d, ok := w.Problem.Model().(model.Dynamic)
	return d, ok
}

// resize returns allpars and fitIndex of w with model parameter np inserted
// (value x) or, when grow is false, with the last model parameter removed.
func resize(w *walker.Walker, grow bool, x float64) ([]float64, []int) {
	np := w.NPars()
	var allpars []float64
	if grow {
		allpars = slices.Insert(slices.Clone(w.Allpars), np, x)
	} else {
		allpars = slices.Delete(slices.Clone(w.Allpars), np-1, np)
	}

	fitIndex := make([]int, 0, len(w.FitIndex)+1)
	for _, fi := range w.FitIndex {
		if fi >= 0 {
			if !grow && fi == np-1 {
				continue
			}
			fitIndex = append(fitIndex, fi)
		}
	}
	if grow {
		fitIndex = append(fitIndex, np)
	}
	for _, fi := range w.FitIndex {
		if fi < 0 {
			fitIndex = append(fitIndex, fi)
		}
	}
	return allpars, fitIndex
}

func (e *Birth) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	dm, ok := dynamic(w)
	np := w.NPars()
	if !ok || !dm.IsValidParameterCount(np+1) || dm.Prior(np) == nil {
		e.counters.failed.Add(1)
		return 0
	}
	for trial := 1; ; trial++ {
		x := dm.Prior(np).UnitToDomain(e.rng.Float64())
		allpars, fitIndex := resize(w, true, x)
		logL := errdis.LogLikelihood(e.errdis, dm, allpars)
		if logL >= lowLhood {
			e.accept(w, allpars, logL)
			w.FitIndex = fitIndex
			return 1
		}
		if trial >= e.maxTrials {
			e.counters.failed.Add(1)
			return 0
		}
		e.counters.reject.Add(1)
	}
}

func (e *Death) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	dm, ok := dynamic(w)
	np := w.NPars()
	if !ok || np == 0 || !dm.IsValidParameterCount(np-1) {
		e.counters.failed.Add(1)
		return 0
	}
	allpars, fitIndex := resize(w, false, 0)
	logL := errdis.LogLikelihood(e.errdis, dm, allpars)
	if logL >= lowLhood {
		e.accept(w, allpars, logL)
		w.FitIndex = fitIndex
		return 1
	}
	e.counters.failed.Add(1)
	return 0
}
