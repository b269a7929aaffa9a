package engine

import (
	"math"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Chord samples along the line through the walker parallel to the chord
// between two random ensemble members, clipped to the unit cube. A rejected
// point shrinks the segment towards the walker.
type Chord struct{ base }

// NewChord returns the chord engine.
func NewChord(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Chord {
	return &Chord{newBase("chord", walkers, d, seed, opts)}
}

func (e *Chord) Clone(seed uint64) Engine {
	return &Chord{e.clone(seed)}
}

// direction returns the unit-cube chord between two distinct live walkers,
// or a random direction when the ensemble cannot provide one.
func (e *Chord) direction(w *walker.Walker, sp Space) []float64 {
	n := len(w.FitIndex)
	dir := make([]float64, n)
	if e.walkers != nil && e.walkers.Ensemble() > 1 {
		ne := e.walkers.Ensemble()
		i := e.rng.Intn(ne)
		j := e.rng.Intn(ne - 1)
		if j >= i {
			j++
		}
		a, b := e.walkers.At(i), e.walkers.At(j)
		for k, fi := range w.FitIndex {
			ia, ib := a.Index(fi), b.Index(fi)
			if ia >= len(a.Allpars) || ib >= len(b.Allpars) || ia < 0 || ib < 0 {
				continue
			}
			dir[k] = sp.ToUnit(fi, a.Allpars[ia]) - sp.ToUnit(fi, b.Allpars[ib])
		}
	}
	var norm float64
	for _, d := range dir {
		norm += d * d
	}
	if norm == 0 {
		for k := range dir {
			dir[k] = e.rng.NormFloat64()
		}
	}
	return dir
}

// segment returns the range of t for which u + t*dir stays in the unit cube.
func segment(u, dir []float64) (tlo, thi float64) {
	tlo, thi = math.Inf(-1), math.Inf(1)
	for k, d := range dir {
		if d == 0 {
			continue
		}
		a, b := -u[k]/d, (1-u[k])/d
		if a > b {
			a, b = b, a
		}
		tlo = math.Max(tlo, a)
		thi = math.Min(thi, b)
	}
	return tlo, thi
}

func (e *Chord) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	changed := e.changed(w)
	moves := 0
	u := make([]float64, len(w.FitIndex))
	for step := 0; step < e.steps; step++ {
		u0 := e.unitPoint(w, sp)
		dir := e.direction(w, sp)
		tlo, thi := segment(u0, dir)
		if math.IsInf(tlo, 0) || math.IsInf(thi, 0) {
			tlo, thi = 0, 0
		}
		for trial := 1; ; trial++ {
			t := tlo + (thi-tlo)*e.rng.Float64()
			for k := range u {
				u[k] = math.Min(math.Max(u0[k]+t*dir[k], 0), 1)
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
			if t < 0 {
				tlo = t
			} else {
				thi = t
			}
		}
	}
	return moves
}
