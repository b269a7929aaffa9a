package engine

import (
	"math"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Galilean moves all fitted entries along a random velocity for a number of
// steps. At a wall of the unit cube the velocity is mirrored. At the
// likelihood floor it is mirrored on the gradient of logL; when that fails
// too, it is reversed. The step size grows after acceptances and shrinks
// after rejections, within one call.
type Galilean struct{ base }

// NewGalilean returns the galilean engine.
func NewGalilean(walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) *Galilean {
	return &Galilean{newBase("galilean", walkers, d, seed, opts)}
}

func (e *Galilean) Clone(seed uint64) Engine {
	return &Galilean{e.clone(seed)}
}

// move advances u by size*v. It returns the new point and the velocity
// after mirroring at the walls of the unit cube; u and v are left alone.
func move(u, v []float64, size float64) ([]float64, []float64) {
	out := make([]float64, len(u))
	vel := make([]float64, len(v))
	for k := range u {
		x := u[k] + size*v[k]
		vel[k] = v[k]
		if x < 0 || x > 1 {
			vel[k] = -v[k]
			x = fold(x)
		}
		out[k] = x
	}
	return out, vel
}

// normal returns the normalised gradient of logL at allpars in unit-cube
// space, or nil when it vanishes.
func (e *Galilean) normal(w *walker.Walker, sp Space, allpars []float64) []float64 {
	grad := errdis.PartialLogL(e.errdis, w.Problem.Model(), allpars, w.FitIndex)
	var norm float64
	for k, fi := range w.FitIndex {
		// dlogL/du = dlogL/dx / (du/dx)
		dens := sp.Prior(fi).PartialDomainToUnit(allpars[w.Index(fi)])
		if dens == 0 || math.IsNaN(grad[k]) || math.IsInf(grad[k], 0) {
			grad[k] = 0
			continue
		}
		grad[k] /= dens
		norm += grad[k] * grad[k]
	}
	if norm == 0 || math.IsInf(norm, 0) {
		return nil
	}
	norm = math.Sqrt(norm)
	for k := range grad {
		grad[k] /= norm
	}
	return grad
}

func mirror(v, n []float64) []float64 {
	var dot float64
	for k := range v {
		dot += v[k] * n[k]
	}
	out := make([]float64, len(v))
	for k := range v {
		out[k] = v[k] - 2*dot*n[k]
	}
	return out
}

func (e *Galilean) Execute(w *walker.Walker, lowLhood float64) int {
	e.counters.calls.Add(1)
	sp := e.space(w)
	changed := e.changed(w)

	v := make([]float64, len(w.FitIndex))
	for k, fi := range w.FitIndex {
		v[k] = e.rng.NormFloat64() * e.box.Span(fi).Range
	}
	size := 1.0
	u := e.unitPoint(w, sp)

	moves := 0
	trial := 0
	for step := 0; step < e.steps; step++ {
		u1, v1 := move(u, v, size)
		allpars := e.place(w, sp, u1)
		if logL := e.logL(w, allpars, changed); logL >= lowLhood {
			e.accept(w, allpars, logL)
			u, v = u1, v1
			moves++
			size *= 1.2
			continue
		}

		// bounce off the likelihood wall
		if n := e.normal(w, sp, allpars); n != nil {
			vm := mirror(v, n)
			u2, v2 := move(u1, vm, size)
			allpars2 := e.place(w, sp, u2)
			if logL := e.logL(w, allpars2, changed); logL >= lowLhood {
				e.accept(w, allpars2, logL)
				u, v = u2, v2
				moves++
				continue
			}
		}

		for k := range v {
			v[k] = -v[k]
		}
		size *= 0.5
		trial++
		if trial >= e.maxTrials {
			e.counters.failed.Add(1)
			return moves
		}
		e.counters.reject.Add(1)
	}
	return moves
}
