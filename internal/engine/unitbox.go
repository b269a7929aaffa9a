package engine

import (
	"math"

	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// minRange keeps step sizes positive for a collapsed ensemble.
const minRange = 1e-12

// Span is the extent of the ensemble along one fitted entry, in unit-cube space.
type Span struct {
	Min   float64
	Range float64
}

var fullSpan = Span{Min: 0, Range: 1}

// UnitBox holds the unit-cube extent of the live ensemble. It is recomputed
// between explorations and read-only while engines run.
type UnitBox struct {
	model []Span
	// hyper[j-1] is the span of fit index -j.
	hyper []Span
}

// NewUnitBox computes the extent of live along every fitted entry.
func NewUnitBox(live []*walker.Walker, d errdis.ErrorDistribution) *UnitBox {
	type bounds struct{ lo, hi float64 }
	var model, hyper []bounds
	grow := func(bs []bounds, i int) []bounds {
		for len(bs) <= i {
			bs = append(bs, bounds{lo: math.Inf(1), hi: math.Inf(-1)})
		}
		return bs
	}
	hp := d.HyperPars()
	for _, w := range live {
		sp := Space{w: w, hyper: hp}
		for _, fi := range w.FitIndex {
			p := sp.Prior(fi)
			if p == nil {
				continue
			}
			u := p.DomainToUnit(w.Allpars[w.Index(fi)])
			var b *bounds
			if fi >= 0 {
				model = grow(model, fi)
				b = &model[fi]
			} else {
				hyper = grow(hyper, -fi-1)
				b = &hyper[-fi-1]
			}
			b.lo = math.Min(b.lo, u)
			b.hi = math.Max(b.hi, u)
		}
	}
	toSpans := func(bs []bounds) []Span {
		out := make([]Span, len(bs))
		for i, b := range bs {
			if b.lo > b.hi {
				out[i] = fullSpan
				continue
			}
			out[i] = Span{Min: b.lo, Range: math.Max(b.hi-b.lo, minRange)}
		}
		return out
	}
	return &UnitBox{model: toSpans(model), hyper: toSpans(hyper)}
}

// Span returns the extent along fit index fi; the full unit interval when
// unknown.
func (b *UnitBox) Span(fi int) Span {
	if b == nil {
		return fullSpan
	}
	if fi >= 0 {
		if fi < len(b.model) {
			return b.model[fi]
		}
		return fullSpan
	}
	if j := -fi - 1; j < len(b.hyper) {
		return b.hyper[j]
	}
	return fullSpan
}
