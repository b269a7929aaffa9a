package errdis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/model"
)

// smallestNormal is the smallest positive normal float64.
const smallestNormal = 0x1p-1022

// Mixed is the mixture f*L1 + (1-f)*L2 of two error distributions.
//
// Its hyperparameters are those of the first child, then those of the
// second child, then the fraction f. An allpars vector is therefore laid out
// as [model][h1...][h2...][f].
type Mixed struct {
	base
	d1, d2 ErrorDistribution
	n1, n2 int
}

// NewMixed combines d1 and d2, which must share their data. A nil fraction
// is free on [0, 1] starting at 0.5.
func NewMixed(d1, d2 ErrorDistribution, fraction *HyperParameter) (*Mixed, error) {
	if d1 == nil || d2 == nil {
		return nil, fmt.Errorf("%w: mixed needs two distributions", domain.ErrUnknownDistribution)
	}
	if !d1.Data().Equal(d2.Data()) {
		return nil, fmt.Errorf("%w: %s and %s", domain.ErrDataMismatch, d1.Name(), d2.Name())
	}
	if fraction == nil {
		fraction = NewHyperParameter(0.5)
		if err := fraction.SetLimits(0, 1); err != nil {
			return nil, err
		}
	}
	h1, h2 := d1.HyperPars(), d2.HyperPars()
	hyper := make([]*HyperParameter, 0, len(h1)+len(h2)+1)
	hyper = append(append(append(hyper, h1...), h2...), fraction)

	mx := &Mixed{d1: d1, d2: d2, n1: len(h1), n2: len(h2)}
	mx.name = "mixed(" + d1.Name() + "," + d2.Name() + ")"
	mx.data = d1.Data()
	mx.hyper = hyper
	return mx, nil
}

// Children returns the two mixed distributions.
func (mx *Mixed) Children() (ErrorDistribution, ErrorDistribution) { return mx.d1, mx.d2 }

func (mx *Mixed) AcceptWeight() bool {
	return mx.d1.AcceptWeight() && mx.d2.AcceptWeight()
}

// views returns the parameter views of both children and the fraction.
func (mx *Mixed) views(allpars []float64) (params, p1, p2 []float64, f float64) {
	np := len(allpars) - mx.n1 - mx.n2 - 1
	params = allpars[:np]
	p1 = make([]float64, 0, np+mx.n1)
	p1 = append(append(p1, params...), allpars[np:np+mx.n1]...)
	p2 = make([]float64, 0, np+mx.n2)
	p2 = append(append(p2, params...), allpars[np+mx.n1:np+mx.n1+mx.n2]...)
	return params, p1, p2, allpars[len(allpars)-1]
}

// LogLdata delegates to the second child when f <= 0 and to the first when
// f >= 1; otherwise it returns log(f L1 + (1-f) L2) per point.
func (mx *Mixed) LogLdata(m model.Model, allpars, mockdata []float64) []float64 {
	mx.calls.Add(1)
	params, p1, p2, f := mx.views(allpars)
	mock := mx.mock(m, params, mockdata)

	if f <= 0 {
		return mx.d2.LogLdata(m, p2, mock)
	}
	if f >= 1 {
		return mx.d1.LogLdata(m, p1, mock)
	}

	l1 := mx.d1.LogLdata(m, p1, mock)
	l2 := mx.d2.LogLdata(m, p2, mock)
	lf, lg := math.Log(f), math.Log(1-f)
	pair := make([]float64, 2)
	out := make([]float64, len(l1))
	for i := range l1 {
		pair[0], pair[1] = l1[i]+lf, l2[i]+lg
		out[i] = floats.LogSumExp(pair)
	}
	return out
}

// NextPartialData returns the partials of the mixture. Where the combined
// likelihood is below the smallest normal float or not finite, every partial
// is exactly 0.
func (mx *Mixed) NextPartialData(m model.Model, allpars []float64, fitIndex []int, mockdata []float64) *PartialSeq {
	mx.pcalls.Add(1)
	params, p1, p2, f := mx.views(allpars)
	mock := mx.mock(m, params, mockdata)
	emf := 1 - f

	// translate sentinels to the children's own views
	var fit1, fit2 []int
	for _, fi := range fitIndex {
		switch {
		case fi >= 0:
			fit1 = append(fit1, fi)
			fit2 = append(fit2, fi)
		case fi == -1:
		case fi >= -(mx.n2 + 1):
			fit2 = append(fit2, fi+1)
		default:
			fit1 = append(fit1, fi+mx.n2+1)
		}
	}

	l1 := mx.d1.LogLdata(m, p1, mock)
	l2 := mx.d2.LogLdata(m, p2, mock)
	rec := make([]float64, len(l1))
	for i := range l1 {
		l1[i] = math.Exp(l1[i])
		l2[i] = math.Exp(l2[i])
		sum := f*l1[i] + emf*l2[i]
		if sum >= smallestNormal && !math.IsInf(sum, 0) {
			rec[i] = 1 / sum
		}
	}
	seq1 := mx.d1.NextPartialData(m, p1, fit1, mock)
	seq2 := mx.d2.NextPartialData(m, p2, fit2, mock)

	return newPartialSeq(fitIndex, func(fi int) []float64 {
		out := make([]float64, len(rec))
		switch {
		case fi >= 0:
			g1, _ := seq1.Next()
			g2, _ := seq2.Next()
			for i, r := range rec {
				if r != 0 {
					out[i] = r * (f*l1[i]*g1[i] + emf*l2[i]*g2[i])
				}
			}
		case fi == -1:
			for i, r := range rec {
				if r != 0 {
					out[i] = r * (l1[i] - l2[i])
				}
			}
		case fi >= -(mx.n2 + 1):
			g2, _ := seq2.Next()
			for i, r := range rec {
				if r != 0 {
					out[i] = r * emf * l2[i] * g2[i]
				}
			}
		default:
			g1, _ := seq1.Next()
			for i, r := range rec {
				if r != 0 {
					out[i] = r * f * l1[i] * g1[i]
				}
			}
		}
		return out
	})
}
