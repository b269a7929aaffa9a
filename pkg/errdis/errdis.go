// Package errdis turns model residuals into a log-likelihood.
//
// Every distribution works on an allpars vector laid out as the model
// parameters followed by the values of all its hyperparameters. A fit index
// k >= 0 addresses model parameter k; a negative fit index -j addresses
// allpars[len(allpars)-j], i.e. hyperparameters are counted from the end.
package errdis

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/rwhender/BayesicFitting/pkg/model"
)

// Data is the dataset a distribution is evaluated against.
type Data struct {
	X       []float64
	Y       []float64
	Weights []float64
}

// Equal reports whether d and o hold identical values.
func (d Data) Equal(o Data) bool {
	return slices.Equal(d.X, o.X) && slices.Equal(d.Y, o.Y) && slices.Equal(d.Weights, o.Weights)
}

// ErrorDistribution maps model, parameters and data to per-point
// log-likelihoods and their partial derivatives.
type ErrorDistribution interface {
	// LogLdata returns the per-point log-likelihood. A nil mockdata is
	// computed from the model.
	LogLdata(m model.Model, allpars, mockdata []float64) []float64
	// NextPartialData returns the per-point partials of the log-likelihood
	// for each entry of fitIndex, in order.
	NextPartialData(m model.Model, allpars []float64, fitIndex []int, mockdata []float64) *PartialSeq
	// AcceptWeight reports whether per-point weights are supported.
	AcceptWeight() bool
	HyperPars() []*HyperParameter
	Data() Data
	Name() string

	Calls() int64
	PartialCalls() int64
	ResetCalls()
}

// Updater is an extension hook for distributions that can recompute the
// log-likelihood after a change of the allpars entries in changed. None of
// the built-in distributions implement it: they are shared between walkers
// and goroutines and keep no per-walker residuals to update from.
type Updater interface {
	UpdateLogL(m model.Model, allpars []float64, changed []int) float64
}

type base struct {
	name   string
	data   Data
	hyper  []*HyperParameter
	calls  atomic.Int64
	pcalls atomic.Int64
}

func (b *base) Data() Data                   { return b.data }
func (b *base) HyperPars() []*HyperParameter { return b.hyper }
func (b *base) Name() string                 { return b.name }
func (b *base) AcceptWeight() bool           { return true }
func (b *base) Calls() int64                 { return b.calls.Load() }
func (b *base) PartialCalls() int64          { return b.pcalls.Load() }

func (b *base) ResetCalls() {
	b.calls.Store(0)
	b.pcalls.Store(0)
}

// split returns the model parameters and the hyperparameter values of allpars.
func (b *base) split(allpars []float64) (params, hyper []float64) {
	np := len(allpars) - len(b.hyper)
	return allpars[:np], allpars[np:]
}

func (b *base) mock(m model.Model, params, mockdata []float64) []float64 {
	if mockdata != nil {
		return mockdata
	}
	return m.Result(b.data.X, params)
}

// pointFunc evaluates a per-point quantity from data y, model value m and
// the hyperparameter values.
type pointFunc func(y, m float64, hyper []float64) float64

// pointwise is a distribution whose log-likelihood factorises over the data.
type pointwise struct {
	base
	logp pointFunc
	// dm is the derivative of logp to the model value.
	dm pointFunc
	// dhyper[j] is the derivative of logp to hyperparameter j.
	dhyper []pointFunc
}

func (p *pointwise) init(name string, data Data, hyper []*HyperParameter, logp, dm pointFunc, dhyper ...pointFunc) {
	p.name, p.data, p.hyper = name, data, hyper
	p.logp, p.dm, p.dhyper = logp, dm, dhyper
}

func (p *pointwise) LogLdata(m model.Model, allpars, mockdata []float64) []float64 {
	p.calls.Add(1)
	params, hyper := p.split(allpars)
	mock := p.mock(m, params, mockdata)
	out := make([]float64, len(mock))
	for i, mi := range mock {
		out[i] = p.logp(p.data.Y[i], mi, hyper)
	}
	return out
}

func (p *pointwise) NextPartialData(m model.Model, allpars []float64, fitIndex []int, mockdata []float64) *PartialSeq {
	p.pcalls.Add(1)
	params, hyper := p.split(allpars)
	mock := p.mock(m, params, mockdata)

	var (
		dmock []float64
		mpart [][]float64
	)
	return newPartialSeq(fitIndex, func(fi int) []float64 {
		out := make([]float64, len(mock))
		if fi >= 0 {
			if mpart == nil {
				mpart = m.Partial(p.data.X, params)
				dmock = make([]float64, len(mock))
				for i, mi := range mock {
					dmock[i] = p.dm(p.data.Y[i], mi, hyper)
				}
			}
			for i := range out {
				out[i] = dmock[i] * mpart[fi][i]
			}
			return out
		}
		j := len(hyper) + fi
		if j < 0 || j >= len(p.dhyper) {
			panic(fmt.Sprintf("errdis: %s has no hyperparameter at fit index %d", p.name, fi))
		}
		for i, mi := range mock {
			out[i] = p.dhyper[j](p.data.Y[i], mi, hyper)
		}
		return out
	})
}

// LogLikelihood returns the (weighted) sum of the per-point log-likelihoods.
func LogLikelihood(d ErrorDistribution, m model.Model, allpars []float64) float64 {
	ll := d.LogLdata(m, allpars, nil)
	w := d.Data().Weights
	if w == nil || !d.AcceptWeight() {
		var s float64
		for _, v := range ll {
			s += v
		}
		return s
	}
	var s float64
	for i, v := range ll {
		if w[i] == 0 {
			continue
		}
		s += w[i] * v
	}
	return s
}

// UpdateLogL returns the log-likelihood after the allpars entries in changed
// were modified. Distributions implementing Updater may avoid a full
// recomputation; the others are evaluated from scratch.
func UpdateLogL(d ErrorDistribution, m model.Model, allpars []float64, changed []int) float64 {
	if u, ok := d.(Updater); ok {
		return u.UpdateLogL(m, allpars, changed)
	}
	return LogLikelihood(d, m, allpars)
}

// PartialLogL returns the partial derivatives of the log-likelihood to the
// parameters in fitIndex.
func PartialLogL(d ErrorDistribution, m model.Model, allpars []float64, fitIndex []int) []float64 {
	w := d.Data().Weights
	if !d.AcceptWeight() {
		w = nil
	}
	out := make([]float64, len(fitIndex))
	for k, part := range d.NextPartialData(m, allpars, fitIndex, nil).All() {
		var s float64
		for i, v := range part {
			if w != nil {
				if w[i] == 0 {
					continue
				}
				v *= w[i]
			}
			s += v
		}
		out[k] = s
	}
	return out
}

// HyperValues returns the current values of hs, in order.
func HyperValues(hs []*HyperParameter) []float64 {
	out := make([]float64, len(hs))
	for i, h := range hs {
		out[i] = h.Value()
	}
	return out
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

var negInf = math.Inf(-1)
