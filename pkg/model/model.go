// Package model defines the forward-model contract the sampler consumes and
// provides a few models for tests and the command line.
package model

import (
	"fmt"

	"github.com/rwhender/BayesicFitting/pkg/prior"
)

// Model evaluates a parametric function and its partial derivatives.
type Model interface {
	// Result returns f(x; params) for every x.
	Result(x []float64, params []float64) []float64
	// Partial returns df/dp_k for every parameter k, each of len(x).
	Partial(x []float64, params []float64) [][]float64
	// NPars is the (initial) number of parameters.
	NPars() int
	// Prior returns the prior of parameter k, or nil.
	Prior(k int) prior.Prior
	// HasPriors reports whether every parameter has a prior.
	HasPriors() bool
	// IsDynamic reports whether the number of parameters may change.
	IsDynamic() bool
	fmt.Stringer
}

// Dynamic is a model whose parameter count changes during sampling.
// The count in use is always len(params).
type Dynamic interface {
	Model
	// IsValidParameterCount reports whether n parameters form a valid model.
	IsValidParameterCount(n int) bool
}

// Base keeps the priors of a model.
type Base struct {
	npars  int
	priors []prior.Prior
}

// NPars returns the number of parameters.
func (b *Base) NPars() int { return b.npars }

// SetPriors assigns priors to the parameters in order. For dynamic models the
// last prior also serves every parameter beyond the list.
func (b *Base) SetPriors(ps ...prior.Prior) {
	b.priors = append(b.priors[:0], ps...)
}

// Prior returns the prior of parameter k.
func (b *Base) Prior(k int) prior.Prior {
	if len(b.priors) == 0 || k < 0 {
		return nil
	}
	if k >= len(b.priors) {
		return b.priors[len(b.priors)-1]
	}
	return b.priors[k]
}

// HasPriors reports whether all parameters have a prior.
func (b *Base) HasPriors() bool {
	if len(b.priors) == 0 {
		return b.npars == 0
	}
	for k := 0; k < b.npars; k++ {
		if b.Prior(k) == nil {
			return false
		}
	}
	return true
}

// IsDynamic is false for the base.
func (b *Base) IsDynamic() bool { return false }
