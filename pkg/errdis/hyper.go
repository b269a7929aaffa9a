package errdis

import (
	"fmt"
	"math"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/prior"
)

// HyperParameter is a nuisance parameter of an error distribution, such as a
// noise scale or a mixture fraction. A hyperparameter without limits is fixed.
type HyperParameter struct {
	value float64
	prior prior.Prior
	fixed bool
}

// NewHyperParameter returns a fixed hyperparameter with the given value.
func NewHyperParameter(value float64) *HyperParameter {
	return &HyperParameter{value: value, fixed: true}
}

// SetLimits frees the hyperparameter within [lo, hi]. The prior is Jeffreys
// when lo > 0 and uniform otherwise.
func (h *HyperParameter) SetLimits(lo, hi float64) error {
	var (
		p   prior.Prior
		err error
	)
	if lo > 0 {
		p, err = prior.NewJeffreys(lo, hi)
	} else {
		p, err = prior.NewUniform(lo, hi)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidHyperParameter, err)
	}
	h.prior = p
	h.fixed = false
	return nil
}

// SetPrior frees the hyperparameter under p. p must have limits.
func (h *HyperParameter) SetPrior(p prior.Prior) error {
	if p == nil || !p.HasLimits() {
		return fmt.Errorf("%w: prior must have limits", domain.ErrInvalidHyperParameter)
	}
	h.prior = p
	h.fixed = false
	return nil
}

// SetFixed fixes or frees the hyperparameter. Freeing requires limits.
func (h *HyperParameter) SetFixed(fixed bool) error {
	if !fixed && !h.IsBound() {
		return fmt.Errorf("%w: cannot free a hyperparameter without limits", domain.ErrInvalidHyperParameter)
	}
	h.fixed = fixed
	return nil
}

// SetValue sets the current value.
func (h *HyperParameter) SetValue(v float64) { h.value = v }

// Value returns the current value.
func (h *HyperParameter) Value() float64 { return h.value }

// Prior returns the prior, nil for a hyperparameter that never had limits.
func (h *HyperParameter) Prior() prior.Prior { return h.prior }

// IsFixed reports whether the hyperparameter is excluded from fitting.
func (h *HyperParameter) IsFixed() bool { return h.fixed }

// IsBound reports whether limits are set.
func (h *HyperParameter) IsBound() bool {
	return h.prior != nil && h.prior.HasLimits()
}

// Limits returns the limits, or [-inf, inf] when unbound.
func (h *HyperParameter) Limits() (lo, hi float64) {
	if !h.IsBound() {
		return math.Inf(-1), math.Inf(1)
	}
	return h.prior.Limits()
}

func (h *HyperParameter) String() string {
	if h.fixed {
		return fmt.Sprintf("%g (fixed)", h.value)
	}
	return fmt.Sprintf("%g %s", h.value, h.prior)
}

// IsOutOfRange reports whether the value lies outside the limits.
func (h *HyperParameter) IsOutOfRange() bool {
	return h.IsBound() && h.prior.IsOutOfLimits(h.value)
}
