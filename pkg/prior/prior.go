// Package prior maps parameters between their native domain and the unit
// interval through the cumulative distribution of their prior.
//
// All engines propose moves in unit-cube space and convert back to the
// domain through UnitToDomain, so a Prior is required for every fitted
// parameter.
package prior

import (
	"fmt"
	"math"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// unitEps keeps unbounded quantile functions finite at the cube walls.
const unitEps = 1e-16

// Prior is the contract every prior distribution satisfies.
type Prior interface {
	// DomainToUnit maps x to its cumulative probability in [0,1].
	DomainToUnit(x float64) float64
	// UnitToDomain is the inverse of DomainToUnit.
	UnitToDomain(u float64) float64
	// PartialDomainToUnit returns du/dx at x, i.e. the prior density.
	PartialDomainToUnit(x float64) float64
	// HasLimits reports whether the prior is restricted to [lo, hi].
	HasLimits() bool
	// Limits returns the limits; only meaningful when HasLimits is true.
	Limits() (lo, hi float64)
	// IsOutOfLimits reports whether x lies outside the limits.
	IsOutOfLimits(x float64) bool
	fmt.Stringer
}

// Option configures the optional limits of a prior.
type Option func(*limits) error

// WithLimits restricts a prior to the interval [lo, hi].
func WithLimits(lo, hi float64) Option {
	return func(l *limits) error {
		if !(lo < hi) || math.IsNaN(lo) || math.IsNaN(hi) {
			return fmt.Errorf("%w: limits [%g, %g] are not increasing", domain.ErrInvalidPrior, lo, hi)
		}
		l.lo, l.hi, l.set = lo, hi, true
		return nil
	}
}

type limits struct {
	lo, hi float64
	set    bool
}

func (l limits) HasLimits() bool { return l.set }

func (l limits) Limits() (float64, float64) {
	if !l.set {
		return math.Inf(-1), math.Inf(1)
	}
	return l.lo, l.hi
}

func (l limits) IsOutOfLimits(x float64) bool {
	return l.set && (x < l.lo || x > l.hi)
}

func applyOptions(l *limits, opts []Option) error {
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return err
		}
	}
	return nil
}

func clampUnit(u float64) float64 {
	switch {
	case math.IsNaN(u):
		return 0.5
	case u < unitEps:
		return unitEps
	case u > 1-unitEps:
		return 1 - unitEps
	}
	return u
}
