package errdis

import (
	"fmt"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Options configures a distribution built by name.
type Options struct {
	// Scale is the (starting) noise scale; 0 means 1.
	Scale float64
	// Limits frees the scale within [lo, hi].
	Limits []float64
	// Power is the exponent of the exponential distribution; 0 means 2.
	Power float64
	// PowerLimits frees the power within [lo, hi].
	PowerLimits []float64

	// Components are the two children of "mixed".
	Components []Spec
	// Fraction is the starting mixture fraction; nil means 0.5.
	Fraction *float64
	// FixFraction keeps the fraction out of the fit.
	FixFraction bool
}

// Spec names a distribution with its options.
type Spec struct {
	Name    string
	Options Options
}

// Names lists the registered distributions.
var Names = []string{"gauss", "laplace", "cauchy", "uniform", "exponential", "poisson", "mixed"}

func newHyper(value, dflt float64, limits []float64) (*HyperParameter, error) {
	if value == 0 {
		value = dflt
	}
	h := NewHyperParameter(value)
	if limits == nil {
		return h, nil
	}
	if len(limits) != 2 {
		return nil, fmt.Errorf("%w: limits need 2 values, got %d", domain.ErrInvalidHyperParameter, len(limits))
	}
	if err := h.SetLimits(limits[0], limits[1]); err != nil {
		return nil, err
	}
	if h.IsOutOfRange() {
		h.SetValue(h.Prior().UnitToDomain(0.5))
	}
	return h, nil
}

// New builds a distribution by name.
func New(name string, data Data, opts Options) (ErrorDistribution, error) {
	if name == "mixed" {
		return newMixed(data, opts)
	}
	if name == "poisson" {
		if data.Weights != nil {
			return nil, fmt.Errorf("%w: poisson does not accept weights", domain.ErrInvalidConfig)
		}
		return NewPoisson(data), nil
	}

	scale, err := newHyper(opts.Scale, 1, opts.Limits)
	if err != nil {
		return nil, err
	}
	switch name {
	case "gauss":
		return NewGauss(data, scale), nil
	case "laplace":
		return NewLaplace(data, scale), nil
	case "cauchy":
		return NewCauchy(data, scale), nil
	case "uniform":
		return NewUniform(data, scale), nil
	case "exponential":
		power, err := newHyper(opts.Power, 2, opts.PowerLimits)
		if err != nil {
			return nil, err
		}
		return NewExponential(data, scale, power), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDistribution, name)
}

func newMixed(data Data, opts Options) (ErrorDistribution, error) {
	if len(opts.Components) != 2 {
		return nil, fmt.Errorf("%w: mixed needs exactly 2 components, got %d", domain.ErrUnknownDistribution, len(opts.Components))
	}
	var children [2]ErrorDistribution
	for i, c := range opts.Components {
		if c.Name == "mixed" {
			return nil, fmt.Errorf("%w: nested mixed distribution", domain.ErrUnknownDistribution)
		}
		d, err := New(c.Name, data, c.Options)
		if err != nil {
			return nil, fmt.Errorf("mixed component %d: %w", i+1, err)
		}
		children[i] = d
	}

	f := 0.5
	if opts.Fraction != nil {
		f = *opts.Fraction
	}
	if !(f >= 0 && f <= 1) {
		return nil, fmt.Errorf("%w: mixture fraction %g outside [0, 1]", domain.ErrInvalidHyperParameter, f)
	}
	fraction := NewHyperParameter(f)
	if !opts.FixFraction {
		if err := fraction.SetLimits(0, 1); err != nil {
			return nil, err
		}
	}
	return NewMixed(children[0], children[1], fraction)
}
