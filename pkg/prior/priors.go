package prior

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Uniform is a flat prior on [lo, hi].
type Uniform struct {
	*cdfPrior
}

// NewUniform returns a flat prior between lo and hi.
func NewUniform(lo, hi float64) (*Uniform, error) {
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: uniform prior needs finite lo < hi, got [%g, %g]", domain.ErrInvalidPrior, lo, hi)
	}
	p, err := newCDFPrior("Uniform", distuv.Uniform{Min: lo, Max: hi}, []Option{WithLimits(lo, hi)})
	if err != nil {
		return nil, err
	}
	return &Uniform{p}, nil
}

func (u *Uniform) String() string {
	return fmt.Sprintf("UniformPrior[%g, %g]", u.lo, u.hi)
}

// Jeffreys is flat in log(x) on [lo, hi], the scale-invariant prior used for
// noise scales.
type Jeffreys struct {
	limits
	log distuv.Uniform
}

// NewJeffreys returns a Jeffreys prior; it needs 0 < lo < hi.
func NewJeffreys(lo, hi float64) (*Jeffreys, error) {
	if !(lo > 0 && lo < hi) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: jeffreys prior needs 0 < lo < hi < inf, got [%g, %g]", domain.ErrInvalidPrior, lo, hi)
	}
	return &Jeffreys{
		limits: limits{lo: lo, hi: hi, set: true},
		log:    distuv.Uniform{Min: math.Log(lo), Max: math.Log(hi)},
	}, nil
}

func (j *Jeffreys) DomainToUnit(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return j.log.CDF(math.Log(x))
}

func (j *Jeffreys) UnitToDomain(u float64) float64 {
	return math.Exp(j.log.Quantile(math.Min(math.Max(u, 0), 1)))
}

func (j *Jeffreys) PartialDomainToUnit(x float64) float64 {
	if j.IsOutOfLimits(x) || x <= 0 {
		return 0
	}
	return j.log.Prob(math.Log(x)) / x
}

func (j *Jeffreys) String() string {
	return fmt.Sprintf("JeffreysPrior[%g, %g]", j.lo, j.hi)
}

// Gauss is a normal prior, optionally truncated to limits.
type Gauss struct {
	*cdfPrior
	center, scale float64
}

// NewGauss returns a normal prior with the given center and scale.
func NewGauss(center, scale float64, opts ...Option) (*Gauss, error) {
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: gauss prior needs scale > 0, got %g", domain.ErrInvalidPrior, scale)
	}
	p, err := newCDFPrior("Gauss", distuv.Normal{Mu: center, Sigma: scale}, opts)
	if err != nil {
		return nil, err
	}
	return &Gauss{cdfPrior: p, center: center, scale: scale}, nil
}

func (g *Gauss) String() string {
	return fmt.Sprintf("GaussPrior(%g, %g)", g.center, g.scale)
}

// Laplace is a double-exponential prior, optionally truncated to limits.
type Laplace struct {
	*cdfPrior
	center, scale float64
}

// NewLaplace returns a Laplace prior with the given center and scale.
func NewLaplace(center, scale float64, opts ...Option) (*Laplace, error) {
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: laplace prior needs scale > 0, got %g", domain.ErrInvalidPrior, scale)
	}
	p, err := newCDFPrior("Laplace", distuv.Laplace{Mu: center, Scale: scale}, opts)
	if err != nil {
		return nil, err
	}
	return &Laplace{cdfPrior: p, center: center, scale: scale}, nil
}

func (l *Laplace) String() string {
	return fmt.Sprintf("LaplacePrior(%g, %g)", l.center, l.scale)
}

// Exponential is a prior on [0, inf) with density exp(-x/scale)/scale.
type Exponential struct {
	*cdfPrior
	scale float64
}

// NewExponential returns an exponential prior with the given scale.
func NewExponential(scale float64, opts ...Option) (*Exponential, error) {
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: exponential prior needs scale > 0, got %g", domain.ErrInvalidPrior, scale)
	}
	p, err := newCDFPrior("Exponential", distuv.Exponential{Rate: 1 / scale}, opts)
	if err != nil {
		return nil, err
	}
	return &Exponential{cdfPrior: p, scale: scale}, nil
}

func (e *Exponential) String() string {
	return fmt.Sprintf("ExponentialPrior(%g)", e.scale)
}

// New builds a prior by name. The params are interpreted per kind:
// uniform and jeffreys take (lo, hi); gauss and laplace take (center, scale);
// exponential takes (scale).
func New(kind string, params []float64, opts ...Option) (Prior, error) {
	need := map[string]int{"uniform": 2, "jeffreys": 2, "gauss": 2, "laplace": 2, "exponential": 1}
	n, ok := need[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown prior %q", domain.ErrInvalidPrior, kind)
	}
	if len(params) != n {
		return nil, fmt.Errorf("%w: %s prior takes %d parameters, got %d", domain.ErrInvalidPrior, kind, n, len(params))
	}
	var (
		p   Prior
		err error
	)
	switch kind {
	case "uniform":
		p, err = NewUniform(params[0], params[1])
	case "jeffreys":
		p, err = NewJeffreys(params[0], params[1])
	case "gauss":
		p, err = NewGauss(params[0], params[1], opts...)
	case "laplace":
		p, err = NewLaplace(params[0], params[1], opts...)
	default:
		p, err = NewExponential(params[0], opts...)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
