package errdis

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

func scaleOrDefault(h *HyperParameter) *HyperParameter {
	if h == nil {
		return NewHyperParameter(1)
	}
	return h
}

// Gauss is the normal error distribution with the noise scale as hyperparameter.
type Gauss struct{ pointwise }

// NewGauss returns a Gauss distribution. A nil scale is fixed at 1.
func NewGauss(data Data, scale *HyperParameter) *Gauss {
	g := &Gauss{}
	g.init("gauss", data, []*HyperParameter{scaleOrDefault(scale)},
		func(y, m float64, h []float64) float64 {
			return distuv.Normal{Mu: m, Sigma: h[0]}.LogProb(y)
		},
		func(y, m float64, h []float64) float64 {
			return (y - m) / (h[0] * h[0])
		},
		func(y, m float64, h []float64) float64 {
			s, r := h[0], y-m
			return (r*r/(s*s) - 1) / s
		},
	)
	return g
}

// Laplace is the double-exponential error distribution.
type Laplace struct{ pointwise }

// NewLaplace returns a Laplace distribution. A nil scale is fixed at 1.
func NewLaplace(data Data, scale *HyperParameter) *Laplace {
	l := &Laplace{}
	l.init("laplace", data, []*HyperParameter{scaleOrDefault(scale)},
		func(y, m float64, h []float64) float64 {
			return distuv.Laplace{Mu: m, Scale: h[0]}.LogProb(y)
		},
		func(y, m float64, h []float64) float64 {
			return sign(y-m) / h[0]
		},
		func(y, m float64, h []float64) float64 {
			s := h[0]
			return (math.Abs(y-m)/s - 1) / s
		},
	)
	return l
}

// Cauchy is the Lorentzian error distribution, a Student-t with one degree
// of freedom.
type Cauchy struct{ pointwise }

// NewCauchy returns a Cauchy distribution. A nil scale is fixed at 1.
func NewCauchy(data Data, scale *HyperParameter) *Cauchy {
	c := &Cauchy{}
	c.init("cauchy", data, []*HyperParameter{scaleOrDefault(scale)},
		func(y, m float64, h []float64) float64 {
			return distuv.StudentsT{Mu: m, Sigma: h[0], Nu: 1}.LogProb(y)
		},
		func(y, m float64, h []float64) float64 {
			s, r := h[0], y-m
			return 2 * r / (s*s + r*r)
		},
		func(y, m float64, h []float64) float64 {
			s, r := h[0], y-m
			return 1/s - 2*s/(s*s+r*r)
		},
	)
	return c
}

// Uniform is flat within [-scale, scale] around the model.
type Uniform struct{ pointwise }

// NewUniform returns a Uniform distribution. A nil scale is fixed at 1.
func NewUniform(data Data, scale *HyperParameter) *Uniform {
	u := &Uniform{}
	u.init("uniform", data, []*HyperParameter{scaleOrDefault(scale)},
		func(y, m float64, h []float64) float64 {
			return distuv.Uniform{Min: m - h[0], Max: m + h[0]}.LogProb(y)
		},
		func(y, m float64, h []float64) float64 { return 0 },
		func(y, m float64, h []float64) float64 {
			if math.Abs(y-m) > h[0] {
				return 0
			}
			return -1 / h[0]
		},
	)
	return u
}

// Exponential is the generalized Gaussian exp(-|r/scale|^power). It has two
// hyperparameters: scale and power.
type Exponential struct{ pointwise }

// NewExponential returns an Exponential distribution. A nil scale is fixed at
// 1, a nil power at 2.
func NewExponential(data Data, scale, power *HyperParameter) *Exponential {
	if power == nil {
		power = NewHyperParameter(2)
	}
	e := &Exponential{}
	e.init("exponential", data, []*HyperParameter{scaleOrDefault(scale), power},
		func(y, m float64, h []float64) float64 {
			s, p := h[0], h[1]
			lg, _ := math.Lgamma(1 / p)
			return math.Log(p/(2*s)) - lg - math.Pow(math.Abs(y-m)/s, p)
		},
		func(y, m float64, h []float64) float64 {
			s, p := h[0], h[1]
			r := y - m
			if r == 0 {
				return 0
			}
			return p * math.Pow(math.Abs(r)/s, p-1) * sign(r) / s
		},
		func(y, m float64, h []float64) float64 {
			s, p := h[0], h[1]
			return (p*math.Pow(math.Abs(y-m)/s, p) - 1) / s
		},
		func(y, m float64, h []float64) float64 {
			s, p := h[0], h[1]
			d := 1/p + mathext.Digamma(1/p)/(p*p)
			if z := math.Abs(y-m) / s; z > 0 {
				d -= math.Pow(z, p) * math.Log(z)
			}
			return d
		},
	)
	return e
}

// Poisson is the counting distribution; the model value is the expectation.
// It has no hyperparameters and does not accept weights.
type Poisson struct{ pointwise }

// NewPoisson returns a Poisson distribution.
func NewPoisson(data Data) *Poisson {
	p := &Poisson{}
	p.init("poisson", data, nil,
		func(y, m float64, _ []float64) float64 {
			if !(m > 0) {
				return negInf
			}
			return distuv.Poisson{Lambda: m}.LogProb(y)
		},
		func(y, m float64, _ []float64) float64 {
			if !(m > 0) {
				return 0
			}
			return y/m - 1
		},
	)
	return p
}

func (p *Poisson) AcceptWeight() bool { return false }
