package model

import (
	"fmt"
	"math"
)

// Polynomial is f(x) = p_0 + p_1 x + ... + p_d x^d.
// It evaluates as many terms as there are params, so it also serves the
// dynamic variant.
type Polynomial struct {
	Base
}

// NewPolynomial returns a polynomial of the given degree.
func NewPolynomial(degree int) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must be >= 0, got %d", degree)
	}
	return &Polynomial{Base: Base{npars: degree + 1}}, nil
}

func (p *Polynomial) Result(x []float64, params []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		var v float64
		for k := len(params) - 1; k >= 0; k-- {
			v = v*xi + params[k]
		}
		out[i] = v
	}
	return out
}

func (p *Polynomial) Partial(x []float64, params []float64) [][]float64 {
	out := make([][]float64, len(params))
	for k := range params {
		col := make([]float64, len(x))
		for i, xi := range x {
			col[i] = math.Pow(xi, float64(k))
		}
		out[k] = col
	}
	return out
}

func (p *Polynomial) String() string {
	return fmt.Sprintf("Polynomial: f(x) = p_0 + ... + p_%d * x^%d", p.npars-1, p.npars-1)
}

// DynamicPolynomial is a polynomial whose degree is itself sampled, between
// MinDegree and MaxDegree, by the birth and death engines.
type DynamicPolynomial struct {
	Polynomial
	MinDegree, MaxDegree int
}

// NewDynamicPolynomial starts at minDegree and may grow up to maxDegree.
func NewDynamicPolynomial(minDegree, maxDegree int) (*DynamicPolynomial, error) {
	if minDegree < 0 || maxDegree < minDegree {
		return nil, fmt.Errorf("dynamic polynomial needs 0 <= min <= max, got [%d, %d]", minDegree, maxDegree)
	}
	return &DynamicPolynomial{
		Polynomial: Polynomial{Base: Base{npars: minDegree + 1}},
		MinDegree:  minDegree,
		MaxDegree:  maxDegree,
	}, nil
}

func (d *DynamicPolynomial) IsDynamic() bool { return true }

func (d *DynamicPolynomial) IsValidParameterCount(n int) bool {
	return n >= d.MinDegree+1 && n <= d.MaxDegree+1
}

func (d *DynamicPolynomial) String() string {
	return fmt.Sprintf("DynamicPolynomial: degree in [%d, %d]", d.MinDegree, d.MaxDegree)
}
