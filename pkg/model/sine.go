package model

import "math"

// Sine is f(x) = p_1 cos(2 pi p_0 x) + p_2 sin(2 pi p_0 x), p_0 being the frequency.
type Sine struct {
	Base
}

// NewSine returns a sine model.
func NewSine() *Sine {
	return &Sine{Base: Base{npars: 3}}
}

func (s *Sine) Result(x []float64, params []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		a := 2 * math.Pi * params[0] * xi
		out[i] = params[1]*math.Cos(a) + params[2]*math.Sin(a)
	}
	return out
}

func (s *Sine) Partial(x []float64, params []float64) [][]float64 {
	out := [][]float64{make([]float64, len(x)), make([]float64, len(x)), make([]float64, len(x))}
	for i, xi := range x {
		a := 2 * math.Pi * params[0] * xi
		c, sn := math.Cos(a), math.Sin(a)
		out[0][i] = 2 * math.Pi * xi * (params[2]*c - params[1]*sn)
		out[1][i] = c
		out[2][i] = sn
	}
	return out
}

func (s *Sine) String() string {
	return "Sine: f(x) = p_1 * cos(2 pi p_0 x) + p_2 * sin(2 pi p_0 x)"
}
