// Package problem pairs a model with its data and names the defaults the
// sampler uses for it.
package problem

import (
	"fmt"
	"math"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/model"
)

// Problem bundles a model with xdata, ydata and weights.
type Problem interface {
	Model() model.Model
	XData() []float64
	YData() []float64
	// Weights returns nil when the data are unweighted.
	Weights() []float64
	NPars() int
	NData() int
	IsDynamic() bool
	// Result evaluates the model at XData.
	Result(params []float64) []float64
	// Partial evaluates the model partials at XData.
	Partial(params []float64) [][]float64

	MyDistribution() string
	MyEngines() []string
	MyStartEngine() string
}

// Option configures a Classic problem.
type Option func(*Classic)

// WithWeights attaches per-point weights.
func WithWeights(w []float64) Option {
	return func(c *Classic) {
		c.weights = w
	}
}

// Classic is the ordinary y = f(x; p) + noise problem.
type Classic struct {
	model   model.Model
	xdata   []float64
	ydata   []float64
	weights []float64
}

// NewClassic validates and returns a classic problem.
func NewClassic(m model.Model, xdata, ydata []float64, opts ...Option) (*Classic, error) {
	c := &Classic{model: m, xdata: xdata, ydata: ydata}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classic) validate() error {
	switch {
	case c.model == nil:
		return fmt.Errorf("%w: no model", domain.ErrInvalidProblem)
	case len(c.ydata) == 0:
		return fmt.Errorf("%w: no data", domain.ErrInvalidProblem)
	case len(c.xdata) != len(c.ydata):
		return fmt.Errorf("%w: %d x values for %d y values", domain.ErrInvalidProblem, len(c.xdata), len(c.ydata))
	case c.weights != nil && len(c.weights) != len(c.ydata):
		return fmt.Errorf("%w: %d weights for %d y values", domain.ErrInvalidProblem, len(c.weights), len(c.ydata))
	}
	for i, w := range c.weights {
		if !(w >= 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is %g", domain.ErrInvalidProblem, i, w)
		}
	}
	return nil
}

func (c *Classic) Model() model.Model    { return c.model }
func (c *Classic) XData() []float64      { return c.xdata }
func (c *Classic) YData() []float64      { return c.ydata }
func (c *Classic) Weights() []float64    { return c.weights }
func (c *Classic) NPars() int            { return c.model.NPars() }
func (c *Classic) NData() int            { return len(c.ydata) }
func (c *Classic) IsDynamic() bool       { return c.model.IsDynamic() }
func (c *Classic) MyStartEngine() string { return "start" }

func (c *Classic) Result(params []float64) []float64 {
	return c.model.Result(c.xdata, params)
}

func (c *Classic) Partial(params []float64) [][]float64 {
	return c.model.Partial(c.xdata, params)
}

// MyDistribution is gauss for a classic problem.
func (c *Classic) MyDistribution() string { return "gauss" }

// MyEngines returns the default engines; dynamic models also get birth and death.
func (c *Classic) MyEngines() []string {
	if c.model.IsDynamic() {
		return []string{"galilean", "chord", "birth", "death"}
	}
	return []string{"galilean", "chord"}
}

// New builds a registered problem by name. The empty name selects "classic".
func New(name string, m model.Model, xdata, ydata []float64, opts ...Option) (Problem, error) {
	switch name {
	case "", "classic":
		c, err := NewClassic(m, xdata, ydata, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProblem, name)
}
