package model

import (
	"fmt"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/prior"
)

// Settable is a model whose priors can be assigned after construction.
type Settable interface {
	Model
	SetPriors(ps ...prior.Prior)
}

// New builds a model by name: "polynomial" (args: degree), "sine", or
// "dynamic-polynomial" (args: minDegree, maxDegree).
func New(name string, args ...int) (Settable, error) {
	switch name {
	case "polynomial":
		deg := 1
		if len(args) > 0 {
			deg = args[0]
		}
		p, err := NewPolynomial(deg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownModel, err)
		}
		return p, nil
	case "sine":
		return NewSine(), nil
	case "dynamic-polynomial":
		lo, hi := 0, 5
		if len(args) > 0 {
			lo = args[0]
		}
		if len(args) > 1 {
			hi = args[1]
		}
		d, err := NewDynamicPolynomial(lo, hi)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownModel, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModel, name)
}
