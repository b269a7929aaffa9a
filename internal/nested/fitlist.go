package nested

import (
	"fmt"
	"slices"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
)

// makeFitlist returns the fit index and the starting allpars of a run.
// Every model parameter and every free hyperparameter is fitted unless keep
// names it, in which case its value is fixed to the kept one.
func makeFitlist(npars int, hyper []*errdis.HyperParameter, keep map[int]float64) ([]int, []float64, error) {
	nh := len(hyper)
	allpars := make([]float64, npars+nh)
	fitIndex := make([]int, 0, npars+nh)
	for k := range npars {
		fitIndex = append(fitIndex, k)
	}
	for j, h := range hyper {
		allpars[npars+j] = h.Value()
		if !h.IsFixed() && h.IsBound() {
			fitIndex = append(fitIndex, j-nh)
		}
	}
	if len(keep) == 0 {
		return fitIndex, allpars, nil
	}

	kept := make(map[int]bool, len(keep))
	for k, v := range keep {
		var pos int
		switch {
		case k >= 0 && k < npars+nh:
			pos = k
		case k < 0 && k >= -nh:
			pos = npars + nh + k
		default:
			return nil, nil, fmt.Errorf("%w: no parameter %d among %d parameters and %d hyperparameters",
				domain.ErrInvalidKeep, k, npars, nh)
		}
		allpars[pos] = v
		kept[pos] = true
	}
	fitIndex = slices.DeleteFunc(fitIndex, func(fi int) bool {
		if fi < 0 {
			return kept[npars+nh+fi]
		}
		return kept[fi]
	})
	return fitIndex, allpars, nil
}
