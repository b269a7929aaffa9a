package sample

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/pkg/model"
)

func TestNew_CopiesSlices(t *testing.T) {
	allpars := []float64{1, 2, 3}
	s := New(4, 2, allpars, []int{0, 1}, -1, -2, 1)
	allpars[0] = 99
	assert.Equal(t, 1.0, s.Allpars[0])
	assert.Equal(t, []float64{1, 2}, s.Parameters())
	assert.Equal(t, []float64{3}, s.HyperParameters())
	assert.Equal(t, 2, s.NPars())

	back := FromState(s.State())
	assert.Equal(t, s, back)
}

func TestList_WeedDropsLowestWeights(t *testing.T) {
	l := NewList(3)
	for i, lw := range []float64{-1, -5, -2, -0.5, -3} {
		l.Add(New(i, -1, []float64{float64(i)}, []int{0}, 0, lw, 0))
	}
	require.Equal(t, 3, l.Len())
	var ids []int
	for _, s := range l.Samples() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int{0, 2, 3}, ids, "survivors keep insertion order")

	l.Weed(1)
	assert.Equal(t, 3, l.At(0).ID)
}

func TestList_NormalizeStatistics(t *testing.T) {
	l := NewList(0)
	// equal weights: mean and population std of 1, 2, 3
	for i, v := range []float64{1, 2, 3} {
		l.Add(New(i, -1, []float64{v, 10 * v, 0.5}, []int{0, 1}, float64(i), math.Log(7), 1))
	}
	l.SetEvidence(math.Log(21), 0.4)
	l.Normalize()

	opt := cmpopts.EquateApprox(0, 1e-12)
	assert.True(t, cmp.Equal([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, l.Weights(), opt))
	assert.True(t, cmp.Equal([]float64{2, 20}, l.Parameters(), opt), l.Parameters())
	sd := math.Sqrt(2.0 / 3)
	assert.True(t, cmp.Equal([]float64{sd, 10 * sd}, l.StdDevs(), opt), l.StdDevs())
	assert.True(t, cmp.Equal([]float64{0.5}, l.HyperParameters(), opt))
	assert.True(t, cmp.Equal([]float64{0}, l.StdDevHyperParameters(), opt))

	assert.InDelta(t, math.Log(21)/math.Ln10, l.Evidence(), 1e-15)
	assert.Equal(t, 0.4, l.Info())
	assert.Equal(t, 2, l.MaximumLikelihood().ID)
}

func TestList_NormalizeDynamicUsesDominantDimension(t *testing.T) {
	l := NewList(0)
	l.Add(New(0, -1, []float64{1}, []int{0}, 0, math.Log(0.1), 0))
	l.Add(New(1, -1, []float64{2, 4}, []int{0, 1}, 0, math.Log(0.6), 0))
	l.Add(New(2, -1, []float64{4, 8}, []int{0, 1}, 0, math.Log(0.3), 0))
	l.Normalize()

	require.Len(t, l.Parameters(), 2)
	// weights 0.6 and 0.3 renormalised within the two-parameter subset
	assert.InDelta(t, (2*0.6+4*0.3)/0.9, l.Parameters()[0], 1e-12)
}

func TestList_Average(t *testing.T) {
	poly, err := model.NewPolynomial(1)
	require.NoError(t, err)
	l := NewList(0)
	l.Add(New(0, -1, []float64{0, 1}, []int{0, 1}, 0, 0, 0))
	l.Add(New(1, -1, []float64{2, 1}, []int{0, 1}, 0, 0, 0))
	l.Normalize()
	assert.InDeltaSlice(t, []float64{1, 2}, l.Average(poly, []float64{0, 1}), 1e-12)
}
