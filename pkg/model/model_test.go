package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/prior"
)

func TestPolynomial_ResultAndPartial(t *testing.T) {
	p, err := NewPolynomial(2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NPars())

	x := []float64{-1, 0, 2}
	params := []float64{1, 2, 3}
	assert.Equal(t, []float64{2, 1, 17}, p.Result(x, params))

	part := p.Partial(x, params)
	require.Len(t, part, 3)
	assert.Equal(t, []float64{1, 1, 1}, part[0])
	assert.Equal(t, []float64{-1, 0, 2}, part[1])
	assert.Equal(t, []float64{1, 0, 4}, part[2])
}

func TestSine_PartialMatchesFiniteDifference(t *testing.T) {
	s := NewSine()
	x := []float64{0.1, 0.7, 1.3}
	params := []float64{0.4, 1.5, -0.8}
	part := s.Partial(x, params)

	const h = 1e-6
	for k := range params {
		up := append([]float64(nil), params...)
		dn := append([]float64(nil), params...)
		up[k] += h
		dn[k] -= h
		fu, fd := s.Result(x, up), s.Result(x, dn)
		for i := range x {
			assert.InDelta(t, (fu[i]-fd[i])/(2*h), part[k][i], 1e-5, "k=%d i=%d", k, i)
		}
	}
}

func TestBase_Priors(t *testing.T) {
	p, err := NewPolynomial(1)
	require.NoError(t, err)
	assert.False(t, p.HasPriors())
	assert.Nil(t, p.Prior(0))

	u, err := prior.NewUniform(-5, 5)
	require.NoError(t, err)
	p.SetPriors(u)
	assert.True(t, p.HasPriors(), "last prior covers the remaining parameters")
	assert.Same(t, u, p.Prior(1).(*prior.Uniform))
}

func TestDynamicPolynomial(t *testing.T) {
	d, err := NewDynamicPolynomial(1, 3)
	require.NoError(t, err)
	assert.True(t, d.IsDynamic())
	assert.Equal(t, 2, d.NPars())
	assert.False(t, d.IsValidParameterCount(1))
	assert.True(t, d.IsValidParameterCount(4))
	assert.False(t, d.IsValidParameterCount(5))

	// evaluates as many terms as given
	assert.Equal(t, []float64{1 + 2*2 + 3*4}, d.Result([]float64{2}, []float64{1, 2, 3}))

	_, err = NewDynamicPolynomial(3, 1)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	m, err := New("polynomial", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NPars())

	m, err = New("sine")
	require.NoError(t, err)
	assert.Equal(t, 3, m.NPars())

	m, err = New("dynamic-polynomial", 0, 2)
	require.NoError(t, err)
	assert.True(t, m.IsDynamic())

	_, err = New("spline")
	assert.True(t, errors.Is(err, domain.ErrUnknownModel))

	_, err = New("polynomial", -1)
	assert.True(t, errors.Is(err, domain.ErrUnknownModel))
}
