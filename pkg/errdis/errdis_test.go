package errdis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/model"
)

func lineData() Data {
	return Data{
		X: []float64{-2, -1, 0, 1, 2, 3},
		Y: []float64{-2.7, -0.4, 1.3, 2.6, 5.4, 6.8},
	}
}

func line(t *testing.T) model.Model {
	t.Helper()
	p, err := model.NewPolynomial(1)
	require.NoError(t, err)
	return p
}

// numeric returns dlogL/dallpars[idx] by central differences.
func numeric(d ErrorDistribution, m model.Model, allpars []float64, idx int) float64 {
	const h = 1e-6
	up := append([]float64(nil), allpars...)
	dn := append([]float64(nil), allpars...)
	up[idx] += h
	dn[idx] -= h
	return (LogLikelihood(d, m, up) - LogLikelihood(d, m, dn)) / (2 * h)
}

// checkPartials compares PartialLogL with finite differences for fitIndex.
func checkPartials(t *testing.T, d ErrorDistribution, m model.Model, allpars []float64, fitIndex []int) {
	t.Helper()
	got := PartialLogL(d, m, allpars, fitIndex)
	require.Len(t, got, len(fitIndex))
	for k, fi := range fitIndex {
		idx := fi
		if fi < 0 {
			idx = len(allpars) + fi
		}
		want := numeric(d, m, allpars, idx)
		assert.InDelta(t, want, got[k], 1e-4*math.Max(1, math.Abs(want)), "%s fit index %d", d.Name(), fi)
	}
}

func TestGauss_LogLdata(t *testing.T) {
	data := lineData()
	g := NewGauss(data, NewHyperParameter(0.5))
	m := line(t)
	allpars := []float64{1, 2, 0.5}

	ll := g.LogLdata(m, allpars, nil)
	mock := m.Result(data.X, allpars[:2])
	var sum float64
	for i := range ll {
		r := data.Y[i] - mock[i]
		want := -0.5*math.Log(2*math.Pi*0.25) - 0.5*r*r/0.25
		assert.InDelta(t, want, ll[i], 1e-12)
		sum += ll[i]
	}
	assert.InDelta(t, sum, LogLikelihood(g, m, allpars), 1e-12)
	assert.Equal(t, int64(2), g.Calls())

	g.ResetCalls()
	assert.Zero(t, g.Calls())
}

func TestLogLikelihood_Weights(t *testing.T) {
	data := lineData()
	data.Weights = []float64{1, 2, 0, 1, 1, 3}
	g := NewGauss(data, nil)
	m := line(t)
	allpars := []float64{1, 2, 1}

	ll := g.LogLdata(m, allpars, nil)
	var want float64
	for i, v := range ll {
		want += data.Weights[i] * v
	}
	assert.InDelta(t, want, LogLikelihood(g, m, allpars), 1e-12)
	assert.InDelta(t, want, UpdateLogL(g, m, allpars, []int{0}), 1e-12)
}

type cachedGauss struct {
	*Gauss
	changed []int
}

func (c *cachedGauss) UpdateLogL(m model.Model, allpars []float64, changed []int) float64 {
	c.changed = changed
	return -1
}

func TestUpdateLogL_Updater(t *testing.T) {
	m := line(t)
	d := &cachedGauss{Gauss: NewGauss(lineData(), nil)}

	assert.Equal(t, -1.0, UpdateLogL(d, m, []float64{1, 2, 1}, []int{1}))
	assert.Equal(t, []int{1}, d.changed)
	assert.Zero(t, d.Calls())
}

func TestPartials_AgainstFiniteDifferences(t *testing.T) {
	data := lineData()
	m := line(t)
	tests := []struct {
		name     string
		d        ErrorDistribution
		allpars  []float64
		fitIndex []int
	}{
		{"gauss", NewGauss(data, nil), []float64{1.05, 1.93, 0.7}, []int{0, 1, -1}},
		{"laplace", NewLaplace(data, nil), []float64{1.05, 1.93, 0.7}, []int{0, 1, -1}},
		{"cauchy", NewCauchy(data, nil), []float64{1.05, 1.93, 0.7}, []int{0, 1, -1}},
		{"uniform", NewUniform(data, nil), []float64{1.05, 1.93, 2.5}, []int{0, 1, -1}},
		{"exponential", NewExponential(data, nil, nil), []float64{1.05, 1.93, 0.8, 1.6}, []int{0, 1, -2, -1}},
		{"poisson", NewPoisson(Data{X: []float64{0, 1, 2, 3}, Y: []float64{2, 3, 5, 8}}), []float64{2.2, 1.7}, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkPartials(t, tt.d, m, tt.allpars, tt.fitIndex)
		})
	}
}

func TestPartials_ZeroResidual(t *testing.T) {
	// The data lie exactly on the line, so every residual is 0; with power
	// below 1 the density has a cusp there.
	x := []float64{-2, -1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 1 + 2*v
	}
	data := Data{X: x, Y: y}
	m := line(t)

	e := NewExponential(data, nil, nil)
	got := PartialLogL(e, m, []float64{1, 2, 1, 0.5}, []int{0, 1, -2, -1})
	require.Len(t, got, 4)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
	for k, v := range got {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "partial %d is %v", k, v)
	}

	mx, err := NewMixed(NewExponential(data, nil, nil), NewGauss(data, nil), nil)
	require.NoError(t, err)
	got = PartialLogL(mx, m, []float64{1, 2, 1, 0.5, 1, 0.5}, []int{0, 1, -1})
	require.Len(t, got, 3)
	for k, v := range got {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "mixed partial %d is %v", k, v)
	}
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
}

func TestPoisson_NonPositiveExpectation(t *testing.T) {
	p := NewPoisson(Data{X: []float64{0, 1}, Y: []float64{1, 2}})
	m := line(t)
	ll := p.LogLdata(m, []float64{-1, 0}, nil)
	assert.True(t, math.IsInf(ll[0], -1))
	assert.False(t, p.AcceptWeight())
}

func mixture(t *testing.T, data Data) (*Mixed, *Gauss, *Cauchy) {
	t.Helper()
	g := NewGauss(data, nil)
	c := NewCauchy(data, nil)
	mx, err := NewMixed(g, c, nil)
	require.NoError(t, err)
	return mx, g, c
}

func TestMixed_Layout(t *testing.T) {
	mx, _, _ := mixture(t, lineData())
	hs := mx.HyperPars()
	require.Len(t, hs, 3)
	assert.False(t, hs[2].IsFixed(), "fraction is free by default")
	assert.Equal(t, 0.5, hs[2].Value())
	assert.True(t, mx.AcceptWeight())
}

func TestMixed_BoundaryIsExactDelegate(t *testing.T) {
	data := lineData()
	mx, g, c := mixture(t, data)
	m := line(t)

	// [a, b][gauss scale][cauchy scale][f]
	at0 := []float64{1, 2, 0.6, 0.3, 0}
	assert.Equal(t, c.LogLdata(m, []float64{1, 2, 0.3}, nil), mx.LogLdata(m, at0, nil))

	at1 := []float64{1, 2, 0.6, 0.3, 1}
	assert.Equal(t, g.LogLdata(m, []float64{1, 2, 0.6}, nil), mx.LogLdata(m, at1, nil))

	below := []float64{1, 2, 0.6, 0.3, -0.1}
	assert.Equal(t, c.LogLdata(m, []float64{1, 2, 0.3}, nil), mx.LogLdata(m, below, nil))
}

func TestMixed_InteriorIsLogAddExp(t *testing.T) {
	// a far outlier drives the gauss likelihood towards zero
	data := Data{X: []float64{0, 1, 2, 3}, Y: []float64{1, 3, 40, 7}}
	mx, g, c := mixture(t, data)
	m := line(t)

	for _, f := range []float64{1e-9, 0.2, 0.5, 0.999} {
		allpars := []float64{1, 2, 0.1, 1.5, f}
		l1 := g.LogLdata(m, []float64{1, 2, 0.1}, nil)
		l2 := c.LogLdata(m, []float64{1, 2, 1.5}, nil)
		got := mx.LogLdata(m, allpars, nil)
		for i := range got {
			a, b := l1[i]+math.Log(f), l2[i]+math.Log(1-f)
			hi := math.Max(a, b)
			want := hi + math.Log(math.Exp(a-hi)+math.Exp(b-hi))
			assert.InDelta(t, want, got[i], 1e-10, "f=%g i=%d", f, i)
		}
	}
}

func TestMixed_PartialsAgainstFiniteDifferences(t *testing.T) {
	data := lineData()
	m := line(t)

	mx, _, _ := mixture(t, data)
	checkPartials(t, mx, m, []float64{1.05, 1.93, 0.7, 0.4, 0.35}, []int{0, 1, -1, -2, -3})

	// a child with two hyperparameters exercises the sentinel translation:
	// [a, b][exp scale, exp power][gauss scale][f]
	mx2, err := NewMixed(NewExponential(data, nil, nil), NewGauss(data, nil), nil)
	require.NoError(t, err)
	checkPartials(t, mx2, m, []float64{1.05, 1.93, 0.8, 1.7, 0.6, 0.3}, []int{-4, 1, -3, -2, 0, -1})
}

func TestMixed_UnderflowGivesZeroPartials(t *testing.T) {
	data := Data{X: []float64{0, 1, 2}, Y: []float64{1, 3, 1e6}}
	g1 := NewGauss(data, nil)
	g2 := NewGauss(data, nil)
	mx, err := NewMixed(g1, g2, nil)
	require.NoError(t, err)
	m := line(t)

	allpars := []float64{1, 2, 0.01, 0.02, 0.5}
	fitIndex := []int{0, 1, -1, -2, -3}
	seq := mx.NextPartialData(m, allpars, fitIndex, nil)
	assert.Equal(t, len(fitIndex), seq.Remaining())
	n := 0
	for k, part := range seq.All() {
		assert.Equal(t, 0.0, part[2], "fit index %d at the underflowing point", fitIndex[k])
		for _, v := range part {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		n++
	}
	assert.Equal(t, len(fitIndex), n)
	assert.Zero(t, seq.Remaining())
	_, ok := seq.Next()
	assert.False(t, ok, "a consumed sequence cannot be restarted")
}

func TestMixed_DataMismatch(t *testing.T) {
	a := NewGauss(lineData(), nil)
	other := lineData()
	other.Y = append([]float64(nil), other.Y...)
	other.Y[0] += 1
	b := NewGauss(other, nil)
	_, err := NewMixed(a, b, nil)
	assert.True(t, errors.Is(err, domain.ErrDataMismatch))
}

func TestHyperParameter(t *testing.T) {
	h := NewHyperParameter(2)
	assert.True(t, h.IsFixed())
	assert.False(t, h.IsBound())
	assert.Error(t, h.SetFixed(false))

	require.NoError(t, h.SetLimits(0.1, 10))
	assert.False(t, h.IsFixed())
	assert.True(t, h.IsBound())
	lo, hi := h.Limits()
	assert.Equal(t, 0.1, lo)
	assert.Equal(t, 10.0, hi)
	require.NoError(t, h.SetFixed(true))
	assert.True(t, h.IsFixed())

	err := h.SetLimits(5, 1)
	assert.True(t, errors.Is(err, domain.ErrInvalidHyperParameter))
}

func TestNew_Registry(t *testing.T) {
	data := lineData()

	d, err := New("gauss", data, Options{Scale: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "gauss", d.Name())
	assert.True(t, d.HyperPars()[0].IsFixed())

	d, err = New("laplace", data, Options{Limits: []float64{0.01, 100}})
	require.NoError(t, err)
	assert.False(t, d.HyperPars()[0].IsFixed())

	d, err = New("exponential", data, Options{PowerLimits: []float64{0.5, 8}})
	require.NoError(t, err)
	require.Len(t, d.HyperPars(), 2)
	assert.Equal(t, 2.0, d.HyperPars()[1].Value())

	d, err = New("mixed", data, Options{Components: []Spec{{Name: "gauss"}, {Name: "cauchy", Options: Options{Scale: 3}}}})
	require.NoError(t, err)
	assert.Len(t, d.HyperPars(), 3)

	zero := 0.0
	d, err = New("mixed", data, Options{
		Components:  []Spec{{Name: "gauss"}, {Name: "cauchy"}},
		Fraction:    &zero,
		FixFraction: true,
	})
	require.NoError(t, err)
	f := d.HyperPars()[2]
	assert.Equal(t, 0.0, f.Value())
	assert.True(t, f.IsFixed())
	m := line(t)
	cauchy := NewCauchy(data, nil)
	assert.Equal(t, LogLikelihood(cauchy, m, []float64{1, 2, 1}), LogLikelihood(d, m, []float64{1, 2, 1, 1, 0}))

	bad := 1.5
	_, err = New("mixed", data, Options{Components: []Spec{{Name: "gauss"}, {Name: "cauchy"}}, Fraction: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidHyperParameter)

	_, err = New("mixed", data, Options{Components: []Spec{{Name: "gauss"}}})
	assert.True(t, errors.Is(err, domain.ErrUnknownDistribution))

	_, err = New("student", data, Options{})
	assert.True(t, errors.Is(err, domain.ErrUnknownDistribution))

	data.Weights = []float64{1, 1, 1, 1, 1, 1}
	_, err = New("poisson", data, Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
