package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
)

const yamlRun = `
data:
  path: data.csv
  weight_column: 2
model:
  name: polynomial
  args: [2]
  priors:
    - kind: uniform
      params: [-10, 10]
distribution:
  name: gauss
  limits: [0.01, 10]
sampler:
  ensemble: 50
  seed: "7"
  engines: galilean,chord
  keep:
    1: 0.5
checkpoint:
  backend: redis
  redis_addr: localhost:6379
  ttl: 1h30m
`

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(yamlRun), false)
	require.NoError(t, err)

	assert.Equal(t, "data.csv", cfg.Data.Path)
	assert.Equal(t, 2, cfg.Data.WeightColumn)
	assert.Equal(t, 1, cfg.Data.YColumn)
	assert.Equal(t, []int{2}, cfg.Model.Args)
	require.Len(t, cfg.Model.Priors, 1)
	assert.Equal(t, []float64{-10, 10}, cfg.Model.Priors[0].Params)
	assert.Equal(t, []float64{0.01, 10}, cfg.Distribution.Limits)
	assert.Equal(t, 50, cfg.Sampler.Ensemble)
	assert.Equal(t, uint64(7), cfg.Sampler.Seed)
	assert.Equal(t, []string{"galilean", "chord"}, cfg.Sampler.Engines)
	assert.Equal(t, map[int]float64{1: 0.5}, cfg.Sampler.Keep)
	assert.Equal(t, 90*time.Minute, cfg.Checkpoint.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Checkpoint.LeaseTTL)

	// untouched defaults survive
	assert.Equal(t, 1, cfg.Sampler.Discard)
	assert.Equal(t, 2.0, cfg.Sampler.End)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	doc := `{"data": {"path": "d.csv"}, "sampler": {"ensemble": 20, "keep": {"-1": 2}}, "output": {"format": "json"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Sampler.Ensemble)
	assert.Equal(t, map[int]float64{-1: 2}, cfg.Sampler.Keep)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("sampler:\n  ensembel: 3\n"), false)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Parse([]byte("{not json"), true)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.Data.Path = "x.csv"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Run)
		err    error
	}{
		{"no data", func(r *Run) { r.Data.Path = "" }, domain.ErrInvalidConfig},
		{"discard too large", func(r *Run) { r.Sampler.Discard = 100 }, domain.ErrInvalidConfig},
		{"end", func(r *Run) { r.Sampler.End = 0 }, domain.ErrInvalidConfig},
		{"backend", func(r *Run) { r.Checkpoint.Backend = "s3" }, domain.ErrInvalidConfig},
		{"redis address", func(r *Run) { r.Checkpoint.Backend = "redis" }, domain.ErrInvalidConfig},
		{"format", func(r *Run) { r.Output.Format = "html" }, domain.ErrInvalidConfig},
		{"comma", func(r *Run) { r.Data.Comma = ";;" }, domain.ErrInvalidConfig},
		{"distribution", func(r *Run) { r.Distribution.Name = "student" }, domain.ErrUnknownDistribution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.err)
		})
	}
}

func TestPrior_Build(t *testing.T) {
	p, err := Prior{Kind: "gauss", Params: []float64{0, 1}, Limits: []float64{-3, 3}}.Build()
	require.NoError(t, err)
	assert.True(t, p.HasLimits())

	_, err = Prior{Kind: "gauss", Params: []float64{0, 1}, Limits: []float64{1}}.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidPrior)

	_, err = Prior{Kind: "beta", Params: []float64{1, 1}}.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidPrior)
}

func TestDistribution_Options(t *testing.T) {
	frac := 0.3
	d := Distribution{
		Name:     "mixed",
		Fraction: &frac,
		Components: []Distribution{
			{Name: "gauss", Scale: 1},
			{Name: "cauchy", Scale: 5},
		},
	}
	opts := d.Options()
	require.Len(t, opts.Components, 2)
	assert.Equal(t, "cauchy", opts.Components[1].Name)
	assert.Equal(t, 5.0, opts.Components[1].Options.Scale)

	ed, err := errdis.New(d.Name, errdis.Data{X: []float64{0, 1}, Y: []float64{0, 1}}, opts)
	require.NoError(t, err)
	assert.Len(t, ed.HyperPars(), 3)
	assert.Equal(t, 0.3, ed.HyperPars()[2].Value())
}

func TestParse_FixedZeroFraction(t *testing.T) {
	cfg, err := Parse([]byte(`
data:
  path: d.csv
distribution:
  name: mixed
  fraction: 0
  fix_fraction: true
  components:
    - name: gauss
    - name: cauchy
`), false)
	require.NoError(t, err)
	require.NotNil(t, cfg.Distribution.Fraction)
	assert.Equal(t, 0.0, *cfg.Distribution.Fraction)

	ed, err := errdis.New("mixed", errdis.Data{X: []float64{0, 1}, Y: []float64{0, 1}}, cfg.Distribution.Options())
	require.NoError(t, err)
	assert.Equal(t, 0.0, ed.HyperPars()[2].Value())
	assert.True(t, ed.HyperPars()[2].IsFixed())
}
