// Package config loads the run configuration of the command line from YAML
// or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/prior"
)

// Run is a complete sampling run.
type Run struct {
	Data         Data         `json:"data" mapstructure:"data"`
	Problem      string       `json:"problem" mapstructure:"problem"`
	Model        Model        `json:"model" mapstructure:"model"`
	Distribution Distribution `json:"distribution" mapstructure:"distribution"`
	Sampler      Sampler      `json:"sampler" mapstructure:"sampler"`
	Checkpoint   Checkpoint   `json:"checkpoint" mapstructure:"checkpoint"`
	Output       Output       `json:"output" mapstructure:"output"`
}

// Data locates the columns of a CSV file.
type Data struct {
	Path string `json:"path" mapstructure:"path"`
	// Columns are zero-based; a negative weight column means no weights.
	XColumn      int    `json:"x_column" mapstructure:"x_column"`
	YColumn      int    `json:"y_column" mapstructure:"y_column"`
	WeightColumn int    `json:"weight_column" mapstructure:"weight_column"`
	Header       bool   `json:"header" mapstructure:"header"`
	Comma        string `json:"comma" mapstructure:"comma"`
}

// Model names a registered model and its priors.
type Model struct {
	Name string `json:"name" mapstructure:"name"`
	Args []int  `json:"args" mapstructure:"args"`
	// Priors are assigned in parameter order; the last one also serves any
	// further parameter.
	Priors []Prior `json:"priors" mapstructure:"priors"`
}

// Prior names a prior kind with its parameters.
type Prior struct {
	Kind   string    `json:"kind" mapstructure:"kind"`
	Params []float64 `json:"params" mapstructure:"params"`
	Limits []float64 `json:"limits" mapstructure:"limits"`
}

// Distribution names an error distribution.
type Distribution struct {
	Name        string         `json:"name" mapstructure:"name"`
	Scale       float64        `json:"scale" mapstructure:"scale"`
	Limits      []float64      `json:"limits" mapstructure:"limits"`
	Power       float64        `json:"power" mapstructure:"power"`
	PowerLimits []float64      `json:"power_limits" mapstructure:"power_limits"`
	Components  []Distribution `json:"components" mapstructure:"components"`
	// Fraction is the starting mixture fraction; unset means 0.5.
	Fraction    *float64 `json:"fraction" mapstructure:"fraction"`
	FixFraction bool     `json:"fix_fraction" mapstructure:"fix_fraction"`
}

// Sampler tunes nested sampling.
type Sampler struct {
	Ensemble          int             `json:"ensemble" mapstructure:"ensemble"`
	Discard           int             `json:"discard" mapstructure:"discard"`
	Seed              uint64          `json:"seed" mapstructure:"seed"`
	Rate              float64         `json:"rate" mapstructure:"rate"`
	MaxSize           int             `json:"maxsize" mapstructure:"maxsize"`
	MinimumIterations int             `json:"minimum_iterations" mapstructure:"minimum_iterations"`
	End               float64         `json:"end" mapstructure:"end"`
	Threads           int             `json:"threads" mapstructure:"threads"`
	MaxTrials         int             `json:"max_trials" mapstructure:"max_trials"`
	Engines           []string        `json:"engines" mapstructure:"engines"`
	Keep              map[int]float64 `json:"keep" mapstructure:"keep"`
	ProgressEvery     int             `json:"progress_every" mapstructure:"progress_every"`
}

// Checkpoint selects where a run is saved.
type Checkpoint struct {
	// Backend is "", "memory", "file" or "redis".
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`
	Every   int    `json:"every" mapstructure:"every"`
	Resume  bool   `json:"resume" mapstructure:"resume"`
	RunID   string `json:"run_id" mapstructure:"run_id"`

	RedisAddr     string        `json:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `json:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `json:"redis_db" mapstructure:"redis_db"`
	Prefix        string        `json:"prefix" mapstructure:"prefix"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	// LeaseTTL bounds how long a crashed sampler keeps the run locked.
	LeaseTTL time.Duration `json:"lease_ttl" mapstructure:"lease_ttl"`

	// KeyEnv names the environment variable holding a base64 AES-256 key;
	// when set, checkpoints are encrypted.
	KeyEnv string `json:"key_env" mapstructure:"key_env"`
}

// Output selects the report.
type Output struct {
	// Format is "markdown", "json" or "text".
	Format string `json:"format" mapstructure:"format"`
	// MetricsAddr serves /metrics and /status while sampling when set.
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`
}

// Defaults returns a configuration with every default filled in.
func Defaults() Run {
	return Run{
		Data:    Data{XColumn: 0, YColumn: 1, WeightColumn: -1, Header: true, Comma: ","},
		Problem: "classic",
		Model:   Model{Name: "polynomial", Args: []int{1}},
		Distribution: Distribution{
			Name:  "gauss",
			Scale: 1,
		},
		Sampler: Sampler{
			Ensemble:          100,
			Discard:           1,
			Seed:              80409,
			Rate:              1,
			MinimumIterations: 100,
			End:               2,
			ProgressEvery:     100,
		},
		Checkpoint: Checkpoint{Every: 100, LeaseTTL: 30 * time.Minute},
		Output:     Output{Format: "markdown"},
	}
}

// Load reads path over the defaults. A .json extension selects JSON,
// anything else YAML.
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes a YAML (or JSON) document over the defaults.
func Parse(data []byte, isJSON bool) (Run, error) {
	raw := map[string]any{}
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Run{}, fmt.Errorf("failed to parse config json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return Run{}, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	cfg := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Run{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Run{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks the settings that can be checked without building the run.
func (r Run) Validate() error {
	s := r.Sampler
	switch {
	case r.Data.Path == "":
		return fmt.Errorf("%w: data.path is required", domain.ErrInvalidConfig)
	case r.Data.XColumn < 0 || r.Data.YColumn < 0:
		return fmt.Errorf("%w: data columns must be >= 0", domain.ErrInvalidConfig)
	case len([]rune(r.Data.Comma)) > 1:
		return fmt.Errorf("%w: data.comma must be a single character", domain.ErrInvalidConfig)
	case s.Discard < 1 || s.Ensemble <= s.Discard:
		return fmt.Errorf("%w: need ensemble > discard >= 1, got %d and %d", domain.ErrInvalidConfig, s.Ensemble, s.Discard)
	case s.End <= 0:
		return fmt.Errorf("%w: sampler.end must be > 0", domain.ErrInvalidConfig)
	case s.Rate <= 0:
		return fmt.Errorf("%w: sampler.rate must be > 0", domain.ErrInvalidConfig)
	case !slices.Contains([]string{"", "memory", "file", "redis"}, r.Checkpoint.Backend):
		return fmt.Errorf("%w: unknown checkpoint backend %q", domain.ErrInvalidConfig, r.Checkpoint.Backend)
	case r.Checkpoint.Backend == "redis" && r.Checkpoint.RedisAddr == "":
		return fmt.Errorf("%w: checkpoint.redis_addr is required", domain.ErrInvalidConfig)
	case !slices.Contains([]string{"markdown", "json", "text"}, r.Output.Format):
		return fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidConfig, r.Output.Format)
	}
	if !slices.Contains(errdis.Names, r.Distribution.Name) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDistribution, r.Distribution.Name)
	}
	return nil
}

// Build returns the prior.
func (p Prior) Build() (prior.Prior, error) {
	var opts []prior.Option
	if p.Limits != nil {
		if len(p.Limits) != 2 {
			return nil, fmt.Errorf("%w: limits need 2 values", domain.ErrInvalidPrior)
		}
		opts = append(opts, prior.WithLimits(p.Limits[0], p.Limits[1]))
	}
	return prior.New(p.Kind, p.Params, opts...)
}

// Options converts the distribution into registry options.
func (d Distribution) Options() errdis.Options {
	opts := errdis.Options{
		Scale:       d.Scale,
		Limits:      d.Limits,
		Power:       d.Power,
		PowerLimits: d.PowerLimits,
		Fraction:    d.Fraction,
		FixFraction: d.FixFraction,
	}
	for _, c := range d.Components {
		opts.Components = append(opts.Components, errdis.Spec{Name: c.Name, Options: c.Options()})
	}
	return opts
}
