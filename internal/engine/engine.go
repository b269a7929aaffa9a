// Package engine holds the move generators that diffuse a walker under a
// likelihood floor.
//
// Every engine works on a copy of the walker's parameters and commits the
// copy only when its log-likelihood is at least the floor passed to Execute.
// Proposals are made in unit-cube space, through the priors of the fitted
// parameters.
package engine

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/prior"
	"github.com/rwhender/BayesicFitting/pkg/rng"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Engine diffuses a walker while keeping its logL at or above a floor.
type Engine interface {
	Name() string
	// Execute moves w and returns the number of accepted moves.
	Execute(w *walker.Walker, lowLhood float64) int
	// Counters are shared by an engine and all its clones.
	Counters() *Counters
	// Clone returns an engine with its own random stream seeded with seed.
	Clone(seed uint64) Engine
	// SetUnitBox installs the exploration bounds of the ensemble.
	SetUnitBox(b *UnitBox)
}

// Options tunes the engines.
type Options struct {
	// MaxTrials is the number of proposals per move before it fails.
	MaxTrials int
	// Steps is the number of moves per call for the multi-step engines.
	Steps int
}

func (o *Options) defaults() {
	if o.MaxTrials <= 0 {
		o.MaxTrials = 5
	}
	if o.Steps <= 0 {
		o.Steps = 5
	}
}

// Counters accumulate the outcome of all moves of an engine.
type Counters struct {
	success atomic.Int64
	reject  atomic.Int64
	failed  atomic.Int64
	best    atomic.Int64
	calls   atomic.Int64
}

func (c *Counters) Success() int64 { return c.success.Load() }
func (c *Counters) Reject() int64  { return c.reject.Load() }
func (c *Counters) Failed() int64  { return c.failed.Load() }
func (c *Counters) Best() int64    { return c.best.Load() }
func (c *Counters) Calls() int64   { return c.calls.Load() }

// Report returns a snapshot of the counters.
func (c *Counters) Report(name string) domain.EngineReport {
	return domain.EngineReport{
		Name:    name,
		Success: c.Success(),
		Reject:  c.Reject(),
		Failed:  c.Failed(),
		Best:    c.Best(),
		Calls:   c.Calls(),
	}
}

// Space maps the fitted entries of a walker to and from the unit cube.
type Space struct {
	w     *walker.Walker
	hyper []*errdis.HyperParameter
}

// Prior returns the prior of fit index fi, nil when it has none.
func (s Space) Prior(fi int) prior.Prior {
	if fi >= 0 {
		return s.w.Problem.Model().Prior(fi)
	}
	j := len(s.hyper) + fi
	if j < 0 || j >= len(s.hyper) {
		return nil
	}
	return s.hyper[j].Prior()
}

// ToUnit returns the unit-cube position of value x of fit index fi.
func (s Space) ToUnit(fi int, x float64) float64 { return s.Prior(fi).DomainToUnit(x) }

// ToDomain returns the value at unit-cube position u of fit index fi.
func (s Space) ToDomain(fi int, u float64) float64 { return s.Prior(fi).UnitToDomain(u) }

type base struct {
	name      string
	walkers   *walker.List
	errdis    errdis.ErrorDistribution
	rng       *rand.Rand
	counters  *Counters
	box       *UnitBox
	maxTrials int
	steps     int
}

func newBase(name string, walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) base {
	opts.defaults()
	return base{
		name:      name,
		walkers:   walkers,
		errdis:    d,
		rng:       rng.New(seed),
		counters:  &Counters{},
		maxTrials: opts.MaxTrials,
		steps:     opts.Steps,
	}
}

func (b *base) Name() string          { return b.name }
func (b *base) Counters() *Counters   { return b.counters }
func (b *base) SetUnitBox(u *UnitBox) { b.box = u }

func (b *base) clone(seed uint64) base {
	c := *b
	c.rng = rng.New(seed)
	return c
}

func (b *base) space(w *walker.Walker) Space {
	return Space{w: w, hyper: b.errdis.HyperPars()}
}

func (b *base) logL(w *walker.Walker, allpars []float64, changed []int) float64 {
	return errdis.UpdateLogL(b.errdis, w.Problem.Model(), allpars, changed)
}

// accept commits allpars into w and updates the counters.
func (b *base) accept(w *walker.Walker, allpars []float64, logL float64) {
	b.counters.success.Add(1)
	if b.walkers != nil && logL > b.walkers.Best().LogL {
		b.counters.best.Add(1)
	}
	w.Allpars = append(w.Allpars[:0], allpars...)
	w.LogL = logL
}

// unitPoint returns the unit-cube position of every fitted entry of w.
func (b *base) unitPoint(w *walker.Walker, sp Space) []float64 {
	u := make([]float64, len(w.FitIndex))
	for k, fi := range w.FitIndex {
		u[k] = sp.ToUnit(fi, w.Allpars[w.Index(fi)])
	}
	return u
}

// place writes unit-cube position u into a copy of allpars.
func (b *base) place(w *walker.Walker, sp Space, u []float64) []float64 {
	out := slices.Clone(w.Allpars)
	for k, fi := range w.FitIndex {
		out[w.Index(fi)] = sp.ToDomain(fi, u[k])
	}
	return out
}

func (b *base) changed(w *walker.Walker) []int {
	out := make([]int, len(w.FitIndex))
	for k, fi := range w.FitIndex {
		out[k] = w.Index(fi)
	}
	return out
}

// fold reflects u into [0, 1].
func fold(u float64) float64 {
	u = math.Mod(math.Abs(u), 2)
	if u > 1 {
		u = 2 - u
	}
	return u
}

// Names lists the registered engines.
var Names = []string{"start", "random", "galilean", "gibbs", "step", "chord", "birth", "death"}

// New builds an engine by name. birth and death need a dynamic model.
func New(name string, walkers *walker.List, d errdis.ErrorDistribution, seed uint64, opts Options) (Engine, error) {
	switch name {
	case "start":
		return NewStart(walkers, d, seed, opts), nil
	case "random":
		return NewRandom(walkers, d, seed, opts), nil
	case "galilean":
		return NewGalilean(walkers, d, seed, opts), nil
	case "gibbs":
		return NewGibbs(walkers, d, seed, opts), nil
	case "step":
		return NewStep(walkers, d, seed, opts), nil
	case "chord":
		return NewChord(walkers, d, seed, opts), nil
	case "birth", "death":
		if walkers == nil || walkers.Len() == 0 || !walkers.At(0).Problem.IsDynamic() {
			return nil, fmt.Errorf("%w: %s", domain.ErrStaticModel, name)
		}
		if name == "birth" {
			return NewBirth(walkers, d, seed, opts), nil
		}
		return NewDeath(walkers, d, seed, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, name)
}
