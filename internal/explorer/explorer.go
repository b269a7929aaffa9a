// Package explorer runs the engines over the walkers that replace the
// discarded ones, serially or on a bounded pool of goroutines.
package explorer

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rwhender/BayesicFitting/internal/engine"
	"github.com/rwhender/BayesicFitting/internal/logging"
	"github.com/rwhender/BayesicFitting/pkg/rng"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// Options configures an Explorer.
type Options struct {
	// Threads bounds the number of slots explored at once; <= 1 is serial.
	Threads int
	// Seed is the master seed the per-slot engine streams derive from.
	Seed uint64
	// Rate scales the number of moves per slot: max(1, Rate*nfit).
	Rate float64
	// MaxRounds bounds the passes over the engines per slot.
	MaxRounds int
	Logger    *slog.Logger
}

// Explorer diffuses replenished walkers above the likelihood floor.
type Explorer struct {
	engines []engine.Engine
	walkers *walker.List
	opts    Options
	logger  *slog.Logger
}

// New returns an explorer applying engines, in order, to slots of walkers.
func New(engines []engine.Engine, walkers *walker.List, opts Options) *Explorer {
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Explorer{engines: engines, walkers: walkers, opts: opts, logger: logger}
}

// Engines returns the configured engines.
func (x *Explorer) Engines() []engine.Engine { return x.engines }

// SetUnitBox shares the exploration bounds with every engine.
func (x *Explorer) SetUnitBox(b *engine.UnitBox) {
	for _, e := range x.engines {
		e.SetUnitBox(b)
	}
}

// Explore diffuses the walkers in slots with floor lowLhood. Each slot is
// explored on a private copy with engine streams derived from the seed, the
// iteration and the slot, so the result does not depend on Threads. The
// copies are installed in slot order once all are done, after which the
// best slot is updated.
func (x *Explorer) Explore(ctx context.Context, slots []int, lowLhood float64, iteration int) error {
	results := make([]*walker.Walker, len(slots))

	if x.opts.Threads <= 1 || len(slots) == 1 {
		for i, slot := range slots {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = x.exploreSlot(slot, lowLhood, iteration)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(x.opts.Threads)
		for i, slot := range slots {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = x.exploreSlot(slot, lowLhood, iteration)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i, slot := range slots {
		x.walkers.At(slot).Install(results[i])
	}
	best := x.walkers.Ensemble()
	for _, slot := range slots {
		if x.walkers.At(slot).LogL > x.walkers.At(best).LogL {
			x.walkers.Copy(slot, best)
		}
	}
	return nil
}

func (x *Explorer) exploreSlot(slot int, lowLhood float64, iteration int) *walker.Walker {
	w := x.walkers.At(slot).Clone()

	engines := make([]engine.Engine, len(x.engines))
	for k, e := range x.engines {
		engines[k] = e.Clone(rng.Derive(x.opts.Seed, uint64(iteration), uint64(slot), uint64(k)))
	}
	active := make([]bool, len(engines))
	for k := range active {
		active[k] = true
	}

	target := int(math.Max(1, x.opts.Rate*float64(len(w.FitIndex))))
	moves := 0
	for round := 0; round < x.opts.MaxRounds && moves < target; round++ {
		running := false
		for k, e := range engines {
			if !active[k] {
				continue
			}
			n := e.Execute(w, lowLhood)
			if n == 0 {
				active[k] = false
				continue
			}
			running = true
			moves += n
		}
		if !running {
			break
		}
	}
	if moves == 0 {
		x.logger.Debug("slot not moved", "iteration", iteration, "slot", slot)
	}
	return w
}
