package nested

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rwhender/BayesicFitting/internal/engine"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/problem"
	"github.com/rwhender/BayesicFitting/pkg/sample"
	"github.com/rwhender/BayesicFitting/pkg/walker"
)

// LogZ is the natural log of the evidence.
func (s *Sampler) LogZ() float64 { return s.logZ }

// Information is the information H in nats.
func (s *Sampler) Information() float64 { return s.info }

// Evidence is the 10log of the evidence.
func (s *Sampler) Evidence() float64 { return s.logZ / math.Ln10 }

// Precision is the standard deviation of Evidence.
func (s *Sampler) Precision() float64 { return s.LogZPrecision() / math.Ln10 }

// LogZPrecision is the standard deviation of LogZ.
func (s *Sampler) LogZPrecision() float64 {
	return math.Sqrt(s.info * float64(s.opts.Discard) / float64(s.opts.Ensemble))
}

func (s *Sampler) Parameters() []float64 {
	if s.samples == nil {
		return nil
	}
	return s.samples.Parameters()
}

func (s *Sampler) StdDevs() []float64 {
	if s.samples == nil {
		return nil
	}
	return s.samples.StdDevs()
}

func (s *Sampler) HyperParameters() []float64 {
	if s.samples == nil {
		return nil
	}
	return s.samples.HyperParameters()
}

func (s *Sampler) StdDevHyperParameters() []float64 {
	if s.samples == nil {
		return nil
	}
	return s.samples.StdDevHyperParameters()
}

// Scale is the posterior mean of the first hyperparameter, the noise scale
// of a scaled distribution. It is NaN when there is none.
func (s *Sampler) Scale() float64 {
	if hp := s.HyperParameters(); len(hp) > 0 {
		return hp[0]
	}
	return math.NaN()
}

// StdDevScale is the posterior standard deviation of Scale.
func (s *Sampler) StdDevScale() float64 {
	if sd := s.StdDevHyperParameters(); len(sd) > 0 {
		return sd[0]
	}
	return math.NaN()
}

// ModelFit is the posterior-weighted average of the model at the data points.
func (s *Sampler) ModelFit() []float64 {
	if s.state != domain.StateTerminated {
		return nil
	}
	return s.samples.Average(s.problem.Model(), s.problem.XData())
}

func (s *Sampler) Samples() *sample.List                  { return s.samples }
func (s *Sampler) Walkers() *walker.List                  { return s.walkers }
func (s *Sampler) Iteration() int                         { return s.iteration }
func (s *Sampler) State() domain.RunState                 { return s.state }
func (s *Sampler) Engines() []engine.Engine               { return s.engines }
func (s *Sampler) Distribution() errdis.ErrorDistribution { return s.errdis }
func (s *Sampler) Problem() problem.Problem               { return s.problem }
func (s *Sampler) FitIndex() []int                        { return s.fitIndex }
func (s *Sampler) Options() Options                       { return s.opts }

// Summary is the end-of-run report; nil until Sample has finished.
func (s *Sampler) Summary() *domain.Summary { return s.summary }

func (s *Sampler) engineReports() []domain.EngineReport {
	var out []domain.EngineReport
	if s.start != nil {
		out = append(out, s.start.Counters().Report(s.start.Name()))
	}
	for _, e := range s.engines {
		out = append(out, e.Counters().Report(e.Name()))
	}
	return out
}

func (s *Sampler) buildSummary() *domain.Summary {
	return &domain.Summary{
		RunID:        s.opts.RunID,
		Model:        s.problem.Model().String(),
		Distribution: s.errdis.Name(),
		Ensemble:     s.opts.Ensemble,
		Discard:      s.opts.Discard,
		Iterations:   s.iteration,
		Samples:      s.samples.Len(),
		LogZ:         s.logZ,
		Information:  s.info,
		Evidence:     s.Evidence(),
		Precision:    s.Precision(),
		Parameters:   s.Parameters(),
		StdDevs:      s.StdDevs(),
		HyperPars:    s.HyperParameters(),
		StdDevHyper:  s.StdDevHyperParameters(),
		Engines:      s.engineReports(),
		LogLCalls:    s.errdis.Calls(),
		PartialCalls: s.errdis.PartialCalls(),
		Duration:     time.Since(s.started),
	}
}

// Report writes the engine counters and the evidence as a plain table.
func (s *Sampler) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-16s %10s %10s %10s %10s %10s\n", "Engines", "success", "reject", "failed", "best", "calls"); err != nil {
		return err
	}
	for _, r := range s.engineReports() {
		if _, err := fmt.Fprintf(w, "%-16.16s %10d %10d %10d %10d %10d\n", r.Name, r.Success, r.Reject, r.Failed, r.Best, r.Calls); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Calls to LogL     %10d", s.errdis.Calls()); err != nil {
		return err
	}
	if n := s.errdis.PartialCalls(); n > 0 {
		if _, err := fmt.Fprintf(w, "   to dLogL %10d", n); err != nil {
			return err
		}
	}
	n := 0
	if s.samples != nil {
		n = s.samples.Len()
	}
	_, err := fmt.Fprintf(w, "\nSamples  %10d\nEvidence    %10.3f +- %10.3f\n", n, s.Evidence(), s.Precision())
	return err
}
