package presentation

import (
	"context"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Progress returns hooks that print a line to w every n iterations and at the
// start and end of a run. Colors follow the capabilities of w.
func Progress(w io.Writer, every int) domain.LifecycleHooks {
	out := termenv.NewOutput(w)
	head := func(s string) termenv.Style {
		return out.String(s).Foreground(out.Color("#818cf8")).Bold()
	}
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			fmt.Fprintln(w, head(fmt.Sprintf("%9s %10s %9s %10s %6s  %s", "Iteration", "logZ", "H", "LowL", "npar", "parameters")))
		},
		OnIteration: func(_ context.Context, e *domain.IterationEvent) {
			if every <= 0 || e.Iteration%every != 0 {
				return
			}
			fmt.Fprintf(w, "%9d %10.3f %9.3f %10.3f %6d  %s\n",
				e.Iteration, e.LogZ, e.Information, e.LowLhood, e.NPars, formatValues(e.Parameters))
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			verb := "saved"
			if e.Restored {
				verb = "restored"
			}
			fmt.Fprintln(w, out.String(fmt.Sprintf("checkpoint %s at iteration %d", verb, e.Iteration)).Faint())
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			if e.Summary == nil {
				return
			}
			s := e.Summary
			msg := fmt.Sprintf("done after %d iterations: evidence %.3f ± %.3f", s.Iterations, s.Evidence, s.Precision)
			fmt.Fprintln(w, out.String(msg).Foreground(out.Color("#34d399")))
		},
	}
}

func formatValues(v []float64) string {
	s := ""
	for k, x := range v {
		if k == 10 {
			return s + " ..."
		}
		if k > 0 {
			s += " "
		}
		s += fmt.Sprintf("%8.3f", x)
	}
	return s
}
