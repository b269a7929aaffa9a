package presentation

import (
	"fmt"
	"strings"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Markdown formats a run summary as a markdown document.
func Markdown(s *domain.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Nested sampling run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- **Model**: %s\n", s.Model)
	fmt.Fprintf(&b, "- **Error distribution**: %s\n", s.Distribution)
	fmt.Fprintf(&b, "- **Ensemble**: %d, discarding %d per iteration\n", s.Ensemble, s.Discard)
	fmt.Fprintf(&b, "- **Iterations**: %d, **samples**: %d\n", s.Iterations, s.Samples)
	fmt.Fprintf(&b, "- **Duration**: %s\n\n", s.Duration.Round(1e6))

	b.WriteString("## Evidence\n\n")
	b.WriteString("| | value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| 10log(Z) | %.3f ± %.3f |\n", s.Evidence, s.Precision)
	fmt.Fprintf(&b, "| ln(Z) | %.3f |\n", s.LogZ)
	fmt.Fprintf(&b, "| information H | %.3f |\n\n", s.Information)

	b.WriteString("## Parameters\n\n")
	writeTable(&b, "p", s.Parameters, s.StdDevs)
	if len(s.HyperPars) > 0 {
		b.WriteString("\n## Hyperparameters\n\n")
		writeTable(&b, "h", s.HyperPars, s.StdDevHyper)
	}

	b.WriteString("\n## Engines\n\n")
	b.WriteString("| engine | success | reject | failed | best | calls |\n|---|---:|---:|---:|---:|---:|\n")
	for _, e := range s.Engines {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d |\n", e.Name, e.Success, e.Reject, e.Failed, e.Best, e.Calls)
	}
	fmt.Fprintf(&b, "\nCalls to logL: %d, to its partials: %d\n", s.LogLCalls, s.PartialCalls)
	return b.String()
}

func writeTable(b *strings.Builder, prefix string, values, sd []float64) {
	b.WriteString("| | mean | std dev |\n|---|---:|---:|\n")
	for k, v := range values {
		s := 0.0
		if k < len(sd) {
			s = sd[k]
		}
		fmt.Fprintf(b, "| %s%d | %.6g | %.6g |\n", prefix, k, v, s)
	}
}
