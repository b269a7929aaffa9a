// Package sample holds the weighted posterior draws of a nested-sampling run.
package sample

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/model"
)

// Sample is a posterior draw. It is never modified after creation.
type Sample struct {
	ID       int
	Parent   int
	Allpars  []float64
	FitIndex []int
	LogL     float64
	LogW     float64
	NHyper   int
}

// New copies allpars and fitIndex into a new sample.
func New(id, parent int, allpars []float64, fitIndex []int, logL, logW float64, nhyper int) *Sample {
	return &Sample{
		ID:       id,
		Parent:   parent,
		Allpars:  slices.Clone(allpars),
		FitIndex: slices.Clone(fitIndex),
		LogL:     logL,
		LogW:     logW,
		NHyper:   nhyper,
	}
}

// NPars is the number of model parameters.
func (s *Sample) NPars() int { return len(s.Allpars) - s.NHyper }

// Parameters returns the model parameters.
func (s *Sample) Parameters() []float64 { return s.Allpars[:s.NPars()] }

// HyperParameters returns the hyperparameter values.
func (s *Sample) HyperParameters() []float64 { return s.Allpars[s.NPars():] }

// State returns the serialisable form.
func (s *Sample) State() domain.SampleState {
	return domain.SampleState{
		ID:       s.ID,
		Parent:   s.Parent,
		Allpars:  slices.Clone(s.Allpars),
		FitIndex: slices.Clone(s.FitIndex),
		LogL:     s.LogL,
		LogW:     s.LogW,
		NHyper:   s.NHyper,
	}
}

// FromState rebuilds a sample.
func FromState(st domain.SampleState) *Sample {
	return New(st.ID, st.Parent, st.Allpars, st.FitIndex, st.LogL, st.LogW, st.NHyper)
}

// List is the append-only posterior. It keeps at most maxSize samples when
// maxSize > 0, dropping the lowest weights first.
type List struct {
	samples []*Sample
	maxSize int

	logZ float64
	info float64

	weights  []float64
	params   []float64
	stdevs   []float64
	hyper    []float64
	stdHyper []float64
}

// NewList returns an empty list; maxSize <= 0 means unbounded.
func NewList(maxSize int) *List {
	return &List{maxSize: maxSize, logZ: math.Inf(-1)}
}

// Add appends s, weeding when the list grows beyond its maximum size.
func (l *List) Add(s *Sample) {
	l.samples = append(l.samples, s)
	if l.maxSize > 0 && len(l.samples) > l.maxSize {
		l.Weed(l.maxSize)
	}
}

// Weed removes the lowest-weight samples until at most maxSize remain. The
// order of the survivors is kept.
func (l *List) Weed(maxSize int) {
	n := len(l.samples) - maxSize
	if maxSize < 0 || n <= 0 {
		return
	}
	idx := make([]int, len(l.samples))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(l.samples[a].LogW, l.samples[b].LogW)
	})
	drop := make(map[int]bool, n)
	for _, i := range idx[:n] {
		drop[i] = true
	}
	kept := l.samples[:0]
	for i, s := range l.samples {
		if !drop[i] {
			kept = append(kept, s)
		}
	}
	clear(l.samples[len(kept):])
	l.samples = kept
}

// Len returns the number of samples.
func (l *List) Len() int { return len(l.samples) }

// At returns sample i.
func (l *List) At(i int) *Sample { return l.samples[i] }

// Samples returns the samples in insertion order.
func (l *List) Samples() []*Sample { return l.samples }

// SetEvidence records the log evidence and information of the run.
func (l *List) SetEvidence(logZ, info float64) {
	l.logZ, l.info = logZ, info
}

// LogZ is the natural log of the evidence.
func (l *List) LogZ() float64 { return l.logZ }

// Info is the information H in nats.
func (l *List) Info() float64 { return l.info }

// Evidence is the 10log of the evidence.
func (l *List) Evidence() float64 { return l.logZ / math.Ln10 }

// Normalize computes the normalised weights and the weighted statistics.
// For a dynamic model only the samples with as many parameters as the
// highest-weight sample contribute to the parameter statistics.
func (l *List) Normalize() {
	l.weights, l.params, l.stdevs, l.hyper, l.stdHyper = nil, nil, nil, nil, nil
	if len(l.samples) == 0 {
		return
	}
	logW := make([]float64, len(l.samples))
	for i, s := range l.samples {
		logW[i] = s.LogW
	}
	norm := floats.LogSumExp(logW)
	l.weights = make([]float64, len(logW))
	top := 0
	for i, lw := range logW {
		l.weights[i] = math.Exp(lw - norm)
		if l.weights[i] > l.weights[top] {
			top = i
		}
	}

	np := l.samples[top].NPars()
	var (
		sel []*Sample
		w   []float64
	)
	for i, s := range l.samples {
		if s.NPars() == np {
			sel = append(sel, s)
			w = append(w, l.weights[i])
		}
	}
	l.params, l.stdevs = weighted(sel, w, np, (*Sample).Parameters)
	l.hyper, l.stdHyper = weighted(sel, w, l.samples[top].NHyper, (*Sample).HyperParameters)
}

func weighted(sel []*Sample, w []float64, n int, values func(*Sample) []float64) (mean, std []float64) {
	mean = make([]float64, n)
	std = make([]float64, n)
	col := make([]float64, len(sel))
	for k := 0; k < n; k++ {
		for i, s := range sel {
			col[i] = values(s)[k]
		}
		mean[k], std[k] = stat.PopMeanStdDev(col, w)
	}
	return mean, std
}

// Weights returns the normalised weights, in sample order.
func (l *List) Weights() []float64 { return l.weights }

// Parameters returns the weighted mean of the model parameters.
func (l *List) Parameters() []float64 { return l.params }

// StdDevs returns the weighted standard deviations of the model parameters.
func (l *List) StdDevs() []float64 { return l.stdevs }

// HyperParameters returns the weighted mean of the hyperparameters.
func (l *List) HyperParameters() []float64 { return l.hyper }

// StdDevHyperParameters returns the weighted standard deviations of the
// hyperparameters.
func (l *List) StdDevHyperParameters() []float64 { return l.stdHyper }

// MaximumLikelihood returns the sample with the highest logL, or nil.
func (l *List) MaximumLikelihood() *Sample {
	var best *Sample
	for _, s := range l.samples {
		if best == nil || s.LogL > best.LogL {
			best = s
		}
	}
	return best
}

// Average returns the weighted average of the model over the samples,
// evaluated at x. Normalize must have been called.
func (l *List) Average(m model.Model, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, s := range l.samples {
		if i >= len(l.weights) || l.weights[i] == 0 {
			continue
		}
		floats.AddScaled(out, l.weights[i], m.Result(x, s.Parameters()))
	}
	return out
}
