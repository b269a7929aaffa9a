// Package walker holds the live ensemble of a nested-sampling run.
package walker

import (
	"slices"

	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/problem"
	"github.com/rwhender/BayesicFitting/pkg/sample"
)

// NoParent marks a walker that was never copied from another.
const NoParent = -1

// Walker is one member of the ensemble.
type Walker struct {
	ID      int
	Parent  int
	Problem problem.Problem
	// Allpars holds the model parameters followed by the hyperparameters.
	Allpars []float64
	// FitIndex lists the fitted entries; negative values count from the end
	// of Allpars.
	FitIndex []int
	LogL     float64
	NHyper   int
}

// New returns a walker owning copies of allpars and fitIndex.
func New(id int, p problem.Problem, allpars []float64, fitIndex []int, nhyper int) *Walker {
	return &Walker{
		ID:       id,
		Parent:   NoParent,
		Problem:  p,
		Allpars:  slices.Clone(allpars),
		FitIndex: slices.Clone(fitIndex),
		NHyper:   nhyper,
	}
}

// NPars is the number of model parameters.
func (w *Walker) NPars() int { return len(w.Allpars) - w.NHyper }

// Parameters returns the model parameters.
func (w *Walker) Parameters() []float64 { return w.Allpars[:w.NPars()] }

// Index translates a fit index entry into a position in Allpars.
func (w *Walker) Index(fi int) int {
	if fi < 0 {
		return len(w.Allpars) + fi
	}
	return fi
}

// Clone returns a deep copy.
func (w *Walker) Clone() *Walker {
	c := *w
	c.Allpars = slices.Clone(w.Allpars)
	c.FitIndex = slices.Clone(w.FitIndex)
	return &c
}

// Install copies the state of from into w, keeping the identity of w.
func (w *Walker) Install(from *Walker) {
	w.Parent = from.Parent
	w.Problem = from.Problem
	w.Allpars = append(w.Allpars[:0], from.Allpars...)
	w.FitIndex = append(w.FitIndex[:0], from.FitIndex...)
	w.LogL = from.LogL
	w.NHyper = from.NHyper
}

// ToSample immortalises the walker with log weight logW.
func (w *Walker) ToSample(logW float64) *sample.Sample {
	return sample.New(w.ID, w.Parent, w.Allpars, w.FitIndex, w.LogL, logW, w.NHyper)
}

// State returns the serialisable form.
func (w *Walker) State() domain.WalkerState {
	return domain.WalkerState{
		ID:       w.ID,
		Parent:   w.Parent,
		Allpars:  slices.Clone(w.Allpars),
		FitIndex: slices.Clone(w.FitIndex),
		LogL:     w.LogL,
		NHyper:   w.NHyper,
	}
}

// List is the ensemble plus one extra slot, at index Ensemble(), that holds
// the best walker seen so far.
type List struct {
	walkers  []*Walker
	ensemble int
}

// NewList returns ensemble+1 independent walkers built from the template.
func NewList(p problem.Problem, ensemble int, allpars []float64, fitIndex []int, nhyper int) *List {
	l := &List{walkers: make([]*Walker, ensemble+1), ensemble: ensemble}
	for i := range l.walkers {
		l.walkers[i] = New(i, p, allpars, fitIndex, nhyper)
	}
	return l
}

// RestoreList rebuilds a list from saved states; the last state is the best slot.
func RestoreList(p problem.Problem, states []domain.WalkerState) *List {
	l := &List{walkers: make([]*Walker, len(states)), ensemble: len(states) - 1}
	for i, st := range states {
		w := New(st.ID, p, st.Allpars, st.FitIndex, st.NHyper)
		w.Parent = st.Parent
		w.LogL = st.LogL
		l.walkers[i] = w
	}
	return l
}

// Ensemble is the number of live walkers.
func (l *List) Ensemble() int { return l.ensemble }

// Len is the number of slots, Ensemble()+1.
func (l *List) Len() int { return len(l.walkers) }

// At returns the walker in slot i.
func (l *List) At(i int) *Walker { return l.walkers[i] }

// Best returns the best walker seen so far.
func (l *List) Best() *Walker { return l.walkers[l.ensemble] }

// Live returns the live walkers, without the best slot.
func (l *List) Live() []*Walker { return l.walkers[:l.ensemble] }

// Copy overwrites slot dst with a deep copy of slot src and records src as
// its parent.
func (l *List) Copy(src, dst int) {
	d := l.walkers[dst]
	d.Install(l.walkers[src])
	d.Parent = src
}

// States returns the serialisable form of every slot.
func (l *List) States() []domain.WalkerState {
	out := make([]domain.WalkerState, len(l.walkers))
	for i, w := range l.walkers {
		out[i] = w.State()
	}
	return out
}
