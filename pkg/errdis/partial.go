package errdis

import "iter"

// PartialSeq yields the per-point partial derivatives of the log-likelihood,
// one array per fit index, in fit-index order. It is computed lazily, can be
// consumed once and cannot be restarted.
type PartialSeq struct {
	fitIndex []int
	pos      int
	next     func(fi int) []float64
}

func newPartialSeq(fitIndex []int, next func(fi int) []float64) *PartialSeq {
	return &PartialSeq{fitIndex: fitIndex, next: next}
}

// Next returns the partial for the next fit index, or false when exhausted.
func (s *PartialSeq) Next() ([]float64, bool) {
	if s.pos >= len(s.fitIndex) {
		return nil, false
	}
	fi := s.fitIndex[s.pos]
	s.pos++
	return s.next(fi), true
}

// Remaining returns how many partials are left.
func (s *PartialSeq) Remaining() int {
	return len(s.fitIndex) - s.pos
}

// All consumes the sequence, yielding the position in the fit index with the
// partial for it.
func (s *PartialSeq) All() iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		for {
			k := s.pos
			p, ok := s.Next()
			if !ok || !yield(k, p) {
				return
			}
		}
	}
}
