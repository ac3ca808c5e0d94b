package ngram

import (
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
)

// State is the persisted shape of a Table: a flat map keyed by the
// comma-joined symbol names of the context, matching the
// "<s1,s2>": {"rock":n,...} shape in the save file.
type State map[string]Counts

// Counts mirrors ctw.Counts; kept distinct so the two packages stay
// independently serializable.
type Counts struct {
	Rock    int64 `json:"rock"`
	Paper   int64 `json:"paper"`
	Scissor int64 `json:"scissor"`
}

// State returns the persisted representation of t.
func (t *Table) State() State {
	s := make(State, len(t.counts))
	for key, counts := range t.counts {
		s[key] = Counts{Rock: counts[rps.Rock], Paper: counts[rps.Paper], Scissor: counts[rps.Scissor]}
	}
	return s
}

// FromState reconstructs a Table of the given order/minSamples from its
// persisted counts. Keys present in the state but not in the current
// order's complete key space are ignored; keys in the key space but
// absent from the state are initialized at zero, so a table widened in a
// later version still has a complete key space.
func FromState(order, minSamples int, s State) *Table {
	t := New(order, minSamples)
	for _, key := range allKeys(order) {
		if c, ok := s[key]; ok {
			t.counts[key] = [rps.NumSymbols]int64{rps.Rock: c.Rock, rps.Paper: c.Paper, rps.Scissor: c.Scissor}
		}
	}
	return t
}
