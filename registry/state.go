package registry

import (
	"github.com/karlbackan/gigaverse-bot-sub001/ctw"
	"github.com/karlbackan/gigaverse-bot-sub001/ngram"
)

// OpponentState is one opponent's persisted model state: its CTW tree
// and, under NgramPerOpponent scope, its own n-gram table.
type OpponentState struct {
	CTW   ctw.State
	Ngram *ngram.State
}

// Snapshot returns the registry's full persisted state: the shared
// n-gram table (all counts zero under NgramPerOpponent scope, since that
// mode never records into it) and every opponent's own state, keyed by id.
// The persist package is the only caller; it owns the top-level document
// shape (spec.md §6).
func (r *Registry) Snapshot() (ngram.State, map[OpponentID]OpponentState) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	global := r.globalNgram.State()
	out := make(map[OpponentID]OpponentState, len(r.opponents))
	for id, op := range r.opponents {
		os := OpponentState{CTW: op.ctw.State()}
		if op.ngram != nil {
			s := op.ngram.State()
			os.Ngram = &s
		}
		out[id] = os
	}
	return global, out
}

// Restore rebuilds a Registry from a previously-taken Snapshot. cfg
// supplies the parameters (depth, order, scope) that are not themselves
// part of the per-node state.
func Restore(cfg Config, global ngram.State, opponents map[OpponentID]OpponentState) (*Registry, error) {
	r := New(cfg)
	r.globalNgram = ngram.FromState(cfg.NgramOrder, cfg.NgramMinSamples, global)

	for id, os := range opponents {
		model, err := ctw.FromState(os.CTW)
		if err != nil {
			return nil, err
		}
		op := &opponent{ctw: model}
		if cfg.NgramScope == NgramPerOpponent && os.Ngram != nil {
			op.ngram = ngram.FromState(cfg.NgramOrder, cfg.NgramMinSamples, *os.Ngram)
		} else if cfg.NgramScope == NgramPerOpponent {
			op.ngram = ngram.New(cfg.NgramOrder, cfg.NgramMinSamples)
		}
		r.opponents[id] = op
	}
	return r, nil
}
