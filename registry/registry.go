// Package registry owns the per-opponent model lifecycle: lazy model
// creation, cold-start detection, and the single shared n-gram table (or,
// when configured, one table per opponent), per spec.md §4.4.
package registry

import (
	"log"
	"sort"
	"sync"

	"github.com/karlbackan/gigaverse-bot-sub001/ctw"
	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/ngram"
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// OpponentID identifies one opponent stream. The persisted format encodes
// it as an unsigned 64-bit integer (spec.md §6).
type OpponentID uint64

// NgramScope selects whether the n-gram table is shared across every
// opponent (the default) or kept one-per-opponent.
type NgramScope int

const (
	NgramGlobal NgramScope = iota
	NgramPerOpponent
)

// Config carries every tunable the registry and the models it owns need.
type Config struct {
	CTWDepth        int
	NgramOrder      int
	NgramMinSamples int
	NgramScope      NgramScope
	Ensemble        ensemble.Config
}

// DefaultConfig mirrors the predictor spec's defaults: CTW depth 3, 2-gram
// order, global n-gram scope, and the ensemble package's own defaults.
func DefaultConfig() Config {
	return Config{
		CTWDepth:        3,
		NgramOrder:      2,
		NgramMinSamples: ngram.DefaultMinSamples,
		NgramScope:      NgramGlobal,
		Ensemble:        ensemble.DefaultConfig(),
	}
}

type opponent struct {
	ctw   *ctw.Model
	ngram *ngram.Table // non-nil only under NgramPerOpponent
}

// Result is what predict returns to a decision caller: spec.md §6's
// {move, distribution, confidence, cold_start} shape.
type Result struct {
	Move         rps.Symbol
	Distribution rps.Distribution
	Confidence   float64
	ColdStart    bool
}

// DetailedResult additionally exposes the CTW-alone and n-gram-alone
// distributions behind the blended result, for the evaluator's
// per-model accuracy breakdown (spec.md §4.6 item 2 of SPEC_FULL.md).
type DetailedResult struct {
	Result
	CTW   rps.Distribution
	Ngram rps.Distribution
}

// Registry is the per-opponent model registry. The zero value is not
// usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	cfg         Config
	opponents   map[OpponentID]*opponent
	globalNgram *ngram.Table

	// badInputLogged dedupes the "log once per opponent" BadInput policy
	// (spec.md §7).
	badInputLogged map[OpponentID]bool
}

// New creates an empty registry under cfg.
func New(cfg Config) *Registry {
	return &Registry{
		cfg:            cfg,
		opponents:      make(map[OpponentID]*opponent),
		globalNgram:    ngram.New(cfg.NgramOrder, cfg.NgramMinSamples),
		badInputLogged: make(map[OpponentID]bool),
	}
}

// Config returns the registry's configuration.
func (r *Registry) Config() Config { return r.cfg }

func (r *Registry) getOrCreate(id OpponentID) *opponent {
	if op, ok := r.opponents[id]; ok {
		return op
	}
	op := &opponent{ctw: ctw.New(r.cfg.CTWDepth)}
	if r.cfg.NgramScope == NgramPerOpponent {
		op.ngram = ngram.New(r.cfg.NgramOrder, r.cfg.NgramMinSamples)
	}
	r.opponents[id] = op
	return op
}

// ngramFor returns the table predict/update should use for op, and the
// table update should record into, without callers ever branching on
// scope: global scope returns the same shared table for every opponent,
// per-opponent scope returns that opponent's own table.
func (r *Registry) ngramFor(op *opponent) *ngram.Table {
	if r.cfg.NgramScope == NgramPerOpponent {
		return op.ngram
	}
	return r.globalNgram
}

func (r *Registry) logBadInput(id OpponentID, err error) {
	if r.badInputLogged[id] {
		return
	}
	r.badInputLogged[id] = true
	log.Printf("registry: opponent %d: bad input, continuing: %+v", id, err)
}

// coldStartThreshold is max(2, D) per spec.md §7's ColdStart definition,
// widened to the n-gram order so PredictDetailed never slices a shorter
// history than the n-gram context it is about to key on.
func (r *Registry) coldStartThreshold() int {
	threshold := 2
	if r.cfg.CTWDepth > threshold {
		threshold = r.cfg.CTWDepth
	}
	if r.cfg.NgramOrder > threshold {
		threshold = r.cfg.NgramOrder
	}
	return threshold
}

// Predict looks up (or lazily creates) id's model, and returns the
// blended move/distribution/confidence, or a cold-start signal if id's
// history is shorter than max(2, CTWDepth, NgramOrder). charges may be nil to skip
// the charge-bias step.
func (r *Registry) Predict(id OpponentID, charges *ensemble.Charges) (Result, error) {
	detailed, err := r.PredictDetailed(id, charges)
	return detailed.Result, err
}

// PredictDetailed is Predict, additionally exposing the CTW-alone and
// n-gram-alone distributions the blended result was built from.
func (r *Registry) PredictDetailed(id OpponentID, charges *ensemble.Charges) (DetailedResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := r.getOrCreate(id)
	history := op.ctw.History()
	if len(history) < r.coldStartThreshold() {
		u := rps.Uniform()
		return DetailedResult{
			Result: Result{Distribution: u, ColdStart: true},
			CTW:    u,
			Ngram:  u,
		}, nil
	}

	pCTW := op.ctw.PredictWeighted()
	context := history[len(history)-r.cfg.NgramOrder:]
	pNgram := r.ngramFor(op).Predict(context)

	p := ensemble.Blend(pCTW, pNgram, r.cfg.Ensemble)
	if charges != nil {
		biased, err := ensemble.ApplyChargeBias(p, *charges, r.cfg.Ensemble)
		if err != nil {
			r.logBadInput(id, err)
		} else {
			p = biased
		}
	}

	return DetailedResult{
		Result: Result{
			Move:         ensemble.Select(p),
			Distribution: p,
			Confidence:   p.Confidence(),
			ColdStart:    false,
		},
		CTW:   pCTW,
		Ngram: pNgram,
	}, nil
}

// Update appends symbol to id's CTW, and to the n-gram table returned by
// ngramFor, keyed by id's own last-two-symbols (the opponent-local pair,
// never a cross-opponent key, even when the table itself is shared
// globally). BadInput is logged once per opponent and the update is
// otherwise skipped, never fatal.
func (r *Registry) Update(id OpponentID, symbol rps.Symbol) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !symbol.Valid() {
		err := errors.Wrapf(rps.ErrBadSymbol, "registry update: opponent %d", id)
		r.logBadInput(id, err)
		return err
	}

	op := r.getOrCreate(id)
	history := op.ctw.History()
	if len(history) >= r.cfg.NgramOrder {
		context := history[len(history)-r.cfg.NgramOrder:]
		if err := r.ngramFor(op).Update(context, symbol); err != nil {
			r.logBadInput(id, err)
		}
	}
	if err := op.ctw.Update(symbol); err != nil {
		r.logBadInput(id, err)
		return err
	}
	return nil
}

// Reset drops id's model entirely; the next Predict/Update lazily creates
// a fresh one.
func (r *Registry) Reset(id OpponentID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.opponents, id)
	delete(r.badInputLogged, id)
}

// Iter returns every known opponent id in a stable (ascending) order, for
// deterministic persistence.
func (r *Registry) Iter() []OpponentID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]OpponentID, 0, len(r.opponents))
	for id := range r.opponents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
