// Package eval implements the backtest evaluator: predict-then-tally-then-
// update over a battle log, with an optional per-opponent train/test
// split, per spec.md §4.6.
package eval

import (
	"github.com/karlbackan/gigaverse-bot-sub001/battlelog"
	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// Mode controls what happens to the post-split test segment: update the
// model after each prediction (closer to production use) or leave it
// untouched (isolates pure cold evaluation of a frozen model).
type Mode int

const (
	PredictThenUpdate Mode = iota
	PredictOnly
)

// Config is a backtest run's parameters.
type Config struct {
	// SplitRatio, in (0,1], is the fraction of each opponent's sequence
	// used purely to train (Update only, no tally) before testing starts
	// on the remainder. Zero or negative disables the split: every
	// record is both predicted against and tallied, from the first.
	SplitRatio float64
	// Mode governs the post-split segment; ignored when SplitRatio <= 0.
	Mode Mode
}

// Report is the backtest's result: spec.md §4.6 item 2's required
// fields, plus the per-model accuracy breakdown SPEC_FULL.md item 4
// adds.
type Report struct {
	Total  int
	Wins   int
	Losses int
	Draws  int

	NetAdvantage float64

	EnsembleAccuracy float64
	CTWAccuracy      float64
	NgramAccuracy    float64
}

// WinRate, LossRate, DrawRate are convenience accessors over Report's raw
// counts.
func (r Report) WinRate() float64  { return rate(r.Wins, r.Total) }
func (r Report) LossRate() float64 { return rate(r.Losses, r.Total) }
func (r Report) DrawRate() float64 { return rate(r.Draws, r.Total) }

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Backtest walks src chronologically (sorted by opponent then timestamp)
// through reg, applying cfg's optional split, and returns the resulting
// Report.
func Backtest(src battlelog.Source, reg *registry.Registry, cfg Config) (Report, error) {
	records, err := battlelog.ReadAll(src)
	if err != nil {
		return Report{}, errors.Wrap(err, "eval: reading battle log")
	}
	battlelog.SortChronological(records)

	groups := make(map[uint64][]battlelog.Record)
	var order []uint64
	for _, rec := range records {
		if _, ok := groups[rec.OpponentID]; !ok {
			order = append(order, rec.OpponentID)
		}
		groups[rec.OpponentID] = append(groups[rec.OpponentID], rec)
	}

	var report Report
	var ctwCorrect, ngramCorrect, ensembleCorrect int

	for _, oid := range order {
		seq := groups[oid]
		splitIdx := 0
		if cfg.SplitRatio > 0 {
			splitIdx = int(float64(len(seq)) * cfg.SplitRatio)
		}
		for i, rec := range seq {
			id := registry.OpponentID(oid)
			if i < splitIdx {
				_ = reg.Update(id, rec.OpponentSymbol)
				continue
			}

			detailed, err := reg.PredictDetailed(id, chargesFromRecord(rec))
			if err != nil {
				return Report{}, errors.Wrapf(err, "eval: predicting opponent %d", oid)
			}

			report.Total++
			switch outcome(detailed.Move, rec.OpponentSymbol) {
			case win:
				report.Wins++
			case loss:
				report.Losses++
			case draw:
				report.Draws++
			}
			if rps.ArgMax(detailed.CTW) == rec.OpponentSymbol {
				ctwCorrect++
			}
			if rps.ArgMax(detailed.Ngram) == rec.OpponentSymbol {
				ngramCorrect++
			}
			if rps.ArgMax(detailed.Distribution) == rec.OpponentSymbol {
				ensembleCorrect++
			}

			if cfg.SplitRatio <= 0 || cfg.Mode == PredictThenUpdate {
				_ = reg.Update(id, rec.OpponentSymbol)
			}
		}
	}

	if report.Total > 0 {
		report.NetAdvantage = float64(report.Wins-report.Losses) / float64(report.Total)
		report.CTWAccuracy = float64(ctwCorrect) / float64(report.Total)
		report.NgramAccuracy = float64(ngramCorrect) / float64(report.Total)
		report.EnsembleAccuracy = float64(ensembleCorrect) / float64(report.Total)
	}
	return report, nil
}

type battleOutcome int

const (
	draw battleOutcome = iota
	win
	loss
)

// outcome scores ourMove against the opponent's actual symbol.
func outcome(ourMove, opponentSymbol rps.Symbol) battleOutcome {
	if rps.Counter(opponentSymbol) == ourMove {
		return win
	}
	if rps.Counter(ourMove) == opponentSymbol {
		return loss
	}
	return draw
}

func chargesFromRecord(rec battlelog.Record) *ensemble.Charges {
	if !rec.HasCharges {
		return nil
	}
	c := rec.Charges
	return &c
}
