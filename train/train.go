// Package train implements offline bootstrapping: fitting a registry's
// models on a whole chronological battle log before any prediction is
// made, per spec.md §4.5.
package train

import (
	"log"
	"time"

	"github.com/karlbackan/gigaverse-bot-sub001/battlelog"
	"github.com/karlbackan/gigaverse-bot-sub001/persist"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/pkg/errors"
)

// ProgressFunc is called every N opponents processed, for CLI progress
// reporting. A nil func is a no-op.
type ProgressFunc func(opponentsDone int)

// Bootstrap sorts src's records by opponent then timestamp, replays each
// opponent's subsequence chronologically through r.Update, and reports
// progress every progressEvery opponents (0 disables reporting). No
// prediction or evaluation happens here; this is pure model fitting.
func Bootstrap(src battlelog.Source, r *registry.Registry, progressEvery int, onProgress ProgressFunc) error {
	records, err := battlelog.ReadAll(src)
	if err != nil {
		return errors.Wrap(err, "train: reading battle log")
	}
	battlelog.SortChronological(records)

	opponentsDone := 0
	finishOpponent := func() {
		opponentsDone++
		if progressEvery > 0 && opponentsDone%progressEvery == 0 {
			if onProgress != nil {
				onProgress(opponentsDone)
			} else {
				log.Printf("train: bootstrapped %d opponents", opponentsDone)
			}
		}
	}
	var current uint64
	haveCurrent := false
	for _, rec := range records {
		if haveCurrent && rec.OpponentID != current {
			finishOpponent()
		}
		current = rec.OpponentID
		haveCurrent = true
		// BadInput is logged once per opponent by the registry itself and
		// the remaining valid input is processed; bootstrapping never
		// aborts on one bad record.
		_ = r.Update(registry.OpponentID(rec.OpponentID), rec.OpponentSymbol)
	}
	if haveCurrent {
		finishOpponent()
	}
	return nil
}

// BootstrapAndSave runs Bootstrap and then persists r's resulting state
// to outPath, per spec.md §4.5 step 4.
func BootstrapAndSave(src battlelog.Source, r *registry.Registry, progressEvery int, onProgress ProgressFunc, outPath string) error {
	if err := Bootstrap(src, r, progressEvery, onProgress); err != nil {
		return err
	}
	global, opponents := r.Snapshot()
	doc := persist.ToDocument(r.Config(), global, opponents, time.Now().UnixMilli())
	if err := persist.Save(outPath, doc); err != nil {
		return errors.Wrapf(err, "train: saving state to %s", outPath)
	}
	return nil
}
