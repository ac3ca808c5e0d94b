// Package persist implements the predictor's versioned JSON persistence
// format, spec.md §6: atomic save with a rotated backup, fail-over load,
// and minor-version migration.
package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karlbackan/gigaverse-bot-sub001/ctw"
	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/ngram"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/pkg/errors"
)

// CurrentVersion is the schema version this build writes. Bumping the
// minor component requires a registered migration (see migrate.go);
// bumping the major component is a breaking change that Load refuses to
// read, since migrations only run within one major version.
const CurrentVersion = "1.0.0"

// Document is the top-level persisted record, matching spec.md §6's
// schema exactly.
type Document struct {
	Version       string                 `json:"version"`
	SaveTimestamp int64                  `json:"save_timestamp"`
	Symbols       []string               `json:"symbols"`
	Config        ConfigDoc              `json:"config"`
	GlobalNgram   ngram.State            `json:"global_ngram"`
	Opponents     map[string]OpponentDoc `json:"opponents"`
}

// ConfigDoc is the persisted config block.
type ConfigDoc struct {
	CTWMaxDepth      int         `json:"ctw_max_depth"`
	NgramOrder       int         `json:"ngram_order"`
	Ensemble         EnsembleDoc `json:"ensemble"`
	ChargeTriggerGap int         `json:"charge_trigger_gap"`
	ChargeWeight     float64     `json:"charge_weight"`
	NgramMinSamples  int         `json:"ngram_min_samples"`
}

// EnsembleDoc is the persisted ensemble-weight sub-block.
type EnsembleDoc struct {
	WCTW   float64 `json:"w_ctw"`
	WNgram float64 `json:"w_ngram"`
}

// OpponentDoc is one opponent's persisted record. Ngram is present only
// when the opponent was registered under registry.NgramPerOpponent scope;
// under the (default) global scope every opponent shares GlobalNgram
// instead and Ngram is omitted.
type OpponentDoc struct {
	History []string     `json:"history"`
	CTW     ctw.State    `json:"ctw"`
	Ngram   *ngram.State `json:"ngram,omitempty"`
}

// symbolNames is the fixed alphabet order written into every document,
// independent of registry.NgramScope or any other runtime config.
var symbolNames = []string{"rock", "paper", "scissor"}

// ToDocument converts a registry's configuration and snapshot into the
// persisted document shape, stamped with saveTimestamp (unix ms).
func ToDocument(cfg registry.Config, global ngram.State, opponents map[registry.OpponentID]registry.OpponentState, saveTimestamp int64) Document {
	doc := Document{
		Version:       CurrentVersion,
		SaveTimestamp: saveTimestamp,
		Symbols:       symbolNames,
		Config: ConfigDoc{
			CTWMaxDepth: cfg.CTWDepth,
			NgramOrder:  cfg.NgramOrder,
			Ensemble: EnsembleDoc{
				WCTW:   cfg.Ensemble.WeightCTW,
				WNgram: cfg.Ensemble.WeightNgram,
			},
			ChargeTriggerGap: cfg.Ensemble.ChargeTriggerGap,
			ChargeWeight:     cfg.Ensemble.ChargeWeight,
			NgramMinSamples:  cfg.NgramMinSamples,
		},
		GlobalNgram: global,
		Opponents:   make(map[string]OpponentDoc, len(opponents)),
	}
	for id, os := range opponents {
		doc.Opponents[strconv.FormatUint(uint64(id), 10)] = OpponentDoc{
			History: historyNames(os.CTW),
			CTW:     os.CTW,
			Ngram:   os.Ngram,
		}
	}
	return doc
}

func historyNames(s ctw.State) []string {
	out := make([]string, len(s.History))
	copy(out, s.History)
	return out
}

// FromDocument reconstructs a registry.Config and snapshot from a parsed
// document. The n-gram scope itself is not a persisted config field, but
// it is recoverable from the document's shape: any opponent carrying a
// non-nil "ngram" block was saved under registry.NgramPerOpponent, since
// that is the only scope under which registry.Snapshot ever populates
// registry.OpponentState.Ngram.
func FromDocument(doc Document) (registry.Config, ngram.State, map[registry.OpponentID]registry.OpponentState, error) {
	scope := registry.NgramGlobal
	for _, od := range doc.Opponents {
		if od.Ngram != nil {
			scope = registry.NgramPerOpponent
			break
		}
	}

	cfg := registry.Config{
		CTWDepth:        doc.Config.CTWMaxDepth,
		NgramOrder:      doc.Config.NgramOrder,
		NgramMinSamples: doc.Config.NgramMinSamples,
		NgramScope:      scope,
		Ensemble: ensemble.Config{
			WeightCTW:        doc.Config.Ensemble.WCTW,
			WeightNgram:      doc.Config.Ensemble.WNgram,
			ChargeTriggerGap: doc.Config.ChargeTriggerGap,
			ChargeWeight:     doc.Config.ChargeWeight,
		},
	}

	opponents := make(map[registry.OpponentID]registry.OpponentState, len(doc.Opponents))
	for key, od := range doc.Opponents {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return registry.Config{}, nil, nil, errors.Wrapf(err, "persist: opponent key %q", key)
		}
		opponents[registry.OpponentID(id)] = registry.OpponentState{CTW: od.CTW, Ngram: od.Ngram}
	}
	return cfg, doc.GlobalNgram, opponents, nil
}

// parseVersion splits a semver string into its three numeric components.
func parseVersion(v string) (major, minor, patch int, err error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, errors.Errorf("persist: malformed version %q", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, errors.Wrapf(convErr, "persist: malformed version %q", v)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

func formatVersion(major, minor, patch int) string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
