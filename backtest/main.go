// Command backtest streams predictions over a battle log and reports
// win/loss/draw counts and net advantage, per spec.md §4.6 and §6's
// "backtest --log <path> --state <state-in?> --split <ratio?>" CLI
// surface.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/karlbackan/gigaverse-bot-sub001/battlelog"
	"github.com/karlbackan/gigaverse-bot-sub001/cliutil"
	"github.com/karlbackan/gigaverse-bot-sub001/config"
	"github.com/karlbackan/gigaverse-bot-sub001/eval"
	"github.com/karlbackan/gigaverse-bot-sub001/persist"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/pkg/errors"
)

var (
	flagConfig     = flag.String("c", config.Default, "configuration")
	flagLog        = flag.String("log", "", "path to the NDJSON battle log (required)")
	flagState      = flag.String("state", "", "path to a warm-start state file; empty for a cold registry")
	flagSplit      = flag.Float64("split", 0, "train/test split ratio in (0,1]; 0 disables the split")
	flagMode       = flag.String("mode", "predict_then_update", "post-split test mode: predict_then_update or predict_only")
	flagAllowFresh = flag.Bool("allow-fresh", false, "start from an empty registry if -state is unreadable, instead of failing")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := run(); err != nil {
		cliutil.Fatalf(log.Printf, err)
	}
}

func run() error {
	cfg, err := config.Parse(*flagConfig)
	if err != nil {
		return errors.Wrap(cliutil.ErrUsage, err.Error())
	}
	log.Printf("backtest: config %s", cfg.Audit())

	if *flagLog == "" {
		return errors.Wrap(cliutil.ErrUsage, "backtest: -log is required")
	}
	mode, err := parseMode(*flagMode)
	if err != nil {
		return err
	}

	reg, err := loadOrFreshRegistry(cfg.Registry(), *flagState, *flagAllowFresh)
	if err != nil {
		return err
	}

	f, err := os.Open(*flagLog)
	if err != nil {
		return errors.Wrapf(cliutil.ErrUsage, "backtest: opening log: %v", err)
	}
	src := battlelog.NewNDJSONSource(f)
	defer src.Close()

	report, err := eval.Backtest(src, reg, eval.Config{SplitRatio: *flagSplit, Mode: mode})
	if err != nil {
		return errors.Wrap(err, "backtest")
	}

	fmt.Printf("total=%d wins=%d losses=%d draws=%d\n", report.Total, report.Wins, report.Losses, report.Draws)
	fmt.Printf("win_rate=%.4f loss_rate=%.4f draw_rate=%.4f\n", report.WinRate(), report.LossRate(), report.DrawRate())
	fmt.Printf("net_advantage=%.4f\n", report.NetAdvantage)
	fmt.Printf("accuracy: ensemble=%.4f ctw=%.4f ngram=%.4f\n", report.EnsembleAccuracy, report.CTWAccuracy, report.NgramAccuracy)
	return nil
}

func parseMode(s string) (eval.Mode, error) {
	switch s {
	case "predict_then_update":
		return eval.PredictThenUpdate, nil
	case "predict_only":
		return eval.PredictOnly, nil
	default:
		return 0, errors.Wrapf(cliutil.ErrUsage, "backtest: unknown -mode %q", s)
	}
}

// loadOrFreshRegistry loads statePath if given, falling back to a fresh
// registry only when allowFresh is set and the file can't be read; a
// corrupt or missing state file without -allow-fresh is a data error,
// never a silent fresh start, per spec.md §7's PersistenceCorrupt policy.
func loadOrFreshRegistry(cfg registry.Config, statePath string, allowFresh bool) (*registry.Registry, error) {
	if statePath == "" {
		return registry.New(cfg), nil
	}

	doc, err := persist.Load(statePath)
	if err != nil {
		if allowFresh {
			log.Printf("backtest: -state unreadable (%v), starting fresh per -allow-fresh", err)
			return registry.New(cfg), nil
		}
		return nil, errors.Wrap(err, "backtest: loading -state")
	}

	docCfg, global, opponents, err := persist.FromDocument(doc)
	if err != nil {
		return nil, errors.Wrap(err, "backtest: decoding -state")
	}
	return registry.Restore(docCfg, global, opponents)
}
