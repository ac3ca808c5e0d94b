// Command predict runs a single-shot prediction against a warm-started
// state, per spec.md §6's "predict --state <state> --opponent <id>
// [--charges r,p,s]" CLI surface: it prints the {move, distribution,
// confidence, cold_start} result as JSON to stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/karlbackan/gigaverse-bot-sub001/cliutil"
	"github.com/karlbackan/gigaverse-bot-sub001/persist"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/pkg/errors"
)

var (
	flagState    = flag.String("state", "", "path to the state file (required)")
	flagOpponent = flag.Uint64("opponent", 0, "opponent id (required)")
	flagCharges  = flag.String("charges", "", "optional charges side-channel, as r,p,s")
)

// output is the JSON shape printed to stdout.
type output struct {
	Move         string     `json:"move"`
	Distribution [3]float64 `json:"distribution"`
	Confidence   float64    `json:"confidence"`
	ColdStart    bool       `json:"cold_start"`
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := run(); err != nil {
		cliutil.Fatalf(log.Printf, err)
	}
}

func run() error {
	if *flagState == "" {
		return errors.Wrap(cliutil.ErrUsage, "predict: -state is required")
	}
	charges, err := cliutil.ParseCharges(*flagCharges)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(*flagState)
	if err != nil {
		return errors.Wrap(err, "predict: loading -state")
	}

	res, err := reg.Predict(registry.OpponentID(*flagOpponent), charges)
	if err != nil {
		return errors.Wrap(err, "predict")
	}

	out := output{
		Move:         res.Move.String(),
		Distribution: [3]float64{res.Distribution[0], res.Distribution[1], res.Distribution[2]},
		Confidence:   res.Confidence,
		ColdStart:    res.ColdStart,
	}
	body, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "predict: marshaling result")
	}
	fmt.Println(string(body))
	return nil
}

func loadRegistry(statePath string) (*registry.Registry, error) {
	doc, err := persist.Load(statePath)
	if err != nil {
		return nil, err
	}
	cfg, global, opponents, err := persist.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	return registry.Restore(cfg, global, opponents)
}
