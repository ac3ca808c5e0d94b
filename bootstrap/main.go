// Command bootstrap trains a registry from a chronological battle log
// and writes its resulting state to disk, per spec.md §4.5 and §6's
// "bootstrap --log <path> --out <state>" CLI surface.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/karlbackan/gigaverse-bot-sub001/battlelog"
	"github.com/karlbackan/gigaverse-bot-sub001/cliutil"
	"github.com/karlbackan/gigaverse-bot-sub001/config"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/karlbackan/gigaverse-bot-sub001/train"
	"github.com/pkg/errors"
)

var (
	flagConfig   = flag.String("c", config.Default, "configuration")
	flagLog      = flag.String("log", "", "path to the NDJSON battle log (required)")
	flagOut      = flag.String("out", "", "path to write the resulting state to (required)")
	flagProgress = flag.Int("progress", 100, "emit a progress line every N opponents; 0 disables")
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
	log.Printf("bootstrap: config %s", cfg.Audit())

	if *flagLog == "" || *flagOut == "" {
		return errors.Wrap(cliutil.ErrUsage, "bootstrap: -log and -out are required")
	}

	f, err := os.Open(*flagLog)
	if err != nil {
		return errors.Wrapf(cliutil.ErrUsage, "bootstrap: opening log: %v", err)
	}
	src := battlelog.NewNDJSONSource(f)
	defer src.Close()

	r := registry.New(cfg.Registry())
	onProgress := func(n int) { log.Printf("bootstrap: %d opponents done", n) }
	if err := train.BootstrapAndSave(src, r, *flagProgress, onProgress, *flagOut); err != nil {
		return errors.Wrap(err, "bootstrap")
	}
	log.Printf("bootstrap: wrote state to %s", *flagOut)
	return nil
}
