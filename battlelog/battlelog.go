// Package battlelog defines the contract the predictor core consumes
// from whatever external store records battle history (spec.md §6): a
// lazy, chronological sequence of per-opponent records. The core never
// opens a database; train.Bootstrap and eval.Backtest depend only on the
// Source interface below.
package battlelog

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"

	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// Result is the outcome of a battle from our side, when known.
type Result int

const (
	ResultUnknown Result = iota
	Win
	Loss
	Draw
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Record is one observed battle, matching spec.md §6's field list. Only
// OpponentID, Timestamp and OpponentSymbol are required; the rest are
// optional context a richer log may carry.
type Record struct {
	OpponentID     uint64
	Timestamp      int64 // unix ms
	OpponentSymbol rps.Symbol

	HasOurSymbol bool
	OurSymbol    rps.Symbol

	HasCharges bool
	Charges    ensemble.Charges

	HasResult bool
	Result    Result
}

// Source is a lazy chronological iterator over battle records. Next
// returns io.EOF when exhausted. Implementations are free to stream from
// disk, a database cursor, or a test fixture; train and eval only ever
// call Next.
type Source interface {
	Next() (Record, error)
	Close() error
}

// ReadAll drains src into a slice, for callers (train.Bootstrap,
// eval.Backtest) that need the whole log in memory to sort it by
// opponent then timestamp per spec.md §4.5 step 1.
func ReadAll(src Source) ([]Record, error) {
	var out []Record
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "battlelog: reading source")
		}
		out = append(out, rec)
	}
	return out, nil
}

// SortChronological sorts records by opponent id, then by timestamp
// within each opponent, per spec.md §4.5 step 1.
func SortChronological(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].OpponentID != records[j].OpponentID {
			return records[i].OpponentID < records[j].OpponentID
		}
		return records[i].Timestamp < records[j].Timestamp
	})
}

// sliceSource adapts an in-memory slice of Records to Source, used by
// tests and by any caller that has already loaded its log.
type sliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource returns a Source over an already-materialized slice.
func NewSliceSource(records []Record) Source {
	return &sliceSource{records: records}
}

func (s *sliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceSource) Close() error { return nil }

// ndjsonRecord is the wire shape of one line in an NDJSON battle log.
type ndjsonRecord struct {
	OpponentID     uint64  `json:"opponent_id"`
	Timestamp      int64   `json:"timestamp"`
	OpponentSymbol string  `json:"opponent_symbol"`
	OurSymbol      *string `json:"our_symbol,omitempty"`
	Charges        *[3]int `json:"opponent_charges,omitempty"`
	Result         *string `json:"result,omitempty"`
}

// ndjsonSource reads one Record per line of newline-delimited JSON. This
// is the one concrete Source the CLI tools need to be runnable
// standalone; the spec defines no wire format for the real battle-log
// store, which is SQLite and out of this core's scope.
type ndjsonSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewNDJSONSource wraps r as a Source, reading one JSON record per line.
func NewNDJSONSource(r io.ReadCloser) Source {
	return &ndjsonSource{scanner: bufio.NewScanner(r), closer: r}
}

func (s *ndjsonSource) Next() (Record, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return Record{}, errors.Wrap(err, "battlelog: scan")
		}
		return Record{}, io.EOF
	}
	line := s.scanner.Bytes()
	if len(line) == 0 {
		return s.Next()
	}

	var raw ndjsonRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, errors.Wrap(err, "battlelog: decode line")
	}

	sym, err := rps.ParseSymbol(raw.OpponentSymbol)
	if err != nil {
		return Record{}, errors.Wrap(err, "battlelog: opponent_symbol")
	}
	rec := Record{
		OpponentID:     raw.OpponentID,
		Timestamp:      raw.Timestamp,
		OpponentSymbol: sym,
	}
	if raw.OurSymbol != nil {
		ourSym, err := rps.ParseSymbol(*raw.OurSymbol)
		if err != nil {
			return Record{}, errors.Wrap(err, "battlelog: our_symbol")
		}
		rec.HasOurSymbol = true
		rec.OurSymbol = ourSym
	}
	if raw.Charges != nil {
		rec.HasCharges = true
		rec.Charges = ensemble.Charges{Rock: raw.Charges[0], Paper: raw.Charges[1], Scissor: raw.Charges[2]}
	}
	if raw.Result != nil {
		rec.HasResult = true
		switch *raw.Result {
		case "win":
			rec.Result = Win
		case "loss":
			rec.Result = Loss
		case "draw":
			rec.Result = Draw
		default:
			return Record{}, errors.Errorf("battlelog: unknown result %q", *raw.Result)
		}
	}
	return rec, nil
}

func (s *ndjsonSource) Close() error { return s.closer.Close() }
