// Package cliutil holds the small pieces of scaffolding shared by the
// three CLI entry points (bootstrap, backtest, predict): the user-error
// exit-code convention from spec.md §6 and the "r,p,s" charges flag
// format none of them can do without.
package cliutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/persist"
	"github.com/pkg/errors"
)

// Exit codes per spec.md §6's CLI surface.
const (
	ExitOK             = 0
	ExitUserError      = 1
	ExitDataError      = 2
	ExitUnexpectedBase = 3
)

// ErrUsage marks a user error: a bad flag or a missing required file.
var ErrUsage = errors.New("cliutil: usage error")

// ExitCode classifies err per spec.md §7's propagation policy: a usage
// error exits 1, a persistence/version failure exits 2, anything else
// exits >=3.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	cause := errors.Cause(err)
	if cause == ErrUsage {
		return ExitUserError
	}
	if cause == persist.ErrPersistenceCorrupt || cause == persist.ErrVersionMismatch {
		return ExitDataError
	}
	return ExitUnexpectedBase
}

// Fatalf prints err with its pkg/errors stack trace and exits with the
// code ExitCode(err) selects. Library code never calls this; only a
// main's outermost frame does, matching the teacher's log.Fatalf("%+v",
// err) posture.
func Fatalf(logf func(format string, args ...interface{}), err error) {
	logf("%+v", err)
	os.Exit(ExitCode(err))
}

// ParseCharges parses the "--charges r,p,s" flag format into an
// ensemble.Charges. An empty string yields (nil, nil): no charges
// supplied.
func ParseCharges(s string) (*ensemble.Charges, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, errors.Wrapf(ErrUsage, "charges: want 3 comma-separated values, got %q", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(ErrUsage, "charges: %q is not an integer", p)
		}
		vals[i] = n
	}
	c := ensemble.Charges{Rock: vals[0], Paper: vals[1], Scissor: vals[2]}
	if !c.Valid() {
		return nil, errors.Wrapf(ErrUsage, "charges: must be non-negative, got %q", s)
	}
	return &c, nil
}
