// Package ensemble blends the CTW and n-gram distributions, applies the
// enemy-charges side-channel bias, and picks our move by expected-value
// maximization, per spec.md §4.3. It knows nothing about opponents, trees,
// or persistence; registry.Registry is the caller that wires a live CTW
// model and n-gram table into these pure functions.
package ensemble

import (
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// Config carries every tunable named in spec.md: the ensemble blend
// weights, and the charge-bias gate threshold and mixing weight. All of
// these are magic numbers in the source experiments; they are config here,
// never hard-coded constants.
type Config struct {
	WeightCTW   float64
	WeightNgram float64

	// ChargeTriggerGap is the minimum (max-min) spread in a charges vector
	// that activates the charge bias.
	ChargeTriggerGap int
	// ChargeWeight is the mixing weight given to the charges-derived
	// distribution when the gate fires.
	ChargeWeight float64
}

// DefaultConfig returns the repository's empirically-chosen defaults:
// w_ctw=0.2, w_ngram=0.8, gate=3, charge weight=0.2.
func DefaultConfig() Config {
	return Config{
		WeightCTW:        0.2,
		WeightNgram:      0.8,
		ChargeTriggerGap: 3,
		ChargeWeight:     0.2,
	}
}

// Charges is the enemy "charges" side-channel: remaining uses of each
// symbol, treated as a bias distribution rather than a hard constraint.
type Charges struct {
	Rock, Paper, Scissor int
}

// ErrNegativeCharge is a BadInput error: a malformed charges vector.
var ErrNegativeCharge = errors.New("ensemble: charges must be non-negative")

// Valid reports whether every component of c is non-negative.
func (c Charges) Valid() bool {
	return c.Rock >= 0 && c.Paper >= 0 && c.Scissor >= 0
}

// Gap is max(charges) - min(charges), the charge-bias gate's trigger
// quantity.
func (c Charges) Gap() int {
	max, min := c.Rock, c.Rock
	for _, v := range []int{c.Paper, c.Scissor} {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max - min
}

// asDistribution normalizes the charges into a bias distribution q.
func (c Charges) asDistribution() rps.Distribution {
	d := rps.Distribution{rps.Rock: float64(c.Rock), rps.Paper: float64(c.Paper), rps.Scissor: float64(c.Scissor)}
	return d.Normalized()
}

// Blend combines the CTW and n-gram distributions with cfg's weights:
// p = w_ctw*p_ctw + w_ngram*p_ngram.
func Blend(ctwDist, ngramDist rps.Distribution, cfg Config) rps.Distribution {
	return rps.Distribution{
		cfg.WeightCTW*ctwDist[rps.Rock] + cfg.WeightNgram*ngramDist[rps.Rock],
		cfg.WeightCTW*ctwDist[rps.Paper] + cfg.WeightNgram*ngramDist[rps.Paper],
		cfg.WeightCTW*ctwDist[rps.Scissor] + cfg.WeightNgram*ngramDist[rps.Scissor],
	}
}

// ApplyChargeBias mixes p with the charges-derived distribution when the
// gate (max-min >= ChargeTriggerGap) fires, and returns p unchanged
// otherwise. An invalid (negative) charges vector is reported as
// ErrNegativeCharge and p is returned unchanged; the caller decides
// whether and how often to log this per spec.md §7's BadInput policy.
func ApplyChargeBias(p rps.Distribution, charges Charges, cfg Config) (rps.Distribution, error) {
	if !charges.Valid() {
		return p, errors.Wrapf(ErrNegativeCharge, "%+v", charges)
	}
	if charges.Gap() < cfg.ChargeTriggerGap {
		return p, nil
	}
	q := charges.asDistribution()
	w := cfg.ChargeWeight
	return rps.Distribution{
		(1-w)*p[rps.Rock] + w*q[rps.Rock],
		(1-w)*p[rps.Paper] + w*q[rps.Paper],
		(1-w)*p[rps.Scissor] + w*q[rps.Scissor],
	}, nil
}

// Select picks our move maximizing expected value against p, with the
// deterministic Rock/Paper/Scissor tie-break from rps.BestMove.
func Select(p rps.Distribution) rps.Symbol {
	return rps.BestMove(p)
}
