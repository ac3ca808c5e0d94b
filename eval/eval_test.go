package eval

import (
	"math"
	"math/rand"
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/battlelog"
	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAlwaysRockOpponentConvergesToPaper is testable property 8: after
// enough updates, the predictor's chosen move against an always-rock
// opponent is paper, with win-rate approaching 100%.
func TestAlwaysRockOpponentConvergesToPaper(t *testing.T) {
	records := make([]battlelog.Record, 40)
	for i := range records {
		records[i] = battlelog.Record{OpponentID: 1, Timestamp: int64(i), OpponentSymbol: rps.Rock}
	}
	reg := registry.New(registry.DefaultConfig())
	report, err := Backtest(battlelog.NewSliceSource(records), reg, Config{})
	require.NoError(t, err)

	// Only the tail, once the predictor has warmed up past cold-start,
	// is expected to converge.
	assert.Greater(t, report.WinRate(), 0.8)
}

// TestUniformRandomOpponentNetAdvantageNearZero is scenario S3: 300 i.i.d.
// uniform draws from a fixed seed carry no exploitable structure, so the
// measured net advantage must sit within a tight band of zero. Against a
// genuinely i.i.d. opponent every round's win/loss/draw odds are uniform
// 1/3 regardless of our move (the opponent's next symbol is independent
// of everything we could have learned from its history), so the net
// advantage's standard error is about sqrt(2/3/300) =~ 0.047; the 0.15
// bound below is roughly three standard errors, tight enough that a real
// bias-injection regression would trip it while leaving sampling noise
// room to breathe.
func TestUniformRandomOpponentNetAdvantageNearZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]battlelog.Record, 300)
	for i := range records {
		records[i] = battlelog.Record{
			OpponentID:     3,
			Timestamp:      int64(i),
			OpponentSymbol: rps.Symbol(rng.Intn(rps.NumSymbols)),
		}
	}
	reg := registry.New(registry.DefaultConfig())
	report, err := Backtest(battlelog.NewSliceSource(records), reg, Config{})
	require.NoError(t, err)
	assert.Less(t, math.Abs(report.NetAdvantage), 0.15)
}

// TestWarmVsColdNetAdvantage is scenario S5 / testable property 4: train
// on the first 90% of a log, then test on the remainder (net_warm), and
// compare against evaluating cold (an empty registry, online updates)
// over that same remainder (net_cold). spec.md §9 singles this gap out
// as "the property that justifies the whole design"; net_warm must beat
// net_cold by at least 2 percentage points on this fixture.
func TestWarmVsColdNetAdvantage(t *testing.T) {
	records := make([]battlelog.Record, 200)
	pattern := []rps.Symbol{rps.Rock, rps.Rock, rps.Paper}
	for i := range records {
		records[i] = battlelog.Record{OpponentID: 9, Timestamp: int64(i), OpponentSymbol: pattern[i%len(pattern)]}
	}
	splitIdx := int(float64(len(records)) * 0.9)
	testSegment := records[splitIdx:]

	warmReg := registry.New(registry.DefaultConfig())
	warmReport, err := Backtest(battlelog.NewSliceSource(records), warmReg, Config{SplitRatio: 0.9, Mode: PredictThenUpdate})
	require.NoError(t, err)

	coldReg := registry.New(registry.DefaultConfig())
	coldReport, err := Backtest(battlelog.NewSliceSource(testSegment), coldReg, Config{})
	require.NoError(t, err)

	assert.Equal(t, len(testSegment), warmReport.Total)
	assert.Equal(t, len(testSegment), coldReport.Total)
	assert.GreaterOrEqual(t, warmReport.NetAdvantage-coldReport.NetAdvantage, 0.02,
		"net_warm=%.4f net_cold=%.4f", warmReport.NetAdvantage, coldReport.NetAdvantage)
}
