package registry

import (
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/ensemble"
	"github.com/karlbackan/gigaverse-bot-sub001/ngram"
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictColdStartBeforeThreshold(t *testing.T) {
	r := New(DefaultConfig())
	res, err := r.Predict(1, nil)
	require.NoError(t, err)
	assert.True(t, res.ColdStart)
	assert.Equal(t, rps.Uniform(), res.Distribution)
}

func TestPredictWarmAfterThreshold(t *testing.T) {
	r := New(DefaultConfig())
	threshold := r.coldStartThreshold()
	for i := 0; i < threshold; i++ {
		require.NoError(t, r.Update(1, rps.Rock))
	}
	res, err := r.Predict(1, nil)
	require.NoError(t, err)
	assert.False(t, res.ColdStart)
}

func TestUpdateRejectsBadSymbolButNeverFatal(t *testing.T) {
	r := New(DefaultConfig())
	err := r.Update(1, rps.Symbol(99))
	require.Error(t, err)
	// The registry survives: a later valid update still works.
	require.NoError(t, r.Update(1, rps.Rock))
}

func TestGlobalNgramKeyedByOpponentLocalHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NgramScope = NgramGlobal
	r := New(cfg)

	// Opponent 1 plays rock, paper repeatedly; opponent 2's own local
	// pair differs, but both share one underlying table.
	for i := 0; i < 6; i++ {
		require.NoError(t, r.Update(1, rps.Rock))
		require.NoError(t, r.Update(1, rps.Paper))
	}
	op := r.opponents[1]
	assert.Nil(t, op.ngram, "global scope keeps no per-opponent table")

	// Opponent 2's first recorded key is its own (scissor, scissor), not
	// opponent 1's trailing (rock, paper).
	for _, s := range []rps.Symbol{rps.Scissor, rps.Scissor, rps.Rock} {
		require.NoError(t, r.Update(2, s))
	}
	state := r.globalNgram.State()
	assert.Equal(t, ngram.Counts{Rock: 5}, state["rock,paper"])
	assert.Equal(t, ngram.Counts{Rock: 1}, state["scissor,scissor"])
}

func TestPerOpponentScopeIsolatesTables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NgramScope = NgramPerOpponent
	r := New(cfg)

	require.NoError(t, r.Update(1, rps.Rock))
	require.NoError(t, r.Update(2, rps.Paper))

	op1 := r.opponents[1]
	op2 := r.opponents[2]
	require.NotNil(t, op1.ngram)
	require.NotNil(t, op2.ngram)
	assert.NotSame(t, op1.ngram, op2.ngram)
}

func TestResetDropsModel(t *testing.T) {
	r := New(DefaultConfig())
	require.NoError(t, r.Update(1, rps.Rock))
	r.Reset(1)
	assert.Len(t, r.Iter(), 0)
}

func TestIterIsStableAscending(t *testing.T) {
	r := New(DefaultConfig())
	for _, id := range []OpponentID{5, 1, 3} {
		require.NoError(t, r.Update(id, rps.Rock))
	}
	assert.Equal(t, []OpponentID{1, 3, 5}, r.Iter())
}

func TestPredictWithChargeBiasShiftsTowardRock(t *testing.T) {
	r := New(DefaultConfig())
	threshold := r.coldStartThreshold()
	for i := 0; i < threshold; i++ {
		require.NoError(t, r.Update(1, rps.Paper))
	}
	charges := ensemble.Charges{Rock: 5, Paper: 0, Scissor: 0}
	res, err := r.Predict(1, &charges)
	require.NoError(t, err)
	assert.False(t, res.ColdStart)
	assert.Greater(t, res.Distribution[rps.Rock], 0.0)
}

// TestCyclicOpponentPredictsRockAfterScissor is scenario S2: an opponent
// cycling rock, paper, scissor, rock, paper, scissor, ... for 60 moves
// must, once predicted right at position 3k+1 (just after a scissor),
// shift p.rock above 1/3 and therefore counter with paper. The very
// first cycle boundary (k=1) is exempted: the context node chain for
// "rock follows paper-then-scissor" is only created while processing the
// first move of the *second* cycle, so the predict call right after the
// first cycle still sees a bare root and is genuinely uninformative;
// from the second cycle boundary on, that chain exists and strengthens
// every cycle.
func TestCyclicOpponentPredictsRockAfterScissor(t *testing.T) {
	r := New(DefaultConfig())
	cycle := []rps.Symbol{rps.Rock, rps.Paper, rps.Scissor}

	for k := 1; k <= 20; k++ { // 20 cycles of 3 moves each = 60 moves total
		for _, s := range cycle {
			require.NoError(t, r.Update(2, s))
		}
		if k == 1 {
			continue
		}
		res, err := r.Predict(2, nil)
		require.NoError(t, err)
		require.False(t, res.ColdStart, "cycle %d", k)
		assert.Equal(t, rps.Paper, res.Move, "cycle %d: should counter a predicted rock with paper", k)
		assert.Greater(t, res.Distribution[rps.Rock], 1.0/3.0, "cycle %d: p.rock should exceed uniform", k)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Update(1, rps.Rock))
		require.NoError(t, r.Update(1, rps.Paper))
	}
	global, opponents := r.Snapshot()

	restored, err := Restore(cfg, global, opponents)
	require.NoError(t, err)

	before, err := r.Predict(1, nil)
	require.NoError(t, err)
	after, err := restored.Predict(1, nil)
	require.NoError(t, err)
	assert.Equal(t, before.Distribution, after.Distribution)
}
