package ngram

import (
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteKeySpace(t *testing.T) {
	table := New(2, 5)
	assert.Len(t, table.counts, 9)
}

func TestPredictUniformBelowMinSamples(t *testing.T) {
	table := New(2, 5)
	ctx := []rps.Symbol{rps.Rock, rps.Paper}
	for i := 0; i < 4; i++ {
		require.NoError(t, table.Update(ctx, rps.Scissor))
	}
	assert.Equal(t, rps.Uniform(), table.Predict(ctx))
}

func TestPredictEmpiricalAtMinSamples(t *testing.T) {
	table := New(2, 5)
	ctx := []rps.Symbol{rps.Rock, rps.Paper}
	for i := 0; i < 5; i++ {
		require.NoError(t, table.Update(ctx, rps.Scissor))
	}
	d := table.Predict(ctx)
	assert.InDelta(t, 1.0, d[rps.Scissor], 1e-12)
}

func TestUpdateRejectsWrongContextLength(t *testing.T) {
	table := New(2, 5)
	err := table.Update([]rps.Symbol{rps.Rock}, rps.Paper)
	require.Error(t, err)
}

func TestUpdateRejectsBadSymbol(t *testing.T) {
	table := New(2, 5)
	err := table.Update([]rps.Symbol{rps.Rock, rps.Paper}, rps.Symbol(7))
	require.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	table := New(2, 5)
	ctx := []rps.Symbol{rps.Rock, rps.Paper}
	for i := 0; i < 6; i++ {
		require.NoError(t, table.Update(ctx, rps.Scissor))
	}
	state := table.State()
	restored := FromState(2, 5, state)
	assert.Equal(t, table.Predict(ctx), restored.Predict(ctx))
}

func TestDefaultMinSamplesUsedWhenNonPositive(t *testing.T) {
	table := New(2, 0)
	assert.Equal(t, DefaultMinSamples, table.MinSamples())
}
