package ctw

import (
	"math"
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKTIdentity is testable property 1: the returned next-symbol
// probabilities sum to 1 and equal the closed-form KT estimator.
func TestKTIdentity(t *testing.T) {
	n := newNode()
	n.counts = [rps.NumSymbols]int64{5, 2, 1}
	n.total = 8
	d := n.ktProb()
	assert.InDelta(t, 1.0, d.Sum(), 1e-12)
	assert.InDelta(t, 5.5/9.5, d[rps.Rock], 1e-12)
	assert.InDelta(t, 2.5/9.5, d[rps.Paper], 1e-12)
	assert.InDelta(t, 1.5/9.5, d[rps.Scissor], 1e-12)
}

// TestTreeInvariant is testable property 2: after any sequence of updates,
// every visited node satisfies total == sum(counts), and pw matches the
// recursive definition.
func TestTreeInvariant(t *testing.T) {
	m := New(3)
	seq := []rps.Symbol{rps.Rock, rps.Paper, rps.Scissor, rps.Rock, rps.Rock, rps.Paper, rps.Scissor, rps.Scissor}
	for _, s := range seq {
		require.NoError(t, m.Update(s))
	}
	assertInvariant(t, m.root)
}

func assertInvariant(t *testing.T, n *node) {
	t.Helper()
	sum := n.counts[rps.Rock] + n.counts[rps.Paper] + n.counts[rps.Scissor]
	assert.Equal(t, n.total, sum)

	if !n.hasChildren() {
		assert.InDelta(t, n.pe, n.pw, 1e-9)
	} else {
		prod := 1.0
		for _, c := range n.children {
			if c != nil {
				prod *= c.pw
			}
		}
		assert.InDelta(t, 0.5*n.pe+0.5*prod, n.pw, 1e-9)
	}

	for _, c := range n.children {
		if c != nil {
			assertInvariant(t, c)
		}
	}
}

// TestOrderInvarianceOfCounts is testable property 3: replaying the same
// sequence twice produces identical counts.
func TestOrderInvarianceOfCounts(t *testing.T) {
	seq := []rps.Symbol{rps.Rock, rps.Rock, rps.Paper, rps.Scissor, rps.Paper, rps.Rock, rps.Scissor}

	a := New(4)
	for _, s := range seq {
		require.NoError(t, a.Update(s))
	}
	b := New(4)
	for _, s := range seq {
		require.NoError(t, b.Update(s))
	}

	assert.Equal(t, a.root.counts, b.root.counts)
	assert.Equal(t, a.root.total, b.root.total)
}

func TestUpdateRejectsUnknownSymbol(t *testing.T) {
	m := New(3)
	err := m.Update(rps.Symbol(99))
	require.Error(t, err)
	assert.Empty(t, m.History())
}

func TestPredictUniformWithNoHistory(t *testing.T) {
	m := New(3)
	assert.Equal(t, rps.Uniform(), m.Predict())
	assert.Equal(t, rps.Uniform(), m.PredictWeighted())
}

// TestPureBiasConvergence is an abbreviated form of scenario S1: an
// opponent who always plays rock should push p.rock well above 1/3.
func TestPureBiasConvergence(t *testing.T) {
	m := New(3)
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Update(rps.Rock))
	}
	d := m.Predict()
	assert.Greater(t, d[rps.Rock], 0.9)
}

func TestHistoryTrimmedToTenTimesDepth(t *testing.T) {
	m := New(2)
	for i := 0; i < 100; i++ {
		require.NoError(t, m.Update(rps.Symbol(i%3)))
	}
	assert.Len(t, m.History(), 20)
}

// TestStateRoundTrip is testable property 5 restricted to the CTW layer:
// FromState(m.State()) predicts identically to m on the same context.
func TestStateRoundTrip(t *testing.T) {
	m := New(3)
	seq := []rps.Symbol{rps.Rock, rps.Paper, rps.Paper, rps.Scissor, rps.Rock, rps.Rock}
	for _, s := range seq {
		require.NoError(t, m.Update(s))
	}

	state := m.State()
	restored, err := FromState(state)
	require.NoError(t, err)

	assert.Equal(t, m.Predict(), restored.Predict())
	assert.Equal(t, m.PredictWeighted(), restored.PredictWeighted())
	assert.Equal(t, m.History(), restored.History())
}

func TestUnderflowGuardKeepsPePositive(t *testing.T) {
	m := New(1)
	for i := 0; i < 100000; i++ {
		require.NoError(t, m.Update(rps.Symbol(i%3)))
	}
	assert.True(t, m.root.pe > 0 && !math.IsInf(m.root.pe, 0) && !math.IsNaN(m.root.pe))
}
