package config

import (
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefault(t *testing.T) {
	c, err := Parse(Default)
	require.NoError(t, err)
	assert.Equal(t, 3, c.CTWMaxDepth)
	assert.Equal(t, 2, c.NgramOrder)
	assert.Equal(t, 5, c.NgramMinSamples)
	assert.Equal(t, "global", c.NgramScope)
	assert.InDelta(t, 0.2, c.Ensemble.WCTW, 1e-12)
	assert.InDelta(t, 0.8, c.Ensemble.WNgram, 1e-12)
	assert.Equal(t, 3, c.ChargeTriggerGap)
	assert.InDelta(t, 0.2, c.ChargeWeight, 1e-12)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse("{not json")
	require.Error(t, err)
}

func TestRegistryConfigPerOpponentScope(t *testing.T) {
	c, err := Parse(`{"ngram_scope": "per_opponent"}`)
	require.NoError(t, err)
	assert.Equal(t, registry.NgramPerOpponent, c.Registry().NgramScope)
}

func TestRegistryConfigUnknownScopeFallsBackToGlobal(t *testing.T) {
	c, err := Parse(`{"ngram_scope": "bogus"}`)
	require.NoError(t, err)
	assert.Equal(t, registry.NgramGlobal, c.Registry().NgramScope)
}

func TestRegistryConfigDefaultsMinSamplesWhenNonPositive(t *testing.T) {
	c, err := Parse(`{}`)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Registry().NgramMinSamples)
}

func TestAuditRoundTrips(t *testing.T) {
	c, err := Parse(Default)
	require.NoError(t, err)
	reparsed, err := Parse(c.Audit())
	require.NoError(t, err)
	assert.Equal(t, c, reparsed)
}
