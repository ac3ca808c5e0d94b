package cliutil

import (
	"testing"

	"github.com/karlbackan/gigaverse-bot-sub001/persist"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeClassification(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUserError, ExitCode(errors.Wrap(ErrUsage, "bad flag")))
	assert.Equal(t, ExitDataError, ExitCode(errors.Wrap(persist.ErrPersistenceCorrupt, "corrupt")))
	assert.Equal(t, ExitDataError, ExitCode(errors.Wrap(persist.ErrVersionMismatch, "mismatch")))
	assert.Equal(t, ExitUnexpectedBase, ExitCode(errors.New("something else")))
}

func TestParseChargesEmpty(t *testing.T) {
	c, err := ParseCharges("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseChargesValid(t *testing.T) {
	c, err := ParseCharges("3,0,1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 3, c.Rock)
	assert.Equal(t, 0, c.Paper)
	assert.Equal(t, 1, c.Scissor)
}

func TestParseChargesRejectsWrongArity(t *testing.T) {
	_, err := ParseCharges("1,2")
	require.Error(t, err)
}

func TestParseChargesRejectsNonInteger(t *testing.T) {
	_, err := ParseCharges("1,x,2")
	require.Error(t, err)
}

func TestParseChargesRejectsNegative(t *testing.T) {
	_, err := ParseCharges("-1,0,0")
	require.Error(t, err)
}
