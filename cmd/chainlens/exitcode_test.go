package main

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
)

func TestExitCodeForNil(t *testing.T) {
	require.Equal(t, exitSuccess, exitCodeFor(nil))
}

func TestExitCodeForJSONSyntaxError(t *testing.T) {
	var v any
	err := json.Unmarshal([]byte("{bad"), &v)
	require.Error(t, err)
	require.Equal(t, exitMalformedInput, exitCodeFor(err))
}

func TestExitCodeForUndoMismatch(t *testing.T) {
	require.Equal(t, exitPairingFailure, exitCodeFor(bitcoinerr.ErrUndoMismatch))
}

func TestExitCodeForDecoderFailures(t *testing.T) {
	wrapped := fmt.Errorf("input 0: %w", bitcoinerr.ErrTruncated)
	require.Equal(t, exitDecoderFailure, exitCodeFor(wrapped))
}

func TestExitCodeForUnknownErrorDefaultsToMalformed(t *testing.T) {
	require.Equal(t, exitMalformedInput, exitCodeFor(fmt.Errorf("some other failure")))
}
