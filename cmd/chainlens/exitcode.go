package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
)

const (
	exitSuccess        = 0
	exitMalformedInput = 2
	exitDecoderFailure = 3
	exitPairingFailure = 4
	exitMerkleMismatch = 5
)

// exitCodeFor maps a decode/analysis error to the CLI's documented exit
// codes via errors.Is against the closed bitcoinerr taxonomy, falling
// back to a generic decoder-failure code for anything else.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}

	var jsonErr *json.SyntaxError
	var hexErr hex.InvalidByteError
	if errors.As(err, &jsonErr) || errors.As(err, &hexErr) {
		return exitMalformedInput
	}

	switch {
	case errors.Is(err, bitcoinerr.ErrUndoMismatch):
		return exitPairingFailure
	case errors.Is(err, bitcoinerr.ErrMerkleMismatch):
		return exitMerkleMismatch
	case errors.Is(err, bitcoinerr.ErrTruncated),
		errors.Is(err, bitcoinerr.ErrInvalidTemplate),
		errors.Is(err, bitcoinerr.ErrInvalidEncoding),
		errors.Is(err, bitcoinerr.ErrInvalidWitness),
		errors.Is(err, bitcoinerr.ErrInvalidMarkerFlag),
		errors.Is(err, bitcoinerr.ErrExcessiveInputs),
		errors.Is(err, bitcoinerr.ErrExcessiveOutputs),
		errors.Is(err, bitcoinerr.ErrCurvePointInvalid),
		errors.Is(err, bitcoinerr.ErrUnsupportedWitnessVersion),
		errors.Is(err, bitcoinerr.ErrNoMagic):
		return exitDecoderFailure
	default:
		return exitMalformedInput
	}
}
