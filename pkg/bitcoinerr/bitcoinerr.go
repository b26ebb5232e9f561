// Package bitcoinerr defines the closed set of error conditions the Chain
// Lens decoders can raise. Every decoder failure wraps one of these
// sentinels with fmt.Errorf's %w, so callers downstream — the
// orchestrator, the CLI's exit-code mapping — can test with errors.Is
// instead of string matching.
package bitcoinerr

import "errors"

var (
	// ErrTruncated means a read ran past the end of the buffer.
	ErrTruncated = errors.New("truncated: buffer ended mid-field")

	// ErrInvalidTemplate means script bytes did not match any known
	// template when one was required.
	ErrInvalidTemplate = errors.New("invalid template: no matching script template")

	// ErrInvalidEncoding means a Base58Check, Bech32, or Bech32m checksum
	// or HRP violation occurred during address derivation.
	ErrInvalidEncoding = errors.New("invalid encoding: checksum or HRP violation")

	// ErrInvalidWitness means a per-input witness count mismatch or a
	// malformed witness stack.
	ErrInvalidWitness = errors.New("invalid witness: count mismatch or malformed stack")

	// ErrInvalidMarkerFlag means a segwit transaction's marker/flag bytes
	// were present but not exactly 0x00 0x01.
	ErrInvalidMarkerFlag = errors.New("invalid marker/flag bytes")

	// ErrExcessiveInputs/ErrExcessiveOutputs guard against unreasonably
	// large CompactSize counts; this is a soft DoS bound, not a consensus
	// rule.
	ErrExcessiveInputs  = errors.New("excessive input count")
	ErrExcessiveOutputs = errors.New("excessive output count")

	// ErrUndoMismatch means an undo block was paired to a main block with
	// a divergent non-coinbase input count.
	ErrUndoMismatch = errors.New("undo mismatch: divergent input count against paired block")

	// ErrMerkleMismatch means the recomputed merkle root differs from the
	// block header's.
	ErrMerkleMismatch = errors.New("merkle mismatch: recomputed root differs from header")

	// ErrCurvePointInvalid means script decompression produced no valid y
	// on secp256k1 for the recovered x-coordinate.
	ErrCurvePointInvalid = errors.New("curve point invalid: no valid y on secp256k1")

	// ErrUnsupportedWitnessVersion means a witness program's size/version
	// combination falls outside accepted bounds.
	ErrUnsupportedWitnessVersion = errors.New("unsupported witness version or program size")

	// ErrNoMagic means no network-magic-anchored block record was found
	// in a blk*.dat buffer.
	ErrNoMagic = errors.New("no block magic found in buffer")
)

// DiagCode is a non-fatal diagnostic code. Unlike the sentinels above,
// values of this type never satisfy the error interface: they are
// attached to a report as data, not returned as failures.
type DiagCode string

const (
	// DiagNonCanonicalSize flags a CompactSize that was accepted but not
	// encoded in its minimal form.
	DiagNonCanonicalSize DiagCode = "NonCanonicalSize"

	// DiagPairingAmbiguous flags an undo block that matched more than one
	// candidate main block by non-coinbase transaction count.
	DiagPairingAmbiguous DiagCode = "PairingAmbiguous"

	// DiagDeadlineExceeded flags that batch block processing stopped
	// early because its context deadline elapsed between blocks.
	DiagDeadlineExceeded DiagCode = "DeadlineExceeded"
)
