// Package policy analyzes Bitcoin transaction policy: fees, fee rates,
// BIP125 replace-by-fee signaling, absolute and relative (BIP68)
// timelocks, witness-discount savings, and dust/fee warnings.
package policy

// LockTimeKind is the closed classification of a transaction's absolute
// locktime field.
type LockTimeKind string

const (
	LockTimeNone        LockTimeKind = "none"
	LockTimeBlockHeight LockTimeKind = "block_height"
	LockTimeUnixTime    LockTimeKind = "unix_timestamp"
)

// absoluteLockTimeThreshold is Bitcoin's dividing line between
// block-height and unix-timestamp interpretations of nLockTime.
const absoluteLockTimeThreshold = 500_000_000

// ClassifyLockTime determines whether locktime is absent, a block height,
// or a unix timestamp.
func ClassifyLockTime(locktime uint32) LockTimeKind {
	switch {
	case locktime == 0:
		return LockTimeNone
	case locktime < absoluteLockTimeThreshold:
		return LockTimeBlockHeight
	default:
		return LockTimeUnixTime
	}
}

// RelativeTimelockKind is the closed classification of a BIP68 relative
// timelock.
type RelativeTimelockKind string

const (
	RelativeTimelockBlocks RelativeTimelockKind = "blocks"
	RelativeTimelockTime   RelativeTimelockKind = "time"
)

// RelativeTimelock is the decoded BIP68 relative timelock carried by one
// input's nSequence.
type RelativeTimelock struct {
	Enabled bool
	Kind    RelativeTimelockKind
	Value   uint32
}

const (
	sequenceLockTimeDisableFlag = 1 << 31
	sequenceLockTimeTypeFlag    = 1 << 22
	sequenceLockTimeMask        = 0x0000ffff
	sequenceLockTimeGranularity = 512 // seconds per unit when time-based
)

// ParseRelativeTimelock decodes BIP68 from one input's sequence number.
func ParseRelativeTimelock(sequence uint32) RelativeTimelock {
	if sequence&sequenceLockTimeDisableFlag != 0 {
		return RelativeTimelock{}
	}

	if sequence&sequenceLockTimeTypeFlag != 0 {
		return RelativeTimelock{
			Enabled: true,
			Kind:    RelativeTimelockTime,
			Value:   (sequence & sequenceLockTimeMask) * sequenceLockTimeGranularity,
		}
	}
	return RelativeTimelock{
		Enabled: true,
		Kind:    RelativeTimelockBlocks,
		Value:   sequence & sequenceLockTimeMask,
	}
}

// bip125RBFThreshold is the sequence value below which an input signals
// BIP125 replaceability.
const bip125RBFThreshold = 0xfffffffe

// IsRBFSignaling reports whether any input's sequence number signals
// BIP125 opt-in replace-by-fee.
func IsRBFSignaling(sequences []uint32) bool {
	for _, seq := range sequences {
		if seq < bip125RBFThreshold {
			return true
		}
	}
	return false
}
