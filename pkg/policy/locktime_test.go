package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyLockTime(t *testing.T) {
	require.Equal(t, LockTimeNone, ClassifyLockTime(0))
	require.Equal(t, LockTimeBlockHeight, ClassifyLockTime(500_000))
	require.Equal(t, LockTimeUnixTime, ClassifyLockTime(1_700_000_000))
}

func TestParseRelativeTimelockDisabled(t *testing.T) {
	rt := ParseRelativeTimelock(1 << 31)
	require.False(t, rt.Enabled)
}

func TestParseRelativeTimelockFinalSequenceIsDisabled(t *testing.T) {
	rt := ParseRelativeTimelock(0xffffffff)
	require.False(t, rt.Enabled)
}

func TestParseRelativeTimelockBlocks(t *testing.T) {
	rt := ParseRelativeTimelock(144)
	require.True(t, rt.Enabled)
	require.Equal(t, RelativeTimelockBlocks, rt.Kind)
	require.Equal(t, uint32(144), rt.Value)
}

func TestParseRelativeTimelockTime(t *testing.T) {
	sequence := uint32(1<<22) | 10
	rt := ParseRelativeTimelock(sequence)
	require.True(t, rt.Enabled)
	require.Equal(t, RelativeTimelockTime, rt.Kind)
	require.Equal(t, uint32(10*512), rt.Value)
}

func TestIsRBFSignaling(t *testing.T) {
	require.True(t, IsRBFSignaling([]uint32{0xfffffffd, 0xffffffff}))
	require.False(t, IsRBFSignaling([]uint32{0xfffffffe, 0xffffffff}))
}
