package bytecursor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressAmountZero(t *testing.T) {
	require.Equal(t, int64(0), DecompressAmount(0))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	amounts := []int64{0, 1, 10, 546, 1_000, 100_000_000, 2_100_000_000_000_000}
	for _, a := range amounts {
		got := DecompressAmount(CompressAmount(a))
		require.Equal(t, a, got, "round trip for %d", a)
	}
}
