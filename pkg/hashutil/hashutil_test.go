package hashutil

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoubleSHA256(t *testing.T) {
	data := []byte("chain lens")
	first := sha256.Sum256(data)
	want := sha256.Sum256(first[:])
	require.Equal(t, want, DoubleSHA256(data))
}

func TestHash160Length(t *testing.T) {
	got := Hash160([]byte("chain lens"))
	require.Len(t, got, 20)
}

func TestHash160Deterministic(t *testing.T) {
	data := []byte("chain lens")
	require.Equal(t, Hash160(data), Hash160(data))
	require.NotEqual(t, Hash160(data), Hash160([]byte("other")))
}

func TestReverseBytes(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, ReverseBytes(in))
}

func TestReverseBytesDoesNotMutateInput(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	out := ReverseBytes(in)
	out[0] = 0xff
	require.Equal(t, byte(0x01), in[0])
}
