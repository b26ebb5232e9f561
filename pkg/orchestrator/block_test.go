package orchestrator

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/blockdecoder"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
	"github.com/richochetclementine1315/chain-lens/pkg/txdecoder"
	"github.com/richochetclementine1315/chain-lens/pkg/undodecoder"
)

func TestXorDecodeRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	key := []byte{0xaa, 0xbb}
	encoded := xorDecode(data, key)
	decoded := xorDecode(encoded, key)
	require.Equal(t, data, decoded)
}

func TestXorDecodeZeroKeyIsNoOp(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	require.Equal(t, data, xorDecode(data, []byte{0x00, 0x00}))
}

func TestXorDecodeEmptyKeyIsNoOp(t *testing.T) {
	data := []byte{0x01, 0x02}
	require.Equal(t, data, xorDecode(data, nil))
}

func TestPairUndoMatchesByTxCount(t *testing.T) {
	block := &blockdecoder.Block{TxCount: 3}
	undos := []*undodecoder.BlockUndo{
		{TxUndos: make([]undodecoder.TxUndo, 2)},
		{TxUndos: make([]undodecoder.TxUndo, 5)},
	}
	consumed := map[int]bool{}

	match, idx, diags := pairUndo(block, undos, consumed)
	require.NotNil(t, match)
	require.Equal(t, 0, idx)
	require.Empty(t, diags)
}

func TestPairUndoAmbiguousWhenMultipleMatch(t *testing.T) {
	block := &blockdecoder.Block{TxCount: 3}
	undos := []*undodecoder.BlockUndo{
		{TxUndos: make([]undodecoder.TxUndo, 2)},
		{TxUndos: make([]undodecoder.TxUndo, 2)},
	}
	consumed := map[int]bool{}

	_, _, diags := pairUndo(block, undos, consumed)
	require.Len(t, diags, 1)
}

func TestPairUndoSkipsConsumed(t *testing.T) {
	block := &blockdecoder.Block{TxCount: 3}
	undos := []*undodecoder.BlockUndo{
		{TxUndos: make([]undodecoder.TxUndo, 2)},
	}
	consumed := map[int]bool{0: true}

	match, idx, _ := pairUndo(block, undos, consumed)
	require.Nil(t, match)
	require.Equal(t, -1, idx)
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func i64le(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func buildCoinbaseTx(t *testing.T) (raw []byte, tx *txdecoder.Transaction) {
	t.Helper()
	var b []byte
	b = append(b, u32le(1)...)
	b = append(b, 0x01)
	b = append(b, make([]byte, 32)...)
	b = append(b, u32le(0xFFFFFFFF)...)
	scriptSig := []byte{0x03, 0x01, 0x00, 0x00}
	b = append(b, byte(len(scriptSig)))
	b = append(b, scriptSig...)
	b = append(b, u32le(0xFFFFFFFF)...)
	b = append(b, 0x01)
	b = append(b, i64le(5_000_000_000)...)
	b = append(b, 0x00)
	b = append(b, u32le(0)...)

	decoded, err := txdecoder.Decode(b)
	require.NoError(t, err)
	return b, decoded
}

// buildSingleBlockFile assembles a one-block blk*.dat buffer (no XOR
// obfuscation) around one coinbase transaction.
func buildSingleBlockFile(t *testing.T) []byte {
	t.Helper()
	txRaw, tx := buildCoinbaseTx(t)

	var header []byte
	header = append(header, u32le(1)...)
	header = append(header, make([]byte, 32)...)
	header = append(header, tx.TxID[:]...)
	header = append(header, u32le(1_600_000_000)...)
	header = append(header, u32le(0x1d00ffff)...)
	header = append(header, u32le(0)...)

	var payload []byte
	payload = append(payload, header...)
	payload = append(payload, 0x01)
	payload = append(payload, txRaw...)

	var block []byte
	block = append(block, []byte{0xf9, 0xbe, 0xb4, 0xd9}...)
	block = append(block, u32le(uint32(len(payload)))...)
	block = append(block, payload...)
	return block
}

// buildEmptyUndoFile assembles a rev*.dat record for a block with zero
// non-coinbase transactions (one TxUndo count of zero).
func buildEmptyUndoFile(t *testing.T) []byte {
	t.Helper()
	var payload []byte
	payload = append(payload, 0x00) // tx undo count

	var out []byte
	out = append(out, []byte{0xf9, 0xbe, 0xb4, 0xd9}...)
	out = append(out, u32le(uint32(len(payload)))...)
	out = append(out, payload...)
	out = append(out, make([]byte, 32)...)
	return out
}

func TestAnalyzeBlockFileIntegration(t *testing.T) {
	dir := t.TempDir()
	blkPath := filepath.Join(dir, "blk00000.dat")
	revPath := filepath.Join(dir, "rev00000.dat")
	xorPath := filepath.Join(dir, "xor.dat")

	require.NoError(t, os.WriteFile(blkPath, buildSingleBlockFile(t), 0o644))
	require.NoError(t, os.WriteFile(revPath, buildEmptyUndoFile(t), 0o644))
	require.NoError(t, os.WriteFile(xorPath, []byte{0x00}, 0o644))

	a := New(nil, address.Mainnet, policy.DefaultThresholds)
	reports, err := a.AnalyzeBlockFile(context.Background(), blkPath, revPath, xorPath, blockdecoder.ModeFull)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.True(t, reports[0].MerkleOK)
	require.Equal(t, 1, reports[0].TxCount)
	require.Len(t, reports[0].TxSummary, 1)
	require.True(t, reports[0].TxSummary[0].IsCoinbase)
	require.Equal(t, 0, reports[0].TxSummary[0].Index)
	require.NotNil(t, reports[0].CoinbaseHeight)
	require.Equal(t, int64(1), *reports[0].CoinbaseHeight)
}

func TestAnalyzeBlockFileIntegrationFastMode(t *testing.T) {
	dir := t.TempDir()
	blkPath := filepath.Join(dir, "blk00000.dat")
	revPath := filepath.Join(dir, "rev00000.dat")
	xorPath := filepath.Join(dir, "xor.dat")

	require.NoError(t, os.WriteFile(blkPath, buildSingleBlockFile(t), 0o644))
	require.NoError(t, os.WriteFile(revPath, buildEmptyUndoFile(t), 0o644))
	require.NoError(t, os.WriteFile(xorPath, []byte{0x00}, 0o644))

	a := New(nil, address.Mainnet, policy.DefaultThresholds)
	reports, err := a.AnalyzeBlockFile(context.Background(), blkPath, revPath, xorPath, blockdecoder.ModeFast)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.True(t, reports[0].MerkleOK)
	require.NotNil(t, reports[0].CoinbaseHeight)
	require.Equal(t, int64(1), *reports[0].CoinbaseHeight)
}
