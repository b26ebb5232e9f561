package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/blockdecoder"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
)

func TestAnalyzeDirReturnsOneResultPerTriple(t *testing.T) {
	dir := t.TempDir()
	blkPath := filepath.Join(dir, "blk00000.dat")
	revPath := filepath.Join(dir, "rev00000.dat")
	xorPath := filepath.Join(dir, "xor.dat")
	require.NoError(t, os.WriteFile(blkPath, buildSingleBlockFile(t), 0o644))
	require.NoError(t, os.WriteFile(revPath, buildEmptyUndoFile(t), 0o644))
	require.NoError(t, os.WriteFile(xorPath, []byte{0x00}, 0o644))

	triples := []BlockFileTriple{
		{BlkPath: blkPath, RevPath: revPath, XorPath: xorPath},
		{BlkPath: "missing.dat", RevPath: "missing.dat", XorPath: "missing.dat"},
	}

	a := New(nil, address.Mainnet, policy.DefaultThresholds)
	results := a.AnalyzeDir(context.Background(), triples, 2, blockdecoder.ModeFull)

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Reports, 1)
	require.Error(t, results[1].Err)
}

func TestAnalyzeDirCancelledContextFillsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	triples := make([]BlockFileTriple, 5)
	for i := range triples {
		triples[i] = BlockFileTriple{BlkPath: "x", RevPath: "x", XorPath: "x"}
	}

	a := New(nil, address.Mainnet, policy.DefaultThresholds)
	results := a.AnalyzeDir(ctx, triples, 1, blockdecoder.ModeFull)

	require.Len(t, results, 5)
	for _, r := range results {
		require.Error(t, r.Err)
	}
}

func TestAnalyzeDirDefaultsToOneWorker(t *testing.T) {
	a := New(nil, address.Mainnet, policy.DefaultThresholds)
	results := a.AnalyzeDir(context.Background(), nil, 0, blockdecoder.ModeFull)
	require.Empty(t, results)
}
