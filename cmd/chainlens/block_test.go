package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/report"
)

func TestDiscoverTriplesPairsBlkAndRev(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blk00000.dat"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rev00000.dat"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blk00001.dat"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xor.dat"), []byte{0x01}, 0o644))

	triples, err := discoverTriples(dir)
	require.NoError(t, err)
	require.Len(t, triples, 1, "blk00001.dat has no matching rev file and should be skipped")
	require.Equal(t, filepath.Join(dir, "blk00000.dat"), triples[0].BlkPath)
	require.Equal(t, filepath.Join(dir, "xor.dat"), triples[0].XorPath)
}

func TestDiscoverTriplesNoXorFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blk00000.dat"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rev00000.dat"), nil, 0o644))

	triples, err := discoverTriples(dir)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	require.Empty(t, triples[0].XorPath)
}

func TestExitCodeForBlocksMerkleMismatch(t *testing.T) {
	blocks := []*report.Block{{MerkleOK: true}, {MerkleOK: false}}
	require.Equal(t, exitMerkleMismatch, exitCodeForBlocks(blocks))
}

func TestExitCodeForBlocksAllOK(t *testing.T) {
	blocks := []*report.Block{{MerkleOK: true}}
	require.Equal(t, exitSuccess, exitCodeForBlocks(blocks))
}
