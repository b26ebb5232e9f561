package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFixtureAcceptsFixtureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"raw_tx":"00","network":"testnet"}`), 0o644))

	fixture, err := loadFixture(path)
	require.NoError(t, err)
	require.Equal(t, "00", fixture.RawTx)
	require.Equal(t, "testnet", fixture.Network)
}

func TestLoadFixtureAcceptsBareRawHex(t *testing.T) {
	fixture, err := loadFixture("deadbeef")
	require.NoError(t, err)
	require.Equal(t, "deadbeef", fixture.RawTx)
	require.Empty(t, fixture.Prevouts)
}

func TestLoadFixtureRejectsMissingFileThatIsNotHex(t *testing.T) {
	_, err := loadFixture("not a hex string and not a real path")
	require.Error(t, err)
}
