package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/script"
)

func hasWarning(ws []Warning, code WarningCode) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestWarningsHighFee(t *testing.T) {
	ws := Warnings(DefaultThresholds, 50_000, true, 2000, false, nil)
	require.True(t, hasWarning(ws, WarnHighFee))
}

func TestWarningsNoHighFeeWhenRateUnknown(t *testing.T) {
	ws := Warnings(DefaultThresholds, 0, false, 0, false, nil)
	require.False(t, hasWarning(ws, WarnHighFee))
}

func TestWarningsDustOutput(t *testing.T) {
	outputs := []OutputForWarnings{{ValueSats: 100, Kind: script.KindP2PKH}}
	ws := Warnings(DefaultThresholds, 1000, true, 1, false, outputs)
	require.True(t, hasWarning(ws, WarnDustOutput))
}

func TestWarningsNoDustForOpReturn(t *testing.T) {
	outputs := []OutputForWarnings{{ValueSats: 0, Kind: script.KindOpReturn}}
	ws := Warnings(DefaultThresholds, 1000, true, 1, false, outputs)
	require.False(t, hasWarning(ws, WarnDustOutput))
}

func TestWarningsUnknownOutputScript(t *testing.T) {
	outputs := []OutputForWarnings{{ValueSats: 10_000, Kind: script.KindUnknown}}
	ws := Warnings(DefaultThresholds, 1000, true, 1, false, outputs)
	require.True(t, hasWarning(ws, WarnUnknownOutputScript))
}

func TestWarningsRBFSignaling(t *testing.T) {
	ws := Warnings(DefaultThresholds, 1000, true, 1, true, nil)
	require.True(t, hasWarning(ws, WarnRBFSignaling))
}

func TestWarningsNoneForCleanTransaction(t *testing.T) {
	outputs := []OutputForWarnings{{ValueSats: 100_000, Kind: script.KindP2WPKH}}
	ws := Warnings(DefaultThresholds, 1000, true, 1, false, outputs)
	require.Empty(t, ws)
}
