package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeesMarshalsNullWhenUnknown(t *testing.T) {
	tx := Transaction{SchemaVersion: SchemaVersion, Fees: Fees{}}
	out, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))

	var fees map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["fees"], &fees))
	require.JSONEq(t, "null", string(fees["absolute_sats"]))
	require.JSONEq(t, "null", string(fees["rate_sat_per_vb"]))
	require.JSONEq(t, "null", string(fees["segwit_savings_pct"]))
}

func TestFeesMarshalsValueWhenKnown(t *testing.T) {
	fee := int64(1500)
	tx := Transaction{Fees: Fees{AbsoluteSats: &fee}}
	out, err := json.Marshal(tx)
	require.NoError(t, err)
	require.Contains(t, string(out), `"absolute_sats":1500`)
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := Transaction{
		SchemaVersion: SchemaVersion,
		OK:            true,
		Txid:          "deadbeef",
		Inputs:        []Input{{PrevTxid: "aa", PrevVout: 0, ClassifiedKind: "p2pkh"}},
		Outputs:       []Output{{Index: 0, ValueSats: 1000, ClassifiedKind: "p2wpkh"}},
		Fees:          Fees{},
		Warnings:      []Warning{{Code: "HIGH_FEE"}},
	}
	out, err := json.Marshal(tx)
	require.NoError(t, err)

	var back Transaction
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, tx.Txid, back.Txid)
	require.Len(t, back.Inputs, 1)
	require.Equal(t, "HIGH_FEE", back.Warnings[0].Code)
}

func TestBlockErrorsOmittedWhenEmpty(t *testing.T) {
	b := Block{SchemaVersion: SchemaVersion, OK: true}
	out, err := json.Marshal(b)
	require.NoError(t, err)
	require.NotContains(t, string(out), `"errors"`)
}
