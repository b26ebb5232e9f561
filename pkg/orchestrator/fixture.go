package orchestrator

// Fixture is the transaction-mode input contract: a raw transaction plus
// the prevouts its non-coinbase inputs spend, since a standalone raw
// transaction carries no information about what it spends.
type Fixture struct {
	Network  string         `json:"network"`
	RawTx    string         `json:"raw_tx"`
	Prevouts []PrevoutInput `json:"prevouts"`
}

// PrevoutInput is one supplied prevout: the value and scriptPubKey of the
// output a specific (txid, vout) identifies.
type PrevoutInput struct {
	Txid            string `json:"txid"`
	Vout            uint32 `json:"vout"`
	ValueSats       int64  `json:"value_sats"`
	ScriptPubkeyHex string `json:"script_pubkey_hex"`
}
