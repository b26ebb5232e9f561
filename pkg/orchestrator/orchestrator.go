// Package orchestrator wires the decoder, classifier, and policy
// packages together into the two operations Chain Lens exposes:
// analyzing a single transaction fixture and analyzing a block file
// triple (blk*.dat + rev*.dat + xor.dat). It owns prevout joining, the
// undo/block pairing heuristic, and the logging boundary.
package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
	"github.com/richochetclementine1315/chain-lens/pkg/report"
	"github.com/richochetclementine1315/chain-lens/pkg/script"
	"github.com/richochetclementine1315/chain-lens/pkg/txdecoder"
)

// Analyzer bundles the configuration every analysis call shares: the
// network addresses are derived against, the policy thresholds warnings
// are evaluated with, and the logger decode failures and diagnostics are
// reported through.
type Analyzer struct {
	Logger     *zap.Logger
	Network    address.Network
	Thresholds policy.Thresholds
}

// New constructs an Analyzer with the given logger, falling back to a
// no-op logger if nil, and DefaultThresholds if zero-valued.
func New(logger *zap.Logger, network address.Network, thresholds policy.Thresholds) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholds.HighFeeSatPerVb == 0 {
		thresholds = policy.DefaultThresholds
	}
	return &Analyzer{Logger: logger, Network: network, Thresholds: thresholds}
}

// AnalyzeTransaction decodes a raw transaction and joins it with the
// fixture's supplied prevouts, producing a complete transaction report.
func (a *Analyzer) AnalyzeTransaction(ctx context.Context, fixture Fixture) (*report.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(fixture.RawTx)
	if err != nil {
		return nil, fmt.Errorf("invalid raw_tx hex: %w", err)
	}

	tx, err := txdecoder.Decode(raw)
	if err != nil {
		a.Logger.Warn("transaction decode failed", zap.Error(err))
		return nil, err
	}

	prevoutMap := make(map[string]PrevoutInput, len(fixture.Prevouts))
	for _, p := range fixture.Prevouts {
		key := fmt.Sprintf("%s:%d", p.Txid, p.Vout)
		if _, exists := prevoutMap[key]; exists {
			return nil, fmt.Errorf("duplicate prevout %s", key)
		}
		prevoutMap[key] = p
	}

	out := &report.Transaction{
		SchemaVersion: report.SchemaVersion,
		OK:            true,
		Txid:          hex.EncodeToString(tx.TxIDDisplay()),
		Version:       tx.Version,
		IsSegwit:      tx.IsSegwit,
		Locktime:      tx.LockTime,
		LocktimeKind:  string(policy.ClassifyLockTime(tx.LockTime)),
		Sizes: report.Sizes{
			TotalSize:      tx.Sizes.Total,
			NonWitnessSize: tx.Sizes.NonWitness,
			WitnessSize:    tx.Sizes.Witness,
			Weight:         tx.Sizes.Weight,
			Vbytes:         tx.Sizes.Vbytes,
		},
	}
	if tx.IsSegwit {
		wtxidHex := hex.EncodeToString(tx.WTxIDDisplay())
		out.Wtxid = &wtxidHex
	}

	var sequences []uint32
	var totalInputSats int64
	knownAllPrevouts := true
	var warningOutputs []policy.OutputForWarnings

	for _, in := range tx.Inputs {
		sequences = append(sequences, in.Sequence)

		var prevoutScript []byte
		var prevoutEntry *report.Prevout
		isCoinbase := in.IsCoinbase()

		if !isCoinbase {
			key := fmt.Sprintf("%s:%d", hex.EncodeToString(in.PrevTxIDDisplay()), in.PrevVout)
			if p, ok := prevoutMap[key]; ok {
				prevoutScript, _ = hex.DecodeString(p.ScriptPubkeyHex)
				totalInputSats += p.ValueSats

				prevKind := script.ClassifyOutput(prevoutScript)
				prevAddr, hasAddr := address.FromScript(prevoutScript, a.Network)
				var prevAddrPtr *string
				if hasAddr {
					prevAddrPtr = &prevAddr
				}
				prevoutEntry = &report.Prevout{Value: p.ValueSats, Kind: string(prevKind), Address: prevAddrPtr}
			} else {
				knownAllPrevouts = false
			}
		} else {
			knownAllPrevouts = false
		}

		kind := script.ClassifyInput(in.ScriptSig, in.Witness, prevoutScript)

		witnessHex := make([]string, 0, len(in.Witness))
		for _, item := range in.Witness {
			witnessHex = append(witnessHex, hex.EncodeToString(item))
		}

		rt := policy.ParseRelativeTimelock(in.Sequence)
		var rtPtr *report.RelativeTimelock
		if rt.Enabled {
			rtPtr = &report.RelativeTimelock{Kind: string(rt.Kind), Value: rt.Value}
		}

		out.Inputs = append(out.Inputs, report.Input{
			PrevTxid:         hex.EncodeToString(in.PrevTxIDDisplay()),
			PrevVout:         in.PrevVout,
			Sequence:         in.Sequence,
			ScriptSigHex:     hex.EncodeToString(in.ScriptSig),
			ScriptSigAsm:     script.Disassemble(in.ScriptSig),
			Witness:          witnessHex,
			ClassifiedKind:   string(kind),
			Prevout:          prevoutEntry,
			RelativeTimelock: rtPtr,
			RBFSignals:       in.Sequence < 0xfffffffe,
		})
	}

	var totalOutputSats int64
	for i, o := range tx.Outputs {
		totalOutputSats += o.Value
		kind := script.ClassifyOutput(o.ScriptPubKey)
		addr, hasAddr := address.FromScript(o.ScriptPubKey, a.Network)
		var addrPtr *string
		if hasAddr {
			addrPtr = &addr
		}

		entry := report.Output{
			Index:           i,
			ValueSats:       o.Value,
			ScriptPubkeyHex: hex.EncodeToString(o.ScriptPubKey),
			ScriptPubkeyAsm: script.Disassemble(o.ScriptPubKey),
			ClassifiedKind:  string(kind),
			Address:         addrPtr,
		}

		if kind == script.KindOpReturn {
			dataHex, utf8Valid, data, protocol := script.ParseOpReturn(o.ScriptPubKey)
			op := &report.OpReturn{DataHex: dataHex, Protocol: protocol}
			if utf8Valid {
				s := string(data)
				op.DataUtf8 = &s
			}
			entry.OpReturn = op
		}

		out.Outputs = append(out.Outputs, entry)
		warningOutputs = append(warningOutputs, policy.OutputForWarnings{ValueSats: o.Value, Kind: kind})
	}

	feeSats, feeRate, feeOK := policy.Fee(totalInputSats, totalOutputSats, tx.Sizes.Vbytes, knownAllPrevouts)
	if feeOK {
		out.Fees.AbsoluteSats = &feeSats
		out.Fees.RateSatPerVb = &feeRate
	}
	if tx.IsSegwit {
		savings := policy.ComputeSegwitSavings(tx.Sizes.Total, tx.Sizes.NonWitness, tx.Sizes.Weight)
		pct := savings.SavingsPct
		out.Fees.SegwitSavingsPct = &pct
	}

	rbf := policy.IsRBFSignaling(sequences)
	for _, w := range policy.Warnings(a.Thresholds, feeSats, feeOK, feeRate, rbf, warningOutputs) {
		out.Warnings = append(out.Warnings, report.Warning{Code: string(w.Code), Detail: w.Detail})
	}

	for _, d := range tx.Diagnostics {
		out.Errors = append(out.Errors, report.Diagnostic{Code: string(d)})
	}

	return out, nil
}
