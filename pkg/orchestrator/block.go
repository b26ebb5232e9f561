package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
	"github.com/richochetclementine1315/chain-lens/pkg/blockdecoder"
	"github.com/richochetclementine1315/chain-lens/pkg/hashutil"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
	"github.com/richochetclementine1315/chain-lens/pkg/report"
	"github.com/richochetclementine1315/chain-lens/pkg/script"
	"github.com/richochetclementine1315/chain-lens/pkg/undodecoder"
)

// AnalyzeBlockFile reads a blk*.dat/rev*.dat pair plus their shared XOR
// key, decodes every block the blk file contains, pairs each with its
// CBlockUndo record by matching non-coinbase transaction counts, joins
// recovered prevouts into every non-coinbase input, and returns one
// report per block.
//
// File handles are opened, read in full, and closed before any decoding
// begins: blk*.dat files are bounded (128MiB by Bitcoin Core convention)
// and the decoders need random access to the whole buffer for offset
// slicing, so there is no benefit to streaming.
//
// mode selects blockdecoder.ModeFull (every transaction fully materialized)
// or blockdecoder.ModeFast (scriptSig/witness bytes skipped rather than
// kept); tx_summary fields are identical either way, so callers under a
// per-block-file deadline should pass ModeFast.
func (a *Analyzer) AnalyzeBlockFile(ctx context.Context, blkPath, revPath, xorPath string, mode blockdecoder.Mode) ([]*report.Block, error) {
	xorKey, err := os.ReadFile(xorPath)
	if err != nil {
		return nil, fmt.Errorf("read xor key: %w", err)
	}

	blkRaw, err := os.ReadFile(blkPath)
	if err != nil {
		return nil, fmt.Errorf("read block file: %w", err)
	}
	blkData := xorDecode(blkRaw, xorKey)

	revRaw, err := os.ReadFile(revPath)
	if err != nil {
		return nil, fmt.Errorf("read undo file: %w", err)
	}
	revData := xorDecode(revRaw, xorKey)

	blocks, err := blockdecoder.ParseFile(blkData, mode)
	if err != nil {
		return nil, fmt.Errorf("parse block file: %w", err)
	}

	undos, err := undodecoder.ParseFile(revData)
	if err != nil {
		return nil, fmt.Errorf("parse undo file: %w", err)
	}

	consumedUndos := map[int]bool{}
	reports := make([]*report.Block, 0, len(blocks))
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		rep, err := a.buildBlockReport(blkPath, block, undos, consumedUndos)
		if err != nil {
			a.Logger.Warn("block analysis failed", zap.Int("offset", block.Offset), zap.Error(err))
			return reports, fmt.Errorf("block at offset %d: %w", block.Offset, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// xorDecode applies Bitcoin Core's XOR obfuscation of blk*.dat/rev*.dat
// file contents. An all-zero or empty key is a no-op (unobfuscated
// files, or chains with obfuscation disabled).
func xorDecode(data, key []byte) []byte {
	if len(key) == 0 {
		return data
	}
	allZero := true
	for _, b := range key {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return data
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}

// pairUndo finds the CBlockUndo record whose non-coinbase transaction
// count matches the block's. Bitcoin Core's rev*.dat file numbering
// tracks blk*.dat, but a given rev_N.dat's first record can belong to the
// last block of blk_(N-1).dat, so pairing is positional only within a
// single AnalyzeBlockFile call (one blk/rev pair at a time); ambiguity
// across multiple blocks of identical non-coinbase tx count within the
// same pair is reported via DiagPairingAmbiguous.
func pairUndo(block *blockdecoder.Block, undos []*undodecoder.BlockUndo, consumed map[int]bool) (*undodecoder.BlockUndo, int, []bitcoinerr.DiagCode) {
	wantCount := block.TxCount - 1
	var diags []bitcoinerr.DiagCode

	var match *undodecoder.BlockUndo
	matchIdx := -1
	ambiguous := false
	for i, u := range undos {
		if consumed[i] {
			continue
		}
		if len(u.TxUndos) == wantCount {
			if match == nil {
				match = u
				matchIdx = i
			} else {
				ambiguous = true
			}
		}
	}
	if ambiguous {
		diags = append(diags, bitcoinerr.DiagPairingAmbiguous)
	}
	return match, matchIdx, diags
}

func (a *Analyzer) buildBlockReport(file string, block *blockdecoder.Block, undos []*undodecoder.BlockUndo, consumed map[int]bool) (*report.Block, error) {
	undo, undoIdx, diags := pairUndo(block, undos, consumed)
	if undoIdx >= 0 {
		consumed[undoIdx] = true
	}

	rep := &report.Block{
		SchemaVersion: report.SchemaVersion,
		OK:            true,
		File:          file,
		Offset:        block.Offset,
		Size:          block.Size,
		Header: report.Header{
			Version:       block.Header.Version,
			PrevBlockHash: hex.EncodeToString(block.Header.PrevBlockHashDisplay()),
			MerkleRoot:    hex.EncodeToString(block.Header.MerkleRootDisplay()),
			Timestamp:     block.Header.Timestamp,
			Bits:          fmt.Sprintf("%08x", block.Header.Bits),
			Nonce:         block.Header.Nonce,
			BlockHash:     hex.EncodeToString(block.Header.BlockHashDisplay()),
		},
		TxCount:            block.TxCount,
		MerkleOK:           block.MerkleOK,
		MerkleRootComputed: hex.EncodeToString(hashutil.ReverseBytes(block.MerkleRootComputed[:])),
	}
	if block.CoinbaseHeight > 0 {
		h := block.CoinbaseHeight
		rep.CoinbaseHeight = &h
	}
	for _, d := range diags {
		rep.Errors = append(rep.Errors, report.Diagnostic{Code: string(d)})
	}
	if !block.MerkleOK {
		rep.Errors = append(rep.Errors, report.Diagnostic{Code: "MERKLE_MISMATCH"})
	}

	for i := 0; i < block.TxCount; i++ {
		isCoinbase := i == 0
		numInputs := block.TxNumInputs[i]

		var txUndo *undodecoder.TxUndo
		if undo != nil && !isCoinbase && i-1 < len(undo.TxUndos) {
			txUndo = &undo.TxUndos[i-1]
		}

		var totalIn int64
		knownAll := !isCoinbase
		if !isCoinbase {
			if txUndo == nil || len(txUndo.Prevouts) < numInputs {
				knownAll = false
			} else {
				for _, p := range txUndo.Prevouts[:numInputs] {
					totalIn += p.ValueSats
				}
			}
		}

		var totalOut int64
		kinds := make([]string, 0, len(block.TxOutputs[i]))
		for _, out := range block.TxOutputs[i] {
			totalOut += out.Value
			kinds = append(kinds, string(script.ClassifyOutput(out.ScriptPubKey)))
		}

		var feePtr *int64
		if !isCoinbase {
			fee, _, ok := policy.Fee(totalIn, totalOut, block.TxVbytes[i], knownAll)
			if ok {
				feePtr = &fee
			}
		}

		rep.TxSummary = append(rep.TxSummary, report.TxSummary{
			Index:        i,
			Txid:         hex.EncodeToString(hashutil.ReverseBytes(block.TxIDs[i][:])),
			IsCoinbase:   isCoinbase,
			TotalOutSats: totalOut,
			FeeSats:      feePtr,
			Weight:       block.TxWeights[i],
			Kinds:        kinds,
		})
	}

	return rep, nil
}
