// Package txdecoder implements wire-format Bitcoin transaction
// deserialization (legacy and segregated witness), producing an immutable
// Transaction record whose TXID/WTXID are computed from recorded cursor
// offsets into the original buffer rather than by re-serializing.
package txdecoder

import (
	"fmt"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
	"github.com/richochetclementine1315/chain-lens/pkg/bytecursor"
	"github.com/richochetclementine1315/chain-lens/pkg/hashutil"
)

// maxInputsOutputs is the soft DoS bound on CompactSize-decoded input and
// output counts for a single in-memory buffer. Not a consensus rule.
const maxInputsOutputs = 1 << 24

// Input is one transaction input.
type Input struct {
	PrevTxID  [32]byte // wire order (not display-reversed)
	PrevVout  uint32
	ScriptSig []byte
	// Witness is nil for every input of a legacy transaction; it is a
	// (possibly empty) non-nil slice for every input of a segwit
	// transaction.
	Witness  [][]byte
	Sequence uint32
}

// PrevTxIDDisplay returns the input's previous txid in Bitcoin's reversed
// display byte order.
func (in Input) PrevTxIDDisplay() []byte {
	return hashutil.ReverseBytes(in.PrevTxID[:])
}

// IsCoinbase reports whether this input is the null outpoint that marks a
// coinbase transaction's sole input.
func (in Input) IsCoinbase() bool {
	if in.PrevVout != 0xFFFFFFFF {
		return false
	}
	for _, b := range in.PrevTxID {
		if b != 0 {
			return false
		}
	}
	return true
}

// Output is one transaction output.
type Output struct {
	Value        int64
	ScriptPubKey []byte
}

// Sizes bundles the byte/weight metrics derived from a single decode
// pass.
type Sizes struct {
	Total      int
	NonWitness int
	Witness    int
	Weight     int
	Vbytes     int
}

// Transaction is the immutable record produced by Decode.
type Transaction struct {
	Version     int32
	IsSegwit    bool
	Inputs      []Input
	Outputs     []Output
	LockTime    uint32
	TxID        [32]byte
	WTxID       [32]byte // zero value when !IsSegwit
	Sizes       Sizes
	Diagnostics []bitcoinerr.DiagCode
}

// TxIDDisplay returns the TXID in display (reversed) byte order.
func (t *Transaction) TxIDDisplay() []byte {
	return hashutil.ReverseBytes(t.TxID[:])
}

// WTxIDDisplay returns the WTXID in display (reversed) byte order. Only
// meaningful when IsSegwit.
func (t *Transaction) WTxIDDisplay() []byte {
	return hashutil.ReverseBytes(t.WTxID[:])
}

// Decode parses a raw transaction buffer into a Transaction record. The
// TXID preimage (version || inputs..outputs || locktime, witness-stripped)
// is recovered by slicing raw at offsets recorded during this single
// forward pass; Decode never re-serializes to compute it.
func Decode(raw []byte) (*Transaction, error) {
	c := bytecursor.New(raw)

	version, err := c.ReadI32LE()
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	var diags []bitcoinerr.DiagCode
	isSegwit := false

	startInputs := c.Tell()

	marker, errPeek := c.PeekBytes(2)
	if errPeek == nil && marker[0] == 0x00 {
		if marker[1] != 0x01 {
			return nil, bitcoinerr.ErrInvalidMarkerFlag
		}
		if _, err := c.ReadBytes(2); err != nil {
			return nil, fmt.Errorf("marker/flag: %w", err)
		}
		isSegwit = true
		startInputs = c.Tell()
	}

	inputCount, canonical, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("input count: %w", err)
	}
	if !canonical {
		diags = append(diags, bitcoinerr.DiagNonCanonicalSize)
	}
	if inputCount > maxInputsOutputs {
		return nil, fmt.Errorf("input count %d: %w", inputCount, bitcoinerr.ErrExcessiveInputs)
	}

	inputs := make([]Input, inputCount)
	for i := range inputs {
		in, err := decodeInput(c)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = in
	}

	outputCount, canonical, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("output count: %w", err)
	}
	if !canonical {
		diags = append(diags, bitcoinerr.DiagNonCanonicalSize)
	}
	if outputCount > maxInputsOutputs {
		return nil, fmt.Errorf("output count %d: %w", outputCount, bitcoinerr.ErrExcessiveOutputs)
	}

	outputs := make([]Output, outputCount)
	for i := range outputs {
		out, err := decodeOutput(c)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = out
	}

	endOutputs := c.Tell()

	if isSegwit {
		for i := range inputs {
			stack, err := decodeWitnessStack(c)
			if err != nil {
				return nil, fmt.Errorf("witness %d: %w", i, err)
			}
			inputs[i].Witness = stack
		}
	}

	lockTime, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("locktime: %w", err)
	}

	preimage, err := buildNonWitnessPreimage(c, raw, startInputs, endOutputs, lockTime)
	if err != nil {
		return nil, err
	}
	txid := hashutil.DoubleSHA256(preimage)

	tx := &Transaction{
		Version:     version,
		IsSegwit:    isSegwit,
		Inputs:      inputs,
		Outputs:     outputs,
		LockTime:    lockTime,
		TxID:        txid,
		Diagnostics: diags,
	}

	if isSegwit {
		tx.WTxID = hashutil.DoubleSHA256(raw)
	}

	nonWitness := len(preimage)
	total := len(raw)
	witnessBytes := total - nonWitness
	weight := nonWitness*4 + witnessBytes
	tx.Sizes = Sizes{
		Total:      total,
		NonWitness: nonWitness,
		Witness:    witnessBytes,
		Weight:     weight,
		Vbytes:     (weight + 3) / 4,
	}

	return tx, nil
}

// FastTransaction is the minimal record produced by DecodeFast: enough to
// verify a block's merkle root and summarize a transaction without the
// scriptSig/witness detail Decode retains.
type FastTransaction struct {
	TxID      [32]byte
	NumInputs int
	Outputs   []Output
	Sizes     Sizes
	// Coinbase is input 0's scriptSig, populated only when wantCoinbaseScript
	// is set — used by the block decoder's BIP34 height extraction on a
	// block's first transaction.
	Coinbase []byte
}

// DecodeFast parses a raw transaction buffer without materializing
// scriptSig or witness items, for the block decoder's per-block-file-deadline
// fast path: it still slices the non-witness preimage for TXID and reads
// output values/scripts, but advances past input scripts and witness stacks
// without keeping them.
func DecodeFast(raw []byte, wantCoinbaseScript bool) (*FastTransaction, error) {
	c := bytecursor.New(raw)

	if _, err := c.ReadI32LE(); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	isSegwit := false
	startInputs := c.Tell()
	marker, errPeek := c.PeekBytes(2)
	if errPeek == nil && marker[0] == 0x00 {
		if marker[1] != 0x01 {
			return nil, bitcoinerr.ErrInvalidMarkerFlag
		}
		if _, err := c.ReadBytes(2); err != nil {
			return nil, fmt.Errorf("marker/flag: %w", err)
		}
		isSegwit = true
		startInputs = c.Tell()
	}

	inputCount, _, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("input count: %w", err)
	}
	if inputCount > maxInputsOutputs {
		return nil, fmt.Errorf("input count %d: %w", inputCount, bitcoinerr.ErrExcessiveInputs)
	}

	var coinbaseScript []byte
	for i := uint64(0); i < inputCount; i++ {
		if _, err := c.ReadBytes(36); err != nil {
			return nil, fmt.Errorf("input %d outpoint: %w", i, err)
		}
		sigScript, err := c.ReadCompactSizePrefixedBytes()
		if err != nil {
			return nil, fmt.Errorf("input %d script sig: %w", i, err)
		}
		if i == 0 && wantCoinbaseScript {
			coinbaseScript = sigScript
		}
		if _, err := c.ReadBytes(4); err != nil {
			return nil, fmt.Errorf("input %d sequence: %w", i, err)
		}
	}

	outputCount, _, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("output count: %w", err)
	}
	if outputCount > maxInputsOutputs {
		return nil, fmt.Errorf("output count %d: %w", outputCount, bitcoinerr.ErrExcessiveOutputs)
	}
	outputs := make([]Output, outputCount)
	for i := range outputs {
		out, err := decodeOutput(c)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = out
	}

	endOutputs := c.Tell()

	if isSegwit {
		for i := uint64(0); i < inputCount; i++ {
			itemCount, _, err := c.ReadCompactSize()
			if err != nil {
				return nil, fmt.Errorf("witness %d count: %w", i, err)
			}
			for j := uint64(0); j < itemCount; j++ {
				if _, err := c.ReadCompactSizePrefixedBytes(); err != nil {
					return nil, fmt.Errorf("witness %d item %d: %w", i, j, err)
				}
			}
		}
	}

	lockTime, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("locktime: %w", err)
	}

	preimage, err := buildNonWitnessPreimage(c, raw, startInputs, endOutputs, lockTime)
	if err != nil {
		return nil, err
	}
	txid := hashutil.DoubleSHA256(preimage)

	nonWitness := len(preimage)
	total := len(raw)
	witnessBytes := total - nonWitness
	weight := nonWitness*4 + witnessBytes

	return &FastTransaction{
		TxID:      txid,
		NumInputs: int(inputCount),
		Outputs:   outputs,
		Coinbase:  coinbaseScript,
		Sizes: Sizes{
			Total:      total,
			NonWitness: nonWitness,
			Witness:    witnessBytes,
			Weight:     weight,
			Vbytes:     (weight + 3) / 4,
		},
	}, nil
}

// buildNonWitnessPreimage reconstructs version || inputs..outputs ||
// locktime without the segwit marker/flag/witness, by slicing the
// original buffer at the offsets recorded during decode. 4 leading bytes
// are the version field; 4 trailing bytes are the locktime field.
func buildNonWitnessPreimage(c *bytecursor.Cursor, raw []byte, startInputs, endOutputs int, lockTime uint32) ([]byte, error) {
	versionBytes, err := c.Slice(0, 4)
	if err != nil {
		return nil, fmt.Errorf("preimage version slice: %w", err)
	}
	body, err := c.Slice(startInputs, endOutputs)
	if err != nil {
		return nil, fmt.Errorf("preimage body slice: %w", err)
	}
	lockBytes := []byte{
		byte(lockTime),
		byte(lockTime >> 8),
		byte(lockTime >> 16),
		byte(lockTime >> 24),
	}
	out := make([]byte, 0, 4+len(body)+4)
	out = append(out, versionBytes...)
	out = append(out, body...)
	out = append(out, lockBytes...)
	return out, nil
}

func decodeInput(c *bytecursor.Cursor) (Input, error) {
	var in Input
	prevTxID, err := c.ReadBytes(32)
	if err != nil {
		return in, fmt.Errorf("prev txid: %w", err)
	}
	copy(in.PrevTxID[:], prevTxID)

	vout, err := c.ReadU32LE()
	if err != nil {
		return in, fmt.Errorf("prev vout: %w", err)
	}
	in.PrevVout = vout

	sigScript, err := c.ReadCompactSizePrefixedBytes()
	if err != nil {
		return in, fmt.Errorf("script sig: %w", err)
	}
	in.ScriptSig = sigScript

	seq, err := c.ReadU32LE()
	if err != nil {
		return in, fmt.Errorf("sequence: %w", err)
	}
	in.Sequence = seq

	return in, nil
}

func decodeOutput(c *bytecursor.Cursor) (Output, error) {
	var out Output
	value, err := c.ReadI64LE()
	if err != nil {
		return out, fmt.Errorf("value: %w", err)
	}
	out.Value = value

	pkScript, err := c.ReadCompactSizePrefixedBytes()
	if err != nil {
		return out, fmt.Errorf("script pubkey: %w", err)
	}
	out.ScriptPubKey = pkScript
	return out, nil
}

func decodeWitnessStack(c *bytecursor.Cursor) ([][]byte, error) {
	count, _, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("item count: %w", err)
	}
	if count > maxInputsOutputs {
		return nil, fmt.Errorf("witness item count %d: %w", count, bitcoinerr.ErrInvalidWitness)
	}
	stack := make([][]byte, count)
	for i := range stack {
		item, err := c.ReadCompactSizePrefixedBytes()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		stack[i] = item
	}
	return stack, nil
}

// Skip advances c past one transaction without materializing a
// Transaction record, for the block decoder's fast enumeration path. It
// returns the number of bytes consumed.
func Skip(c *bytecursor.Cursor) (int, error) {
	start := c.Tell()
	if _, err := c.ReadI32LE(); err != nil {
		return 0, fmt.Errorf("version: %w", err)
	}

	isSegwit := false
	marker, errPeek := c.PeekBytes(2)
	if errPeek == nil && marker[0] == 0x00 {
		if marker[1] != 0x01 {
			return 0, bitcoinerr.ErrInvalidMarkerFlag
		}
		if _, err := c.ReadBytes(2); err != nil {
			return 0, fmt.Errorf("marker/flag: %w", err)
		}
		isSegwit = true
	}

	inputCount, _, err := c.ReadCompactSize()
	if err != nil {
		return 0, fmt.Errorf("input count: %w", err)
	}
	if inputCount > maxInputsOutputs {
		return 0, fmt.Errorf("input count %d: %w", inputCount, bitcoinerr.ErrExcessiveInputs)
	}
	for i := uint64(0); i < inputCount; i++ {
		if _, err := c.ReadBytes(36); err != nil {
			return 0, fmt.Errorf("input %d outpoint: %w", i, err)
		}
		if _, err := c.ReadCompactSizePrefixedBytes(); err != nil {
			return 0, fmt.Errorf("input %d script sig: %w", i, err)
		}
		if _, err := c.ReadBytes(4); err != nil {
			return 0, fmt.Errorf("input %d sequence: %w", i, err)
		}
	}

	outputCount, _, err := c.ReadCompactSize()
	if err != nil {
		return 0, fmt.Errorf("output count: %w", err)
	}
	if outputCount > maxInputsOutputs {
		return 0, fmt.Errorf("output count %d: %w", outputCount, bitcoinerr.ErrExcessiveOutputs)
	}
	for i := uint64(0); i < outputCount; i++ {
		if _, err := c.ReadBytes(8); err != nil {
			return 0, fmt.Errorf("output %d value: %w", i, err)
		}
		if _, err := c.ReadCompactSizePrefixedBytes(); err != nil {
			return 0, fmt.Errorf("output %d script pubkey: %w", i, err)
		}
	}

	if isSegwit {
		for i := uint64(0); i < inputCount; i++ {
			itemCount, _, err := c.ReadCompactSize()
			if err != nil {
				return 0, fmt.Errorf("witness %d count: %w", i, err)
			}
			for j := uint64(0); j < itemCount; j++ {
				if _, err := c.ReadCompactSizePrefixedBytes(); err != nil {
					return 0, fmt.Errorf("witness %d item %d: %w", i, j, err)
				}
			}
		}
	}

	if _, err := c.ReadBytes(4); err != nil {
		return 0, fmt.Errorf("locktime: %w", err)
	}

	return c.Tell() - start, nil
}
