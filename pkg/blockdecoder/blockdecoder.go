// Package blockdecoder parses Bitcoin Core blk*.dat files: magic-anchored
// block framing, 80-byte headers, BIP34 coinbase height, and merkle-root
// recomputation. It enumerates every block present in a file rather than
// stopping at the first, and can run in a fast (summary-only) or full
// (transaction-materializing) mode.
package blockdecoder

import (
	"encoding/binary"
	"fmt"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
	"github.com/richochetclementine1315/chain-lens/pkg/bytecursor"
	"github.com/richochetclementine1315/chain-lens/pkg/hashutil"
	"github.com/richochetclementine1315/chain-lens/pkg/txdecoder"
)

// Mode selects whether ParseFile materializes full Transaction records
// (ModeFull) or only the per-transaction summary fields — txid, outputs,
// input count, weight, vbytes, coinbase scriptSig (ModeFast).
type Mode int

const (
	ModeFast Mode = iota
	ModeFull
)

// blockMagic is the mainnet network-magic prefix that precedes every
// block record in a blk*.dat file.
var blockMagic = [4]byte{0xf9, 0xbe, 0xb4, 0xd9}

// Header is an 80-byte Bitcoin block header.
type Header struct {
	Version       int32
	PrevBlockHash [32]byte // wire order
	MerkleRoot    [32]byte // wire order
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
	BlockHash     [32]byte // wire order, double-SHA256 of the 80 raw bytes
}

// PrevBlockHashDisplay returns the previous block's hash in display
// (reversed) byte order.
func (h Header) PrevBlockHashDisplay() []byte {
	return hashutil.ReverseBytes(h.PrevBlockHash[:])
}

// MerkleRootDisplay returns the header's merkle root in display
// (reversed) byte order.
func (h Header) MerkleRootDisplay() []byte {
	return hashutil.ReverseBytes(h.MerkleRoot[:])
}

// BlockHashDisplay returns the block hash in display (reversed) byte
// order.
func (h Header) BlockHashDisplay() []byte {
	return hashutil.ReverseBytes(h.BlockHash[:])
}

// Block is one decoded blk*.dat record.
type Block struct {
	Offset int    // byte offset of the magic within the (XOR-decoded) file
	Size   uint32 // declared block size, per the 4-byte size field

	Header Header

	TxCount int
	TxIDs   [][32]byte // wire order, always populated (needed for the merkle check)

	// TxOutputs, TxNumInputs, and TxWeights are populated in both modes —
	// ModeFast's DecodeFast produces them at a fraction of ModeFull's cost,
	// since they never require materializing scriptSig or witness data.
	TxOutputs   [][]txdecoder.Output
	TxNumInputs []int
	TxWeights   []int
	TxVbytes    []int

	// Transactions is nil in ModeFast; populated in ModeFull.
	Transactions []*txdecoder.Transaction

	MerkleRootComputed [32]byte
	MerkleOK           bool

	CoinbaseHeight      int64 // 0 if BIP34 height could not be decoded
	CoinbaseScriptHex   string
	CoinbaseOutputTotal int64
}

// ParseFile enumerates every magic-anchored block record in a raw (already
// XOR-decoded) blk*.dat buffer.
func ParseFile(data []byte, mode Mode) ([]*Block, error) {
	var blocks []*Block
	c := bytecursor.New(data)

	for {
		offset, found := findMagic(c)
		if !found {
			break
		}
		if err := c.Seek(offset); err != nil {
			return blocks, err
		}

		block, consumed, err := parseOneBlock(c, mode)
		if err != nil {
			return blocks, fmt.Errorf("block at offset %d: %w", offset, err)
		}
		block.Offset = offset
		blocks = append(blocks, block)

		if err := c.Seek(offset + consumed); err != nil {
			break
		}
	}

	if len(blocks) == 0 {
		return nil, bitcoinerr.ErrNoMagic
	}
	return blocks, nil
}

// findMagic scans forward from the cursor's current position for the next
// occurrence of blockMagic, returning its offset.
func findMagic(c *bytecursor.Cursor) (offset int, found bool) {
	buf := c.Bytes()
	start := c.Tell()
	for i := start; i+4 <= len(buf); i++ {
		if buf[i] == blockMagic[0] && buf[i+1] == blockMagic[1] && buf[i+2] == blockMagic[2] && buf[i+3] == blockMagic[3] {
			return i, true
		}
	}
	return 0, false
}

// parseOneBlock decodes the block record beginning at the cursor's current
// position (which must be positioned exactly at the magic bytes), returning
// the decoded Block and the number of bytes consumed (magic + size field +
// block payload).
func parseOneBlock(c *bytecursor.Cursor, mode Mode) (*Block, int, error) {
	start := c.Tell()

	magic, err := c.ReadBytes(4)
	if err != nil {
		return nil, 0, fmt.Errorf("magic: %w", err)
	}
	if magic[0] != blockMagic[0] || magic[1] != blockMagic[1] || magic[2] != blockMagic[2] || magic[3] != blockMagic[3] {
		return nil, 0, bitcoinerr.ErrNoMagic
	}

	sizeBytes, err := c.ReadBytes(4)
	if err != nil {
		return nil, 0, fmt.Errorf("size: %w", err)
	}
	size := binary.LittleEndian.Uint32(sizeBytes)

	payloadStart := c.Tell()
	header, err := decodeHeader(c)
	if err != nil {
		return nil, 0, fmt.Errorf("header: %w", err)
	}

	txCount, canonical, err := c.ReadCompactSize()
	if err != nil {
		return nil, 0, fmt.Errorf("tx count: %w", err)
	}
	_ = canonical

	block := &Block{
		Size:    size,
		Header:  header,
		TxCount: int(txCount),
	}

	txids := make([][32]byte, txCount)
	outputsPerTx := make([][]txdecoder.Output, txCount)
	numInputsPerTx := make([]int, txCount)
	weights := make([]int, txCount)
	vbytes := make([]int, txCount)
	var transactions []*txdecoder.Transaction
	if mode == ModeFull {
		transactions = make([]*txdecoder.Transaction, txCount)
	}
	var coinbaseScript []byte

	for i := uint64(0); i < txCount; i++ {
		raw, err := peekTransactionBytes(c)
		if err != nil {
			return nil, 0, fmt.Errorf("tx %d: %w", i, err)
		}

		if mode == ModeFull {
			tx, err := txdecoder.Decode(raw)
			if err != nil {
				return nil, 0, fmt.Errorf("tx %d: %w", i, err)
			}
			txids[i] = tx.TxID
			transactions[i] = tx
			outputsPerTx[i] = tx.Outputs
			numInputsPerTx[i] = len(tx.Inputs)
			weights[i] = tx.Sizes.Weight
			vbytes[i] = tx.Sizes.Vbytes
			if i == 0 && len(tx.Inputs) > 0 {
				coinbaseScript = tx.Inputs[0].ScriptSig
			}
			continue
		}

		fast, err := txdecoder.DecodeFast(raw, i == 0)
		if err != nil {
			return nil, 0, fmt.Errorf("tx %d: %w", i, err)
		}
		txids[i] = fast.TxID
		outputsPerTx[i] = fast.Outputs
		numInputsPerTx[i] = fast.NumInputs
		weights[i] = fast.Sizes.Weight
		vbytes[i] = fast.Sizes.Vbytes
		if i == 0 {
			coinbaseScript = fast.Coinbase
		}
	}
	block.TxIDs = txids
	block.Transactions = transactions
	block.TxOutputs = outputsPerTx
	block.TxNumInputs = numInputsPerTx
	block.TxWeights = weights
	block.TxVbytes = vbytes

	block.MerkleRootComputed = computeMerkleRoot(txids)
	block.MerkleOK = block.MerkleRootComputed == header.MerkleRoot

	if len(coinbaseScript) > 0 {
		block.CoinbaseHeight = extractBIP34Height(coinbaseScript)
	}
	if len(outputsPerTx) > 0 {
		var total int64
		for _, out := range outputsPerTx[0] {
			total += out.Value
		}
		block.CoinbaseOutputTotal = total
	}

	consumed := (payloadStart - start) + int(size)
	return block, consumed, nil
}

// peekTransactionBytes materializes the raw bytes of the next transaction
// at the cursor without consuming more than that transaction by first
// skipping a read-only copy of the cursor.
func peekTransactionBytes(c *bytecursor.Cursor) ([]byte, error) {
	probe := bytecursor.New(c.Bytes())
	if err := probe.Seek(c.Tell()); err != nil {
		return nil, err
	}
	start := probe.Tell()
	n, err := txdecoder.Skip(probe)
	if err != nil {
		return nil, err
	}
	raw, err := probe.Slice(start, start+n)
	if err != nil {
		return nil, err
	}
	if err := c.Seek(start + n); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeHeader(c *bytecursor.Cursor) (Header, error) {
	var h Header
	headerStart := c.Tell()

	version, err := c.ReadI32LE()
	if err != nil {
		return h, fmt.Errorf("version: %w", err)
	}
	h.Version = version

	prevBlock, err := c.ReadBytes(32)
	if err != nil {
		return h, fmt.Errorf("prev block hash: %w", err)
	}
	copy(h.PrevBlockHash[:], prevBlock)

	merkleRoot, err := c.ReadBytes(32)
	if err != nil {
		return h, fmt.Errorf("merkle root: %w", err)
	}
	copy(h.MerkleRoot[:], merkleRoot)

	timestamp, err := c.ReadU32LE()
	if err != nil {
		return h, fmt.Errorf("timestamp: %w", err)
	}
	h.Timestamp = timestamp

	bits, err := c.ReadU32LE()
	if err != nil {
		return h, fmt.Errorf("bits: %w", err)
	}
	h.Bits = bits

	nonce, err := c.ReadU32LE()
	if err != nil {
		return h, fmt.Errorf("nonce: %w", err)
	}
	h.Nonce = nonce

	headerBytes, err := c.Slice(headerStart, headerStart+80)
	if err != nil {
		return h, fmt.Errorf("header bytes: %w", err)
	}
	h.BlockHash = hashutil.DoubleSHA256(headerBytes)

	return h, nil
}

// computeMerkleRoot recomputes a block's merkle root from its ordered
// transaction ids, duplicating the final node at each level when the
// level's length is odd (Bitcoin Core's historical, not-strictly-Merkle
// behavior, including its CVE-2012-2459 duplicate-subtree quirk).
func computeMerkleRoot(txids [][32]byte) [32]byte {
	if len(txids) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(txids))
	copy(level, txids)

	for len(level) > 1 {
		var next [][32]byte
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			combined := make([]byte, 0, 64)
			combined = append(combined, left[:]...)
			combined = append(combined, right[:]...)
			next = append(next, hashutil.DoubleSHA256(combined))
		}
		level = next
	}
	return level[0]
}

// extractBIP34Height decodes the block height BIP34 requires the coinbase
// scriptSig to push as its first element.
func extractBIP34Height(scriptSig []byte) int64 {
	if len(scriptSig) < 2 {
		return 0
	}
	pushLen := int(scriptSig[0])
	if pushLen < 1 || pushLen > 8 || 1+pushLen > len(scriptSig) {
		return 0
	}
	heightBytes := scriptSig[1 : 1+pushLen]
	var height int64
	for i, b := range heightBytes {
		height |= int64(b) << (8 * i)
	}
	return height
}
