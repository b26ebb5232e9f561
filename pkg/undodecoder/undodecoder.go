// Package undodecoder parses Bitcoin Core rev*.dat undo files: the
// per-block, per-transaction, per-input Coin records that let a decoder
// recover prevout value and scriptPubKey for every non-coinbase input
// without a full UTXO set.
package undodecoder

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
	"github.com/richochetclementine1315/chain-lens/pkg/bytecursor"
)

// Prevout is one recovered Coin: the value and scriptPubKey of a spent
// output, plus the block height it was created at and whether that
// creating transaction was itself a coinbase.
type Prevout struct {
	Height       uint64
	IsCoinbase   bool
	ValueSats    int64
	ScriptPubKey []byte
}

// TxUndo is the ordered list of recovered prevouts for one non-coinbase
// transaction's inputs.
type TxUndo struct {
	Prevouts []Prevout
}

// BlockUndo is one decoded CBlockUndo record: one TxUndo per non-coinbase
// transaction in the block, in the same order those transactions appear
// in the corresponding blk*.dat block.
type BlockUndo struct {
	Offset  int
	Size    uint32
	TxUndos []TxUndo
}

// ParseFile enumerates every CBlockUndo record in a raw (already
// XOR-decoded) rev*.dat buffer. Each record is framed as magic(4) +
// size(4) + CBlockUndo(size bytes) + sha256d-hash(32); ParseFile does not
// validate the trailing hash, since it has no independent copy of the
// record to check it against.
func ParseFile(data []byte) ([]*BlockUndo, error) {
	var undos []*BlockUndo
	c := bytecursor.New(data)

	for c.Remaining() >= 8 {
		start := c.Tell()

		magic, err := c.ReadBytes(4)
		if err != nil {
			break
		}
		sizeBytes, err := c.ReadBytes(4)
		if err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(sizeBytes)
		_ = magic

		payloadStart := c.Tell()
		txUndoCount, _, err := c.ReadCompactSize()
		if err != nil {
			return undos, fmt.Errorf("undo record at %d: tx undo count: %w", start, err)
		}

		txUndos := make([]TxUndo, txUndoCount)
		for i := uint64(0); i < txUndoCount; i++ {
			tu, err := decodeTxUndo(c)
			if err != nil {
				return undos, fmt.Errorf("undo record at %d: tx %d: %w", start, i, err)
			}
			txUndos[i] = tu
		}

		undos = append(undos, &BlockUndo{
			Offset:  start,
			Size:    size,
			TxUndos: txUndos,
		})

		// Skip to the end of this record (payload + trailing hash) rather
		// than trusting how many bytes decodeTxUndo actually consumed,
		// in case of trailing padding Core may emit.
		if err := c.Seek(payloadStart + int(size) + 32); err != nil {
			break
		}
	}

	if len(undos) == 0 {
		return nil, bitcoinerr.ErrUndoMismatch
	}
	return undos, nil
}

func decodeTxUndo(c *bytecursor.Cursor) (TxUndo, error) {
	inputCount, _, err := c.ReadCompactSize()
	if err != nil {
		return TxUndo{}, fmt.Errorf("input count: %w", err)
	}
	prevouts := make([]Prevout, inputCount)
	for i := uint64(0); i < inputCount; i++ {
		p, err := decodeCoin(c)
		if err != nil {
			return TxUndo{}, fmt.Errorf("coin %d: %w", i, err)
		}
		prevouts[i] = p
	}
	return TxUndo{Prevouts: prevouts}, nil
}

// decodeCoin reads one Bitcoin Core TxInUndoFormatter-encoded Coin:
// nCode (height*2 + coinbase flag), an optional dummy version varint when
// height > 0, the compressed amount, and the compressed script.
func decodeCoin(c *bytecursor.Cursor) (Prevout, error) {
	nCode, err := c.ReadCoreVarInt()
	if err != nil {
		return Prevout{}, fmt.Errorf("nCode: %w", err)
	}
	height := nCode >> 1
	isCoinbase := nCode&1 != 0

	if height > 0 {
		if _, err := c.ReadCoreVarInt(); err != nil {
			return Prevout{}, fmt.Errorf("version dummy: %w", err)
		}
	}

	compressedAmount, err := c.ReadCoreVarInt()
	if err != nil {
		return Prevout{}, fmt.Errorf("amount: %w", err)
	}
	valueSats := bytecursor.DecompressAmount(compressedAmount)

	nSize, err := c.ReadCoreVarInt()
	if err != nil {
		return Prevout{}, fmt.Errorf("nSize: %w", err)
	}

	scriptPubKey, err := decompressScript(c, nSize)
	if err != nil {
		return Prevout{}, fmt.Errorf("script: %w", err)
	}

	return Prevout{
		Height:       height,
		IsCoinbase:   isCoinbase,
		ValueSats:    valueSats,
		ScriptPubKey: scriptPubKey,
	}, nil
}

// decompressScript rebuilds a full scriptPubKey from Bitcoin Core's
// special-script compression scheme (undo.h / compressor.cpp
// CScriptCompression).
func decompressScript(c *bytecursor.Cursor, nSize uint64) ([]byte, error) {
	switch nSize {
	case 0: // P2PKH: 20-byte hash
		hash, err := c.ReadBytes(20)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 25)
		out = append(out, 0x76, 0xa9, 0x14)
		out = append(out, hash...)
		out = append(out, 0x88, 0xac)
		return out, nil

	case 1: // P2SH: 20-byte hash
		hash, err := c.ReadBytes(20)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 23)
		out = append(out, 0xa9, 0x14)
		out = append(out, hash...)
		out = append(out, 0x87)
		return out, nil

	case 2, 3: // compressed P2PK: 0x02/0x03 prefix + 32-byte x-coordinate
		x, err := c.ReadBytes(32)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 35)
		out = append(out, 0x21, byte(nSize))
		out = append(out, x...)
		out = append(out, 0xac)
		return out, nil

	case 4, 5: // uncompressed P2PK, stored as its compressed 33-byte form
		x, err := c.ReadBytes(32)
		if err != nil {
			return nil, err
		}
		compressed := append([]byte{byte(nSize - 2)}, x...)
		pubKey, err := btcec.ParsePubKey(compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bitcoinerr.ErrCurvePointInvalid, err)
		}
		uncompressed := pubKey.SerializeUncompressed()
		out := make([]byte, 0, 67)
		out = append(out, 0x41)
		out = append(out, uncompressed...)
		out = append(out, 0xac)
		return out, nil

	default: // raw script, length = nSize - 6
		if nSize < 6 {
			return nil, fmt.Errorf("nSize %d: %w", nSize, bitcoinerr.ErrInvalidEncoding)
		}
		return c.ReadBytes(int(nSize - 6))
	}
}
