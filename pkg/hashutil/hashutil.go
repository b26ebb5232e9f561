// Package hashutil collects the hashing primitives used across the
// decoders: double-SHA256 for TXIDs, block hashes and merkle nodes, plain
// SHA256 and RIPEMD160 for hash160 (used by address derivation).
package hashutil

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for Bitcoin hash160
)

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Sha256 computes a single SHA256 digest.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Hash160 computes RIPEMD160(SHA256(data)), Bitcoin's standard
// pubkey/script hash used by P2PKH and P2SH.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// ReverseBytes returns a new slice with b's bytes in reverse order. Used
// for the display convention Bitcoin applies to TXIDs and block hashes,
// which are stored and hashed in one byte order but printed in the other.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}
