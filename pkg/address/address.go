// Package address derives Bitcoin addresses from scriptPubKey bytes and
// reconstructs scriptPubKey bytes from addresses, covering Base58Check,
// Bech32 (BIP173), and Bech32m (BIP350). The encoding itself is delegated
// to github.com/btcsuite/btcd/btcutil and chaincfg, which already
// implement these algorithms bit-exact to the BIPs; this package is the
// thin bridge between script.Kind and those types.
package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/richochetclementine1315/chain-lens/pkg/script"
)

// Network selects which chaincfg.Params to derive addresses against.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

func (n Network) params() *chaincfg.Params {
	if n == Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// FromScript derives the address encoding a scriptPubKey's destination,
// if the script's classified kind carries one. OP_RETURN, bare
// multisig, and unknown scripts have no address and return ok=false.
func FromScript(scriptPubKey []byte, network Network) (addr string, ok bool) {
	params := network.params()
	kind := script.ClassifyOutput(scriptPubKey)

	var a btcutil.Address
	var err error

	switch kind {
	case script.KindP2PKH:
		if len(scriptPubKey) != 25 {
			return "", false
		}
		a, err = btcutil.NewAddressPubKeyHash(scriptPubKey[3:23], params)

	case script.KindP2SH:
		if len(scriptPubKey) != 23 {
			return "", false
		}
		a, err = btcutil.NewAddressScriptHash(scriptPubKey[2:22], params)

	case script.KindP2WPKH:
		if len(scriptPubKey) != 22 {
			return "", false
		}
		a, err = btcutil.NewAddressWitnessPubKeyHash(scriptPubKey[2:22], params)

	case script.KindP2WSH:
		if len(scriptPubKey) != 34 {
			return "", false
		}
		a, err = btcutil.NewAddressWitnessScriptHash(scriptPubKey[2:34], params)

	case script.KindP2TR:
		if len(scriptPubKey) != 34 {
			return "", false
		}
		a, err = btcutil.NewAddressTaproot(scriptPubKey[2:34], params)

	default:
		return "", false
	}

	if err != nil {
		return "", false
	}
	return a.EncodeAddress(), true
}

// ToScript reconstructs the scriptPubKey bytes an address encodes,
// reversing FromScript. It is used by round-trip tests (spec §8: encoding
// the derived address back to scriptPubKey reproduces the original script
// bytes) and is not on the decode hot path.
func ToScript(addr string, network Network) ([]byte, error) {
	params := network.params()
	a, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if !a.IsForNet(params) {
		return nil, fmt.Errorf("address %s is not valid for network %s", addr, network)
	}

	switch v := a.(type) {
	case *btcutil.AddressPubKeyHash:
		return append([]byte{0x76, 0xa9, 0x14}, append(v.ScriptAddress(), 0x88, 0xac)...), nil
	case *btcutil.AddressScriptHash:
		return append([]byte{0xa9, 0x14}, append(v.ScriptAddress(), 0x87)...), nil
	case *btcutil.AddressWitnessPubKeyHash:
		return append([]byte{0x00, 0x14}, v.ScriptAddress()...), nil
	case *btcutil.AddressWitnessScriptHash:
		return append([]byte{0x00, 0x20}, v.ScriptAddress()...), nil
	case *btcutil.AddressTaproot:
		return append([]byte{0x51, 0x20}, v.ScriptAddress()...), nil
	default:
		return nil, fmt.Errorf("unsupported address type %T", a)
	}
}
