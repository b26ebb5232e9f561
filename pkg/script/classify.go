// Package script classifies scriptPubKey/scriptSig byte templates,
// disassembles scripts into human-readable ASM, and extracts OP_RETURN
// payloads.
package script

import (
	"bytes"
	"encoding/hex"
	"unicode/utf8"
)

// Kind is the closed set of script/output classifications.
type Kind string

const (
	KindP2PK        Kind = "p2pk"
	KindP2PKH       Kind = "p2pkh"
	KindP2SH        Kind = "p2sh"
	KindP2WPKH      Kind = "p2wpkh"
	KindP2WSH       Kind = "p2wsh"
	KindP2TR        Kind = "p2tr"
	KindMultisig    Kind = "multisig"
	KindOpReturn    Kind = "op_return"
	KindUnknown     Kind = "unknown"
	KindP2SHP2WPKH  Kind = "p2sh_p2wpkh"
	KindP2SHP2WSH   Kind = "p2sh_p2wsh"
	KindP2TRKeypath Kind = "p2tr_keypath"
	KindP2TRScript  Kind = "p2tr_scriptpath"
)

// ClassifyOutput determines the canonical template a scriptPubKey
// matches. Templates are tried as literal byte patterns; the first match
// wins and the set is mutually exclusive by construction.
func ClassifyOutput(pk []byte) Kind {
	n := len(pk)

	switch {
	case n == 25 && pk[0] == 0x76 && pk[1] == 0xa9 && pk[2] == 0x14 && pk[23] == 0x88 && pk[24] == 0xac:
		return KindP2PKH

	case n == 23 && pk[0] == 0xa9 && pk[1] == 0x14 && pk[22] == 0x87:
		return KindP2SH

	case n == 22 && pk[0] == 0x00 && pk[1] == 0x14:
		return KindP2WPKH

	case n == 34 && pk[0] == 0x00 && pk[1] == 0x20:
		return KindP2WSH

	case n == 34 && pk[0] == 0x51 && pk[1] == 0x20:
		return KindP2TR

	case n == 35 && pk[0] == 0x21 && pk[34] == 0xac:
		return KindP2PK

	case n == 67 && pk[0] == 0x41 && pk[66] == 0xac:
		return KindP2PK

	case n > 0 && pk[0] == 0x6a:
		return KindOpReturn
	}

	if isMultisig(pk) {
		return KindMultisig
	}

	return KindUnknown
}

// isMultisig matches <OP_m> <N pushes of 33 or 65 bytes> <OP_n>
// OP_CHECKMULTISIG, with 1 <= m <= n <= 16 (the largest count
// representable by OP_1..OP_16) and N == n.
func isMultisig(s []byte) bool {
	if len(s) < 3 {
		return false
	}
	if s[len(s)-1] != 0xae { // OP_CHECKMULTISIG
		return false
	}
	m, ok := smallIntValue(s[0])
	if !ok || m < 1 || m > 16 {
		return false
	}

	i := 1
	var pubkeys int
	for i < len(s)-2 {
		op := s[i]
		if op == 33 || op == 65 {
			if i+1+int(op) > len(s)-2 {
				return false
			}
			pubkeys++
			i += 1 + int(op)
			continue
		}
		break
	}

	if i != len(s)-2 {
		return false
	}
	n, ok := smallIntValue(s[i])
	if !ok || n < m || n > 16 {
		return false
	}
	return pubkeys == n
}

// ClassifyInput determines the input-side script type, which for segwit
// and P2SH-wrapped templates requires knowing the prevout scriptPubKey
// and the witness stack, per spec.
func ClassifyInput(scriptSig []byte, witness [][]byte, prevoutScript []byte) Kind {
	prevoutKind := ClassifyOutput(prevoutScript)
	hasWitness := len(witness) > 0
	sigEmpty := len(scriptSig) == 0

	if prevoutKind == KindP2SH && hasWitness {
		inner := innerRedeemScript(scriptSig)
		switch {
		case len(inner) == 22 && inner[0] == 0x00 && inner[1] == 0x14:
			return KindP2SHP2WPKH
		case len(inner) == 34 && inner[0] == 0x00 && inner[1] == 0x20:
			return KindP2SHP2WSH
		default:
			return KindP2SH
		}
	}

	if prevoutKind == KindP2TR {
		if sigEmpty && len(witness) == 1 {
			return KindP2TRKeypath
		}
		if sigEmpty && len(witness) > 1 {
			last := witness[len(witness)-1]
			if len(last) > 0 && (last[0] == 0xc0 || last[0] == 0xc1) && len(last)%32 == 1 {
				return KindP2TRScript
			}
		}
		return KindUnknown
	}

	switch prevoutKind {
	case KindP2PKH, KindP2SH, KindP2PK, KindP2WPKH, KindP2WSH, KindMultisig:
		return prevoutKind
	}

	return KindUnknown
}

// innerRedeemScript returns the single push payload of a P2SH scriptSig
// (the redeem script), or nil if scriptSig is not shaped as exactly one
// push.
func innerRedeemScript(scriptSig []byte) []byte {
	pushes := ExtractPushes(scriptSig)
	if len(pushes) != 1 || pushes[0].Invalid {
		return nil
	}
	return pushes[0].Data
}

// ParseOpReturn extracts and concatenates every data push following a
// leading OP_RETURN (0x6a), accepting all four push forms. It returns the
// concatenated payload's hex, whether that payload is valid UTF-8, the
// payload bytes themselves, and a best-effort protocol label based on a
// fixed prefix sniff.
func ParseOpReturn(s []byte) (dataHex string, utf8Valid bool, data []byte, protocol string) {
	if len(s) == 0 || s[0] != 0x6a {
		return "", false, nil, "unknown"
	}
	pushes := ExtractPushes(s[1:])
	var all []byte
	for _, p := range pushes {
		if p.Invalid {
			break
		}
		all = append(all, p.Data...)
	}

	switch {
	case len(all) >= 4 && bytes.Equal(all[:4], []byte{0x6f, 0x6d, 0x6e, 0x69}):
		protocol = "omni"
	case len(all) >= 5 && bytes.Equal(all[:5], []byte{0x01, 0x09, 0xf9, 0x11, 0x02}):
		protocol = "opentimestamps"
	default:
		protocol = "unknown"
	}

	return hex.EncodeToString(all), utf8.Valid(all), all, protocol
}
