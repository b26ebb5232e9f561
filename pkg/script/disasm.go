package script

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Push is one decoded push operation: the opcode that introduced it and
// the payload bytes it carried (empty for OP_0).
type Push struct {
	Opcode byte
	Data   []byte
	// Invalid is set when the push's declared length ran past the end of
	// the script; Data holds whatever bytes were actually available.
	Invalid bool
}

// Disassemble converts script bytes into a space-joined sequence of
// human-readable tokens: OP_PUSHBYTES_N <hex> for direct pushes,
// OP_PUSHDATA1/2/4 <hex> for the multi-byte push forms, named mnemonics
// for known opcodes, and OP_UNKNOWN_0xNN for anything else. A push whose
// declared length runs past the end of the script emits its opcode token
// followed by a trailing OP_INVALID.
func Disassemble(s []byte) string {
	if len(s) == 0 {
		return ""
	}
	var parts []string
	i := 0
	for i < len(s) {
		op := s[i]
		i++

		switch {
		case op == 0x00:
			parts = append(parts, "OP_0")

		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			if i+n > len(s) {
				parts = append(parts, fmt.Sprintf("OP_PUSHBYTES_%d", n), "OP_INVALID")
				i = len(s)
				continue
			}
			data := s[i : i+n]
			parts = append(parts, fmt.Sprintf("OP_PUSHBYTES_%d %s", n, hex.EncodeToString(data)))
			i += n

		case op == 0x4c: // OP_PUSHDATA1
			if i >= len(s) {
				parts = append(parts, "OP_PUSHDATA1", "OP_INVALID")
				i = len(s)
				continue
			}
			n := int(s[i])
			i++
			if i+n > len(s) {
				parts = append(parts, fmt.Sprintf("OP_PUSHDATA1 %s", hex.EncodeToString(s[i:])), "OP_INVALID")
				i = len(s)
				continue
			}
			data := s[i : i+n]
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA1 %s", hex.EncodeToString(data)))
			i += n

		case op == 0x4d: // OP_PUSHDATA2
			if i+2 > len(s) {
				parts = append(parts, "OP_PUSHDATA2", "OP_INVALID")
				i = len(s)
				continue
			}
			n := int(binary.LittleEndian.Uint16(s[i : i+2]))
			i += 2
			if i+n > len(s) {
				parts = append(parts, fmt.Sprintf("OP_PUSHDATA2 %s", hex.EncodeToString(s[i:])), "OP_INVALID")
				i = len(s)
				continue
			}
			data := s[i : i+n]
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA2 %s", hex.EncodeToString(data)))
			i += n

		case op == 0x4e: // OP_PUSHDATA4
			if i+4 > len(s) {
				parts = append(parts, "OP_PUSHDATA4", "OP_INVALID")
				i = len(s)
				continue
			}
			n := int(binary.LittleEndian.Uint32(s[i : i+4]))
			i += 4
			if i+n > len(s) {
				parts = append(parts, fmt.Sprintf("OP_PUSHDATA4 %s", hex.EncodeToString(s[i:])), "OP_INVALID")
				i = len(s)
				continue
			}
			data := s[i : i+n]
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA4 %s", hex.EncodeToString(data)))
			i += n

		default:
			parts = append(parts, opcodeToName(op))
		}
	}
	return strings.Join(parts, " ")
}

// ExtractPushes walks script and returns its leading push operations in
// order, stopping at the first non-push opcode. It is used by OP_RETURN
// payload extraction and by the P2SH-wrapped input classifier (to
// inspect a scriptSig's single inner push).
func ExtractPushes(s []byte) []Push {
	var pushes []Push
	i := 0
	for i < len(s) {
		op := s[i]
		i++
		switch {
		case op == 0x00:
			pushes = append(pushes, Push{Opcode: op})
		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			if i+n > len(s) {
				pushes = append(pushes, Push{Opcode: op, Data: s[i:], Invalid: true})
				return pushes
			}
			pushes = append(pushes, Push{Opcode: op, Data: s[i : i+n]})
			i += n
		case op == 0x4c:
			if i >= len(s) {
				return append(pushes, Push{Opcode: op, Invalid: true})
			}
			n := int(s[i])
			i++
			if i+n > len(s) {
				return append(pushes, Push{Opcode: op, Data: s[i:], Invalid: true})
			}
			pushes = append(pushes, Push{Opcode: op, Data: s[i : i+n]})
			i += n
		case op == 0x4d:
			if i+2 > len(s) {
				return append(pushes, Push{Opcode: op, Invalid: true})
			}
			n := int(binary.LittleEndian.Uint16(s[i : i+2]))
			i += 2
			if i+n > len(s) {
				return append(pushes, Push{Opcode: op, Data: s[i:], Invalid: true})
			}
			pushes = append(pushes, Push{Opcode: op, Data: s[i : i+n]})
			i += n
		case op == 0x4e:
			if i+4 > len(s) {
				return append(pushes, Push{Opcode: op, Invalid: true})
			}
			n := int(binary.LittleEndian.Uint32(s[i : i+4]))
			i += 4
			if i+n > len(s) {
				return append(pushes, Push{Opcode: op, Data: s[i:], Invalid: true})
			}
			pushes = append(pushes, Push{Opcode: op, Data: s[i : i+n]})
			i += n
		default:
			// Non-push opcode: stop collecting pushes here. Callers that
			// need to look past it (multisig's trailing OP_n) re-scan
			// with their own loop; ExtractPushes only serves the
			// leading-pushes use cases.
			return pushes
		}
	}
	return pushes
}
