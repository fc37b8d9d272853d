package textpos

import (
	xunicode "golang.org/x/text/encoding/unicode"
)

// maxRangeSpan bounds the number of codes a single bfrange may expand to
const maxRangeSpan = 1 << 16

type codeKey struct {
	length int
	code   uint32
}

type codespace struct {
	lo, hi []byte
}

func (c codespace) contains(b []byte) bool {
	if len(b) != len(c.lo) {
		return false
	}
	for i := range b {
		if b[i] < c.lo[i] || b[i] > c.hi[i] {
			return false
		}
	}
	return true
}

// CMap is a parsed ToUnicode CMap
type CMap struct {
	spaces  []codespace
	lengths []int
	mapping map[codeKey]string
}

// ParseCMap parses the codespace ranges and bfchar/bfrange mappings of a
// ToUnicode CMap. Unknown operators are ignored; a CMap without mappings
// yields nil.
func ParseCMap(data []byte) *CMap {
	cm := &CMap{mapping: make(map[codeKey]string)}
	lx := NewLexer(data)

	var operands []Token
	for {
		tok, err := lx.NextToken()
		if err != nil || tok.Type == TokenEOF {
			break
		}
		if tok.Type != TokenKeyword {
			operands = append(operands, tok)
			continue
		}

		switch tok.Value {
		case "begincodespacerange", "beginbfchar", "beginbfrange":
			operands = operands[:0]
		case "endcodespacerange":
			for i := 0; i+1 < len(operands); i += 2 {
				lo, hi := []byte(operands[i].Value), []byte(operands[i+1].Value)
				if len(lo) == 0 || len(lo) != len(hi) {
					continue
				}
				cm.spaces = append(cm.spaces, codespace{lo: lo, hi: hi})
				cm.addLength(len(lo))
			}
			operands = operands[:0]
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				src := []byte(operands[i].Value)
				if len(src) == 0 || len(src) > 4 {
					continue
				}
				cm.mapping[keyOf(src)] = decodeUTF16(operands[i+1].Value)
				cm.addLength(len(src))
			}
			operands = operands[:0]
		case "endbfrange":
			cm.parseRanges(operands)
			operands = operands[:0]
		default:
			operands = operands[:0]
		}
	}

	if len(cm.mapping) == 0 {
		return nil
	}
	return cm
}

// parseRanges handles "<lo> <hi> <dst>" and "<lo> <hi> [<d1> <d2> ...]"
func (cm *CMap) parseRanges(ops []Token) {
	for i := 0; i+2 < len(ops); {
		lo, hi := []byte(ops[i].Value), []byte(ops[i+1].Value)
		if len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
			i += 3
			continue
		}
		loCode, hiCode := keyOf(lo).code, keyOf(hi).code

		if ops[i+2].Type == TokenArrayStart {
			j := i + 3
			code := loCode
			for ; j < len(ops) && ops[j].Type != TokenArrayEnd; j++ {
				if code <= hiCode {
					cm.mapping[codeKey{length: len(lo), code: code}] = decodeUTF16(ops[j].Value)
					code++
				}
			}
			cm.addLength(len(lo))
			i = j + 1
			continue
		}

		dst := []rune(decodeUTF16(ops[i+2].Value))
		if len(dst) > 0 && hiCode >= loCode && hiCode-loCode < maxRangeSpan {
			for off := uint32(0); off <= hiCode-loCode; off++ {
				out := make([]rune, len(dst))
				copy(out, dst)
				out[len(out)-1] += rune(off)
				cm.mapping[codeKey{length: len(lo), code: loCode + off}] = string(out)
			}
			cm.addLength(len(lo))
		}
		i += 3
	}
}

func (cm *CMap) addLength(n int) {
	for _, l := range cm.lengths {
		if l == n {
			return
		}
	}
	// keep ascending
	pos := len(cm.lengths)
	for i, l := range cm.lengths {
		if n < l {
			pos = i
			break
		}
	}
	cm.lengths = append(cm.lengths, 0)
	copy(cm.lengths[pos+1:], cm.lengths[pos:])
	cm.lengths[pos] = n
}

// Split breaks a shown string into character codes
func (cm *CMap) Split(b []byte) [][]byte {
	var codes [][]byte
	for i := 0; i < len(b); {
		n := cm.codeLength(b[i:])
		codes = append(codes, b[i:i+n])
		i += n
	}
	return codes
}

func (cm *CMap) codeLength(b []byte) int {
	for _, n := range cm.lengths {
		if n > len(b) {
			break
		}
		if len(cm.spaces) == 0 {
			if _, ok := cm.mapping[keyOf(b[:n])]; ok {
				return n
			}
			continue
		}
		for _, s := range cm.spaces {
			if s.contains(b[:n]) {
				return n
			}
		}
	}

	if len(cm.lengths) > 0 && cm.lengths[0] <= len(b) {
		return cm.lengths[0]
	}
	return 1
}

// Lookup returns the Unicode text mapped to code
func (cm *CMap) Lookup(code []byte) (string, bool) {
	s, ok := cm.mapping[keyOf(code)]
	return s, ok
}

func keyOf(b []byte) codeKey {
	var code uint32
	for _, c := range b {
		code = code<<8 | uint32(c)
	}
	return codeKey{length: len(b), code: code}
}

func codeValue(b []byte) int {
	return int(keyOf(b).code)
}

var utf16Decoder = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)

func decodeUTF16(s string) string {
	if len(s)%2 == 1 {
		s += "\x00"
	}
	out, err := utf16Decoder.NewDecoder().String(s)
	if err != nil {
		return ""
	}
	return out
}
