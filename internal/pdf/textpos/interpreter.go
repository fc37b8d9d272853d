package textpos

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

const (
	// FallbackHeight is the run height used when the text matrix carries no
	// vertical scale
	FallbackHeight = 12.0

	// fallbackCharWidth is the estimated character width, in ems, for runs
	// whose advance could not be measured
	fallbackCharWidth = 0.5

	// wordGap is the TJ adjustment, in thousandths of an em, at or beyond
	// which a space is inserted into the run text
	wordGap = 200.0

	descent = 0.2
	ascent  = 0.8

	maxStackDepth = 64
)

type operand struct {
	typ  TokenType
	num  float64
	str  []byte
	name string
	arr  []operand
}

type textState struct {
	charSpace float64
	wordSpace float64
	scale     float64
	leading   float64
	rise      float64
	font      *fontDecoder
	fontSize  float64
}

type graphicsState struct {
	ctm  geom.Matrix
	text textState
}

// nativeRun is a run in page user space
type nativeRun struct {
	text string
	rect geom.NativeRect
}

type interpreter struct {
	fonts    map[string]*document.Font
	decoders map[string]*fontDecoder
	fallback *fontDecoder

	gs       graphicsState
	stack    []graphicsState
	tm, tlm  geom.Matrix
	operands []operand
	runs     []nativeRun
}

func newInterpreter(fonts map[string]*document.Font) *interpreter {
	return &interpreter{
		fonts:    fonts,
		decoders: make(map[string]*fontDecoder),
		fallback: newFontDecoder(nil),
		gs: graphicsState{
			ctm:  geom.Identity,
			text: textState{scale: 1},
		},
		tm:  geom.Identity,
		tlm: geom.Identity,
	}
}

// interpret runs the text operators of content and returns the shown runs
func interpret(content []byte, fonts map[string]*document.Font) []nativeRun {
	in := newInterpreter(fonts)
	in.run(NewLexer(content))
	return in.runs
}

func (in *interpreter) run(lx *Lexer) {
	for {
		tok, err := lx.NextToken()
		if err != nil || tok.Type == TokenEOF {
			return
		}

		switch tok.Type {
		case TokenKeyword:
			in.execute(tok.Value)
			in.operands = in.operands[:0]
		case TokenArrayStart:
			in.operands = append(in.operands, operand{typ: TokenArrayStart, arr: readArray(lx, 0)})
		case TokenDictStart:
			skipDict(lx)
			in.operands = append(in.operands, operand{typ: TokenDictStart})
		default:
			if op, ok := toOperand(tok); ok {
				in.operands = append(in.operands, op)
			}
		}
	}
}

func toOperand(tok Token) (operand, bool) {
	switch tok.Type {
	case TokenNumber:
		return operand{typ: TokenNumber, num: ParseNumber(tok.Value)}, true
	case TokenString, TokenHexString:
		return operand{typ: tok.Type, str: []byte(tok.Value)}, true
	case TokenName:
		return operand{typ: TokenName, name: tok.Value}, true
	}
	return operand{}, false
}

func readArray(lx *Lexer, depth int) []operand {
	var items []operand
	for {
		tok, err := lx.NextToken()
		if err != nil {
			return items
		}
		switch tok.Type {
		case TokenEOF, TokenArrayEnd:
			return items
		case TokenArrayStart:
			if depth < maxStackDepth {
				items = append(items, operand{typ: TokenArrayStart, arr: readArray(lx, depth+1)})
			}
		default:
			if op, ok := toOperand(tok); ok {
				items = append(items, op)
			}
		}
	}
}

func skipDict(lx *Lexer) {
	depth := 1
	for depth > 0 {
		tok, err := lx.NextToken()
		if err != nil || tok.Type == TokenEOF {
			return
		}
		switch tok.Type {
		case TokenDictStart:
			depth++
		case TokenDictEnd:
			depth--
		}
	}
}

// nums returns the last n operands when they are all numbers
func (in *interpreter) nums(n int) ([]float64, bool) {
	if len(in.operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, op := range in.operands[len(in.operands)-n:] {
		if op.typ != TokenNumber {
			return nil, false
		}
		out[i] = op.num
	}
	return out, true
}

func (in *interpreter) last() (operand, bool) {
	if len(in.operands) == 0 {
		return operand{}, false
	}
	return in.operands[len(in.operands)-1], true
}

func (in *interpreter) execute(op string) {
	ts := &in.gs.text

	switch op {
	case "q":
		if len(in.stack) < maxStackDepth {
			in.stack = append(in.stack, in.gs)
		}
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := in.nums(6); ok {
			m := geom.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.gs.ctm = m.Multiply(in.gs.ctm)
		}
	case "BT":
		in.tm, in.tlm = geom.Identity, geom.Identity
	case "Tf":
		if len(in.operands) >= 2 {
			nameOp := in.operands[len(in.operands)-2]
			sizeOp := in.operands[len(in.operands)-1]
			if nameOp.typ == TokenName && sizeOp.typ == TokenNumber {
				ts.font = in.decoder(nameOp.name)
				ts.fontSize = sizeOp.num
			}
		}
	case "Tc":
		if v, ok := in.nums(1); ok {
			ts.charSpace = v[0]
		}
	case "Tw":
		if v, ok := in.nums(1); ok {
			ts.wordSpace = v[0]
		}
	case "Tz":
		if v, ok := in.nums(1); ok {
			ts.scale = v[0] / 100
		}
	case "TL":
		if v, ok := in.nums(1); ok {
			ts.leading = v[0]
		}
	case "Ts":
		if v, ok := in.nums(1); ok {
			ts.rise = v[0]
		}
	case "Td":
		if v, ok := in.nums(2); ok {
			in.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := in.nums(2); ok {
			ts.leading = -v[1]
			in.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := in.nums(6); ok {
			in.tlm = geom.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tm = in.tlm
		}
	case "T*":
		in.moveLine(0, -ts.leading)
	case "Tj":
		if s, ok := in.last(); ok && isString(s) {
			in.show([]operand{s})
		}
	case "'":
		if s, ok := in.last(); ok && isString(s) {
			in.moveLine(0, -ts.leading)
			in.show([]operand{s})
		}
	case "\"":
		if len(in.operands) >= 3 {
			ops := in.operands[len(in.operands)-3:]
			if ops[0].typ == TokenNumber && ops[1].typ == TokenNumber && isString(ops[2]) {
				ts.wordSpace, ts.charSpace = ops[0].num, ops[1].num
				in.moveLine(0, -ts.leading)
				in.show(ops[2:])
			}
		}
	case "TJ":
		if a, ok := in.last(); ok && a.typ == TokenArrayStart {
			in.show(a.arr)
		}
	}
}

func isString(op operand) bool {
	return op.typ == TokenString || op.typ == TokenHexString
}

func (in *interpreter) decoder(name string) *fontDecoder {
	if fd, ok := in.decoders[name]; ok {
		return fd
	}
	f, ok := in.fonts[name]
	if !ok {
		return in.fallback
	}
	fd := newFontDecoder(f)
	in.decoders[name] = fd
	return fd
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = geom.Translate(tx, ty).Multiply(in.tlm)
	in.tm = in.tlm
}

// renderMatrix is the text rendering matrix for the current state
func (in *interpreter) renderMatrix() geom.Matrix {
	ts := in.gs.text
	params := geom.Matrix{ts.fontSize * ts.scale, 0, 0, ts.fontSize, 0, ts.rise}
	return params.Multiply(in.tm).Multiply(in.gs.ctm)
}

// show renders the strings and numeric adjustments of a TJ array (or a
// single Tj string) as one run.
func (in *interpreter) show(elems []operand) {
	ts := in.gs.text
	font := ts.font
	if font == nil {
		font = in.fallback
	}

	start := in.renderMatrix()
	var sb strings.Builder

	for _, e := range elems {
		switch {
		case e.typ == TokenNumber:
			tx := -e.num / 1000 * ts.fontSize * ts.scale
			in.tm = geom.Translate(tx, 0).Multiply(in.tm)
			if e.num <= -wordGap && sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
		case isString(e):
			for _, g := range font.decode(e.str) {
				sb.WriteString(g.text)
				tx := g.width/1000*ts.fontSize + ts.charSpace
				if g.space {
					tx += ts.wordSpace
				}
				in.tm = geom.Translate(tx*ts.scale, 0).Multiply(in.tm)
			}
		}
	}

	in.emit(sb.String(), start, in.renderMatrix())
}

func (in *interpreter) emit(text string, start, end geom.Matrix) {
	if strings.TrimSpace(text) == "" {
		return
	}

	height := math.Abs(start.ScaleY())
	if height == 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		height = FallbackHeight
	}

	x0, y0 := start.Apply(0, 0)
	x1, y1 := end.Apply(0, 0)
	width := math.Hypot(x1-x0, y1-y0)
	if width == 0 || math.IsNaN(width) {
		width = float64(utf8.RuneCountInString(text)) * fallbackCharWidth * height
	}

	left := x0
	if x1 < x0 {
		left = x1
	}

	in.runs = append(in.runs, nativeRun{
		text: text,
		rect: geom.NativeRect{
			LLX: left,
			LLY: y0 - descent*height,
			URX: left + width,
			URY: y0 + ascent*height,
		},
	})
}
