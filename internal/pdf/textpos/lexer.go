package textpos

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

// TokenType represents the type of a content stream token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenHexString
	TokenName
	TokenKeyword
	TokenArrayStart // [
	TokenArrayEnd   // ]
	TokenDictStart  // <<
	TokenDictEnd    // >>
	TokenDelimiter
)

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenHexString:
		return "HEXSTRING"
	case TokenName:
		return "NAME"
	case TokenKeyword:
		return "KEYWORD"
	case TokenArrayStart:
		return "ARRAY_START"
	case TokenArrayEnd:
		return "ARRAY_END"
	case TokenDictStart:
		return "DICT_START"
	case TokenDictEnd:
		return "DICT_END"
	case TokenDelimiter:
		return "DELIMITER"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical token of a content stream. For both string types
// Value holds the decoded bytes.
type Token struct {
	Type  TokenType
	Value string
	Pos   int64
}

// Lexer tokenizes page content streams
type Lexer struct {
	reader   *bufio.Reader
	position int64
	current  byte
	hasNext  bool
	err      error
}

// NewLexer creates a lexer over content
func NewLexer(content []byte) *Lexer {
	l := &Lexer{
		reader:   bufio.NewReader(bytes.NewReader(content)),
		position: -1,
		hasNext:  true,
	}
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if !l.hasNext {
		return
	}

	ch, err := l.reader.ReadByte()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		l.hasNext = false
		l.current = 0
		return
	}

	l.current = ch
	l.position++
}

func (l *Lexer) peek() byte {
	if !l.hasNext {
		return 0
	}
	next, err := l.reader.Peek(1)
	if err != nil || len(next) == 0 {
		return 0
	}
	return next[0]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.hasNext {
		switch {
		case isWhitespace(l.current):
			l.advance()
		case l.current == '%':
			for l.hasNext && l.current != '\n' && l.current != '\r' {
				l.advance()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	if l.err != nil {
		return Token{Type: TokenEOF, Pos: l.position}, l.err
	}

	l.skipWhitespaceAndComments()
	if !l.hasNext {
		return Token{Type: TokenEOF, Pos: l.position}, l.err
	}

	start := l.position
	switch l.current {
	case '(':
		return l.readLiteralString(), nil
	case '<':
		if l.peek() == '<' {
			l.advance()
			l.advance()
			return Token{Type: TokenDictStart, Value: "<<", Pos: start}, nil
		}
		return l.readHexString(), nil
	case '>':
		l.advance()
		if l.hasNext && l.current == '>' {
			l.advance()
			return Token{Type: TokenDictEnd, Value: ">>", Pos: start}, nil
		}
		return Token{Type: TokenDelimiter, Value: ">", Pos: start}, nil
	case '[':
		l.advance()
		return Token{Type: TokenArrayStart, Value: "[", Pos: start}, nil
	case ']':
		l.advance()
		return Token{Type: TokenArrayEnd, Value: "]", Pos: start}, nil
	case '/':
		return l.readName(), nil
	}

	if isDigit(l.current) || l.current == '+' || l.current == '-' || l.current == '.' {
		return l.readNumber(), nil
	}

	if !isRegular(l.current) {
		ch := l.current
		l.advance()
		return Token{Type: TokenDelimiter, Value: string(ch), Pos: start}, nil
	}

	tok := l.readKeyword()
	if tok.Value == "ID" {
		l.skipInlineImage()
	}
	return tok, nil
}

func (l *Lexer) readLiteralString() Token {
	start := l.position
	var buf bytes.Buffer

	l.advance() // opening parenthesis
	depth := 1

	for l.hasNext {
		ch := l.current
		switch {
		case ch == '(':
			depth++
			buf.WriteByte(ch)
		case ch == ')':
			depth--
			if depth == 0 {
				l.advance()
				return Token{Type: TokenString, Value: buf.String(), Pos: start}
			}
			buf.WriteByte(ch)
		case ch == '\\':
			l.advance()
			if !l.hasNext {
				break
			}
			l.readEscape(&buf)
		default:
			buf.WriteByte(ch)
		}
		l.advance()
	}

	return Token{Type: TokenString, Value: buf.String(), Pos: start}
}

// readEscape handles the character after a backslash; it leaves the lexer
// on the last character of the escape.
func (l *Lexer) readEscape(buf *bytes.Buffer) {
	switch l.current {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// line continuation
		if l.peek() == '\n' {
			l.advance()
		}
	case '\n':
	default:
		if l.current >= '0' && l.current <= '7' {
			val := int(l.current - '0')
			for i := 0; i < 2; i++ {
				next := l.peek()
				if next < '0' || next > '7' {
					break
				}
				l.advance()
				val = val*8 + int(l.current-'0')
			}
			buf.WriteByte(byte(val))
			return
		}
		buf.WriteByte(l.current)
	}
}

func (l *Lexer) readHexString() Token {
	start := l.position
	var digits []byte

	l.advance() // opening angle bracket
	for l.hasNext && l.current != '>' {
		if isHexDigit(l.current) {
			digits = append(digits, l.current)
		}
		l.advance()
	}
	if l.hasNext {
		l.advance() // closing angle bracket
	}

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	decoded := make([]byte, len(digits)/2)
	for i := range decoded {
		decoded[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
	}
	return Token{Type: TokenHexString, Value: string(decoded), Pos: start}
}

func (l *Lexer) readName() Token {
	start := l.position
	var buf bytes.Buffer

	l.advance() // solidus
	for l.hasNext && isRegular(l.current) {
		if l.current == '#' && isHexDigit(l.peek()) {
			l.advance()
			hi := l.current
			if isHexDigit(l.peek()) {
				l.advance()
				buf.WriteByte(hexValue(hi)<<4 | hexValue(l.current))
			} else {
				buf.WriteByte(hexValue(hi))
			}
			l.advance()
			continue
		}
		buf.WriteByte(l.current)
		l.advance()
	}

	return Token{Type: TokenName, Value: buf.String(), Pos: start}
}

func (l *Lexer) readNumber() Token {
	start := l.position
	var buf bytes.Buffer

	if l.current == '+' || l.current == '-' {
		buf.WriteByte(l.current)
		l.advance()
	}
	for l.hasNext && (isDigit(l.current) || l.current == '.') {
		buf.WriteByte(l.current)
		l.advance()
	}

	return Token{Type: TokenNumber, Value: buf.String(), Pos: start}
}

func (l *Lexer) readKeyword() Token {
	start := l.position
	var buf bytes.Buffer

	for l.hasNext && isRegular(l.current) {
		buf.WriteByte(l.current)
		l.advance()
	}

	return Token{Type: TokenKeyword, Value: buf.String(), Pos: start}
}

// skipInlineImage skips the binary data following an ID operator, up to
// and including the EI operator.
func (l *Lexer) skipInlineImage() {
	// a single whitespace byte separates ID from the data
	if l.hasNext && isWhitespace(l.current) {
		l.advance()
	}

	prevWhite := true
	for l.hasNext {
		if prevWhite && l.current == 'E' && l.peek() == 'I' {
			l.advance()
			l.advance()
			if !l.hasNext || isWhitespace(l.current) || !isRegular(l.current) {
				return
			}
			prevWhite = false
			continue
		}
		prevWhite = isWhitespace(l.current)
		l.advance()
	}
}

// ParseNumber parses a number token, treating malformed numbers as 0
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func isWhitespace(ch byte) bool {
	switch ch {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(ch byte) bool {
	return !isWhitespace(ch) && !isDelimiter(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch byte) byte {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10
	}
	return 0
}
