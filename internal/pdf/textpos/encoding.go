package textpos

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
)

const (
	// fallbackGlyphWidth is used when a font carries no usable width, in
	// thousandths of an em
	fallbackGlyphWidth = 500.0

	defaultCIDWidth = 1000.0
)

// glyph is one decoded character code
type glyph struct {
	text  string
	width float64 // thousandths of text space
	space bool    // single byte code 32, subject to word spacing
}

// fontDecoder turns shown strings into text and advances
type fontDecoder struct {
	font *document.Font
	cmap *CMap
	base *charmap.Charmap
}

func newFontDecoder(f *document.Font) *fontDecoder {
	if f == nil {
		f = &document.Font{}
	}
	fd := &fontDecoder{font: f, base: baseEncoding(f.Encoding)}
	if len(f.ToUnicode) > 0 {
		fd.cmap = ParseCMap(f.ToUnicode)
	}
	return fd
}

func baseEncoding(name string) *charmap.Charmap {
	if name == "MacRomanEncoding" {
		return charmap.Macintosh
	}
	return charmap.Windows1252
}

func (fd *fontDecoder) codes(b []byte) [][]byte {
	if fd.font.TwoByte {
		codes := make([][]byte, 0, len(b)/2+1)
		for i := 0; i < len(b); i += 2 {
			codes = append(codes, b[i:min(i+2, len(b))])
		}
		return codes
	}
	if fd.cmap != nil && fd.font.IsComposite() {
		return fd.cmap.Split(b)
	}
	codes := make([][]byte, len(b))
	for i := range b {
		codes[i] = b[i : i+1]
	}
	return codes
}

func (fd *fontDecoder) decode(b []byte) []glyph {
	codes := fd.codes(b)
	glyphs := make([]glyph, 0, len(codes))
	for _, code := range codes {
		value := codeValue(code)
		glyphs = append(glyphs, glyph{
			text:  fd.text(code, value),
			width: fd.width(value),
			space: len(code) == 1 && value == 32,
		})
	}
	return glyphs
}

func (fd *fontDecoder) text(code []byte, value int) string {
	if fd.cmap != nil {
		if s, ok := fd.cmap.Lookup(code); ok {
			return s
		}
	}

	if fd.font.TwoByte || len(code) > 1 {
		if value >= 0x20 && utf8.ValidRune(rune(value)) {
			return string(rune(value))
		}
		return ""
	}

	if name, ok := fd.font.Differences[value]; ok {
		if r, ok := glyphRune(name); ok {
			return string(r)
		}
	}

	r := fd.base.DecodeByte(code[0])
	if r == utf8.RuneError || (r < 0x20 && r != '\t') {
		return ""
	}
	return string(r)
}

func (fd *fontDecoder) width(code int) float64 {
	f := fd.font
	if f.IsComposite() || f.TwoByte {
		if w, ok := f.CIDWidth(code); ok {
			return w
		}
		if f.DefaultWidth > 0 {
			return f.DefaultWidth
		}
		return defaultCIDWidth
	}

	if len(f.Widths) > 0 {
		if idx := code - f.FirstChar; idx >= 0 && idx < len(f.Widths) {
			return f.Widths[idx]
		}
	}
	if f.MissingWidth > 0 {
		return f.MissingWidth
	}
	return fallbackGlyphWidth
}

// glyphRune resolves a glyph name from an encoding Differences array
func glyphRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}

	if hex, ok := strings.CutPrefix(name, "uni"); ok && len(hex) >= 4 {
		if v, err := strconv.ParseUint(hex[:4], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if hex, ok := strings.CutPrefix(name, "u"); ok && len(hex) >= 4 && len(hex) <= 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(v)) {
			return rune(v), true
		}
	}

	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r, true
	}
	return 0, false
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"quoteright": '’', "quoteleft": '‘', "parenleft": '(',
	"parenright": ')', "asterisk": '*', "plus": '+', "comma": ',',
	"hyphen": '-', "minus": '−', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^',
	"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
	"braceright": '}', "asciitilde": '~', "bullet": '•',
	"endash": '–', "emdash": '—', "ellipsis": '…',
	"quotedblleft": '“', "quotedblright": '”',
	"fi": 'ﬁ', "fl": 'ﬂ', "copyright": '©',
	"registered": '®', "trademark": '™', "degree": '°',
	"Euro": '€', "nbspace": ' ',
}
