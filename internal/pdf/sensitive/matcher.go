package sensitive

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/textpos"
)

// Match is a sensitive value found on a page
type Match struct {
	Page   int         `json:"page"` // 0-based
	Text   string      `json:"text"`
	Masked string      `json:"masked"`
	Kind   PatternKind `json:"kind"`
	Box    geom.Box    `json:"box"`
}

// Options selects the detectors of a Matcher
type Options struct {
	Patterns []PatternKind
	Keywords []string

	// RequireLuhn drops card matches that fail the Luhn checksum
	RequireLuhn bool
}

type detector struct {
	kind     PatternKind
	re       *regexp.Regexp
	validate func(string) bool
}

// Matcher runs the enabled detectors over page text
type Matcher struct {
	detectors []detector
}

// NewMatcher builds a matcher. Keywords are matched when Custom is listed in
// Patterns, or when Patterns is empty.
func NewMatcher(opts Options) *Matcher {
	enabled := make(map[PatternKind]bool, len(opts.Patterns))
	for _, k := range opts.Patterns {
		enabled[k] = true
	}

	m := &Matcher{}
	for _, kind := range BuiltinKinds {
		if !enabled[kind] {
			continue
		}
		d := detector{kind: kind}
		switch kind {
		case CreditCard:
			d.re = creditCardPattern
			if opts.RequireLuhn {
				d.validate = ValidLuhn
			}
		case NationalID:
			d.re = nationalIDPattern
		case Phone:
			d.re = phonePattern
		case Email:
			d.re = emailPattern
		}
		m.detectors = append(m.detectors, d)
	}

	if !enabled[Custom] && len(opts.Patterns) > 0 {
		return m
	}
	if re := keywordPattern(opts.Keywords); re != nil {
		m.detectors = append(m.detectors, detector{kind: Custom, re: re})
	}
	return m
}

// Enabled reports whether any detector is active
func (m *Matcher) Enabled() bool {
	return len(m.detectors) > 0
}

// Kinds returns the active detector kinds
func (m *Matcher) Kinds() []PatternKind {
	kinds := make([]PatternKind, len(m.detectors))
	for i, d := range m.detectors {
		kinds[i] = d.kind
	}
	return kinds
}

// FindMatches returns the matches of every page, in page order. Repeated
// hits on the same run and built-in matches overlapping a higher-priority
// kind are dropped, so the result counts distinct regions.
func (m *Matcher) FindMatches(pages []textpos.PageRuns) []Match {
	var matches []Match
	for _, p := range pages {
		matches = append(matches, m.MatchPage(p)...)
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches
}

// FindMatches is a convenience wrapper around NewMatcher(opts).FindMatches
func FindMatches(pages []textpos.PageRuns, opts Options) []Match {
	return NewMatcher(opts).FindMatches(pages)
}

type span struct {
	start, end int
	kind       PatternKind
	priority   int
}

// pageText is the space-joined text of a page's runs with the byte
// offsets of each run inside it
type pageText struct {
	text    string
	runs    []textpos.Run
	offsets [][2]int
}

func joinRuns(runs []textpos.Run) pageText {
	pt := pageText{runs: runs, offsets: make([][2]int, len(runs))}
	var b strings.Builder
	for i, r := range runs {
		if i > 0 {
			b.WriteByte(' ')
		}
		start := b.Len()
		b.WriteString(norm.NFKC.String(r.Text))
		pt.offsets[i] = [2]int{start, b.Len()}
	}
	pt.text = b.String()
	return pt
}

// MatchPage runs every detector over the text of one page
func (m *Matcher) MatchPage(page textpos.PageRuns) []Match {
	if len(m.detectors) == 0 || len(page.Runs) == 0 {
		return nil
	}

	pt := joinRuns(page.Runs)
	var spans []span
	for priority, d := range m.detectors {
		for _, loc := range d.re.FindAllStringIndex(pt.text, -1) {
			start, end := loc[0], loc[1]
			if d.kind != Custom && digitAdjacent(pt.text, start, end) {
				continue
			}
			if d.validate != nil && !d.validate(pt.text[start:end]) {
				continue
			}
			spans = append(spans, span{start: start, end: end, kind: d.kind, priority: priority})
		}
	}

	var matches []Match
	seen := make(map[Match]bool)
	for _, s := range resolveOverlaps(spans) {
		value := pt.text[s.start:s.end]
		box, ok := pt.locate(s.start, s.end, value)
		if !ok {
			continue
		}
		m := Match{
			Page:   page.Page,
			Text:   value,
			Masked: Mask(s.kind, value),
			Kind:   s.kind,
			Box:    box,
		}
		// repeated values inside one run share its box
		if seen[m] {
			continue
		}
		seen[m] = true
		matches = append(matches, m)
	}
	return matches
}

// digitAdjacent reports whether the match continues a longer digit run
func digitAdjacent(text string, start, end int) bool {
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	return (start > 0 && isDigit(text[start-1]) && isDigit(text[start])) ||
		(end < len(text) && isDigit(text[end]) && isDigit(text[end-1]))
}

// resolveOverlaps drops built-in matches overlapping a match of a
// higher priority built-in kind and returns the rest in text order.
// Custom keyword matches are always kept.
func resolveOverlaps(spans []span) []span {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].priority != spans[j].priority {
			return spans[i].priority < spans[j].priority
		}
		return spans[i].start < spans[j].start
	})

	kept := make([]span, 0, len(spans))
	for _, s := range spans {
		if s.kind != Custom && slices.ContainsFunc(kept, func(k span) bool {
			return k.kind != Custom && k.kind != s.kind && k.start < s.end && s.start < k.end
		}) {
			continue
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].start != kept[j].start {
			return kept[i].start < kept[j].start
		}
		return kept[i].priority < kept[j].priority
	})
	return kept
}

// locate returns the union of the boxes of the runs overlapping
// [start, end), widened to the estimated width of value. It fails when no
// run overlaps the range, i.e. the match lies entirely in a joining space.
func (pt pageText) locate(start, end int, value string) (geom.Box, bool) {
	var box geom.Box
	found := false
	var width float64
	var chars int

	for i, off := range pt.offsets {
		if off[0] >= end || off[1] <= start {
			continue
		}
		r := pt.runs[i]
		if !found {
			box = r.Box
			found = true
		} else {
			box = box.Union(r.Box)
		}
		width += r.Box.Width
		chars += utf8.RuneCountInString(pt.text[off[0]:off[1]])
	}
	if !found {
		return geom.Box{}, false
	}

	if chars > 0 {
		estimated := width / float64(chars) * float64(utf8.RuneCountInString(value))
		if box.Width < estimated {
			box.Width = estimated
		}
	}
	return box, true
}
