// Package sensitive finds sensitive values in positioned page text.
package sensitive

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PatternKind identifies a detector
type PatternKind string

const (
	CreditCard PatternKind = "creditCard"
	NationalID PatternKind = "nationalId"
	Phone      PatternKind = "phone"
	Email      PatternKind = "email"
	Custom     PatternKind = "custom"
)

// BuiltinKinds are the fixed detectors in priority order. When matches of
// two built-in kinds overlap, the earlier kind wins.
var BuiltinKinds = []PatternKind{CreditCard, NationalID, Phone, Email}

// ParseKind accepts a kind name in any case, with or without separators
// ("credit_card", "CreditCard", "credit-card").
func ParseKind(s string) (PatternKind, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "creditcard", "card", "pan":
		return CreditCard, nil
	case "nationalid", "ssn", "rrn":
		return NationalID, nil
	case "phone", "phonenumber":
		return Phone, nil
	case "email", "emailaddress":
		return Email, nil
	case "custom", "keyword", "keywords":
		return Custom, nil
	}
	return "", fmt.Errorf("unknown pattern kind %q (use creditCard, nationalId, phone, email or custom)", s)
}

// ParseKinds parses a list of kind names, dropping duplicates
func ParseKinds(names []string) ([]PatternKind, error) {
	seen := make(map[PatternKind]bool, len(names))
	kinds := make([]PatternKind, 0, len(names))
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

var (
	// 13-16 digit numbers of the major issuer families: Visa, Mastercard,
	// Amex, Discover, Diners and JCB. Grouped 4-4-4-4 and Amex 4-6-5 forms
	// are accepted as well.
	creditCardPattern = regexp.MustCompile(
		`\b(?:4\d{12}(?:\d{3})?` +
			`|5[1-5]\d{14}` +
			`|3[47]\d{13}` +
			`|6(?:011|5\d{2})\d{12}` +
			`|3(?:0[0-5]|[68]\d)\d{11}` +
			`|(?:2131|1800|35\d{3})\d{11}` +
			`|(?:4\d{3}|5[1-5]\d{2}|6(?:011|5\d{2}))[ -]\d{4}[ -]\d{4}[ -]\d{4}` +
			`|3[47]\d{2}[ -]\d{6}[ -]\d{5})\b`)

	// US SSN, resident registration number (gender/century digit 1-4) and
	// the DD-DDDDDDD tax id form
	nationalIDPattern = regexp.MustCompile(`\b(?:\d{3}-\d{2}-\d{4}|\d{6}-[1-4]\d{6}|\d{2}-\d{7})\b`)

	phonePattern = regexp.MustCompile(
		`\+\d{1,3}[-. ]?\d{1,4}[-. ]\d{3,4}[-. ]\d{4}\b` +
			`|\(\d{2,4}\)[-. ]?\d{3,4}[-. ]\d{4}\b` +
			`|\b\d{2,4}[-. ]\d{3,4}[-. ]\d{4}\b` +
			`|\b01[016789]\d{7,8}\b`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)
)

// keywordPattern builds a case-insensitive literal alternation. Longer
// keywords are tried first so that a keyword is never shadowed by one of
// its prefixes. Returns nil when no keyword is usable.
func keywordPattern(keywords []string) *regexp.Regexp {
	seen := make(map[string]bool, len(keywords))
	var literals []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		literals = append(literals, k)
	}
	if len(literals) == 0 {
		return nil
	}

	sort.SliceStable(literals, func(i, j int) bool {
		return len(literals[i]) > len(literals[j])
	})
	quoted := make([]string, len(literals))
	for i, k := range literals {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}
