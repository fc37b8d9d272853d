package sensitive

import "strings"

// ValidLuhn reports whether the digits of s pass the Luhn checksum.
// Separators are ignored; fewer than 13 or more than 19 digits fail.
func ValidLuhn(s string) bool {
	digits := onlyDigits(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Mask hides all but the outer characters of a value for reports. Card
// numbers keep the first 6 and last 4 digits; other values keep their
// last 4 characters, emails their first character and domain.
func Mask(kind PatternKind, value string) string {
	switch kind {
	case CreditCard:
		digits := onlyDigits(value)
		if len(digits) < 10 {
			return strings.Repeat("*", len(digits))
		}
		return digits[:6] + strings.Repeat("*", len(digits)-10) + digits[len(digits)-4:]
	case Email:
		local, domain, ok := strings.Cut(value, "@")
		if !ok || local == "" {
			return strings.Repeat("*", len(value))
		}
		return local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
	case Custom:
		return value
	}

	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	masked := make([]rune, len(runes))
	for i, r := range runes {
		if i >= len(runes)-4 || r == '-' || r == ' ' || r == '.' {
			masked[i] = r
			continue
		}
		masked[i] = '*'
	}
	return string(masked)
}
