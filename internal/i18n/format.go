// Package i18n holds the pure formatting helpers shared by every rendered
// surface: digit transliteration between Latin and Devanagari glyphs, and
// currency/percent strings with Nepali-style lakh/crore digit grouping.
package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Lang selects the display language.
type Lang string

const (
	English Lang = "en"
	Nepali  Lang = "ne"
)

// ParseLang maps a stored preference value to a language, defaulting to
// English for anything unrecognized.
func ParseLang(value string) Lang {
	if Lang(value) == Nepali {
		return Nepali
	}
	return English
}

var devanagariDigits = [10]rune{'०', '१', '२', '३', '४', '५', '६', '७', '८', '९'}

// Digits transliterates the Latin digits in s to the language's glyphs.
// English input passes through unchanged.
func Digits(s string, lang Lang) string {
	if lang != Nepali {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(devanagariDigits[r-'0'])
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Currency renders a credit amount with the exchange's currency marker and
// lakh/crore grouping, e.g. "Rs 1,00,000.00" or "रु १,००,०००.००".
func Currency(amount decimal.Decimal, lang Lang) string {
	marker := "Rs"
	if lang == Nepali {
		marker = "रु"
	}
	return marker + " " + Digits(groupedFixed(amount), lang)
}

// Percent renders a percentage with two decimals, e.g. "7.15%".
func Percent(value decimal.Decimal, lang Lang) string {
	return Digits(value.StringFixed(2), lang) + "%"
}

// Number renders a plain amount with grouping but no currency marker.
func Number(amount decimal.Decimal, lang Lang) string {
	return Digits(groupedFixed(amount), lang)
}

// groupedFixed formats the amount with two decimals and south-Asian digit
// grouping: the last three integer digits form one group, the rest pair up
// (12345678.9 -> 1,23,45,678.90).
func groupedFixed(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var groups []string
	if len(intPart) > 3 {
		groups = append(groups, intPart[len(intPart)-3:])
		rest := intPart[:len(intPart)-3]
		for len(rest) > 2 {
			groups = append(groups, rest[len(rest)-2:])
			rest = rest[:len(rest)-2]
		}
		if rest != "" {
			groups = append(groups, rest)
		}
		// groups were collected right to left
		for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
			groups[i], groups[j] = groups[j], groups[i]
		}
		intPart = strings.Join(groups, ",")
	}

	out := intPart + "." + fracPart
	if negative {
		out = "-" + out
	}
	return out
}
