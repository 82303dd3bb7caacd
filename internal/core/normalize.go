package core

// normalize.go converts raw spreadsheet cells into feed-ready values.
//
// Every function here is total: malformed input never panics or errors.
// Unparseable numbers fall back to 0 (prices) or report ok=false (units),
// letting callers pass the raw value through unchanged.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

const (
	// FeaturesParam is the tag parameter whose value is a comma-separated list.
	FeaturesParam = "Особливості"

	// PlaceholderToken marks a cell that holds an embedded image formula
	// rather than data. Such tag values are dropped.
	PlaceholderToken = "cellimage"

	localizedTrue  = "Так"
	localizedFalse = "Ні"
)

var (
	truthyTokens = map[string]bool{"true": true, "1": true, "yes": true, "так": true, "да": true}
	falsyTokens  = map[string]bool{"false": true, "0": true, "no": true, "ні": true, "нет": true}

	// leadingNumber matches the numeric prefix a lenient float parse accepts.
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

	// priceJunk matches everything CleanPrice discards.
	priceJunk = regexp.MustCompile(`[^0-9.]`)

	markupEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
)

// IsBooleanLike reports whether v is one of the recognised truth or
// falsehood tokens after trimming and lowercasing.
func IsBooleanLike(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return truthyTokens[s] || falsyTokens[s]
}

// BooleanToLocalized maps a boolean-like value to "Так" or "Ні". Any other
// value is returned unchanged.
func BooleanToLocalized(v string) string {
	if !IsBooleanLike(v) {
		return v
	}
	if truthyTokens[strings.ToLower(strings.TrimSpace(v))] {
		return localizedTrue
	}
	return localizedFalse
}

// parseDecimal parses the leading number of s, accepting a comma as the
// decimal separator.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// FormatNumber renders f with the shortest exact decimal representation.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ConvertLength converts value in unit to centimetres, rounded to 2 decimals.
// ok is false when the value is not numeric or the unit is unknown; callers
// then emit the raw value unchanged.
func ConvertLength(value, unit string) (float64, bool) {
	num, ok := parseDecimal(value)
	if !ok {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "мм", "mm":
		return round2(num / 10), true
	case "см", "cm":
		return round2(num), true
	case "м", "m":
		return round2(num * 100), true
	default:
		return 0, false
	}
}

// ConvertWeight converts value in unit to kilograms, rounded to 2 decimals.
// ok follows the same policy as ConvertLength.
func ConvertWeight(value, unit string) (float64, bool) {
	num, ok := parseDecimal(value)
	if !ok {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "г", "гр", "g":
		return round2(num / 1000), true
	case "кг", "kg":
		return round2(num), true
	default:
		return 0, false
	}
}

// CleanPrice extracts a price from free text such as "1 234,50 ₴".
// Whitespace is removed, the first comma becomes a decimal point and every
// other non-numeric character is dropped. Empty or unparseable input yields 0.
func CleanPrice(value string) float64 {
	s := strings.Join(strings.Fields(value), "")
	if s == "" {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	s = priceJunk.ReplaceAllString(s, "")
	f, ok := parseDecimal(s)
	if !ok {
		return 0
	}
	return f
}

// EscapeMarkup escapes the five XML-reserved characters. The replacement is
// a single pass, so an ampersand is never escaped twice. Characters XML
// cannot carry are dropped first.
func EscapeMarkup(value string) string {
	return markupEscaper.Replace(xmlSafe(value))
}

// xmlSafe drops runes outside the XML 1.0 Char production. Invalid UTF-8
// bytes come out as U+FFFD.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// ProcessTagValue turns one tag cell into zero or more parameter values.
//
// Placeholder cells and blank values yield nothing. Boolean-like values are
// localized. Values of the features parameter are split on commas. Anything
// else is emitted once, with the unit appended when present.
func ProcessTagValue(paramName string, value sheet.Cell, unit string) []string {
	if value.IsEmpty() {
		return nil
	}
	s := value.Trimmed()
	if s == "" || strings.EqualFold(s, PlaceholderToken) {
		return nil
	}
	if IsBooleanLike(s) {
		return []string{BooleanToLocalized(s)}
	}

	if paramName == FeaturesParam {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	return []string{withUnit(s, unit)}
}

// withUnit appends a unit suffix. Numbers written with a decimal comma are
// normalized to a decimal point first.
func withUnit(s, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return s
	}
	return strings.ReplaceAll(s, ",", ".") + " " + unit
}
