package tools

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// dotted capital I lowercases to "i" plus a combining dot with the default
// mapping, which breaks substring matching against plain keywords
var dottedI = strings.NewReplacer("İ", "i")

// Normalize lowercases text for keyword matching
func Normalize(s string) string {
	return strings.ToLower(dottedI.Replace(s))
}

// ContainsAny reports whether text contains any of the keywords
func ContainsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

var printer = message.NewPrinter(language.Turkish)

// FormatPrice renders an amount the way the storefront shows it, e.g. "55.999 TL"
func FormatPrice(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d TL", int64(v))
	}
	return printer.Sprintf("%.2f TL", v)
}

// FormatRating renders a rating with one decimal, e.g. "4,9"
func FormatRating(v float64) string {
	return printer.Sprintf("%.1f", v)
}
