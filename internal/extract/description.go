package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// numberThenCurrency strips spans like "200 rupees", "12.50$", "20 dollars".
	numberThenCurrency = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:rupees?|rs\.?|₹|\$|dollars?)`)
	// currencyThenNumber strips spans like "₹500" and "$ 20".
	currencyThenNumber = regexp.MustCompile(`(?i)[₹$]\s*\d+(?:\.\d+)?`)
	// currencySymbol removes any symbol left over after the spans above.
	currencySymbol = regexp.MustCompile(`[₹$]`)
)

// BuildDescription derives a human-readable label from the original prompt by
// stripping amount/currency spans and tidying whitespace. When fewer than 3
// characters remain, it synthesizes a label from the category name instead:
// "room_expense" becomes "Room Expense expense".
func BuildDescription(text, category string) string {
	clean := numberThenCurrency.ReplaceAllString(text, "")
	clean = currencyThenNumber.ReplaceAllString(clean, "")
	clean = currencySymbol.ReplaceAllString(clean, "")
	clean = strings.Join(strings.Fields(clean), " ")

	if len(clean) < 3 {
		return categoryLabel(category) + " expense"
	}
	return capitalizeFirst(clean)
}

// categoryLabel turns a snake_case category name into title-cased words.
func categoryLabel(category string) string {
	words := strings.Split(category, "_")
	for i, w := range words {
		words[i] = capitalizeFirst(w)
	}
	return strings.Join(words, " ")
}

// capitalizeFirst upper-cases only the first rune, leaving the rest as-is.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
