package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountRules are evaluated in fixed priority order; the first rule matching
// anywhere in the lowered text wins. Each rule captures the numeric value
// adjacent to its currency marker:
//
//	1. number before rupee word/symbol  ("200 rupees", "200rs", "200 ₹")
//	2. rupee symbol before number       ("₹500")
//	3. number before dollar word/symbol ("20 dollars", "20$")
//	4. dollar symbol before number      ("$20")
var amountRules = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:rupees?|rs\.?|₹)`),
	regexp.MustCompile(`₹\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:dollars?|\$)`),
	regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)`),
}

// bareNumber is the fallback when no currency-tagged rule matched: the first
// decimal number in left-to-right order.
var bareNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractAmount scans free text for a currency-tagged numeric value. Returns
// zero when the text contains no number at all; callers treat zero as
// "extraction failed". Negative numbers and thousands separators are not
// supported.
func ExtractAmount(text string) decimal.Decimal {
	lower := strings.ToLower(text)

	for _, rule := range amountRules {
		if m := rule.FindStringSubmatch(lower); m != nil {
			if d, err := decimal.NewFromString(m[1]); err == nil {
				return d
			}
		}
	}

	if m := bareNumber.FindString(lower); m != "" {
		if d, err := decimal.NewFromString(m); err == nil {
			return d
		}
	}

	return decimal.Zero
}
