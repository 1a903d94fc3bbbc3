package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"number before rupee word", "200 rupees lunch at cafe", "200"},
		{"number before rupee word plural", "spent 40 rupee on tea", "40"},
		{"rs abbreviation", "rs. 350 groceries", "350"},
		{"number before rs", "350rs groceries", "350"},
		{"rupee symbol before number", "₹500 uber to airport", "500"},
		{"number before rupee symbol", "120 ₹ snacks", "120"},
		{"number before dollar word", "15 dollars movie ticket", "15"},
		{"dollar symbol before number", "$9.99 subscription", "9.99"},
		{"number before dollar symbol", "12.50$ sandwich", "12.5"},
		{"decimal fraction", "99.95 rupees protein", "99.95"},
		{"bare number fallback", "rent 12000", "12000"},
		{"first bare number wins", "split 70 into 30 and 40", "70"},
		{"rupee priority over dollar", "200 rupees or $300", "200"},
		{"case insensitive", "200 RUPEES LUNCH", "200"},
		{"no digits", "just chatting", "0"},
		{"empty", "", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			got := ExtractAmount(tt.text)
			if !got.Equal(want) {
				t.Fatalf("ExtractAmount(%q) = %s, want %s", tt.text, got, want)
			}
		})
	}
}

func TestExtractAmountRulePriority(t *testing.T) {
	// The symbol form appears earlier in the text, but the word rule has
	// higher priority and must win.
	got := ExtractAmount("$300 flight plus 200 rupees snacks")
	if !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("priority order violated: got %s, want 200", got)
	}
}
