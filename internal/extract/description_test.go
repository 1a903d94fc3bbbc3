package extract

import (
	"strings"
	"testing"
)

func TestBuildDescription(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     string
	}{
		{"number before currency word", "200 rupees lunch at cafe", "food", "Lunch at cafe"},
		{"symbol before number", "₹500 uber to airport", "travel", "Uber to airport"},
		{"dollar suffix", "coffee 4.50$", "food", "Coffee"},
		{"bare number survives", "rent 12000", "room_expense", "Rent 12000"},
		{"collapses whitespace", "lunch  200 rupees  at cafe", "food", "Lunch at cafe"},
		{"first letter only capitalized", "uber to NEW delhi ₹700", "travel", "Uber to NEW delhi"},
		{"too short falls back", "₹50", "food", "Food expense"},
		{"fallback title-cases snake_case", "₹9000", "room_expense", "Room Expense expense"},
		{"fallback for miscellaneous", "42", "miscellaneous", "Miscellaneous expense"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildDescription(tt.text, tt.category); got != tt.want {
				t.Fatalf("BuildDescription(%q, %q) = %q, want %q", tt.text, tt.category, got, tt.want)
			}
		})
	}
}

func TestBuildDescriptionNeverKeepsCurrencySymbols(t *testing.T) {
	prompts := []string{
		"₹500 uber to airport",
		"$20 pizza with $ tip",
		"movie night 300 rupees ₹",
		"₹ 120 chai $5 cookie",
	}
	for _, p := range prompts {
		got := BuildDescription(p, "miscellaneous")
		if strings.ContainsAny(got, "₹$") {
			t.Fatalf("BuildDescription(%q) = %q still contains a currency symbol", p, got)
		}
	}
}
