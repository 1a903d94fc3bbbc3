package extract

import (
	"testing"

	"fintrack/internal/core"
)

func defaultCatalog() []core.Category {
	return []core.Category{
		{Name: "food", Keywords: []string{"lunch", "dinner", "breakfast", "restaurant", "cafe", "food", "meal"}},
		{Name: "travel", Keywords: []string{"uber", "taxi", "bus", "train", "flight", "petrol", "fuel", "travel"}},
		{Name: "fun", Keywords: []string{"movie", "game", "entertainment", "party", "fun", "leisure"}},
		{Name: "room_expense", Keywords: []string{"rent", "electricity", "water", "gas", "maintenance", "utility"}},
		{Name: "groceries", Keywords: []string{"grocery", "supermarket", "vegetables", "fruits", "shopping"}},
		{Name: "gym", Keywords: []string{"protein", "gym"}},
	}
}

func TestClassify(t *testing.T) {
	cats := defaultCatalog()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"single keyword", "200 rupees lunch at cafe", "food"},
		{"travel keyword", "₹500 uber to airport", "travel"},
		{"rent keyword", "rent 12000", "room_expense"},
		{"gym keyword", "protein powder 2500", "gym"},
		{"case insensitive", "UBER ride home", "travel"},
		{"keyword as substring", "refuelling stop 300", "travel"}, // "fuel" inside "refuelling"
		{"no keyword", "just chatting", core.MiscellaneousCategory},
		{"empty text", "", core.MiscellaneousCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, cats); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyHighestScoreWins(t *testing.T) {
	// Two food keywords against one travel keyword.
	got := Classify("dinner at restaurant after the bus ride", defaultCatalog())
	if got != "food" {
		t.Fatalf("Classify() = %q, want food", got)
	}
}

func TestClassifyTieBreakIsSnapshotOrder(t *testing.T) {
	cats := []core.Category{
		{Name: "second", Keywords: []string{"shared"}},
		{Name: "first", Keywords: []string{"shared"}},
	}
	// Both score 1; the category appearing first in snapshot order wins.
	if got := Classify("a shared keyword", cats); got != "second" {
		t.Fatalf("tie-break violated: got %q, want second", got)
	}
}

func TestClassifyEmptyCatalog(t *testing.T) {
	if got := Classify("200 rupees lunch", nil); got != core.MiscellaneousCategory {
		t.Fatalf("empty catalog: got %q, want %q", got, core.MiscellaneousCategory)
	}
}
