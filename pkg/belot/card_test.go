package belot

import (
	"encoding/json"
	"testing"
)

func TestCardPoints(t *testing.T) {
	trump := Hearts

	tests := []struct {
		card   Card
		points int
	}{
		{NewCard(Hearts, Jack), 20},
		{NewCard(Hearts, Nine), 14},
		{NewCard(Hearts, Ace), 11},
		{NewCard(Hearts, Ten), 10},
		{NewCard(Hearts, King), 4},
		{NewCard(Hearts, Queen), 3},
		{NewCard(Hearts, Eight), 0},
		{NewCard(Hearts, Seven), 0},
		{NewCard(Spades, Ace), 11},
		{NewCard(Spades, Ten), 10},
		{NewCard(Spades, King), 4},
		{NewCard(Spades, Queen), 3},
		{NewCard(Spades, Jack), 2},
		{NewCard(Spades, Nine), 0},
		{NewCard(Spades, Eight), 0},
		{NewCard(Spades, Seven), 0},
	}
	for _, tc := range tests {
		if got := tc.card.Points(trump); got != tc.points {
			t.Errorf("%s with trump %s: got %d points, want %d", tc.card, trump, got, tc.points)
		}
	}
}

// Whatever the trump, the deck carries 152 card points: three plain suits
// at 30 plus the trump suit at 62.
func TestDeckCardPointTotal(t *testing.T) {
	deck := NewDeck(nil)
	for _, trump := range Suits() {
		total := 0
		for _, c := range deck.Cards() {
			total += c.Points(trump)
		}
		if total != TotalCardPoints {
			t.Errorf("trump %s: deck totals %d, want %d", trump, total, TotalCardPoints)
		}
	}
}

func TestCardOrder(t *testing.T) {
	trump := Clubs

	// Trump order: J > 9 > A > 10 > K > Q > 8 > 7.
	trumpRanks := []Rank{Seven, Eight, Queen, King, Ten, Ace, Nine, Jack}
	for i := 1; i < len(trumpRanks); i++ {
		lo := NewCard(trump, trumpRanks[i-1])
		hi := NewCard(trump, trumpRanks[i])
		if lo.Order(trump) >= hi.Order(trump) {
			t.Errorf("trump order: %s should rank below %s", lo, hi)
		}
	}

	// Plain order: A > 10 > K > Q > J > 9 > 8 > 7.
	plainRanks := []Rank{Seven, Eight, Nine, Jack, Queen, King, Ten, Ace}
	for i := 1; i < len(plainRanks); i++ {
		lo := NewCard(Spades, plainRanks[i-1])
		hi := NewCard(Spades, plainRanks[i])
		if lo.Order(trump) >= hi.Order(trump) {
			t.Errorf("plain order: %s should rank below %s", lo, hi)
		}
	}
}

func TestSequenceIndex(t *testing.T) {
	// Declarations are ranked in their own order with the ten between
	// king and ace: 7 < 8 < 9 < J < Q < K < 10 < A.
	order := []Rank{Seven, Eight, Nine, Jack, Queen, King, Ten, Ace}
	for i, rank := range order {
		c := NewCard(Diamonds, rank)
		if c.SequenceIndex() != i {
			t.Errorf("%s: sequence index %d, want %d", c, c.SequenceIndex(), i)
		}
	}
}

func TestRunIndex(t *testing.T) {
	// Run adjacency follows the natural rank order, ten after nine.
	for i, rank := range Ranks() {
		c := NewCard(Diamonds, rank)
		if c.RunIndex() != i {
			t.Errorf("%s: run index %d, want %d", c, c.RunIndex(), i)
		}
	}
}

func TestParseCardRoundTrip(t *testing.T) {
	for _, suit := range Suits() {
		for _, rank := range Ranks() {
			c := NewCard(suit, rank)
			parsed, err := ParseCard(c.Code())
			if err != nil {
				t.Fatalf("ParseCard(%q): %v", c.Code(), err)
			}
			if parsed != c {
				t.Errorf("round trip %s: got %s", c, parsed)
			}
		}
	}

	if _, err := ParseCard("XX"); err == nil {
		t.Error("expected error for invalid card code")
	}
	if _, err := ParseCard(""); err == nil {
		t.Error("expected error for empty card code")
	}
}

func TestCardJSON(t *testing.T) {
	c := NewCard(Hearts, Ten)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Card
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Errorf("JSON round trip: got %s, want %s", back, c)
	}
}
