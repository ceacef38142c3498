package belot

import (
	"math/rand"
	"testing"
)

func TestDealDisjointFullCover(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(7)))
	deck.Shuffle()

	hands, err := deck.Deal(0)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}

	seen := make(map[Card]int)
	for seat, hand := range hands {
		if len(hand) != HandSize {
			t.Errorf("seat %d dealt %d cards, want %d", seat, len(hand), HandSize)
		}
		for _, c := range hand {
			seen[c]++
		}
	}
	if len(seen) != DeckSize {
		t.Fatalf("hands cover %d distinct cards, want %d", len(seen), DeckSize)
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("card %s dealt %d times", c, n)
		}
	}
}

func TestDealSeedDeterminism(t *testing.T) {
	const seed = 42

	deal := func() [NumSeats][]Card {
		deck := NewDeck(rand.New(rand.NewSource(seed)))
		deck.Shuffle()
		hands, err := deck.Deal(2)
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		return hands
	}

	first := deal()
	second := deal()
	for seat := range first {
		for i := range first[seat] {
			if first[seat][i] != second[seat][i] {
				t.Fatalf("seat %d card %d differs across runs: %s vs %s",
					seat, i, first[seat][i], second[seat][i])
			}
		}
	}
}

func TestDealStartsLeftOfDealer(t *testing.T) {
	// Without shuffling, dealing is a fixed rotation: the seat left of the
	// dealer receives the top of the deck first.
	deck := NewDeck(nil)
	top := deck.Cards()[0]

	hands, err := deck.Deal(3)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if !containsCard(hands[0], top) {
		t.Errorf("seat left of dealer 3 should hold the deck's top card %s", top)
	}
}

func TestDealRequiresFullDeck(t *testing.T) {
	deck := NewDeck(nil)
	if _, ok := deck.Draw(); !ok {
		t.Fatal("draw from full deck failed")
	}
	if _, err := deck.Deal(0); err == nil {
		t.Error("expected deal to fail on a short deck")
	}
}
