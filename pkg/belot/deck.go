package belot

import (
	"fmt"
	"math/rand"
)

// DeckSize is the number of cards in a Belot deck.
const DeckSize = 32

// HandSize is the number of cards dealt to each seat.
const HandSize = 8

// NumSeats is the number of players at a Belot table.
const NumSeats = 4

// Deck represents a 32-card Belot deck.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates an ordered deck with the given random number generator.
// The caller shuffles explicitly; a freshly built deck is deterministic.
func NewDeck(rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: make([]Card, 0, DeckSize),
		rng:   rng,
	}

	for _, suit := range Suits() {
		for _, rank := range Ranks() {
			deck.cards = append(deck.cards, Card{suit: suit, rank: rank})
		}
	}

	return deck
}

// Shuffle randomizes the order of cards in the deck.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card from the deck.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Size returns the number of cards remaining in the deck.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Deal deals the whole deck into four hands of eight using the customary
// 3-2-3 pattern, starting with the seat left of the dealer.
func (d *Deck) Deal(dealer int) ([NumSeats][]Card, error) {
	var hands [NumSeats][]Card
	if len(d.cards) != DeckSize {
		return hands, fmt.Errorf("cannot deal from a deck of %d cards", len(d.cards))
	}

	for i := range hands {
		hands[i] = make([]Card, 0, HandSize)
	}

	for _, batch := range []int{3, 2, 3} {
		for i := 0; i < NumSeats; i++ {
			seat := (dealer + 1 + i) % NumSeats
			for j := 0; j < batch; j++ {
				card, ok := d.Draw()
				if !ok {
					return hands, fmt.Errorf("deck exhausted during deal")
				}
				hands[seat] = append(hands[seat], card)
			}
		}
	}

	return hands, nil
}

// Cards returns the remaining cards in the deck (for persistence).
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// NewDeckFromCards creates a deck from a specific set of cards (for
// restoration and tests).
func NewDeckFromCards(cards []Card, rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: make([]Card, len(cards)),
		rng:   rng,
	}
	copy(deck.cards, cards)
	return deck
}
