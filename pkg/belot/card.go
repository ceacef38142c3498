package belot

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits returns the four suits in a fixed order.
func Suits() []Suit {
	return []Suit{Spades, Hearts, Diamonds, Clubs}
}

// Rank represents a card rank. Belot plays with the short 32-card deck,
// seven through ace.
type Rank string

const (
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks returns the eight ranks in plain ascending order.
func Ranks() []Rank {
	return []Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
}

// Card point values. Trump cards score on a different scale than plain
// cards: the jack and nine are promoted above the ace.
var (
	plainPoints = map[Rank]int{
		Seven: 0, Eight: 0, Nine: 0, Jack: 2, Queen: 3, King: 4, Ten: 10, Ace: 11,
	}
	trumpPoints = map[Rank]int{
		Seven: 0, Eight: 0, Queen: 3, King: 4, Ten: 10, Ace: 11, Nine: 14, Jack: 20,
	}
)

// Rank orders for winning tricks. Higher is stronger.
var (
	plainOrder = map[Rank]int{
		Seven: 0, Eight: 1, Nine: 2, Jack: 3, Queen: 4, Ten: 6, King: 5, Ace: 7,
	}
	trumpOrder = map[Rank]int{
		Seven: 0, Eight: 1, Queen: 2, King: 3, Ten: 4, Ace: 5, Nine: 6, Jack: 7,
	}
	// Sequence order for ranking declarations against each other:
	// 7<8<9<J<Q<K<10<A. Note the ten sits between king and ace, unlike the
	// natural order. Adjacency within a run uses naturalOrder instead.
	seqOrder = map[Rank]int{
		Seven: 0, Eight: 1, Nine: 2, Jack: 3, Queen: 4, King: 5, Ten: 6, Ace: 7,
	}
	// Natural rank order, 7 through A. Sequences are runs of consecutive
	// ranks in this order (9-10-J is a run, 9-J-Q is not).
	naturalOrder = map[Rank]int{
		Seven: 0, Eight: 1, Nine: 2, Ten: 3, Jack: 4, Queen: 5, King: 6, Ace: 7,
	}
)

// Card represents a playing card
type Card struct {
	suit Suit
	rank Rank
}

// NewCard creates a card with the given suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card{suit: suit, rank: rank}
}

// Suit returns the card's suit.
func (c Card) Suit() Suit { return c.suit }

// Rank returns the card's rank.
func (c Card) Rank() Rank { return c.rank }

// String returns a string representation of the card, e.g. "A♥".
func (c Card) String() string {
	return string(c.rank) + string(c.suit)
}

// Points returns the card's point value given the trump suit of the round.
func (c Card) Points(trump Suit) int {
	if c.suit == trump {
		return trumpPoints[c.rank]
	}
	return plainPoints[c.rank]
}

// Order returns the card's trick-taking rank within its own suit: trump
// order when the card is trump, plain order otherwise. Comparing orders is
// only meaningful between cards of the same suit.
func (c Card) Order(trump Suit) int {
	if c.suit == trump {
		return trumpOrder[c.rank]
	}
	return plainOrder[c.rank]
}

// SequenceIndex returns the card's position in the sequence order used to
// rank declarations.
func (c Card) SequenceIndex() int {
	return seqOrder[c.rank]
}

// RunIndex returns the card's position in the natural rank order used for
// sequence adjacency.
func (c Card) RunIndex() int {
	return naturalOrder[c.rank]
}

// suitCodes maps suits to their single-letter persistence codes.
var suitCodes = map[Suit]byte{Spades: 'S', Hearts: 'H', Diamonds: 'D', Clubs: 'C'}

// Code returns the 2-character persistence form of the card: rank letter
// followed by suit letter, with '0' standing in for the ten ("AH", "0D").
func (c Card) Code() string {
	r := string(c.rank)
	if c.rank == Ten {
		r = "0"
	}
	return r + string(suitCodes[c.suit])
}

// ParseCard parses the 2-character form produced by Code.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code: %q", code)
	}

	var rank Rank
	switch code[0] {
	case '7':
		rank = Seven
	case '8':
		rank = Eight
	case '9':
		rank = Nine
	case '0', 'T':
		rank = Ten
	case 'J':
		rank = Jack
	case 'Q':
		rank = Queen
	case 'K':
		rank = King
	case 'A':
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid card rank: %q", code)
	}

	var suit Suit
	switch code[1] {
	case 'S':
		suit = Spades
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'C':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid card suit: %q", code)
	}

	return Card{suit: suit, rank: rank}, nil
}

// CardJSON represents a card for JSON serialization
type CardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// MarshalJSON implements json.Marshaler interface for Card
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(CardJSON{
		Suit: string(c.suit),
		Rank: string(c.rank),
	})
}

// UnmarshalJSON implements json.Unmarshaler interface for Card
func (c *Card) UnmarshalJSON(data []byte) error {
	var cardJSON CardJSON
	if err := json.Unmarshal(data, &cardJSON); err != nil {
		return err
	}

	switch cardJSON.Suit {
	case "♠", "s", "S", "spades", "Spades":
		c.suit = Spades
	case "♥", "h", "H", "hearts", "Hearts":
		c.suit = Hearts
	case "♦", "d", "D", "diamonds", "Diamonds":
		c.suit = Diamonds
	case "♣", "c", "C", "clubs", "Clubs":
		c.suit = Clubs
	default:
		return fmt.Errorf("invalid suit: %s", cardJSON.Suit)
	}

	switch cardJSON.Rank {
	case "7":
		c.rank = Seven
	case "8":
		c.rank = Eight
	case "9":
		c.rank = Nine
	case "10", "T", "t":
		c.rank = Ten
	case "J", "j":
		c.rank = Jack
	case "Q", "q":
		c.rank = Queen
	case "K", "k":
		c.rank = King
	case "A", "a":
		c.rank = Ace
	default:
		return fmt.Errorf("invalid rank: %s", cardJSON.Rank)
	}

	return nil
}

// containsCard reports whether the slice holds the exact card.
func containsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// removeCard removes the first occurrence of card and reports whether it
// was present.
func removeCard(cards []Card, card Card) ([]Card, bool) {
	for i, c := range cards {
		if c == card {
			return append(cards[:i], cards[i+1:]...), true
		}
	}
	return cards, false
}
