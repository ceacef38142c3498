package belot

import "sort"

// DeclarationType names a declaration category.
type DeclarationType string

const (
	DeclBelot       DeclarationType = "belot"
	DeclFourOfAKind DeclarationType = "four_of_a_kind"
	DeclTierce      DeclarationType = "tierce"
	DeclQuarte      DeclarationType = "quarte"
	DeclQuint       DeclarationType = "quint"
)

// Declaration is a scoring pattern detected in a dealt hand.
type Declaration struct {
	Type   DeclarationType `json:"type"`
	Cards  []Card          `json:"cards"`
	Points int             `json:"points"`
}

// Four-of-a-kind values by rank. Sevens, eights and tens form no
// four-of-a-kind.
var fourOfAKindPoints = map[Rank]int{
	Jack: 200, Nine: 150, Ace: 100, King: 100, Queen: 100,
}

// strength orders declarations for the team comparison: points first, then
// the top card in sequence order so two equal-value sequences still rank.
func (d Declaration) strength() int {
	top := 0
	for _, c := range d.Cards {
		if idx := c.SequenceIndex(); idx > top {
			top = idx
		}
	}
	return d.Points*100 + top
}

// DetectDeclarations finds every declaration in an eight-card hand given
// the chosen trump: belot (K+Q of trump), fours of a kind, and maximal
// same-suit runs of three or more consecutive ranks in the natural order.
// Shorter runs inside a longer run are not reported separately.
func DetectDeclarations(hand []Card, trump Suit) []Declaration {
	var decls []Declaration

	// Belot: king and queen of trump together.
	k := NewCard(trump, King)
	q := NewCard(trump, Queen)
	if containsCard(hand, k) && containsCard(hand, q) {
		decls = append(decls, Declaration{
			Type:   DeclBelot,
			Cards:  []Card{k, q},
			Points: 20,
		})
	}

	// Fours of a kind.
	byRank := make(map[Rank][]Card)
	for _, c := range hand {
		byRank[c.Rank()] = append(byRank[c.Rank()], c)
	}
	for _, rank := range []Rank{Jack, Nine, Ace, King, Queen} {
		if len(byRank[rank]) == NumSeats {
			cards := make([]Card, NumSeats)
			copy(cards, byRank[rank])
			decls = append(decls, Declaration{
				Type:   DeclFourOfAKind,
				Cards:  cards,
				Points: fourOfAKindPoints[rank],
			})
		}
	}

	// Maximal sequences per suit.
	for _, suit := range Suits() {
		suited := cardsOfSuit(hand, suit)
		if len(suited) < 3 {
			continue
		}
		sort.Slice(suited, func(i, j int) bool {
			return suited[i].RunIndex() < suited[j].RunIndex()
		})

		run := []Card{suited[0]}
		flush := func() {
			if len(run) >= 3 {
				decls = append(decls, sequenceDeclaration(run))
			}
		}
		for _, c := range suited[1:] {
			if c.RunIndex() == run[len(run)-1].RunIndex()+1 {
				run = append(run, c)
				continue
			}
			flush()
			run = []Card{c}
		}
		flush()
	}

	return decls
}

func sequenceDeclaration(run []Card) Declaration {
	cards := make([]Card, len(run))
	copy(cards, run)

	switch {
	case len(run) >= 5:
		return Declaration{Type: DeclQuint, Cards: cards, Points: 100}
	case len(run) == 4:
		return Declaration{Type: DeclQuarte, Cards: cards, Points: 50}
	default:
		return Declaration{Type: DeclTierce, Cards: cards, Points: 20}
	}
}

// matchesDetected reports whether the announced declaration exactly matches
// one of the detected ones (same type and same card multiset).
func matchesDetected(announced Declaration, detected []Declaration) bool {
	for _, d := range detected {
		if d.Type != announced.Type || len(d.Cards) != len(announced.Cards) {
			continue
		}
		all := true
		for _, c := range announced.Cards {
			if !containsCard(d.Cards, c) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
