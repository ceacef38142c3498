package belot

// PartnerSeat returns the seat across the table: partners sit at 0↔2 and
// 1↔3.
func PartnerSeat(seat int) int {
	return (seat + 2) % NumSeats
}

// sameTeam reports whether two seats are partners.
func sameTeam(a, b int) bool {
	return a%2 == b%2
}

// ValidMoves returns the cards the seat may legally play into the trick.
//
// Obligations, in order of precedence:
//  1. Leading: any card.
//  2. Holding the led suit: follow it. When the led suit is trump, or when
//     no trump has entered the trick yet, a led-suit card that beats the
//     current highest led-suit card must be played if one is held. When the
//     trick has already been trumped over a plain lead, the player chooses
//     freely between following the led suit and trumping.
//  3. Void in the led suit: if an opponent's trump is winning, overtrump if
//     possible, otherwise play any trump, otherwise anything. If the
//     partner holds the trick, trumped or not, there is no obligation. If
//     an opponent is winning and no trump has been played, a void player
//     holding trumps must trump.
func ValidMoves(hand []Card, trick *Trick, trump Suit, seat int) []Card {
	if len(hand) == 0 {
		return nil
	}

	if trick == nil || trick.Size() == 0 {
		return copyCards(hand)
	}

	led := trick.LedSuit()
	ledCards := cardsOfSuit(hand, led)
	trumps := cardsOfSuit(hand, trump)

	if len(ledCards) > 0 {
		if led == trump {
			// Following trump: must overtrump if able.
			if beating := beatingCards(ledCards, trick); len(beating) > 0 {
				return beating
			}
			return ledCards
		}

		if trick.HasTrump() {
			// A trump already beats every led-suit card; the player may
			// follow or cut, free choice.
			return append(ledCards, trumps...)
		}

		// Plain lead, no trump played: must overtake within the led suit
		// if able.
		if beating := beatingCards(ledCards, trick); len(beating) > 0 {
			return beating
		}
		return ledCards
	}

	// Void in the led suit.
	if trick.HasTrump() {
		winner, _ := trick.WinningPlay()
		if sameTeam(winner.Seat, seat) {
			// Partner holds the trick; no obligation to overtrump them.
			return copyCards(hand)
		}
		if beating := beatingCards(trumps, trick); len(beating) > 0 {
			return beating
		}
		if len(trumps) > 0 {
			return trumps
		}
		return copyCards(hand)
	}

	// No trump in the trick: trumping is mandatory when void, unless the
	// partner's card holds the trick.
	if winner, ok := trick.WinningPlay(); ok && sameTeam(winner.Seat, seat) {
		return copyCards(hand)
	}
	if len(trumps) > 0 {
		return trumps
	}
	return copyCards(hand)
}

// LegalBid reports whether a bid or pass is acceptable: only during the
// bidding phase and only from the designated bidder.
func LegalBid(phase Phase, actor, expected int) bool {
	return phase == PhaseBidding && actor == expected
}

func copyCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

func cardsOfSuit(cards []Card, suit Suit) []Card {
	var out []Card
	for _, c := range cards {
		if c.Suit() == suit {
			out = append(out, c)
		}
	}
	return out
}

func beatingCards(cards []Card, trick *Trick) []Card {
	var out []Card
	for _, c := range cards {
		if trick.Beats(c) {
			out = append(out, c)
		}
	}
	return out
}
