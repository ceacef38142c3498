package belot

// PlayedCard is one entry of a trick: who played which card.
type PlayedCard struct {
	Seat int
	Card Card
}

// Trick is an ordered list of up to four played cards. The first card
// establishes the led suit.
type Trick struct {
	plays   []PlayedCard
	trump   Suit
	ledSuit Suit
}

// NewTrick creates a new empty trick.
func NewTrick(trump Suit) *Trick {
	return &Trick{
		plays: make([]PlayedCard, 0, NumSeats),
		trump: trump,
	}
}

// Play adds a card to the trick.
func (t *Trick) Play(seat int, card Card) {
	t.plays = append(t.plays, PlayedCard{Seat: seat, Card: card})
	if len(t.plays) == 1 {
		t.ledSuit = card.Suit()
	}
}

// Size returns the number of cards played.
func (t *Trick) Size() int {
	return len(t.plays)
}

// IsComplete reports whether all four seats have played.
func (t *Trick) IsComplete() bool {
	return len(t.plays) >= NumSeats
}

// LedSuit returns the suit of the first card played.
func (t *Trick) LedSuit() Suit {
	return t.ledSuit
}

// Trump returns the trump suit for this trick.
func (t *Trick) Trump() Suit {
	return t.trump
}

// Leader returns the seat that led the trick, or -1 if empty.
func (t *Trick) Leader() int {
	if len(t.plays) == 0 {
		return -1
	}
	return t.plays[0].Seat
}

// Plays returns the played cards in order.
func (t *Trick) Plays() []PlayedCard {
	out := make([]PlayedCard, len(t.plays))
	copy(out, t.plays)
	return out
}

// cardValue calculates the trick-taking power of a card in the context of
// this trick. Trump cards occupy the highest band, led-suit cards the
// middle band; anything else cannot win.
func (t *Trick) cardValue(card Card) int {
	if card.Suit() == t.trump {
		return 1000 + card.Order(t.trump)
	}
	if card.Suit() == t.ledSuit {
		return 100 + card.Order(t.trump)
	}
	return 0
}

// WinningPlay returns the play currently winning the trick.
func (t *Trick) WinningPlay() (PlayedCard, bool) {
	if len(t.plays) == 0 {
		return PlayedCard{}, false
	}

	winner := t.plays[0]
	winning := t.cardValue(winner.Card)
	for _, pc := range t.plays[1:] {
		if v := t.cardValue(pc.Card); v > winning {
			winner = pc
			winning = v
		}
	}
	return winner, true
}

// Winner returns the seat winning the trick, or -1 if empty. Among cards
// played, the highest trump wins; otherwise the highest card of the led
// suit.
func (t *Trick) Winner() int {
	pc, ok := t.WinningPlay()
	if !ok {
		return -1
	}
	return pc.Seat
}

// Beats reports whether playing card would take the lead.
func (t *Trick) Beats(card Card) bool {
	if len(t.plays) == 0 {
		return true
	}
	winner, _ := t.WinningPlay()
	return t.cardValue(card) > t.cardValue(winner.Card)
}

// HasTrump reports whether any trump card has been played.
func (t *Trick) HasTrump() bool {
	for _, pc := range t.plays {
		if pc.Card.Suit() == t.trump {
			return true
		}
	}
	return false
}

// HighestOfLed returns the strongest led-suit card played so far.
func (t *Trick) HighestOfLed() (Card, bool) {
	var best Card
	found := false
	for _, pc := range t.plays {
		if pc.Card.Suit() != t.ledSuit {
			continue
		}
		if !found || pc.Card.Order(t.trump) > best.Order(t.trump) {
			best = pc.Card
			found = true
		}
	}
	return best, found
}

// Points returns the sum of card points in the trick.
func (t *Trick) Points() int {
	total := 0
	for _, pc := range t.plays {
		total += pc.Card.Points(t.trump)
	}
	return total
}

// WasTrumped reports whether a trump won over a non-trump lead.
func (t *Trick) WasTrumped() bool {
	pc, ok := t.WinningPlay()
	if !ok {
		return false
	}
	return pc.Card.Suit() == t.trump && t.ledSuit != t.trump
}

// TrickResult contains the outcome of a completed trick.
type TrickResult struct {
	Winner     int
	Points     int
	Plays      []PlayedCard
	LedSuit    Suit
	Trump      Suit
	WasTrumped bool
}

// Result returns the trick result once the trick is complete.
func (t *Trick) Result() TrickResult {
	return TrickResult{
		Winner:     t.Winner(),
		Points:     t.Points(),
		Plays:      t.Plays(),
		LedSuit:    t.ledSuit,
		Trump:      t.trump,
		WasTrumped: t.WasTrumped(),
	}
}
