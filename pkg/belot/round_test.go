package belot

import (
	"math/rand"
	"testing"
)

func dealtRound(t *testing.T, seed int64, dealer int) *Round {
	t.Helper()
	r := NewRound(1, dealer)
	deck := NewDeck(rand.New(rand.NewSource(seed)))
	deck.Shuffle()
	if err := r.Deal(deck); err != nil {
		t.Fatalf("deal: %v", err)
	}
	return r
}

// skipDeclarations drives the round to the playing phase by having every
// remaining seat announce nothing.
func skipDeclarations(t *testing.T, r *Round) {
	t.Helper()
	for seat := 0; seat < NumSeats && r.Phase() == PhaseDeclaring; seat++ {
		if r.declared[seat] {
			continue
		}
		if err := r.Declare(seat, nil); err != nil {
			t.Fatalf("skip declarations for seat %d: %v", seat, err)
		}
	}
	if r.Phase() != PhasePlaying {
		t.Fatalf("round stuck in %s after declarations", r.Phase())
	}
}

// autoPlay plays the first valid move for every seat until the round is
// done, checking card conservation after every play.
func autoPlay(t *testing.T, r *Round) {
	t.Helper()
	for r.Phase() == PhasePlaying {
		seat := r.CurrentActor()
		moves := ValidMoves(r.Hand(seat), r.current, r.Trump(), seat)
		if len(moves) == 0 {
			t.Fatalf("seat %d has no valid moves", seat)
		}
		if err := r.PlayCard(seat, moves[0]); err != nil {
			t.Fatalf("seat %d playing %s: %v", seat, moves[0], err)
		}
		if got := r.CardsInFlight(); got != DeckSize {
			t.Fatalf("cards in flight %d, want %d", got, DeckSize)
		}
	}
}

func TestRoundFullPlaythrough(t *testing.T) {
	r := dealtRound(t, 11, 0)

	if r.Phase() != PhaseBidding {
		t.Fatalf("phase %s after deal, want bidding", r.Phase())
	}
	if r.CurrentActor() != 1 {
		t.Fatalf("first bidder %d, want seat left of dealer", r.CurrentActor())
	}

	if err := r.Bid(1, Hearts); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if r.Caller() != 1 || r.Trump() != Hearts {
		t.Fatalf("caller %d trump %s, want 1 %s", r.Caller(), r.Trump(), Hearts)
	}

	skipDeclarations(t, r)

	// First trick is led by the seat left of the dealer.
	if r.CurrentActor() != 1 {
		t.Fatalf("first leader %d, want 1", r.CurrentActor())
	}

	autoPlay(t, r)

	if r.Phase() != PhaseDone {
		t.Fatalf("phase %s after eight tricks, want done", r.Phase())
	}
	if got := len(r.TrickHistory()); got != HandSize {
		t.Fatalf("%d tricks recorded, want %d", got, HandSize)
	}

	// With no declarations the two teams' trick points must account for
	// every card point plus the last-trick bonus.
	tally := r.TrickPoints()
	if sum := tally[TeamA] + tally[TeamB]; sum != TotalCardPoints+LastTrickBonus {
		t.Errorf("trick points sum to %d, want %d", sum, TotalCardPoints+LastTrickBonus)
	}

	score := r.Score()
	if score == nil {
		t.Fatal("no score after done")
	}
	total := score.Points[TeamA] + score.Points[TeamB]
	want := TotalCardPoints + LastTrickBonus
	if score.CapotTeam != NoTeam {
		want += CapotBonus
	}
	if total != want {
		t.Errorf("round totals sum to %d, want %d", total, want)
	}
	if score.CallingFell && score.Points[r.CallingTeam()] != 0 {
		t.Error("fallen caller retained points")
	}
}

func TestRoundBiddingTurnOrder(t *testing.T) {
	r := dealtRound(t, 3, 2)

	// Dealer 2: bidding starts at 3 and wraps 3,0,1,2.
	if err := r.Bid(0, Spades); !IsKind(err, KindNotYourTurn) {
		t.Fatalf("out-of-turn bid: got %v, want not_your_turn", err)
	}
	if err := r.Pass(3); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if r.CurrentActor() != 0 {
		t.Fatalf("bidder after pass %d, want 0", r.CurrentActor())
	}
	if err := r.Bid(0, Clubs); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if r.Phase() == PhaseBidding {
		t.Error("bidding should end on the first bid")
	}
}

func TestRoundAllPassForcesDealer(t *testing.T) {
	r := dealtRound(t, 5, 0)

	for _, seat := range []int{1, 2, 3, 0} {
		if err := r.Pass(seat); err != nil {
			t.Fatalf("seat %d pass: %v", seat, err)
		}
	}

	if !r.ForcedBid() {
		t.Fatal("dealer should be forced after four passes")
	}
	if r.CurrentActor() != 0 {
		t.Fatalf("forced bidder %d, want dealer 0", r.CurrentActor())
	}
	if err := r.Pass(0); !IsKind(err, KindIllegalMove) {
		t.Fatalf("forced pass: got %v, want illegal_move", err)
	}
	if err := r.Bid(0, Diamonds); err != nil {
		t.Fatalf("forced bid: %v", err)
	}
	if r.Caller() != 0 || r.Trump() != Diamonds {
		t.Errorf("caller %d trump %s after forced bid", r.Caller(), r.Trump())
	}
}

func TestRoundDeclareValidation(t *testing.T) {
	r := NewRound(1, 0)
	hands := [NumSeats][]Card{
		{NewCard(Spades, Seven), NewCard(Spades, Eight), NewCard(Spades, Nine),
			NewCard(Hearts, Ace), NewCard(Hearts, Ten), NewCard(Diamonds, Seven),
			NewCard(Diamonds, Eight), NewCard(Clubs, Seven)},
		{NewCard(Hearts, King), NewCard(Hearts, Queen), NewCard(Clubs, Ace),
			NewCard(Clubs, Ten), NewCard(Diamonds, Nine), NewCard(Diamonds, Ten),
			NewCard(Clubs, Eight), NewCard(Clubs, Nine)},
		{NewCard(Spades, Ace), NewCard(Spades, Ten), NewCard(Spades, King),
			NewCard(Hearts, Seven), NewCard(Hearts, Eight), NewCard(Diamonds, Ace),
			NewCard(Diamonds, King), NewCard(Clubs, King)},
		{NewCard(Spades, Queen), NewCard(Spades, Jack), NewCard(Hearts, Nine),
			NewCard(Hearts, Jack), NewCard(Diamonds, Queen), NewCard(Diamonds, Jack),
			NewCard(Clubs, Queen), NewCard(Clubs, Jack)},
	}
	if err := r.RestoreHands(hands); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := r.Bid(1, Hearts); err != nil {
		t.Fatalf("bid: %v", err)
	}

	// Belot is not announced through Declare.
	belot := Declaration{Type: DeclBelot, Points: 20,
		Cards: []Card{NewCard(Hearts, King), NewCard(Hearts, Queen)}}
	if err := r.Declare(0, []Declaration{belot}); !IsKind(err, KindIllegalMove) {
		t.Fatalf("belot via declare: got %v, want illegal_move", err)
	}

	// Seat 0 holds the 7-8-9 spade tierce.
	tierce := Declaration{Type: DeclTierce, Points: 20,
		Cards: []Card{NewCard(Spades, Seven), NewCard(Spades, Eight), NewCard(Spades, Nine)}}
	if err := r.Declare(0, []Declaration{tierce}); err != nil {
		t.Fatalf("genuine tierce rejected: %v", err)
	}
	if err := r.Declare(0, nil); !IsKind(err, KindDuplicate) {
		t.Fatalf("second declare: got %v, want duplicate", err)
	}

	// Seat 2 claims a tierce it does not hold.
	if err := r.Declare(2, []Declaration{tierce}); !IsKind(err, KindIllegalMove) {
		t.Fatalf("bogus declare: got %v, want illegal_move", err)
	}
}

func TestRoundBelotAnnouncement(t *testing.T) {
	r := NewRound(1, 0)
	hands := [NumSeats][]Card{
		{NewCard(Spades, Ace), NewCard(Spades, Ten), NewCard(Spades, King),
			NewCard(Spades, Queen), NewCard(Spades, Jack), NewCard(Spades, Nine),
			NewCard(Spades, Eight), NewCard(Spades, Seven)},
		{NewCard(Hearts, King), NewCard(Hearts, Queen), NewCard(Hearts, Ace),
			NewCard(Hearts, Ten), NewCard(Hearts, Jack), NewCard(Hearts, Nine),
			NewCard(Hearts, Eight), NewCard(Hearts, Seven)},
		{NewCard(Diamonds, Ace), NewCard(Diamonds, Ten), NewCard(Diamonds, King),
			NewCard(Diamonds, Queen), NewCard(Diamonds, Jack), NewCard(Diamonds, Nine),
			NewCard(Diamonds, Eight), NewCard(Diamonds, Seven)},
		{NewCard(Clubs, Ace), NewCard(Clubs, Ten), NewCard(Clubs, King),
			NewCard(Clubs, Queen), NewCard(Clubs, Jack), NewCard(Clubs, Nine),
			NewCard(Clubs, Eight), NewCard(Clubs, Seven)},
	}
	if err := r.RestoreHands(hands); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := r.Bid(1, Hearts); err != nil {
		t.Fatalf("bid: %v", err)
	}

	if err := r.AnnounceBelot(1); !IsKind(err, KindWrongPhase) {
		t.Fatalf("belot before play: got %v, want wrong_phase", err)
	}

	skipDeclarations(t, r)

	if err := r.AnnounceBelot(0); !IsKind(err, KindIllegalMove) {
		t.Fatalf("belot without K+Q of trump: got %v, want illegal_move", err)
	}
	if err := r.AnnounceBelot(1); err != nil {
		t.Fatalf("belot: %v", err)
	}
	if err := r.AnnounceBelot(1); !IsKind(err, KindDuplicate) {
		t.Fatalf("double belot: got %v, want duplicate", err)
	}

	autoPlay(t, r)

	// Seat 1 held all trumps: capot for team B, plus the belot.
	score := r.Score()
	if score.CapotTeam != TeamB {
		t.Fatalf("capot team %s, want B", score.CapotTeam)
	}
	want := TotalCardPoints + LastTrickBonus + CapotBonus + BelotBonus
	if score.Points[TeamB] != want {
		t.Errorf("team B scored %d, want %d", score.Points[TeamB], want)
	}
	if score.Points[TeamA] != 0 {
		t.Errorf("team A scored %d, want 0", score.Points[TeamA])
	}
}

func TestRoundRejectsIllegalPlays(t *testing.T) {
	r := dealtRound(t, 17, 0)
	if err := r.Bid(1, Spades); err != nil {
		t.Fatalf("bid: %v", err)
	}
	skipDeclarations(t, r)

	leader := r.CurrentActor()
	other := (leader + 1) % NumSeats
	if err := r.PlayCard(other, r.Hand(other)[0]); !IsKind(err, KindNotYourTurn) {
		t.Fatalf("out-of-turn play: got %v, want not_your_turn", err)
	}
	if err := r.PlayCard(leader, r.Hand(other)[0]); !IsKind(err, KindIllegalMove) {
		t.Fatalf("playing an unheld card: got %v, want illegal_move", err)
	}
}
