package belot

// Phase is the state of a round's lifecycle.
type Phase string

const (
	PhaseDealing   Phase = "dealing"
	PhaseBidding   Phase = "bidding"
	PhaseDeclaring Phase = "declaring"
	PhasePlaying   Phase = "playing"
	PhaseScoring   Phase = "scoring"
	PhaseDone      Phase = "done"
)

// PlayerDeclaration pairs a declaration with the seat that announced it.
type PlayerDeclaration struct {
	Seat        int         `json:"seat"`
	Declaration Declaration `json:"declaration"`
}

// Round is a single deal: bidding, declaring, eight tricks, resolution.
// All validations precede any mutation; a rejected event leaves the round
// untouched.
type Round struct {
	number int
	dealer int
	phase  Phase

	// Bidding.
	trump         Suit
	caller        int
	currentBidder int
	passes        int
	forcedBid     bool

	// Hands. startingHands is the dealt state, kept for replay.
	hands         [NumSeats][]Card
	startingHands [NumSeats][]Card

	// Declarations.
	declared     [NumSeats]bool
	declarations []PlayerDeclaration
	belots       []int

	// Play.
	current *Trick
	history []TrickResult

	trickPoints [2]int
	tricksWon   [2]int

	tieToCaller bool
	score       *RoundScore
}

// NewRound creates a round in the Dealing phase.
func NewRound(number, dealer int) *Round {
	return &Round{
		number:      number,
		dealer:      dealer,
		phase:       PhaseDealing,
		caller:      -1,
		tieToCaller: true,
	}
}

// Deal distributes a full shuffled deck and opens bidding left of the
// dealer.
func (r *Round) Deal(deck *Deck) error {
	if r.phase != PhaseDealing {
		return E(KindWrongPhase, "round %d is not dealing", r.number)
	}

	hands, err := deck.Deal(r.dealer)
	if err != nil {
		return E(KindInternal, "deal failed: %v", err)
	}

	for seat := range hands {
		r.hands[seat] = hands[seat]
		r.startingHands[seat] = copyCards(hands[seat])
	}

	r.phase = PhaseBidding
	r.currentBidder = (r.dealer + 1) % NumSeats
	return nil
}

// RestoreHands injects persisted starting hands instead of dealing, used
// when rebuilding a round from the store.
func (r *Round) RestoreHands(hands [NumSeats][]Card) error {
	if r.phase != PhaseDealing {
		return E(KindWrongPhase, "round %d already dealt", r.number)
	}
	for seat := range hands {
		r.hands[seat] = copyCards(hands[seat])
		r.startingHands[seat] = copyCards(hands[seat])
	}
	r.phase = PhaseBidding
	r.currentBidder = (r.dealer + 1) % NumSeats
	return nil
}

// SetTieRule selects who wins an equal declaration comparison: the calling
// team (default) or the defenders.
func (r *Round) SetTieRule(tieToCaller bool) {
	r.tieToCaller = tieToCaller
}

// Bid selects the trump suit. Legal only from the designated bidder during
// bidding.
func (r *Round) Bid(seat int, trump Suit) error {
	if r.phase != PhaseBidding {
		return E(KindWrongPhase, "bidding is over")
	}
	if !LegalBid(r.phase, seat, r.currentBidder) {
		return E(KindNotYourTurn, "seat %d bids next", r.currentBidder)
	}

	r.trump = trump
	r.caller = seat
	r.enterDeclaring()
	return nil
}

// Pass declines to bid. After all four pass, the turn returns to the
// dealer who must choose a trump; a further pass is illegal.
func (r *Round) Pass(seat int) error {
	if r.phase != PhaseBidding {
		return E(KindWrongPhase, "bidding is over")
	}
	if !LegalBid(r.phase, seat, r.currentBidder) {
		return E(KindNotYourTurn, "seat %d bids next", r.currentBidder)
	}
	if r.forcedBid {
		return E(KindIllegalMove, "dealer must choose a trump")
	}

	r.passes++
	if r.passes == NumSeats {
		// All four passed: the dealer is forced to bid.
		r.currentBidder = r.dealer
		r.forcedBid = true
		return nil
	}
	r.currentBidder = (r.currentBidder + 1) % NumSeats
	return nil
}

// enterDeclaring moves into the Declaring phase. Seats with nothing to
// declare are skipped implicitly; when nobody has declarations the round
// goes straight to play.
func (r *Round) enterDeclaring() {
	r.phase = PhaseDeclaring
	for seat := 0; seat < NumSeats; seat++ {
		detected := DetectDeclarations(r.hands[seat], r.trump)
		announceable := 0
		for _, d := range detected {
			if d.Type != DeclBelot {
				announceable++
			}
		}
		if announceable == 0 {
			r.declared[seat] = true
		}
	}
	r.maybeStartPlay()
}

func (r *Round) maybeStartPlay() {
	for seat := 0; seat < NumSeats; seat++ {
		if !r.declared[seat] {
			return
		}
	}
	r.phase = PhasePlaying
	r.current = NewTrick(r.trump)
}

// Declare announces zero or more declarations for the seat. The server
// recomputes detection from the actual hand; anything that does not match
// is rejected wholesale. Belot is announced separately during play.
func (r *Round) Declare(seat int, decls []Declaration) error {
	if r.phase != PhaseDeclaring {
		return E(KindWrongPhase, "declarations are not open")
	}
	if seat < 0 || seat >= NumSeats {
		return E(KindNotMember, "no seat %d", seat)
	}
	if r.declared[seat] {
		return E(KindDuplicate, "seat %d already declared", seat)
	}

	detected := DetectDeclarations(r.hands[seat], r.trump)
	for _, d := range decls {
		if d.Type == DeclBelot {
			return E(KindIllegalMove, "belot is announced during play")
		}
		if !matchesDetected(d, detected) {
			return E(KindIllegalMove, "declaration %s not present in hand", d.Type)
		}
	}

	for _, d := range decls {
		r.declarations = append(r.declarations, PlayerDeclaration{Seat: seat, Declaration: d})
	}
	r.declared[seat] = true
	r.maybeStartPlay()
	return nil
}

// AnnounceBelot credits the belot bonus. Valid while the seat still holds
// both king and queen of trump, which is exactly the window up to playing
// the first of them.
func (r *Round) AnnounceBelot(seat int) error {
	if r.phase != PhasePlaying {
		return E(KindWrongPhase, "belot is announced during play")
	}
	if seat < 0 || seat >= NumSeats {
		return E(KindNotMember, "no seat %d", seat)
	}
	for _, s := range r.belots {
		if s == seat {
			return E(KindDuplicate, "belot already announced")
		}
	}
	if !containsCard(r.hands[seat], NewCard(r.trump, King)) ||
		!containsCard(r.hands[seat], NewCard(r.trump, Queen)) {
		return E(KindIllegalMove, "belot requires king and queen of trump in hand")
	}

	r.belots = append(r.belots, seat)
	return nil
}

// CurrentActor returns the seat expected to act, or -1 when the phase has
// no single designated actor (Declaring accepts any undeclared seat).
func (r *Round) CurrentActor() int {
	switch r.phase {
	case PhaseBidding:
		return r.currentBidder
	case PhasePlaying:
		if r.current == nil {
			return -1
		}
		if r.current.Size() == 0 {
			if len(r.history) == 0 {
				return (r.dealer + 1) % NumSeats
			}
			return r.history[len(r.history)-1].Winner
		}
		return (r.current.Leader() + r.current.Size()) % NumSeats
	default:
		return -1
	}
}

// ValidMoves returns the cards the seat may legally play right now. Empty
// outside the playing phase or when it is another seat's turn.
func (r *Round) ValidMoves(seat int) []Card {
	if r.phase != PhasePlaying || seat != r.CurrentActor() {
		return nil
	}
	return ValidMoves(r.hands[seat], r.current, r.trump, seat)
}

// PlayCard plays a card for the seat. On the fourth card the trick is
// resolved and its winner leads the next; after the eighth trick the round
// resolves.
func (r *Round) PlayCard(seat int, card Card) error {
	if r.phase != PhasePlaying {
		return E(KindWrongPhase, "round is not in play")
	}
	if seat != r.CurrentActor() {
		return E(KindNotYourTurn, "seat %d plays next", r.CurrentActor())
	}
	if !containsCard(r.hands[seat], card) {
		return E(KindIllegalMove, "card %s not in hand", card)
	}
	if !containsCard(ValidMoves(r.hands[seat], r.current, r.trump, seat), card) {
		return E(KindIllegalMove, "card %s violates follow/trump obligations", card)
	}

	r.hands[seat], _ = removeCard(r.hands[seat], card)
	r.current.Play(seat, card)

	if !r.current.IsComplete() {
		return nil
	}

	result := r.current.Result()
	if len(r.history) == HandSize-1 {
		result.Points += LastTrickBonus
	}
	team := TeamOfSeat(result.Winner)
	r.trickPoints[team] += result.Points
	r.tricksWon[team]++
	r.history = append(r.history, result)

	if len(r.history) == HandSize {
		r.current = nil
		r.phase = PhaseScoring
		r.resolve()
		return nil
	}

	r.current = NewTrick(r.trump)
	return nil
}

// resolve settles declarations, belots and trick points into the round
// score and finishes the round.
func (r *Round) resolve() {
	var teamDecls [2][]Declaration
	for _, pd := range r.declarations {
		team := TeamOfSeat(pd.Seat)
		teamDecls[team] = append(teamDecls[team], pd.Declaration)
	}
	_, declPoints := ResolveDeclarations(teamDecls, r.CallingTeam(), r.tieToCaller)

	var belotPoints [2]int
	for _, seat := range r.belots {
		belotPoints[TeamOfSeat(seat)] += BelotBonus
	}

	score := ResolveRound(RoundTally{
		TrickPoints: r.trickPoints,
		DeclPoints:  declPoints,
		BelotPoints: belotPoints,
		TricksWon:   r.tricksWon,
		Calling:     r.CallingTeam(),
	})
	r.score = &score
	r.phase = PhaseDone
}

// Accessors.

// Number returns the round number.
func (r *Round) Number() int { return r.number }

// Dealer returns the dealer seat.
func (r *Round) Dealer() int { return r.dealer }

// Phase returns the current phase.
func (r *Round) Phase() Phase { return r.phase }

// Trump returns the chosen trump suit (zero value until chosen).
func (r *Round) Trump() Suit { return r.trump }

// Caller returns the seat that chose trump, or -1.
func (r *Round) Caller() int { return r.caller }

// CallingTeam returns the team of the caller.
func (r *Round) CallingTeam() TeamID {
	if r.caller < 0 {
		return NoTeam
	}
	return TeamOfSeat(r.caller)
}

// ForcedBid reports whether all four passed and the dealer must choose.
func (r *Round) ForcedBid() bool { return r.forcedBid }

// Hand returns a copy of the seat's current hand.
func (r *Round) Hand(seat int) []Card {
	if seat < 0 || seat >= NumSeats {
		return nil
	}
	return copyCards(r.hands[seat])
}

// StartingHand returns a copy of the seat's dealt hand.
func (r *Round) StartingHand(seat int) []Card {
	if seat < 0 || seat >= NumSeats {
		return nil
	}
	return copyCards(r.startingHands[seat])
}

// CurrentTrick returns the plays of the trick in progress.
func (r *Round) CurrentTrick() []PlayedCard {
	if r.current == nil {
		return nil
	}
	return r.current.Plays()
}

// TrickHistory returns all completed tricks.
func (r *Round) TrickHistory() []TrickResult {
	out := make([]TrickResult, len(r.history))
	copy(out, r.history)
	return out
}

// Declarations returns the accepted declarations.
func (r *Round) Declarations() []PlayerDeclaration {
	out := make([]PlayerDeclaration, len(r.declarations))
	copy(out, r.declarations)
	return out
}

// BelotSeats returns the seats that announced belot.
func (r *Round) BelotSeats() []int {
	out := make([]int, len(r.belots))
	copy(out, r.belots)
	return out
}

// TrickPoints returns per-team trick points accumulated so far.
func (r *Round) TrickPoints() [2]int { return r.trickPoints }

// TricksWon returns per-team trick counts.
func (r *Round) TricksWon() [2]int { return r.tricksWon }

// Score returns the resolved score, or nil before Done.
func (r *Round) Score() *RoundScore { return r.score }

// CardsInFlight counts cards still held plus cards on the table; together
// with completed tricks this always sums to a full deck.
func (r *Round) CardsInFlight() int {
	n := 0
	for seat := 0; seat < NumSeats; seat++ {
		n += len(r.hands[seat])
	}
	if r.current != nil {
		n += r.current.Size()
	}
	for _, tr := range r.history {
		n += len(tr.Plays)
	}
	return n
}
