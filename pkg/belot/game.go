package belot

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/decred/slog"
)

// GameStatus is the lifecycle state of a game session.
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusReady      GameStatus = "ready"
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
	StatusAborted    GameStatus = "aborted"
)

// End reasons recorded on completion.
const (
	EndReasonThreshold  = "threshold_reached"
	EndReasonPlayerLeft = "player_left"
)

// BidAllPassPolicyDealerMustChoose is the only supported all-pass policy:
// the dealer is forced to pick a trump.
const BidAllPassPolicyDealerMustChoose = "dealer_must_choose"

// Point threshold bounds. Thresholds must end in 1.
const (
	MinPointsToWin     = 501
	MaxPointsToWin     = 2001
	DefaultPointsToWin = 1001
)

// GameConfig holds configuration for a new game session.
type GameConfig struct {
	ID      string
	Creator string
	Log     slog.Logger

	PointsToWin int
	Private     bool

	// DeckSeed pins the RNG for deterministic deals; 0 draws a random
	// seed. The effective seed is always recorded for replay.
	DeckSeed int64

	BidAllPassPolicy string

	// TiesToDefenders flips the declaration tie rule to the regional
	// variant that favours the defending team.
	TiesToDefenders bool
}

// Validate fills defaults and rejects out-of-range options.
func (cfg *GameConfig) Validate() error {
	if cfg.PointsToWin == 0 {
		cfg.PointsToWin = DefaultPointsToWin
	}
	if cfg.PointsToWin < MinPointsToWin || cfg.PointsToWin > MaxPointsToWin {
		return E(KindIllegalMove, "points_to_win %d outside [%d, %d]",
			cfg.PointsToWin, MinPointsToWin, MaxPointsToWin)
	}
	if cfg.PointsToWin%10 != 1 {
		return E(KindIllegalMove, "points_to_win %d must end in 1", cfg.PointsToWin)
	}
	if cfg.BidAllPassPolicy == "" {
		cfg.BidAllPassPolicy = BidAllPassPolicyDealerMustChoose
	}
	if cfg.BidAllPassPolicy != BidAllPassPolicyDealerMustChoose {
		return E(KindIllegalMove, "unknown bid_all_pass_policy %q", cfg.BidAllPassPolicy)
	}
	return nil
}

// Player is a seated participant. Users are referenced by id only.
type Player struct {
	ID     string
	Seat   int
	Active bool
}

// RoundSummary records one resolved round in the game history.
type RoundSummary struct {
	Number      int    `json:"number"`
	Trump       Suit   `json:"trump"`
	Caller      int    `json:"caller"`
	Points      [2]int `json:"points"`
	CallingFell bool   `json:"calling_fell"`
	CapotTeam   TeamID `json:"capot_team"`
}

// Game is the session aggregate: a sequence of rounds until a team reaches
// the point threshold. All access goes through its mutex; the session
// manager additionally serializes events per game.
type Game struct {
	mu  sync.RWMutex
	cfg GameConfig
	log slog.Logger

	status  GameStatus
	creator string
	players []*Player // seat-ordered once started

	seed int64
	rng  *rand.Rand

	dealer  int
	scores  [2]int
	round   *Round
	history []RoundSummary

	winner    TeamID
	endReason string

	lastSeq    uint64
	lastResult *ApplyResult
}

// NewGame creates a game session in the Waiting state.
func NewGame(cfg GameConfig) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.DeckSeed
	if seed == 0 {
		var buf [8]byte
		if _, err := crand.Read(buf[:]); err != nil {
			return nil, E(KindInternal, "seeding rng: %v", err)
		}
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	}

	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}

	return &Game{
		cfg:     cfg,
		log:     log,
		status:  StatusWaiting,
		creator: cfg.Creator,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		winner:  NoTeam,
	}, nil
}

// RestoreGame rebuilds an in-progress session from persisted state. The
// caller attaches the current round separately, rebuilt from its persisted
// starting hands and replayed actions.
func RestoreGame(cfg GameConfig, players []Player, dealer int, scores [2]int,
	history []RoundSummary, lastSeq uint64) (*Game, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(players) != NumSeats {
		return nil, E(KindInternal, "restoring game with %d players", len(players))
	}

	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}

	g := &Game{
		cfg:     cfg,
		log:     log,
		status:  StatusInProgress,
		creator: cfg.Creator,
		seed:    cfg.DeckSeed,
		rng:     rand.New(rand.NewSource(cfg.DeckSeed ^ int64(lastSeq))),
		dealer:  dealer,
		scores:  scores,
		history: history,
		winner:  NoTeam,
		lastSeq: lastSeq,
	}
	for i := range players {
		p := players[i]
		g.players = append(g.players, &p)
	}
	return g, nil
}

// AttachRound installs a rebuilt round into a restored game.
func (g *Game) AttachRound(r *Round) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusInProgress {
		return E(KindWrongPhase, "game %s is %s", g.cfg.ID, g.status)
	}
	g.round = r
	return nil
}

// AddPlayer seats a user before start. The fourth player moves the game to
// Ready.
func (g *Game) AddPlayer(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if p.ID == userID {
			return E(KindDuplicate, "user %s already seated", userID)
		}
	}
	if len(g.players) >= NumSeats {
		return E(KindCapacity, "game %s is full", g.cfg.ID)
	}
	if g.status != StatusWaiting {
		return E(KindWrongPhase, "game %s is %s", g.cfg.ID, g.status)
	}

	g.players = append(g.players, &Player{ID: userID, Seat: len(g.players), Active: true})
	if len(g.players) == NumSeats {
		g.status = StatusReady
	}
	return nil
}

// RemovePlayer unseats a user before start, transferring ownership if the
// creator leaves. It reports whether the game is now empty and should be
// disposed.
func (g *Game) RemovePlayer(userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusWaiting && g.status != StatusReady {
		return false, E(KindWrongPhase, "game %s already started", g.cfg.ID)
	}

	idx := -1
	for i, p := range g.players {
		if p.ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, E(KindNotMember, "user %s is not seated", userID)
	}

	g.players = append(g.players[:idx], g.players[idx+1:]...)
	for i, p := range g.players {
		p.Seat = i
	}
	g.status = StatusWaiting
	if len(g.players) == 0 {
		g.status = StatusAborted
		return true, nil
	}
	if userID == g.creator {
		g.creator = g.players[0].ID
	}
	return false, nil
}

// Start begins the first round: random team partition (seats fixed so
// partners sit across), random starting dealer, deal.
func (g *Game) Start() ([]Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusReady {
		return nil, E(KindWrongPhase, "game %s is %s, not ready", g.cfg.ID, g.status)
	}

	// Shuffling the seat order is exactly a random partition into the
	// teams {0,2} and {1,3}.
	g.rng.Shuffle(len(g.players), func(i, j int) {
		g.players[i], g.players[j] = g.players[j], g.players[i]
	})
	for i, p := range g.players {
		p.Seat = i
	}

	g.dealer = g.rng.Intn(NumSeats)
	g.status = StatusInProgress

	events := []Event{{Kind: EvGameStarted, Payload: GameStartedInfo{
		GameID:      g.cfg.ID,
		Seats:       g.seatInfoLocked(),
		Dealer:      g.dealer,
		PointsToWin: g.cfg.PointsToWin,
	}}}

	roundEvents, err := g.startRoundLocked(1)
	if err != nil {
		return nil, err
	}
	g.log.Infof("game %s started, dealer seat %d", g.cfg.ID, g.dealer)
	return append(events, roundEvents...), nil
}

func (g *Game) seatInfoLocked() []SeatInfo {
	seats := make([]SeatInfo, len(g.players))
	for i, p := range g.players {
		seats[i] = SeatInfo{Seat: p.Seat, UserID: p.ID}
	}
	return seats
}

func (g *Game) startRoundLocked(number int) ([]Event, error) {
	round := NewRound(number, g.dealer)
	round.tieToCaller = !g.cfg.TiesToDefenders

	deck := NewDeck(g.rng)
	deck.Shuffle()
	if err := round.Deal(deck); err != nil {
		return nil, err
	}
	g.round = round

	return []Event{{Kind: EvRoundStarted, Payload: RoundStartedInfo{
		Round:  number,
		Dealer: g.dealer,
		Bidder: round.CurrentActor(),
	}}}, nil
}

// SeatOf returns the seat of a user, or -1.
func (g *Game) SeatOf(userID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seatOfLocked(userID)
}

func (g *Game) seatOfLocked(userID string) int {
	for _, p := range g.players {
		if p.ID == userID {
			return p.Seat
		}
	}
	return -1
}

// Apply processes one sequenced action. Sequence numbers are per-game,
// required and monotonically increasing: an action one behind replays the
// cached result without touching state, older actions are stale, and only
// successful actions advance the sequence.
func (g *Game) Apply(a Action) (*ApplyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusInProgress {
		return nil, E(KindWrongPhase, "game %s is %s", g.cfg.ID, g.status)
	}

	if a.Seq == 0 {
		return nil, E(KindIllegalMove, "game action %q carries no seq", a.Kind)
	}
	if g.lastResult != nil && a.Seq == g.lastSeq {
		replay := *g.lastResult
		replay.Replayed = true
		return &replay, nil
	}
	if a.Seq <= g.lastSeq {
		return nil, E(KindStale, "seq %d already applied (at %d)", a.Seq, g.lastSeq)
	}

	seat := g.seatOfLocked(a.Actor)
	if seat < 0 {
		return nil, E(KindNotMember, "user %s is not in game %s", a.Actor, g.cfg.ID)
	}

	var events []Event
	var err error
	switch a.Kind {
	case ActionBidTrump:
		events, err = g.applyBidLocked(seat, a.Suit)
	case ActionPassTrump:
		events, err = g.applyPassLocked(seat)
	case ActionDeclare:
		events, err = g.applyDeclareLocked(seat, a.Declarations)
	case ActionAnnounceBelot:
		events, err = g.applyBelotLocked(seat)
	case ActionPlayCard:
		events, err = g.applyPlayLocked(seat, a.Card)
	case ActionPlayerLeft:
		events, err = g.applyLeaveLocked(seat, a.Reason)
	default:
		err = E(KindIllegalMove, "unknown action %q", a.Kind)
	}
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Seq: a.Seq, Events: events}
	g.lastSeq = a.Seq
	g.lastResult = result
	return result, nil
}

func (g *Game) applyBidLocked(seat int, suit Suit) ([]Event, error) {
	switch suit {
	case Spades, Hearts, Diamonds, Clubs:
	default:
		return nil, E(KindIllegalMove, "invalid trump suit %q", suit)
	}
	forced := g.round.ForcedBid()
	if err := g.round.Bid(seat, suit); err != nil {
		return nil, err
	}
	g.log.Debugf("game %s: seat %d bid %s", g.cfg.ID, seat, suit)
	return []Event{{Kind: EvTrumpSelected, Payload: TrumpSelectedInfo{
		Round:  g.round.Number(),
		Trump:  suit,
		Caller: seat,
		Forced: forced,
	}}}, nil
}

func (g *Game) applyPassLocked(seat int) ([]Event, error) {
	if err := g.round.Pass(seat); err != nil {
		return nil, err
	}
	return []Event{{Kind: EvBidPassed, Payload: BidPassedInfo{
		Round:      g.round.Number(),
		Seat:       seat,
		NextBidder: g.round.CurrentActor(),
		Forced:     g.round.ForcedBid(),
	}}}, nil
}

func (g *Game) applyDeclareLocked(seat int, decls []Declaration) ([]Event, error) {
	if err := g.round.Declare(seat, decls); err != nil {
		return nil, err
	}
	return []Event{{Kind: EvDeclarationsAnnounced, Payload: DeclarationsInfo{
		Round:        g.round.Number(),
		Seat:         seat,
		Declarations: decls,
	}}}, nil
}

func (g *Game) applyBelotLocked(seat int) ([]Event, error) {
	if err := g.round.AnnounceBelot(seat); err != nil {
		return nil, err
	}
	return []Event{{Kind: EvBelotAnnounced, Payload: BelotInfo{
		Round: g.round.Number(),
		Seat:  seat,
	}}}, nil
}

func (g *Game) applyPlayLocked(seat int, card Card) ([]Event, error) {
	tricksBefore := len(g.round.TrickHistory())
	if err := g.round.PlayCard(seat, card); err != nil {
		return nil, err
	}

	events := []Event{{Kind: EvCardPlayed, Payload: CardPlayedInfo{
		Round:     g.round.Number(),
		Seat:      seat,
		Card:      card,
		NextActor: g.round.CurrentActor(),
	}}}

	history := g.round.TrickHistory()
	if len(history) > tricksBefore {
		tr := history[len(history)-1]
		events = append(events, Event{Kind: EvTrickCompleted, Payload: TrickCompletedInfo{
			Round:  g.round.Number(),
			Winner: tr.Winner,
			Points: tr.Points,
			Plays:  tr.Plays,
		}})
	}

	if g.round.Phase() == PhaseDone {
		more, err := g.finishRoundLocked()
		if err != nil {
			return nil, err
		}
		events = append(events, more...)
	}
	return events, nil
}

// finishRoundLocked folds a Done round into the accumulated scores and
// either completes the game or deals the next round.
func (g *Game) finishRoundLocked() ([]Event, error) {
	round := g.round
	score := round.Score()

	g.scores[TeamA] += score.Points[TeamA]
	g.scores[TeamB] += score.Points[TeamB]
	g.history = append(g.history, RoundSummary{
		Number:      round.Number(),
		Trump:       round.Trump(),
		Caller:      round.Caller(),
		Points:      score.Points,
		CallingFell: score.CallingFell,
		CapotTeam:   score.CapotTeam,
	})

	events := []Event{{Kind: EvRoundCompleted, Payload: RoundCompletedInfo{
		Round:       round.Number(),
		Trump:       round.Trump(),
		Caller:      round.Caller(),
		Scores:      score.Points,
		Totals:      g.scores,
		CallingFell: score.CallingFell,
		CapotTeam:   score.CapotTeam,
	}}}

	winner, done := GameWinner(g.scores, g.cfg.PointsToWin, round.CallingTeam())
	if done {
		g.status = StatusCompleted
		g.winner = winner
		g.endReason = EndReasonThreshold
		g.round = nil
		g.log.Infof("game %s completed, team %s wins %d:%d",
			g.cfg.ID, winner, g.scores[TeamA], g.scores[TeamB])
		return append(events, Event{Kind: EvGameCompleted, Payload: GameCompletedInfo{
			Winner:    winner,
			Totals:    g.scores,
			EndReason: EndReasonThreshold,
		}}), nil
	}

	g.dealer = (g.dealer + 1) % NumSeats
	more, err := g.startRoundLocked(round.Number() + 1)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// applyLeaveLocked forfeits the leaver's team.
func (g *Game) applyLeaveLocked(seat int, reason string) ([]Event, error) {
	winner := TeamOfSeat(seat).Other()
	g.status = StatusCompleted
	g.winner = winner
	g.endReason = EndReasonPlayerLeft
	g.round = nil
	if reason == "" {
		reason = EndReasonPlayerLeft
	}
	g.log.Infof("game %s forfeited by seat %d (%s), team %s wins", g.cfg.ID, seat, reason, winner)
	return []Event{{Kind: EvGameCompleted, Payload: GameCompletedInfo{
		Winner:    winner,
		Totals:    g.scores,
		EndReason: EndReasonPlayerLeft,
	}}}, nil
}

// SetConnected marks a player connected or disconnected. A disconnect is
// not a departure: the game simply pauses if it was that player's turn.
func (g *Game) SetConnected(userID string, connected bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if p.ID == userID {
			p.Active = connected
			return nil
		}
	}
	return E(KindNotMember, "user %s is not in game %s", userID, g.cfg.ID)
}

// Accessors.

// ID returns the game id.
func (g *Game) ID() string { return g.cfg.ID }

// Config returns a copy of the game configuration.
func (g *Game) Config() GameConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// Status returns the lifecycle state.
func (g *Game) Status() GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Creator returns the current owner.
func (g *Game) Creator() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creator
}

// Players returns the seated players in seat order.
func (g *Game) Players() []Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = *p
	}
	return out
}

// Scores returns accumulated team scores.
func (g *Game) Scores() [2]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scores
}

// Round returns the round in progress, or nil.
func (g *Game) Round() *Round {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.round
}

// History returns summaries of resolved rounds.
func (g *Game) History() []RoundSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]RoundSummary, len(g.history))
	copy(out, g.history)
	return out
}

// Winner returns the winning team, or NoTeam.
func (g *Game) Winner() TeamID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.winner
}

// EndReason returns why the game completed.
func (g *Game) EndReason() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.endReason
}

// Dealer returns the current dealer seat.
func (g *Game) Dealer() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dealer
}

// Seed returns the effective deck seed, recorded for replay.
func (g *Game) Seed() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seed
}

// LastSeq returns the last applied sequence number.
func (g *Game) LastSeq() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastSeq
}
