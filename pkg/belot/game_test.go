package belot

import (
	"testing"
)

func testGame(t *testing.T, cfg GameConfig) *Game {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "game-1"
	}
	if cfg.Creator == "" {
		cfg.Creator = "alice"
	}
	g, err := NewGame(cfg)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func seatUsers(t *testing.T, g *Game) [NumSeats]string {
	t.Helper()
	var users [NumSeats]string
	for _, p := range g.Players() {
		users[p.Seat] = p.ID
	}
	return users
}

func TestGameConfigValidate(t *testing.T) {
	tests := []struct {
		points int
		ok     bool
	}{
		{0, true}, // defaults to 1001
		{1001, true},
		{501, true},
		{2001, true},
		{500, false},
		{2011, false},
		{1000, false},
		{777, false},
	}
	for _, tc := range tests {
		cfg := GameConfig{ID: "g", Creator: "c", PointsToWin: tc.points}
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("points %d: unexpected error %v", tc.points, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("points %d: expected validation error", tc.points)
		}
	}

	cfg := GameConfig{ID: "g", Creator: "c"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.PointsToWin != DefaultPointsToWin {
		t.Errorf("default threshold %d, want %d", cfg.PointsToWin, DefaultPointsToWin)
	}
	if cfg.BidAllPassPolicy != BidAllPassPolicyDealerMustChoose {
		t.Errorf("default policy %q", cfg.BidAllPassPolicy)
	}
}

func TestGameSeating(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice"})

	for _, u := range []string{"alice", "bob", "carol"} {
		if err := g.AddPlayer(u); err != nil {
			t.Fatalf("add %s: %v", u, err)
		}
	}
	if g.Status() != StatusWaiting {
		t.Fatalf("status %s with three players, want waiting", g.Status())
	}
	if err := g.AddPlayer("bob"); !IsKind(err, KindDuplicate) {
		t.Fatalf("duplicate join: got %v, want duplicate", err)
	}
	if err := g.AddPlayer("dave"); err != nil {
		t.Fatalf("add dave: %v", err)
	}
	if g.Status() != StatusReady {
		t.Fatalf("status %s with four players, want ready", g.Status())
	}
	if err := g.AddPlayer("eve"); !IsKind(err, KindCapacity) {
		t.Fatalf("fifth join: got %v, want capacity", err)
	}
}

func TestGameCreatorLeaves(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice"})
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	empty, err := g.RemovePlayer("alice")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if empty {
		t.Fatal("game with bob left should not be empty")
	}
	if g.Creator() != "bob" {
		t.Errorf("creator %s, want bob", g.Creator())
	}

	empty, err = g.RemovePlayer("bob")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !empty {
		t.Fatal("game should report empty")
	}
	if g.Status() != StatusAborted {
		t.Errorf("status %s, want aborted", g.Status())
	}
}

func TestGameStartOnlyOnce(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: 9})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		g.AddPlayer(u)
	}

	events, err := g.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(events) < 2 || events[0].Kind != EvGameStarted || events[1].Kind != EvRoundStarted {
		t.Fatalf("start events %v, want game_started then round_started", events)
	}
	if g.Status() != StatusInProgress {
		t.Fatalf("status %s, want in_progress", g.Status())
	}

	if _, err := g.Start(); !IsKind(err, KindWrongPhase) {
		t.Fatalf("second start: got %v, want wrong_phase", err)
	}
	if _, err := g.RemovePlayer("bob"); !IsKind(err, KindWrongPhase) {
		t.Fatalf("unseat after start: got %v, want wrong_phase", err)
	}
}

func TestGameForfeitOnLeave(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: 9})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		g.AddPlayer(u)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	users := seatUsers(t, g)
	leaver := users[1]

	res, err := g.Apply(Action{Seq: 1, Actor: leaver, Kind: ActionPlayerLeft})
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	last := res.Events[len(res.Events)-1]
	if last.Kind != EvGameCompleted {
		t.Fatalf("final event %s, want game_completed", last.Kind)
	}
	info := last.Payload.(GameCompletedInfo)
	if info.EndReason != EndReasonPlayerLeft {
		t.Errorf("end reason %q, want %q", info.EndReason, EndReasonPlayerLeft)
	}
	if info.Winner != TeamA {
		t.Errorf("winner %s, want A (seat 1 left)", info.Winner)
	}
	if g.Status() != StatusCompleted {
		t.Errorf("status %s, want completed", g.Status())
	}
}

func TestGameApplyIdempotency(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: 21})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		g.AddPlayer(u)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	users := seatUsers(t, g)
	bidder := users[g.Round().CurrentActor()]

	first, err := g.Apply(Action{Seq: 1, Actor: bidder, Kind: ActionBidTrump, Suit: Hearts})
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if first.Replayed {
		t.Fatal("fresh apply marked replayed")
	}

	// The same sequence number replays the cached result without touching
	// the round.
	second, err := g.Apply(Action{Seq: 1, Actor: bidder, Kind: ActionBidTrump, Suit: Hearts})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Replayed {
		t.Fatal("duplicate apply not marked replayed")
	}
	if len(second.Events) != len(first.Events) {
		t.Fatalf("replay emitted %d events, want %d", len(second.Events), len(first.Events))
	}
	if g.Round().Trump() != Hearts {
		t.Errorf("trump %s after replay, want %s", g.Round().Trump(), Hearts)
	}

	// Advance once more, then an older sequence number is stale.
	stepGame(t, g, users, 2)
	if _, err := g.Apply(Action{Seq: 1, Actor: bidder, Kind: ActionBidTrump, Suit: Spades}); !IsKind(err, KindStale) {
		t.Fatalf("stale apply: got %v, want stale", err)
	}
}

func TestGameApplyRejectsStrangers(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: 9})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		g.AddPlayer(u)
	}
	g.Start()

	if _, err := g.Apply(Action{Seq: 1, Actor: "mallory", Kind: ActionPassTrump}); !IsKind(err, KindNotMember) {
		t.Fatalf("stranger apply: got %v, want not_member", err)
	}
}

// Game actions must carry a sequence number; zero gets no idempotency
// treatment, it is simply rejected.
func TestGameApplyRequiresSeq(t *testing.T) {
	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: 9})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		g.AddPlayer(u)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	users := seatUsers(t, g)
	bidder := users[g.Round().CurrentActor()]

	if _, err := g.Apply(Action{Actor: bidder, Kind: ActionBidTrump, Suit: Hearts}); !IsKind(err, KindIllegalMove) {
		t.Fatalf("unsequenced apply: got %v, want illegal_move", err)
	}
	if g.Round().Phase() != PhaseBidding {
		t.Errorf("rejected action changed phase to %s", g.Round().Phase())
	}
}

// stepGame advances the game by one action of a deterministic policy: the
// first bidder calls hearts, nobody declares, everybody plays their first
// valid card.
func stepGame(t *testing.T, g *Game, users [NumSeats]string, seq uint64) {
	t.Helper()
	r := g.Round()

	switch r.Phase() {
	case PhaseBidding:
		seat := r.CurrentActor()
		if _, err := g.Apply(Action{Seq: seq, Actor: users[seat], Kind: ActionBidTrump, Suit: Hearts}); err != nil {
			t.Fatalf("seat %d bid: %v", seat, err)
		}
	case PhaseDeclaring:
		seat := -1
		for s := 0; s < NumSeats; s++ {
			if !r.declared[s] {
				seat = s
				break
			}
		}
		if seat < 0 {
			t.Fatal("declaring phase with all seats declared")
		}
		if _, err := g.Apply(Action{Seq: seq, Actor: users[seat], Kind: ActionDeclare}); err != nil {
			t.Fatalf("seat %d skip declarations: %v", seat, err)
		}
	case PhasePlaying:
		seat := r.CurrentActor()
		moves := ValidMoves(r.Hand(seat), r.current, r.Trump(), seat)
		if len(moves) == 0 {
			t.Fatalf("seat %d out of moves", seat)
		}
		if _, err := g.Apply(Action{Seq: seq, Actor: users[seat], Kind: ActionPlayCard, Card: moves[0]}); err != nil {
			t.Fatalf("seat %d play %s: %v", seat, moves[0], err)
		}
	default:
		t.Fatalf("unexpected phase %s", r.Phase())
	}
}

// playGameToCompletion drives a full game with the stepGame policy.
func playGameToCompletion(t *testing.T, seed int64) *Game {
	t.Helper()

	g := testGame(t, GameConfig{Creator: "alice", DeckSeed: seed, PointsToWin: 501})
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		if err := g.AddPlayer(u); err != nil {
			t.Fatalf("add %s: %v", u, err)
		}
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	users := seatUsers(t, g)
	var seq uint64

	for steps := 0; g.Status() == StatusInProgress; steps++ {
		if steps > 10000 {
			t.Fatal("game did not complete")
		}
		seq++
		stepGame(t, g, users, seq)
	}
	return g
}

func TestGamePlaysToThreshold(t *testing.T) {
	g := playGameToCompletion(t, 77)

	if g.Status() != StatusCompleted {
		t.Fatalf("status %s, want completed", g.Status())
	}
	winner := g.Winner()
	if winner == NoTeam {
		t.Fatal("completed game has no winner")
	}
	totals := g.Scores()
	if totals[winner] < 501 {
		t.Errorf("winner total %d below threshold", totals[winner])
	}
	if g.EndReason() != EndReasonThreshold {
		t.Errorf("end reason %q, want %q", g.EndReason(), EndReasonThreshold)
	}
	if len(g.History()) == 0 {
		t.Error("no round history recorded")
	}
}

// The same seed and policy reproduce the same game exactly.
func TestGameDeterministicReplay(t *testing.T) {
	first := playGameToCompletion(t, 1234)
	second := playGameToCompletion(t, 1234)

	if first.Winner() != second.Winner() {
		t.Errorf("winners differ: %s vs %s", first.Winner(), second.Winner())
	}
	if first.Scores() != second.Scores() {
		t.Errorf("scores differ: %v vs %v", first.Scores(), second.Scores())
	}

	h1, h2 := first.History(), second.History()
	if len(h1) != len(h2) {
		t.Fatalf("history lengths differ: %d vs %d", len(h1), len(h2))
	}
	for i := range h1 {
		if h1[i].Points != h2[i].Points || h1[i].Trump != h2[i].Trump || h1[i].Caller != h2[i].Caller {
			t.Errorf("round %d differs: %+v vs %+v", i+1, h1[i], h2[i])
		}
	}
}
