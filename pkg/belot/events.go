package belot

// EventKind names an outbound game event.
type EventKind string

const (
	EvGameStarted           EventKind = "game_started"
	EvTrumpSelected         EventKind = "trump_selected"
	EvBidPassed             EventKind = "bid_passed"
	EvDeclarationsAnnounced EventKind = "declarations_announced"
	EvBelotAnnounced        EventKind = "belot_announced"
	EvCardPlayed            EventKind = "card_played"
	EvTrickCompleted        EventKind = "trick_completed"
	EvRoundStarted          EventKind = "round_started"
	EvRoundCompleted        EventKind = "round_completed"
	EvGameCompleted         EventKind = "game_completed"
)

// Event is one outbound notification produced by applying an action. The
// payload is one of the *Info structs below.
type Event struct {
	Kind    EventKind   `json:"kind"`
	Payload interface{} `json:"payload"`
}

// SeatInfo binds a user to a fixed seat.
type SeatInfo struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
}

// GameStartedInfo announces the initial public game state.
type GameStartedInfo struct {
	GameID      string     `json:"game_id"`
	Seats       []SeatInfo `json:"seats"`
	Dealer      int        `json:"dealer"`
	PointsToWin int        `json:"points_to_win"`
}

// RoundStartedInfo announces a fresh deal.
type RoundStartedInfo struct {
	Round  int `json:"round"`
	Dealer int `json:"dealer"`
	Bidder int `json:"bidder"`
}

// TrumpSelectedInfo announces the outcome of bidding.
type TrumpSelectedInfo struct {
	Round  int  `json:"round"`
	Trump  Suit `json:"trump"`
	Caller int  `json:"caller"`
	Forced bool `json:"forced"`
}

// BidPassedInfo announces a pass and who bids next.
type BidPassedInfo struct {
	Round      int  `json:"round"`
	Seat       int  `json:"seat"`
	NextBidder int  `json:"next_bidder"`
	Forced     bool `json:"forced"`
}

// DeclarationsInfo announces a seat's accepted declarations.
type DeclarationsInfo struct {
	Round        int           `json:"round"`
	Seat         int           `json:"seat"`
	Declarations []Declaration `json:"declarations"`
}

// BelotInfo announces a belot.
type BelotInfo struct {
	Round int `json:"round"`
	Seat  int `json:"seat"`
}

// CardPlayedInfo announces a played card.
type CardPlayedInfo struct {
	Round     int  `json:"round"`
	Seat      int  `json:"seat"`
	Card      Card `json:"card"`
	NextActor int  `json:"next_actor"`
}

// TrickCompletedInfo announces a resolved trick.
type TrickCompletedInfo struct {
	Round  int          `json:"round"`
	Winner int          `json:"winner"`
	Points int          `json:"points"`
	Plays  []PlayedCard `json:"plays"`
}

// RoundCompletedInfo announces round resolution and running totals.
type RoundCompletedInfo struct {
	Round       int    `json:"round"`
	Trump       Suit   `json:"trump"`
	Caller      int    `json:"caller"`
	Scores      [2]int `json:"scores"`
	Totals      [2]int `json:"totals"`
	CallingFell bool   `json:"calling_fell"`
	CapotTeam   TeamID `json:"capot_team"`
}

// GameCompletedInfo announces the final outcome.
type GameCompletedInfo struct {
	Winner    TeamID `json:"winner"`
	Totals    [2]int `json:"totals"`
	EndReason string `json:"end_reason"`
}

// ActionKind names an inbound game action.
type ActionKind string

const (
	ActionBidTrump      ActionKind = "bid_trump"
	ActionPassTrump     ActionKind = "pass_trump"
	ActionDeclare       ActionKind = "declare"
	ActionAnnounceBelot ActionKind = "announce_belot"
	ActionPlayCard      ActionKind = "play_card"
	ActionPlayerLeft    ActionKind = "player_left"
)

// Action is one inbound, sequenced game event.
type Action struct {
	Seq          uint64
	Actor        string
	Kind         ActionKind
	Suit         Suit
	Card         Card
	Declarations []Declaration
	Reason       string
}

// ApplyResult is the outcome of a successfully applied action. A retried
// sequence number returns the cached result with Replayed set so callers
// can suppress re-broadcasting.
type ApplyResult struct {
	Seq      uint64
	Events   []Event
	Replayed bool
}
