package server

import (
	"encoding/json"
	"fmt"

	"belotsrv/pkg/belot"
	"belotsrv/pkg/server/internal/db"
)

// RoomSnapshot is the public view of a room, broadcast as room_state.
type RoomSnapshot struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Creator     string     `json:"creator"`
	Private     bool       `json:"private"`
	Status      RoomStatus `json:"status"`
	PointsToWin int        `json:"points_to_win"`
	Members     []Member   `json:"members"`
	GameID      string     `json:"game_id,omitempty"`
}

func snapshotRoom(r *Room) RoomSnapshot {
	return RoomSnapshot{
		ID:          r.ID(),
		Code:        r.Code(),
		Name:        r.Name(),
		Creator:     r.Creator(),
		Private:     r.Private(),
		Status:      r.Status(),
		PointsToWin: r.PointsToWin(),
		Members:     r.Members(),
		GameID:      r.GameID(),
	}
}

// RoundSnapshot is the public view of the round in progress. Hands are
// never included; they travel on user topics only.
type RoundSnapshot struct {
	Number       int                       `json:"number"`
	Dealer       int                       `json:"dealer"`
	Phase        belot.Phase               `json:"phase"`
	Trump        belot.Suit                `json:"trump,omitempty"`
	Caller       int                       `json:"caller"`
	CurrentActor int                       `json:"current_actor"`
	Trick        []belot.PlayedCard        `json:"trick"`
	TricksWon    [2]int                    `json:"tricks_won"`
	Declarations []belot.PlayerDeclaration `json:"declarations,omitempty"`
	BelotSeats   []int                     `json:"belot_seats,omitempty"`
}

// GameSnapshot is the public view of a game session.
type GameSnapshot struct {
	ID        string               `json:"id"`
	Status    belot.GameStatus     `json:"status"`
	Players   []belot.Player       `json:"players"`
	Scores    [2]int               `json:"scores"`
	Dealer    int                  `json:"dealer"`
	Round     *RoundSnapshot       `json:"round,omitempty"`
	History   []belot.RoundSummary `json:"history,omitempty"`
	Winner    belot.TeamID         `json:"winner"`
	EndReason string               `json:"end_reason,omitempty"`
}

func snapshotGame(g *belot.Game) GameSnapshot {
	snap := GameSnapshot{
		ID:        g.ID(),
		Status:    g.Status(),
		Players:   g.Players(),
		Scores:    g.Scores(),
		Dealer:    g.Dealer(),
		History:   g.History(),
		Winner:    g.Winner(),
		EndReason: g.EndReason(),
	}
	if r := g.Round(); r != nil {
		snap.Round = &RoundSnapshot{
			Number:       r.Number(),
			Dealer:       r.Dealer(),
			Phase:        r.Phase(),
			Trump:        r.Trump(),
			Caller:       r.Caller(),
			CurrentActor: r.CurrentActor(),
			Trick:        r.CurrentTrick(),
			TricksWon:    r.TricksWon(),
			Declarations: r.Declarations(),
			BelotSeats:   r.BelotSeats(),
		}
	}
	return snap
}

// Persistence conversions.

func roomToState(r *Room) *db.RoomState {
	return &db.RoomState{
		ID:          r.ID(),
		Code:        r.Code(),
		Name:        r.Name(),
		Creator:     r.Creator(),
		Private:     r.Private(),
		Status:      string(r.Status()),
		GameID:      r.GameID(),
		PointsToWin: r.PointsToWin(),
	}
}

func gameToState(g *belot.Game, roomID string) (*db.GameState, error) {
	players := g.Players()
	seats := make([]string, len(players))
	for _, p := range players {
		seats[p.Seat] = p.ID
	}
	seatsJSON, err := json.Marshal(seats)
	if err != nil {
		return nil, fmt.Errorf("marshaling seats: %w", err)
	}

	scores := g.Scores()
	return &db.GameState{
		ID:          g.ID(),
		RoomID:      roomID,
		Status:      string(g.Status()),
		PointsToWin: g.Config().PointsToWin,
		Seed:        g.Seed(),
		Dealer:      g.Dealer(),
		ScoreA:      scores[belot.TeamA],
		ScoreB:      scores[belot.TeamB],
		Winner:      g.Winner().String(),
		EndReason:   g.EndReason(),
		LastSeq:     int64(g.LastSeq()),
		Seats:       string(seatsJSON),
	}, nil
}

func roundToState(g *belot.Game) (*db.RoundState, error) {
	r := g.Round()
	if r == nil {
		return nil, nil
	}

	var hands [belot.NumSeats][]string
	for seat := 0; seat < belot.NumSeats; seat++ {
		for _, c := range r.StartingHand(seat) {
			hands[seat] = append(hands[seat], c.Code())
		}
	}
	handsJSON, err := json.Marshal(hands)
	if err != nil {
		return nil, fmt.Errorf("marshaling hands: %w", err)
	}

	return &db.RoundState{
		GameID:        g.ID(),
		Number:        r.Number(),
		Dealer:        r.Dealer(),
		Trump:         string(r.Trump()),
		Caller:        r.Caller(),
		StartingHands: string(handsJSON),
	}, nil
}

func handsFromState(state *db.RoundState) ([belot.NumSeats][]belot.Card, error) {
	var codes [belot.NumSeats][]string
	var hands [belot.NumSeats][]belot.Card
	if err := json.Unmarshal([]byte(state.StartingHands), &codes); err != nil {
		return hands, fmt.Errorf("unmarshaling hands: %w", err)
	}
	for seat := range codes {
		for _, code := range codes[seat] {
			card, err := belot.ParseCard(code)
			if err != nil {
				return hands, err
			}
			hands[seat] = append(hands[seat], card)
		}
	}
	return hands, nil
}
