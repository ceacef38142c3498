package server

import (
	"encoding/json"
	"fmt"

	"belotsrv/pkg/belot"
	"belotsrv/pkg/server/internal/db"
)

// restore rebuilds rooms and in-progress games from the store on startup.
// Rooms come back verbatim; games come back by reinstating the last
// snapshot and replaying the live round's move log over the persisted deal.
// A room whose game started was persisted closed, so it is not reloaded:
// the game resumes on its own and its room row is deleted when it ends.
func (m *Manager) restore() error {
	rooms, err := m.db.LoadRooms(string(RoomClosed))
	if err != nil {
		return fmt.Errorf("loading rooms: %w", err)
	}
	for _, state := range rooms {
		if err := m.restoreRoom(state); err != nil {
			m.log.Errorf("restoring room %s: %v", state.ID, err)
		}
	}

	games, err := m.db.LoadGames(string(belot.StatusInProgress))
	if err != nil {
		return fmt.Errorf("loading games: %w", err)
	}
	for _, state := range games {
		if err := m.restoreGame(state); err != nil {
			m.log.Errorf("restoring game %s: %v", state.ID, err)
			// A game that cannot be replayed is abandoned; its closed
			// room row goes with it.
			state.Status = string(belot.StatusAborted)
			if err := m.db.SaveGame(state); err != nil {
				m.log.Errorf("marking game %s aborted: %v", state.ID, err)
			}
			if state.RoomID != "" {
				if err := m.db.DeleteRoom(state.RoomID); err != nil {
					m.log.Errorf("deleting room %s: %v", state.RoomID, err)
				}
			}
		}
	}

	m.log.Infof("restored %d rooms, %d games", len(rooms), len(games))
	return nil
}

func (m *Manager) restoreRoom(state *db.RoomState) error {
	room := NewRoom(RoomConfig{
		ID:              state.ID,
		Code:            state.Code,
		Name:            state.Name,
		Creator:         state.Creator,
		Private:         state.Private,
		Log:             m.roomLogger(),
		PointsToWin:     state.PointsToWin,
		MaxChatRetained: m.cfg.MaxChatRetained,
		InvitationTTL:   m.cfg.InvitationTTL,
		Now:             m.now,
	})

	memberStates, err := m.db.LoadMembers(state.ID)
	if err != nil {
		return fmt.Errorf("loading members: %w", err)
	}
	members := make([]*Member, 0, len(memberStates))
	for _, ms := range memberStates {
		members = append(members, &Member{
			UserID:   ms.UserID,
			Ready:    ms.Ready,
			JoinedAt: ms.JoinedAt,
		})
	}
	room.restoreMembers(members)

	msgs, err := m.db.LoadMessages(state.ID, room.cfg.MaxChatRetained)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}
	chat := make([]ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		chat = append(chat, ChatMessage{
			ID: msg.ID, UserID: msg.UserID, Text: msg.Text, SentAt: msg.SentAt,
		})
	}
	room.restoreChat(chat)

	invStates, err := m.db.LoadInvitations(state.ID)
	if err != nil {
		return fmt.Errorf("loading invitations: %w", err)
	}
	invs := make([]*Invitation, 0, len(invStates))
	for _, is := range invStates {
		invs = append(invs, &Invitation{
			ID:        is.ID,
			RoomID:    is.RoomID,
			Inviter:   is.Inviter,
			Invitee:   is.Invitee,
			Status:    InvitationStatus(is.Status),
			CreatedAt: is.CreatedAt,
			ExpiresAt: is.ExpiresAt,
		})
	}
	room.restoreInvitations(invs)

	m.mu.Lock()
	m.rooms[room.ID()] = room
	m.codes[room.Code()] = room.ID()
	for _, member := range members {
		m.indexUserLocked(member.UserID, room.ID())
	}
	m.spawnActor(room.ID())
	m.mu.Unlock()
	return nil
}

func (m *Manager) restoreGame(state *db.GameState) error {
	var seats []string
	if err := json.Unmarshal([]byte(state.Seats), &seats); err != nil {
		return fmt.Errorf("unmarshaling seats: %w", err)
	}
	if len(seats) != belot.NumSeats {
		return fmt.Errorf("game has %d seats", len(seats))
	}

	// The room is gone by now; the first seat stands in as creator.
	creator := seats[0]

	players := make([]belot.Player, belot.NumSeats)
	for seat, userID := range seats {
		players[seat] = belot.Player{ID: userID, Seat: seat, Active: true}
	}

	game, err := belot.RestoreGame(belot.GameConfig{
		ID:          state.ID,
		Creator:     creator,
		Log:         m.gameLogger(),
		PointsToWin: state.PointsToWin,
		DeckSeed:    state.Seed,
	}, players, state.Dealer,
		[2]int{state.ScoreA, state.ScoreB}, nil, uint64(state.LastSeq))
	if err != nil {
		return err
	}

	roundState, err := m.db.LoadLatestRound(state.ID)
	if err != nil {
		return err
	}
	round, err := m.rebuildRound(roundState)
	if err != nil {
		return err
	}
	if err := game.AttachRound(round); err != nil {
		return err
	}

	m.mu.Lock()
	m.games[state.ID] = game
	m.gameRooms[state.ID] = state.RoomID
	for _, userID := range seats {
		m.indexUserLocked(userID, state.ID)
	}
	m.spawnActor(state.ID)
	m.mu.Unlock()
	return nil
}

// rebuildRound reinstates the persisted deal and replays the round's
// accepted moves over it.
func (m *Manager) rebuildRound(state *db.RoundState) (*belot.Round, error) {
	round := belot.NewRound(state.Number, state.Dealer)
	hands, err := handsFromState(state)
	if err != nil {
		return nil, err
	}
	if err := round.RestoreHands(hands); err != nil {
		return nil, err
	}

	moves, err := m.db.LoadMoves(state.GameID, state.Number)
	if err != nil {
		return nil, err
	}
	for _, move := range moves {
		if err := replayMove(round, move); err != nil {
			return nil, fmt.Errorf("replaying move seq %d: %w", move.Seq, err)
		}
	}
	return round, nil
}

func replayMove(round *belot.Round, move *db.Move) error {
	switch belot.ActionKind(move.Kind) {
	case belot.ActionBidTrump:
		return round.Bid(move.Seat, belot.Suit(move.Payload))
	case belot.ActionPassTrump:
		return round.Pass(move.Seat)
	case belot.ActionDeclare:
		var decls []belot.Declaration
		if move.Payload != "" {
			if err := json.Unmarshal([]byte(move.Payload), &decls); err != nil {
				return fmt.Errorf("unmarshaling declarations: %w", err)
			}
		}
		return round.Declare(move.Seat, decls)
	case belot.ActionAnnounceBelot:
		return round.AnnounceBelot(move.Seat)
	case belot.ActionPlayCard:
		card, err := belot.ParseCard(move.Payload)
		if err != nil {
			return err
		}
		return round.PlayCard(move.Seat, card)
	default:
		return fmt.Errorf("unknown move kind %q", move.Kind)
	}
}
