package server

import (
	"encoding/json"

	"belotsrv/pkg/belot"
)

// HandleMessage decodes one inbound client message and routes it. Errors go
// back to the originator only, as an error notification; nothing is
// broadcast for a rejected command.
func (m *Manager) HandleMessage(userID string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.sendError(userID, 0, belot.E(belot.KindIllegalMove, "malformed message: %v", err))
		return
	}

	if err := m.handleCommand(userID, &env); err != nil {
		m.log.Debugf("command %s from %s rejected: %v", env.Cmd, userID, err)
		m.sendError(userID, env.Seq, err)
	}
}

func (m *Manager) handleCommand(userID string, env *Envelope) error {
	switch env.Cmd {
	case CmdCreateRoom:
		_, err := m.CreateRoom(userID, env.Name, env.Private, env.PointsToWin)
		return err

	case CmdJoinRoom:
		return m.JoinRoom(userID, env.RoomID)

	case CmdJoinByCode:
		_, err := m.JoinByCode(userID, env.Code)
		return err

	case CmdLeaveRoom:
		return m.LeaveRoom(userID, env.RoomID)

	case CmdSetReady:
		return m.SetReady(userID, env.RoomID, env.Ready)

	case CmdChat:
		return m.SendChat(userID, env.RoomID, env.Text)

	case CmdInvite:
		return m.InviteUser(userID, env.RoomID, env.Invitee)

	case CmdRespondInvitation:
		return m.RespondInvitation(userID, env.RoomID, env.InvitationID, env.Accept)

	case CmdStartGame:
		_, err := m.StartGame(userID, env.RoomID)
		return err

	case CmdListRooms:
		m.bc.ToUser(userID, Notification{
			Type:      NoteRoomList,
			Payload:   m.ListRooms(),
			Timestamp: m.now(),
		})
		return nil

	case CmdBidTrump:
		return m.GameAction(userID, env.GameID, belot.Action{
			Seq: env.Seq, Kind: belot.ActionBidTrump, Suit: belot.Suit(env.Suit),
		})

	case CmdPassTrump:
		return m.GameAction(userID, env.GameID, belot.Action{
			Seq: env.Seq, Kind: belot.ActionPassTrump,
		})

	case CmdDeclare:
		return m.GameAction(userID, env.GameID, belot.Action{
			Seq: env.Seq, Kind: belot.ActionDeclare, Declarations: env.Declarations,
		})

	case CmdAnnounceBelot:
		return m.GameAction(userID, env.GameID, belot.Action{
			Seq: env.Seq, Kind: belot.ActionAnnounceBelot,
		})

	case CmdPlayCard:
		card, err := belot.ParseCard(env.Card)
		if err != nil {
			return err
		}
		return m.GameAction(userID, env.GameID, belot.Action{
			Seq: env.Seq, Kind: belot.ActionPlayCard, Card: card,
		})

	case CmdLeaveGame:
		return m.LeaveGame(userID, env.GameID)

	default:
		return belot.E(belot.KindIllegalMove, "unknown command %q", env.Cmd)
	}
}

func (m *Manager) sendError(userID string, seq uint64, err error) {
	m.bc.ToUser(userID, Notification{
		Type: NoteError,
		Payload: ErrorPayload{
			Kind:   belot.KindOf(err),
			Detail: err.Error(),
			Seq:    seq,
		},
		Timestamp: m.now(),
	})
}
