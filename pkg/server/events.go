package server

import (
	"time"

	"belotsrv/pkg/belot"
)

// NotificationType names an outbound server notification. Game events carry
// the engine's event kind directly.
type NotificationType string

const (
	NoteRoomState          NotificationType = "room_state"
	NoteRoomList           NotificationType = "room_list"
	NoteChatMessage        NotificationType = "chat_message"
	NoteInvitationReceived NotificationType = "invitation_received"
	NoteInvitationResult   NotificationType = "invitation_result"
	NoteHandDealt          NotificationType = "hand_dealt"
	NoteError              NotificationType = "error"
	NoteServerShutdown     NotificationType = "server_shutdown"
)

// Notification is one outbound message to subscribers.
type Notification struct {
	Type      NotificationType `json:"type"`
	RoomID    string           `json:"room_id,omitempty"`
	GameID    string           `json:"game_id,omitempty"`
	Payload   interface{}      `json:"payload,omitempty"`
	Timestamp time.Time        `json:"ts"`
}

// ErrorPayload is sent to the originator of a rejected command only.
type ErrorPayload struct {
	Kind   belot.Kind `json:"kind"`
	Detail string     `json:"detail"`
	Seq    uint64     `json:"seq,omitempty"`
}

// HandPayload carries a player's private cards on their user topic.
type HandPayload struct {
	Round int          `json:"round"`
	Seat  int          `json:"seat"`
	Cards []belot.Card `json:"cards"`
}

// Inbound commands, one per client-visible operation.
const (
	CmdCreateRoom        = "create_room"
	CmdJoinRoom          = "join_room"
	CmdJoinByCode        = "join_by_code"
	CmdLeaveRoom         = "leave_room"
	CmdSetReady          = "set_ready"
	CmdChat              = "chat"
	CmdInvite            = "invite"
	CmdRespondInvitation = "respond_invitation"
	CmdStartGame         = "start_game"
	CmdListRooms         = "list_rooms"
	CmdBidTrump          = "bid_trump"
	CmdPassTrump         = "pass_trump"
	CmdDeclare           = "declare"
	CmdAnnounceBelot     = "announce_belot"
	CmdPlayCard          = "play_card"
	CmdLeaveGame         = "leave_game"
)

// Envelope is one inbound client message. The transport authenticates the
// user; the envelope never carries identity.
type Envelope struct {
	Cmd string `json:"cmd"`
	Seq uint64 `json:"seq,omitempty"`

	RoomID string `json:"room_id,omitempty"`
	GameID string `json:"game_id,omitempty"`
	Code   string `json:"code,omitempty"`

	// create_room
	Name        string `json:"name,omitempty"`
	Private     bool   `json:"private,omitempty"`
	PointsToWin int    `json:"points_to_win,omitempty"`

	// room commands
	Ready        bool   `json:"ready,omitempty"`
	Text         string `json:"text,omitempty"`
	Invitee      string `json:"invitee,omitempty"`
	InvitationID string `json:"invitation_id,omitempty"`
	Accept       bool   `json:"accept,omitempty"`

	// game commands
	Suit         string              `json:"suit,omitempty"`
	Card         string              `json:"card,omitempty"`
	Declarations []belot.Declaration `json:"declarations,omitempty"`
}

func gameNotification(gameID string, ev belot.Event) Notification {
	return Notification{
		Type:      NotificationType(ev.Kind),
		GameID:    gameID,
		Payload:   ev.Payload,
		Timestamp: time.Now(),
	}
}
