package server

import (
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"belotsrv/pkg/belot"
	"belotsrv/pkg/statemachine"
)

// RoomStatus is the lifecycle state of a lobby room.
type RoomStatus string

const (
	RoomOpen     RoomStatus = "open"
	RoomFull     RoomStatus = "full"
	RoomStarting RoomStatus = "starting"
	RoomClosed   RoomStatus = "closed"
)

// RoomCapacity is the number of seats a Belot room offers.
const RoomCapacity = belot.NumSeats

// Defaults for room knobs, overridable through RoomConfig.
const (
	DefaultMaxChatRetained = 200
	DefaultInvitationTTL   = 24 * time.Hour
)

// Member is one user seated in a room.
type Member struct {
	UserID   string    `json:"user_id"`
	Ready    bool      `json:"ready"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatMessage is one retained room message.
type ChatMessage struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// InvitationStatus tracks an invitation through its lifecycle.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation lets a user into a private room while it is pending.
type Invitation struct {
	ID        string           `json:"id"`
	RoomID    string           `json:"room_id"`
	Inviter   string           `json:"inviter"`
	Invitee   string           `json:"invitee"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RoomConfig holds configuration for a new room.
type RoomConfig struct {
	ID      string
	Code    string
	Name    string
	Creator string
	Private bool
	Log     slog.Logger

	PointsToWin     int
	MaxChatRetained int
	InvitationTTL   time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Room is the lobby entity: membership, readiness, chat, invitations. The
// manager serializes access per room; the mutex guards direct snapshot
// reads.
type Room struct {
	mu  sync.RWMutex
	cfg RoomConfig
	log slog.Logger
	now func() time.Time

	status  RoomStatus
	creator string
	members []*Member // join order
	chat    []ChatMessage
	invites map[string]*Invitation
	gameID  string
	closed  bool

	lastActive time.Time

	sm *statemachine.StateMachine[Room]
}

// NewRoom creates a room with the creator already seated.
func NewRoom(cfg RoomConfig) *Room {
	if cfg.MaxChatRetained == 0 {
		cfg.MaxChatRetained = DefaultMaxChatRetained
	}
	if cfg.InvitationTTL == 0 {
		cfg.InvitationTTL = DefaultInvitationTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}

	r := &Room{
		cfg:        cfg,
		log:        log,
		now:        now,
		status:     RoomOpen,
		creator:    cfg.Creator,
		invites:    make(map[string]*Invitation),
		lastActive: now(),
	}
	r.sm = statemachine.NewStateMachine(r, roomStateOpen)
	r.sm.SetCallback(func(state string, ev statemachine.StateEvent) {
		if ev == statemachine.StateEntered {
			r.log.Debugf("room %s entered state %s", r.cfg.ID, state)
		}
	})

	r.members = append(r.members, &Member{UserID: cfg.Creator, JoinedAt: now()})
	return r
}

// Room lifecycle states. Each state inspects the membership and the
// starting/closed markers and settles the status field.

func roomStateOpen(r *Room, cb statemachine.Callback) statemachine.StateFn[Room] {
	switch {
	case len(r.members) == 0:
		if cb != nil {
			cb("CLOSED", statemachine.StateEntered)
		}
		r.status = RoomClosed
		return nil
	case r.gameID != "":
		if cb != nil {
			cb("STARTING", statemachine.StateEntered)
		}
		r.status = RoomStarting
		return roomStateStarting
	case len(r.members) == RoomCapacity:
		if cb != nil {
			cb("FULL", statemachine.StateEntered)
		}
		r.status = RoomFull
		return roomStateFull
	default:
		r.status = RoomOpen
		return roomStateOpen
	}
}

func roomStateFull(r *Room, cb statemachine.Callback) statemachine.StateFn[Room] {
	if r.gameID != "" {
		if cb != nil {
			cb("STARTING", statemachine.StateEntered)
		}
		r.status = RoomStarting
		return roomStateStarting
	}
	if len(r.members) < RoomCapacity {
		if cb != nil {
			cb("OPEN", statemachine.StateEntered)
		}
		r.status = RoomOpen
		return roomStateOpen
	}
	r.status = RoomFull
	return roomStateFull
}

func roomStateStarting(r *Room, cb statemachine.Callback) statemachine.StateFn[Room] {
	switch {
	case r.closed:
		// The game got underway; the room's job is done. Terminal.
		if cb != nil {
			cb("CLOSED", statemachine.StateEntered)
		}
		r.status = RoomClosed
		return nil
	case r.gameID == "":
		// The game never got going; the start rolls back.
		if cb != nil {
			cb("FULL", statemachine.StateEntered)
		}
		r.status = RoomFull
		return roomStateFull
	default:
		r.status = RoomStarting
		return roomStateStarting
	}
}

func (r *Room) settleStatusLocked() {
	r.lastActive = r.now()
	r.sm.Step()
}

// Join seats a user. Private rooms require a pending invitation, which is
// consumed on entry.
func (r *Room) Join(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == RoomClosed || r.status == RoomStarting {
		return belot.E(belot.KindWrongPhase, "room %s is %s", r.cfg.ID, r.status)
	}
	if r.memberLocked(userID) != nil {
		return belot.E(belot.KindDuplicate, "user %s already in room", userID)
	}
	if len(r.members) >= RoomCapacity {
		return belot.E(belot.KindCapacity, "room %s is full", r.cfg.ID)
	}
	if r.cfg.Private {
		inv := r.pendingInvitationLocked(userID)
		if inv == nil {
			return belot.E(belot.KindForbidden, "room %s is private", r.cfg.ID)
		}
		inv.Status = InvitationAccepted
	}

	r.members = append(r.members, &Member{UserID: userID, JoinedAt: r.now()})
	r.settleStatusLocked()
	return nil
}

// Leave unseats a user. Ownership transfers to the earliest-joined
// remaining member; the last member leaving closes the room. Returns true
// when the room is now closed and should be disposed.
func (r *Room) Leave(userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, m := range r.members {
		if m.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, belot.E(belot.KindNotMember, "user %s is not in room %s", userID, r.cfg.ID)
	}

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	if userID == r.creator && len(r.members) > 0 {
		// Members are kept in join order, so the head is the earliest.
		r.creator = r.members[0].UserID
		r.log.Infof("room %s ownership transferred to %s", r.cfg.ID, r.creator)
	}

	r.settleStatusLocked()
	return r.status == RoomClosed, nil
}

// SetReady flags a member ready or unready.
func (r *Room) SetReady(userID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.memberLocked(userID)
	if m == nil {
		return belot.E(belot.KindNotMember, "user %s is not in room %s", userID, r.cfg.ID)
	}
	if r.status == RoomStarting || r.status == RoomClosed {
		return belot.E(belot.KindWrongPhase, "room %s is %s", r.cfg.ID, r.status)
	}
	m.Ready = ready
	r.lastActive = r.now()
	return nil
}

// AllReady reports whether a full room is ready to start.
func (r *Room) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.members) != RoomCapacity {
		return false
	}
	for _, m := range r.members {
		if !m.Ready {
			return false
		}
	}
	return true
}

// AddChat appends a message to the bounded chat ring.
func (r *Room) AddChat(userID, text string) (ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(userID) == nil {
		return ChatMessage{}, belot.E(belot.KindNotMember, "user %s is not in room %s", userID, r.cfg.ID)
	}
	if text == "" {
		return ChatMessage{}, belot.E(belot.KindIllegalMove, "empty chat message")
	}

	msg := ChatMessage{
		ID:     uuid.New().String(),
		UserID: userID,
		Text:   text,
		SentAt: r.now(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > r.cfg.MaxChatRetained {
		r.chat = r.chat[len(r.chat)-r.cfg.MaxChatRetained:]
	}
	r.lastActive = r.now()
	return msg, nil
}

// Invite creates a pending invitation from a member to an outside user.
func (r *Room) Invite(inviter, invitee string) (*Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(inviter) == nil {
		return nil, belot.E(belot.KindNotMember, "user %s is not in room %s", inviter, r.cfg.ID)
	}
	if r.memberLocked(invitee) != nil {
		return nil, belot.E(belot.KindDuplicate, "user %s already in room", invitee)
	}
	if r.pendingInvitationLocked(invitee) != nil {
		return nil, belot.E(belot.KindDuplicate, "user %s already invited", invitee)
	}

	now := r.now()
	inv := &Invitation{
		ID:        uuid.New().String(),
		RoomID:    r.cfg.ID,
		Inviter:   inviter,
		Invitee:   invitee,
		Status:    InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(r.cfg.InvitationTTL),
	}
	r.invites[inv.ID] = inv
	r.lastActive = now
	return inv, nil
}

// RespondInvitation resolves a pending invitation. Declining ends it;
// accepting seats the invitee immediately, capacity permitting. On a
// capacity or phase error the invitation stays pending.
func (r *Room) RespondInvitation(invitationID, userID string, accept bool) (*Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invites[invitationID]
	if !ok {
		return nil, belot.E(belot.KindNotFound, "unknown invitation %s", invitationID)
	}
	if inv.Invitee != userID {
		return nil, belot.E(belot.KindForbidden, "invitation %s is not for %s", invitationID, userID)
	}
	if r.now().After(inv.ExpiresAt) {
		inv.Status = InvitationExpired
	}
	if inv.Status != InvitationPending {
		return nil, belot.E(belot.KindWrongPhase, "invitation %s is %s", invitationID, inv.Status)
	}

	if !accept {
		inv.Status = InvitationDeclined
		r.lastActive = r.now()
		cp := *inv
		return &cp, nil
	}

	if r.status == RoomClosed || r.status == RoomStarting {
		return nil, belot.E(belot.KindWrongPhase, "room %s is %s", r.cfg.ID, r.status)
	}
	if r.memberLocked(userID) == nil {
		if len(r.members) >= RoomCapacity {
			return nil, belot.E(belot.KindCapacity, "room %s is full", r.cfg.ID)
		}
		r.members = append(r.members, &Member{UserID: userID, JoinedAt: r.now()})
	}
	inv.Status = InvitationAccepted
	r.settleStatusLocked()
	cp := *inv
	return &cp, nil
}

// ExpireInvitations sweeps pending invitations past their TTL and returns
// the ones that expired.
func (r *Room) ExpireInvitations() []*Invitation {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var expired []*Invitation
	for _, inv := range r.invites {
		if inv.Status == InvitationPending && now.After(inv.ExpiresAt) {
			inv.Status = InvitationExpired
			cp := *inv
			expired = append(expired, &cp)
		}
	}
	return expired
}

// MarkStarting transitions the room into a running game. Only the creator
// of a full, all-ready room may start, and only once.
func (r *Room) MarkStarting(userID, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(userID) == nil {
		return belot.E(belot.KindNotMember, "user %s is not in room %s", userID, r.cfg.ID)
	}
	if userID != r.creator {
		return belot.E(belot.KindForbidden, "only the room owner starts the game")
	}
	if r.status != RoomFull {
		return belot.E(belot.KindWrongPhase, "room %s is %s, not full", r.cfg.ID, r.status)
	}
	for _, m := range r.members {
		if !m.Ready {
			return belot.E(belot.KindWrongPhase, "member %s is not ready", m.UserID)
		}
	}

	r.gameID = gameID
	r.settleStatusLocked()
	return nil
}

// Close retires a starting room once its game is underway. The closed
// state is terminal; a room is used for exactly one game.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.settleStatusLocked()
}

// AbortStart rolls a starting room back to full when its game could not
// be created.
func (r *Room) AbortStart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gameID = ""
	r.settleStatusLocked()
}

// Accessors.

// ID returns the room id.
func (r *Room) ID() string { return r.cfg.ID }

// Code returns the join code.
func (r *Room) Code() string { return r.cfg.Code }

// Name returns the display name.
func (r *Room) Name() string { return r.cfg.Name }

// Private reports whether joining requires an invitation.
func (r *Room) Private() bool { return r.cfg.Private }

// PointsToWin returns the threshold configured for games of this room.
func (r *Room) PointsToWin() int { return r.cfg.PointsToWin }

// Status returns the lifecycle state.
func (r *Room) Status() RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Creator returns the current owner.
func (r *Room) Creator() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creator
}

// GameID returns the running game's id, or "".
func (r *Room) GameID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gameID
}

// Members returns the members in join order.
func (r *Room) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Member, len(r.members))
	for i, m := range r.members {
		out[i] = *m
	}
	return out
}

// MemberIDs returns the member user ids in join order.
func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.members))
	for i, m := range r.members {
		out[i] = m.UserID
	}
	return out
}

// Chat returns the retained messages, oldest first.
func (r *Room) Chat() []ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

// IdleSince returns the time of the last mutation.
func (r *Room) IdleSince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}

func (r *Room) memberLocked(userID string) *Member {
	for _, m := range r.members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

func (r *Room) pendingInvitationLocked(userID string) *Invitation {
	now := r.now()
	for _, inv := range r.invites {
		if inv.Invitee == userID && inv.Status == InvitationPending && now.Before(inv.ExpiresAt) {
			return inv
		}
	}
	return nil
}

// restoreMembers injects persisted members, bypassing join rules.
func (r *Room) restoreMembers(members []*Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = members
	r.settleStatusLocked()
}

// restoreChat injects persisted chat history.
func (r *Room) restoreChat(msgs []ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = msgs
}

// restoreInvitations injects persisted invitations.
func (r *Room) restoreInvitations(invs []*Invitation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range invs {
		r.invites[inv.ID] = inv
	}
}

const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newJoinCode generates a 6-character join code. Uniqueness among live
// rooms is the manager's concern.
func newJoinCode(rng *rand.Rand) string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = joinCodeAlphabet[rng.Intn(len(joinCodeAlphabet))]
	}
	return string(code)
}
