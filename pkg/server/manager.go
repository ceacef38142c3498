package server

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/vctt94/bisonbotkit/logging"

	"belotsrv/pkg/belot"
	"belotsrv/pkg/server/internal/db"
)

// Defaults for manager knobs.
const (
	DefaultEventTimeout    = 5 * time.Second
	DefaultRoomIdleTimeout = time.Hour
	reaperInterval         = time.Minute
)

// Config holds the session manager dependencies and knobs.
type Config struct {
	DB          Database
	LogBackend  *logging.LogBackend
	Broadcaster Broadcaster

	EventTimeout    time.Duration
	RoomIdleTimeout time.Duration
	InvitationTTL   time.Duration
	MaxChatRetained int

	// DeckSeed pins every game's deck RNG, for tests; 0 means each game
	// draws its own.
	DeckSeed int64

	Now func() time.Time
}

// actor serializes all work on one entity through a mailbox goroutine.
type actor struct {
	id      string
	mailbox chan func()
	quit    chan struct{}
}

// Manager is the process-wide session root: it owns every live Room and
// Game, one mailbox goroutine per entity, and the registries that resolve
// ids, join codes and users to entities.
type Manager struct {
	cfg Config
	log slog.Logger
	db  Database
	bc  Broadcaster

	mu        sync.RWMutex
	rooms     map[string]*Room
	games     map[string]*belot.Game
	gameRooms map[string]string // game id -> room id
	codes     map[string]string // join code -> room id
	users     map[string]map[string]struct{} // user id -> entity ids
	actors    map[string]*actor
	closed    bool

	rngMu sync.Mutex
	rng   *rand.Rand

	now  func() time.Time
	quit chan struct{}
	wg   sync.WaitGroup
}

// NewManager builds the manager and restores persisted rooms and games.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("manager requires a database")
	}
	if cfg.Broadcaster == nil {
		return nil, fmt.Errorf("manager requires a broadcaster")
	}
	if cfg.EventTimeout == 0 {
		cfg.EventTimeout = DefaultEventTimeout
	}
	if cfg.RoomIdleTimeout == 0 {
		cfg.RoomIdleTimeout = DefaultRoomIdleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var log slog.Logger = slog.Disabled
	if cfg.LogBackend != nil {
		log = cfg.LogBackend.Logger("SRV")
	}

	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("seeding rng: %w", err)
	}

	m := &Manager{
		cfg:       cfg,
		log:       log,
		db:        cfg.DB,
		bc:        cfg.Broadcaster,
		rooms:     make(map[string]*Room),
		games:     make(map[string]*belot.Game),
		gameRooms: make(map[string]string),
		codes:     make(map[string]string),
		users:     make(map[string]map[string]struct{}),
		actors:    make(map[string]*actor),
		rng:       rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(buf[:])))),
		now:       cfg.Now,
		quit:      make(chan struct{}),
	}

	if err := m.restore(); err != nil {
		return nil, fmt.Errorf("restoring persisted state: %w", err)
	}

	m.wg.Add(1)
	go m.reaper()

	return m, nil
}

// spawnActor registers a mailbox goroutine for an entity.
func (m *Manager) spawnActor(id string) {
	a := &actor{
		id:      id,
		mailbox: make(chan func(), 32),
		quit:    make(chan struct{}),
	}
	m.actors[id] = a
	m.wg.Add(1)
	go m.runActor(a)
}

func (m *Manager) runActor(a *actor) {
	defer m.wg.Done()
	for {
		select {
		case task := <-a.mailbox:
			task()
		case <-a.quit:
			// Drain what is already queued, then exit.
			for {
				select {
				case task := <-a.mailbox:
					task()
				default:
					return
				}
			}
		}
	}
}

// releaseActor stops an entity's mailbox.
func (m *Manager) releaseActor(id string) {
	m.mu.Lock()
	a, ok := m.actors[id]
	if ok {
		delete(m.actors, id)
	}
	m.mu.Unlock()
	if ok {
		close(a.quit)
	}
}

// Task lifecycle markers for dispatch.
const (
	taskPending int32 = iota
	taskRunning
	taskAbandoned
)

// dispatch runs fn on the entity's mailbox and waits for it, bounded by the
// per-event deadline. A task whose deadline passes before it starts is
// abandoned: the caller gets a timeout error and the event never mutates
// state. A task that is already running finishes either way.
func (m *Manager) dispatch(entityID string, fn func()) error {
	m.mu.RLock()
	a, ok := m.actors[entityID]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return belot.E(belot.KindWrongPhase, "server is shutting down")
	}
	if !ok {
		return belot.E(belot.KindNotFound, "unknown entity %s", entityID)
	}

	var state atomic.Int32
	done := make(chan struct{})
	task := func() {
		defer close(done)
		if !state.CompareAndSwap(taskPending, taskRunning) {
			return
		}
		fn()
	}

	deadline := time.NewTimer(m.cfg.EventTimeout)
	defer deadline.Stop()

	select {
	case a.mailbox <- task:
	case <-deadline.C:
		return belot.E(belot.KindTimeout, "mailbox of %s is saturated", entityID)
	}

	select {
	case <-done:
		return nil
	case <-deadline.C:
		if state.CompareAndSwap(taskPending, taskAbandoned) {
			return belot.E(belot.KindTimeout, "event for %s timed out in queue", entityID)
		}
		// Already started; it must run to completion to keep the entity
		// consistent.
		<-done
		return nil
	}
}

func (m *Manager) roomByID(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, belot.E(belot.KindNotFound, "unknown room %s", roomID)
	}
	return r, nil
}

func (m *Manager) gameByID(gameID string) (*belot.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, belot.E(belot.KindNotFound, "unknown game %s", gameID)
	}
	return g, nil
}

// User membership index: which rooms and games each user currently sits
// in, so per-user work never scans every live entity.

func (m *Manager) indexUserLocked(userID, entityID string) {
	set := m.users[userID]
	if set == nil {
		set = make(map[string]struct{})
		m.users[userID] = set
	}
	set[entityID] = struct{}{}
}

func (m *Manager) indexUser(userID, entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexUserLocked(userID, entityID)
}

func (m *Manager) unindexUserLocked(userID, entityID string) {
	set := m.users[userID]
	if set == nil {
		return
	}
	delete(set, entityID)
	if len(set) == 0 {
		delete(m.users, userID)
	}
}

func (m *Manager) unindexUser(userID, entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unindexUserLocked(userID, entityID)
}

// uniqueJoinCode draws codes until one is free among live rooms.
func (m *Manager) uniqueJoinCode() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for {
		code := newJoinCode(m.rng)
		if _, taken := m.codes[code]; !taken {
			return code
		}
	}
}

// CreateRoom creates a room with the caller as owner and first member.
func (m *Manager) CreateRoom(userID, name string, private bool, pointsToWin int) (RoomSnapshot, error) {
	// Threshold validation happens up front so a bad room never exists.
	gameCfg := belot.GameConfig{PointsToWin: pointsToWin}
	if err := gameCfg.Validate(); err != nil {
		return RoomSnapshot{}, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return RoomSnapshot{}, belot.E(belot.KindWrongPhase, "server is shutting down")
	}
	code := m.uniqueJoinCode()
	room := NewRoom(RoomConfig{
		ID:              uuid.New().String(),
		Code:            code,
		Name:            name,
		Creator:         userID,
		Private:         private,
		Log:             m.roomLogger(),
		PointsToWin:     gameCfg.PointsToWin,
		MaxChatRetained: m.cfg.MaxChatRetained,
		InvitationTTL:   m.cfg.InvitationTTL,
		Now:             m.now,
	})
	m.rooms[room.ID()] = room
	m.codes[code] = room.ID()
	m.indexUserLocked(userID, room.ID())
	m.spawnActor(room.ID())
	m.mu.Unlock()

	if err := m.persistRoom(room); err != nil {
		m.log.Errorf("persisting new room %s: %v", room.ID(), err)
	}
	m.appendRoomEvent(room.ID(), userID, "created", "")

	m.log.Infof("room %s (%s) created by %s", room.ID(), code, userID)
	snap := snapshotRoom(room)
	m.bc.ToUser(userID, Notification{Type: NoteRoomState, RoomID: room.ID(), Payload: snap, Timestamp: m.now()})
	return snap, nil
}

// JoinRoom seats the user in the room.
func (m *Manager) JoinRoom(userID, roomID string) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	var joinErr error
	err = m.dispatch(roomID, func() {
		if joinErr = room.Join(userID); joinErr != nil {
			return
		}
		m.indexUser(userID, roomID)
		m.persistMembership(room, userID)
		m.appendRoomEvent(roomID, userID, "joined", "")
		m.broadcastRoomState(room)
	})
	if err != nil {
		return err
	}
	return joinErr
}

// JoinByCode resolves a join code and seats the user.
func (m *Manager) JoinByCode(userID, code string) (string, error) {
	m.mu.RLock()
	roomID, ok := m.codes[code]
	m.mu.RUnlock()
	if !ok {
		return "", belot.E(belot.KindNotFound, "unknown join code %s", code)
	}
	return roomID, m.JoinRoom(userID, roomID)
}

// LeaveRoom unseats the user. Leaving a room whose game is running is a
// forfeit: the game ends and the room is disposed along with it.
func (m *Manager) LeaveRoom(userID, roomID string) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	if gameID := room.GameID(); gameID != "" {
		if _, err := m.gameByID(gameID); err == nil {
			return m.LeaveGame(userID, gameID)
		}
	}

	var leaveErr error
	var closed bool
	err = m.dispatch(roomID, func() {
		closed, leaveErr = room.Leave(userID)
		if leaveErr != nil {
			return
		}
		m.unindexUser(userID, roomID)
		if err := m.db.DeleteMember(roomID, userID); err != nil {
			m.log.Errorf("deleting membership of %s: %v", userID, err)
		}
		m.appendRoomEvent(roomID, userID, "left", "")
		if err := m.persistRoom(room); err != nil {
			m.log.Errorf("persisting room %s: %v", roomID, err)
		}
		if !closed {
			m.broadcastRoomState(room)
		}
	})
	if err != nil {
		return err
	}
	if leaveErr != nil {
		return leaveErr
	}
	if closed {
		m.disposeRoom(room)
	}
	return nil
}

// disposeRoom removes a closed room from the registries and the store.
func (m *Manager) disposeRoom(room *Room) {
	memberIDs := room.MemberIDs()
	m.mu.Lock()
	delete(m.rooms, room.ID())
	delete(m.codes, room.Code())
	for _, memberID := range memberIDs {
		m.unindexUserLocked(memberID, room.ID())
	}
	m.mu.Unlock()
	m.releaseActor(room.ID())
	if err := m.db.DeleteRoom(room.ID()); err != nil {
		m.log.Errorf("deleting room %s: %v", room.ID(), err)
	}
	m.log.Infof("room %s closed", room.ID())
}

// SetReady flags the user ready or unready in the room.
func (m *Manager) SetReady(userID, roomID string, ready bool) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	var opErr error
	err = m.dispatch(roomID, func() {
		if opErr = room.SetReady(userID, ready); opErr != nil {
			return
		}
		m.persistMembership(room, userID)
		m.appendRoomEvent(roomID, userID, "ready", fmt.Sprintf("%v", ready))
		m.broadcastRoomState(room)
	})
	if err != nil {
		return err
	}
	return opErr
}

// SendChat appends a chat message and fans it out to the room.
func (m *Manager) SendChat(userID, roomID, text string) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	var opErr error
	err = m.dispatch(roomID, func() {
		var msg ChatMessage
		if msg, opErr = room.AddChat(userID, text); opErr != nil {
			return
		}
		if err := m.db.AppendMessage(&db.Message{
			ID: msg.ID, RoomID: roomID, UserID: userID, Text: msg.Text, SentAt: msg.SentAt,
		}); err != nil {
			m.log.Errorf("persisting chat message: %v", err)
		}
		m.bc.ToUsers(room.MemberIDs(), Notification{
			Type: NoteChatMessage, RoomID: roomID, Payload: msg, Timestamp: m.now(),
		})
	})
	if err != nil {
		return err
	}
	return opErr
}

// InviteUser creates an invitation and notifies the invitee.
func (m *Manager) InviteUser(userID, roomID, invitee string) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	var opErr error
	err = m.dispatch(roomID, func() {
		var inv *Invitation
		if inv, opErr = room.Invite(userID, invitee); opErr != nil {
			return
		}
		m.persistInvitation(inv)
		m.appendRoomEvent(roomID, userID, "invited", invitee)
		m.bc.ToUser(invitee, Notification{
			Type: NoteInvitationReceived, RoomID: roomID, Payload: inv, Timestamp: m.now(),
		})
	})
	if err != nil {
		return err
	}
	return opErr
}

// RespondInvitation resolves an invitation and notifies the inviter.
// Accepting seats the invitee in the room, capacity permitting.
func (m *Manager) RespondInvitation(userID, roomID, invitationID string, accept bool) error {
	room, err := m.roomByID(roomID)
	if err != nil {
		return err
	}

	var opErr error
	err = m.dispatch(roomID, func() {
		var inv *Invitation
		if inv, opErr = room.RespondInvitation(invitationID, userID, accept); opErr != nil {
			return
		}
		m.persistInvitation(inv)
		if inv.Status == InvitationAccepted {
			m.indexUser(userID, roomID)
			m.persistMembership(room, userID)
			m.appendRoomEvent(roomID, userID, "joined", "")
			m.broadcastRoomState(room)
		}
		m.bc.ToUser(inv.Inviter, Notification{
			Type: NoteInvitationResult, RoomID: roomID, Payload: inv, Timestamp: m.now(),
		})
	})
	if err != nil {
		return err
	}
	return opErr
}

// ListRooms returns snapshots of public, non-closed rooms.
func (m *Manager) ListRooms() []RoomSnapshot {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		if r.Private() || r.Status() == RoomClosed {
			continue
		}
		out = append(out, snapshotRoom(r))
	}
	return out
}

// StartGame starts the room's game: only the owner of a full, all-ready
// room, and only once.
func (m *Manager) StartGame(userID, roomID string) (string, error) {
	room, err := m.roomByID(roomID)
	if err != nil {
		return "", err
	}

	var opErr error
	var gameID string
	err = m.dispatch(roomID, func() {
		gameID = uuid.New().String()
		if opErr = room.MarkStarting(userID, gameID); opErr != nil {
			return
		}

		game, err := belot.NewGame(belot.GameConfig{
			ID:          gameID,
			Creator:     room.Creator(),
			Log:         m.gameLogger(),
			PointsToWin: room.PointsToWin(),
			Private:     room.Private(),
			DeckSeed:    m.cfg.DeckSeed,
		})
		if err == nil {
			for _, memberID := range room.MemberIDs() {
				if err = game.AddPlayer(memberID); err != nil {
					break
				}
			}
		}
		var events []belot.Event
		if err == nil {
			events, err = game.Start()
		}
		if err != nil {
			opErr = err
			room.AbortStart()
			return
		}

		m.mu.Lock()
		m.games[gameID] = game
		m.gameRooms[gameID] = roomID
		for _, p := range game.Players() {
			m.indexUserLocked(p.ID, gameID)
		}
		m.spawnActor(gameID)
		m.mu.Unlock()

		// The room has served its purpose: it closes for good and its
		// join code frees up. It stays registered until the game ends so
		// a second start_game fails with wrong_phase instead of
		// vanishing.
		room.Close()
		m.mu.Lock()
		delete(m.codes, room.Code())
		m.mu.Unlock()

		m.persistGame(game, roomID)
		if err := m.persistRoom(room); err != nil {
			m.log.Errorf("persisting room %s: %v", roomID, err)
		}
		m.appendRoomEvent(roomID, userID, "game_started", gameID)

		m.broadcastRoomState(room)
		m.broadcastGameEvents(game, events)
		m.sendPrivateHands(game)
	})
	if err != nil {
		return "", err
	}
	return gameID, opErr
}

// GameAction applies one sequenced action to a game. Replays are
// acknowledged without re-broadcasting.
func (m *Manager) GameAction(userID, gameID string, act belot.Action) error {
	game, err := m.gameByID(gameID)
	if err != nil {
		return err
	}
	act.Actor = userID

	var opErr error
	err = m.dispatch(gameID, func() {
		// Server-originated forfeits are sequenced here, inside the
		// game's mailbox, so no client action can slip in between the
		// seq read and the apply.
		if act.Kind == belot.ActionPlayerLeft && act.Seq == 0 {
			act.Seq = game.LastSeq() + 1
		}

		// The round this action belongs to, captured before Apply: the
		// action closing a round rolls the game onto the next one.
		actRound := 0
		if r := game.Round(); r != nil {
			actRound = r.Number()
		}

		var res *belot.ApplyResult
		if res, opErr = game.Apply(act); opErr != nil {
			return
		}
		if res.Replayed {
			return
		}

		dealtNewRound := false
		completed := false
		for _, ev := range res.Events {
			if ev.Kind == belot.EvRoundStarted {
				dealtNewRound = true
			}
			if ev.Kind == belot.EvGameCompleted {
				completed = true
			}
		}

		m.persistMove(game, act, actRound)
		m.persistGame(game, m.roomOfGame(gameID))
		m.broadcastGameEvents(game, res.Events)
		if dealtNewRound {
			m.sendPrivateHands(game)
		}
		if completed {
			m.finishGame(game)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// LeaveGame forfeits the leaver's team. The forfeit's sequence number is
// assigned on the game's mailbox.
func (m *Manager) LeaveGame(userID, gameID string) error {
	if _, err := m.gameByID(gameID); err != nil {
		return err
	}
	return m.GameAction(userID, gameID, belot.Action{
		Kind: belot.ActionPlayerLeft,
	})
}

// finishGame retires a completed game and the room it came from. Runs on
// the game's mailbox.
func (m *Manager) finishGame(game *belot.Game) {
	gameID := game.ID()
	roomID := m.roomOfGame(gameID)

	players := game.Players()
	m.mu.Lock()
	delete(m.games, gameID)
	delete(m.gameRooms, gameID)
	for _, p := range players {
		m.unindexUserLocked(p.ID, gameID)
	}
	m.mu.Unlock()

	if room, err := m.roomByID(roomID); err == nil {
		m.disposeRoom(room)
	} else if roomID != "" {
		// A game restored after a restart has no in-memory room, only
		// the closed row left behind at start time.
		if err := m.db.DeleteRoom(roomID); err != nil {
			m.log.Errorf("deleting room %s: %v", roomID, err)
		}
	}

	// The actor cannot close its own quit channel from inside a task
	// without deadlocking the drain; release it from outside.
	go m.releaseActor(gameID)
	m.log.Infof("game %s finished, winner %s", gameID, game.Winner())
}

// HandleConnect marks the user connected in any game they sit in.
func (m *Manager) HandleConnect(userID string) {
	m.setConnected(userID, true)
}

// HandleDisconnect marks the user disconnected. Games pause rather than
// forfeit; an explicit leave_game forfeits.
func (m *Manager) HandleDisconnect(userID string) {
	m.setConnected(userID, false)
}

func (m *Manager) setConnected(userID string, connected bool) {
	m.mu.RLock()
	var games []*belot.Game
	for entityID := range m.users[userID] {
		if g, ok := m.games[entityID]; ok {
			games = append(games, g)
		}
	}
	m.mu.RUnlock()

	for _, g := range games {
		if err := g.SetConnected(userID, connected); err != nil {
			m.log.Warnf("marking %s connected=%v: %v", userID, connected, err)
		}
	}
}

// reaper closes idle rooms and expires invitations.
func (m *Manager) reaper() {
	defer m.wg.Done()
	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	now := m.now()
	for _, room := range rooms {
		for _, inv := range room.ExpireInvitations() {
			m.persistInvitation(inv)
			m.bc.ToUser(inv.Inviter, Notification{
				Type: NoteInvitationResult, RoomID: room.ID(), Payload: inv, Timestamp: now,
			})
		}

		// Rooms with a game underway live and die with the game.
		if room.Status() == RoomStarting || room.GameID() != "" {
			continue
		}
		if now.Sub(room.IdleSince()) < m.cfg.RoomIdleTimeout {
			continue
		}

		roomID := room.ID()
		m.log.Infof("reaping idle room %s", roomID)
		_ = m.dispatch(roomID, func() {
			for _, memberID := range room.MemberIDs() {
				if _, err := room.Leave(memberID); err != nil {
					m.log.Warnf("evicting %s from idle room: %v", memberID, err)
				}
				m.unindexUser(memberID, roomID)
				if err := m.db.DeleteMember(roomID, memberID); err != nil {
					m.log.Errorf("deleting membership: %v", err)
				}
			}
			if err := m.persistRoom(room); err != nil {
				m.log.Errorf("persisting reaped room %s: %v", roomID, err)
			}
		})
		m.disposeRoom(room)
	}
}

// Close performs the graceful shutdown: stop intake, drain mailboxes, take
// final snapshots, then tell clients.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	actors := make([]*actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.actors = make(map[string]*actor)
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	games := make([]*belot.Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	m.mu.Unlock()

	close(m.quit)
	for _, a := range actors {
		close(a.quit)
	}
	m.wg.Wait()

	for _, room := range rooms {
		if err := m.persistRoom(room); err != nil {
			m.log.Errorf("final snapshot of room %s: %v", room.ID(), err)
		}
	}
	for _, game := range games {
		m.persistGame(game, m.roomOfGame(game.ID()))
	}

	m.bc.Broadcast(Notification{Type: NoteServerShutdown, Timestamp: m.now()})
	m.log.Infof("session manager closed")
	return nil
}

// Persistence helpers. Persisting always precedes broadcasting.

func (m *Manager) persistRoom(room *Room) error {
	return m.db.SaveRoom(roomToState(room))
}

func (m *Manager) persistMembership(room *Room, userID string) {
	for _, member := range room.Members() {
		if member.UserID != userID {
			continue
		}
		if err := m.db.SaveMember(&db.MemberState{
			RoomID:   room.ID(),
			UserID:   member.UserID,
			Ready:    member.Ready,
			JoinedAt: member.JoinedAt,
		}); err != nil {
			m.log.Errorf("persisting membership of %s: %v", userID, err)
		}
		return
	}
}

func (m *Manager) persistInvitation(inv *Invitation) {
	if err := m.db.SaveInvitation(&db.Invitation{
		ID:        inv.ID,
		RoomID:    inv.RoomID,
		Inviter:   inv.Inviter,
		Invitee:   inv.Invitee,
		Status:    string(inv.Status),
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	}); err != nil {
		m.log.Errorf("persisting invitation %s: %v", inv.ID, err)
	}
}

func (m *Manager) appendRoomEvent(roomID, userID, kind, detail string) {
	if err := m.db.AppendRoomEvent(&db.RoomEvent{
		RoomID: roomID,
		UserID: userID,
		Kind:   kind,
		Detail: detail,
		At:     m.now(),
	}); err != nil {
		m.log.Errorf("appending room event: %v", err)
	}
}

func (m *Manager) persistGame(game *belot.Game, roomID string) {
	state, err := gameToState(game, roomID)
	if err != nil {
		m.log.Errorf("snapshotting game %s: %v", game.ID(), err)
		return
	}
	round, err := roundToState(game)
	if err != nil {
		m.log.Errorf("snapshotting round of game %s: %v", game.ID(), err)
		return
	}
	if err := m.db.SaveGameSnapshot(state, round); err != nil {
		m.log.Errorf("persisting game %s: %v", game.ID(), err)
	}
}

func (m *Manager) persistMove(game *belot.Game, act belot.Action, round int) {
	seat := game.SeatOf(act.Actor)
	payload, err := encodeActionPayload(act)
	if err != nil {
		m.log.Errorf("encoding move payload: %v", err)
		return
	}
	if err := m.db.AppendMove(&db.Move{
		GameID:  game.ID(),
		Seq:     int64(act.Seq),
		Round:   round,
		Seat:    seat,
		Kind:    string(act.Kind),
		Payload: payload,
	}); err != nil {
		m.log.Errorf("appending move: %v", err)
	}
}

func encodeActionPayload(act belot.Action) (string, error) {
	switch act.Kind {
	case belot.ActionBidTrump:
		return string(act.Suit), nil
	case belot.ActionPlayCard:
		return act.Card.Code(), nil
	case belot.ActionDeclare:
		data, err := json.Marshal(act.Declarations)
		return string(data), err
	case belot.ActionPlayerLeft:
		return act.Reason, nil
	default:
		return "", nil
	}
}

func (m *Manager) roomOfGame(gameID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gameRooms[gameID]
}

// Broadcast helpers.

func (m *Manager) broadcastRoomState(room *Room) {
	m.bc.ToUsers(room.MemberIDs(), Notification{
		Type:      NoteRoomState,
		RoomID:    room.ID(),
		Payload:   snapshotRoom(room),
		Timestamp: m.now(),
	})
}

func (m *Manager) broadcastGameEvents(game *belot.Game, events []belot.Event) {
	players := game.Players()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	for _, ev := range events {
		m.bc.ToUsers(ids, gameNotification(game.ID(), ev))
	}
}

// sendPrivateHands delivers each player's cards on their user topic only.
func (m *Manager) sendPrivateHands(game *belot.Game) {
	round := game.Round()
	if round == nil {
		return
	}
	for _, p := range game.Players() {
		m.bc.ToUser(p.ID, Notification{
			Type:   NoteHandDealt,
			GameID: game.ID(),
			Payload: HandPayload{
				Round: round.Number(),
				Seat:  p.Seat,
				Cards: round.Hand(p.Seat),
			},
			Timestamp: m.now(),
		})
	}
}

func (m *Manager) roomLogger() slog.Logger {
	if m.cfg.LogBackend == nil {
		return slog.Disabled
	}
	return m.cfg.LogBackend.Logger("ROOM")
}

func (m *Manager) gameLogger() slog.Logger {
	if m.cfg.LogBackend == nil {
		return slog.Disabled
	}
	return m.cfg.LogBackend.Logger("GAME")
}
