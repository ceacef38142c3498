package db

import (
	"database/sql"
	"fmt"
	"time"
)

// RoomState is the persisted form of a lobby room.
type RoomState struct {
	ID          string
	Code        string
	Name        string
	Creator     string
	Private     bool
	Status      string
	GameID      string
	PointsToWin int
}

// MemberState is one room membership row.
type MemberState struct {
	RoomID   string
	UserID   string
	Ready    bool
	JoinedAt time.Time
}

// Message is one retained chat message.
type Message struct {
	ID     string
	RoomID string
	UserID string
	Text   string
	SentAt time.Time
}

// Invitation is a persisted room invitation.
type Invitation struct {
	ID        string
	RoomID    string
	Inviter   string
	Invitee   string
	Status    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RoomEvent is one append-only room log entry (join/leave/ready/invite).
type RoomEvent struct {
	RoomID string
	UserID string
	Kind   string
	Detail string
	At     time.Time
}

// GameState is the persisted form of a game session.
type GameState struct {
	ID          string
	RoomID      string
	Status      string
	PointsToWin int
	Seed        int64
	Dealer      int
	ScoreA      int
	ScoreB      int
	Winner      string
	EndReason   string
	LastSeq     int64
	Seats       string // JSON array of user ids by seat
}

// RoundState is the persisted form of the round in progress.
type RoundState struct {
	GameID        string
	Number        int
	Dealer        int
	Trump         string
	Caller        int
	StartingHands string // JSON [4][]string of card codes
}

// Move is one append-only game action row.
type Move struct {
	GameID  string
	Seq     int64
	Round   int
	Seat    int
	Kind    string
	Payload string
}

// DB wraps the sqlite connection.
type DB struct {
	*sql.DB
}

// NewDB opens the database and ensures the schema exists.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			creator TEXT NOT NULL,
			private INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			game_id TEXT NOT NULL DEFAULT '',
			points_to_win INTEGER NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS room_members (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			ready INTEGER NOT NULL DEFAULT 0,
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invitations (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			inviter TEXT NOT NULL,
			invitee TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS room_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT,
			at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			status TEXT NOT NULL,
			points_to_win INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			dealer INTEGER NOT NULL,
			score_a INTEGER NOT NULL DEFAULT 0,
			score_b INTEGER NOT NULL DEFAULT 0,
			winner TEXT NOT NULL DEFAULT '',
			end_reason TEXT NOT NULL DEFAULT '',
			last_seq INTEGER NOT NULL DEFAULT 0,
			seats TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			game_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			dealer INTEGER NOT NULL,
			trump TEXT NOT NULL DEFAULT '',
			caller INTEGER NOT NULL DEFAULT -1,
			starting_hands TEXT NOT NULL,
			PRIMARY KEY (game_id, number),
			FOREIGN KEY (game_id) REFERENCES games(id)
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			round INTEGER NOT NULL,
			seat INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (game_id, seq)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// SaveRoom upserts a room row.
func (db *DB) SaveRoom(room *RoomState) error {
	_, err := db.Exec(`
		INSERT INTO rooms (id, code, name, creator, private, status, game_id, points_to_win, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			creator = excluded.creator,
			private = excluded.private,
			status = excluded.status,
			game_id = excluded.game_id,
			points_to_win = excluded.points_to_win,
			updated_at = CURRENT_TIMESTAMP
	`, room.ID, room.Code, room.Name, room.Creator, room.Private, room.Status,
		room.GameID, room.PointsToWin)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", room.ID, err)
	}
	return nil
}

// LoadRooms returns every room not in the given status (pass "" for all).
func (db *DB) LoadRooms(excludeStatus string) ([]*RoomState, error) {
	rows, err := db.Query(`
		SELECT id, code, name, creator, private, status, game_id, points_to_win
		FROM rooms WHERE status != ?
	`, excludeStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	defer rows.Close()

	var out []*RoomState
	for rows.Next() {
		r := &RoomState{}
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Creator, &r.Private,
			&r.Status, &r.GameID, &r.PointsToWin); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRoom removes a room and its memberships.
func (db *DB) DeleteRoom(roomID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM room_members WHERE room_id = ?`, roomID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveMember upserts a membership row.
func (db *DB) SaveMember(m *MemberState) error {
	_, err := db.Exec(`
		INSERT INTO room_members (room_id, user_id, ready, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(room_id, user_id) DO UPDATE SET ready = excluded.ready
	`, m.RoomID, m.UserID, m.Ready, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to save member %s of room %s: %w", m.UserID, m.RoomID, err)
	}
	return nil
}

// DeleteMember removes a membership row.
func (db *DB) DeleteMember(roomID, userID string) error {
	_, err := db.Exec(`DELETE FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID)
	return err
}

// LoadMembers returns the members of a room ordered by join time.
func (db *DB) LoadMembers(roomID string) ([]*MemberState, error) {
	rows, err := db.Query(`
		SELECT room_id, user_id, ready, joined_at
		FROM room_members WHERE room_id = ? ORDER BY joined_at
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members of room %s: %w", roomID, err)
	}
	defer rows.Close()

	var out []*MemberState
	for rows.Next() {
		m := &MemberState{}
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Ready, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendMessage stores one chat message.
func (db *DB) AppendMessage(msg *Message) error {
	_, err := db.Exec(`
		INSERT INTO messages (id, room_id, user_id, text, sent_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, msg.UserID, msg.Text, msg.SentAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// LoadMessages returns the latest messages of a room, oldest first.
func (db *DB) LoadMessages(roomID string, limit int) ([]*Message, error) {
	rows, err := db.Query(`
		SELECT id, room_id, user_id, text, sent_at FROM (
			SELECT id, room_id, user_id, text, sent_at
			FROM messages WHERE room_id = ?
			ORDER BY sent_at DESC LIMIT ?
		) ORDER BY sent_at ASC
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages of room %s: %w", roomID, err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Text, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveInvitation upserts an invitation row.
func (db *DB) SaveInvitation(inv *Invitation) error {
	_, err := db.Exec(`
		INSERT INTO invitations (id, room_id, inviter, invitee, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status
	`, inv.ID, inv.RoomID, inv.Inviter, inv.Invitee, inv.Status, inv.CreatedAt, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save invitation %s: %w", inv.ID, err)
	}
	return nil
}

// LoadInvitations returns all invitations for a room.
func (db *DB) LoadInvitations(roomID string) ([]*Invitation, error) {
	rows, err := db.Query(`
		SELECT id, room_id, inviter, invitee, status, created_at, expires_at
		FROM invitations WHERE room_id = ?
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invitations of room %s: %w", roomID, err)
	}
	defer rows.Close()

	var out []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(&inv.ID, &inv.RoomID, &inv.Inviter, &inv.Invitee,
			&inv.Status, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// AppendRoomEvent stores one room log entry.
func (db *DB) AppendRoomEvent(ev *RoomEvent) error {
	_, err := db.Exec(`
		INSERT INTO room_events (room_id, user_id, kind, detail, at)
		VALUES (?, ?, ?, ?, ?)
	`, ev.RoomID, ev.UserID, ev.Kind, ev.Detail, ev.At)
	if err != nil {
		return fmt.Errorf("failed to append room event: %w", err)
	}
	return nil
}

// SaveGameSnapshot atomically persists a game row together with its current
// round.
func (db *DB) SaveGameSnapshot(game *GameState, round *RoundState) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveGameTx(tx, game); err != nil {
		return err
	}
	if round != nil {
		if err := saveRoundTx(tx, round); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveGame upserts a game row.
func (db *DB) SaveGame(game *GameState) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveGameTx(tx, game); err != nil {
		return err
	}
	return tx.Commit()
}

func saveGameTx(tx *sql.Tx, game *GameState) error {
	_, err := tx.Exec(`
		INSERT INTO games (id, room_id, status, points_to_win, seed, dealer,
			score_a, score_b, winner, end_reason, last_seq, seats, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			dealer = excluded.dealer,
			score_a = excluded.score_a,
			score_b = excluded.score_b,
			winner = excluded.winner,
			end_reason = excluded.end_reason,
			last_seq = excluded.last_seq,
			seats = excluded.seats,
			updated_at = CURRENT_TIMESTAMP
	`, game.ID, game.RoomID, game.Status, game.PointsToWin, game.Seed, game.Dealer,
		game.ScoreA, game.ScoreB, game.Winner, game.EndReason, game.LastSeq, game.Seats)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", game.ID, err)
	}
	return nil
}

func saveRoundTx(tx *sql.Tx, round *RoundState) error {
	_, err := tx.Exec(`
		INSERT INTO rounds (game_id, number, dealer, trump, caller, starting_hands)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, number) DO UPDATE SET
			trump = excluded.trump,
			caller = excluded.caller
	`, round.GameID, round.Number, round.Dealer, round.Trump, round.Caller, round.StartingHands)
	if err != nil {
		return fmt.Errorf("failed to save round %d of game %s: %w", round.Number, round.GameID, err)
	}
	return nil
}

// LoadGames returns every game in the given status.
func (db *DB) LoadGames(status string) ([]*GameState, error) {
	rows, err := db.Query(`
		SELECT id, room_id, status, points_to_win, seed, dealer,
			score_a, score_b, winner, end_reason, last_seq, seats
		FROM games WHERE status = ?
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	defer rows.Close()

	var out []*GameState
	for rows.Next() {
		g := &GameState{}
		if err := rows.Scan(&g.ID, &g.RoomID, &g.Status, &g.PointsToWin, &g.Seed,
			&g.Dealer, &g.ScoreA, &g.ScoreB, &g.Winner, &g.EndReason,
			&g.LastSeq, &g.Seats); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// LoadRound returns one persisted round.
func (db *DB) LoadRound(gameID string, number int) (*RoundState, error) {
	r := &RoundState{}
	err := db.QueryRow(`
		SELECT game_id, number, dealer, trump, caller, starting_hands
		FROM rounds WHERE game_id = ? AND number = ?
	`, gameID, number).Scan(&r.GameID, &r.Number, &r.Dealer, &r.Trump, &r.Caller, &r.StartingHands)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("round %d of game %s not found", number, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	return r, nil
}

// LoadLatestRound returns the most recent persisted round of a game.
func (db *DB) LoadLatestRound(gameID string) (*RoundState, error) {
	r := &RoundState{}
	err := db.QueryRow(`
		SELECT game_id, number, dealer, trump, caller, starting_hands
		FROM rounds WHERE game_id = ? ORDER BY number DESC LIMIT 1
	`, gameID).Scan(&r.GameID, &r.Number, &r.Dealer, &r.Trump, &r.Caller, &r.StartingHands)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s has no rounds", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest round: %w", err)
	}
	return r, nil
}

// AppendMove stores one accepted game action.
func (db *DB) AppendMove(move *Move) error {
	_, err := db.Exec(`
		INSERT INTO moves (game_id, seq, round, seat, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, move.GameID, move.Seq, move.Round, move.Seat, move.Kind, move.Payload)
	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}
	return nil
}

// LoadMoves returns the accepted actions of one round, in sequence order.
func (db *DB) LoadMoves(gameID string, round int) ([]*Move, error) {
	rows, err := db.Query(`
		SELECT game_id, seq, round, seat, kind, payload
		FROM moves WHERE game_id = ? AND round = ? ORDER BY seq
	`, gameID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to load moves of game %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []*Move
	for rows.Next() {
		m := &Move{}
		if err := rows.Scan(&m.GameID, &m.Seq, &m.Round, &m.Seat, &m.Kind, &m.Payload); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
