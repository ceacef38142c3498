package server

import (
	"fmt"
	"os"
	"path/filepath"

	"belotsrv/pkg/server/internal/db"
)

// Database is the persistence boundary of the session manager. Rooms,
// memberships and games are upserted; messages, room events and moves are
// append-only.
type Database interface {
	// Rooms and lobby state.
	SaveRoom(room *db.RoomState) error
	LoadRooms(excludeStatus string) ([]*db.RoomState, error)
	DeleteRoom(roomID string) error
	SaveMember(m *db.MemberState) error
	DeleteMember(roomID, userID string) error
	LoadMembers(roomID string) ([]*db.MemberState, error)
	AppendMessage(msg *db.Message) error
	LoadMessages(roomID string, limit int) ([]*db.Message, error)
	SaveInvitation(inv *db.Invitation) error
	LoadInvitations(roomID string) ([]*db.Invitation, error)
	AppendRoomEvent(ev *db.RoomEvent) error

	// Games. SaveGameSnapshot persists the game row and its current round
	// atomically.
	SaveGame(game *db.GameState) error
	SaveGameSnapshot(game *db.GameState, round *db.RoundState) error
	LoadGames(status string) ([]*db.GameState, error)
	LoadRound(gameID string, number int) (*db.RoundState, error)
	LoadLatestRound(gameID string) (*db.RoundState, error)
	AppendMove(move *db.Move) error
	LoadMoves(gameID string, round int) ([]*db.Move, error)

	Close() error
}

// NewDatabase opens the sqlite store, creating the parent directory if
// needed.
func NewDatabase(dbPath string) (Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	return db.NewDB(dbPath)
}
