package server

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(creator string) *Room {
	return NewRoom(RoomConfig{
		ID:      "room-1",
		Code:    "ABC234",
		Name:    "test",
		Creator: creator,
	})
}

func TestRoomLifecycleStates(t *testing.T) {
	r := testRoom("alice")
	assert.Equal(t, RoomOpen, r.Status())

	require.NoError(t, r.Join("bob"))
	require.NoError(t, r.Join("carol"))
	assert.Equal(t, RoomOpen, r.Status())

	require.NoError(t, r.Join("dave"))
	assert.Equal(t, RoomFull, r.Status())

	// A full room reopens when someone leaves.
	closed, err := r.Leave("dave")
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, RoomOpen, r.Status())

	require.NoError(t, r.Join("dave"))
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, r.SetReady(u, true))
	}
	require.True(t, r.AllReady())

	require.NoError(t, r.MarkStarting("alice", "game-1"))
	assert.Equal(t, RoomStarting, r.Status())

	// No joining or readiness changes while the game runs.
	err = r.Join("eve")
	assert.Error(t, err)
	err = r.SetReady("bob", false)
	assert.Error(t, err)

	// A failed start rolls back to full with readiness intact.
	r.AbortStart()
	assert.Equal(t, RoomFull, r.Status())
	assert.True(t, r.AllReady())

	// A successful start closes the room for good: one room, one game.
	require.NoError(t, r.MarkStarting("alice", "game-2"))
	r.Close()
	assert.Equal(t, RoomClosed, r.Status())
	err = r.Join("eve")
	assert.Error(t, err, "joined a closed room")
	err = r.MarkStarting("alice", "game-3")
	assert.Error(t, err, "restarted a closed room")
}

func TestRoomClosesWhenEmpty(t *testing.T) {
	r := testRoom("alice")
	closed, err := r.Leave("alice")
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, RoomClosed, r.Status())

	err = r.Join("bob")
	assert.Error(t, err, "joined a closed room")
}

func TestJoinCodeShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := newJoinCode(rng)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(joinCodeAlphabet, c),
				"code %q contains %q outside the alphabet", code, c)
		}
		seen[code] = true
	}
	// The space is large; 200 draws should essentially never collide.
	assert.Greater(t, len(seen), 195)
}

func TestJoinCodeAlphabetAvoidsAmbiguity(t *testing.T) {
	for _, c := range "0O1ILl" {
		assert.False(t, strings.ContainsRune(joinCodeAlphabet, c),
			"ambiguous character %q in join code alphabet", c)
	}
}
