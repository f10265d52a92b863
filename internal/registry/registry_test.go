package registry

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsquare/gamerooms-backend/internal/apperror"
	"github.com/playsquare/gamerooms-backend/internal/entity"
	"github.com/playsquare/gamerooms-backend/internal/repository"
)

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room

	// alwaysCollide makes every generated code look taken
	alwaysCollide bool
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*entity.Room)}
}

func (that *fakeRoomRepo) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.rooms[room.ID] = room
	return nil
}

func (that *fakeRoomRepo) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.alwaysCollide {
		return entity.NewRoom(id, "", entity.ModeClassic), nil
	}

	room, ok := that.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return room, nil
}

func (that *fakeRoomRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.rooms, id)
	return nil
}

func (that *fakeRoomRepo) has(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()
	_, ok := that.rooms[id]
	return ok
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Allocates a six character code from the safe alphabet", func(t *testing.T) {
		// Given: an empty registry
		repo := newFakeRoomRepo()
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)

		// When: a room is created
		room, err := reg.CreateRoom(ctx, "friday night", entity.ModeUltimate)

		// Then: the code is 6 unambiguous characters and the room is live
		require.NoError(t, err)
		assert.Len(t, room.ID, codeLength)
		for _, r := range room.ID {
			assert.Contains(t, codeAlphabet, string(r))
		}
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Equal(t, entity.ModeUltimate, room.Mode)
		assert.True(t, repo.has(room.ID))
	})

	t.Run("Gives up after bounded collision retries", func(t *testing.T) {
		// Given: a repo where every code is already taken
		repo := newFakeRoomRepo()
		repo.alwaysCollide = true
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)

		// When: a room is created
		_, err := reg.CreateRoom(ctx, "", entity.ModeClassic)

		// Then: ErrCodeExhausted
		require.ErrorIs(t, err, apperror.ErrCodeExhausted)
	})
}

func TestRegistry_GetRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Lookup is case-insensitive", func(t *testing.T) {
		// Given: a live room
		repo := newFakeRoomRepo()
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)
		created, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)

		// When: looked up with lowercase input
		room, err := reg.GetRoom(ctx, strings.ToLower(created.ID))

		// Then: the same room is returned
		require.NoError(t, err)
		assert.Equal(t, created.ID, room.ID)
	})

	t.Run("Unknown code maps to ErrRoomNotFound", func(t *testing.T) {
		repo := newFakeRoomRepo()
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)

		_, err := reg.GetRoom(ctx, "ZZZZZZ")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_RemoveIfEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes an empty room immediately with zero grace", func(t *testing.T) {
		// Given: an empty live room, zero grace period
		repo := newFakeRoomRepo()
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)
		room, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)

		// When: cleanup runs
		require.NoError(t, reg.RemoveIfEmpty(ctx, room.ID))

		// Then: the room is gone
		assert.False(t, repo.has(room.ID))
	})

	t.Run("Keeps an occupied room", func(t *testing.T) {
		// Given: a room with one seated player
		repo := newFakeRoomRepo()
		reg := New(testLogger(), repo, clockwork.NewFakeClock(), 0)
		room, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)

		_, err = room.Join("player-1", "Alice")
		require.NoError(t, err)
		require.NoError(t, reg.SaveRoom(ctx, room))

		// When: cleanup runs
		require.NoError(t, reg.RemoveIfEmpty(ctx, room.ID))

		// Then: the room survives
		assert.True(t, repo.has(room.ID))
	})

	t.Run("Waits out the grace period before deleting", func(t *testing.T) {
		// Given: a positive grace period on a fake clock
		repo := newFakeRoomRepo()
		clock := clockwork.NewFakeClock()
		reg := New(testLogger(), repo, clock, 30*time.Second)
		room, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)

		// When: cleanup is requested
		require.NoError(t, reg.RemoveIfEmpty(ctx, room.ID))

		// Then: the room is still there until the timer fires
		assert.True(t, repo.has(room.ID))

		clock.Advance(30 * time.Second)

		assert.Eventually(t, func() bool {
			return !repo.has(room.ID)
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("A join landing inside the grace period survives the expired timer", func(t *testing.T) {
		// Given: deletion scheduled for an empty room
		repo := newFakeRoomRepo()
		clock := clockwork.NewFakeClock()
		reg := New(testLogger(), repo, clock, 30*time.Second)
		room, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)
		require.NoError(t, reg.RemoveIfEmpty(ctx, room.ID))

		// When: a player is seated and saved before the timer fires
		_, err = room.Join("player-1", "Alice")
		require.NoError(t, err)
		require.NoError(t, reg.SaveRoom(ctx, room))

		clock.Advance(time.Minute)

		// Then: the re-check sees the seat and keeps the room
		assert.Never(t, func() bool {
			return !repo.has(room.ID)
		}, 200*time.Millisecond, 10*time.Millisecond)
	})

	t.Run("A rejoin cancels the pending deletion", func(t *testing.T) {
		// Given: a deletion scheduled on a fake clock
		repo := newFakeRoomRepo()
		clock := clockwork.NewFakeClock()
		reg := New(testLogger(), repo, clock, 30*time.Second)
		room, err := reg.CreateRoom(ctx, "", entity.ModeClassic)
		require.NoError(t, err)
		require.NoError(t, reg.RemoveIfEmpty(ctx, room.ID))

		// When: a player comes back before the timer fires
		reg.CancelCleanup(room.ID)
		clock.Advance(time.Minute)

		// Then: the room survives
		assert.True(t, repo.has(room.ID))
	})
}
