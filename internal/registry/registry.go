package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playsquare/gamerooms-backend/internal/apperror"
	"github.com/playsquare/gamerooms-backend/internal/entity"
	"github.com/playsquare/gamerooms-backend/internal/repository"
)

// codeAlphabet avoids 0/O and 1/I; codes are case-insensitive on input.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	maxCodeAttempts = 10
)

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

// Registry creates, looks up and garbage-collects rooms by their short code.
type Registry struct {
	logger *slog.Logger
	rooms  roomRepo
	clock  clockwork.Clock
	grace  time.Duration

	mu     sync.Mutex
	timers map[string]clockwork.Timer
}

// New builds a registry. A zero grace period deletes empty rooms
// immediately on last leave; a positive one leaves a reconnect window.
func New(logger *slog.Logger, rooms roomRepo, clock clockwork.Clock, grace time.Duration) *Registry {
	return &Registry{
		logger: logger.With("component", "registry"),
		rooms:  rooms,
		clock:  clock,
		grace:  grace,
		timers: make(map[string]clockwork.Timer),
	}
}

// CreateRoom allocates a fresh room code, retrying on collision against
// currently live rooms, and persists the new empty room.
func (that *Registry) CreateRoom(ctx context.Context, name, mode string) (*entity.Room, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, err = that.rooms.GetByID(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrRoomNotFound) {
			return nil, fmt.Errorf("failed to check room code: %w", err)
		}

		room := entity.NewRoom(code, name, mode)
		if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		return room, nil
	}

	return nil, apperror.ErrCodeExhausted
}

// GetRoom looks up a room by code, case-insensitively.
func (that *Registry) GetRoom(ctx context.Context, id string) (*entity.Room, error) {
	room, err := that.rooms.GetByID(ctx, NormalizeCode(id))
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// SaveRoom persists the authoritative room state.
func (that *Registry) SaveRoom(ctx context.Context, room *entity.Room) error {
	if err := that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

// RemoveIfEmpty deletes the room once both slots are free, either
// immediately or after the configured grace period. A player joining before
// the timer fires cancels the deletion via CancelCleanup.
func (that *Registry) RemoveIfEmpty(ctx context.Context, id string) error {
	id = NormalizeCode(id)

	room, err := that.GetRoom(ctx, id)
	if err != nil {
		return err
	}

	if !room.IsEmpty() {
		return nil
	}

	if that.grace <= 0 {
		return that.deleteRoom(ctx, id)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.timers[id]; ok {
		return nil
	}

	that.timers[id] = that.clock.AfterFunc(that.grace, func() {
		// mu is held across the re-check and the delete so CancelCleanup
		// cannot interleave between them; a join that fired CancelCleanup
		// before this runs keeps the room alive via the re-check
		that.mu.Lock()
		defer that.mu.Unlock()

		delete(that.timers, id)

		current, err := that.GetRoom(context.Background(), id)
		if err != nil || !current.IsEmpty() {
			return
		}

		if err = that.deleteRoom(context.Background(), id); err != nil {
			that.logger.Error("failed to delete empty room", "roomID", id, "error", err)
		}
	})

	return nil
}

// CancelCleanup stops a pending grace-period deletion, if any.
func (that *Registry) CancelCleanup(id string) {
	id = NormalizeCode(id)

	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.timers[id]; ok {
		timer.Stop()
		delete(that.timers, id)
	}
}

func (that *Registry) deleteRoom(ctx context.Context, id string) error {
	if err := that.rooms.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	that.logger.Info("room deleted", "roomID", id)

	return nil
}

// NormalizeCode maps user input onto the canonical room-code form.
func NormalizeCode(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func generateRoomCode() (string, error) {
	code := make([]byte, codeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}
