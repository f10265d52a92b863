package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playsquare/gamerooms-backend/internal/entity"
)

type roomService interface {
	CreateRoom(ctx context.Context, name, mode string) (*entity.Room, error)
	GetRoom(ctx context.Context, id string) (*entity.Room, error)
	SaveRoom(ctx context.Context, room *entity.Room) error
	RemoveIfEmpty(ctx context.Context, id string) error
	CancelCleanup(id string)
}

// Server is the realtime gateway: it upgrades connections, translates wire
// messages into room intents and funnels every intent for a room through
// that room's single worker.
type Server struct {
	logger   *slog.Logger
	rooms    roomService
	upgrader websocket.Upgrader

	mu      sync.Mutex
	workers map[string]*roomWorker
}

func New(logger *slog.Logger, rooms roomService) *Server {
	return &Server{
		logger: logger.With("component", "gateway"),
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		workers: make(map[string]*roomWorker),
	}
}

// Start runs the gateway HTTP server until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler exposes the gateway as an http.Handler for embedding in tests.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})
	return mux
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn)
	go c.writePump(that.logger)

	log.Info("connection established", "playerID", c.id)

	that.readLoop(ctx, c)
}

// readLoop consumes messages from one client until the connection drops,
// then injects a disconnect intent into the client's room, if any.
func (that *Server) readLoop(ctx context.Context, c *client) {
	defer func() {
		c.close()

		if roomID := c.room(); roomID != "" {
			that.enqueue(ctx, roomID, intent{action: actionDisconnect, client: c})
		}

		that.logger.Info("connection closed", "playerID", c.id)
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		that.dispatch(ctx, c, &msg)
	}
}

func (that *Server) dispatch(ctx context.Context, c *client, msg *Message) {
	log := that.logger.With("method", "dispatch", "action", msg.Action)

	switch msg.Action {
	case ActionGetRoomID:
		that.handleGetRoomID(ctx, c, msg.Payload)
	case ActionJoinRoom:
		var payload JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			that.sendErrorMessage(c, "malformed joinRoom payload")
			return
		}
		that.enqueue(ctx, normalizeRoomID(payload.RoomID), intent{action: msg.Action, client: c, payload: msg.Payload})
	case ActionStartMatch, ActionPlayerMove, ActionResetRoom, ActionLeaveRoom:
		var payload RoomActionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameRoomID == "" {
			that.sendErrorMessage(c, "malformed payload: gameRoomId is required")
			return
		}
		that.enqueue(ctx, normalizeRoomID(payload.GameRoomID), intent{action: msg.Action, client: c, payload: msg.Payload})
	default:
		log.Warn("unknown action", "playerID", c.id)
		that.sendErrorMessage(c, fmt.Sprintf("unknown action %q", msg.Action))
	}
}

// handleGetRoomID allocates a room code. It is the only intent handled
// outside a room worker: the room does not exist yet.
func (that *Server) handleGetRoomID(ctx context.Context, c *client, raw json.RawMessage) {
	log := that.logger.With("method", "handleGetRoomID")

	var payload GetRoomIDPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			that.sendErrorMessage(c, "malformed getRoomId payload")
			return
		}
	}

	room, err := that.rooms.CreateRoom(ctx, payload.RoomName, payload.Mode)
	if err != nil {
		log.Error("failed to create room", "error", err)
		c.deliver(Message{Action: ActionGetRoomID, Payload: mustMarshal(GetRoomIDResponse{Success: false})})
		return
	}

	log.Info("room created", "roomID", room.ID, "mode", room.Mode)

	c.deliver(Message{Action: ActionGetRoomID, Payload: mustMarshal(GetRoomIDResponse{Success: true, RoomID: room.ID})})
}

// enqueue hands an intent to the room's worker, creating one when needed.
// The send happens under mu so retire's emptiness check is authoritative:
// an intent can never land in the buffer of a worker that already retired.
func (that *Server) enqueue(ctx context.Context, roomID string, in intent) {
	for {
		that.mu.Lock()
		worker, ok := that.workers[roomID]
		if !ok {
			worker = newRoomWorker(roomID, that)
			that.workers[roomID] = worker
			go worker.run(ctx)
		}

		select {
		case worker.intents <- in:
			that.mu.Unlock()
			return
		default:
		}
		that.mu.Unlock()

		// queue full, so the worker is alive and draining; retire aborts
		// while intents are pending. Wait briefly and retry.
		select {
		case <-worker.quit:
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// retire removes the worker unless more intents arrived since the caller
// observed it idle. Delete-then-close ordering lets a racing enqueue fall
// back to a fresh worker.
func (that *Server) retire(worker *roomWorker) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(worker.intents) > 0 {
		return false
	}

	if that.workers[worker.roomID] == worker {
		delete(that.workers, worker.roomID)
	}
	close(worker.quit)

	return true
}

func (that *Server) sendError(c *client, err error) {
	that.sendErrorMessage(c, err.Error())
}

func (that *Server) sendErrorMessage(c *client, text string) {
	c.deliver(Message{Action: ActionGameError, Payload: mustMarshal(ErrorPayload{Message: text})})
}

func normalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
