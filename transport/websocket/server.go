// Package websocket pushes session snapshots to connected clients and
// accepts the same game commands as the REST surface, dispatched by action
// name.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gridplay/internal/session"
)

// gameManager is the command surface driven by websocket actions.
type gameManager interface {
	StartGame(ctx context.Context, sessionID, difficulty string) (session.Snapshot, error)
	PlayerMove(ctx context.Context, sessionID string, cell int) (session.Snapshot, error)
	Undo(ctx context.Context, sessionID string) (session.Snapshot, error)
	Redo(ctx context.Context, sessionID string) (session.Snapshot, error)
	EnterReview(ctx context.Context, sessionID string) (session.Snapshot, error)
	ReviewStepForward(ctx context.Context, sessionID string) (session.Snapshot, error)
	ReviewStepBackward(ctx context.Context, sessionID string) (session.Snapshot, error)
	ResetGame(ctx context.Context, sessionID string) (session.Snapshot, error)
	GetSnapshot(ctx context.Context, sessionID string) (session.Snapshot, error)
}

// Message is the wire envelope in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type movePayload struct {
	Cell int `json:"cell"`
}

type errorPayload struct {
	Error string           `json:"error"`
	State session.Snapshot `json:"state"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// client wraps a connection with a write lock, since gorilla connections
// allow only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) send(message Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn.WriteJSON(message)
}

type Hub struct {
	logger  *slog.Logger
	manager gameManager

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	handlers map[string]func(ctx context.Context, sessionID string, payload json.RawMessage) (session.Snapshot, error)
}

func NewHub(logger *slog.Logger, manager gameManager) *Hub {
	hub := &Hub{
		logger:  logger.With("component", "websocket"),
		manager: manager,
		clients: make(map[string]map[*client]struct{}),
	}

	hub.handlers = map[string]func(context.Context, string, json.RawMessage) (session.Snapshot, error){
		"game:new":        hub.handleNewGame,
		"game:move":       hub.handleMove,
		"game:undo":       discardPayload(manager.Undo),
		"game:redo":       discardPayload(manager.Redo),
		"game:reset":      discardPayload(manager.ResetGame),
		"game:review":     discardPayload(manager.EnterReview),
		"review:forward":  discardPayload(manager.ReviewStepForward),
		"review:backward": discardPayload(manager.ReviewStepBackward),
		"game:state":      discardPayload(manager.GetSnapshot),
	}

	return hub
}

func discardPayload(run func(ctx context.Context, sessionID string) (session.Snapshot, error)) func(context.Context, string, json.RawMessage) (session.Snapshot, error) {
	return func(ctx context.Context, sessionID string, _ json.RawMessage) (session.Snapshot, error) {
		return run(ctx, sessionID)
	}
}

func (that *Hub) handleNewGame(ctx context.Context, sessionID string, payload json.RawMessage) (session.Snapshot, error) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return session.Snapshot{}, err
		}
	}

	return that.manager.StartGame(ctx, sessionID, req.Difficulty)
}

func (that *Hub) handleMove(ctx context.Context, sessionID string, payload json.RawMessage) (session.Snapshot, error) {
	var move movePayload
	if err := json.Unmarshal(payload, &move); err != nil {
		return session.Snapshot{}, err
	}

	return that.manager.PlayerMove(ctx, sessionID, move.Cell)
}

// HandleWS upgrades the connection and serves game commands for one
// session until the client disconnects.
func (that *Hub) HandleWS(c *gin.Context) {
	log := that.logger.With("method", "HandleWS")

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	// The HTTP server's write timeout stays armed on the hijacked
	// connection; clear it so the push channel outlives it.
	_ = conn.UnderlyingConn().SetDeadline(time.Time{})

	cl := &client{conn: conn}
	that.register(sessionID, cl)
	log.Info("websocket connection established", "sessionID", sessionID)

	defer func() {
		that.unregister(sessionID, cl)
		_ = conn.Close()
	}()

	that.readLoop(c.Request.Context(), sessionID, cl)
}

func (that *Hub) readLoop(ctx context.Context, sessionID string, cl *client) {
	log := that.logger.With("method", "readLoop", "sessionID", sessionID)

	for {
		var message Message
		if err := cl.conn.ReadJSON(&message); err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		snap, err := handler(ctx, sessionID, message.Payload)
		if err != nil {
			that.sendError(cl, message.Action, err, snap)
			continue
		}

		// Successful transitions are broadcast by the manager observer;
		// reads and first-time creation are answered directly.
		if message.Action == "game:state" || message.Action == "game:new" {
			that.sendSnapshot(cl, snap)
		}
	}
}

// Broadcast pushes a snapshot to every client attached to its session. It
// is the manager's update callback.
func (that *Hub) Broadcast(snap session.Snapshot) {
	that.mu.RLock()
	clients := make([]*client, 0, len(that.clients[snap.ID]))
	for cl := range that.clients[snap.ID] {
		clients = append(clients, cl)
	}
	that.mu.RUnlock()

	for _, cl := range clients {
		that.sendSnapshot(cl, snap)
	}
}

func (that *Hub) sendSnapshot(cl *client, snap session.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		that.logger.Error("failed to marshal snapshot", "error", err)
		return
	}

	if err = cl.send(Message{Action: "game:update", Payload: payload}); err != nil {
		that.logger.Error("failed to send snapshot", "error", err)
	}
}

func (that *Hub) sendError(cl *client, action string, cmdErr error, snap session.Snapshot) {
	payload, err := json.Marshal(errorPayload{Error: cmdErr.Error(), State: snap})
	if err != nil {
		that.logger.Error("failed to marshal error payload", "error", err)
		return
	}

	if err = cl.send(Message{Action: action + ":error", Payload: payload}); err != nil {
		that.logger.Error("failed to send error", "error", err)
	}
}

func (that *Hub) register(sessionID string, cl *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[sessionID]; !ok {
		that.clients[sessionID] = make(map[*client]struct{})
	}
	that.clients[sessionID][cl] = struct{}{}
}

func (that *Hub) unregister(sessionID string, cl *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients[sessionID], cl)
	if len(that.clients[sessionID]) == 0 {
		delete(that.clients, sessionID)
	}
}
