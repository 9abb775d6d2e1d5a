package sse

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
)

// Client represents a connected SSE client.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	// Every client belongs to exactly one signed-in user; events are
	// filtered in broadcast() so a client only sees resources its user
	// may read.
	UserID string
}

// ListAccessChecker reports whether a user may read a list. Used during
// broadcast filtering so todo events never reach non-collaborators.
type ListAccessChecker func(ctx context.Context, userID, listID string) bool

// Manager manages SSE connections and broadcasts events.
type Manager struct {
	checkListAccess   ListAccessChecker
	clients           map[string]*Client
	events            chan Event
	logger            *slog.Logger
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:           make(map[string]*Client),
		events:            make(chan Event, 1000), // Buffer 1000 events
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// SetListAccessChecker sets the function used to check list access
// during broadcast filtering. Must be called before Start.
func (m *Manager) SetListAccessChecker(fn ListAccessChecker) {
	m.checkListAccess = fn
}

// Start begins the event broadcasting loop.
// This should be called once at server startup in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	heartbeatTicker := time.NewTicker(m.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event := <-m.events:
			m.broadcast(event)

		case <-heartbeatTicker.C:
			m.broadcast(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown gracefully shuts down the manager.
// It stops accepting new events, drains remaining events, and closes all clients.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("SSE manager shutdown initiated")

	// Mark as shutdown AND close channel atomically while holding lock.
	// This prevents a race with Emit() which holds the read lock during send.
	m.shutdownMu.Lock()
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	// Drain remaining events with context timeout.
	done := make(chan struct{})
	go func() {
		for event := range m.events {
			m.broadcast(event)
		}
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("SSE events drained successfully")
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
	}

	m.wg.Wait()

	m.logger.Info("SSE manager shutdown complete")
	return nil
}

// shouldDeliver applies the event's delivery filter to one client.
func (m *Manager) shouldDeliver(event Event, client *Client) bool {
	switch {
	case event.UserID != "":
		return event.UserID == client.UserID
	case len(event.Recipients) > 0:
		return slices.Contains(event.Recipients, client.UserID)
	case event.ListID != "":
		if m.checkListAccess == nil {
			return false
		}
		return m.checkListAccess(context.Background(), client.UserID, event.ListID)
	default:
		return true
	}
}

// broadcast sends an event to connected clients, filtered per user.
func (m *Manager) broadcast(event Event) {
	var delivered, dropped, filtered int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if !m.shouldDeliver(event, client) {
			filtered++
			continue
		}

		// Non-blocking send (drop if client is slow/stuck).
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("filtered", filtered),
				slog.Int("dropped", dropped)))
	}
}

// Connect registers a new SSE client for the given user and returns
// the client object. Events are filtered to what this user may read.
func (m *Manager) Connect(userID string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		UserID:      userID,
		EventChan:   make(chan Event, 100), // Buffer 100 events per client
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("user_id", userID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// DisconnectUser removes every client belonging to the given user.
// Called when a session is revoked so a signed-out device stops
// receiving events immediately.
func (m *Manager) DisconnectUser(userID string) {
	m.mu.Lock()
	var closing []*Client
	for clientID, client := range m.clients {
		if client.UserID == userID {
			delete(m.clients, clientID)
			closing = append(closing, client)
		}
	}
	totalClients := len(m.clients)
	m.mu.Unlock()

	for _, client := range closing {
		close(client.Done)
		close(client.EventChan)
	}

	if len(closing) > 0 {
		m.logger.Info("SSE clients disconnected for user",
			slog.String("user_id", userID),
			slog.Int("closed", len(closing)),
			slog.Int("total_clients", totalClients))
	}
}

// Emit maps a committed store change onto a client event and queues it
// for broadcasting. This implements the store.EventEmitter interface.
func (m *Manager) Emit(change store.Change) {
	event, ok := FromChange(change)
	if !ok {
		return
	}
	m.queue(event)
}

// EmitToUser queues an event for a specific user only.
func (m *Manager) EmitToUser(userID string, event Event) {
	event.UserID = userID
	m.queue(event)
}

func (m *Manager) queue(event Event) {
	// Hold the read lock through the entire send so Shutdown cannot
	// close the channel mid-send.
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		// Events after shutdown are expected; drop silently.
		return
	}

	select {
	case m.events <- event:
		// Event queued for broadcast.
	default:
		// Event channel full, log and drop.
		m.logger.Error("SSE event channel full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// Clients returns an iterator over all connected clients.
func (m *Manager) Clients() iter.Seq[*Client] {
	return func(yield func(*Client) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for _, client := range m.clients {
			if !yield(client) {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// closeAllClients closes all client connections (used during shutdown).
func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	m.clients = make(map[string]*Client)

	m.logger.Info("all SSE clients disconnected")
}
