package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/services/annotator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Single-user tool served on localhost
	},
}

// WebSocketHandler pushes pipeline events and log lines to connected
// browser tabs. Writes to each connection serialize on a per-connection
// mutex since gorilla/websocket allows only one concurrent writer.
type WebSocketHandler struct {
	logger            arbor.ILogger
	clients           map[*websocket.Conn]bool
	clientMutex       map[*websocket.Conn]*sync.Mutex
	mu                sync.RWMutex
	eventService      interfaces.EventService
	progressThrottler *rate.Limiter // Rate limiter for analysis_progress events
	serverInstanceID  string        // Unique ID generated on startup - clients use to detect server restart
}

// WSMessage is the envelope for every message pushed to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatusUpdate is the payload sent on connect and on periodic refresh
type StatusUpdate struct {
	Service          string `json:"service"`
	Database         string `json:"database"`
	ServerInstanceID string `json:"serverInstanceId"`
}

// LogEntry is a single log line shaped for the UI console
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// NewWebSocketHandler creates the hub and subscribes it to pipeline events
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	// Throttle analysis_progress only if configured. A scoring batch fires
	// one event per (event, market) pair, which floods the UI unthrottled.
	if config != nil {
		if intervalStr, ok := config.ThrottleIntervals["analysis_progress"]; ok {
			if duration, err := time.ParseDuration(intervalStr); err == nil {
				h.progressThrottler = rate.NewLimiter(rate.Every(duration), 1)
				logger.Debug().
					Str("event_type", "analysis_progress").
					Str("interval", intervalStr).
					Msg("Throttler initialized for analysis_progress events")
			} else {
				logger.Warn().
					Err(err).
					Str("interval", intervalStr).
					Msg("Failed to parse analysis_progress throttle interval - throttler disabled")
			}
		}
	}

	if eventService != nil {
		h.subscribeToPipelineEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", len(h.clients))

	h.sendStatus(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// broadcast marshals a message once and sends it to every connected client
func (h *WebSocketHandler) broadcast(msgType string, payload interface{}) {
	msg := WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

// BroadcastLog pushes one log line to all clients. Called by the arbor
// channel writer, never from handler code directly.
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast("log", entry)
}

// sendStatus sends current status to a specific client
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn) {
	status := StatusUpdate{
		Service:          "ONLINE",
		Database:         "CONNECTED",
		ServerInstanceID: h.serverInstanceID,
	}

	msg := WSMessage{
		Type:    "status",
		Payload: status,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal initial status")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial status")
		}
	}
}

// ClientCount returns how many tabs are currently connected
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// subscribeToPipelineEvents relays pipeline events to the UI. Payloads are
// re-broadcast as published; the UI consumes the service structs directly.
func (h *WebSocketHandler) subscribeToPipelineEvents() {
	h.eventService.Subscribe(interfaces.EventFetchCompleted, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("fetch_completed", event.Payload)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventAnalysisProgress, func(ctx context.Context, event interfaces.Event) error {
		// The final event of a batch always goes through so the UI can
		// close its progress bar.
		if h.progressThrottler != nil && !h.progressThrottler.Allow() {
			if p, ok := event.Payload.(annotator.AnalysisProgress); !ok || p.Current < p.Total {
				return nil
			}
		}
		h.broadcast("analysis_progress", event.Payload)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventReportGenerated, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("report_generated", event.Payload)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventPipelineError, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast("pipeline_error", event.Payload)
		return nil
	})
}
