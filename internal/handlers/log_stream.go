package handlers

import (
	"fmt"
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	arborlevels "github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/auspex/internal/common"
)

// Buffer for log batches between arbor and the consumer goroutine
const logStreamBufferSize = 10

// LogStreamer drains arbor's context channel and forwards filtered entries to
// the WebSocket hub so the UI log panel mirrors the server log. Wire it up with
// logger.SetChannel("context", streamer.Channel()).
type LogStreamer struct {
	handler         *WebSocketHandler
	channel         chan []arbormodels.LogEvent
	minLevel        arbor.LogLevel
	excludePatterns []string
	done            chan struct{}
	wg              sync.WaitGroup
}

// NewLogStreamer creates a log streamer for the given hub
func NewLogStreamer(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *LogStreamer {
	minLevel := arbor.InfoLevel
	var excludePatterns []string

	if wsConfig != nil {
		minLevel = parseStreamLevel(wsConfig.MinLevel)
		excludePatterns = wsConfig.ExcludePatterns
	}
	if len(excludePatterns) == 0 {
		// The hub logs its own failures; broadcasting those logs would feed
		// them straight back into the hub.
		excludePatterns = []string{
			"WebSocket client connected",
			"WebSocket client disconnected",
			"HTTP request",
			"HTTP response",
			"Failed to send message",
			"Failed to marshal WebSocket",
		}
	}

	return &LogStreamer{
		handler:         handler,
		channel:         make(chan []arbormodels.LogEvent, logStreamBufferSize),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
		done:            make(chan struct{}),
	}
}

// Channel returns the channel arbor writes log batches to
func (s *LogStreamer) Channel() chan []arbormodels.LogEvent {
	return s.channel
}

// Start launches the consumer goroutine
func (s *LogStreamer) Start() error {
	s.wg.Add(1)
	go s.consume()
	return nil
}

// Stop drains and shuts down the consumer
func (s *LogStreamer) Stop() error {
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *LogStreamer) consume() {
	defer s.wg.Done()

	for {
		select {
		case batch, ok := <-s.channel:
			if !ok {
				return
			}
			for _, event := range batch {
				if arborlevels.FromLogLevel(event.Level) < s.minLevel {
					continue
				}
				if s.excluded(event.Message) {
					continue
				}
				s.handler.BroadcastLog(LogEntry{
					Timestamp: event.Timestamp.Format("15:04:05"),
					Level:     levelCode(event.Level),
					Message:   formatStreamMessage(event),
				})
			}
		case <-s.done:
			return
		}
	}
}

func (s *LogStreamer) excluded(message string) bool {
	for _, pattern := range s.excludePatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// formatStreamMessage appends structured fields to the message the way they
// appear in the console writer, so the UI panel reads like the server log.
func formatStreamMessage(event arbormodels.LogEvent) string {
	if len(event.Fields) == 0 {
		return event.Message
	}
	message := event.Message
	for key, value := range event.Fields {
		message += fmt.Sprintf(" %s=%v", key, value)
	}
	return message
}

// parseStreamLevel converts a config level string to an arbor level
func parseStreamLevel(level string) arbor.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return arbor.DebugLevel
	case "info":
		return arbor.InfoLevel
	case "warn", "warning":
		return arbor.WarnLevel
	case "error":
		return arbor.ErrorLevel
	default:
		return arbor.InfoLevel
	}
}

// levelCode converts a log level to the 3-letter display code used in the UI
func levelCode(level plog.Level) string {
	switch strings.ToUpper(level.String()) {
	case "INFO":
		return "INF"
	case "WARN", "WARNING":
		return "WRN"
	case "ERROR":
		return "ERR"
	case "DEBUG":
		return "DBG"
	default:
		return "INF"
	}
}
