package server

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// ConsoleMessage is one line of render log shown in the browser console
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// Render log lines that are not plain progress
var consoleLevels = []struct {
	prefix string
	level  string
}{
	{"Error writing pixel", "error"},
	{"Render stopped", "warning"},
}

// consoleLevel classifies a render log line
func consoleLevel(message string) string {
	for _, l := range consoleLevels {
		if strings.HasPrefix(message, l.prefix) {
			return l.level
		}
	}
	return "info"
}

// WebLogger is the core.Logger of one render. Lines go to the server log
// tagged with the render ID and, when a console channel is attached, to the
// browser without ever blocking the renderer.
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	dropped     atomic.Int64
}

// NewWebLogger creates the logger for a render; consoleChan may be nil
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// RenderID identifies the render in logs and response headers
func (wl *WebLogger) RenderID() string {
	return wl.renderID
}

// Dropped reports how many lines were skipped because the console was full
func (wl *WebLogger) Dropped() int64 {
	return wl.dropped.Load()
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))

	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     consoleLevel(message),
	}:
	default:
		wl.dropped.Add(1)
	}
}
