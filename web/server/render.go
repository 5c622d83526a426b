package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// RowUpdate reports a row that has been emitted to the image
type RowUpdate struct {
	Row       int `json:"row"`
	TotalRows int `json:"totalRows"`
}

// CompleteUpdate carries the finished image and statistics
type CompleteUpdate struct {
	ImageData string `json:"imageData"` // Base64 encoded image in Format
	Format    string `json:"format"`
	Stats     Stats  `json:"stats"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "row", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// rowSink is a renderer.PixelSink that turns finished rows into SSE events
type rowSink struct {
	ctx    context.Context
	events chan<- SSEEvent
	width  int
	height int
	pixels int
}

func (rs *rowSink) Begin(width, height int) error {
	rs.width, rs.height = width, height
	return nil
}

func (rs *rowSink) WritePixel(r, g, b int) error {
	rs.pixels++
	if rs.pixels%rs.width != 0 {
		return nil
	}
	data, err := json.Marshal(RowUpdate{Row: rs.pixels/rs.width - 1, TotalRows: rs.height})
	if err != nil {
		return err
	}
	select {
	case rs.events <- SSEEvent{Type: "row", Data: string(data)}:
		return nil
	case <-rs.ctx.Done():
		return rs.ctx.Err()
	}
}

func (rs *rowSink) End() error {
	return nil
}

// handleRenderStream renders an image while streaming console output and row progress via SSE
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Single writer goroutine; the handler waits for it before returning
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	stopConsole := func() {
		close(consoleChan)
		<-consoleDone
		if n := webLogger.Dropped(); n > 0 {
			log.Printf("[%s] %d console lines dropped", webLogger.RenderID(), n)
		}
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		stopConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	webLogger.Printf("Scene %q: %d spheres\n", sceneObj.Name, sceneObj.GetPrimitiveCount())

	raytracer := newRaytracer(sceneObj, req, webLogger)
	sink := &rowSink{ctx: ctx, events: sseEventChan}
	img, stats, err := raytracer.Render(ctx, sink, renderer.RenderOptions{Seed: req.Seed})
	webLogger.Printf("%s\n", renderer.FormatStats(stats))
	stopConsole()
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	imageData, err := s.imageToBase64(img, req.Format)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	data, err := json.Marshal(CompleteUpdate{
		ImageData: imageData,
		Format:    string(req.Format),
		Stats:     newStats(stats, sceneObj),
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, *WebLogger) {
	consoleChan := make(chan ConsoleMessage, 50)
	return consoleChan, NewWebLogger(newRenderID(), consoleChan)
}

func newRenderID() string {
	return fmt.Sprintf("render-%d", time.Now().UnixNano())
}

// writeSSEEvents writes all SSE events from a single goroutine until the channel closes
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	disconnected := false
	for event := range sseEventChan {
		// Keep draining after a disconnect so senders never block
		if disconnected || ctx.Err() != nil {
			disconnected = true
			continue
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			disconnected = true
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages to the SSE channel until consoleChan closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		}
	}
}

// imageToBase64 encodes an image in the given format as base64
func (s *Server) imageToBase64(img image.Image, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, format); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
