package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// errClientGone stops upstream consumption once the downstream consumer has
// disconnected or the writer has been closed. Returned from the gateway
// callback so no further chunks are pulled for a receiver that is gone.
var errClientGone = errors.New("client gone")

// streamWriter is the guarded downstream sink for one generate request.
// Headers are deferred until the first write so open-time upstream failures
// can still pick the outer HTTP status code. Once the first chunk is written
// the response is committed as 200 and later failures can only be reported
// inside the body.
type streamWriter struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string

	mu      sync.Mutex
	started bool
	closed  bool

	chunkCount int
	totalBytes int64
}

// newStreamWriter wraps an HTTP response for guarded streaming writes.
// Returns an error if the underlying writer cannot flush.
func newStreamWriter(w http.ResponseWriter, sessionID string) (*streamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}
	return &streamWriter{w: w, flusher: flusher, sessionID: sessionID}, nil
}

// safeWrite writes text to the downstream stream, flushing immediately.
// It is a no-op returning false once the writer is closed; a failed write
// marks the writer closed so the relay stops promptly. It never panics and
// never propagates a write error.
func (sw *streamWriter) safeWrite(text string) bool {
	if text == "" {
		return true
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return false
	}

	sw.startLocked()

	n, err := sw.w.Write([]byte(text))
	sw.chunkCount++
	sw.totalBytes += int64(n)
	if err != nil {
		sw.closed = true
		return false
	}
	sw.flusher.Flush()
	return true
}

// commit ensures the 200 status and headers went out even when the upstream
// produced no text at all, so every successful response carries X-Session-ID.
func (sw *streamWriter) commit() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return
	}
	sw.startLocked()
}

// startLocked writes the status line and headers once. Caller holds sw.mu.
func (sw *streamWriter) startLocked() {
	if sw.started {
		return
	}
	sw.w.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	sw.w.Header().Set(headerSessionID, sw.sessionID)
	sw.w.WriteHeader(http.StatusOK)
	sw.started = true
}

// safeClose marks the writer closed. Idempotent.
func (sw *streamWriter) safeClose() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.closed = true
}

// streamStarted reports whether the 200 status line has been committed.
func (sw *streamWriter) streamStarted() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.started
}

// counters returns the chunk and byte counters, for telemetry only.
func (sw *streamWriter) counters() (int, int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.chunkCount, sw.totalBytes
}

// headerSessionID carries the (possibly derived) session id back to the
// client on every successful generate response.
const headerSessionID = "X-Session-ID"
