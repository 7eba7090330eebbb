package proxy

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"claude-gateway/internal/metrics"
)

// writeSSEEvent writes one `event: <type>\ndata: <json>\n\n` frame to w and
// flushes it immediately.
func writeSSEEvent(w io.Writer, flusher http.Flusher, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	flusher.Flush()
	metrics.StreamEventsTotal.WithLabelValues(eventType).Inc()
	return nil
}

// writeKeepAlive writes an SSE comment line, the conventional heartbeat
// shape, so intermediaries holding the connection open don't time it out
// during a long upstream think.
func writeKeepAlive(w io.Writer, flusher http.Flusher) error {
	if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// sseLines reads "data: ..." frames off an upstream SSE body line by line,
// skipping blank lines, comments, and anything before the first "data: "
// prefix. It pushes each payload (with the "data: " prefix stripped) onto
// out, and closes out when the body is exhausted. errc carries a non-EOF
// scan error, if any. Buffer sizing is 64KB initial, 1MB ceiling per line.
func sseLines(body io.Reader, out chan<- string, errc chan<- error) {
	defer close(out)
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		out <- strings.TrimPrefix(line, "data: ")
	}
	if err := scanner.Err(); err != nil {
		errc <- err
	}
}
