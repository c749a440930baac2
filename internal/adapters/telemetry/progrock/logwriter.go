package progrock

import (
	"bytes"
	"strings"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ progrock.Writer = (*LogWriter)(nil)

// LogWriter consumes a recording and forwards vertex logs to a logger, one line at a time.
// Lines written through Vertex.Log keep their level; warnings and errors are logged as
// warnings and everything else at debug level.
type LogWriter struct {
	logger ports.Logger

	mu      sync.Mutex
	names   map[string]string
	partial map[string][]byte
	cached  map[string]bool
}

// NewLogWriter creates a LogWriter forwarding to logger.
func NewLogWriter(logger ports.Logger) *LogWriter {
	return &LogWriter{
		logger:  logger,
		names:   make(map[string]string),
		partial: make(map[string][]byte),
		cached:  make(map[string]bool),
	}
}

// WriteStatus forwards the complete lines of every log in update. The recorder calls it
// from any goroutine.
func (w *LogWriter) WriteStatus(update *progrock.StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, v := range update.GetVertexes() {
		w.names[v.GetId()] = v.GetName()
		if !v.GetCached() {
			delete(w.cached, v.GetId())
			continue
		}
		if !w.cached[v.GetId()] {
			w.cached[v.GetId()] = true
			w.logger.Debug(v.GetName() + ": cached")
		}
	}

	for _, l := range update.GetLogs() {
		buf := append(w.partial[l.GetVertex()], l.GetData()...)
		for {
			i := bytes.IndexByte(buf, '\n')
			if i < 0 {
				break
			}
			w.emit(l.GetVertex(), string(buf[:i]))
			buf = buf[i+1:]
		}
		if len(buf) == 0 {
			delete(w.partial, l.GetVertex())
			continue
		}
		w.partial[l.GetVertex()] = buf
	}
	return nil
}

// Close forwards lines that never saw a trailing newline.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, buf := range w.partial {
		w.emit(id, string(buf))
		delete(w.partial, id)
	}
	return nil
}

func (w *LogWriter) emit(id, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	level, msg := domain.LogLevelDebug, line
	if rest, ok := strings.CutPrefix(line, "["); ok {
		if tag, text, ok := strings.Cut(rest, "] "); ok {
			level, msg = domain.ParseLogLevel(tag), text
		}
	}

	name := w.names[id]
	if name == "" {
		name = id
	}
	if level >= domain.LogLevelWarn {
		w.logger.Warn(name + ": " + msg)
		return
	}
	w.logger.Debug(name + ": " + msg)
}
