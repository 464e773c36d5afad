// Package runlog appends one compressed JSONL line per simulation run,
// rotated hourly. The log is an operational audit trail; the database in
// runstore remains the source of truth for run output.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Entry is one line of the run log.
type Entry struct {
	Time       string  `json:"time"`
	RunID      int64   `json:"run_id,omitempty"`
	Status     string  `json:"status"`
	Iterations int     `json:"iterations"`
	Agents     int     `json:"agents"`
	WallMS     float64 `json:"wall_ms"`
	Error      string  `json:"error,omitempty"`
}

// Writer appends JSON lines to zstd-compressed files named
// <prefix>-<UTC hour>.jsonl.zst under dir, starting a new file each hour.
// Safe for concurrent use.
type Writer struct {
	dir    string
	prefix string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
}

func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix}
}

// Append marshals v and writes it as one line, flushed through to the
// encoder so a crash loses at most the current zstd frame.
func (w *Writer) Append(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(b); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}

	w.f = f
	w.enc = enc
	w.buf = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var encErr error
	if w.buf != nil {
		_ = w.buf.Flush()
	}
	if w.enc != nil {
		encErr = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.buf = nil
	w.curHour = ""
	return encErr
}

// Logger records run entries under dir.
type Logger struct {
	w *Writer
}

func New(dir string) *Logger {
	return &Logger{w: NewWriter(dir, "runs")}
}

// Record stamps and appends e.
func (l *Logger) Record(e Entry) error {
	e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	return l.w.Append(e)
}

func (l *Logger) Close() error { return l.w.Close() }
