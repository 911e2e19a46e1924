// Package tracelog records every snapshot of a session as zstd-compressed
// JSON lines.
package tracelog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const bufferSize = 64 * 1024

var ErrClosed = errors.New("trace is closed")

// Writer is a game.Renderer appending one JSON line per snapshot.
type Writer struct {
	path   string
	logger game.Logger

	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	frames int
	err    error
}

// Path returns the trace file location for a session under dir.
func Path(dir string, session uuid.UUID) string {
	return filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", session))
}

// Open creates or truncates the trace file of session under dir.
func Open(dir string, session uuid.UUID, logger game.Logger) (*Writer, error) {
	if logger == nil {
		logger = game.NopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := Path(dir, session)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Writer{
		path:   path,
		logger: logger,
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, bufferSize),
	}, nil
}

// Render appends s. A failed write is logged once and stops the trace.
func (tw *Writer) Render(s game.Snapshot) {
	if err := tw.Write(s); err != nil && !errors.Is(err, ErrClosed) {
		tw.logger.Warning(fmt.Sprintf("trace %s stopped: %s", tw.path, err))
	}
}

// Write appends v as one JSON line.
func (tw *Writer) Write(v any) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.w == nil {
		return ErrClosed
	}
	if tw.err != nil {
		return ErrClosed
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := tw.w.Write(b); err != nil {
		tw.err = err
		return err
	}
	if err := tw.w.WriteByte('\n'); err != nil {
		tw.err = err
		return err
	}
	tw.frames++
	return nil
}

// Frames returns how many lines were written.
func (tw *Writer) Frames() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.frames
}

// Path returns the file the trace is written to.
func (tw *Writer) Path() string { return tw.path }

// Close flushes the trace and closes the file. It is safe to call twice.
func (tw *Writer) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.w == nil {
		return nil
	}

	flushErr := tw.w.Flush()
	encErr := tw.enc.Close()
	fileErr := tw.f.Close()
	tw.w, tw.enc, tw.f = nil, nil, nil

	return errors.Join(flushErr, encErr, fileErr)
}
