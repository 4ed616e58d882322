// Package journal appends one compressed JSONL entry per tick describing
// what the controller decided.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Transition records one unit's goal change.
type Transition struct {
	Unit   string `json:"unit"`
	From   string `json:"from"`
	To     string `json:"to"`
	Code   string `json:"code,omitempty"`
	Move   string `json:"move,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Event is a colony-level change noticed between two ticks.
type Event struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type TickEntry struct {
	Tick        int          `json:"tick"`
	Units       int          `json:"units"`
	Intents     int          `json:"intents"`
	Spawned     []string     `json:"spawned,omitempty"`
	Pruned      []string     `json:"pruned,omitempty"`
	Errors      int          `json:"errors,omitempty"`
	Events      []Event      `json:"events,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Writer rotates to a new file every UTC hour. Every Write ends a zstd block,
// so entries are readable before the frame is closed; a file cut short by a
// crash reads back up to its last whole entry.
type Writer struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) Write(e TickEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return fmt.Errorf("rotate journal: %w", err)
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	// end a zstd block per tick so a crash loses at most the current entry
	return w.enc.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
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
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("ticks-%s.jsonl.zst", hour))
}

// Files lists journal files in dir, oldest first.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "ticks-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Read decodes every entry of one journal file. A file appended to across
// restarts holds several zstd frames; the decoder reads them back to back.
func Read(path string, fn func(TickEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer dec.Close()

	jd := json.NewDecoder(dec)
	for {
		var e TickEntry
		if err := jd.Decode(&e); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
