// Package monitor tails an Elite-Dangerous-style journal folder and
// feeds its lines to the mission registry and the session counters.
//
// The monitor is the single writer of the registry; readers take
// snapshots on their own schedule and are woken through Updates.
package monitor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"edmon/internal/journal"
	"edmon/internal/missions"
	"edmon/internal/stats"
)

// ErrNoJournal reports a folder without any journal files.
var ErrNoJournal = errors.New("no journal files found")

const (
	defaultPollInterval          = 500 * time.Millisecond
	defaultRotationCheckInterval = 5 * time.Second
)

type Options struct {
	// Dir is the journal folder to watch.
	Dir string
	// PollInterval is how often the active file's size is checked.
	PollInterval time.Duration
	// RotationCheckInterval is how often the folder is re-scanned for
	// a newer journal file.
	RotationCheckInterval time.Duration

	Stack  *missions.Stack
	Stats  *stats.Session
	Logger *slog.Logger
	Now    func() time.Time
}

// Monitor owns one journal-watching run. Create with New; drive with
// Run or Replay.
type Monitor struct {
	dir            string
	pollInterval   time.Duration
	rotateInterval time.Duration

	stack   *missions.Stack
	stats   *stats.Session
	log     *slog.Logger
	parser  journal.Parser
	updates chan struct{}

	// mu guards the fields a reader may inspect while Run owns them.
	mu        sync.Mutex
	sessionID uuid.UUID
	file      string

	// offset and pending are touched only by the Run/Replay goroutine.
	offset  int64
	pending []byte
}

func New(o Options) *Monitor {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.RotationCheckInterval <= 0 {
		o.RotationCheckInterval = defaultRotationCheckInterval
	}
	if o.Stats == nil {
		o.Stats = stats.NewSession()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Monitor{
		dir:            o.Dir,
		pollInterval:   o.PollInterval,
		rotateInterval: o.RotationCheckInterval,
		stack:          o.Stack,
		stats:          o.Stats,
		log:            o.Logger,
		parser:         journal.Parser{Now: o.Now},
		updates:        make(chan struct{}, 1),
		sessionID:      uuid.New(),
	}
}

// Updates signals that tracked state may have changed. Notifications
// are coalesced; a reader that wakes up re-reads the snapshots.
func (m *Monitor) Updates() <-chan struct{} { return m.updates }

// SessionID identifies the current monitoring session. It changes when
// a newer journal file takes over.
func (m *Monitor) SessionID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// CurrentFile is the journal file being tailed, empty before Run.
func (m *Monitor) CurrentFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file
}

// LatestJournal returns the most recently modified *.log file in dir.
func LatestJournal(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return "", fmt.Errorf("scan journal folder: %w", err)
	}
	newest := ""
	var newestMod time.Time
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if newest == "" || fi.ModTime().After(newestMod) {
			newest = path
			newestMod = fi.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNoJournal)
	}
	return newest, nil
}

// Run tails the newest journal in the folder until ctx is cancelled.
// The whole current content of the file is ingested first, then only
// appended bytes. When a newer file appears the stack and the counters
// are reset and tailing restarts from its beginning.
func (m *Monitor) Run(ctx context.Context) error {
	file, err := LatestJournal(m.dir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.file = file
	m.mu.Unlock()
	m.log.Info("monitoring journal folder",
		"dir", m.dir,
		"file", filepath.Base(file),
		"session", m.SessionID())

	poll := time.NewTicker(m.pollInterval)
	defer poll.Stop()
	rotate := time.NewTicker(m.rotateInterval)
	defer rotate.Stop()

	m.poll()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitoring stopped", "session", m.SessionID())
			return ctx.Err()
		case <-poll.C:
			m.poll()
		case <-rotate.C:
			m.checkRotation()
		}
	}
}

// Replay ingests a complete journal file in one synchronous pass.
func (m *Monitor) Replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m.handleLine(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return nil
}

// poll ingests whatever the active file has grown by. Read errors are
// logged and retried on the next tick, never fatal.
func (m *Monitor) poll() {
	file := m.CurrentFile()
	fi, err := os.Stat(file)
	if err != nil {
		m.log.Debug("journal stat failed", "error", err)
		return
	}
	size := fi.Size()
	if size < m.offset {
		// File shrank under us; start over from the top.
		m.log.Warn("journal truncated, rereading", "file", filepath.Base(file))
		m.offset = 0
		m.pending = nil
	}
	if size == m.offset {
		return
	}
	f, err := os.Open(file)
	if err != nil {
		m.log.Warn("journal open failed", "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Seek(m.offset, io.SeekStart); err != nil {
		m.log.Warn("journal seek failed", "error", err)
		return
	}
	grown := make([]byte, size-m.offset)
	if _, err := io.ReadFull(f, grown); err != nil {
		m.log.Warn("journal read failed", "error", err)
		return
	}
	m.offset = size
	m.ingest(grown)
}

// ingest splits appended bytes into lines, holding back a trailing
// partial line until its newline arrives.
func (m *Monitor) ingest(data []byte) {
	data = append(m.pending, data...)
	m.pending = nil
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			if len(data) > 0 {
				m.pending = data
			}
			return
		}
		line := bytes.TrimRight(data[:i], "\r")
		data = data[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		m.handleLine(line)
	}
}

func (m *Monitor) handleLine(line []byte) {
	raw, err := journal.Decode(line)
	if err != nil {
		m.stats.RecordSkipped()
		m.log.Debug("skipping undecodable journal line", "error", err)
		return
	}
	if journal.IsMissionEvent(raw) {
		if ev := m.parser.ParseMap(raw); ev != nil {
			m.stats.RecordEvent(ev)
			m.stack.Process(ev)
			m.notify()
			return
		}
	}
	m.stats.RecordRaw(raw, m.parser.Timestamp(raw))
	m.notify()
}

// checkRotation switches to a newer journal file. The switch is a
// session boundary: tracked missions and counters start over.
func (m *Monitor) checkRotation() {
	latest, err := LatestJournal(m.dir)
	if err != nil || latest == m.CurrentFile() {
		return
	}
	m.log.Info("new journal detected, starting fresh session",
		"file", filepath.Base(latest))
	m.stack.Clear()
	m.stats.Reset()
	m.mu.Lock()
	m.file = latest
	m.sessionID = uuid.New()
	m.mu.Unlock()
	m.offset = 0
	m.pending = nil
	m.notify()
	m.poll()
}

func (m *Monitor) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}
