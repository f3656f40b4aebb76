package flow

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status is the state of a single progress entry.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusComplete
	StatusWarning
	StatusError
	StatusInfo
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusComplete:
		return "complete"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusInfo:
		return "info"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether s is a resolved state.
func (s Status) Terminal() bool {
	return s != StatusPending && s != StatusActive
}

// Entry is one line of user-visible progress.
type Entry struct {
	Message string
	Status  Status
	Time    time.Time
}

var (
	ErrEntryActive   = errors.New("another entry is still active")
	ErrNoSuchEntry   = errors.New("no such progress entry")
	ErrNotTerminal   = errors.New("resolution status must be terminal")
	ErrAlreadyClosed = errors.New("entry already resolved")
)

// Observer is called with a snapshot after every change to a Log.
type Observer func(entries []Entry)

// Log is an append-only list of progress entries for one creation attempt.
// Entries are never removed or reordered; only the status and message of an
// active entry may change, and at most one entry is active at a time.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	active   int // index of the active entry, -1 if none
	now      func() time.Time
	observer Observer
}

// NewLog creates an empty Log. A nil clock uses time.Now.
func NewLog(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{active: -1, now: now}
}

// SetObserver registers a change observer. Pass nil to clear.
func (l *Log) SetObserver(o Observer) {
	l.mu.Lock()
	l.observer = o
	l.mu.Unlock()
}

// Begin appends an active entry and returns its index.
func (l *Log) Begin(message string) (int, error) {
	l.mu.Lock()
	if l.active >= 0 {
		l.mu.Unlock()
		return -1, ErrEntryActive
	}
	l.entries = append(l.entries, Entry{Message: message, Status: StatusActive, Time: l.now()})
	l.active = len(l.entries) - 1
	idx := l.active
	l.mu.Unlock()

	l.notify()
	return idx, nil
}

// Resolve sets the final status of the active entry at idx. An empty message
// keeps the original text.
func (l *Log) Resolve(idx int, status Status, message string) error {
	if !status.Terminal() {
		return ErrNotTerminal
	}

	l.mu.Lock()
	if idx < 0 || idx >= len(l.entries) {
		l.mu.Unlock()
		return ErrNoSuchEntry
	}
	if idx != l.active {
		l.mu.Unlock()
		return ErrAlreadyClosed
	}
	e := &l.entries[idx]
	e.Status = status
	if message != "" {
		e.Message = message
	}
	e.Time = l.now()
	l.active = -1
	l.mu.Unlock()

	l.notify()
	return nil
}

// Note appends an already-resolved entry.
func (l *Log) Note(status Status, message string) error {
	if !status.Terminal() {
		return ErrNotTerminal
	}
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Message: message, Status: status, Time: l.now()})
	l.mu.Unlock()

	l.notify()
	return nil
}

// Entries returns a copy of all entries in order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Count returns the number of entries with the given status.
func (l *Log) Count(status Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

func (l *Log) snapshot() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) notify() {
	l.mu.Lock()
	obs := l.observer
	snap := l.snapshot()
	l.mu.Unlock()
	if obs != nil {
		obs(snap)
	}
}
