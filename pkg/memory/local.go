package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LocalOptions configures a Local store.
type LocalOptions struct {
	// MaxTurns bounds the turns kept per key. Default: DefaultMaxTurns.
	MaxTurns int

	// IdleTTL evicts keys not read or written for this long. Zero disables
	// eviction.
	IdleTTL time.Duration

	Logger *slog.Logger
}

// Local is an in-process Store.
//
// The key map is guarded by an RWMutex; each entry has its own mutex, so
// work on one key never blocks another once the entry is found.
type Local struct {
	mu      sync.RWMutex
	entries map[string]*entry

	maxTurns int
	idleTTL  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	mu         sync.Mutex
	turns      []Turn
	lastAccess time.Time
	removed    bool
}

// NewLocal creates a Local store and starts the idle janitor when IdleTTL is set.
func NewLocal(opts LocalOptions) *Local {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Local{
		entries:  make(map[string]*entry),
		maxTurns: turnCap(opts.MaxTurns),
		idleTTL:  opts.IdleTTL,
		now:      time.Now,
		logger:   logger.With("component", "memory.local"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	if l.idleTTL > 0 {
		l.wg.Add(1)
		go l.cleanupLoop(ctx)
	}

	return l
}

// Turns returns a copy of the key's turns.
func (l *Local) Turns(ctx context.Context, key string) ([]Turn, error) {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()
	if !ok {
		return []Turn{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return []Turn{}, nil
	}
	e.lastAccess = l.now()

	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

// Append adds turns to key and trims the oldest pairs beyond MaxTurns.
func (l *Local) Append(ctx context.Context, key string, turns ...Turn) error {
	if err := validateTurns(turns); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		e := l.entryFor(key)

		e.mu.Lock()
		if e.removed {
			// Cleared between lookup and lock; retry with a fresh entry.
			e.mu.Unlock()
			continue
		}
		e.turns = trimPairs(append(e.turns, turns...), l.maxTurns)
		e.lastAccess = l.now()
		e.mu.Unlock()
		return nil
	}
}

func (l *Local) entryFor(key string) *entry {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		return e
	}
	e = &entry{lastAccess: l.now()}
	l.entries[key] = e
	return e
}

// Clear removes key.
func (l *Local) Clear(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	delete(l.entries, key)
	l.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.removed = true
		e.turns = nil
		e.mu.Unlock()
	}
	return nil
}

// ClearAll removes every key.
func (l *Local) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	old := l.entries
	l.entries = make(map[string]*entry)
	l.mu.Unlock()

	for _, e := range old {
		e.mu.Lock()
		e.removed = true
		e.turns = nil
		e.mu.Unlock()
	}
	return nil
}

// Status reports the keys held and their total turns.
func (l *Local) Status(ctx context.Context) (Status, error) {
	l.mu.RLock()
	snapshot := make(map[string]*entry, len(l.entries))
	for k, e := range l.entries {
		snapshot[k] = e
	}
	l.mu.RUnlock()

	counts := make(map[string]int, len(snapshot))
	for k, e := range snapshot {
		e.mu.Lock()
		if !e.removed {
			counts[k] = len(e.turns)
		}
		e.mu.Unlock()
	}
	return sortedStatus(counts), nil
}

// Close stops the janitor.
func (l *Local) Close() error {
	l.cancel()
	l.wg.Wait()
	return nil
}

// cleanupLoop evicts idle keys until Close.
func (l *Local) cleanupLoop(ctx context.Context) {
	defer l.wg.Done()

	interval := l.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.evictIdle(); n > 0 {
				l.logger.Debug("evicted idle conversation memory", "count", n)
			}
		}
	}
}

// evictIdle removes keys idle for longer than IdleTTL and returns how many.
func (l *Local) evictIdle() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for k, e := range l.entries {
		e.mu.Lock()
		if e.lastAccess.Before(cutoff) {
			e.removed = true
			e.turns = nil
			delete(l.entries, k)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}
