package market

import (
	"sync"
	"time"
)

// SnapshotStore holds the latest tick per (symbol, exchange). Upsert is
// last-write-wins by arrival order, not by tick timestamp: a delayed tick
// overwrites a newer one, and downstream consumers rely on "most recently
// received" semantics.
type SnapshotStore struct {
	mu    sync.RWMutex
	ticks map[string]map[string]PriceTick
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{ticks: make(map[string]map[string]PriceTick)}
}

func (s *SnapshotStore) Upsert(tick PriceTick) {
	if !tick.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	venues, ok := s.ticks[tick.Symbol]
	if !ok {
		venues = make(map[string]PriceTick)
		s.ticks[tick.Symbol] = venues
	}
	venues[tick.Exchange] = tick
}

// PruneOlderThan drops per-venue entries with Timestamp before cutoff and
// removes symbols that lose their last venue. It returns the number of
// entries dropped.
func (s *SnapshotStore) PruneOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for symbol, venues := range s.ticks {
		for exchange, tick := range venues {
			if tick.Timestamp.Before(cutoff) {
				delete(venues, exchange)
				dropped++
			}
		}
		if len(venues) == 0 {
			delete(s.ticks, symbol)
		}
	}
	return dropped
}

// SnapshotFor returns a copy of the per-venue ticks for one symbol, or nil if
// the symbol has no fresh ticks.
func (s *SnapshotStore) SnapshotFor(symbol string) map[string]PriceTick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	venues, ok := s.ticks[symbol]
	if !ok {
		return nil
	}
	out := make(map[string]PriceTick, len(venues))
	for exchange, tick := range venues {
		out[exchange] = tick
	}
	return out
}

// All returns a deep copy of the whole table taken under one lock hold, so a
// refresh cycle observes a single consistent generation of the store.
func (s *SnapshotStore) All() map[string]map[string]PriceTick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]PriceTick, len(s.ticks))
	for symbol, venues := range s.ticks {
		copied := make(map[string]PriceTick, len(venues))
		for exchange, tick := range venues {
			copied[exchange] = tick
		}
		out[symbol] = copied
	}
	return out
}

func (s *SnapshotStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ticks))
	for symbol := range s.ticks {
		out = append(out, symbol)
	}
	return out
}

func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}
