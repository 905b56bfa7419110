package otp

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"forum/pkg/logger"
)

// MemoryStore keeps records in a map behind one mutex. Every operation
// holds it, which also serializes operations on the same identity.
type MemoryStore struct {
	clock clockwork.Clock

	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		records: map[string]Record{},
	}
}

func (s *MemoryStore) Generate(ctx context.Context, identity string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}
	key := Normalize(identity)

	s.mu.Lock()
	s.records[key] = Record{Identity: key, Code: code, Expires: s.clock.Now().Add(TTL)}
	s.mu.Unlock()

	logger.Log(ctx).Debugf("otp: code issued for %s", key)
	return code, nil
}

func (s *MemoryStore) Verify(_ context.Context, identity, code string) (bool, error) {
	key := Normalize(identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return false, nil
	}
	if !s.clock.Now().Before(rec.Expires) {
		delete(s.records, key)
		return false, nil
	}
	if rec.Code != code {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *MemoryStore) Invalidate(_ context.Context, identity string) error {
	s.mu.Lock()
	delete(s.records, Normalize(identity))
	s.mu.Unlock()
	return nil
}

// Sweep drops expired records and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, rec := range s.records {
		if !now.Before(rec.Expires) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len is the number of stored records, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// RunSweeper calls Sweep on every tick until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, every time.Duration) {
	t := s.clock.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if n := s.Sweep(); n > 0 {
				logger.Log(ctx).Debugf("otp: swept %d expired codes", n)
			}
		}
	}
}
