// Package pairing holds the ephemeral pending-pairing state: tokens issued
// for QR codes that a device has not yet confirmed. The store is process
// memory only; a restart mid-pairing means the QR must be re-issued.
package pairing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"bioauth/internal/domain"
)

// TokenBytes gives 128 bits of entropy, hex-encoded on the wire.
const TokenBytes = 16

type Pending struct {
	UserID    domain.UserID
	SiteID    string
	ExpiresAt time.Time
}

func (p Pending) expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Store is the only shared mutable state in the service. All operations take
// the caller's clock reading so a single request never straddles a window
// boundary; expiry is enforced on access, the sweeper only bounds memory.
type Store struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func NewStore() *Store {
	return &Store{pending: make(map[string]Pending)}
}

// NewToken returns a fresh 128-bit hex token.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *Store) Put(token string, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[token] = p
}

// Get returns the pending entry without consuming it. An expired entry is
// evicted and reported as absent.
func (s *Store) Get(token string, now time.Time) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[token]
	if !ok {
		return Pending{}, false
	}
	if p.expired(now) {
		delete(s.pending, token)
		return Pending{}, false
	}
	return p, true
}

// Consume atomically removes and returns the entry. This is the single-use
// gate: of two concurrent confirms for the same token, exactly one succeeds.
func (s *Store) Consume(token string, now time.Time) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[token]
	if !ok {
		return Pending{}, false
	}
	delete(s.pending, token)
	if p.expired(now) {
		return Pending{}, false
	}
	return p, true
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, p := range s.pending {
		if p.expired(now) {
			delete(s.pending, token)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunSweeper evicts abandoned tokens periodically until ctx is done. Expiry
// is already enforced on access; this only keeps the map from growing.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := s.Sweep(now); removed > 0 {
				slog.Debug("swept expired pairing tokens", "removed", removed, "remaining", s.Len())
			}
		}
	}
}
