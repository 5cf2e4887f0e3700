package truststore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// ErrUnknownVerdict is returned when RecordInteraction receives a verdict
// outside safe/phishing/suspicious
var ErrUnknownVerdict = errors.New("unknown interaction verdict")

type record struct {
	snapshot core.BehaviorSnapshot
}

// MemoryStore is an in-memory implementation of the TrustStore interface
type MemoryStore struct {
	records          map[string]*record
	mu               sync.RWMutex
	logger           *zap.Logger
	trustedThreshold int
}

// NewMemoryStore creates a new in-memory trust store
func NewMemoryStore(logger *zap.Logger, trustedThreshold int) *MemoryStore {
	return &MemoryStore{
		records:          make(map[string]*record),
		logger:           logger,
		trustedThreshold: trustedThreshold,
	}
}

// IsSenderTrusted reports whether the sender has only-safe history at or
// above the confirmation threshold
func (s *MemoryStore) IsSenderTrusted(ctx context.Context, sender string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[normalizeSender(sender)]
	if !ok {
		return false, nil
	}
	snap := rec.snapshot
	return snap.Phishing == 0 && snap.Safe == snap.Total && snap.Safe >= s.trustedThreshold, nil
}

// GetBehaviorSnapshot returns a copy of the sender's aggregates, or nil
// when the sender has never been seen
func (s *MemoryStore) GetBehaviorSnapshot(ctx context.Context, sender string) (*core.BehaviorSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[normalizeSender(sender)]
	if !ok {
		return nil, nil
	}
	snap := rec.snapshot
	return &snap, nil
}

// RecordInteraction updates the counters for a sender
func (s *MemoryStore) RecordInteraction(ctx context.Context, sender, domain, verdict string) error {
	key := normalizeSender(sender)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &record{snapshot: core.BehaviorSnapshot{
			Sender:    key,
			Domain:    strings.ToLower(domain),
			FirstSeen: &now,
		}}
		s.records[key] = rec
	}

	switch verdict {
	case "safe":
		rec.snapshot.Safe++
	case "phishing":
		rec.snapshot.Phishing++
	case "suspicious":
		rec.snapshot.Suspicious++
	default:
		return ErrUnknownVerdict
	}
	rec.snapshot.Total++
	last := now
	rec.snapshot.LastSeen = &last

	s.logger.Debug("Recorded sender interaction",
		zap.String("sender", key),
		zap.String("verdict", verdict),
		zap.Int("total", rec.snapshot.Total))
	return nil
}

func normalizeSender(sender string) string {
	return strings.ToLower(strings.TrimSpace(sender))
}
