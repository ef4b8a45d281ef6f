package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/utils"
)

// MemoryStore keeps snapshots in process memory. Expired entries are ignored
// on lookup and pruned by an optional cron sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]Snapshot
	byName  map[string]string // folded name -> token

	ttl    time.Duration
	now    func() time.Time
	cron   *cron.Cron
	logger *zerolog.Logger
}

// NewMemoryStore creates an empty store. A ttl <= 0 keeps snapshots until
// they are restored or replaced.
func NewMemoryStore(ttl time.Duration, logger *zerolog.Logger) *MemoryStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MemoryStore{
		byToken: make(map[string]Snapshot),
		byName:  make(map[string]string),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// StartSweeper schedules Sweep with a cron expression such as "@every 1m".
func (s *MemoryStore) StartSweeper(schedule string) error {
	if schedule == "" || s.ttl <= 0 {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Debug().Int("pruned", n).Msg("session snapshots expired")
		}
	}); err != nil {
		return fmt.Errorf("schedule session sweeper: %w", err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	return nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = s.now()
	}
	folded := utils.FoldName(snap.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byName[folded]; ok && old != snap.Token {
		delete(s.byToken, old)
	}
	if prev, ok := s.byToken[snap.Token]; ok {
		s.dropName(prev)
	}
	s.byToken[snap.Token] = snap
	s.byName[folded] = snap.Token
	return nil
}

// Restore implements Store.
func (s *MemoryStore) Restore(_ context.Context, token string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.byToken[token]
	if !ok {
		return Snapshot{}, false, nil
	}
	delete(s.byToken, token)
	s.dropName(snap)

	if s.expired(snap) {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// TokenForName implements Store.
func (s *MemoryStore) TokenForName(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byName[utils.FoldName(name)]
	if !ok {
		return "", false, nil
	}
	if snap := s.byToken[token]; s.expired(snap) {
		return "", false, nil
	}
	return token, true, nil
}

// Forget implements Store.
func (s *MemoryStore) Forget(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folded := utils.FoldName(name)
	if token, ok := s.byName[folded]; ok {
		delete(s.byToken, token)
		delete(s.byName, folded)
	}
	return nil
}

// Sweep removes expired snapshots and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for token, snap := range s.byToken {
		if !s.expired(snap) {
			continue
		}
		delete(s.byToken, token)
		s.dropName(snap)
		pruned++
	}
	return pruned
}

// Len returns the number of parked snapshots, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byToken)
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	return nil
}

// dropName removes the name index entry if it still points at snap.
func (s *MemoryStore) dropName(snap Snapshot) {
	folded := utils.FoldName(snap.Name)
	if s.byName[folded] == snap.Token {
		delete(s.byName, folded)
	}
}

func (s *MemoryStore) expired(snap Snapshot) bool {
	return s.ttl > 0 && s.now().Sub(snap.SavedAt) > s.ttl
}

var _ Store = (*MemoryStore)(nil)
