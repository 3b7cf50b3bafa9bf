// Package memory is an embedded, serializable store used for local
// development and tests. Every transaction holds the store lock for its whole
// duration and is rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sync"

	"supportmatch/internal/models"
)

type txKey struct{}

type Store struct {
	mu           sync.Mutex
	reports      map[string]*models.Report
	services     map[string]*models.SupportService
	matches      map[string]*models.Match
	appointments map[string]*models.Appointment
}

type snapshot struct {
	reports      map[string]*models.Report
	services     map[string]*models.SupportService
	matches      map[string]*models.Match
	appointments map[string]*models.Appointment
}

func NewStore() *Store {
	return &Store{
		reports:      make(map[string]*models.Report),
		services:     make(map[string]*models.SupportService),
		matches:      make(map[string]*models.Match),
		appointments: make(map[string]*models.Appointment),
	}
}

// WithTransaction runs fn with exclusive access to the store. Writes made by fn
// are discarded if it returns an error or panics. Nested calls join the outer
// transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// run executes a single repository operation, taking the store lock unless the
// caller already holds it through a transaction.
func (s *Store) run(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Stored values are always replaced, never mutated, so shallow map copies are
// enough to roll back.
func (s *Store) snapshot() snapshot {
	return snapshot{
		reports:      copyMap(s.reports),
		services:     copyMap(s.services),
		matches:      copyMap(s.matches),
		appointments: copyMap(s.appointments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.reports = snap.reports
	s.services = snap.services
	s.matches = snap.matches
	s.appointments = snap.appointments
}

func copyMap[V any](m map[string]*V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
