package store

import (
	"sync/atomic"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

// Store owns the current snapshot. Readers share the snapshot by reference;
// Reload builds a complete replacement and swaps the pointer atomically so no
// reader ever observes a half-updated table set.
type Store struct {
	dir     string
	logger  *zap.Logger
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store reading from the given data directory. The initial
// load is fail-fast: a missing or corrupt table surfaces instead of leaving the
// engines over an undefined state.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload loads a fresh snapshot and publishes it. On failure the previous
// snapshot, if any, stays active.
func (s *Store) Reload() error {
	snapshot, err := LoadSnapshot(s.dir)
	if err != nil {
		s.logger.Error("snapshot load failed", zap.String("dir", s.dir), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrSnapshotLoad.Code, appErrors.ErrSnapshotLoad.Status, err.Error())
	}

	s.current.Store(snapshot)
	s.logger.Info("snapshot loaded",
		zap.String("dir", s.dir),
		zap.Int("students", len(snapshot.Students)),
		zap.Int("enrollments", len(snapshot.Enrollments)),
		zap.Int("performance", len(snapshot.Performance)),
		zap.Int("interactions", len(snapshot.Interactions)),
		zap.Int("feedback", len(snapshot.Feedback)),
		zap.Int("courses", len(snapshot.Courses)),
	)
	return nil
}
