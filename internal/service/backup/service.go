package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/repository/blob"
)

const snapshotLayout = "20060102-150405"

// Service copies the harvest table to timestamped snapshot keys.
type Service struct {
	store  blob.Store
	source string
	prefix string
	logger *zap.Logger
}

// NewService wires a snapshot service for the source key.
func NewService(store blob.Store, source, prefix string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, source: source, prefix: prefix, logger: logger}
}

// SnapshotKey returns the key a snapshot taken at now is written to.
func (s *Service) SnapshotKey(now time.Time) string {
	base := strings.TrimSuffix(path.Base(s.source), ".csv")
	return fmt.Sprintf("%s%s-%s.csv", s.prefix, base, now.Format(snapshotLayout))
}

// Snapshot copies the current source object and returns the new key. It
// returns an empty key when there is nothing to copy yet.
func (s *Service) Snapshot(ctx context.Context, now time.Time) (string, error) {
	obj, err := s.store.Get(ctx, s.source)
	if errors.Is(err, blob.ErrNotFound) {
		s.logger.Info("no harvest table to snapshot", zap.String("key", s.source))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.source, err)
	}

	key := s.SnapshotKey(now)
	if err := s.store.Put(ctx, key, obj.Data); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", key, err)
	}

	s.logger.Info("harvest table snapshot written",
		zap.String("source", s.source),
		zap.String("key", key),
		zap.Int("bytes", len(obj.Data)))
	return key, nil
}
