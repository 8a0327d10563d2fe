package harvest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/domain/models"
	"github.com/mamadbah2/harvest/internal/repository/blob"
	"github.com/mamadbah2/harvest/pkg/csvtable"
)

const defaultMaxAttempts = 3

// AuditSink receives a summary of every accepted batch.
type AuditSink interface {
	RecordSubmission(ctx context.Context, audit models.SubmissionAudit) error
}

// Result describes a persisted batch.
type Result struct {
	BatchID  string
	Accepted int
	FirstID  int
	LastID   int
}

// Service validates harvest batches and appends them to the harvest table.
type Service struct {
	store       blob.Store
	key         string
	audit       AuditSink
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int

	// mu serializes read-merge-write on key within this process. The
	// generation precondition covers writers in other processes.
	mu sync.Mutex
}

// NewService wires a harvest ingestion service writing to key. audit may be nil.
func NewService(store blob.Store, key string, audit AuditSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		key:         key,
		audit:       audit,
		logger:      logger,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
}

// Submit validates every record of the batch and appends them all, or
// none of them, after the stored rows.
func (s *Service) Submit(ctx context.Context, batch []models.RawRecord) (Result, error) {
	if len(batch) == 0 {
		return Result{}, ErrEmptyBatch
	}

	records := make([]models.HarvestRecord, 0, len(batch))
	for i, raw := range batch {
		record, err := normalizeRecord(i, raw)
		if err != nil {
			s.logger.Info("harvest batch rejected", zap.Int("records", len(batch)), zap.Error(err))
			return Result{}, err
		}
		records = append(records, record)
	}

	result := Result{BatchID: uuid.NewString(), Accepted: len(records)}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		first, err := s.appendRecords(ctx, records)
		if err == nil {
			result.FirstID = first
			result.LastID = first + len(records) - 1
			break
		}
		if errors.Is(err, blob.ErrPreconditionFailed) && attempt < s.maxAttempts {
			s.logger.Warn("harvest table changed concurrently, retrying",
				zap.String("batch_id", result.BatchID),
				zap.Int("attempt", attempt))
			continue
		}
		s.logger.Error("failed to persist harvest batch", zap.String("batch_id", result.BatchID), zap.Error(err))
		return Result{}, err
	}

	s.logger.Info("harvest batch persisted",
		zap.String("batch_id", result.BatchID),
		zap.Int("count", result.Accepted),
		zap.Int("first_id", result.FirstID),
		zap.Int("last_id", result.LastID))

	s.recordAudit(ctx, result, records)
	return result, nil
}

// appendRecords runs one read-merge-write cycle and returns the first ID it assigned.
func (s *Service) appendRecords(ctx context.Context, records []models.HarvestRecord) (int, error) {
	table, generation, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	last, err := s.maxID(table)
	if err != nil {
		return 0, err
	}
	if last > math.MaxInt-len(records) {
		return 0, fmt.Errorf("%w: %d records after id %d", ErrIDExhausted, len(records), last)
	}

	first := last + 1
	table.EnsureColumns(models.HarvestColumns...)

	for i := range records {
		records[i].ID = first + i
		table.Append(csvtable.Row(records[i].Cells()))
	}

	data, err := csvtable.Encode(table)
	if err != nil {
		return 0, fmt.Errorf("encode harvest table: %w", err)
	}

	if err := s.store.Put(ctx, s.key, data, blob.IfGenerationMatch(generation)); err != nil {
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return 0, err
		}
		return 0, fmt.Errorf("store harvest table: %w", err)
	}

	return first, nil
}

func (s *Service) load(ctx context.Context) (*csvtable.Table, int64, error) {
	obj, err := s.store.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return csvtable.New(models.HarvestColumns...), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load harvest table: %w", err)
	}

	table, err := csvtable.Decode(obj.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("decode harvest table %s: %w", s.key, err)
	}
	if len(table.Columns) == 0 {
		table = csvtable.New(models.HarvestColumns...)
	}

	return table, obj.Generation, nil
}

// maxID returns the largest ID stored in table. Integral float text such
// as "2.0" counts; other text is skipped. Values at or beyond math.MaxInt
// fail with ErrIDExhausted.
func (s *Service) maxID(table *csvtable.Table) (int, error) {
	maxID := 0
	for i, cell := range table.Column(models.ColumnID) {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}

		id, err := strconv.Atoi(cell)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(cell, "-") {
				return 0, fmt.Errorf("%w: row %d id %q", ErrIDExhausted, i, cell)
			}

			f, ferr := strconv.ParseFloat(cell, 64)
			switch {
			case errors.Is(ferr, strconv.ErrRange) && f > 0:
				return 0, fmt.Errorf("%w: row %d id %q", ErrIDExhausted, i, cell)
			case ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
				s.logger.Warn("skip row with non-numeric id", zap.Int("row", i), zap.String("value", cell))
				continue
			case f < 0:
				continue
			case f >= float64(math.MaxInt):
				return 0, fmt.Errorf("%w: row %d id %q", ErrIDExhausted, i, cell)
			}
			id = int(f)
		}

		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (s *Service) recordAudit(ctx context.Context, result Result, records []models.HarvestRecord) {
	if s.audit == nil {
		return
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}

	audit := models.SubmissionAudit{
		BatchID:   result.BatchID,
		File:      s.key,
		Count:     result.Accepted,
		FirstID:   result.FirstID,
		LastID:    result.LastID,
		Names:     names,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.RecordSubmission(ctx, audit); err != nil {
		s.logger.Warn("failed to record submission audit", zap.String("batch_id", result.BatchID), zap.Error(err))
	}
}
