package reference

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/domain/models"
	"github.com/mamadbah2/harvest/internal/repository/blob"
	"github.com/mamadbah2/harvest/pkg/csvtable"
)

// ErrMissingColumn indicates a loaded reference table lacks a column the query needs.
var ErrMissingColumn = errors.New("reference table missing column")

// Files names the reference tables in the bucket.
type Files struct {
	Names     string
	Locations string
	Crops     string
}

// Service answers lookup queries over the reference tables. Tables are
// fetched on every call.
type Service struct {
	store  blob.Store
	files  Files
	logger *zap.Logger
}

// NewService wires a reference data service.
func NewService(store blob.Store, files Files, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, files: files, logger: logger}
}

// ListNames returns the first-column names, skipping entries made only of digits.
func (s *Service) ListNames(ctx context.Context) ([]string, error) {
	values := firstColumn(s.loadTable(ctx, s.files.Names))

	names := make([]string, 0, len(values))
	for _, v := range values {
		if isAllDigits(v) {
			continue
		}
		names = append(names, v)
	}
	return names, nil
}

// ListLocations returns the first-column locations in file order.
func (s *Service) ListLocations(ctx context.Context) ([]string, error) {
	return firstColumn(s.loadTable(ctx, s.files.Locations)), nil
}

// ListCrops groups crops by category. A non-empty query also fills Filtered
// with the crops whose name contains it, ignoring case.
func (s *Service) ListCrops(ctx context.Context, query string) (models.CropOptions, error) {
	crops, err := s.loadCrops(ctx)
	if err != nil {
		return models.CropOptions{}, err
	}

	options := models.CropOptions{
		Query: query,
		All:   groupCrops(crops),
	}
	if query != "" {
		options.Filtered = filterCrops(crops, query)
	}
	return options, nil
}

// SearchCrops returns the crops whose name contains query, ignoring case.
// An empty query matches every crop.
func (s *Service) SearchCrops(ctx context.Context, query string) ([]string, error) {
	crops, err := s.loadCrops(ctx)
	if err != nil {
		return nil, err
	}
	return filterCrops(crops, query), nil
}

type crop struct {
	name     string
	category string
	weight   int
}

func (s *Service) loadCrops(ctx context.Context) ([]crop, error) {
	table := s.loadTable(ctx, s.files.Crops)
	if table.Len() == 0 {
		return nil, nil
	}

	for _, col := range []string{models.CropsColumnName, models.CropsColumnCategory} {
		if !table.HasColumn(col) {
			return nil, fmt.Errorf("%w %q in %s", ErrMissingColumn, col, s.files.Crops)
		}
	}

	crops := make([]crop, 0, table.Len())
	for _, row := range table.Rows {
		name := strings.TrimSpace(row[models.CropsColumnName])
		if name == "" {
			continue
		}
		crops = append(crops, crop{
			name:     name,
			category: strings.TrimSpace(row[models.CropsColumnCategory]),
			weight:   codePointSum(name),
		})
	}
	return crops, nil
}

// loadTable fetches and decodes key. Failures degrade to an empty table so
// lookup endpoints keep answering.
func (s *Service) loadTable(ctx context.Context, key string) *csvtable.Table {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("reference table unavailable", zap.String("key", key), zap.Error(err))
		return csvtable.New()
	}

	if !utf8.Valid(obj.Data) {
		s.logger.Warn("reference table is not utf-8", zap.String("key", key))
		return csvtable.New()
	}

	table, err := csvtable.Decode(obj.Data)
	if err != nil {
		s.logger.Warn("reference table unreadable", zap.String("key", key), zap.Error(err))
		return csvtable.New()
	}
	return table
}

func firstColumn(table *csvtable.Table) []string {
	if len(table.Columns) == 0 {
		return []string{}
	}

	values := make([]string, 0, table.Len())
	for _, v := range table.Column(table.Columns[0]) {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}

func groupCrops(crops []crop) map[string][]string {
	sorted := make([]crop, len(crops))
	copy(sorted, crops)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].category != sorted[j].category {
			return sorted[i].category < sorted[j].category
		}
		return sorted[i].weight < sorted[j].weight
	})

	grouped := make(map[string][]string)
	for _, c := range sorted {
		// Uncategorized crops stay searchable but are not grouped.
		if c.category == "" {
			continue
		}
		grouped[c.category] = append(grouped[c.category], c.name)
	}
	return grouped
}

func filterCrops(crops []crop, query string) []string {
	needle := strings.ToLower(query)
	matched := make([]string, 0)
	for _, c := range crops {
		if strings.Contains(strings.ToLower(c.name), needle) {
			matched = append(matched, c.name)
		}
	}
	return matched
}

func codePointSum(s string) int {
	sum := 0
	for _, r := range s {
		sum += int(r)
	}
	return sum
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
