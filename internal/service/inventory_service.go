package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"ecostock/internal/dataset"
	"ecostock/internal/demand"
	"ecostock/internal/metrics"
	"ecostock/internal/model"
	"ecostock/internal/repository"
	"ecostock/internal/risk"

	"github.com/rs/zerolog"
)

// RunRequest parameterises one pipeline run.
type RunRequest struct {
	// Staged records are appended after the base records. They are never persisted.
	Staged []model.InventoryRecord
	// Categories restricts the returned view. Empty means every category.
	Categories []model.Category
	// Base replaces the store load when non-nil, e.g. for an uploaded file.
	Base []model.InventoryRecord
}

// RunResult is the output of one pipeline run.
type RunResult struct {
	// Records is the filtered annotated set, in load order.
	Records []model.AnnotatedRecord
	// AtRisk holds the HIGH and MEDIUM rows of Records, HIGH first and
	// soonest expiry first within a level.
	AtRisk []model.AnnotatedRecord
	// Categories lists the categories present before filtering, in
	// first-seen order.
	Categories []model.Category
	// Total is the number of records the model was fitted on.
	Total int
	// Fallback is set when the store was unavailable and the bundled
	// dataset was used instead.
	Fallback bool
}

// Option configures an inventory service.
type Option func(*inventoryService)

// WithClock overrides the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(s *inventoryService) {
		s.now = now
	}
}

// WithMetrics records pipeline and store metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *inventoryService) {
		s.metrics = m
	}
}

// inventoryService implements InventoryService.
type inventoryService struct {
	repo    repository.InventoryRepository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.InventoryRepository, logger zerolog.Logger, opts ...Option) InventoryService {
	s := &inventoryService{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("service", "inventory").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes load, enrich, fit, predict, classify and filter in order.
// A failed fit aborts the run; nothing is written back to the store.
func (s *inventoryService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := time.Now()

	result, err := s.run(ctx, req)

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, model.ErrInvalidRecord):
		outcome = metrics.OutcomeDataError
	case errors.Is(err, model.ErrStoreUnavailable):
		outcome = metrics.OutcomeUnavailable
	case err != nil:
		outcome = metrics.OutcomeError
	case result.Fallback:
		outcome = metrics.OutcomeFallback
	}
	s.metrics.ObservePipeline(outcome, time.Since(start))

	return result, err
}

func (s *inventoryService) run(ctx context.Context, req RunRequest) (*RunResult, error) {
	base, fallback, err := s.loadBase(ctx, req.Base)
	if err != nil {
		return nil, err
	}

	records := make([]model.InventoryRecord, 0, len(base)+len(req.Staged))
	records = append(records, base...)
	records = append(records, req.Staged...)

	fitted, err := demand.Fit(records)
	if err != nil {
		s.logger.Warn().Err(err).Int("records", len(records)).Msg("failed to fit demand model")
		return nil, fmt.Errorf("failed to fit demand model: %w", err)
	}

	now := s.now()
	predictions := fitted.Predict(records)
	annotated := make([]model.AnnotatedRecord, len(records))
	for i, rec := range records {
		annotated[i] = model.AnnotatedRecord{
			InventoryRecord: rec,
			DaysToExpire:    model.DaysUntil(now, rec.ExpiryDate),
			PredictedDemand: predictions[i],
		}
	}
	risk.Apply(annotated)
	s.metrics.SetRiskCounts(annotated)

	filtered := FilterByCategory(annotated, req.Categories)
	result := &RunResult{
		Records:    filtered,
		AtRisk:     AtRisk(filtered),
		Categories: presentCategories(annotated),
		Total:      len(annotated),
		Fallback:   fallback,
	}

	s.logger.Debug().
		Int("records", len(annotated)).
		Int("staged", len(req.Staged)).
		Int("filtered", len(result.Records)).
		Int("at_risk", len(result.AtRisk)).
		Int("model_rank", fitted.Rank()).
		Bool("fallback", fallback).
		Msg("pipeline run complete")

	return result, nil
}

// loadBase returns the uploaded records when given, otherwise the stored
// ones. An unavailable store falls back to the bundled dataset.
func (s *inventoryService) loadBase(ctx context.Context, uploaded []model.InventoryRecord) ([]model.InventoryRecord, bool, error) {
	if uploaded != nil {
		return uploaded, false, nil
	}

	records, err := s.repo.LoadAll(ctx)
	if err == nil {
		return records, false, nil
	}
	if !errors.Is(err, model.ErrStoreUnavailable) {
		s.logger.Error().Err(err).Msg("failed to load inventory")
		return nil, false, fmt.Errorf("failed to load inventory: %w", err)
	}

	s.logger.Warn().Err(err).Msg("inventory store unavailable, using bundled dataset")
	records, dErr := dataset.Default()
	if dErr != nil {
		return nil, false, fmt.Errorf("failed to load bundled dataset: %w", errors.Join(err, dErr))
	}
	return records, true, nil
}

// Add validates a record and appends it to the store.
func (s *inventoryService) Add(ctx context.Context, record model.InventoryRecord) error {
	record = normalize(record)
	if err := s.Validate(record); err != nil {
		s.logger.Warn().Err(err).Str("product", record.Product).Msg("rejected inventory record")
		return err
	}

	err := s.repo.Append(ctx, record)
	s.metrics.ObserveStoreWrite("append", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product", record.Product).Msg("failed to append inventory record")
		return fmt.Errorf("failed to add inventory record: %w", err)
	}

	s.logger.Info().
		Str("product", record.Product).
		Str("category", string(record.Category)).
		Str("store_id", string(record.StoreID)).
		Msg("inventory record added")
	return nil
}

// Delete removes every stored record matching key.
func (s *inventoryService) Delete(ctx context.Context, key model.IdentityKey) (int, error) {
	key.Product = strings.TrimSpace(key.Product)
	key.ExpiryDate = model.NormalizeDate(key.ExpiryDate)
	if key.Product == "" {
		return 0, &model.DataError{Field: "Product", Err: errors.New("must not be empty")}
	}

	removed, err := s.repo.DeleteMatching(ctx, key)
	s.metrics.ObserveStoreWrite("delete", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product", key.Product).Msg("failed to delete inventory records")
		return 0, fmt.Errorf("failed to delete inventory records: %w", err)
	}

	s.logger.Info().
		Str("product", key.Product).
		Str("store_id", string(key.StoreID)).
		Str("expiry_date", key.ExpiryDate.Format(model.DateLayout)).
		Int("removed", removed).
		Msg("inventory records deleted")
	return removed, nil
}

// Validate checks the fields a manual entry must satisfy. New entries may
// not already be expired.
func (s *inventoryService) Validate(record model.InventoryRecord) error {
	switch {
	case strings.TrimSpace(record.Product) == "":
		return &model.DataError{Field: "Product", Err: errors.New("must not be empty")}
	case !record.Category.Valid():
		return &model.DataError{Field: "Category", Value: string(record.Category), Err: errors.New("unknown category")}
	case !record.StoreID.Valid():
		return &model.DataError{Field: "StoreID", Value: string(record.StoreID), Err: errors.New("unknown store")}
	case !record.Weather.Valid():
		return &model.DataError{Field: "Weather", Value: string(record.Weather), Err: errors.New("unknown weather")}
	case record.StockQty < 0:
		return &model.DataError{Field: "StockQty", Value: fmt.Sprint(record.StockQty), Err: errors.New("must not be negative")}
	case record.StockQty > model.MaxStockQty:
		return &model.DataError{Field: "StockQty", Value: fmt.Sprint(record.StockQty), Err: fmt.Errorf("must not exceed %d", model.MaxStockQty)}
	case math.IsNaN(record.WeeklySales) || math.IsInf(record.WeeklySales, 0):
		return &model.DataError{Field: "WeeklySales", Value: fmt.Sprint(record.WeeklySales), Err: errors.New("must be a finite number")}
	case record.WeeklySales < 0:
		return &model.DataError{Field: "WeeklySales", Value: fmt.Sprint(record.WeeklySales), Err: errors.New("must not be negative")}
	case record.ExpiryDate.IsZero():
		return &model.DataError{Field: "ExpiryDate", Err: errors.New("is required")}
	case model.DaysBetween(s.now(), record.ExpiryDate) < 0:
		return &model.DataError{
			Field: "ExpiryDate",
			Value: record.ExpiryDate.Format(model.DateLayout),
			Err:   errors.New("must not be in the past"),
		}
	}
	return nil
}

// FilterByCategory keeps the records whose category is selected. An empty
// selection keeps everything.
func FilterByCategory(records []model.AnnotatedRecord, categories []model.Category) []model.AnnotatedRecord {
	if len(categories) == 0 {
		return records
	}

	filtered := make([]model.AnnotatedRecord, 0, len(records))
	for _, rec := range records {
		if slices.Contains(categories, rec.Category) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// AtRisk returns the HIGH and MEDIUM records, HIGH first, then by ascending
// DaysToExpire. Ties keep their input order.
func AtRisk(records []model.AnnotatedRecord) []model.AnnotatedRecord {
	atRisk := make([]model.AnnotatedRecord, 0)
	for _, rec := range records {
		if rec.RiskLevel.AtRisk() {
			atRisk = append(atRisk, rec)
		}
	}

	slices.SortStableFunc(atRisk, func(a, b model.AnnotatedRecord) int {
		return cmp.Or(
			cmp.Compare(a.RiskLevel.Rank(), b.RiskLevel.Rank()),
			cmp.Compare(a.DaysToExpire, b.DaysToExpire),
		)
	})
	return atRisk
}

func presentCategories(records []model.AnnotatedRecord) []model.Category {
	seen := make(map[model.Category]bool)
	categories := []model.Category{}
	for _, rec := range records {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}
	return categories
}

func normalize(record model.InventoryRecord) model.InventoryRecord {
	record.Product = strings.TrimSpace(record.Product)
	record.ExpiryDate = model.NormalizeDate(record.ExpiryDate)
	return record
}
