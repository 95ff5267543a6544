// Package service provides the calculation use case behind the HTTP API and
// the command line: it validates requests, selects historical records from the
// active dataset and asks the admission engine for ranked estimates.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/admitcalc/internal/adapters/repository"
	"github.com/okian/admitcalc/internal/domain/admission"
	"github.com/okian/admitcalc/pkg/logger"
	"github.com/okian/admitcalc/pkg/metrics"
)

// Bounds limits the accepted score and result count.
type Bounds struct {
	ScoreMin    float64
	ScoreMax    float64
	TopNMin     int
	TopNMax     int
	TopNDefault int
}

// DefaultBounds returns the limits of the published exam scale.
func DefaultBounds() Bounds {
	return Bounds{ScoreMin: 0, ScoreMax: 700, TopNMin: 3, TopNMax: 20, TopNDefault: 10}
}

// Service implements the API dependencies for the calculator.
type Service struct {
	mu sync.RWMutex

	store    *repository.Store
	engine   *admission.Engine
	bounds   Bounds
	validate *validator.Validate

	calculations atomic.Int64
	rejected     atomic.Int64
	reloads      atomic.Int64

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the dataset store. Without it the service owns an empty store.
func WithStore(store *repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine sets the estimation engine.
func WithEngine(engine *admission.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithBounds sets score and result-count limits. Inconsistent bounds are ignored.
func WithBounds(b Bounds) Option {
	return func(s *Service) {
		if b.ScoreMin < b.ScoreMax && b.TopNMin >= 1 &&
			b.TopNMin <= b.TopNDefault && b.TopNDefault <= b.TopNMax {
			s.bounds = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:    repository.NewStore(),
		engine:   admission.NewEngine(),
		bounds:   DefaultBounds(),
		validate: newValidator(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Start loads the dataset unless one is already active. The service is usable
// even when loading fails; calculations then report ErrDatasetUnavailable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.logger.Info(ctx, "starting calculator service...")

	if _, err := s.store.Snapshot(); err == nil {
		return nil
	}
	if _, err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "calculator service stopped")
}

// Ready reports whether a dataset is active.
func (s *Service) Ready() bool {
	_, err := s.store.Snapshot()
	return err == nil
}

// Reload re-reads the dataset file and swaps it in. The previous dataset
// keeps serving when the reload fails.
func (s *Service) Reload(ctx context.Context) error {
	if _, err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	s.reloads.Add(1)
	return nil
}

// Calculate validates req, selects the matching records and returns the
// top estimates.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (CalculateResult, error) {
	start := time.Now()

	res, err := s.calculate(ctx, req)
	if err != nil {
		s.rejected.Add(1)
		metrics.RecordCalculationError(errorReason(err))
		s.logger.Debug(ctx, "calculation rejected",
			logger.String("group", req.Group),
			logger.String("sector", req.Sector),
			logger.Error(err),
		)
		return CalculateResult{}, err
	}

	took := time.Since(start)
	s.calculations.Add(1)
	metrics.RecordCalculation(float64(took.Microseconds())/1000, len(res.Results))
	s.logger.Debug(ctx, "calculation served",
		logger.Float64("score", res.Metadata.Score),
		logger.String("group", res.Metadata.Group),
		logger.String("sector", res.Metadata.Sector),
		logger.Int("results", len(res.Results)),
		logger.Duration("took", took),
	)
	return res, nil
}

func (s *Service) calculate(ctx context.Context, req CalculateRequest) (CalculateResult, error) {
	if err := ctx.Err(); err != nil {
		return CalculateResult{}, err
	}
	d, err := s.store.Snapshot()
	if err != nil {
		return CalculateResult{}, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}

	req.Group = strings.TrimSpace(req.Group)
	req.Sector = strings.TrimSpace(req.Sector)
	if req.Sector == "" {
		req.Sector = repository.AllSectors
	}
	topN, err := s.checkRequest(d, req)
	if err != nil {
		return CalculateResult{}, err
	}

	records := d.Filter(req.Group, req.Sector)
	if len(records) == 0 {
		return CalculateResult{}, &NoDataError{
			Group:   req.Group,
			Sector:  req.Sector,
			Groups:  d.Groups(),
			Sectors: d.Sectors(),
		}
	}

	estimates := s.engine.Estimate(req.Score, records)
	for _, e := range estimates {
		metrics.RecordEstimateStatus(e.Status.String())
	}
	top := admission.Top(estimates, topN)

	return CalculateResult{
		Results: top,
		Metadata: Metadata{
			Score:            req.Score,
			Group:            req.Group,
			Sector:           req.Sector,
			TopN:             topN,
			TotalSpecialties: len(top),
		},
	}, nil
}

// checkRequest validates req against the bounds and dataset and returns the
// effective result count.
func (s *Service) checkRequest(d *repository.Dataset, req CalculateRequest) (int, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, fieldError(err)
	}

	b := s.bounds
	if math.IsNaN(req.Score) || s.validate.Var(req.Score, fmt.Sprintf("gte=%v,lte=%v", b.ScoreMin, b.ScoreMax)) != nil {
		return 0, &ValidationError{
			Field:   "score",
			Message: fmt.Sprintf("must be between %v and %v", b.ScoreMin, b.ScoreMax),
		}
	}
	if !d.HasGroup(req.Group) {
		return 0, &ValidationError{
			Field:   "group",
			Message: fmt.Sprintf("unknown group %q; available groups: %s", req.Group, strings.Join(d.Groups(), ", ")),
		}
	}
	if !d.HasSector(req.Sector) {
		return 0, &ValidationError{
			Field: "sector",
			Message: fmt.Sprintf("unknown sector %q; available sectors: %s, %s",
				req.Sector, strings.Join(d.Sectors(), ", "), repository.AllSectors),
		}
	}

	topN := b.TopNDefault
	if req.TopN != nil {
		topN = *req.TopN
	}
	if err := s.validate.Var(topN, fmt.Sprintf("gte=%d,lte=%d", b.TopNMin, b.TopNMax)); err != nil {
		return 0, &ValidationError{
			Field:   "topN",
			Message: fmt.Sprintf("must be between %d and %d", b.TopNMin, b.TopNMax),
		}
	}
	return topN, nil
}

// fieldError converts the first validator failure into a ValidationError.
func fieldError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	fe := fieldErrs[0]
	msg := "is invalid"
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrDatasetUnavailable):
		return "dataset_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// Options returns the choices a client may submit.
func (s *Service) Options(ctx context.Context) (OptionsResult, error) {
	if err := ctx.Err(); err != nil {
		return OptionsResult{}, err
	}
	d, err := s.store.Snapshot()
	if err != nil {
		return OptionsResult{}, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	b := s.bounds
	return OptionsResult{
		Groups:      d.Groups(),
		Sectors:     d.Sectors(),
		AllSectors:  repository.AllSectors,
		ScoreMin:    b.ScoreMin,
		ScoreMax:    b.ScoreMax,
		TopNMin:     b.TopNMin,
		TopNMax:     b.TopNMax,
		TopNDefault: b.TopNDefault,
		LoadedAt:    d.LoadedAt(),
	}, nil
}

// Bounds returns the configured limits.
func (s *Service) Bounds() Bounds { return s.bounds }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":              s.started,
		"calculations":         s.calculations.Load(),
		"rejectedCalculations": s.rejected.Load(),
		"reloads":              s.reloads.Load(),
		"datasetLoaded":        false,
	}

	if d, err := s.store.Snapshot(); err == nil {
		stats["datasetLoaded"] = true
		stats["records"] = d.Len()
		stats["groups"] = len(d.Groups())
		stats["sectors"] = len(d.Sectors())
		stats["source"] = d.Source()
		stats["loadedAt"] = d.LoadedAt().UTC().Format(time.RFC3339)
	}

	return stats
}
