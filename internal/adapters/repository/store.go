package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/admitcalc/pkg/logger"
	"github.com/okian/admitcalc/pkg/metrics"
)

// Store publishes the active Dataset. Readers take a snapshot; a load swaps
// the whole dataset atomically so in-flight requests keep a consistent view.
type Store struct {
	current  atomic.Pointer[Dataset]
	path     string
	loadOpts []LoadOption
	logger   logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPath sets the file Load reads from.
func WithPath(path string) Option {
	return func(s *Store) {
		s.path = path
	}
}

// WithLoadOptions forwards options to LoadFile.
func WithLoadOptions(opts ...LoadOption) Option {
	return func(s *Store) {
		s.loadOpts = append(s.loadOpts, opts...)
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty store. Call Load or Swap before Snapshot.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configured source file.
func (s *Store) Path() string { return s.path }

// Load reads the configured file and makes it the active dataset. On failure
// the previous dataset, if any, stays active.
func (s *Store) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	d, report, err := LoadFile(ctx, s.path, s.loadOpts...)
	if err != nil {
		metrics.RecordDatasetLoadError()
		s.logger.Error(ctx, "dataset load failed", logger.String("path", s.path), logger.Error(err))
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	s.Swap(d)

	took := time.Since(start)
	metrics.RecordDatasetLoad(float64(took.Microseconds())/1000, d.LoadedAt().Unix())
	s.logger.Info(ctx, "dataset loaded",
		logger.String("path", s.path),
		logger.Int("records", report.Kept),
		logger.Int("skipped_no_specialty", report.SkippedNoSpecialty),
		logger.Int("missing_scores", report.MissingScores),
		logger.Int("groups", len(d.groups)),
		logger.Int("sectors", len(d.sectors)),
		logger.Duration("took", took),
	)
	return d, nil
}

// Swap installs d as the active dataset.
func (s *Store) Swap(d *Dataset) {
	s.current.Store(d)
	if d != nil {
		metrics.UpdateDatasetSize(d.Len(), len(d.groups), len(d.sectors))
	}
}

// Snapshot returns the active dataset.
func (s *Store) Snapshot() (*Dataset, error) {
	d := s.current.Load()
	if d == nil {
		return nil, ErrNotLoaded
	}
	return d, nil
}
