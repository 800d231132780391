package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/xjohnsondev/primal-backend/internal/metrics"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

// CatalogSource supplies a complete exercise catalog. catalog.Client is the
// production implementation.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]model.Exercise, error)
}

// ExerciseService serves catalog reads and runs catalog refreshes.
type ExerciseService struct {
	repo    repository.ExerciseRepository
	source  CatalogSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewExerciseService creates an ExerciseService. source may be nil, in which
// case Refresh always fails.
func NewExerciseService(
	repo repository.ExerciseRepository,
	source CatalogSource,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ExerciseService {
	return &ExerciseService{
		repo:    repo,
		source:  source,
		metrics: m,
		logger:  logger,
	}
}

// List returns the whole catalog.
func (s *ExerciseService) List(ctx context.Context) ([]model.Exercise, error) {
	return s.repo.ListExercises(ctx)
}

// Get returns one exercise or apperror.ErrNotFound.
func (s *ExerciseService) Get(ctx context.Context, id int64) (*model.Exercise, error) {
	return s.repo.GetExercise(ctx, id)
}

// Targets returns the distinct primary targets, sorted.
func (s *ExerciseService) Targets(ctx context.Context) ([]string, error) {
	return s.repo.ListTargets(ctx)
}

// ByTarget returns the exercises for one target. No match is an empty slice.
func (s *ExerciseService) ByTarget(ctx context.Context, target string) ([]model.Exercise, error) {
	return s.repo.ListByTarget(ctx, target)
}

// RefreshResult describes one completed refresh.
type RefreshResult struct {
	RunID     string
	Exercises []model.Exercise
}

// Refresh replaces the catalog with a fresh copy from the source.
//
// Every fetched row is checked first and all problems are reported together
// as one joined error; nothing is written unless every row is usable. The
// replace itself is a single transaction in the repository. Each run gets an
// xid that appears in the logs and the result.
func (s *ExerciseService) Refresh(ctx context.Context) (res *RefreshResult, err error) {
	runID := xid.New().String()
	start := time.Now()
	log := s.logger.With(slog.String("runID", runID))

	defer func() {
		s.metrics.ObserveRefresh(err)
		if err != nil {
			log.Error("catalog refresh failed", slog.Any("error", err))
		}
	}()

	if s.source == nil {
		return nil, fmt.Errorf("service/exercises: refresh %s: no catalog source configured", runID)
	}

	fetched, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/exercises: refresh %s: fetching catalog: %w", runID, err)
	}
	if len(fetched) == 0 {
		return nil, fmt.Errorf("service/exercises: refresh %s: catalog returned no exercises", runID)
	}
	if err := checkExercises(fetched); err != nil {
		return nil, fmt.Errorf("service/exercises: refresh %s: %d problems in fetched catalog: %w", runID, countJoined(err), err)
	}

	stored, err := s.repo.ReplaceExercises(ctx, fetched)
	if err != nil {
		return nil, fmt.Errorf("service/exercises: refresh %s: %w", runID, err)
	}

	log.Info("catalog refreshed",
		slog.Int("exercises", len(stored)),
		slog.Duration("took", time.Since(start)),
	)
	return &RefreshResult{RunID: runID, Exercises: stored}, nil
}

// checkExercises returns every problem found in the batch, joined.
func checkExercises(exercises []model.Exercise) error {
	var errs []error
	for i, e := range exercises {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("exercise #%d: missing name", i))
		}
		if strings.TrimSpace(e.Target) == "" {
			errs = append(errs, fmt.Errorf("exercise #%d (%s): missing target", i, e.Name))
		}
	}
	return errors.Join(errs...)
}

func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
