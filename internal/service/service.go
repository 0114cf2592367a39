// Package service runs a matching invocation: it fetches the project and its
// candidates, scores and persists every candidate, and ranks what was written.
package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/matching"
	"matching-workers/internal/models"
	"matching-workers/internal/store"
)

// Repository is the persistence the service needs. *store.Store implements it.
type Repository interface {
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	ListCandidates(ctx context.Context, profileID string) ([]models.Profile, error)
	UpsertScore(ctx context.Context, score *models.MatchingScore) error
	TopScores(ctx context.Context, projectID string, limit int) ([]models.MatchingScore, error)
}

// Locker serializes runs per project. *store.ProjectLock implements it.
type Locker interface {
	Acquire(ctx context.Context, projectID string) (func(context.Context) error, error)
}

// ResultCache holds the last ranking per project. *store.ResultCache implements it.
type ResultCache interface {
	Get(ctx context.Context, projectID string) ([]models.RankedMatch, bool, error)
	Put(ctx context.Context, projectID string, ranked []models.RankedMatch) error
	Invalidate(ctx context.Context, projectID string) error
}

type Config struct {
	Concurrency int
	ResultLimit int
}

// Request identifies one invocation. ProfileID narrows the run to one candidate.
type Request struct {
	ProjectID string
	ProfileID string
	Source    string
}

// Outcome is what a successful invocation produced.
type Outcome struct {
	ProjectID string               `json:"projectId"`
	Scored    int                  `json:"scored"`
	Persisted int                  `json:"persisted"`
	Failed    []string             `json:"failed,omitempty"`
	Matches   []models.RankedMatch `json:"matchingScores"`
}

type Service struct {
	repo   Repository
	lock   Locker
	cache  ResultCache
	obs    *observability.Observability
	config Config
	logger logger.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

func WithLocker(l Locker) Option { return func(s *Service) { s.lock = l } }

func WithResultCache(c ResultCache) Option { return func(s *Service) { s.cache = c } }

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

func New(repo Repository, cfg Config, log logger.Logger, opts ...Option) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = matching.DefaultResultLimit
	}

	s := &Service{
		repo:   repo,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "matching-service"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.obs == nil {
		s.obs = &observability.Observability{}
	}
	return s
}

// Calculate recomputes and stores the score of every candidate for the project
// and returns the ranked successes. Candidates whose write fails are left out.
func (s *Service) Calculate(ctx context.Context, req Request) (out *Outcome, err error) {
	start := time.Now()
	source := req.Source
	if source == "" {
		source = "unknown"
	}
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(errors.CodeOf(err))
		}
		metrics.MatchingRuns.WithLabelValues(source, outcome).Inc()
		s.obs.RecordJobProcessed(ctx, outcome)
		s.obs.RecordJobDuration(ctx, time.Since(start), outcome)
	}()

	if req.ProjectID == "" {
		return nil, errors.NewInvalidInputError("projectId is required")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"projectId": req.ProjectID,
		"profileId": req.ProfileID,
		"source":    source,
	})

	ctx, span := s.obs.StartSpan(ctx, "matching.calculate", "projectId", req.ProjectID, "source", source)
	defer span.End()

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, req.ProjectID)
		if err != nil {
			return nil, errors.NewMatchingLockFailedError(req.ProjectID, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release matching lock", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	project, candidates, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	written, failed, err := s.synchronize(ctx, project, candidates, log)
	if err != nil {
		return nil, errors.NewUnexpectedFailureError(err)
	}

	ranked := matching.Rank(written, s.config.ResultLimit)
	matches := make([]models.RankedMatch, 0, len(ranked))
	for _, ms := range ranked {
		matches = append(matches, ms.Ranked())
	}

	s.refreshCache(ctx, req, matches, len(failed) > 0, log)

	metrics.MatchingCandidatesScored.Observe(float64(len(candidates)))
	log.Info("Matching scores calculated", map[string]interface{}{
		"candidates": len(candidates),
		"persisted":  len(written),
		"failed":     len(failed),
		"returned":   len(matches),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Outcome{
		ProjectID: req.ProjectID,
		Scored:    len(candidates),
		Persisted: len(written),
		Failed:    failed,
		Matches:   matches,
	}, nil
}

// refreshCache stores a full-population ranking. A single-candidate run only
// touches one row, and a run with failed writes leaves older rows for those
// pairs in place, so in both cases the cached ranking is dropped and the next
// read goes to the stored scores.
func (s *Service) refreshCache(ctx context.Context, req Request, matches []models.RankedMatch, partial bool, log logger.Logger) {
	if s.cache == nil {
		return
	}

	var err error
	if req.ProfileID == "" && !partial {
		err = s.cache.Put(ctx, req.ProjectID, matches)
	} else {
		err = s.cache.Invalidate(ctx, req.ProjectID)
	}
	if err != nil {
		log.Warn("Failed to refresh ranked match cache", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) fetch(ctx context.Context, req Request) (*models.Project, []models.Profile, error) {
	ctx, span := s.obs.StartSpan(ctx, "matching.fetch", "projectId", req.ProjectID)
	defer span.End()

	project, err := s.repo.GetProject(ctx, req.ProjectID)
	if err != nil {
		if stdErrors.Is(err, store.ErrProjectNotFound) {
			return nil, nil, errors.NewProjectNotFoundError(req.ProjectID, err)
		}
		return nil, nil, classifyStoreError(err)
	}

	candidates, err := s.repo.ListCandidates(ctx, req.ProfileID)
	if err != nil {
		return nil, nil, classifyStoreError(err)
	}
	if len(candidates) == 0 {
		return nil, nil, errors.NewNoCandidatesError(req.ProjectID, req.ProfileID, nil)
	}
	return project, candidates, nil
}

func classifyStoreError(err error) error {
	var malformed *store.MalformedRecordError
	if stdErrors.As(err, &malformed) {
		return errors.NewMalformedRecordError(malformed.Kind, malformed.ID, malformed.Err)
	}
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
		return errors.NewUnexpectedFailureError(err)
	}
	return errors.NewCandidateFetchFailedError(err)
}

// synchronize scores and upserts candidates concurrently. A failed write drops
// that candidate; only cancellation of ctx aborts the batch.
func (s *Service) synchronize(ctx context.Context, project *models.Project, candidates []models.Profile, log logger.Logger) ([]models.MatchingScore, []string, error) {
	ctx, span := s.obs.StartSpan(ctx, "matching.synchronize", "projectId", project.ID)
	defer span.End()

	var (
		mu      sync.Mutex
		written = make([]models.MatchingScore, 0, len(candidates))
		failed  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := matching.Score(project.Requirements, candidate.Details)
			score := models.MatchingScore{
				ProjectID:   project.ID,
				ProfileID:   candidate.ID,
				ProfileName: candidate.Name,
				Breakdown:   res.Breakdown,
				Reason:      matching.Reason(res, project.Requirements, candidate.Details),
				Details:     res.Details,
			}

			if err := s.repo.UpsertScore(gctx, &score); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return fmt.Errorf("matching cancelled: %w", ctxErr)
				}
				stdErr := errors.NewScorePersistFailedError(candidate.ID, err)
				log.Warn("Matching score write failed; candidate excluded", map[string]interface{}{
					"profileId": candidate.ID,
					"errorCode": string(stdErr.Code),
					"error":     err.Error(),
				})
				metrics.MatchingScoresFailed.Inc()

				mu.Lock()
				failed = append(failed, candidate.ID)
				mu.Unlock()
				return nil
			}

			metrics.MatchingScoresPersisted.Inc()
			s.obs.RecordScore(gctx, score.Breakdown.Total)

			mu.Lock()
			written = append(written, score)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return written, failed, nil
}

// Ranking returns the stored ranking for a project, served from the result
// cache when present.
func (s *Service) Ranking(ctx context.Context, projectID string) ([]models.RankedMatch, error) {
	if projectID == "" {
		return nil, errors.NewInvalidInputError("projectId is required")
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, projectID)
		if err != nil {
			s.logger.Warn("Result cache read failed", map[string]interface{}{"projectId": projectID, "error": err.Error()})
		} else if hit {
			return cached, nil
		}
	}

	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		if stdErrors.Is(err, store.ErrProjectNotFound) {
			return nil, errors.NewProjectNotFoundError(projectID, err)
		}
		return nil, classifyStoreError(err)
	}

	scores, err := s.repo.TopScores(ctx, projectID, s.config.ResultLimit)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	ranked := make([]models.RankedMatch, 0, len(scores))
	for _, ms := range scores {
		ranked = append(ranked, ms.Ranked())
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, projectID, ranked); err != nil {
			s.logger.Warn("Failed to cache ranked matches", map[string]interface{}{"projectId": projectID, "error": err.Error()})
		}
	}
	return ranked, nil
}
