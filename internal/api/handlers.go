package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/models"
	"matching-workers/internal/service"
)

// Matcher is the part of *service.Service the API drives.
type Matcher interface {
	Calculate(ctx context.Context, req service.Request) (*service.Outcome, error)
	Ranking(ctx context.Context, projectID string) ([]models.RankedMatch, error)
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type CalculateRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	ProfileID string `json:"profile_id"`
}

type ScoresResponse struct {
	Success        bool                 `json:"success"`
	MatchingScores []models.RankedMatch `json:"matchingScores"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type Handler struct {
	matcher Matcher
	checks  []ReadinessCheck
	logger  logger.Logger
}

func NewHandler(matcher Matcher, checks []ReadinessCheck, log logger.Logger) *Handler {
	return &Handler{
		matcher: matcher,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck handles GET /ready
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			continue
		}
		results[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// CalculateScores handles POST /api/v1/matching-scores
func (h *Handler) CalculateScores(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "project_id is required",
			Code:    string(errors.ErrCodeInvalidInput),
			Details: err.Error(),
		})
		return
	}

	outcome, err := h.matcher.Calculate(c.Request.Context(), service.Request{
		ProjectID: req.ProjectID,
		ProfileID: req.ProfileID,
		Source:    "http",
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScoresResponse{Success: true, MatchingScores: nonNil(outcome.Matches)})
}

// GetProjectScores handles GET /api/v1/projects/:project_id/matching-scores
func (h *Handler) GetProjectScores(c *gin.Context) {
	ranked, err := h.matcher.Ranking(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScoresResponse{Success: true, MatchingScores: nonNil(ranked)})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.CodeOf(err)
	resp := ErrorResponse{Error: err.Error(), Code: string(code)}
	if stdErr, ok := errors.AsStandardError(err); ok {
		resp.Error = stdErr.Message
		resp.Details = stdErr.Details
	}

	fields := map[string]interface{}{"path": c.FullPath(), "errorCode": string(code), "error": err.Error()}
	if errors.IsBusinessError(code) {
		h.logger.Info("Matching request rejected", fields)
	} else {
		h.logger.Error("Matching request failed", fields)
	}

	c.JSON(statusFor(code), resp)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoCandidates:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(ranked []models.RankedMatch) []models.RankedMatch {
	if ranked == nil {
		return []models.RankedMatch{}
	}
	return ranked
}
