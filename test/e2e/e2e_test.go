//go:build e2e

// Package e2e drives a full matching run against real Postgres and Redis.
// Run with: go test -tags e2e ./test/e2e/...
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matching-workers/internal/api"
	"matching-workers/internal/bootstrap"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/service"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	if os.Getenv("E2E_ENABLED") == "" {
		fmt.Println("E2E_ENABLED not set, skipping end-to-end tests")
		os.Exit(0)
	}

	zapLog, _ = zap.NewDevelopment()
	code := m.Run()
	_ = zapLog.Sync()
	os.Exit(code)
}

type fixture struct {
	projectID   string
	requesterID string
	perfectID   string
	partialID   string
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	t.Setenv("CAMUNDA_ENABLED", "false")
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Postgres.AutoMigrate = true

	infra, err := bootstrap.Connect(ctx, cfg, bootstrap.ConnectOptions{MaxRetries: 5, InitialDelay: time.Second}, zapLog)
	require.NoError(t, err, "datastores must be reachable")
	defer infra.Close()

	require.NoError(t, bootstrap.Migrate(cfg, zapLog))

	fx := seed(t, ctx, infra.Postgres.GetDB())

	log := logger.NewZapAdapter(zapLog)
	svc := bootstrap.NewMatchingService(cfg, infra, observability.New("e2e", log), log)

	t.Run("full run scores every professional", func(t *testing.T) {
		outcome, err := svc.Calculate(ctx, service.Request{ProjectID: fx.projectID, Source: "e2e"})
		require.NoError(t, err)
		assert.Empty(t, outcome.Failed)

		assert.Equal(t, 100.0, storedTotal(t, ctx, infra.Postgres.GetDB(), fx.projectID, fx.perfectID))
		assert.Less(t, storedTotal(t, ctx, infra.Postgres.GetDB(), fx.projectID, fx.partialID), 100.0)
		assertNotScored(t, ctx, infra.Postgres.GetDB(), fx.projectID, fx.requesterID)
	})

	t.Run("rerun keeps one row per pair", func(t *testing.T) {
		_, err := svc.Calculate(ctx, service.Request{ProjectID: fx.projectID, Source: "e2e"})
		require.NoError(t, err)

		var rows int
		require.NoError(t, infra.Postgres.GetDB().QueryRowContext(ctx,
			`SELECT COUNT(*) FROM matching_scores WHERE project_id = $1 AND profile_id = $2`,
			fx.projectID, fx.perfectID).Scan(&rows))
		assert.Equal(t, 1, rows)
	})

	t.Run("http api returns the ranking", func(t *testing.T) {
		router := api.SetupRouter(gin.TestMode, svc, nil, log)

		body, _ := json.Marshal(map[string]string{"project_id": fx.projectID, "profile_id": fx.perfectID})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matching-scores", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp api.ScoresResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.MatchingScores, 1)
		assert.Equal(t, fx.perfectID, resp.MatchingScores[0].ProfileID)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+fx.projectID+"/matching-scores", nil))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+uuid.NewString()+"/matching-scores", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func seed(t *testing.T, ctx context.Context, db *sql.DB) fixture {
	t.Helper()
	run := uuid.NewString()[:8]
	fx := fixture{
		projectID:   "e2e-project-" + run,
		requesterID: "e2e-requester-" + run,
		perfectID:   "e2e-perfect-" + run,
		partialID:   "e2e-partial-" + run,
	}

	profiles := []struct {
		id, name, kind, details string
	}{
		{fx.requesterID, "Requester", "requester", `{"skill_levels":["expert"],"tools":["ChatGPT","Zapier"],"experience":{"years":9,"domains":["sales"]}}`},
		{fx.perfectID, "Perfect Fit", "professional", `{"skill_levels":["developer"],"tools":["ChatGPT","Zapier"],"experience":{"years":2,"domains":["sales"]}}`},
		{fx.partialID, "Partial Fit", "professional", `{"skill_levels":["user"],"tools":["ChatGPT"],"experience":{"years":1.2,"domains":["marketing"]}}`},
	}
	for _, p := range profiles {
		_, err := db.ExecContext(ctx,
			`INSERT INTO profiles (id, name, kind, profile_details) VALUES ($1, $2, $3, $4)`,
			p.id, p.name, p.kind, p.details)
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, profile_id, title, requirements) VALUES ($1, $2, $3, $4)`,
		fx.projectID, fx.requesterID, "Sales automation",
		`{"required_level":"developer","required_tools":["ChatGPT","Zapier"],"business_domain":"sales","project_difficulty":"intermediate"}`)
	require.NoError(t, err)

	t.Cleanup(func() {
		cleanupCtx := context.Background()
		_, _ = db.ExecContext(cleanupCtx, `DELETE FROM matching_scores WHERE project_id = $1`, fx.projectID)
		_, _ = db.ExecContext(cleanupCtx, `DELETE FROM projects WHERE id = $1`, fx.projectID)
		for _, p := range profiles {
			_, _ = db.ExecContext(cleanupCtx, `DELETE FROM profiles WHERE id = $1`, p.id)
		}
	})
	return fx
}

func storedTotal(t *testing.T, ctx context.Context, db *sql.DB, projectID, profileID string) float64 {
	t.Helper()
	var total float64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT total_score FROM matching_scores WHERE project_id = $1 AND profile_id = $2`,
		projectID, profileID).Scan(&total))
	return total
}

func assertNotScored(t *testing.T, ctx context.Context, db *sql.DB, projectID, profileID string) {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matching_scores WHERE project_id = $1 AND profile_id = $2`,
		projectID, profileID).Scan(&n))
	assert.Zero(t, n)
}
