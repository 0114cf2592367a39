package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

var (
	selectProject    = regexp.QuoteMeta("SELECT id, COALESCE(profile_id, ''), title, requirements, created_at, updated_at FROM projects")
	selectCandidates = regexp.QuoteMeta("SELECT id, name, kind, profile_details FROM profiles WHERE kind = $1")
	upsertScore      = regexp.QuoteMeta("INSERT INTO matching_scores") + "(?s).*" + regexp.QuoteMeta("ON CONFLICT (project_id, profile_id) DO UPDATE")
	selectTopScores  = regexp.QuoteMeta("FROM matching_scores ms JOIN profiles p ON p.id = ms.profile_id WHERE ms.project_id = $1 AND p.kind = $2")
)

// ==========================
// Projects
// ==========================

func TestStore_GetProject(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(selectProject).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "title", "requirements", "created_at", "updated_at"}).
			AddRow("p-1", "req-1", "CRM automation",
				[]byte(`{"required_level":"developer","required_tools":["ChatGPT"],"business_domain":"営業支援"}`),
				now, now))

	p, err := s.GetProject(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", p.RequesterProfileID)
	assert.Equal(t, models.LevelDeveloper, p.Requirements.RequiredLevel)
	assert.Equal(t, []string{"ChatGPT"}, p.Requirements.RequiredTools)
	assert.Equal(t, models.DifficultyIntermediate, p.Requirements.Difficulty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProject_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectProject).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := s.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProject_MalformedRequirements(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(selectProject).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "title", "requirements", "created_at", "updated_at"}).
			AddRow("p-1", "", "", []byte(`{"required_tools":"ChatGPT"}`), now, now))

	_, err := s.GetProject(context.Background(), "p-1")
	var malformed *MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "project", malformed.Kind)
}

// ==========================
// Candidates
// ==========================

func TestStore_ListCandidates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectCandidates + " ORDER BY id").
		WithArgs("professional").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "profile_details"}).
			AddRow("c-1", "Aiko", "professional", []byte(`{"skill_levels":["developer"],"tools":["ChatGPT"],"experience":{"years":2,"domains":["営業支援"]}}`)).
			AddRow("c-2", "Ben", "professional", nil))

	profiles, err := s.ListCandidates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, models.KindProfessional, profiles[0].Kind)
	assert.Equal(t, models.LevelDeveloper, profiles[0].Details.PrimaryLevel())
	assert.Equal(t, 2.0, profiles[0].Details.Experience.Years)
	assert.Empty(t, profiles[1].Details.Tools)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListCandidates_SingleProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectCandidates + regexp.QuoteMeta(" AND id = $2")).
		WithArgs("professional", "requester-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "profile_details"}))

	profiles, err := s.ListCandidates(context.Background(), "requester-1")
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListCandidates_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectCandidates).WithArgs("professional").WillReturnError(errors.New("connection refused"))

	_, err := s.ListCandidates(context.Background(), "")
	assert.ErrorContains(t, err, "connection refused")
}

// ==========================
// Scores
// ==========================

func TestStore_UpsertScore(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Now().Add(-time.Hour)
	updated := time.Now()

	score := &models.MatchingScore{
		ProjectID: "p-1",
		ProfileID: "c-1",
		Breakdown: models.ScoreBreakdown{Level: 30, Tool: 13, Domain: 20, Experience: 15, Availability: 10, Total: 88, Percentage: 88},
		Reason:    "skill level matches requirement",
		Details:   models.MatchDetails{RequiredLevel: "developer", CandidateLevel: "developer", MatchedTools: []string{"ChatGPT"}},
	}

	mock.ExpectQuery(upsertScore).
		WithArgs(sqlmock.AnyArg(), "p-1", "c-1", 30.0, 13.0, 20.0, 15.0, 10.0, 88.0, 88,
			"skill level matches requirement",
			`{"required_level":"developer","candidate_level":"developer","matched_tools":["ChatGPT"]}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("0b6f3c5e-3a55-4ef1-9d7e-1d1f0c3e4a10", created, updated))

	require.NoError(t, s.UpsertScore(context.Background(), score))
	assert.Equal(t, "0b6f3c5e-3a55-4ef1-9d7e-1d1f0c3e4a10", score.ID)
	assert.Equal(t, created, score.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertScore_Error(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(upsertScore).WillReturnError(errors.New("deadlock detected"))

	err := s.UpsertScore(context.Background(), &models.MatchingScore{ProjectID: "p-1", ProfileID: "c-1"})
	assert.ErrorContains(t, err, "p-1/c-1")
	assert.ErrorContains(t, err, "deadlock detected")
}

func TestStore_TopScores(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	cols := []string{"id", "project_id", "profile_id", "name",
		"level_match_score", "tool_match_score", "domain_match_score",
		"experience_score", "availability_score", "total_score",
		"percentage", "reason", "match_details", "created_at", "updated_at"}

	mock.ExpectQuery(selectTopScores).
		WithArgs("p-1", "professional", 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s-1", "p-1", "c-1", "Aiko", 30.0, 25.0, 20.0, 15.0, 10.0, 100.0, 100, "perfect", []byte(`{"matched_tools":["ChatGPT"]}`), now, now).
			AddRow("s-2", "p-1", "c-2", "Ben", 15.0, 13.0, 10.0, 5.0, 10.0, 53.0, 53, "ok", []byte(`{}`), now, now))

	scores, err := s.TopScores(context.Background(), "p-1", 10)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Aiko", scores[0].ProfileName)
	assert.Equal(t, 100.0, scores[0].Breakdown.Total)
	assert.Equal(t, []string{"ChatGPT"}, scores[0].Details.MatchedTools)
	assert.Equal(t, 53, scores[1].Breakdown.Percentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
