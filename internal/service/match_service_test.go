package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studybuddy/study-buddy-api/internal/models"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

type mockMatchRepo struct {
	matches map[string]models.Match
	details []models.MatchDetail
	created *models.Match
	updated map[string]models.MatchStatus
	deleted bool
}

func (m *mockMatchRepo) FindByID(ctx context.Context, id string) (*models.Match, error) {
	if match, ok := m.matches[id]; ok {
		return &match, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMatchRepo) FindOrCreateForPair(ctx context.Context, courseID, requesterID, addresseeID string) (*models.Match, bool, error) {
	for _, match := range m.matches {
		if match.CourseID != courseID {
			continue
		}
		samePair := (match.RequesterID == requesterID && match.AddresseeID == addresseeID) ||
			(match.RequesterID == addresseeID && match.AddresseeID == requesterID)
		if samePair && (match.Status == models.MatchStatusPending || match.Status == models.MatchStatusAccepted) {
			return &match, false, nil
		}
	}
	if m.matches == nil {
		m.matches = make(map[string]models.Match)
	}
	now := time.Now().UTC()
	match := models.Match{
		ID:          "new-match",
		CourseID:    courseID,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.MatchStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.matches[match.ID] = match
	m.created = &match
	return &match, true, nil
}

func (m *mockMatchRepo) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	if m.updated == nil {
		m.updated = make(map[string]models.MatchStatus)
	}
	m.updated[id] = status
	if match, ok := m.matches[id]; ok {
		match.Status = status
		m.matches[id] = match
	}
	return nil
}

func (m *mockMatchRepo) DeletePendingForPair(ctx context.Context, courseID, requesterID, addresseeID string) (bool, error) {
	for id, match := range m.matches {
		if match.CourseID == courseID && match.RequesterID == requesterID && match.AddresseeID == addresseeID && match.Status == models.MatchStatusPending {
			delete(m.matches, id)
			m.deleted = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMatchRepo) ListByUser(ctx context.Context, userID string) ([]models.MatchDetail, error) {
	return m.details, nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByNetID(ctx context.Context, netID string) (*models.User, error) {
	if u, ok := m.users[netID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct{}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Code: "CS 225", Name: "Data Structures"}, nil
}

func newMatchService(repo *mockMatchRepo, users *mockUserReader) *MatchService {
	return NewMatchService(repo, users, &mockCourseReader{}, nil, validator.New(), zap.NewNop())
}

func TestMatchServiceRequestCreatesPending(t *testing.T) {
	repo := &mockMatchRepo{}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	match, created, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe2"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, "u1", match.RequesterID)
	assert.Equal(t, "u2", match.AddresseeID)
}

func TestMatchServiceRequestIsIdempotent(t *testing.T) {
	repo := &mockMatchRepo{}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	first, created, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe2"})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestMatchServiceRequestReversedPairReturnsExisting(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u2", AddresseeID: "u1", Status: models.MatchStatusPending},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	match, created, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "m1", match.ID)
}

func TestMatchServiceRequestAfterRejectionCreatesNew(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusRejected},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	match, created, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe2"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "m1", match.ID)
}

func TestMatchServiceRequestSelfMatchRejected(t *testing.T) {
	users := &mockUserReader{users: map[string]*models.User{"jdoe1": {ID: "u1", NetID: "jdoe1"}}}
	svc := newMatchService(&mockMatchRepo{}, users)

	_, _, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "jdoe1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceRequestUnknownTarget(t *testing.T) {
	svc := newMatchService(&mockMatchRepo{}, &mockUserReader{})

	_, _, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "c1", TargetNetID: "ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "target user not found", appErr.Message)
}

func TestMatchServiceRequestUnknownCourse(t *testing.T) {
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(&mockMatchRepo{}, users)

	_, _, err := svc.Request(context.Background(), "u1", MatchRequest{CourseID: "missing", TargetNetID: "jdoe2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceRespondAccept(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusPending},
	}}
	svc := newMatchService(repo, &mockUserReader{})

	match, err := svc.Respond(context.Background(), "u2", "m1", RespondRequest{Status: models.MatchStatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, match.Status)
	assert.Equal(t, models.MatchStatusAccepted, repo.updated["m1"])
}

func TestMatchServiceRespondInvalidStatus(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusPending},
	}}
	svc := newMatchService(repo, &mockUserReader{})

	for _, status := range []models.MatchStatus{"maybe", "", models.MatchStatusPending} {
		_, err := svc.Respond(context.Background(), "u2", "m1", RespondRequest{Status: status})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.updated)
}

func TestMatchServiceRespondNonParticipant(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusPending},
	}}
	svc := newMatchService(repo, &mockUserReader{})

	_, err := svc.Respond(context.Background(), "u3", "m1", RespondRequest{Status: models.MatchStatusAccepted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceRespondAlreadyDecided(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusAccepted},
	}}
	svc := newMatchService(repo, &mockUserReader{})

	_, err := svc.Respond(context.Background(), "u2", "m1", RespondRequest{Status: models.MatchStatusRejected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceRespondMissingMatch(t *testing.T) {
	svc := newMatchService(&mockMatchRepo{}, &mockUserReader{})

	_, err := svc.Respond(context.Background(), "u1", "nope", RespondRequest{Status: models.MatchStatusAccepted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceWithdrawPending(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusPending},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	err := svc.Withdraw(context.Background(), "u1", "c1", "jdoe2")
	require.NoError(t, err)
	assert.True(t, repo.deleted)
}

func TestMatchServiceWithdrawNothingPending(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusAccepted},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMatchService(repo, users)

	err := svc.Withdraw(context.Background(), "u1", "c1", "jdoe2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceWithdrawByAddresseeFails(t *testing.T) {
	repo := &mockMatchRepo{matches: map[string]models.Match{
		"m1": {ID: "m1", CourseID: "c1", RequesterID: "u1", AddresseeID: "u2", Status: models.MatchStatusPending},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe1": {ID: "u1", NetID: "jdoe1"}}}
	svc := newMatchService(repo, users)

	err := svc.Withdraw(context.Background(), "u2", "c1", "jdoe1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchServiceListUsesPlaceholdersForMissingCourse(t *testing.T) {
	repo := &mockMatchRepo{details: []models.MatchDetail{
		{
			Match:        models.Match{ID: "m1", CourseID: "c1", Status: models.MatchStatusAccepted},
			CourseCode:   sql.NullString{String: "CS 225", Valid: true},
			CourseName:   sql.NullString{String: "Data Structures", Valid: true},
			PartnerID:    "u2",
			PartnerName:  "Jane Doe",
			PartnerNetID: "jdoe2",
		},
		{
			Match:        models.Match{ID: "m2", CourseID: "gone", Status: models.MatchStatusPending},
			PartnerID:    "u3",
			PartnerName:  "Jim Doe",
			PartnerNetID: "jdoe3",
		},
	}}
	svc := newMatchService(repo, &mockUserReader{})

	views, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "CS 225", views[0].Course.Code)
	assert.Equal(t, "-", views[1].Course.Code)
	assert.Equal(t, "-", views[1].Course.Name)
	assert.Equal(t, "jdoe3", views[1].User.NetID)
}
