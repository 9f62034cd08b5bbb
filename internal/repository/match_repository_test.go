package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/study-buddy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func matchColumns() []string {
	return []string{"id", "course_id", "requester_id", "addressee_id", "status", "created_at", "updated_at"}
}

func TestMatchRepositoryFindOrCreateReturnsExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, requester_id, addressee_id, status, created_at, updated_at")).
		WithArgs("course-1", "user-a", "user-b", models.MatchStatusPending, models.MatchStatusAccepted).
		WillReturnRows(sqlmock.NewRows(matchColumns()).
			AddRow("match-1", "course-1", "user-a", "user-b", models.MatchStatusPending, now, now))
	mock.ExpectCommit()

	match, created, err := repo.FindOrCreateForPair(context.Background(), "course-1", "user-a", "user-b")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "match-1", match.ID)
	require.Equal(t, models.MatchStatusPending, match.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryFindOrCreateInsertsWhenAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, requester_id, addressee_id, status, created_at, updated_at")).
		WithArgs("course-1", "user-a", "user-b", models.MatchStatusPending, models.MatchStatusAccepted).
		WillReturnRows(sqlmock.NewRows(matchColumns()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO matches")).
		WithArgs(sqlmock.AnyArg(), "course-1", "user-a", "user-b", models.MatchStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	match, created, err := repo.FindOrCreateForPair(context.Background(), "course-1", "user-a", "user-b")
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, match.ID)
	require.Equal(t, models.MatchStatusPending, match.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryDeletePendingForPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM matches")).
		WithArgs("course-1", "user-a", "user-b", models.MatchStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeletePendingForPair(context.Background(), "course-1", "user-a", "user-b")
	require.NoError(t, err)
	require.True(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM matches")).
		WithArgs("course-1", "user-a", "user-b", models.MatchStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.DeletePendingForPair(context.Background(), "course-1", "user-a", "user-b")
	require.NoError(t, err)
	require.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	now := time.Now()
	columns := append(matchColumns(), "course_code", "course_name", "partner_id", "partner_name", "partner_net_id")
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("match-1", "course-1", "user-a", "user-b", models.MatchStatusAccepted, now, now, "CS 225", "Data Structures", "user-b", "Jane Smith", "jsmith2").
			AddRow("match-2", "course-gone", "user-b", "user-a", models.MatchStatusPending, now, now, nil, nil, "user-b", "Jane Smith", "jsmith2"))

	details, err := repo.ListByUser(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.Equal(t, "CS 225", details[0].CourseCode.String)
	require.False(t, details[1].CourseCode.Valid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET status")).
		WithArgs("match-1", models.MatchStatusAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "match-1", models.MatchStatusAccepted))
	require.NoError(t, mock.ExpectationsWereMet())
}
