package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studybuddy/study-buddy-api/internal/models"
)

// MatchRepository handles persistence of study matches.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// FindByID returns a match by its ID.
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*models.Match, error) {
	const query = `SELECT id, course_id, requester_id, addressee_id, status, created_at, updated_at FROM matches WHERE id = $1 LIMIT 1`
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find match by id: %w", err)
	}
	return &match, nil
}

// FindOrCreateForPair returns the live (pending or accepted) match for the
// unordered user pair within a course, creating a pending one when none
// exists. The lookup and insert share a transaction with the candidate row
// locked, so two concurrent identical requests cannot both insert.
func (r *MatchRepository) FindOrCreateForPair(ctx context.Context, courseID, requesterID, addresseeID string) (*models.Match, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin match create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const lookup = `SELECT id, course_id, requester_id, addressee_id, status, created_at, updated_at
        FROM matches
        WHERE course_id = $1
          AND ((requester_id = $2 AND addressee_id = $3) OR (requester_id = $3 AND addressee_id = $2))
          AND status IN ($4, $5)
        LIMIT 1
        FOR UPDATE`

	var existing models.Match
	err = tx.GetContext(ctx, &existing, lookup, courseID, requesterID, addresseeID, models.MatchStatusPending, models.MatchStatusAccepted)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit match lookup: %w", err)
		}
		return &existing, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("lookup pair match: %w", err)
	}

	now := time.Now().UTC()
	match := &models.Match{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.MatchStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insert = `INSERT INTO matches (id, course_id, requester_id, addressee_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, insert, match.ID, match.CourseID, match.RequesterID, match.AddresseeID, match.Status, match.CreatedAt, match.UpdatedAt); err != nil {
		return nil, false, fmt.Errorf("create match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit match create: %w", err)
	}
	return match, true, nil
}

// UpdateStatus transitions a match to the given status.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	const query = `UPDATE matches SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return nil
}

// DeletePendingForPair removes the pending match the requester created for
// the course/pair, reporting whether a row was removed. Accepted and rejected
// matches are never touched.
func (r *MatchRepository) DeletePendingForPair(ctx context.Context, courseID, requesterID, addresseeID string) (bool, error) {
	const query = `DELETE FROM matches
        WHERE course_id = $1 AND requester_id = $2 AND addressee_id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, courseID, requesterID, addresseeID, models.MatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("delete pending match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pending match rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByUser returns every match involving the user, joined with course
// display fields and the other participant. The course join is LEFT so a
// dangling course reference yields NULL display fields instead of dropping
// the row.
func (r *MatchRepository) ListByUser(ctx context.Context, userID string) ([]models.MatchDetail, error) {
	const query = `SELECT m.id, m.course_id, m.requester_id, m.addressee_id, m.status, m.created_at, m.updated_at,
        c.code AS course_code, c.name AS course_name,
        u.id AS partner_id, u.full_name AS partner_name, u.net_id AS partner_net_id
        FROM matches m
        LEFT JOIN courses c ON c.id = m.course_id
        JOIN users u ON u.id = CASE WHEN m.requester_id = $1 THEN m.addressee_id ELSE m.requester_id END
        WHERE m.requester_id = $1 OR m.addressee_id = $1
        ORDER BY m.created_at DESC`
	var details []models.MatchDetail
	if err := r.db.SelectContext(ctx, &details, query, userID); err != nil {
		return nil, fmt.Errorf("list user matches: %w", err)
	}
	return details, nil
}
