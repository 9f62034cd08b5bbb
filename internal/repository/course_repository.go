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

// CourseRepository handles persistence of courses and the user<->course
// enrollment join table.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, created_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByCode returns a course by its display code, e.g. "CS 225".
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT id, code, name, created_at FROM courses WHERE code = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by code: %w", err)
	}
	return &course, nil
}

// CreateWithEnrollment inserts the course and enrolls its first user in one
// transaction. Courses only come into existence through an enrollment.
func (r *CourseRepository) CreateWithEnrollment(ctx context.Context, course *models.Course, userID string) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const courseQuery = `INSERT INTO courses (id, code, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, courseQuery, course.ID, course.Code, course.Name, course.CreatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	const enrollQuery = `INSERT INTO course_users (course_id, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, enrollQuery, course.ID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll first user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// Enroll connects a user to an existing course. A repeat enrollment is a
// no-op at the storage level; callers check first to report conflicts.
func (r *CourseRepository) Enroll(ctx context.Context, courseID, userID string) error {
	const query = `INSERT INTO course_users (course_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (course_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, courseID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll user: %w", err)
	}
	return nil
}

// Unenroll disconnects a user from a course, reporting whether a row was
// actually removed.
func (r *CourseRepository) Unenroll(ctx context.Context, courseID, userID string) (bool, error) {
	const query = `DELETE FROM course_users WHERE course_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, courseID, userID)
	if err != nil {
		return false, fmt.Errorf("unenroll user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unenroll rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsEnrolled reports whether the user holds an enrollment in the course.
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	const query = `SELECT 1 FROM course_users WHERE course_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListByUser returns every course the user is enrolled in.
func (r *CourseRepository) ListByUser(ctx context.Context, userID string) ([]models.Course, error) {
	const query = `SELECT c.id, c.code, c.name, c.created_at
        FROM courses c
        JOIN course_users cu ON cu.course_id = c.id
        WHERE cu.user_id = $1
        ORDER BY c.code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list user courses: %w", err)
	}
	return courses, nil
}

// ListMembers returns the roster of a course.
func (r *CourseRepository) ListMembers(ctx context.Context, courseID string) ([]models.CourseMember, error) {
	const query = `SELECT u.full_name, u.net_id
        FROM users u
        JOIN course_users cu ON cu.user_id = u.id
        WHERE cu.course_id = $1
        ORDER BY u.full_name ASC`
	var members []models.CourseMember
	if err := r.db.SelectContext(ctx, &members, query, courseID); err != nil {
		return nil, fmt.Errorf("list course members: %w", err)
	}
	return members, nil
}
