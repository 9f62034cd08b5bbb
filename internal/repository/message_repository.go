package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studybuddy/study-buddy-api/internal/models"
)

// MessageRepository handles persistence of course chat and direct messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByCourse returns a course room's messages oldest first with sender
// display fields resolved.
func (r *MessageRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseMessageDetail, error) {
	const query = `SELECT m.id, m.course_id, m.sender_id, m.content, m.created_at,
        u.full_name AS sender_name, u.net_id AS sender_net_id
        FROM course_messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.course_id = $1
        ORDER BY m.created_at ASC`
	var messages []models.CourseMessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, courseID); err != nil {
		return nil, fmt.Errorf("list course messages: %w", err)
	}
	return messages, nil
}

// CreateCourseMessage persists a course room message.
func (r *MessageRepository) CreateCourseMessage(ctx context.Context, message *models.CourseMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_messages (id, course_id, sender_id, content, created_at)
        VALUES (:id, :course_id, :sender_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create course message: %w", err)
	}
	return nil
}

// ListConversation returns both directions of a direct-message conversation
// ordered by creation time ascending.
func (r *MessageRepository) ListConversation(ctx context.Context, userID, otherID string) ([]models.DirectMessageDetail, error) {
	const query = `SELECT dm.id, dm.content, dm.created_at, u.net_id AS sender_net_id
        FROM direct_messages dm
        JOIN users u ON u.id = dm.sender_id
        WHERE (dm.sender_id = $1 AND dm.recipient_id = $2) OR (dm.sender_id = $2 AND dm.recipient_id = $1)
        ORDER BY dm.created_at ASC`
	var messages []models.DirectMessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, userID, otherID); err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return messages, nil
}

// CreateDirectMessage persists a direct message.
func (r *MessageRepository) CreateDirectMessage(ctx context.Context, message *models.DirectMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO direct_messages (id, sender_id, recipient_id, content, created_at)
        VALUES (:id, :sender_id, :recipient_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create direct message: %w", err)
	}
	return nil
}
