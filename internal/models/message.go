package models

import "time"

// CourseMessage is a chat message posted to a course room.
type CourseMessage struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CourseMessageDetail enriches CourseMessage with sender display fields.
type CourseMessageDetail struct {
	CourseMessage
	SenderName  string `db:"sender_name" json:"sender_name"`
	SenderNetID string `db:"sender_net_id" json:"sender_net_id"`
}

// DirectMessage is a one-to-one message. Immutable once created; a
// conversation is ordered by creation time ascending.
type DirectMessage struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DirectMessageDetail is a direct message with the sender's NetID resolved
// for conversation rendering.
type DirectMessageDetail struct {
	ID          string    `db:"id" json:"id"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	SenderNetID string    `db:"sender_net_id" json:"sender_net_id"`
}
