package models

import "time"

// Course is the denormalized course record created lazily the first time any
// user enrolls in a catalog entry. Its code ("CS 225") passed catalog
// validation at creation time.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CourseMember is one enrolled user in a course roster.
type CourseMember struct {
	Name  string `db:"full_name" json:"name"`
	NetID string `db:"net_id" json:"net_id"`
}
