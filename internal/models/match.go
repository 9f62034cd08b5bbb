package models

import (
	"database/sql"
	"time"
)

// MatchStatus represents the lifecycle of a study match.
type MatchStatus string

// Possible match statuses. Accepted and rejected are terminal; a pending
// match can also be withdrawn, which removes the record entirely.
const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected:
		return true
	}
	return false
}

// Match is a pairwise study-partner request scoped to one course. The
// requester initiated it; only the requester may withdraw it while pending.
type Match struct {
	ID          string      `db:"id" json:"id"`
	CourseID    string      `db:"course_id" json:"course_id"`
	RequesterID string      `db:"requester_id" json:"requester_id"`
	AddresseeID string      `db:"addressee_id" json:"addressee_id"`
	Status      MatchStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Involves reports whether the user is one of the two participants.
func (m *Match) Involves(userID string) bool {
	return m.RequesterID == userID || m.AddresseeID == userID
}

// MatchDetail is a match joined with course display fields and the
// participant opposite the querying user. Course fields are nullable so a
// dangling course reference degrades instead of failing the listing.
type MatchDetail struct {
	Match
	CourseCode   sql.NullString `db:"course_code"`
	CourseName   sql.NullString `db:"course_name"`
	PartnerID    string         `db:"partner_id"`
	PartnerName  string         `db:"partner_name"`
	PartnerNetID string         `db:"partner_net_id"`
}

// MatchCourseView is the course summary embedded in a match view.
type MatchCourseView struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// MatchUserView is the other participant embedded in a match view.
type MatchUserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	NetID string `json:"net_id"`
}

// MatchView is the listing shape returned to clients.
type MatchView struct {
	ID     string          `json:"id"`
	Course MatchCourseView `json:"course"`
	User   MatchUserView   `json:"user"`
	Status MatchStatus     `json:"status"`
}
