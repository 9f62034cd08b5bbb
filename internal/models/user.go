package models

import "time"

// User is a student identified by their institution NetID. Accounts are
// created on first sign-in from the verified identity assertion; there are no
// local credentials.
type User struct {
	ID          string    `db:"id" json:"id"`
	NetID       string    `db:"net_id" json:"net_id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RefreshToken is an opaque session token persisted for rotation and revocation.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"-"`
	UserAgent string     `db:"user_agent" json:"-"`
}
