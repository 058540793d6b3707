package model

import "time"

// SignupLog is an append-only record of a signup attempt, used only for
// abuse-prevention counting. Rows are never updated.
type SignupLog struct {
	ID                string    `db:"id" json:"id"`
	IPAddress         string    `db:"ip_address" json:"ip_address"`
	DeviceFingerprint string    `db:"device_fingerprint" json:"device_fingerprint"`
	Email             string    `db:"email" json:"email"`
	UserID            string    `db:"user_id" json:"user_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
