package model

import "time"

// User is the minimal user record the purchasing core consumes from the
// sign-up/profile subsystem. Point is the spendable balance in minor units.
type User struct {
	ID             int64
	ExternalUserID string
	Email          string
	BirthDate      time.Time
	Gender         string
	Point          int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSufficientPoint reports whether the user can cover amount without
// going negative.
func (u *User) HasSufficientPoint(amount int64) bool {
	return amount <= u.Point
}
