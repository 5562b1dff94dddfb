package models

import "time"

// UserStatus is the presence flag flipped on login and logout.
type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
)

// User is the public profile of an account.
type User struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	Image      *string    `db:"image" json:"image"`
	Status     UserStatus `db:"status" json:"status"`
	LastActive time.Time  `db:"last_active" json:"last_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Account is a user together with its credentials.
type Account struct {
	User
	PasswordHash string `db:"password_hash" json:"-"`
}
