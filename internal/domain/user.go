package domain

import "time"

// UserType separates buyers from makers.
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeArtisan  UserType = "artisan"
)

// Account is a registered user. PasswordHash is a bcrypt digest.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	UserType     UserType  `json:"user_type"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
