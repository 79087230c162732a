package auth

import "time"

type UserType string

const (
	UserTypeFarmer  UserType = "farmer"
	UserTypeCompany UserType = "company"
)

// User is the domain representation of a registered account.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	UserType     UserType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignupRequest contains account registration data supplied by callers.
type SignupRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserType UserType `json:"userType"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
