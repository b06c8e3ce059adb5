package model

import "time"

// User is a reader profile.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	PasswordHashed string    `db:"password_hash" json:"-"`
	CountryFlag    *string   `db:"country_flag" json:"country_flag,omitempty"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	Phronesis      int       `db:"phronesis" json:"phronesis"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	CountryFlag string `json:"country_flag,omitempty" validate:"max=8"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`
}
