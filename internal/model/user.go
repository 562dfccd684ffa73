package model

import "time"

// User is an account identified by its email address.
type User struct {
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	LastLogin *time.Time `json:"last_login"`
}

// HasUsablePassword reports whether a password hash has been set.
// Accounts created through the login-link flow have none.
func (u *User) HasUsablePassword() bool {
	return u.Password != ""
}

// Token is a one-time login credential for an email address.
type Token struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	UID   string `json:"uid"`
}
