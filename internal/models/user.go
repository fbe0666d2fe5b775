package models

import "time"

type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleDoctor      UserRole = "doctor"
	UserRoleSystemAdmin UserRole = "system-admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleDoctor, UserRoleSystemAdmin:
		return true
	}
	return false
}

// User is an account of the claims platform. Password is stored in plain text;
// the platform only ships demo accounts.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           UserRole   `json:"role"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	IsActive       bool       `json:"isActive"`
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"licenseNumber,omitempty"`
	Password       string     `json:"password"`
}

func (u User) Clone() User {
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
