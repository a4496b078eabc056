package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Created at registration, immutable
// thereafter (no update path exists), never deleted.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"` // unique, primary lookup key
	Location  string    `json:"location"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role is the marketplace role a user registers as.
type Role string

const (
	// RoleRequester posts tasks needing fulfillment and pays on completion.
	RoleRequester Role = "requester"
	// RoleHelper fulfills posted tasks in exchange for the service fee.
	RoleHelper Role = "helper"
)

// ParseRole returns the Role for s, or an error for anything else.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRequester, RoleHelper:
		return Role(s), nil
	}
	return "", errors.New("role must be requester or helper")
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Phone == "" {
		return errors.New("phone is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Location == "" {
		return errors.New("location is required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}
