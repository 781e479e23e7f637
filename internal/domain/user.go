package domain

import "strings"

type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypeOwner   UserType = "proprietario"
	UserTypeVisitor UserType = "visitante"
)

type User struct {
	ID    int32    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Type  UserType `json:"type"`
}

// NormalizeEmail is the form emails are compared in. Lookups ignore case and
// surrounding spaces.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
