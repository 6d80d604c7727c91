package domain

import "time"

// SubjectType differentiates end-user vs administrator tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeAdmin SubjectType = "ADMIN"
)

// User is an end user who files tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Admin is an administrator who triages, resolves, refers, and escalates.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
