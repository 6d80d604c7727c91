package domain

import "time"

// Department represents a high-level organizational unit tickets belong to.
type Department struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
