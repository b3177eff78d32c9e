package domain

import "time"

// Technician models a field technician from the personnel directory.
type Technician struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
