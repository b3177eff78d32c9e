package domain

import "time"

// DispatcherRole enumerates internal operator roles.
type DispatcherRole string

const (
	RoleDispatcher DispatcherRole = "DISPATCHER"
	RoleSupervisor DispatcherRole = "SUPERVISOR"
	RoleAdmin      DispatcherRole = "ADMIN"
)

// Dispatcher models an operator who schedules technicians and manages
// ticket lifecycle.
type Dispatcher struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         DispatcherRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
