package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// TechnicianResponse is the public technician projection.
type TechnicianResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TechnicianFromDomain converts a technician for transport.
func TechnicianFromDomain(t *domain.Technician) TechnicianResponse {
	return TechnicianResponse{
		ID:        t.ID,
		Name:      t.Name,
		Email:     t.Email,
		Phone:     t.Phone,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
