package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// TechniciansHandler manages the technician directory. It is thin
// enough to sit directly on the repository.
type TechniciansHandler struct {
	technicians repository.TechnicianRepository
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians repository.TechnicianRepository) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians}
}

type technicianRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active,omitempty"`
}

// CreateTechnician POST /technicians.
func (h *TechniciansHandler) CreateTechnician(c *fiber.Ctx) error {
	var req technicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	technician := &domain.Technician{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Phone:  strings.TrimSpace(req.Phone),
		Active: true,
	}
	if err := h.technicians.Create(c.Context(), technician); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TechnicianFromDomain(technician)})
}

// UpdateTechnician PUT /technicians/:id.
func (h *TechniciansHandler) UpdateTechnician(c *fiber.Ctx) error {
	technician, err := h.technicians.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("technician", map[string]any{"technician_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}

	var req technicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) != "" {
		technician.Name = strings.TrimSpace(req.Name)
	}
	if strings.TrimSpace(req.Email) != "" {
		technician.Email = strings.TrimSpace(req.Email)
	}
	if strings.TrimSpace(req.Phone) != "" {
		technician.Phone = strings.TrimSpace(req.Phone)
	}
	if req.Active != nil {
		technician.Active = *req.Active
	}

	if err := h.technicians.Update(c.Context(), technician); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TechnicianFromDomain(technician)})
}

// GetTechnician GET /technicians/:id.
func (h *TechniciansHandler) GetTechnician(c *fiber.Ctx) error {
	technician, err := h.technicians.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("technician", map[string]any{"technician_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TechnicianFromDomain(technician)})
}

// ListTechnicians GET /technicians.
func (h *TechniciansHandler) ListTechnicians(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.Active = &active
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	technicians, err := h.technicians.List(c.Context(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TechnicianResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, dto.TechnicianFromDomain(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
