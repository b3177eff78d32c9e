package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// WorkLogHandler manages billable timer endpoints.
type WorkLogHandler struct {
	service *service.TimeTrackingService
}

// NewWorkLogHandler constructs handler.
func NewWorkLogHandler(timeTracking *service.TimeTrackingService) *WorkLogHandler {
	return &WorkLogHandler{service: timeTracking}
}

type timerRequest struct {
	TechnicianID string `json:"technician_id"`
}

// StartWork POST /tickets/:id/work/start.
func (h *WorkLogHandler) StartWork(c *fiber.Ctx) error {
	var req timerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}

	log, err := h.service.StartWork(c.Context(), req.TechnicianID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timeLogResponse(log)})
}

// EndWork POST /tickets/:id/work/end.
func (h *WorkLogHandler) EndWork(c *fiber.Ctx) error {
	var req timerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}

	log, err := h.service.EndWork(c.Context(), req.TechnicianID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timeLogResponse(log)})
}

// ActiveTimer GET /technicians/:id/timer.
func (h *WorkLogHandler) ActiveTimer(c *fiber.Ctx) error {
	log, err := h.service.ActiveTimer(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if log == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": timeLogResponse(log)})
}

// TicketTimeLogs GET /tickets/:id/work.
func (h *WorkLogHandler) TicketTimeLogs(c *fiber.Ctx) error {
	logs, err := h.service.TicketTimeLogs(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TimeLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, timeLogResponse(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func timeLogResponse(log *domain.TimeLog) dto.TimeLogResponse {
	return dto.TimeLogResponse{
		ID:           log.ID,
		TechnicianID: log.TechnicianID,
		TicketID:     log.TicketID,
		StartedAt:    log.StartedAt,
		EndedAt:      log.EndedAt,
	}
}
