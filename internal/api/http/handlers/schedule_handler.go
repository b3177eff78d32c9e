package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// ScheduleHandler manages assignment and conflict-map endpoints.
type ScheduleHandler struct {
	assignments *service.AssignmentService
	conflicts   *service.ConflictService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(assignments *service.AssignmentService, conflicts *service.ConflictService) *ScheduleHandler {
	return &ScheduleHandler{assignments: assignments, conflicts: conflicts}
}

// AssignTechnician POST /tickets/:id/assign.
func (h *ScheduleHandler) AssignTechnician(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}

	result, err := h.assignments.AssignTechnician(c.Context(), c.Params("id"), service.AssignmentInput{
		TechnicianID:    req.TechnicianID,
		Start:           req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Override:        req.Override,
		DispatcherID:    dispatcherID(c),
	})
	if err != nil {
		return err
	}

	resp := dto.AssignmentResponse{Committed: result.Committed}
	if result.Committed {
		summary := ticketSummary(result.Ticket)
		resp.Ticket = &summary
		return c.JSON(fiber.Map{"data": resp})
	}
	resp.Conflict = dto.ConflictCheckFromDomain(result.Conflict)
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"data": resp})
}

// Unassign POST /tickets/:id/unassign.
func (h *ScheduleHandler) Unassign(c *fiber.Ctx) error {
	ticket, err := h.assignments.Unassign(c.Context(), c.Params("id"), dispatcherID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// CheckConflict GET /schedule/conflicts/check.
func (h *ScheduleHandler) CheckConflict(c *fiber.Ctx) error {
	technicianID := c.Query("technician_id")
	if technicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	start := parseTime(c.Query("start"))
	if start == nil {
		return apperrors.NewValidationError("start must be RFC3339", nil)
	}
	end := parseTime(c.Query("end"))
	if end == nil {
		return apperrors.NewValidationError("end must be RFC3339", nil)
	}
	var excludeTicketID *string
	if exclude := c.Query("exclude_ticket_id"); exclude != "" {
		excludeTicketID = &exclude
	}

	result, err := h.conflicts.CheckConflict(c.Context(), technicianID, *start, *end, excludeTicketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ConflictCheckFromDomain(result)})
}

// DailyConflictMap GET /schedule/conflicts/daily.
func (h *ScheduleHandler) DailyConflictMap(c *fiber.Ctx) error {
	day, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	flags, err := h.conflicts.DailyConflictFlags(c.Context(), day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DailyConflictMapResponse{
		Date:  day.Format(service.DateKeyFormat),
		Flags: flags,
	}})
}

// TechnicianDayConflicts GET /schedule/conflicts/technician/:id.
func (h *ScheduleHandler) TechnicianDayConflicts(c *fiber.Ctx) error {
	day, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}
	technicianID := c.Params("id")

	conflicts, err := h.conflicts.TechnicianDayConflicts(c.Context(), technicianID, day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TechnicianDayConflictsResponse{
		Date:         day.Format(service.DateKeyFormat),
		TechnicianID: technicianID,
		Conflicts:    conflicts,
	}})
}

// RangeConflictCounts GET /schedule/conflicts/range.
func (h *ScheduleHandler) RangeConflictCounts(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return err
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return err
	}
	if to.Before(from) {
		return apperrors.NewValidationError("to must not precede from", nil)
	}

	counts, err := h.conflicts.RangeConflictCounts(c.Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RangeConflictCountsResponse{
		From:   from.Format(service.DateKeyFormat),
		To:     to.Format(service.DateKeyFormat),
		Counts: counts,
	}})
}

func parseDate(val string) (time.Time, error) {
	if val == "" {
		return time.Time{}, apperrors.NewValidationError("date required (2006-01-02)", nil)
	}
	day, err := time.Parse(service.DateKeyFormat, val)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be 2006-01-02", map[string]any{"value": val})
	}
	return day, nil
}
