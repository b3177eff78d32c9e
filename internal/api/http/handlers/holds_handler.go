package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// HoldsHandler manages hold lifecycle endpoints.
type HoldsHandler struct {
	service *service.HoldService
}

// NewHoldsHandler constructs handler.
func NewHoldsHandler(holdService *service.HoldService) *HoldsHandler {
	return &HoldsHandler{service: holdService}
}

// HoldForParts POST /tickets/:id/hold/parts.
func (h *HoldsHandler) HoldForParts(c *fiber.Ctx) error {
	var req dto.PartsHoldRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	items := make([]service.PartsLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.PartsLineInput{
			PartID:          item.PartID,
			Quantity:        item.Quantity,
			Notes:           item.Notes,
			PreferredSource: item.PreferredSource,
		})
	}

	receipt, err := h.service.HoldForParts(c.Context(), c.Params("id"), service.PartsHoldInput{
		Urgency:      req.Urgency,
		Summary:      req.Summary,
		Notes:        req.Notes,
		Items:        items,
		DispatcherID: dispatcherID(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": holdReceipt(receipt)})
}

// ReportIssue POST /tickets/:id/hold/issue.
func (h *HoldsHandler) ReportIssue(c *fiber.Ctx) error {
	var req dto.IssueReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	receipt, err := h.service.ReportIssue(c.Context(), c.Params("id"), service.IssueReportInput{
		Category:     req.Category,
		Severity:     req.Severity,
		Description:  req.Description,
		Summary:      req.Summary,
		Metadata:     req.Metadata,
		DispatcherID: dispatcherID(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": holdReceipt(receipt)})
}

// Resume POST /tickets/:id/resume.
func (h *HoldsHandler) Resume(c *fiber.Ctx) error {
	var req dto.ResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	hold, err := h.service.Resume(c.Context(), c.Params("id"), req.ResolutionNotes, dispatcherID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HoldFromDomain(*hold)})
}

// ListHolds GET /tickets/:id/holds.
func (h *HoldsHandler) ListHolds(c *fiber.Ctx) error {
	holds, err := h.service.ListHolds(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HoldResponse, 0, len(holds))
	for _, hold := range holds {
		items = append(items, dto.HoldFromDomain(hold))
	}
	return c.JSON(fiber.Map{"data": items})
}

func holdReceipt(receipt *repository.HoldReceipt) dto.HoldReceiptResponse {
	return dto.HoldReceiptResponse{
		HoldID:       receipt.HoldID,
		DetailID:     receipt.DetailID,
		TimerStopped: receipt.TimerStopped,
	}
}
