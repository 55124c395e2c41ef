package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/services"
)

type contractApplicationService interface {
	SaveAndSync(ctx context.Context, input services.SaveContractInput) (*services.SaveContractResult, error)
}

type attendanceFixer interface {
	FixAttendance(ctx context.Context, contractID int64) (string, error)
}

type auditTrailReader interface {
	ListByContract(ctx context.Context, contractID int64) ([]models.ContractOperationLog, error)
}

type ContractHandler struct {
	service contractApplicationService
	fixer   attendanceFixer
	audit   auditTrailReader
}

func NewContractHandler(
	service *services.ContractService,
	fixer *services.AttendanceService,
	audit *repository.OperationLogRepository,
) *ContractHandler {
	return &ContractHandler{service: service, fixer: fixer, audit: audit}
}

type saveContractRequest struct {
	Payload    map[string]any `json:"payload"`
	IsUpdate   bool           `json:"is_update"`
	ContractID *int64         `json:"contract_id"`
}

func (h *ContractHandler) SaveContract(c *fiber.Ctx) error {
	role := actorRole(c)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req saveContractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Payload == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payload is required"})
	}

	result, err := h.service.SaveAndSync(c.Context(), services.SaveContractInput{
		Payload:    req.Payload,
		IsUpdate:   req.IsUpdate,
		ContractID: req.ContractID,
		ActorID:    &actorID,
	})
	if err != nil {
		return mapContractError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success":     true,
		"contract_id": result.ContractID,
		"message":     result.Message,
	})
}

func (h *ContractHandler) FixAttendance(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	contractID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || contractID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	summary, err := h.fixer.FixAttendance(c.Context(), contractID)
	if err != nil {
		return mapContractError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// ListOperations exposes the audit trail of a contract, including failed
// attempts that never committed.
func (h *ContractHandler) ListOperations(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	contractID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || contractID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	operations, err := h.audit.ListByContract(c.Context(), contractID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list operations"})
	}
	return c.JSON(fiber.Map{"operations": operations})
}

func mapContractError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrOperationInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Another operation on this contract is in progress, retry shortly",
			"retryable": true,
		})
	case errors.Is(err, services.ErrContractNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	case errors.Is(err, services.ErrIntegrity):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDownstreamSync):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Attendance sync failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process contract request"})
	}
}
