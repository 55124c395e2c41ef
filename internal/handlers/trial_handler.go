package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/services"
)

type trialApplicationService interface {
	CreateTrial(ctx context.Context, actorID int64, studentName string) (*models.TrialAppointment, error)
	Assign(ctx context.Context, actorID, trialID, teacherID int64) (*models.TrialAppointment, error)
	Decline(ctx context.Context, actorID, trialID int64) (*models.TrialAppointment, error)
	Accept(ctx context.Context, actorID, trialID int64) (*models.TrialAppointment, error)
	GetTrial(ctx context.Context, trialID int64) (*models.TrialAppointment, error)
}

type TrialHandler struct {
	service trialApplicationService
}

func NewTrialHandler(service *services.TrialService) *TrialHandler {
	return &TrialHandler{service: service}
}

type createTrialRequest struct {
	StudentName string `json:"student_name" validate:"required,min=2"`
}

type assignTrialRequest struct {
	TeacherID int64 `json:"teacher_id" validate:"required,gt=0"`
}

func (h *TrialHandler) CreateTrial(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createTrialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_name must have at least 2 characters"})
	}

	trial, err := h.service.CreateTrial(c.Context(), actorID, req.StudentName)
	if err != nil {
		return mapTrialError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trial": trial})
}

func (h *TrialHandler) Assign(c *fiber.Ctx) error {
	actorID, trialID, err := parseTrialActor(c)
	if err != nil {
		return err
	}

	var req assignTrialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id is required"})
	}

	trial, err := h.service.Assign(c.Context(), actorID, trialID, req.TeacherID)
	if err != nil {
		return mapTrialError(c, err)
	}
	return c.JSON(fiber.Map{"trial": trial})
}

func (h *TrialHandler) Decline(c *fiber.Ctx) error {
	actorID, trialID, err := parseTrialActor(c)
	if err != nil {
		return err
	}

	trial, err := h.service.Decline(c.Context(), actorID, trialID)
	if err != nil {
		return mapTrialError(c, err)
	}
	return c.JSON(fiber.Map{"trial": trial})
}

func (h *TrialHandler) Accept(c *fiber.Ctx) error {
	actorID, trialID, err := parseTrialActor(c)
	if err != nil {
		return err
	}

	trial, err := h.service.Accept(c.Context(), actorID, trialID)
	if err != nil {
		return mapTrialError(c, err)
	}
	return c.JSON(fiber.Map{"trial": trial})
}

func (h *TrialHandler) GetTrial(c *fiber.Ctx) error {
	trialID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || trialID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trial id"})
	}

	trial, err := h.service.GetTrial(c.Context(), trialID)
	if err != nil {
		return mapTrialError(c, err)
	}
	return c.JSON(fiber.Map{"trial": trial})
}

func parseTrialActor(c *fiber.Ctx) (int64, int64, error) {
	actorID, err := parseActorID(c)
	if err != nil {
		return 0, 0, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	trialID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || trialID <= 0 {
		return 0, 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trial id"})
	}
	return actorID, trialID, nil
}

func mapTrialError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrTrialNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trial appointment not found"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Trial appointment is not in the required state"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process trial request"})
	}
}
