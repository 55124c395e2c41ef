package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/services"
)

type lessonApplicationService interface {
	CreateLesson(ctx context.Context, input services.CreateLessonInput) (*models.Lesson, error)
	GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID int64, payload map[string]any) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error
	ListLessons(ctx context.Context, contractID int64) ([]models.Lesson, error)
}

type LessonHandler struct {
	service lessonApplicationService
}

func NewLessonHandler(service *services.LessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

type createLessonRequest struct {
	ContractID   int64   `json:"contract_id"`
	LessonNumber int     `json:"lesson_number"`
	Date         *string `json:"date"`
	IsAvailable  *bool   `json:"is_available"`
	Comment      *string `json:"comment"`
}

func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	if err := requireInstructor(c); err != nil {
		return err
	}

	var req createLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var date *time.Time
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.Date))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a YYYY-MM-DD string"})
		}
		date = &parsed
	}

	// New lessons default to available unless the caller says otherwise.
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	lesson, err := h.service.CreateLesson(c.Context(), services.CreateLessonInput{
		ContractID:   req.ContractID,
		LessonNumber: req.LessonNumber,
		Date:         date,
		IsAvailable:  available,
		Comment:      req.Comment,
	})
	if err != nil {
		return mapLessonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	if err := requireInstructor(c); err != nil {
		return err
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.service.GetLesson(c.Context(), lessonID)
	if err != nil {
		return mapLessonError(c, err)
	}
	return c.JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	if err := requireInstructor(c); err != nil {
		return err
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	lesson, err := h.service.UpdateLesson(c.Context(), lessonID, payload)
	if err != nil {
		return mapLessonError(c, err)
	}
	return c.JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	if err := requireInstructor(c); err != nil {
		return err
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	if err := h.service.DeleteLesson(c.Context(), lessonID); err != nil {
		return mapLessonError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	if err := requireInstructor(c); err != nil {
		return err
	}

	contractID, err := strconv.ParseInt(c.Query("contract_id"), 10, 64)
	if err != nil || contractID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "contract_id query parameter is required"})
	}

	lessons, err := h.service.ListLessons(c.Context(), contractID)
	if err != nil {
		return mapLessonError(c, err)
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

func requireInstructor(c *fiber.Ctx) error {
	role := actorRole(c)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return nil
}

func mapLessonError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrLessonNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	case errors.Is(err, services.ErrContractNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
	case errors.Is(err, services.ErrIntegrity):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process lesson request"})
	}
}
