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

type pricingApplicationService interface {
	VariantsForStudent(ctx context.Context, studentID *int64) ([]models.ContractVariant, error)
	CreateStudent(ctx context.Context, input services.CreateStudentInput) (*models.Student, error)
	RecomputePriceVersions(ctx context.Context, cutoff time.Time) (*services.PriceVersionRecompute, error)
}

type PricingHandler struct {
	service pricingApplicationService
}

func NewPricingHandler(service *services.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

func (h *PricingHandler) GetVariants(c *fiber.Ctx) error {
	var studentID *int64
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student id"})
		}
		studentID = &parsed
	}

	variants, err := h.service.VariantsForStudent(c.Context(), studentID)
	if err != nil {
		return mapPricingError(c, err)
	}
	return c.JSON(fiber.Map{"variants": variants})
}

type createStudentRequest struct {
	Name         string `json:"name" validate:"required,min=2"`
	TeacherID    *int64 `json:"teacher_id"`
	PriceVersion *int   `json:"price_version" validate:"omitempty,oneof=1 2"`
}

func (h *PricingHandler) CreateStudent(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required and price_version must be 1 or 2"})
	}

	student, err := h.service.CreateStudent(c.Context(), services.CreateStudentInput{
		Name:         req.Name,
		TeacherID:    req.TeacherID,
		PriceVersion: req.PriceVersion,
	})
	if err != nil {
		return mapPricingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"student": student})
}

type recomputePriceVersionRequest struct {
	CutoffDate string `json:"cutoff_date" validate:"required,datetime=2006-01-02"`
}

func (h *PricingHandler) RecomputePriceVersions(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req recomputePriceVersionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cutoff_date must be a YYYY-MM-DD string"})
	}

	cutoff, err := time.Parse("2006-01-02", req.CutoffDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cutoff_date must be a YYYY-MM-DD string"})
	}

	summary, err := h.service.RecomputePriceVersions(c.Context(), cutoff)
	if err != nil {
		return mapPricingError(c, err)
	}
	return c.JSON(summary)
}

func mapPricingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	case errors.Is(err, services.ErrIntegrity):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process pricing request"})
	}
}
