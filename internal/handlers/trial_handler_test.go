package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/services"
)

type stubTrialService struct {
	trial           *models.TrialAppointment
	err             error
	lastActorID     int64
	lastTrialID     int64
	lastTeacherID   int64
	lastStudentName string
}

func (s *stubTrialService) CreateTrial(_ context.Context, actorID int64, studentName string) (*models.TrialAppointment, error) {
	s.lastActorID = actorID
	s.lastStudentName = studentName
	return s.trial, s.err
}

func (s *stubTrialService) Assign(_ context.Context, actorID, trialID, teacherID int64) (*models.TrialAppointment, error) {
	s.lastActorID = actorID
	s.lastTrialID = trialID
	s.lastTeacherID = teacherID
	return s.trial, s.err
}

func (s *stubTrialService) Decline(_ context.Context, actorID, trialID int64) (*models.TrialAppointment, error) {
	s.lastActorID = actorID
	s.lastTrialID = trialID
	return s.trial, s.err
}

func (s *stubTrialService) Accept(_ context.Context, actorID, trialID int64) (*models.TrialAppointment, error) {
	s.lastActorID = actorID
	s.lastTrialID = trialID
	return s.trial, s.err
}

func (s *stubTrialService) GetTrial(_ context.Context, trialID int64) (*models.TrialAppointment, error) {
	s.lastTrialID = trialID
	return s.trial, s.err
}

func newTrialTestApp(handler *TrialHandler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "teacher")
		c.Locals("user_id", "7")
		return c.Next()
	})
	app.Post("/api/v1/trials", handler.CreateTrial)
	app.Post("/api/v1/trials/:id/assign", handler.Assign)
	app.Post("/api/v1/trials/:id/decline", handler.Decline)
	app.Post("/api/v1/trials/:id/accept", handler.Accept)
	return app
}

func TestCreateTrialReturnsCreated(t *testing.T) {
	service := &stubTrialService{
		trial: &models.TrialAppointment{ID: 3, Status: models.TrialStatusOpen, StudentName: "Paul Richter"},
	}
	handler := &TrialHandler{service: service}
	app := newTrialTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials", strings.NewReader(`{"student_name": "Paul Richter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 7 {
		t.Fatalf("expected actor 7, got %d", service.lastActorID)
	}
	if service.lastStudentName != "Paul Richter" {
		t.Fatalf("student name not forwarded, got %q", service.lastStudentName)
	}
}

func TestCreateTrialValidatesStudentName(t *testing.T) {
	handler := &TrialHandler{service: &stubTrialService{}}
	app := newTrialTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials", strings.NewReader(`{"student_name": "x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short name, got %d", resp.StatusCode)
	}
}

func TestAssignTrialForwardsTeacher(t *testing.T) {
	service := &stubTrialService{
		trial: &models.TrialAppointment{ID: 3, Status: models.TrialStatusAssigned},
	}
	handler := &TrialHandler{service: service}
	app := newTrialTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/3/assign", strings.NewReader(`{"teacher_id": 7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastTrialID != 3 || service.lastTeacherID != 7 {
		t.Fatalf("ids not forwarded: trial %d teacher %d", service.lastTrialID, service.lastTeacherID)
	}
}

func TestTrialErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"state conflict", services.ErrInvalidStateTransition, http.StatusUnprocessableEntity},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"not found", services.ErrTrialNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &TrialHandler{service: &stubTrialService{err: tc.err}}
			app := newTrialTestApp(handler)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/3/accept", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}
