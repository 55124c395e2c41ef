package services

import (
	"testing"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

func testTeachers() []models.User {
	return []models.User{
		{ID: 1, Name: "Frau Keller", Role: models.RoleTeacher},
		{ID: 2, Name: "Herr Wagner", Role: models.RoleTeacher},
		{ID: 3, Name: "Frau Schmidt", Role: models.RoleTeacher},
	}
}

func TestExcludeUsers(t *testing.T) {
	result := excludeUsers(testTeachers(), 2)
	if len(result) != 2 {
		t.Fatalf("expected 2 teachers after exclusion, got %d", len(result))
	}
	for _, user := range result {
		if user.ID == 2 {
			t.Fatal("excluded teacher still present")
		}
	}

	all := excludeUsers(testTeachers())
	if len(all) != 3 {
		t.Fatalf("no exclusions should return everyone, got %d", len(all))
	}

	none := excludeUsers(testTeachers(), 1, 2, 3)
	if len(none) != 0 {
		t.Fatalf("excluding everyone should return an empty list, got %d", len(none))
	}
}

func TestOpenBroadcastExclusions(t *testing.T) {
	teacher := &models.User{ID: 4, Role: models.RoleTeacher}
	if got := openBroadcastExclusions(teacher); len(got) != 1 || got[0] != 4 {
		t.Fatalf("teacher creator must be excluded from their own broadcast, got %v", got)
	}

	admin := &models.User{ID: 9, Role: models.RoleAdmin}
	if got := openBroadcastExclusions(admin); got != nil {
		t.Fatalf("admin creator must not suppress any teacher, got %v", got)
	}
}
