package store

import (
	"testing"

	"github.com/google/uuid"
)

func float64Ptr(v float64) *float64 { return &v }

func TestTaskStatusValues(t *testing.T) {
	statuses := []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusCompleted}
	expected := []string{"todo", "in_progress", "review", "completed"}
	for i, s := range statuses {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
	}
}

func TestResolveDefaults(t *testing.T) {
	m := &Member{}
	p := m.Resolve()
	if p.Workload != 0 {
		t.Errorf("expected workload 0, got %f", p.Workload)
	}
	if p.Availability != 100 {
		t.Errorf("expected availability 100, got %f", p.Availability)
	}
	if p.ExperienceLevel != LevelMidLevel {
		t.Errorf("expected mid-level, got %s", p.ExperienceLevel)
	}
	if p.PerformanceRating != 3 {
		t.Errorf("expected rating 3, got %f", p.PerformanceRating)
	}
}

func TestResolveKeepsExplicitZero(t *testing.T) {
	m := &Member{
		Workload:          float64Ptr(0),
		Availability:      float64Ptr(0),
		PerformanceRating: float64Ptr(0),
	}
	p := m.Resolve()
	if p.Availability != 0 {
		t.Errorf("explicit availability 0 must not default, got %f", p.Availability)
	}
	if p.PerformanceRating != 0 {
		t.Errorf("explicit rating 0 must not default, got %f", p.PerformanceRating)
	}
}

func TestEstimatedHoursOrDefault(t *testing.T) {
	task := &Task{}
	if got := task.EstimatedHoursOrDefault(); got != 8 {
		t.Errorf("expected default 8, got %f", got)
	}
	task.EstimatedHours = float64Ptr(3.5)
	if got := task.EstimatedHoursOrDefault(); got != 3.5 {
		t.Errorf("expected 3.5, got %f", got)
	}
}

func TestHasSkillAndSummary(t *testing.T) {
	react := Skill{ID: uuid.New(), Name: "React"}
	m := &Member{
		ID:        uuid.New(),
		Username:  "jdoe",
		FirstName: "Jo",
		LastName:  "Doe",
		Skills:    []MemberSkill{{Skill: react, ProficiencyLevel: 4}},
	}

	ms, ok := m.HasSkill(react.ID)
	if !ok || ms.ProficiencyLevel != 4 {
		t.Errorf("expected React at level 4, got %+v (found=%v)", ms, ok)
	}
	if _, ok := m.HasSkill(uuid.New()); ok {
		t.Error("expected unknown skill to be absent")
	}

	s := m.Summary()
	if s.ID != m.ID || s.Username != "jdoe" || s.FirstName != "Jo" || s.LastName != "Doe" {
		t.Errorf("unexpected summary %+v", s)
	}
}
