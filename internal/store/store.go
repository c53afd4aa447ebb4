package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
)

// Task types with a keyword table entry. Free-form values are allowed.
const (
	TaskTypeDevelopment   = "development"
	TaskTypeDesign        = "design"
	TaskTypeTesting       = "testing"
	TaskTypeDocumentation = "documentation"
	TaskTypeBugFix        = "bug-fix"
	TaskTypeFeature       = "feature"
	TaskTypeMaintenance   = "maintenance"
	TaskTypeOther         = "other"
)

// Experience levels, lowest to highest.
const (
	LevelIntern   = "intern"
	LevelJunior   = "junior"
	LevelMidLevel = "mid-level"
	LevelSenior   = "senior"
	LevelExpert   = "expert"
	LevelLead     = "lead"
)

const RoleUser = "user"

// Defaults applied when a member or task leaves the field unset.
const (
	DefaultWorkload          = 0.0
	DefaultAvailability      = 100.0
	DefaultExperienceLevel   = LevelMidLevel
	DefaultPerformanceRating = 3.0
	DefaultEstimatedHours    = 8.0
)

// ErrVersionConflict is returned by SaveMember when the stored version no
// longer matches the version the caller read.
var ErrVersionConflict = errors.New("member version conflict")

type Task struct {
	ID           uuid.UUID   `json:"id"`
	ProjectID    uuid.UUID   `json:"project_id"`
	Title        string      `json:"title"`
	TaskType     string      `json:"task_type,omitempty"`
	Status       TaskStatus  `json:"status"`
	Complexity   *int        `json:"complexity,omitempty"`
	Dependencies []uuid.UUID `json:"dependencies,omitempty"`

	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`

	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	AutoAssigned bool       `json:"auto_assigned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EstimatedHoursOrDefault returns the estimate, or DefaultEstimatedHours when unset.
func (t *Task) EstimatedHoursOrDefault() float64 {
	if t.EstimatedHours != nil {
		return *t.EstimatedHours
	}
	return DefaultEstimatedHours
}

type Project struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Deadline *time.Time      `json:"deadline,omitempty"`
	Members  []ProjectMember `json:"members"`
}

// ProjectMember links a user to a project. User is nil until populated and
// stays nil when the referenced user record no longer exists.
type ProjectMember struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	User   *Member   `json:"user,omitempty"`
}

type Skill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type MemberSkill struct {
	Skill            Skill `json:"skill"`
	ProficiencyLevel int   `json:"proficiency_level"`
}

// RequiredSkill is a skill the member is expected to hold for their domain.
type RequiredSkill struct {
	Skill        Skill `json:"skill"`
	MinimumLevel int   `json:"minimum_level"`
}

type Member struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`

	Skills         []MemberSkill   `json:"skills,omitempty"`
	RequiredSkills []RequiredSkill `json:"required_skills,omitempty"`

	// nil means unset; see Resolve.
	Workload          *float64 `json:"workload,omitempty"`
	Availability      *float64 `json:"availability,omitempty"`
	ExperienceLevel   string   `json:"experience_level,omitempty"`
	PerformanceRating *float64 `json:"performance_rating,omitempty"`

	// Version is bumped on every SaveMember and used for compare-and-swap.
	Version int64 `json:"version"`
}

// MemberProfile is a Member's numeric attributes with defaults applied.
type MemberProfile struct {
	Workload          float64
	Availability      float64
	ExperienceLevel   string
	PerformanceRating float64
}

// Resolve applies defaults to unset fields. An explicit zero is kept as zero.
func (m *Member) Resolve() MemberProfile {
	p := MemberProfile{
		Workload:          DefaultWorkload,
		Availability:      DefaultAvailability,
		ExperienceLevel:   DefaultExperienceLevel,
		PerformanceRating: DefaultPerformanceRating,
	}
	if m.Workload != nil {
		p.Workload = *m.Workload
	}
	if m.Availability != nil {
		p.Availability = *m.Availability
	}
	if m.ExperienceLevel != "" {
		p.ExperienceLevel = m.ExperienceLevel
	}
	if m.PerformanceRating != nil {
		p.PerformanceRating = *m.PerformanceRating
	}
	return p
}

// HasSkill returns the member's entry for skillID, if any.
func (m *Member) HasSkill(skillID uuid.UUID) (MemberSkill, bool) {
	for _, s := range m.Skills {
		if s.Skill.ID == skillID {
			return s, true
		}
	}
	return MemberSkill{}, false
}

// MemberSummary is the reduced projection returned to callers.
type MemberSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (m *Member) Summary() MemberSummary {
	return MemberSummary{ID: m.ID, Username: m.Username, FirstName: m.FirstName, LastName: m.LastName}
}

// Store is the data-access collaborator used by the assignment engine.
// Lookups return nil, nil when a record does not exist.
type Store interface {
	LoadProjectWithMembers(ctx context.Context, projectID uuid.UUID) (*Project, error)
	LoadUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*Member, error)
	LoadTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]*Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)

	SaveTask(ctx context.Context, task *Task) error
	// SaveMember persists the member when its Version matches the stored one,
	// then increments Version. Returns ErrVersionConflict otherwise.
	SaveMember(ctx context.Context, member *Member) error

	Close() error
}
