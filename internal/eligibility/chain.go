// Package eligibility narrows a project's members down to those who may take a task.
//
// Stages run in a fixed order: role, dependency readiness, availability,
// task-type skill, experience. Role and availability are hard: an empty result
// aborts. Skill and experience are soft: an empty result falls back to the
// stage's input. Every stage returns a new slice and never mutates its input.
package eligibility

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskmatch/internal/assignerr"
	"github.com/MikeSquared-Agency/taskmatch/internal/rules"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

// TaskLoader fetches predecessor tasks for the dependency check.
type TaskLoader interface {
	LoadTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]*store.Task, error)
}

type Thresholds struct {
	// Members are available when workload < MaxWorkloadHours or availability > MinAvailability.
	MaxWorkloadHours float64
	MinAvailability  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{MaxWorkloadHours: 40, MinAvailability: 30}
}

// StageResult records what one stage did.
type StageResult struct {
	Stage    string `json:"stage"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Fallback bool   `json:"fallback"`
}

type Result struct {
	Members []*store.Member `json:"-"`
	Stages  []StageResult   `json:"stages"`
}

type Chain struct {
	rules      rules.Rules
	thresholds Thresholds
	tasks      TaskLoader
	logger     *slog.Logger
}

func NewChain(r rules.Rules, th Thresholds, tasks TaskLoader, logger *slog.Logger) *Chain {
	return &Chain{rules: r, thresholds: th, tasks: tasks, logger: logger}
}

// Run applies every stage to candidates. The returned set is never empty when err is nil.
func (c *Chain) Run(ctx context.Context, task *store.Task, candidates []*store.Member) (*Result, error) {
	res := &Result{}
	record := func(stage string, before, after int, fallback bool) {
		res.Stages = append(res.Stages, StageResult{Stage: stage, Before: before, After: after, Fallback: fallback})
		c.logger.Debug("eligibility stage", "task_id", task.ID, "stage", stage,
			"before", before, "after", after, "fallback", fallback)
	}

	members := ByRole(candidates)
	record("role", len(candidates), len(members), false)
	if len(members) == 0 {
		return nil, assignerr.NoEligibleMembers(assignerr.ReasonRole)
	}

	if err := c.checkDependencies(ctx, task); err != nil {
		return nil, err
	}
	record("dependencies", len(members), len(members), false)

	available := ByAvailability(members, c.thresholds)
	record("availability", len(members), len(available), false)
	if len(available) == 0 {
		return nil, assignerr.NoEligibleMembers(assignerr.ReasonAvailability)
	}
	members = available

	skilled := BySkill(members, c.rules, task.TaskType)
	fallback := len(skilled) == 0
	record("skill", len(members), len(skilled), fallback)
	if !fallback {
		members = skilled
	}

	experienced := ByExperience(members, c.rules, task.Complexity)
	fallback = len(experienced) == 0
	record("experience", len(members), len(experienced), fallback)
	if !fallback {
		members = experienced
	}

	if len(members) == 0 {
		return nil, assignerr.NoEligibleMembers(assignerr.ReasonExhausted)
	}
	res.Members = members
	return res, nil
}

// checkDependencies fails closed: a lookup error or a missing predecessor
// counts as not completed.
func (c *Chain) checkDependencies(ctx context.Context, task *store.Task) error {
	if len(task.Dependencies) == 0 {
		return nil
	}

	deps, err := c.tasks.LoadTasksByIDs(ctx, task.Dependencies)
	if err != nil {
		c.logger.Warn("dependency lookup failed", "task_id", task.ID, "error", err)
		return assignerr.DependenciesNotComplete(task.Dependencies, err)
	}

	completed := make(map[uuid.UUID]bool, len(deps))
	for _, d := range deps {
		if d != nil && d.Status == store.StatusCompleted {
			completed[d.ID] = true
		}
	}
	var pending []uuid.UUID
	for _, id := range task.Dependencies {
		if !completed[id] {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		return assignerr.DependenciesNotComplete(pending, nil)
	}
	return nil
}
