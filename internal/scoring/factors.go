package scoring

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/taskmatch/internal/rules"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

// FactorResult captures one sub-score's contribution to the total.
// Score is the raw 0 to 100 sub-score before weighting.
type FactorResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
}

// TaskContext bundles all inputs needed to score a single member and task.
type TaskContext struct {
	Task            *store.Task
	Member          *store.Member
	ProjectDeadline *time.Time
	Now             time.Time
}

var experienceBase = map[string]float64{
	store.LevelIntern:   30,
	store.LevelJunior:   50,
	store.LevelMidLevel: 70,
	store.LevelSenior:   85,
	store.LevelExpert:   95,
	store.LevelLead:     100,
}

// unknown experience levels score like mid-level
const defaultExperienceBase = 70

// --- Individual factor calculators ---

// SkillFit scores how well the member's skills cover the task type and their
// own required skills. It is a pure function of its arguments.
func SkillFit(r rules.Rules, m *store.Member, taskType string) (float64, string) {
	if len(m.Skills) == 0 {
		return 30, "no skills"
	}

	var reqSum float64
	var reqCount int
	for _, req := range m.RequiredSkills {
		held, ok := m.HasSkill(req.Skill.ID)
		if !ok {
			continue
		}
		var s float64
		switch diff := held.ProficiencyLevel - req.MinimumLevel; {
		case diff >= 2:
			s = 100
		case diff == 1:
			s = 80
		case diff == 0:
			s = 60
		default:
			s = 30
		}
		if r.MatchesTaskType(held.Skill.Name, taskType) {
			s += 20
		}
		reqSum += s
		reqCount++
	}

	var typeSum float64
	var typeCount int
	for _, s := range m.Skills {
		if r.MatchesTaskType(s.Skill.Name, taskType) {
			typeSum += float64(s.ProficiencyLevel) * 20
			typeCount++
		}
	}

	switch {
	case reqCount > 0 && typeCount > 0:
		reqAvg := reqSum / float64(reqCount)
		typeAvg := typeSum / float64(typeCount)
		return clamp(0.6*reqAvg+0.4*typeAvg, 0, 100), "required and task-type skills"
	case reqCount > 0:
		return clamp(0.8*(reqSum/float64(reqCount)), 0, 100), "required skills only"
	case typeCount > 0:
		return clamp(0.7*(typeSum/float64(typeCount)), 0, 100), "task-type skills only"
	default:
		return 20, "no relevant skills"
	}
}

// SkillFitFactor wraps SkillFit as a FactorResult.
func SkillFitFactor(r rules.Rules, tc *TaskContext) FactorResult {
	score, reason := SkillFit(r, tc.Member, tc.Task.TaskType)
	return FactorResult{Name: "skill", Score: score, Reason: reason}
}

// ExperienceFitFactor starts from the level's base score and adjusts for
// task type and complexity.
func ExperienceFitFactor(tc *TaskContext) FactorResult {
	level := tc.Member.Resolve().ExperienceLevel
	score, ok := experienceBase[level]
	if !ok {
		score = defaultExperienceBase
	}
	novice := level == store.LevelIntern || level == store.LevelJunior

	switch tc.Task.TaskType {
	case store.TaskTypeDevelopment, store.TaskTypeBugFix:
		if novice {
			score -= 10
		}
	case store.TaskTypeDocumentation:
		score += 5
	case store.TaskTypeMaintenance:
		if novice {
			score -= 15
		}
	case store.TaskTypeDesign:
		if level == store.LevelIntern {
			score -= 10
		}
	}

	if c := tc.Task.Complexity; c != nil {
		switch {
		case *c >= 8:
			switch level {
			case store.LevelIntern:
				score -= 30
			case store.LevelJunior:
				score -= 20
			case store.LevelMidLevel:
				score -= 10
			case store.LevelSenior, store.LevelExpert, store.LevelLead:
				score += 10
			}
		case *c >= 5:
			switch level {
			case store.LevelIntern:
				score -= 20
			case store.LevelJunior:
				score -= 10
			}
		default:
			if novice {
				score += 10
			}
		}
	}

	return FactorResult{Name: "experience", Score: clamp(score, 0, 100), Reason: level}
}

// WorkloadFitFactor averages stated availability with remaining capacity.
func WorkloadFitFactor(tc *TaskContext, maxWorkloadHours float64) FactorResult {
	p := tc.Member.Resolve()
	capacity := 100.0
	if maxWorkloadHours > 0 {
		capacity = math.Max(0, 100-(p.Workload/maxWorkloadHours)*100)
	}
	score := (p.Availability + capacity) / 2
	return FactorResult{Name: "workload", Score: clamp(score, 0, 100), Reason: "availability and capacity"}
}

// PerformanceFitFactor maps the 1 to 5 rating onto 0 to 100.
func PerformanceFitFactor(tc *TaskContext) FactorResult {
	rating := tc.Member.Resolve().PerformanceRating
	reason := "from rating"
	if tc.Member.PerformanceRating == nil {
		reason = "default rating"
	}
	return FactorResult{Name: "performance", Score: clamp(rating*20, 0, 100), Reason: reason}
}

// UrgencyFitFactor scores how pressing the task's due date is.
//
// When both the task due date and the project deadline are set and the task is
// neither overdue nor past the deadline, the remaining/total ratio compares
// dueDate-now with itself and the score is always 0.
func UrgencyFitFactor(tc *TaskContext) FactorResult {
	due := tc.Task.DueDate
	if due == nil {
		return FactorResult{Name: "urgency", Score: 50, Reason: "no due date"}
	}
	now := tc.Now
	if due.Before(now) {
		return FactorResult{Name: "urgency", Score: 100, Reason: "overdue"}
	}

	if tc.ProjectDeadline == nil {
		days := daysUntil(now, *due)
		score := math.Max(20, 100-float64(days)*5)
		return FactorResult{Name: "urgency", Score: clamp(score, 0, 100), Reason: "days remaining"}
	}

	if due.After(*tc.ProjectDeadline) {
		return FactorResult{Name: "urgency", Score: 30, Reason: "due after project deadline"}
	}

	remaining := due.Sub(now)
	total := due.Sub(now)
	ratio := 1.0
	if total > 0 {
		ratio = float64(remaining) / float64(total)
	}
	return FactorResult{Name: "urgency", Score: clamp(100-ratio*100, 0, 100), Reason: "relative to project timeline"}
}

// daysUntil returns the whole days from now until t, rounded up.
func daysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
