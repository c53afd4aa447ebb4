package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskmatch/internal/rules"
)

// Adjustment is a flat penalty or bonus applied after weighting.
type Adjustment struct {
	Name   string  `json:"name"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// ScoringResult captures the complete scoring output for a single member and task.
type ScoringResult struct {
	MemberID    uuid.UUID      `json:"member_id"`
	TotalScore  float64        `json:"total_score"`
	RawScore    float64        `json:"raw_score"` // before clamping to [0, 100]
	Factors     []FactorResult `json:"factors"`
	Adjustments []Adjustment   `json:"adjustments,omitempty"`
}

var errIncompleteContext = errors.New("scoring context requires task and member")

// Scorer orchestrates the five-factor weighted additive scoring function.
type Scorer struct {
	weights WeightSet
	params  Params
	rules   rules.Rules
	logger  *slog.Logger
}

// NewScorer creates a Scorer with the given weights, constants and shared rules.
func NewScorer(weights WeightSet, params Params, r rules.Rules, logger *slog.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		params:  params,
		rules:   r,
		logger:  logger,
	}
}

// ScoreCandidate computes the full scoring result for one member and task.
// TotalScore is always within [0, 100].
func (s *Scorer) ScoreCandidate(tc *TaskContext) (ScoringResult, error) {
	if tc == nil || tc.Task == nil || tc.Member == nil {
		return ScoringResult{}, errIncompleteContext
	}
	result := ScoringResult{MemberID: tc.Member.ID}

	factors := []FactorResult{
		SkillFitFactor(s.rules, tc),
		ExperienceFitFactor(tc),
		WorkloadFitFactor(tc, s.params.MaxWorkloadHours),
		PerformanceFitFactor(tc),
		UrgencyFitFactor(tc),
	}

	performanceWeight := s.weights.Performance
	if c := tc.Task.Complexity; c != nil && *c >= s.params.HighComplexityThreshold {
		performanceWeight = s.weights.HighComplexityPerformance
	}
	weights := []float64{
		s.weights.Skill,
		s.weights.Experience,
		s.weights.Workload,
		performanceWeight,
		s.weights.Urgency,
	}

	total := s.params.BaseScore
	for i := range factors {
		factors[i].Weight = weights[i]
		factors[i].Weighted = factors[i].Score * weights[i]
		total += factors[i].Weighted
	}

	for _, adj := range s.adjustments(tc) {
		total += adj.Delta
		result.Adjustments = append(result.Adjustments, adj)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return ScoringResult{}, fmt.Errorf("non-finite score for member %s", tc.Member.ID)
	}

	result.Factors = factors
	result.RawScore = total
	result.TotalScore = clamp(total, 0, 100)

	s.logger.Debug("scored candidate",
		"member_id", tc.Member.ID,
		"task_id", tc.Task.ID,
		"raw", result.RawScore,
		"total", result.TotalScore,
	)
	return result, nil
}

// adjustments re-checks the soft eligibility predicates, which may have been
// bypassed by a fallback, and rewards strong performers on tasks due soon.
func (s *Scorer) adjustments(tc *TaskContext) []Adjustment {
	var out []Adjustment
	if !s.rules.CoversTaskType(tc.Member, tc.Task.TaskType) {
		out = append(out, Adjustment{Name: "skill_mismatch", Delta: -s.params.SkillMismatchPenalty, Reason: "no proficient skill for task type"})
	}
	if !s.rules.FitsComplexity(tc.Member, tc.Task.Complexity) {
		out = append(out, Adjustment{Name: "experience_mismatch", Delta: -s.params.ExperienceMismatchPenalty, Reason: "complexity outside experience band"})
	}
	if due := tc.Task.DueDate; due != nil && daysUntil(tc.Now, *due) <= s.params.DueSoonDays &&
		tc.Member.Resolve().PerformanceRating >= s.params.DueSoonMinRating {
		out = append(out, Adjustment{Name: "due_soon_performer", Delta: s.params.DueSoonBonus, Reason: "high performer on a task due soon"})
	}
	return out
}
