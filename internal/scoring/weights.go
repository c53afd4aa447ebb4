package scoring

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each sub-score.
// The five regular weights must sum to 1.0 (±0.001 tolerance).
type WeightSet struct {
	Skill       float64
	Experience  float64
	Workload    float64
	Performance float64
	Urgency     float64

	// HighComplexityPerformance replaces Performance for tasks at or above
	// Params.HighComplexityThreshold.
	HighComplexityPerformance float64
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		Skill:                     0.35,
		Experience:                0.20,
		Workload:                  0.20,
		Performance:               0.15,
		Urgency:                   0.10,
		HighComplexityPerformance: 0.20,
	}
}

// Sum returns the total of the regular weights.
func (w WeightSet) Sum() float64 {
	return w.Skill + w.Experience + w.Workload + w.Performance + w.Urgency
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	if w.HighComplexityPerformance > 1 {
		return fmt.Errorf("high complexity performance weight %f above 1.0", w.HighComplexityPerformance)
	}
	return nil
}

func (w WeightSet) asList() []float64 {
	return []float64{w.Skill, w.Experience, w.Workload, w.Performance, w.Urgency, w.HighComplexityPerformance}
}

// Params holds the non-weight constants of the scoring function.
type Params struct {
	BaseScore                 float64
	MaxWorkloadHours          float64
	HighComplexityThreshold   int
	SkillMismatchPenalty      float64
	ExperienceMismatchPenalty float64
	DueSoonBonus              float64
	DueSoonDays               int
	DueSoonMinRating          float64
}

func DefaultParams() Params {
	return Params{
		BaseScore:                 50,
		MaxWorkloadHours:          40,
		HighComplexityThreshold:   7,
		SkillMismatchPenalty:      20,
		ExperienceMismatchPenalty: 15,
		DueSoonBonus:              10,
		DueSoonDays:               3,
		DueSoonMinRating:          4,
	}
}
