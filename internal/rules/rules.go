// Package rules holds the task-type skill keywords and experience complexity
// bands shared by the eligibility chain and the scorer.
package rules

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

// Band is an inclusive complexity range.
type Band struct {
	Min int
	Max int
}

func (b Band) Contains(complexity int) bool {
	return complexity >= b.Min && complexity <= b.Max
}

type Rules struct {
	// TaskTypeSkills maps a task type to the keywords matched, case-insensitively,
	// as substrings of a member's skill names.
	TaskTypeSkills map[string][]string
	// ComplexityBands maps an experience level to the task complexity it may take.
	ComplexityBands map[string]Band
	// DefaultBand applies to experience levels missing from ComplexityBands.
	DefaultBand Band
	// MinProficiency is the proficiency a keyword-matching skill needs to count
	// as covering the task type.
	MinProficiency int
}

// Default returns the built-in tables.
func Default() Rules {
	return Rules{
		TaskTypeSkills: map[string][]string{
			store.TaskTypeDevelopment:   {"JavaScript", "React", "Node.js", "MongoDB", "Express", "TypeScript", "API", "Backend", "Frontend"},
			store.TaskTypeDesign:        {"UI/UX Design", "Figma", "Adobe XD", "CSS", "HTML", "Design", "Photoshop", "Illustrator"},
			store.TaskTypeTesting:       {"Testing", "QA", "Jest", "Cypress", "Selenium", "Test unitaire", "Test d'intégration"},
			store.TaskTypeDocumentation: {"Documentation", "Markdown", "Technical Writing", "UML", "Diagramme"},
			store.TaskTypeBugFix:        {"Debugging", "Testing", "JavaScript", "React", "Node.js", "Backend", "Frontend"},
			store.TaskTypeFeature:       {"JavaScript", "React", "Node.js", "MongoDB", "Express", "Frontend", "Backend"},
			store.TaskTypeMaintenance:   {"DevOps", "CI/CD", "Docker", "Kubernetes", "AWS", "Azure", "Git"},
			"JAVA":                      {"Java", "Spring", "Hibernate", "JPA", "Maven", "JUnit"},
			store.TaskTypeOther:         {},
		},
		ComplexityBands: map[string]Band{
			store.LevelIntern:   {Min: 1, Max: 3},
			store.LevelJunior:   {Min: 1, Max: 5},
			store.LevelMidLevel: {Min: 1, Max: 7},
			store.LevelSenior:   {Min: 1, Max: 9},
			store.LevelExpert:   {Min: 1, Max: 10},
			store.LevelLead:     {Min: 1, Max: 10},
		},
		DefaultBand:    Band{Min: 1, Max: 7},
		MinProficiency: 3,
	}
}

// Validate checks that every band is a non-empty range within 1..10.
func (r Rules) Validate() error {
	check := func(name string, b Band) error {
		if b.Min < 1 || b.Max > 10 || b.Min > b.Max {
			return fmt.Errorf("complexity band %s [%d, %d] must satisfy 1 <= min <= max <= 10", name, b.Min, b.Max)
		}
		return nil
	}
	for level, b := range r.ComplexityBands {
		if err := check(level, b); err != nil {
			return err
		}
	}
	if err := check("default", r.DefaultBand); err != nil {
		return err
	}
	if r.MinProficiency < 1 || r.MinProficiency > 5 {
		return fmt.Errorf("min proficiency %d outside 1..5", r.MinProficiency)
	}
	return nil
}

// Keywords returns the keywords for taskType. Keys match exactly, the same
// way the experience adjustments match task types; unknown task types have
// no keywords.
func (r Rules) Keywords(taskType string) []string {
	return r.TaskTypeSkills[taskType]
}

// MatchesTaskType reports whether skillName contains one of the task type's keywords.
func (r Rules) MatchesTaskType(skillName, taskType string) bool {
	return matchesAny(skillName, r.Keywords(taskType))
}

// Band returns the complexity band for an experience level.
func (r Rules) Band(level string) Band {
	if b, ok := r.ComplexityBands[level]; ok {
		return b
	}
	return r.DefaultBand
}

// CoversTaskType reports whether the member holds a skill matching the task
// type at MinProficiency or above. Task types without keywords are covered by everyone.
func (r Rules) CoversTaskType(m *store.Member, taskType string) bool {
	keywords := r.Keywords(taskType)
	if len(keywords) == 0 {
		return true
	}
	for _, s := range m.Skills {
		if s.ProficiencyLevel >= r.MinProficiency && matchesAny(s.Skill.Name, keywords) {
			return true
		}
	}
	return false
}

// FitsComplexity reports whether complexity lies in the member's band. A nil
// complexity fits everyone.
func (r Rules) FitsComplexity(m *store.Member, complexity *int) bool {
	if complexity == nil {
		return true
	}
	return r.Band(m.Resolve().ExperienceLevel).Contains(*complexity)
}

func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
