package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

func intPtr(v int) *int { return &v }

func memberWith(level string, skills ...store.MemberSkill) *store.Member {
	return &store.Member{ExperienceLevel: level, Skills: skills}
}

func skill(name string, level int) store.MemberSkill {
	return store.MemberSkill{Skill: store.Skill{Name: name}, ProficiencyLevel: level}
}

func TestDefaultRulesValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadBand(t *testing.T) {
	r := Default()
	r.ComplexityBands["intern"] = Band{Min: 4, Max: 2}
	assert.Error(t, r.Validate())

	r = Default()
	r.DefaultBand = Band{Min: 0, Max: 7}
	assert.Error(t, r.Validate())
}

func TestKeywordsLookup(t *testing.T) {
	r := Default()
	assert.Contains(t, r.Keywords("development"), "React")
	assert.Contains(t, r.Keywords("JAVA"), "Spring")
	assert.Empty(t, r.Keywords("java"))
	assert.Empty(t, r.Keywords("Development"))
	assert.Empty(t, r.Keywords("other"))
	assert.Empty(t, r.Keywords("research"))
	assert.Empty(t, r.Keywords(""))
}

func TestMatchesTaskTypeSubstring(t *testing.T) {
	r := Default()
	assert.True(t, r.MatchesTaskType("react native", "development"))
	assert.True(t, r.MatchesTaskType("REST API design", "development"))
	assert.True(t, r.MatchesTaskType("Figma", "design"))
	assert.False(t, r.MatchesTaskType("Figma", "development"))
	// "Java" keyword matches "JavaScript" as a substring.
	assert.True(t, r.MatchesTaskType("JavaScript", "JAVA"))
}

func TestCoversTaskType(t *testing.T) {
	r := Default()

	tests := []struct {
		name     string
		member   *store.Member
		taskType string
		want     bool
	}{
		{"proficient match", memberWith("", skill("React", 3)), "development", true},
		{"match below proficiency", memberWith("", skill("React", 2)), "development", false},
		{"no matching skill", memberWith("", skill("Figma", 5)), "development", false},
		{"no skills", memberWith(""), "testing", false},
		{"empty keyword list", memberWith(""), "other", true},
		{"unset task type", memberWith(""), "", true},
		{"free-form task type", memberWith(""), "research", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CoversTaskType(tt.member, tt.taskType))
		})
	}
}

func TestFitsComplexity(t *testing.T) {
	r := Default()

	tests := []struct {
		level      string
		complexity *int
		want       bool
	}{
		{"intern", intPtr(3), true},
		{"intern", intPtr(4), false},
		{"junior", intPtr(5), true},
		{"junior", intPtr(6), false},
		{"mid-level", intPtr(7), true},
		{"mid-level", intPtr(8), false},
		{"senior", intPtr(9), true},
		{"senior", intPtr(10), false},
		{"expert", intPtr(10), true},
		{"lead", intPtr(10), true},
		{"", intPtr(7), true},
		{"wizard", intPtr(8), false},
		{"intern", nil, true},
	}
	for _, tt := range tests {
		name := tt.level
		if name == "" {
			name = "unset"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.FitsComplexity(memberWith(tt.level), tt.complexity))
		})
	}
}
