package eligibility

import (
	"github.com/MikeSquared-Agency/taskmatch/internal/rules"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

func keep(members []*store.Member, pred func(*store.Member) bool) []*store.Member {
	out := make([]*store.Member, 0, len(members))
	for _, m := range members {
		if m != nil && pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// ByRole keeps members whose role is "user".
func ByRole(members []*store.Member) []*store.Member {
	return keep(members, func(m *store.Member) bool {
		return m.Role == store.RoleUser
	})
}

// ByAvailability keeps lightly loaded members or members with spare availability.
func ByAvailability(members []*store.Member, th Thresholds) []*store.Member {
	return keep(members, func(m *store.Member) bool {
		p := m.Resolve()
		return p.Workload < th.MaxWorkloadHours || p.Availability > th.MinAvailability
	})
}

// BySkill keeps members holding a proficient skill for the task type.
func BySkill(members []*store.Member, r rules.Rules, taskType string) []*store.Member {
	return keep(members, func(m *store.Member) bool {
		return r.CoversTaskType(m, taskType)
	})
}

// ByExperience keeps members whose complexity band contains the task's complexity.
func ByExperience(members []*store.Member, r rules.Rules, complexity *int) []*store.Member {
	return keep(members, func(m *store.Member) bool {
		return r.FitsComplexity(m, complexity)
	})
}
