package scoring

import "github.com/google/uuid"

// frontierFactors are the member-dependent factors compared for dominance.
// Urgency is the same for every candidate of a task and is left out.
var frontierFactors = []string{"skill", "experience", "workload", "performance"}

// Frontier returns the IDs of candidates not dominated on the per-factor
// scores. A candidate is dominated if another is >= on every factor and
// strictly better on at least one. O(n^2), fine for project-sized sets.
func Frontier(results []ScoringResult) map[uuid.UUID]bool {
	vecs := make([][]float64, len(results))
	for i, r := range results {
		vecs[i] = factorVector(r)
	}

	out := make(map[uuid.UUID]bool, len(results))
	for i := range results {
		dominated := false
		for j := range results {
			if i != j && dominates(vecs[j], vecs[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			out[results[i].MemberID] = true
		}
	}
	return out
}

func factorVector(r ScoringResult) []float64 {
	byName := make(map[string]float64, len(r.Factors))
	for _, f := range r.Factors {
		byName[f.Name] = f.Score
	}
	v := make([]float64, len(frontierFactors))
	for i, name := range frontierFactors {
		v[i] = byName[name]
	}
	return v
}

func dominates(a, b []float64) bool {
	strictly := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strictly = true
		}
	}
	return strictly
}
