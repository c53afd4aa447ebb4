package hermes

import "time"

// AssignRequestEvent asks the engine to auto-assign a task.
type AssignRequestEvent struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id,omitempty"`
	Source    string `json:"source,omitempty"`
}

// FactorScore is one weighted scoring factor of an assignment.
type FactorScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

type AutoAssignedEvent struct {
	TaskID     string        `json:"task_id"`
	ProjectID  string        `json:"project_id"`
	MemberID   string        `json:"member_id"`
	Username   string        `json:"username"`
	FirstName  string        `json:"first_name,omitempty"`
	LastName   string        `json:"last_name,omitempty"`
	Score      float64       `json:"score"`
	Factors    []FactorScore `json:"factors"`
	AssignedAt time.Time     `json:"assigned_at"`
}

// UnmatchedEvent is published when an assignment attempt fails.
type UnmatchedEvent struct {
	TaskID    string   `json:"task_id"`
	ProjectID string   `json:"project_id,omitempty"`
	Kind      string   `json:"kind"`
	Reason    string   `json:"reason"`
	Pending   []string `json:"pending_dependencies,omitempty"`
}

type WorkloadChangedEvent struct {
	MemberID string  `json:"member_id"`
	Workload float64 `json:"workload"`
	Delta    float64 `json:"delta"`
	Version  int64   `json:"version"`
}
