package hermes

const (
	SubjectAssignRequest = "taskmatch.assign.request"

	StreamName   = "TASKMATCH_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectTaskAutoAssigned(taskID string) string { return "taskmatch.task." + taskID + ".auto_assigned" }
func SubjectTaskUnmatched(taskID string) string    { return "taskmatch.task." + taskID + ".unmatched" }
func SubjectMemberWorkload(memberID string) string { return "taskmatch.member." + memberID + ".workload" }
