// Package broker runs the auto-assignment pipeline: load candidates, filter,
// score, select and persist.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"github.com/MikeSquared-Agency/taskmatch/internal/assignerr"
	"github.com/MikeSquared-Agency/taskmatch/internal/config"
	"github.com/MikeSquared-Agency/taskmatch/internal/eligibility"
	"github.com/MikeSquared-Agency/taskmatch/internal/hermes"
	"github.com/MikeSquared-Agency/taskmatch/internal/lock"
	"github.com/MikeSquared-Agency/taskmatch/internal/scoring"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

type Broker struct {
	store  store.Store
	hermes hermes.Client
	locker lock.Locker
	chain  *eligibility.Chain
	scorer *scoring.Scorer
	cfg    *config.Config
	logger *slog.Logger

	now func() time.Time
}

// AssignmentResult is returned by a successful auto-assignment.
type AssignmentResult struct {
	Task    *store.Task            `json:"task"`
	Member  store.MemberSummary    `json:"member"`
	Score   float64                `json:"score"`
	Factors []scoring.FactorResult `json:"factors"`
}

// RankedCandidate is one entry of a dry-run ranking.
type RankedCandidate struct {
	Rank     int                   `json:"rank"`
	Member   store.MemberSummary   `json:"member"`
	Result   scoring.ScoringResult `json:"result"`
	Failed   bool                  `json:"failed,omitempty"`
	Frontier bool                  `json:"frontier"`
}

type Ranking struct {
	TaskID     uuid.UUID                 `json:"task_id"`
	ProjectID  uuid.UUID                 `json:"project_id"`
	Stages     []eligibility.StageResult `json:"stages"`
	Candidates []RankedCandidate         `json:"candidates"`
}

// New wires the pipeline from cfg. A nil hermes client disables event publishing.
func New(s store.Store, h hermes.Client, l lock.Locker, cfg *config.Config, logger *slog.Logger) *Broker {
	r := cfg.Rules.ToRules()
	a := cfg.Assignment
	r.MinProficiency = a.MinProficiency

	weights := scoring.WeightSet{
		Skill:                     cfg.Scoring.Weights.Skill,
		Experience:                cfg.Scoring.Weights.Experience,
		Workload:                  cfg.Scoring.Weights.Workload,
		Performance:               cfg.Scoring.Weights.Performance,
		Urgency:                   cfg.Scoring.Weights.Urgency,
		HighComplexityPerformance: cfg.Scoring.HighComplexityPerformanceWeight,
	}
	params := scoring.Params{
		BaseScore:                 a.BaseScore,
		MaxWorkloadHours:          a.MaxWorkloadHours,
		HighComplexityThreshold:   a.HighComplexityThreshold,
		SkillMismatchPenalty:      cfg.Scoring.SkillMismatchPenalty,
		ExperienceMismatchPenalty: cfg.Scoring.ExperienceMismatchPenalty,
		DueSoonBonus:              cfg.Scoring.DueSoonBonus,
		DueSoonDays:               a.DueSoonDays,
		DueSoonMinRating:          a.DueSoonMinRating,
	}
	th := eligibility.Thresholds{
		MaxWorkloadHours: a.MaxWorkloadHours,
		MinAvailability:  a.MinAvailability,
	}

	if l == nil {
		l = lock.NewKeyedMutex()
	}

	return &Broker{
		store:  s,
		hermes: h,
		locker: l,
		chain:  eligibility.NewChain(r, th, s, logger),
		scorer: scoring.NewScorer(weights, params, r, logger),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// LoadCandidates resolves the project's members. Entries whose user record is
// missing are dropped.
func (b *Broker) LoadCandidates(ctx context.Context, projectID uuid.UUID) (*store.Project, []*store.Member, error) {
	project, err := b.store.LoadProjectWithMembers(ctx, projectID)
	if err != nil {
		return nil, nil, assignerr.Persistence("load project", err)
	}
	if project == nil {
		return nil, nil, assignerr.ProjectNotFound(projectID)
	}

	var missing []uuid.UUID
	for _, pm := range project.Members {
		if pm.User == nil && pm.UserID != uuid.Nil {
			missing = append(missing, pm.UserID)
		}
	}
	hydrated := map[uuid.UUID]*store.Member{}
	if len(missing) > 0 {
		users, err := b.store.LoadUsersByIDs(ctx, missing)
		if err != nil {
			return nil, nil, assignerr.Persistence("load users", err)
		}
		for _, u := range users {
			if u != nil {
				hydrated[u.ID] = u
			}
		}
	}

	members := make([]*store.Member, 0, len(project.Members))
	seen := make(map[uuid.UUID]bool, len(project.Members))
	for _, pm := range project.Members {
		m := pm.User
		if m == nil {
			m = hydrated[pm.UserID]
		}
		if m == nil || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		members = append(members, m)
	}

	if len(members) == 0 {
		return nil, nil, assignerr.EmptyProject(projectID)
	}
	if dropped := len(project.Members) - len(members); dropped > 0 {
		b.logger.Debug("dropped unresolvable project members", "project_id", projectID, "dropped", dropped)
	}
	return project, members, nil
}

// AutoAssignTaskByID loads the task and assigns it within its own project.
func (b *Broker) AutoAssignTaskByID(ctx context.Context, taskID uuid.UUID) (*AssignmentResult, error) {
	task, err := b.getTask(ctx, taskID)
	if err != nil {
		recordOutcome(err)
		b.logger.Warn("auto-assignment rejected", "task_id", taskID, "reason", err.Error())
		return nil, err
	}
	return b.AutoAssignTask(ctx, task, task.ProjectID)
}

// AutoAssignTask selects the best-fit member of projectID for task, assigns
// it and adds the task's estimated hours to the member's workload. task is
// only updated when both writes succeed.
func (b *Broker) AutoAssignTask(ctx context.Context, task *store.Task, projectID uuid.UUID) (*AssignmentResult, error) {
	start := time.Now()
	defer func() { assignmentDuration.Observe(time.Since(start).Seconds()) }()

	b.logger.Info("attempting auto-assignment", "task_id", task.ID, "project_id", projectID)

	res, err := b.autoAssign(ctx, task, projectID)
	if err != nil {
		recordOutcome(err)
		b.logger.Warn("auto-assignment rejected", "task_id", task.ID, "project_id", projectID, "reason", err.Error())
		b.publishUnmatched(task, projectID, err)
		return nil, err
	}

	assignmentsTotal.WithLabelValues("assigned").Inc()
	winningScore.Observe(res.Score)
	b.logger.Info("task auto-assigned", "task_id", task.ID, "member_id", res.Member.ID, "score", res.Score)
	b.publishAssigned(res, projectID)
	return res, nil
}

func (b *Broker) autoAssign(ctx context.Context, task *store.Task, projectID uuid.UUID) (*AssignmentResult, error) {
	project, members, err := b.LoadCandidates(ctx, projectID)
	if err != nil {
		return nil, err
	}

	eligible, err := b.chain.Run(ctx, task, members)
	if err != nil {
		return nil, err
	}
	b.countFallbacks(eligible.Stages)

	scored := b.scoreAll(task, project, eligible.Members)
	if len(scored) == 0 {
		return nil, assignerr.NoSuitableMember()
	}
	rankScored(scored)
	winner := scored[0]

	memberID := winner.member.ID
	updated := *task
	updated.AssignedTo = &memberID
	updated.AutoAssigned = true
	if err := b.store.SaveTask(ctx, &updated); err != nil {
		return nil, assignerr.Persistence("save task", err)
	}

	hours := b.cfg.Assignment.DefaultEstimatedHours
	if updated.EstimatedHours != nil {
		hours = *updated.EstimatedHours
	}
	if err := b.addWorkload(ctx, winner.member, hours); err != nil {
		return nil, err
	}

	*task = updated
	return &AssignmentResult{
		Task:    task,
		Member:  winner.member.Summary(),
		Score:   winner.result.TotalScore,
		Factors: winner.result.Factors,
	}, nil
}

// RankCandidates runs the loader, filter chain and scorer without mutating anything.
func (b *Broker) RankCandidates(ctx context.Context, task *store.Task, projectID uuid.UUID) (*Ranking, error) {
	project, members, err := b.LoadCandidates(ctx, projectID)
	if err != nil {
		return nil, err
	}
	eligible, err := b.chain.Run(ctx, task, members)
	if err != nil {
		return nil, err
	}

	scored := b.scoreAll(task, project, eligible.Members)
	rankScored(scored)

	results := make([]scoring.ScoringResult, len(scored))
	for i, s := range scored {
		results[i] = s.result
	}
	frontier := scoring.Frontier(results)

	ranking := &Ranking{TaskID: task.ID, ProjectID: projectID, Stages: eligible.Stages}
	for i, s := range scored {
		ranking.Candidates = append(ranking.Candidates, RankedCandidate{
			Rank:     i + 1,
			Member:   s.member.Summary(),
			Result:   s.result,
			Failed:   s.failed,
			Frontier: !s.failed && frontier[s.member.ID],
		})
	}
	return ranking, nil
}

// RankCandidatesByID is RankCandidates for a stored task.
func (b *Broker) RankCandidatesByID(ctx context.Context, taskID uuid.UUID) (*Ranking, error) {
	task, err := b.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return b.RankCandidates(ctx, task, task.ProjectID)
}

func (b *Broker) getTask(ctx context.Context, taskID uuid.UUID) (*store.Task, error) {
	task, err := b.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, assignerr.Persistence("get task", err)
	}
	if task == nil {
		return nil, assignerr.TaskNotFound(taskID)
	}
	return task, nil
}

type scoredMember struct {
	member *store.Member
	result scoring.ScoringResult
	failed bool
}

// scoreAll scores every member. Output order matches input order. A member
// whose scoring errors or panics gets a score of 0 and stays in the running.
func (b *Broker) scoreAll(task *store.Task, project *store.Project, members []*store.Member) []scoredMember {
	now := b.now()
	score := func(m **store.Member) scoredMember {
		return b.scoreOne(task, project, *m, now)
	}
	if b.cfg.Assignment.ConcurrentScoring && len(members) > 1 {
		return iter.Map(members, score)
	}
	out := make([]scoredMember, len(members))
	for i := range members {
		out[i] = score(&members[i])
	}
	return out
}

func (b *Broker) scoreOne(task *store.Task, project *store.Project, m *store.Member, now time.Time) (sm scoredMember) {
	sm = scoredMember{member: m, result: scoring.ScoringResult{MemberID: m.ID}}
	defer func() {
		if r := recover(); r != nil {
			b.scoringFailed(task, m, fmt.Errorf("panic: %v", r))
			sm = scoredMember{member: m, result: scoring.ScoringResult{MemberID: m.ID}, failed: true}
		}
	}()

	result, err := b.scorer.ScoreCandidate(&scoring.TaskContext{
		Task:            task,
		Member:          m,
		ProjectDeadline: project.Deadline,
		Now:             now,
	})
	if err != nil {
		b.scoringFailed(task, m, err)
		sm.failed = true
		return sm
	}
	sm.result = result
	return sm
}

func (b *Broker) scoringFailed(task *store.Task, m *store.Member, err error) {
	scoringFailures.Inc()
	b.logger.Warn("candidate scoring failed, using 0", "task_id", task.ID, "member_id", m.ID, "error", err)
}

// rankScored sorts by score descending. Equal scores keep filter order.
func rankScored(scored []scoredMember) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].result.TotalScore > scored[j].result.TotalScore
	})
}

func (b *Broker) countFallbacks(stages []eligibility.StageResult) {
	for _, s := range stages {
		if s.Fallback {
			filterFallbacks.WithLabelValues(s.Stage).Inc()
		}
	}
}

// addWorkload adds hours to the member's stored workload under a per-member
// lock. A version conflict reloads the member and retries. m itself is not
// modified since other assignments may be reading it.
func (b *Broker) addWorkload(ctx context.Context, m *store.Member, hours float64) error {
	unlock, err := b.locker.Lock(ctx, "member:"+m.ID.String())
	if err != nil {
		return assignerr.Persistence("lock member", err)
	}
	defer unlock()

	current := *m
	maxAttempts := b.cfg.Assignment.MaxSaveRetries + 1
	for attempt := 1; ; attempt++ {
		next := current
		workload := next.Resolve().Workload + hours
		next.Workload = &workload

		err := b.store.SaveMember(ctx, &next)
		if err == nil {
			b.publishWorkload(&next, hours)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= maxAttempts {
			return assignerr.Persistence("save member", err)
		}

		workloadConflicts.Inc()
		b.logger.Warn("member version conflict, reloading", "member_id", m.ID, "attempt", attempt)
		fresh, err := b.store.LoadUsersByIDs(ctx, []uuid.UUID{m.ID})
		if err != nil {
			return assignerr.Persistence("reload member", err)
		}
		if len(fresh) == 0 || fresh[0] == nil {
			return assignerr.Persistence("reload member", fmt.Errorf("member %s no longer exists", m.ID))
		}
		current = *fresh[0]
	}
}

func (b *Broker) publishAssigned(res *AssignmentResult, projectID uuid.UUID) {
	if b.hermes == nil {
		return
	}
	taskID := res.Task.ID.String()
	factors := make([]hermes.FactorScore, 0, len(res.Factors))
	for _, f := range res.Factors {
		factors = append(factors, hermes.FactorScore{Name: f.Name, Score: f.Score, Weight: f.Weight, Weighted: f.Weighted})
	}
	if err := b.hermes.Publish(hermes.SubjectTaskAutoAssigned(taskID), hermes.AutoAssignedEvent{
		TaskID:     taskID,
		ProjectID:  projectID.String(),
		MemberID:   res.Member.ID.String(),
		Username:   res.Member.Username,
		FirstName:  res.Member.FirstName,
		LastName:   res.Member.LastName,
		Score:      res.Score,
		Factors:    factors,
		AssignedAt: b.now().UTC(),
	}); err != nil {
		b.logger.Warn("failed to publish assignment", "task_id", taskID, "error", err)
	}
}

func (b *Broker) publishUnmatched(task *store.Task, projectID uuid.UUID, cause error) {
	if b.hermes == nil {
		return
	}
	evt := hermes.UnmatchedEvent{
		TaskID: task.ID.String(),
		Kind:   string(assignerr.KindOf(cause)),
		Reason: cause.Error(),
	}
	if projectID != uuid.Nil {
		evt.ProjectID = projectID.String()
	}
	var ae *assignerr.Error
	if errors.As(cause, &ae) {
		for _, id := range ae.Pending {
			evt.Pending = append(evt.Pending, id.String())
		}
	}
	if err := b.hermes.Publish(hermes.SubjectTaskUnmatched(evt.TaskID), evt); err != nil {
		b.logger.Warn("failed to publish unmatched", "task_id", evt.TaskID, "error", err)
	}
}

func (b *Broker) publishWorkload(m *store.Member, delta float64) {
	if b.hermes == nil {
		return
	}
	id := m.ID.String()
	if err := b.hermes.Publish(hermes.SubjectMemberWorkload(id), hermes.WorkloadChangedEvent{
		MemberID: id,
		Workload: m.Resolve().Workload,
		Delta:    delta,
		Version:  m.Version,
	}); err != nil {
		b.logger.Warn("failed to publish workload change", "member_id", id, "error", err)
	}
}

// SetupSubscriptions listens for assignment requests over NATS.
func (b *Broker) SetupSubscriptions(ctx context.Context) error {
	if b.hermes == nil {
		return nil
	}
	return b.hermes.Subscribe(hermes.SubjectAssignRequest, func(_ string, data []byte) {
		b.handleAssignRequest(ctx, data)
	})
}

func (b *Broker) handleAssignRequest(ctx context.Context, data []byte) {
	var req hermes.AssignRequestEvent
	if err := json.Unmarshal(data, &req); err != nil {
		b.logger.Warn("invalid assign request event", "error", err)
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		b.logger.Warn("invalid task id in assign request", "task_id", req.TaskID, "error", err)
		return
	}

	task, err := b.getTask(ctx, taskID)
	if err != nil {
		b.logger.Warn("assign request for unknown task", "task_id", taskID, "error", err)
		b.publishUnmatched(&store.Task{ID: taskID}, uuid.Nil, err)
		return
	}
	projectID := task.ProjectID
	if req.ProjectID != "" {
		if pid, err := uuid.Parse(req.ProjectID); err == nil {
			projectID = pid
		}
	}
	// errors are already logged and published
	_, _ = b.AutoAssignTask(ctx, task, projectID)
}
