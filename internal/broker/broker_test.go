package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/taskmatch/internal/assignerr"
	"github.com/MikeSquared-Agency/taskmatch/internal/config"
	"github.com/MikeSquared-Agency/taskmatch/internal/hermes"
	"github.com/MikeSquared-Agency/taskmatch/internal/lock"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

// Mock implementations

type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadProjectWithMembers(ctx context.Context, id uuid.UUID) (*store.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *MockStore) LoadUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*store.Member, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Member), args.Error(1)
}

func (m *MockStore) LoadTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]*store.Task, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Task), args.Error(1)
}

func (m *MockStore) GetTask(ctx context.Context, id uuid.UUID) (*store.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Task), args.Error(1)
}

func (m *MockStore) SaveTask(ctx context.Context, t *store.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockStore) SaveMember(ctx context.Context, mem *store.Member) error {
	return m.Called(ctx, mem).Error(0)
}

func (m *MockStore) Close() error { return nil }

type published struct {
	subject string
	data    interface{}
}

type mockHermes struct {
	mu       sync.Mutex
	events   []published
	handlers map[string]func(string, []byte)
	err      error
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{subject, data})
	return m.err
}

func (m *mockHermes) event(subject string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.subject == subject {
			return e.data, true
		}
	}
	return nil, false
}

func (m *mockHermes) Subscribe(subject string, h func(string, []byte)) error {
	if m.handlers == nil {
		m.handlers = map[string]func(string, []byte){}
	}
	m.handlers[subject] = h
	return nil
}

func (m *mockHermes) Close() {}

func (m *mockHermes) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}

// Fixtures

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Assignment.ConcurrentScoring = true
	cfg.Assignment.MaxSaveRetries = 3
	return cfg
}

func newTestBroker(t *testing.T, s store.Store, h hermes.Client) *Broker {
	t.Helper()
	b := New(s, h, lock.NewKeyedMutex(), testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return testNow }
	return b
}

func float64Ptr(v float64) *float64 { return &v }

func newUser(name string) *store.Member {
	return &store.Member{ID: uuid.New(), Username: name, FirstName: name, Role: store.RoleUser, Version: 1}
}

func withSkill(m *store.Member, name string, level int) *store.Member {
	m.Skills = append(m.Skills, store.MemberSkill{
		Skill:            store.Skill{ID: uuid.New(), Name: name},
		ProficiencyLevel: level,
	})
	return m
}

func newProject(members ...*store.Member) *store.Project {
	p := &store.Project{ID: uuid.New(), Name: "proj"}
	for _, m := range members {
		p.Members = append(p.Members, store.ProjectMember{UserID: m.ID, Role: "member", User: m})
	}
	return p
}

func newTask(p *store.Project) *store.Task {
	return &store.Task{ID: uuid.New(), ProjectID: p.ID, Title: "task", TaskType: store.TaskTypeDevelopment, Status: store.StatusTodo}
}

// Tests

func TestAutoAssignSingleMember(t *testing.T) {
	ms := &MockStore{}
	mh := &mockHermes{}
	dev := withSkill(newUser("dev"), "React", 4)
	dev.Workload = float64Ptr(12)
	p := newProject(dev)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.MatchedBy(func(t *store.Task) bool {
		return t.AutoAssigned && t.AssignedTo != nil && *t.AssignedTo == dev.ID
	})).Return(nil)
	var savedWorkload float64
	ms.On("SaveMember", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedWorkload = *args.Get(1).(*store.Member).Workload
	}).Return(nil)

	b := newTestBroker(t, ms, mh)
	res, err := b.AutoAssignTask(context.Background(), task, p.ID)
	require.NoError(t, err)

	assert.Equal(t, dev.ID, res.Member.ID)
	assert.Equal(t, "dev", res.Member.Username)
	assert.True(t, task.AutoAssigned)
	assert.Equal(t, dev.ID, *task.AssignedTo)
	assert.Equal(t, 20.0, savedWorkload, "default estimate of 8 hours")
	assert.Equal(t, 12.0, *dev.Workload, "loaded member is not modified")
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.Len(t, res.Factors, 5)
	data, ok := mh.event(hermes.SubjectTaskAutoAssigned(task.ID.String()))
	require.True(t, ok)
	evt := data.(hermes.AutoAssignedEvent)
	assert.Equal(t, dev.ID.String(), evt.MemberID)
	assert.Equal(t, "dev", evt.FirstName)
	require.Len(t, evt.Factors, 5)
	assert.Equal(t, res.Factors[0].Name, evt.Factors[0].Name)
	assert.Equal(t, res.Factors[0].Weighted, evt.Factors[0].Weighted)
	assert.Contains(t, mh.subjects(), hermes.SubjectMemberWorkload(dev.ID.String()))
	ms.AssertExpectations(t)
}

func TestAutoAssignLogsPublishFailures(t *testing.T) {
	ms := &MockStore{}
	mh := &mockHermes{err: errors.New("nats down")}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	var buf bytes.Buffer
	b := New(ms, mh, lock.NewKeyedMutex(), testConfig(t), slog.New(slog.NewTextHandler(&buf, nil)))
	b.now = func() time.Time { return testNow }

	_, err := b.AutoAssignTask(context.Background(), task, p.ID)
	require.NoError(t, err, "publish failures do not fail the assignment")
	assert.Contains(t, buf.String(), "failed to publish workload change")
	assert.Contains(t, buf.String(), "failed to publish assignment")
}

func TestAutoAssignUsesEstimatedHours(t *testing.T) {
	ms := &MockStore{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)
	task.EstimatedHours = float64Ptr(3.5)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.MatchedBy(func(m *store.Member) bool {
		return m.Workload != nil && *m.Workload == 3.5
	})).Return(nil)

	_, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), task, p.ID)
	require.NoError(t, err)
	ms.AssertExpectations(t)
}

func TestAutoAssignDependenciesIncomplete(t *testing.T) {
	ms := &MockStore{}
	mh := &mockHermes{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)
	dep := uuid.New()
	task.Dependencies = []uuid.UUID{dep}

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("LoadTasksByIDs", mock.Anything, []uuid.UUID{dep}).
		Return([]*store.Task{{ID: dep, Status: store.StatusInProgress}}, nil)

	_, err := newTestBroker(t, ms, mh).AutoAssignTask(context.Background(), task, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, assignerr.ErrDependenciesNotComplete)
	assert.Nil(t, task.AssignedTo)
	assert.False(t, task.AutoAssigned)
	ms.AssertNotCalled(t, "SaveTask", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "SaveMember", mock.Anything, mock.Anything)

	require.Len(t, mh.events, 1)
	assert.Equal(t, hermes.SubjectTaskUnmatched(task.ID.String()), mh.events[0].subject)
	evt := mh.events[0].data.(hermes.UnmatchedEvent)
	assert.Equal(t, string(assignerr.KindDependenciesNotComplete), evt.Kind)
	assert.Equal(t, []string{dep.String()}, evt.Pending)
}

func TestAutoAssignProjectNotFound(t *testing.T) {
	ms := &MockStore{}
	id := uuid.New()
	ms.On("LoadProjectWithMembers", mock.Anything, id).Return(nil, nil)

	_, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), &store.Task{ID: uuid.New()}, id)
	assert.ErrorIs(t, err, assignerr.ErrNotFound)
}

func TestAutoAssignLoadFailureIsPersistenceError(t *testing.T) {
	ms := &MockStore{}
	id := uuid.New()
	cause := errors.New("connection refused")
	ms.On("LoadProjectWithMembers", mock.Anything, id).Return(nil, cause)

	_, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), &store.Task{ID: uuid.New()}, id)
	assert.ErrorIs(t, err, assignerr.ErrPersistence)
	assert.ErrorIs(t, err, cause)
}

func TestLoadCandidatesDropsMissingUsers(t *testing.T) {
	ms := &MockStore{}
	loaded := newUser("loaded")
	hydrated := newUser("hydrated")
	gone := uuid.New()

	p := newProject(loaded)
	p.Members = append(p.Members,
		store.ProjectMember{UserID: hydrated.ID, Role: "member"},
		store.ProjectMember{UserID: gone, Role: "member"},
	)
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("LoadUsersByIDs", mock.Anything, []uuid.UUID{hydrated.ID, gone}).
		Return([]*store.Member{hydrated}, nil)

	_, members, err := newTestBroker(t, ms, nil).LoadCandidates(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "loaded", members[0].Username)
	assert.Equal(t, "hydrated", members[1].Username)
}

func TestLoadCandidatesEmptyProject(t *testing.T) {
	ms := &MockStore{}
	p := &store.Project{ID: uuid.New(), Members: []store.ProjectMember{{UserID: uuid.New()}}}
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("LoadUsersByIDs", mock.Anything, mock.Anything).Return([]*store.Member{}, nil)

	_, _, err := newTestBroker(t, ms, nil).LoadCandidates(context.Background(), p.ID)
	assert.ErrorIs(t, err, assignerr.ErrEmptyProject)

	ms2 := &MockStore{}
	empty := &store.Project{ID: uuid.New()}
	ms2.On("LoadProjectWithMembers", mock.Anything, empty.ID).Return(empty, nil)
	_, _, err = newTestBroker(t, ms2, nil).LoadCandidates(context.Background(), empty.ID)
	assert.ErrorIs(t, err, assignerr.ErrEmptyProject)
}

func TestAutoAssignPicksHighestScore(t *testing.T) {
	ms := &MockStore{}
	weak := withSkill(newUser("weak"), "React", 3)
	strong := withSkill(newUser("strong"), "React", 5)
	strong.ExperienceLevel = store.LevelSenior
	p := newProject(weak, strong)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	res, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), task, p.ID)
	require.NoError(t, err)
	assert.Equal(t, strong.ID, res.Member.ID)
}

func TestAutoAssignTieKeepsFilterOrder(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		ms := &MockStore{}
		first := withSkill(newUser("first"), "React", 4)
		second := withSkill(newUser("second"), "React", 4)
		third := withSkill(newUser("third"), "React", 4)
		p := newProject(first, second, third)

		ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
		ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
		ms.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

		b := newTestBroker(t, ms, nil)
		b.cfg.Assignment.ConcurrentScoring = concurrent
		res, err := b.AutoAssignTask(context.Background(), newTask(p), p.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, res.Member.ID, "concurrent=%v", concurrent)
	}
}

func TestScoringFailureScoresZero(t *testing.T) {
	ms := &MockStore{}
	broken := newUser("broken")
	broken.PerformanceRating = float64Ptr(math.NaN())
	ok := newUser("ok")
	p := newProject(broken, ok)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)

	ranking, err := newTestBroker(t, ms, nil).RankCandidates(context.Background(), newTask(p), p.ID)
	require.NoError(t, err)
	require.Len(t, ranking.Candidates, 2)
	assert.Equal(t, "ok", ranking.Candidates[0].Member.Username)
	assert.Equal(t, "broken", ranking.Candidates[1].Member.Username)
	assert.True(t, ranking.Candidates[1].Failed)
	assert.Equal(t, 0.0, ranking.Candidates[1].Result.TotalScore)
}

func TestRankCandidatesDoesNotMutate(t *testing.T) {
	ms := &MockStore{}
	a := withSkill(newUser("a"), "React", 5)
	b := withSkill(newUser("b"), "Node.js", 3)
	p := newProject(a, b)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)

	ranking, err := newTestBroker(t, ms, nil).RankCandidates(context.Background(), task, p.ID)
	require.NoError(t, err)

	require.Len(t, ranking.Candidates, 2)
	assert.Equal(t, 1, ranking.Candidates[0].Rank)
	assert.GreaterOrEqual(t, ranking.Candidates[0].Result.TotalScore, ranking.Candidates[1].Result.TotalScore)
	assert.True(t, ranking.Candidates[0].Frontier)
	assert.Len(t, ranking.Stages, 5)
	assert.Nil(t, task.AssignedTo)
	assert.Nil(t, a.Workload)
	ms.AssertNotCalled(t, "SaveTask", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "SaveMember", mock.Anything, mock.Anything)
}

func TestWorkloadVersionConflictReloads(t *testing.T) {
	ms := &MockStore{}
	dev := newUser("dev")
	dev.Workload = float64Ptr(4)
	p := newProject(dev)
	task := newTask(p)

	fresh := *dev
	fresh.Workload = float64Ptr(10)
	fresh.Version = 2

	var saved []float64
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = append(saved, *args.Get(1).(*store.Member).Workload)
	}).Return(store.ErrVersionConflict).Once()
	ms.On("SaveMember", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = append(saved, *args.Get(1).(*store.Member).Workload)
	}).Return(nil).Once()
	ms.On("LoadUsersByIDs", mock.Anything, []uuid.UUID{dev.ID}).Return([]*store.Member{&fresh}, nil)

	_, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), task, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 18}, saved, "increment reapplied to reloaded workload")
	ms.AssertExpectations(t)
}

func TestWorkloadVersionConflictExhausted(t *testing.T) {
	ms := &MockStore{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Return(store.ErrVersionConflict)
	ms.On("LoadUsersByIDs", mock.Anything, []uuid.UUID{dev.ID}).Return([]*store.Member{newUser("dev")}, nil)

	b := newTestBroker(t, ms, nil)
	_, err := b.AutoAssignTask(context.Background(), task, p.ID)
	assert.ErrorIs(t, err, assignerr.ErrPersistence)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	ms.AssertNumberOfCalls(t, "SaveMember", b.cfg.Assignment.MaxSaveRetries+1)
}

func TestSaveTaskFailureLeavesTaskUnchanged(t *testing.T) {
	ms := &MockStore{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)

	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := newTestBroker(t, ms, nil).AutoAssignTask(context.Background(), task, p.ID)
	assert.ErrorIs(t, err, assignerr.ErrPersistence)
	assert.Nil(t, task.AssignedTo)
	assert.False(t, task.AutoAssigned)
	ms.AssertNotCalled(t, "SaveMember", mock.Anything, mock.Anything)
}

// casStore keeps one member's workload behind a version check, like
// PostgresStore.SaveMember.
type casStore struct {
	*MockStore
	mu       sync.Mutex
	member   store.Member
	conflict int
}

func (c *casStore) SaveMember(_ context.Context, m *store.Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.Version != c.member.Version {
		c.conflict++
		return store.ErrVersionConflict
	}
	c.member.Workload = float64Ptr(*m.Workload)
	c.member.Version++
	m.Version = c.member.Version
	return nil
}

func (c *casStore) LoadUsersByIDs(_ context.Context, _ []uuid.UUID) ([]*store.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := c.member
	return []*store.Member{&cp}, nil
}

func TestConcurrentAssignmentsDoNotLoseWorkload(t *testing.T) {
	dev := newUser("dev")
	p := newProject(dev)

	ms := &MockStore{}
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	cs := &casStore{MockStore: ms, member: *dev}

	b := newTestBroker(t, cs, nil)
	b.cfg.Assignment.MaxSaveRetries = 20

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.AutoAssignTask(context.Background(), newTask(p), p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 80.0, *cs.member.Workload)
	assert.Equal(t, int64(11), cs.member.Version)
}

func TestAutoAssignTaskByID(t *testing.T) {
	ms := &MockStore{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)

	ms.On("GetTask", mock.Anything, task.ID).Return(task, nil)
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	b := newTestBroker(t, ms, nil)
	res, err := b.AutoAssignTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, dev.ID, res.Member.ID)

	missing := uuid.New()
	ms.On("GetTask", mock.Anything, missing).Return(nil, nil)
	_, err = b.AutoAssignTaskByID(context.Background(), missing)
	assert.ErrorIs(t, err, assignerr.ErrNotFound)
}

func TestAutoAssignTaskByIDCountsLookupFailures(t *testing.T) {
	ms := &MockStore{}
	missing := uuid.New()
	broken := uuid.New()
	ms.On("GetTask", mock.Anything, missing).Return(nil, nil)
	ms.On("GetTask", mock.Anything, broken).Return(nil, errors.New("connection reset"))

	b := newTestBroker(t, ms, nil)
	notFound := assignmentsTotal.WithLabelValues(string(assignerr.KindNotFound))
	persistence := assignmentsTotal.WithLabelValues(string(assignerr.KindPersistence))
	beforeNotFound := testutil.ToFloat64(notFound)
	beforePersistence := testutil.ToFloat64(persistence)

	_, err := b.AutoAssignTaskByID(context.Background(), missing)
	require.Error(t, err)
	_, err = b.AutoAssignTaskByID(context.Background(), broken)
	require.Error(t, err)

	assert.Equal(t, beforeNotFound+1, testutil.ToFloat64(notFound))
	assert.Equal(t, beforePersistence+1, testutil.ToFloat64(persistence))
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "error", outcomeLabel(errors.New("boom")))
	assert.Equal(t, string(assignerr.KindEmptyProject), outcomeLabel(assignerr.EmptyProject(uuid.New())))
}

func TestAssignRequestSubscription(t *testing.T) {
	ms := &MockStore{}
	mh := &mockHermes{}
	dev := newUser("dev")
	p := newProject(dev)
	task := newTask(p)

	ms.On("GetTask", mock.Anything, task.ID).Return(task, nil)
	ms.On("LoadProjectWithMembers", mock.Anything, p.ID).Return(p, nil)
	ms.On("SaveTask", mock.Anything, mock.Anything).Return(nil)
	ms.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	b := newTestBroker(t, ms, mh)
	require.NoError(t, b.SetupSubscriptions(context.Background()))
	handler := mh.handlers[hermes.SubjectAssignRequest]
	require.NotNil(t, handler)

	data, _ := json.Marshal(hermes.AssignRequestEvent{TaskID: task.ID.String()})
	handler(hermes.SubjectAssignRequest, data)

	assert.True(t, task.AutoAssigned)
	assert.Contains(t, mh.subjects(), hermes.SubjectTaskAutoAssigned(task.ID.String()))

	handler(hermes.SubjectAssignRequest, []byte("{not json"))
	handler(hermes.SubjectAssignRequest, []byte(`{"task_id":"nope"}`))
}
