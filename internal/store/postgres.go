package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const memberColumns = `id, username, first_name, last_name, role,
	workload, availability, experience_level, performance_rating, version`

const taskColumns = `id, project_id, title, task_type, status, complexity,
	due_date, estimated_hours, assigned_to, auto_assigned,
	created_at, updated_at`

func (s *PostgresStore) LoadProjectWithMembers(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	p := &Project{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, deadline FROM projects WHERE id = $1`, projectID,
	).Scan(&p.ID, &p.Name, &p.Deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT user_id, role FROM project_members
		WHERE project_id = $1
		ORDER BY joined_at ASC, user_id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var pm ProjectMember
		if err := rows.Scan(&pm.UserID, &pm.Role); err != nil {
			return nil, err
		}
		p.Members = append(p.Members, pm)
		ids = append(ids, pm.UserID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := s.LoadUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	for i := range p.Members {
		p.Members[i].User = byID[p.Members[i].UserID]
	}
	return p, nil
}

// LoadUsersByIDs returns the members that exist, in the order of ids.
func (s *PostgresStore) LoadUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := uuidStrings(ids)

	rows, err := s.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM users WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Member, len(ids))
	for rows.Next() {
		m := &Member{}
		var level *string
		if err := rows.Scan(
			&m.ID, &m.Username, &m.FirstName, &m.LastName, &m.Role,
			&m.Workload, &m.Availability, &level, &m.PerformanceRating, &m.Version,
		); err != nil {
			rows.Close()
			return nil, err
		}
		if level != nil {
			m.ExperienceLevel = *level
		}
		byID[m.ID] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadSkills(ctx, keys, byID); err != nil {
		return nil, err
	}
	if err := s.loadRequiredSkills(ctx, keys, byID); err != nil {
		return nil, err
	}

	out := make([]*Member, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *PostgresStore) loadSkills(ctx context.Context, keys []string, byID map[uuid.UUID]*Member) error {
	rows, err := s.pool.Query(ctx, `
		SELECT us.user_id, sk.id, sk.name, us.proficiency_level
		FROM user_skills us JOIN skills sk ON sk.id = us.skill_id
		WHERE us.user_id = ANY($1::uuid[])
		ORDER BY us.user_id, sk.name`, keys)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var userID uuid.UUID
		var ms MemberSkill
		if err := rows.Scan(&userID, &ms.Skill.ID, &ms.Skill.Name, &ms.ProficiencyLevel); err != nil {
			return err
		}
		if m, ok := byID[userID]; ok {
			m.Skills = append(m.Skills, ms)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) loadRequiredSkills(ctx context.Context, keys []string, byID map[uuid.UUID]*Member) error {
	rows, err := s.pool.Query(ctx, `
		SELECT rs.user_id, sk.id, sk.name, rs.minimum_level
		FROM user_required_skills rs JOIN skills sk ON sk.id = rs.skill_id
		WHERE rs.user_id = ANY($1::uuid[])
		ORDER BY rs.user_id, sk.name`, keys)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var userID uuid.UUID
		var rs RequiredSkill
		if err := rows.Scan(&userID, &rs.Skill.ID, &rs.Skill.Name, &rs.MinimumLevel); err != nil {
			return err
		}
		if m, ok := byID[userID]; ok {
			m.RequiredSkills = append(m.RequiredSkills, rs)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	tasks, err := s.LoadTasksByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

// LoadTasksByIDs returns the tasks that exist, dependencies included.
func (s *PostgresStore) LoadTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]*Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := uuidStrings(ids)

	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	depRows, err := s.pool.Query(ctx, `
		SELECT task_id, depends_on FROM task_dependencies
		WHERE task_id = ANY($1::uuid[])
		ORDER BY task_id, depends_on`, keys)
	if err != nil {
		return nil, err
	}
	defer depRows.Close()
	for depRows.Next() {
		var taskID, dependsOn uuid.UUID
		if err := depRows.Scan(&taskID, &dependsOn); err != nil {
			return nil, err
		}
		if t, ok := byID[taskID]; ok {
			t.Dependencies = append(t.Dependencies, dependsOn)
		}
	}
	return tasks, depRows.Err()
}

func (s *PostgresStore) SaveTask(ctx context.Context, task *Task) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE tasks SET
			assigned_to = $2, auto_assigned = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		task.ID, task.AssignedTo, task.AutoAssigned,
	).Scan(&task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("task %s not found", task.ID)
	}
	return err
}

func (s *PostgresStore) SaveMember(ctx context.Context, member *Member) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET
			workload = $2, version = version + 1
		WHERE id = $1 AND version = $3
		RETURNING version`,
		member.ID, member.Workload, member.Version,
	).Scan(&member.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	return err
}

func scanTasks(rows pgx.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		t := &Task{}
		var taskType *string
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.Title, &taskType, &t.Status, &t.Complexity,
			&t.DueDate, &t.EstimatedHours, &t.AssignedTo, &t.AutoAssigned,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if taskType != nil {
			t.TaskType = *taskType
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
