package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/teamdeck/internal/model"
)

// UpsertUser inserts or replaces a user record. If the user has no ID,
// a new UUID is generated.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, avatar, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, avatar = excluded.avatar`,
		u.ID, u.Email, u.Name, u.Avatar, u.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.Email, err)
	}

	return nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(
	ctx context.Context,
	id string,
) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE id = ?", id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetUserByEmail retrieves a single user by email address.
func (s *SQLiteStore) GetUserByEmail(
	ctx context.Context,
	email string,
) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE email = ?", email)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", email, err)
	}

	return &u, nil
}

// CreateProject inserts a new project record.
func (s *SQLiteStore) CreateProject(
	ctx context.Context,
	p model.Project,
) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, color, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, boolToInt(p.Archived), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating project %s: %w", p.Name, err)
	}

	s.watcher.notify(CollectionProjects)
	return nil
}

// GetProjectByID retrieves a single project by its ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM projects WHERE id = ?", id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}

	return &p, nil
}

// GetProjects retrieves all projects, optionally including archived ones.
func (s *SQLiteStore) GetProjects(
	ctx context.Context,
	includeArchived bool,
) ([]model.Project, error) {
	query := "SELECT * FROM projects"
	if !includeArchived {
		query += " WHERE archived = 0"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var (
			p        model.Project
			archived int
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Color,
			&archived, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		p.Archived = archived != 0
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// AddProjectMember inserts a membership record. Adding an existing
// member is a no-op.
func (s *SQLiteStore) AddProjectMember(
	ctx context.Context,
	m model.ProjectMember,
) error {
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO project_members (project_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.UserID, m.Role, m.JoinedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding member %s to project %s: %w", m.UserID, m.ProjectID, err)
	}

	s.watcher.notify(CollectionProjects)
	return nil
}

// GetProjectMembers retrieves the membership list for a project.
func (s *SQLiteStore) GetProjectMembers(
	ctx context.Context,
	projectID string,
) ([]model.ProjectMember, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM project_members WHERE project_id = ? ORDER BY joined_at",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying members of %s: %w", projectID, err)
	}
	defer rows.Close()

	var members []model.ProjectMember
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// CreateTask inserts a new task record.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, assignee_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.AssigneeID, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating task %s: %w", t.Title, err)
	}

	s.watcher.notify(CollectionTasks)
	return nil
}

// GetProjectTasks retrieves the tasks of a project, newest first.
func (s *SQLiteStore) GetProjectTasks(
	ctx context.Context,
	projectID string,
) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM tasks WHERE project_id = ? ORDER BY created_at DESC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks of %s: %w", projectID, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.Title, &t.Description,
			&t.Status, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// scanUser scans a single user row from a sqlx.Row.
func scanUser(row *sqlx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.CreatedAt)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// scanProject scans a single project row from a sqlx.Row.
func scanProject(row *sqlx.Row) (model.Project, error) {
	var (
		p        model.Project
		archived int
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Color,
		&archived, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, err
	}
	p.Archived = archived != 0
	return p, nil
}
