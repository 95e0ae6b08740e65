// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/devshelf/devshelf/internal/models"
)

// projectRow mirrors the projects table. Tags and technologies are JSON text
// columns in SQLite.
type projectRow struct {
	ID            int64     `db:"id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	UserID        int64     `db:"user_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	Image         string    `db:"image"`
	Status        string    `db:"status"`
	Version       string    `db:"version"`
	License       string    `db:"license"`
	IsPublic      bool      `db:"is_public"`
	RepositoryURL string    `db:"repository_url"`
	LiveDemoURL   string    `db:"live_demo_url"`
	Views         int64     `db:"views"`
	Tags          string    `db:"tags"`
	Technologies  string    `db:"technologies"`
	LikeCount     int64     `db:"like_count"`
	CommentCount  int64     `db:"comment_count"`
}

const projectSelect = `
	SELECT p.*,
	       (SELECT COUNT(*) FROM project_likes l WHERE l.project_id = p.id) AS like_count,
	       (SELECT COUNT(*) FROM project_comments c WHERE c.project_id = p.id) AS comment_count
	FROM projects p`

func (row *projectRow) toModel() *models.Project {
	p := &models.Project{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		UserID:        row.UserID,
		Title:         row.Title,
		Description:   row.Description,
		Image:         row.Image,
		Status:        row.Status,
		Version:       row.Version,
		License:       row.License,
		IsPublic:      row.IsPublic,
		RepositoryURL: row.RepositoryURL,
		LiveDemoURL:   row.LiveDemoURL,
		Views:         row.Views,
		LikeCount:     row.LikeCount,
		CommentCount:  row.CommentCount,
	}
	_ = json.Unmarshal([]byte(row.Tags), &p.Tags)
	_ = json.Unmarshal([]byte(row.Technologies), &p.Technologies)
	return p
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func rowsToModels(rows []projectRow) []*models.Project {
	projects := make([]*models.Project, len(rows))
	for i := range rows {
		projects[i] = rows[i].toModel()
	}
	return projects
}

// CreateProject inserts a new project and adds its owner as a collaborator.
func (r *Repository) CreateProject(ctx context.Context, p *models.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.StatusInProgress
	}
	if p.Version == "" {
		p.Version = "v1.0"
	}
	if p.License == "" {
		p.License = "MIT"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (created_at, updated_at, user_id, title, description, image, status,
		                       version, license, is_public, repository_url, live_demo_url, tags, technologies)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CreatedAt, p.UpdatedAt, p.UserID, p.Title, p.Description, p.Image, p.Status,
		p.Version, p.License, p.IsPublic, p.RepositoryURL, p.LiveDemoURL,
		marshalList(p.Tags), marshalList(p.Technologies))
	if err != nil {
		return err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.AddCollaborator(ctx, p.ID, p.UserID)
}

// GetProjectByID retrieves a project by ID.
func (r *Repository) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	var row projectRow
	if err := r.db.GetContext(ctx, &row, projectSelect+` WHERE p.id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return row.toModel(), nil
}

// UpdateProject persists mutable project fields.
func (r *Repository) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects SET updated_at = ?, title = ?, description = ?, image = ?, status = ?,
		                     version = ?, license = ?, is_public = ?, repository_url = ?,
		                     live_demo_url = ?, tags = ?, technologies = ?
		 WHERE id = ?`,
		p.UpdatedAt, p.Title, p.Description, p.Image, p.Status, p.Version, p.License,
		p.IsPublic, p.RepositoryURL, p.LiveDemoURL, marshalList(p.Tags), marshalList(p.Technologies), p.ID)
	return err
}

// DeleteProject deletes a project by ID.
func (r *Repository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProjects returns all projects, newest first.
func (r *Repository) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, projectSelect+` ORDER BY p.created_at DESC`); err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// ListFeedProjects returns the latest public projects capped at limit.
func (r *Repository) ListFeedProjects(ctx context.Context, limit int) ([]*models.Project, error) {
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` WHERE p.is_public = 1 ORDER BY p.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// ListTrendingProjects returns the most liked projects capped at limit.
func (r *Repository) ListTrendingProjects(ctx context.Context, limit int) ([]*models.Project, error) {
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` WHERE p.is_public = 1 ORDER BY like_count DESC, p.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// SearchProjects matches the query against title, description and tags.
func (r *Repository) SearchProjects(ctx context.Context, query string) ([]*models.Project, error) {
	pattern := "%" + query + "%"
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` WHERE p.title LIKE ? OR p.description LIKE ? OR p.tags LIKE ?
		 ORDER BY p.created_at DESC`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// ListProjectsByTag returns projects carrying the exact tag.
func (r *Repository) ListProjectsByTag(ctx context.Context, tag string) ([]*models.Project, error) {
	// Tags are a JSON array of strings; match the quoted element.
	quoted, _ := json.Marshal(tag)
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` WHERE p.tags LIKE ? ORDER BY p.created_at DESC`,
		"%"+string(quoted)+"%")
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// ListProjectsByDateRange returns projects created within [start, end].
// Zero times leave the corresponding bound open.
func (r *Repository) ListProjectsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Project, error) {
	q := projectSelect + ` WHERE 1=1`
	args := []any{}
	if !start.IsZero() {
		q += ` AND p.created_at >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		q += ` AND p.created_at <= ?`
		args = append(args, end)
	}
	q += ` ORDER BY p.created_at DESC`
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// ListProjectsPage returns one page of projects plus the total count.
func (r *Repository) ListProjectsPage(ctx context.Context, page, limit int) ([]*models.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects`); err != nil {
		return nil, 0, err
	}
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` ORDER BY p.created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return rowsToModels(rows), total, nil
}

// ListUserProjects returns projects a user owns or collaborates on.
func (r *Repository) ListUserProjects(ctx context.Context, userID int64) ([]*models.Project, error) {
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		projectSelect+` WHERE p.user_id = ?
		   OR p.id IN (SELECT project_id FROM project_collaborators WHERE user_id = ?)
		 ORDER BY p.created_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// IncrementViews bumps a project's view counter.
func (r *Repository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE projects SET views = views + 1 WHERE id = ?`, id)
	return err
}

// ===== Likes =====

// AddLike records a like. Returns false when the user already liked the
// project.
func (r *Repository) AddLike(ctx context.Context, projectID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_likes (project_id, user_id) VALUES (?, ?)`,
		projectID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveLike removes a like. Returns false when no like existed.
func (r *Repository) RemoveLike(ctx context.Context, projectID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM project_likes WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ===== Comments and feedback =====

// AddComment appends a comment to a project.
func (r *Repository) AddComment(ctx context.Context, c *models.Comment) error {
	c.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO project_comments (created_at, project_id, user_id, comment) VALUES (?, ?, ?, ?)`,
		c.CreatedAt, c.ProjectID, c.UserID, c.Comment)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

// ListComments returns a project's comments, oldest first.
func (r *Repository) ListComments(ctx context.Context, projectID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments,
		`SELECT * FROM project_comments WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	return comments, err
}

// AddFeedback appends feedback to a project.
func (r *Repository) AddFeedback(ctx context.Context, f *models.Feedback) error {
	f.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO project_feedback (created_at, project_id, user_id, feedback) VALUES (?, ?, ?, ?)`,
		f.CreatedAt, f.ProjectID, f.UserID, f.Feedback)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

// ===== Collaborators =====

// AddCollaborator adds a user to a project's collaborator list. Returns nil
// when the user is already a collaborator.
func (r *Repository) AddCollaborator(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_collaborators (project_id, user_id) VALUES (?, ?)`,
		projectID, userID)
	return err
}

// RemoveCollaborator removes a user from a project's collaborator list.
// Returns false when the user was not a collaborator.
func (r *Repository) RemoveCollaborator(ctx context.Context, projectID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM project_collaborators WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsCollaborator reports whether the user collaborates on the project.
func (r *Repository) IsCollaborator(ctx context.Context, projectID, userID int64) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM project_collaborators WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	return count > 0, err
}
