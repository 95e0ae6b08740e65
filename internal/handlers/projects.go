// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/authctx"
	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
)

const (
	defaultFeedLimit     = 20
	defaultTrendingLimit = 10
	defaultPageSize      = 10
	maxListLimit         = 100
)

// ProjectHandlers serves the project endpoints.
type ProjectHandlers struct {
	repo *repository.Repository
}

func NewProjects(repo *repository.Repository) *ProjectHandlers {
	return &ProjectHandlers{repo: repo}
}

type projectRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Image         *string  `json:"image"`
	Status        *string  `json:"status"`
	Version       *string  `json:"version"`
	License       *string  `json:"license"`
	IsPublic      *bool    `json:"is_public"`
	RepositoryURL *string  `json:"repository_url"`
	LiveDemoURL   *string  `json:"live_demo_url"`
	Tags          []string `json:"tags"`
	Technologies  []string `json:"technologies"`
}

func (req *projectRequest) apply(p *models.Project) error {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid project status")
		}
		p.Status = *req.Status
	}
	if req.Version != nil {
		p.Version = *req.Version
	}
	if req.License != nil {
		p.License = *req.License
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
	if req.RepositoryURL != nil {
		p.RepositoryURL = *req.RepositoryURL
	}
	if req.LiveDemoURL != nil {
		p.LiveDemoURL = *req.LiveDemoURL
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.Technologies != nil {
		p.Technologies = req.Technologies
	}
	return nil
}

// Create adds a new project owned by the caller.
func (h *ProjectHandlers) Create(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == nil || *req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	user := authctx.User(c.Request().Context())
	project := &models.Project{UserID: user.ID, IsPublic: true}
	if err := req.apply(project); err != nil {
		return err
	}

	if err := h.repo.CreateProject(c.Request().Context(), project); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// Get returns one project with its comments and bumps the view counter.
func (h *ProjectHandlers) Get(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	project, err := h.repo.GetProjectByID(ctx, id)
	if err != nil {
		return err
	}
	if err := h.repo.IncrementViews(ctx, id); err != nil {
		return err
	}
	project.Views++

	comments, err := h.repo.ListComments(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"project":  project,
		"comments": comments,
	})
}

// Update modifies a project. Owner only.
func (h *ProjectHandlers) Update(c echo.Context) error {
	project, err := h.ownedProject(c)
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.apply(project); err != nil {
		return err
	}
	if project.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title cannot be empty")
	}

	if err := h.repo.UpdateProject(c.Request().Context(), project); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Delete removes a project. Owner only.
func (h *ProjectHandlers) Delete(c echo.Context) error {
	project, err := h.ownedProject(c)
	if err != nil {
		return err
	}
	if err := h.repo.DeleteProject(c.Request().Context(), project.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "project deleted"})
}

// List returns all projects, newest first.
func (h *ProjectHandlers) List(c echo.Context) error {
	projects, err := h.repo.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Feed returns the latest public projects. No authentication required.
func (h *ProjectHandlers) Feed(c echo.Context) error {
	limit := queryLimit(c, defaultFeedLimit)
	projects, err := h.repo.ListFeedProjects(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Trending returns the most liked public projects.
func (h *ProjectHandlers) Trending(c echo.Context) error {
	limit := queryLimit(c, defaultTrendingLimit)
	projects, err := h.repo.ListTrendingProjects(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Search matches a query against titles, descriptions and tags.
func (h *ProjectHandlers) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	projects, err := h.repo.SearchProjects(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Mine returns projects the caller owns or collaborates on.
func (h *ProjectHandlers) Mine(c echo.Context) error {
	user := authctx.User(c.Request().Context())
	projects, err := h.repo.ListUserProjects(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// ByUser returns projects a given user owns or collaborates on.
func (h *ProjectHandlers) ByUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	projects, err := h.repo.ListUserProjects(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// ByTag returns projects carrying the given tag.
func (h *ProjectHandlers) ByTag(c echo.Context) error {
	tag := c.Param("tag")
	projects, err := h.repo.ListProjectsByTag(c.Request().Context(), tag)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// DateRange returns projects created within [start, end]. Bounds are
// RFC 3339 timestamps or plain dates; either may be omitted.
func (h *ProjectHandlers) DateRange(c echo.Context) error {
	start, err := parseTimeParam(c.QueryParam("start"), false)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
	}
	end, err := parseTimeParam(c.QueryParam("end"), true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
	}
	if start.IsZero() && end.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start or end date is required")
	}

	projects, err := h.repo.ListProjectsByDateRange(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Paginated returns one page of projects with pagination metadata.
func (h *ProjectHandlers) Paginated(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit := queryLimit(c, defaultPageSize)

	projects, total, err := h.repo.ListProjectsPage(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return c.JSON(http.StatusOK, map[string]any{
		"projects":    projects,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// Like records the caller's like on a project.
func (h *ProjectHandlers) Like(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.repo.GetProjectByID(ctx, id); err != nil {
		return err
	}

	user := authctx.User(ctx)
	added, err := h.repo.AddLike(ctx, id, user.ID)
	if err != nil {
		return err
	}
	if !added {
		return echo.NewHTTPError(http.StatusConflict, "project already liked")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "project liked"})
}

// Unlike removes the caller's like from a project.
func (h *ProjectHandlers) Unlike(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	user := authctx.User(ctx)
	removed, err := h.repo.RemoveLike(ctx, id, user.ID)
	if err != nil {
		return err
	}
	if !removed {
		return echo.NewHTTPError(http.StatusConflict, "project not liked")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "project unliked"})
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// AddComment appends a comment to a project.
func (h *ProjectHandlers) AddComment(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Comment == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment is required")
	}

	ctx := c.Request().Context()
	if _, err := h.repo.GetProjectByID(ctx, id); err != nil {
		return err
	}

	user := authctx.User(ctx)
	comment := &models.Comment{ProjectID: id, UserID: user.ID, Comment: req.Comment}
	if err := h.repo.AddComment(ctx, comment); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// AddFeedback appends feedback to a project.
func (h *ProjectHandlers) AddFeedback(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Feedback == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "feedback is required")
	}

	ctx := c.Request().Context()
	if _, err := h.repo.GetProjectByID(ctx, id); err != nil {
		return err
	}

	user := authctx.User(ctx)
	feedback := &models.Feedback{ProjectID: id, UserID: user.ID, Feedback: req.Feedback}
	if err := h.repo.AddFeedback(ctx, feedback); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, feedback)
}

type collaboratorRequest struct {
	UserID int64 `json:"user_id"`
}

// AddCollaborator adds a user to the project's collaborator list. Owner only.
func (h *ProjectHandlers) AddCollaborator(c echo.Context) error {
	project, err := h.ownedProject(c)
	if err != nil {
		return err
	}
	var req collaboratorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if _, err := h.repo.GetUserByID(ctx, req.UserID); err != nil {
		return err
	}
	if err := h.repo.AddCollaborator(ctx, project.ID, req.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "collaborator added"})
}

// RemoveCollaborator removes a user from the project's collaborator list.
// Owner only; the owner cannot be removed.
func (h *ProjectHandlers) RemoveCollaborator(c echo.Context) error {
	project, err := h.ownedProject(c)
	if err != nil {
		return err
	}
	var req collaboratorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == project.UserID {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot remove the project owner")
	}

	removed, err := h.repo.RemoveCollaborator(c.Request().Context(), project.ID, req.UserID)
	if err != nil {
		return err
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "user is not a collaborator")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "collaborator removed"})
}

type statusRequest struct {
	Status string `json:"status"`
}

// AssignStatus sets the project's status. Owner only.
func (h *ProjectHandlers) AssignStatus(c echo.Context) error {
	project, err := h.ownedProject(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !models.ValidStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project status")
	}

	project.Status = req.Status
	if err := h.repo.UpdateProject(c.Request().Context(), project); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// ownedProject loads the addressed project and checks that the caller owns
// it.
func (h *ProjectHandlers) ownedProject(c echo.Context) (*models.Project, error) {
	id, err := projectID(c)
	if err != nil {
		return nil, err
	}
	project, err := h.repo.GetProjectByID(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	user := authctx.User(c.Request().Context())
	if project.UserID != user.ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "only the project owner can do this")
	}
	return project, nil
}

func projectID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}
	return id, nil
}

func queryLimit(c echo.Context, fallback int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		return fallback
	}
	return min(limit, maxListLimit)
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates. Plain end
// dates are pushed to the end of the day so the bound is inclusive.
func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
