// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	assert.NotZero(t, project.ID)
	assert.Equal(t, models.StatusInProgress, project.Status)
	assert.Equal(t, "v1.0", project.Version)
	assert.Equal(t, "MIT", project.License)

	// The owner is a collaborator from the start.
	isCollab, err := repo.IsCollaborator(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isCollab)
}

func TestGetProjectByID_RoundTripsLists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	created := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	retrieved, err := repo.GetProjectByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "testing"}, retrieved.Tags)
	assert.Equal(t, []string{"sqlite"}, retrieved.Technologies)
}

func TestGetProjectByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetProjectByID(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	project.Title = "devshelf v2"
	project.Status = models.StatusReleased
	project.Tags = []string{"go"}
	require.NoError(t, repo.UpdateProject(ctx, project))

	retrieved, err := repo.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "devshelf v2", retrieved.Title)
	assert.Equal(t, models.StatusReleased, retrieved.Status)
	assert.Equal(t, []string{"go"}, retrieved.Tags)
}

func TestDeleteProject_CascadesChildren(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")
	_, err := repo.AddLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject(ctx, project.ID))

	_, err = repo.GetProjectByID(ctx, project.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListFeedProjects_PublicOnly(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	testutil.NewTestProject(t, repo, owner.ID, "public-project")
	private := &models.Project{UserID: owner.ID, Title: "private-project", IsPublic: false}
	require.NoError(t, repo.CreateProject(ctx, private))

	feed, err := repo.ListFeedProjects(ctx, 20)

	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "public-project", feed[0].Title)
}

func TestListTrendingProjects_OrdersByLikes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	fan := testutil.NewTestUser(t, repo, "bob")
	quiet := testutil.NewTestProject(t, repo, owner.ID, "quiet")
	popular := testutil.NewTestProject(t, repo, owner.ID, "popular")

	_, err := repo.AddLike(ctx, popular.ID, owner.ID)
	require.NoError(t, err)
	_, err = repo.AddLike(ctx, popular.ID, fan.ID)
	require.NoError(t, err)
	_, err = repo.AddLike(ctx, quiet.ID, fan.ID)
	require.NoError(t, err)

	trending, err := repo.ListTrendingProjects(ctx, 10)

	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "popular", trending[0].Title)
	assert.Equal(t, int64(2), trending[0].LikeCount)
	assert.Equal(t, "quiet", trending[1].Title)
}

func TestSearchProjects(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	testutil.NewTestProject(t, repo, owner.ID, "weather station")
	testutil.NewTestProject(t, repo, owner.ID, "todo app")

	results, err := repo.SearchProjects(ctx, "weather")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "weather station", results[0].Title)
}

func TestListProjectsByTag(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	tagged := &models.Project{UserID: owner.ID, Title: "tagged", IsPublic: true, Tags: []string{"rust"}}
	require.NoError(t, repo.CreateProject(ctx, tagged))
	testutil.NewTestProject(t, repo, owner.ID, "untagged")

	results, err := repo.ListProjectsByTag(ctx, "rust")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tagged", results[0].Title)
}

func TestListProjectsByDateRange(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	testutil.NewTestProject(t, repo, owner.ID, "recent")

	now := time.Now().UTC()
	results, err := repo.ListProjectsByDateRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = repo.ListProjectsByDateRange(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListProjectsPage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	for _, title := range []string{"one", "two", "three"} {
		testutil.NewTestProject(t, repo, owner.ID, title)
	}

	page, total, err := repo.ListProjectsPage(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, total, err = repo.ListProjectsPage(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestListUserProjects_IncludesCollaborations(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	collaborator := testutil.NewTestUser(t, repo, "bob")
	project := testutil.NewTestProject(t, repo, owner.ID, "shared")
	require.NoError(t, repo.AddCollaborator(ctx, project.ID, collaborator.ID))

	projects, err := repo.ListUserProjects(ctx, collaborator.ID)

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "shared", projects[0].Title)
}

func TestAddLike_Idempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	added, err := repo.AddLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestRemoveLike(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")
	_, err := repo.AddLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)

	removed, err := repo.RemoveLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveLike(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestComments(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	comment := &models.Comment{ProjectID: project.ID, UserID: owner.ID, Comment: "nice work"}
	require.NoError(t, repo.AddComment(ctx, comment))
	assert.NotZero(t, comment.ID)

	comments, err := repo.ListComments(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice work", comments[0].Comment)

	retrieved, err := repo.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retrieved.CommentCount)
}

func TestCollaborators(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	collaborator := testutil.NewTestUser(t, repo, "bob")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	require.NoError(t, repo.AddCollaborator(ctx, project.ID, collaborator.ID))
	// Adding twice is fine.
	require.NoError(t, repo.AddCollaborator(ctx, project.ID, collaborator.ID))

	isCollab, err := repo.IsCollaborator(ctx, project.ID, collaborator.ID)
	require.NoError(t, err)
	assert.True(t, isCollab)

	removed, err := repo.RemoveCollaborator(ctx, project.ID, collaborator.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveCollaborator(ctx, project.ID, collaborator.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIncrementViews(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, repo, "alice")
	project := testutil.NewTestProject(t, repo, owner.ID, "devshelf")

	require.NoError(t, repo.IncrementViews(ctx, project.ID))
	require.NoError(t, repo.IncrementViews(ctx, project.ID))

	retrieved, err := repo.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), retrieved.Views)
}
