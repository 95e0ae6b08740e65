// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package models

import "time"

// Project statuses.
const (
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusAbandoned  = "Abandoned"
	StatusReleased   = "Released"
)

// ValidStatus reports whether s is a known project status.
func ValidStatus(s string) bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusAbandoned, StatusReleased:
		return true
	}
	return false
}

// Project is a shared project. Tags and Technologies are stored as JSON
// arrays in SQLite and marshalled by the repository.
type Project struct { //nolint:govet // fieldalignment: readability over optimization
	ID            int64     `db:"id" json:"id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Image         string    `db:"image" json:"image"`
	Status        string    `db:"status" json:"status"`
	Version       string    `db:"version" json:"version"`
	License       string    `db:"license" json:"license"`
	IsPublic      bool      `db:"is_public" json:"is_public"`
	RepositoryURL string    `db:"repository_url" json:"repository_url"`
	LiveDemoURL   string    `db:"live_demo_url" json:"live_demo_url"`
	Views         int64     `db:"views" json:"views"`
	Tags          []string  `db:"-" json:"tags"`
	Technologies  []string  `db:"-" json:"technologies"`

	// Aggregates filled in by the repository on reads.
	LikeCount    int64 `db:"-" json:"like_count"`
	CommentCount int64 `db:"-" json:"comment_count"`
}

// Comment is a user comment on a project.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Comment   string    `db:"comment" json:"comment"`
}

// Feedback is structured feedback on a project.
type Feedback struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Feedback  string    `db:"feedback" json:"feedback"`
}
