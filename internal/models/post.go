package models

import (
	"time"
)

type Post struct {
	ID       string
	Title    string
	Content  string
	AuthorID string

	// Likes is derived from the post_likes table at query time and always
	// equals len(LikedBy).
	Likes   int
	LikedBy []string

	CommentIDs []string
	Reports    []Report

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Report records a user flagging a post for moderation. A reporter appears at
// most once per post and authors cannot report their own posts.
type Report struct {
	ReporterID string
	Reason     string
	CreatedAt  time.Time
}
