package repositories

import (
	"context"
	"fmt"
	"time"

	"agora/internal/database"
	"agora/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postQuery aggregates the likedBy set alongside each post so the derived
// like count can never drift from it.
const postQuery = `
	SELECT p.id, p.title, p.content, p.author_id, p.created_at, p.updated_at,
	       COALESCE(array_agg(pl.user_id::text) FILTER (WHERE pl.user_id IS NOT NULL), '{}') AS liked_by
	FROM posts p
	LEFT JOIN post_likes pl ON pl.post_id = p.id
`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(db *database.DB) *PostRepository {
	return &PostRepository{pool: db.Pool}
}

func scanPostRow(scanner rowScanner) (*models.Post, error) {
	var post models.Post

	err := scanner.Scan(
		&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.CreatedAt, &post.UpdatedAt, &post.LikedBy,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	post.Likes = len(post.LikedBy)
	return &post, nil
}

func scanPostRows(rows pgx.Rows) ([]*models.Post, error) {
	defer rows.Close()

	posts := make([]*models.Post, 0)

	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return posts, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.ID = uuid.New().String()

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	query := `
		INSERT INTO posts (id, title, content, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.AuthorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	post.LikedBy = []string{}
	post.CommentIDs = []string{}
	return post, nil
}

// GetByID returns a post with its likedBy set, comment ids and reports
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := postQuery + ` WHERE p.id = $1 GROUP BY p.id`

	post, err := scanPostRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	commentIDs, err := r.commentIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	post.CommentIDs = commentIDs

	reports, err := r.reports(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Reports = reports

	return post, nil
}

func (r *PostRepository) commentIDs(ctx context.Context, postID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM comments WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comment ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan comment id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *PostRepository) reports(ctx context.Context, postID string) ([]models.Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT reporter_id, reason, created_at FROM post_reports WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var report models.Report
		if err := rows.Scan(&report.ReporterID, &report.Reason, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := postQuery + ` GROUP BY p.id ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	return scanPostRows(rows)
}

// Search filters posts by a case-insensitive substring match on title or
// content. No ranking; newest first.
func (r *PostRepository) Search(ctx context.Context, term string, limit, offset int) ([]*models.Post, error) {
	query := postQuery + `
		WHERE p.title ILIKE '%' || $1 || '%' OR p.content ILIKE '%' || $1 || '%'
		GROUP BY p.id ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, term, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	return scanPostRows(rows)
}

func (r *PostRepository) Update(ctx context.Context, id, title, content string) error {
	query := `UPDATE posts SET title = $2, content = $3, updated_at = $4 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, title, content, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Like records a like; liking twice is a no-op
func (r *PostRepository) Like(ctx context.Context, postID, userID string) error {
	query := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, postID, userID)
	return database.MapPostgresError(err)
}

// Unlike removes a like; unliking a post never liked is a no-op
func (r *PostRepository) Unlike(ctx context.Context, postID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return database.MapPostgresError(err)
}

func (r *PostRepository) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
		postID, userID).Scan(&liked)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return liked, nil
}

// Report flags a post. The composite primary key rejects a second report
// from the same reporter as ErrConflict.
func (r *PostRepository) Report(ctx context.Context, postID, reporterID, reason string) error {
	query := `
		INSERT INTO post_reports (post_id, reporter_id, reason)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, postID, reporterID, reason)
	return database.MapPostgresError(err)
}

// ListReported returns posts with at least one open report, most reported first
func (r *PostRepository) ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := postQuery + `
		WHERE EXISTS (SELECT 1 FROM post_reports pr WHERE pr.post_id = p.id)
		GROUP BY p.id
		ORDER BY (SELECT COUNT(*) FROM post_reports pr WHERE pr.post_id = p.id) DESC, p.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reported posts: %w", err)
	}

	posts, err := scanPostRows(rows)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		reports, err := r.reports(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		post.Reports = reports
	}

	return posts, nil
}

// ClearReports dismisses all reports on a post
func (r *PostRepository) ClearReports(ctx context.Context, postID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM post_reports WHERE post_id = $1`, postID)
	return database.MapPostgresError(err)
}
