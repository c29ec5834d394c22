package repositories

import (
	"context"
	"fmt"
	"time"

	"agora/internal/database"
	"agora/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, post_id, author_id, content, created_at, updated_at`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{pool: db.Pool}
}

func scanCommentRow(scanner rowScanner) (*models.Comment, error) {
	var comment models.Comment

	err := scanner.Scan(
		&comment.ID, &comment.PostID, &comment.AuthorID,
		&comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.ID = uuid.New().String()

	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	query := `
		INSERT INTO comments (id, post_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + commentColumns

	return scanCommentRow(r.pool.QueryRow(ctx, query,
		comment.ID, comment.PostID, comment.AuthorID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt,
	))
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	return scanCommentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanCommentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (r *CommentRepository) Update(ctx context.Context, id, content string) error {
	query := `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, content, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
