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

const userColumns = `id, username, email, password_hash, role, is_verified,
	verification_token_hash, verification_token_expires_at,
	reset_token_hash, reset_token_expires_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable token fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsVerified,
		&user.VerificationTokenHash, &user.VerificationTokenExpiresAt,
		&user.ResetTokenHash, &user.ResetTokenExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.IsVerified, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// UpdateProfile changes the username and optionally the password hash.
// Username uniqueness is enforced by the unique constraint and surfaces as
// ErrConflict.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username string, passwordHash *string) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $2, password_hash = COALESCE($3, password_hash), updated_at = $4
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, id, username, passwordHash, time.Now()))
}

// Delete removes a user. Owned posts, comments, likes and reports are
// removed by the schema's ON DELETE CASCADE foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.setToken(ctx, userID, "verification_token_hash", "verification_token_expires_at", tokenHash, expiresAt)
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.setToken(ctx, userID, "reset_token_hash", "reset_token_expires_at", tokenHash, expiresAt)
}

func (r *UserRepository) setToken(ctx context.Context, userID, hashCol, expiryCol, tokenHash string, expiresAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE users SET %s = $2, %s = $3, updated_at = $4
		WHERE id = $1
	`, hashCol, expiryCol)

	result, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ConsumeVerificationToken marks the matching user verified and clears the
// token pair in one conditional update. The WHERE clause is the whole
// guarantee: two concurrent consumes race on the same row and only one
// UPDATE finds the digest still set and unexpired.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET is_verified = TRUE,
		    verification_token_hash = NULL,
		    verification_token_expires_at = NULL,
		    updated_at = $2
		WHERE verification_token_hash = $1
		  AND verification_token_expires_at > $2
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, tokenHash, now))
}

// ConsumeResetToken stores the new password hash and clears the reset token
// pair in one conditional update, with the same single-winner race semantics
// as ConsumeVerificationToken.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL,
		    updated_at = $3
		WHERE reset_token_hash = $1
		  AND reset_token_expires_at > $3
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, tokenHash, newPasswordHash, now))
}

// ClearExpiredTokens nulls out token pairs whose expiry has passed. Run by
// the background cleanup job; consumption does not depend on it.
func (r *UserRepository) ClearExpiredTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET verification_token_hash = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_hash END,
		    verification_token_expires_at = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_expires_at END,
		    reset_token_hash = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_hash END,
		    reset_token_expires_at = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_expires_at END
		WHERE verification_token_expires_at <= NOW()
		   OR reset_token_expires_at <= NOW()
	`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
