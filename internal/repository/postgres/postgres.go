package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ContactRepository = (*Repository)(nil)
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, subscription, verified, COALESCE(verification_code, ''), COALESCE(session_token, ''), avatar_url, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Subscription, &u.Verified, &u.VerificationCode, &u.SessionToken, &u.AvatarURL, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, subscription, verified, verification_code, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		strings.TrimSpace(user.Email),
		user.PasswordHash,
		user.Subscription,
		user.Verified,
		user.VerificationCode,
		user.AvatarURL,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// ConsumeVerificationCode flips the matching user to verified and clears the
// code in one statement, so only a single concurrent caller can win.
func (r *Repository) ConsumeVerificationCode(ctx context.Context, code string) (*domain.User, error) {
	const query = `UPDATE users
		SET verified = TRUE, verification_code = NULL
		WHERE verification_code = $1 AND verified = FALSE
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, code))
}

// UpdateSessionToken stores the current session token, superseding any prior one.
func (r *Repository) UpdateSessionToken(ctx context.Context, id, tok string) error {
	const query = `UPDATE users SET session_token = NULLIF($2, '') WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, tok)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAvatarURL stores the served avatar path for the user.
func (r *Repository) UpdateAvatarURL(ctx context.Context, id, avatarURL string) error {
	const query = `UPDATE users SET avatar_url = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, avatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
