package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contacts-api/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (domain.User, error)
	UpdateToken(ctx context.Context, id string, token *string) error
	UpdateVerificationToken(ctx context.Context, id string, token string) error
	ConsumeVerificationToken(ctx context.Context, token string) error
	UpdateSubscription(ctx context.Context, id, subscription string) error
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, subscription, avatar_url, verify, verification_token, token, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, subscription, avatar_url, verify, verification_token, token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Subscription,
		user.AvatarURL,
		user.Verify,
		user.VerificationToken,
		user.Token,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, token))
}

func (r *PgUserRepository) UpdateToken(ctx context.Context, id string, token *string) error {
	const query = `UPDATE users SET token = $2 WHERE id = $1`
	return r.exec(ctx, query, id, token)
}

func (r *PgUserRepository) UpdateVerificationToken(ctx context.Context, id string, token string) error {
	const query = `UPDATE users SET verification_token = $2 WHERE id = $1`
	return r.exec(ctx, query, id, token)
}

// ConsumeVerificationToken marca la cuenta verificada solo si el token sigue
// vigente; dos confirmaciones concurrentes dejan una sola ganadora.
func (r *PgUserRepository) ConsumeVerificationToken(ctx context.Context, token string) error {
	const query = `UPDATE users SET verify = TRUE, verification_token = NULL WHERE verification_token = $1`
	return r.exec(ctx, query, token)
}

func (r *PgUserRepository) UpdateSubscription(ctx context.Context, id, subscription string) error {
	const query = `UPDATE users SET subscription = $2 WHERE id = $1`
	return r.exec(ctx, query, id, subscription)
}

func (r *PgUserRepository) UpdateAvatarURL(ctx context.Context, id, avatarURL string) error {
	const query = `UPDATE users SET avatar_url = $2 WHERE id = $1`
	return r.exec(ctx, query, id, avatarURL)
}

func (r *PgUserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Subscription,
		&u.AvatarURL,
		&u.Verify,
		&u.VerificationToken,
		&u.Token,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
