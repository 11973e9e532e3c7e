package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contacts-api/internal/domain"
)

// ContactRepository define el contrato de persistencia para contactos.
// Todas las operaciones filtran por owner; un contacto ajeno es invisible.
type ContactRepository interface {
	Create(ctx context.Context, contact domain.Contact) error
	GetByID(ctx context.Context, owner, id string) (domain.Contact, error)
	List(ctx context.Context, owner string, favorite *bool, limit, offset int) ([]domain.Contact, int, error)
	Update(ctx context.Context, contact domain.Contact) (domain.Contact, error)
	UpdateFavorite(ctx context.Context, owner, id string, favorite bool) (domain.Contact, error)
	Delete(ctx context.Context, owner, id string) error
}

// PgContactRepository implementa ContactRepository usando pgxpool.
type PgContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

const contactColumns = `id, name, email, phone, favorite, owner, created_at`

func (r *PgContactRepository) Create(ctx context.Context, contact domain.Contact) error {
	const query = `
		INSERT INTO contacts (id, name, email, phone, favorite, owner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
		contact.Owner,
		contact.CreatedAt,
	)
	return err
}

func (r *PgContactRepository) GetByID(ctx context.Context, owner, id string) (domain.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE owner = $1 AND id = $2`
	return r.scanContact(r.pool.QueryRow(ctx, query, owner, id))
}

func (r *PgContactRepository) List(ctx context.Context, owner string, favorite *bool, limit, offset int) ([]domain.Contact, int, error) {
	const countQuery = `SELECT COUNT(*) FROM contacts WHERE owner = $1 AND ($2::boolean IS NULL OR favorite = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, owner, favorite).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner = $1 AND ($2::boolean IS NULL OR favorite = $2)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, listQuery, owner, favorite, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0, limit)
	for rows.Next() {
		c, err := r.scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *PgContactRepository) Update(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	const query = `
		UPDATE contacts
		SET name = $3, email = $4, phone = $5, favorite = $6
		WHERE owner = $1 AND id = $2
		RETURNING ` + contactColumns + `
	`
	return r.scanContact(r.pool.QueryRow(ctx, query,
		contact.Owner,
		contact.ID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
	))
}

func (r *PgContactRepository) UpdateFavorite(ctx context.Context, owner, id string, favorite bool) (domain.Contact, error) {
	const query = `
		UPDATE contacts
		SET favorite = $3
		WHERE owner = $1 AND id = $2
		RETURNING ` + contactColumns + `
	`
	return r.scanContact(r.pool.QueryRow(ctx, query, owner, id, favorite))
}

func (r *PgContactRepository) Delete(ctx context.Context, owner, id string) error {
	const query = `DELETE FROM contacts WHERE owner = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, owner, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgContactRepository) scanContact(row pgx.Row) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Favorite,
		&c.Owner,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.Contact{}, err
	}
	return c, nil
}
