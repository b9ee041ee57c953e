package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/repository"
)

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at`

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateContact inserts an address-book entry.
func (r *Repository) CreateContact(ctx context.Context, contact *domain.Contact) error {
	const query = `INSERT INTO contacts (id, owner_id, name, email, phone, favorite, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.OwnerID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
		contact.CreatedAt,
	)
	return err
}

// GetContact fetches a single contact owned by the given user.
func (r *Repository) GetContact(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner_id = $2`
	return scanContact(r.pool.QueryRow(ctx, query, id, ownerID))
}

// ListContacts returns all contacts owned by the given user.
func (r *Repository) ListContacts(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// UpdateContact replaces the mutable fields of a contact.
func (r *Repository) UpdateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	const query = `UPDATE contacts
		SET name = $3, email = $4, phone = $5, favorite = $6
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + contactColumns
	return scanContact(r.pool.QueryRow(ctx, query,
		contact.ID,
		contact.OwnerID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
	))
}

// UpdateContactFavorite toggles the favorite flag.
func (r *Repository) UpdateContactFavorite(ctx context.Context, ownerID, id string, favorite bool) (*domain.Contact, error) {
	const query = `UPDATE contacts SET favorite = $3 WHERE id = $1 AND owner_id = $2 RETURNING ` + contactColumns
	return scanContact(r.pool.QueryRow(ctx, query, id, ownerID, favorite))
}

// DeleteContact removes a contact owned by the given user.
func (r *Repository) DeleteContact(ctx context.Context, ownerID, id string) error {
	const query = `DELETE FROM contacts WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
