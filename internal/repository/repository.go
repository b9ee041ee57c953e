package repository

import (
	"context"

	"github.com/ybilyk/contactbook/internal/domain"
)

// UserRepository persists account records.
type UserRepository interface {
	// CreateUser inserts a user. A duplicate email yields ErrConflict.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	// ConsumeVerificationCode atomically marks the user holding the code as
	// verified and clears the code. Exactly one concurrent caller per code can
	// succeed; losers get ErrNotFound.
	ConsumeVerificationCode(ctx context.Context, code string) (*domain.User, error)
	// UpdateSessionToken replaces the stored session token. An empty token
	// signs the user out.
	UpdateSessionToken(ctx context.Context, id, token string) error
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) error
}

// ContactRepository persists address-book entries. Every operation is scoped
// to the owning user, so one tenant can never see another's contacts.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *domain.Contact) error
	GetContact(ctx context.Context, ownerID, id string) (*domain.Contact, error)
	ListContacts(ctx context.Context, ownerID string) ([]domain.Contact, error)
	UpdateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	UpdateContactFavorite(ctx context.Context, ownerID, id string, favorite bool) (*domain.Contact, error)
	DeleteContact(ctx context.Context, ownerID, id string) error
}
