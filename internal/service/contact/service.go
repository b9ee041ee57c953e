// Package contact manages per-user address-book entries.
package contact

import (
	"context"
	"regexp"
	"time"

	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/repository"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Input carries the mutable contact fields.
type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
}

// Validate checks the contact fields.
func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(3, 30)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Phone, validation.Required, validation.Match(phonePattern)),
	)
}

// FavoriteInput carries the favorite toggle. The pointer distinguishes an
// absent field from an explicit false.
type FavoriteInput struct {
	Favorite *bool `json:"favorite"`
}

// Validate requires the favorite field to be present.
func (in FavoriteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Favorite, validation.NotNil),
	)
}

// Service handles contact CRUD on behalf of the authenticated owner.
type Service struct {
	contacts repository.ContactRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(contacts repository.ContactRepository, logger *slog.Logger) Service {
	return Service{contacts: contacts, logger: logger}
}

// List returns all contacts owned by the user.
func (s Service) List(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	return s.contacts.ListContacts(ctx, ownerID)
}

// Get returns a single contact owned by the user.
func (s Service) Get(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	return s.contacts.GetContact(ctx, ownerID, id)
}

// Create stores a new contact for the user.
func (s Service) Create(ctx context.Context, ownerID string, in Input) (*domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	contact := &domain.Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Favorite:  in.Favorite,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.contacts.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("contact created", "contact_id", contact.ID, "user_id", ownerID)
	return contact, nil
}

// Update replaces the contact's fields.
func (s Service) Update(ctx context.Context, ownerID, id string, in Input) (*domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.contacts.UpdateContact(ctx, &domain.Contact{
		ID:       id,
		OwnerID:  ownerID,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Favorite: in.Favorite,
	})
}

// UpdateFavorite toggles the favorite flag.
func (s Service) UpdateFavorite(ctx context.Context, ownerID, id string, in FavoriteInput) (*domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.contacts.UpdateContactFavorite(ctx, ownerID, id, *in.Favorite)
}

// Delete removes the contact.
func (s Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.contacts.DeleteContact(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("contact deleted", "contact_id", id, "user_id", ownerID)
	return nil
}
