// Package auth implements the account lifecycle: registration with hashed
// credentials, email-verification gating, single-active-token sessions and
// the two-phase bearer token check used by the HTTP middleware.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/ybilyk/contactbook/internal/avatar"
	"github.com/ybilyk/contactbook/internal/config"
	"github.com/ybilyk/contactbook/internal/crypto"
	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/mail"
	"github.com/ybilyk/contactbook/internal/repository"
	"github.com/ybilyk/contactbook/internal/token"
)

var (
	ErrEmailInUse         = errors.New("auth: email in use")
	ErrEmailUnknown       = errors.New("auth: email unknown")
	ErrAlreadyVerified    = errors.New("auth: email already verified")
	ErrCodeInvalid        = errors.New("auth: verification code invalid")
	ErrInvalidCredentials = errors.New("auth: email or password invalid")
	ErrEmailNotVerified   = errors.New("auth: email not verified")
	ErrSessionRevoked     = errors.New("auth: session revoked")
)

// Mailer enqueues outbound email for background delivery.
type Mailer interface {
	Enqueue(msg mail.Message)
}

// Service orchestrates signup, signin, signout and verification.
type Service struct {
	users   repository.UserRepository
	mailer  Mailer
	avatars *avatar.Storage
	logger  *slog.Logger
	cfg     config.Config
}

// New constructs a Service.
func New(users repository.UserRepository, mailer Mailer, avatars *avatar.Storage, logger *slog.Logger, cfg config.Config) Service {
	return Service{users: users, mailer: mailer, avatars: avatars, logger: logger, cfg: cfg}
}

// Signup registers a new, unverified user and dispatches the verification
// email. Email delivery is fire-and-forget: a failed send is logged by the
// dispatcher and never rolls back the account.
func (s Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := newVerificationCode()
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     hash,
		Subscription:     domain.SubscriptionStarter,
		VerificationCode: code,
		AvatarURL:        gravatarURL(email),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	s.mailer.Enqueue(verificationEmail(s.cfg.PublicBaseURL, email, code))
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// VerifyEmail consumes a verification code. The store performs the lookup and
// clear as one atomic step, so a code can be used exactly once; a second
// attempt finds no matching user and fails the same way an unknown code does.
func (s Service) VerifyEmail(ctx context.Context, code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ErrCodeInvalid
	}
	user, err := s.users.ConsumeVerificationCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	s.logger.Info("email verified", "user_id", user.ID)
	return nil
}

// ResendVerification re-sends the verification email for an unverified user.
// The stored code is reused rather than rotated, so a previously emailed link
// stays valid.
func (s Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmailUnknown
		}
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	s.mailer.Enqueue(verificationEmail(s.cfg.PublicBaseURL, user.Email, user.VerificationCode))
	s.logger.Info("verification email re-sent", "user_id", user.ID)
	return nil
}

// SignIn authenticates a user and issues a fresh session token, superseding
// any previously issued one. An unknown email and a wrong password produce
// the same error so callers cannot enumerate accounts.
func (s Service) SignIn(ctx context.Context, in SigninInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.Verified {
		return "", ErrEmailNotVerified
	}
	if err := crypto.ComparePassword(user.PasswordHash, in.Password); err != nil {
		return "", ErrInvalidCredentials
	}
	tok, err := token.Issue(user.ID, s.cfg.JWTSecret, s.cfg.SessionTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	if err := s.users.UpdateSessionToken(ctx, user.ID, tok); err != nil {
		return "", err
	}
	s.logger.Info("user signed in", "user_id", user.ID)
	return tok, nil
}

// SignOut clears the stored session token. Signing out twice is not an error.
func (s Service) SignOut(ctx context.Context, userID string) error {
	if err := s.users.UpdateSessionToken(ctx, userID, ""); err != nil {
		return err
	}
	s.logger.Info("user signed out", "user_id", userID)
	return nil
}

// VerifyToken is the stateless half of authorization: it checks signature and
// expiry only.
func (s Service) VerifyToken(raw string) (*token.Claims, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("token required")
	}
	return token.Parse(trimmed, s.cfg.JWTSecret)
}

// ResolveSession is the store-backed half: the token must still be the user's
// current session token. This is what makes signout and a later signin revoke
// earlier tokens even though they remain cryptographically valid until expiry.
func (s Service) ResolveSession(ctx context.Context, userID, raw string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if user.SessionToken == "" || user.SessionToken != raw {
		return nil, ErrSessionRevoked
	}
	return user, nil
}

// UpdateAvatar stores the uploaded image and records its served path on the
// user.
func (s Service) UpdateAvatar(ctx context.Context, userID string, src io.Reader, filename string) (string, error) {
	url, err := s.avatars.Save(src, filename)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	s.logger.Info("avatar updated", "user_id", userID)
	return url, nil
}
