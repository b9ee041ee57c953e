package domain

import "time"

// Subscription tiers a user account can hold.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// User represents an account record.
//
// VerificationCode is present while the account is unverified and cleared the
// moment verification succeeds. SessionToken holds the single currently valid
// bearer token; empty means signed out.
type User struct {
	ID               string
	Email            string
	PasswordHash     []byte
	Subscription     string
	Verified         bool
	VerificationCode string
	SessionToken     string
	AvatarURL        string
	CreatedAt        time.Time
}
