package domain

import "time"

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Favorite  bool
	CreatedAt time.Time
}
