package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpdateProfileRequest carries the self-service profile mutation. Email is
// deliberately absent: it is immutable after registration, and an "email"
// key in the payload is dropped at bind time because no field maps to it.
// New mutable fields must be added here explicitly (allow-list, not strip).
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// ApplyTo overlays the provided fields on u. The password field is a plain
// text candidate; hashing happens before persistence, not here.
func (r UpdateProfileRequest) ApplyTo(u *User) {
	if r.Name != nil {
		u.Name = *r.Name
	}
}

func (r UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.Password == nil
}
