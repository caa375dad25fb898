package user_test

import (
	"testing"

	"github.com/geocoder89/taskify/internal/domain/user"
)

func TestUpdateProfileRequestApplyTo(t *testing.T) {
	name := "New Name"
	password := "plaintext-candidate"

	u := user.User{
		ID:           "user-1",
		Name:         "Old Name",
		Email:        "a@a.com",
		PasswordHash: "$old-hash",
	}

	req := user.UpdateProfileRequest{Name: &name, Password: &password}
	req.ApplyTo(&u)

	if u.Name != "New Name" {
		t.Fatalf("got name %q, want New Name", u.Name)
	}

	// email has no corresponding request field and must survive any payload
	if u.Email != "a@a.com" {
		t.Fatalf("email changed to %q", u.Email)
	}

	// hashing happens at the handler, never inside ApplyTo
	if u.PasswordHash != "$old-hash" {
		t.Fatalf("ApplyTo must not touch the stored hash, got %q", u.PasswordHash)
	}
}

func TestUpdateProfileRequestEmpty(t *testing.T) {
	if !(user.UpdateProfileRequest{}).Empty() {
		t.Fatal("zero request should be empty")
	}

	name := "x"
	if (user.UpdateProfileRequest{Name: &name}).Empty() {
		t.Fatal("request with a field should not be empty")
	}
}
