package policy_test

import (
	"errors"
	"testing"

	"github.com/geocoder89/taskify/internal/policy"
)

func TestAssertOwnership(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		caller  string
		wantErr bool
	}{
		{"owner_matches", "user-a", "user-a", false},
		{"different_user", "user-a", "user-b", true},
		{"empty_caller", "user-a", "", true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			err := policy.AssertOwnership(tt.ownerID, tt.caller)

			if tt.wantErr {
				if !errors.Is(err, policy.ErrForbidden) {
					t.Fatalf("got %v, want ErrForbidden", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
