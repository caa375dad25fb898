package policy

import "errors"

var ErrForbidden = errors.New("forbidden")

// AssertOwnership gates every task mutation: only the user id stored as the
// task's owner may touch it. Pure comparison, no store lookup.
func AssertOwnership(resourceOwnerID, callerID string) error {
	if resourceOwnerID != callerID {
		return ErrForbidden
	}

	return nil
}
