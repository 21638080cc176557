package service

import "github.com/google/uuid"

// Actor identifies who is performing an operation. It is built from the JWT
// claims by the handlers and threaded into every mutating service call so
// audit rows and authorization checks have a consistent source.
type Actor struct {
	ID       uuid.UUID
	Name     string
	Role     string
	BranchID *uuid.UUID // nil for admins not pinned to a branch
}

// AtBranch reports whether the actor is allowed to act on behalf of the given
// branch. Admins act anywhere; everyone else only at their own branch.
func (a Actor) AtBranch(branchID uuid.UUID) bool {
	if a.Role == "admin" {
		return true
	}
	return a.BranchID != nil && *a.BranchID == branchID
}
