// Package authz holds the pure authorization rules for tasks and user
// management. It does no I/O; callers load the resource first and ask
// for a decision.
package authz

import (
	"errors"

	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/domain/user"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	// an admin may never change their own role or delete their own account
	ErrSelfAction = errors.New("action not allowed on own account")
)

// Actor is the authenticated identity making a request, as decoded
// from the session token.
type Actor struct {
	ID       int64
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// CanViewTask reports whether the actor may see a task in a listing.
// Listings are owner-scoped for every role: admins do not get a global
// task list, only mutation override. This narrowing is intentional.
func CanViewTask(actor Actor, t task.Task) bool {
	return t.OwnerID == actor.ID
}

// CanMutateTask reports whether the actor may update or delete a task:
// the owner always can, and an admin can act on any user's task.
func CanMutateTask(actor Actor, t task.Task) bool {
	return t.OwnerID == actor.ID || actor.IsAdmin()
}

// CanManageUsers gates the whole admin user-management surface.
func CanManageUsers(actor Actor) bool {
	return actor.IsAdmin()
}

// CanChangeRole decides whether actor may set targetID's role.
// Self-change is denied regardless of any other argument so an admin
// cannot strip their own rights.
func CanChangeRole(actor Actor, targetID int64) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if targetID == actor.ID {
		return ErrSelfAction
	}
	return nil
}

// CanDeleteUser decides whether actor may delete targetID's account.
// Self-deletion is denied regardless of any other argument.
func CanDeleteUser(actor Actor, targetID int64) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if targetID == actor.ID {
		return ErrSelfAction
	}
	return nil
}
