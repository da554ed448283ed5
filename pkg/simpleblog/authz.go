package simpleblog

import "github.com/google/uuid"

// Owned is implemented by resources that record an owning user.
type Owned interface {
	OwnedBy() uuid.UUID
}

// CanModify reports whether the acting user may mutate the resource.
// Ownership is the only rule today; role-based checks would slot in
// here without touching store logic.
func CanModify(actor *User, resource Owned) bool {
	if actor == nil {
		return false
	}
	return actor.ID == resource.OwnedBy()
}
