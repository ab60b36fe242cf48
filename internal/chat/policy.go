package chat

import "github.com/belchote2025/nuevaweb-sub001/internal/models"

// Policy decides whether a role may read or write a room. It is a
// pure function over the configured privileged role set.
type Policy struct {
	privileged map[string]struct{}
}

// NewPolicy builds a Policy from the privileged role list.
func NewPolicy(privilegedRoles []string) Policy {
	set := make(map[string]struct{}, len(privilegedRoles))
	for _, r := range privilegedRoles {
		set[r] = struct{}{}
	}
	return Policy{privileged: set}
}

// CanAccess reports whether role may read and write room.
// Unrestricted rooms are open to everyone; restricted rooms only to
// privileged roles.
func (p Policy) CanAccess(room models.Room, role string) bool {
	if !room.Restricted {
		return true
	}
	_, ok := p.privileged[role]
	return ok
}
