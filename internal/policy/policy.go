// Package policy decides whether the caller may act on a resource.
// The Gate is a registry of policies keyed by resource type; staff pass every
// check and customers are limited to what their account owns.
package policy

import (
	"context"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/internal/apperr"
)

// Action describes the kind of operation a caller wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy defines authorization rules for a resource type.
type Policy interface {
	Can(ctx context.Context, userID uint, action Action, resource any) bool
}

// Owned is implemented by records that belong to an account.
type Owned interface {
	GetAccountID() uint
}

// OwnershipPolicy allows any action on resources owned by the caller.
type OwnershipPolicy struct{}

func (OwnershipPolicy) Can(_ context.Context, userID uint, _ Action, resource any) bool {
	o, ok := resource.(Owned)
	return ok && o.GetAccountID() == userID
}

// StaffOnly denies every customer action.
type StaffOnly struct{}

func (StaffOnly) Can(context.Context, uint, Action, any) bool { return false }

// Gate is the central authorization checkpoint.
type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register adds a policy for a resource type, replacing any previous one.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns nil when the caller in ctx may perform action. Unknown
// resource types are denied.
func (g *Gate) Authorize(ctx context.Context, action Action, resourceType string, resource any) error {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok || uid == 0 {
		return apperr.Unauthorized("authentication required")
	}
	if auth.IsAdmin(ctx) {
		return nil
	}
	p, ok := g.policies[resourceType]
	if !ok || !p.Can(ctx, uid, action, resource) {
		return apperr.Forbidden("not allowed to " + string(action) + " this " + resourceType)
	}
	return nil
}

// Default registers the ownership rules of the API.
func Default() *Gate {
	g := NewGate()
	owner := OwnershipPolicy{}
	g.Register("quote", owner)
	g.Register("tax_return", owner)
	g.Register("account", owner)
	g.Register("reference", StaffOnly{})
	return g
}
