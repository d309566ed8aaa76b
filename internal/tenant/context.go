package tenant

import (
	"context"

	"fieldsafe/internal/models"
)

type ctxKey string

const tenantKey ctxKey = "tenantContext"

// Context is the resolved tenant scope for one request. It is computed
// once per request from stored user and organization state and is never
// cached across requests. An empty Context authorizes nothing.
type Context struct {
	UserID                string
	Role                  models.Role
	IsSystemAdmin         bool
	ManagedOrganizationID *uint

	universal  bool
	accessible map[uint]struct{}
}

// CanAccess reports whether the given organization is inside the caller's
// scope. System admins carry the universal set.
func (c Context) CanAccess(orgID uint) bool {
	if c.universal {
		return true
	}
	_, ok := c.accessible[orgID]
	return ok
}

// AccessibleOrganizationIDs materializes the scope for list queries.
// Returns (nil, true) for the universal set.
func (c Context) AccessibleOrganizationIDs() ([]uint, bool) {
	if c.universal {
		return nil, true
	}
	ids := make([]uint, 0, len(c.accessible))
	for id := range c.accessible {
		ids = append(ids, id)
	}
	return ids, false
}

// EffectiveOrganizationID is the organization assigned to records the
// caller creates: the managed organization for org admins, the home
// organization otherwise. ok is false when the context has no tenant to
// create under (system admins included; they must act through an explicit
// organization, which handlers resolve separately).
func (c Context) EffectiveOrganizationID() (uint, bool) {
	if c.ManagedOrganizationID != nil {
		return *c.ManagedOrganizationID, true
	}
	if len(c.accessible) == 1 && !c.universal {
		for id := range c.accessible {
			return id, true
		}
	}
	return 0, false
}

// Empty reports whether the context authorizes nothing.
func (c Context) Empty() bool {
	return !c.universal && len(c.accessible) == 0
}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

func FromContext(ctx context.Context) Context {
	if v, ok := ctx.Value(tenantKey).(Context); ok {
		return v
	}
	return Context{}
}
