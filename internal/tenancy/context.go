// Package tenancy carries the active organization of one operation.
//
// The organization id lives in the operation's context.Context, so it is
// never shared between concurrently running operations. It is set once,
// after membership has been established, and read by the repository layer
// on every tenant-owned data access.
package tenancy

import (
	"context"

	"github.com/google/uuid"
)

type orgKey struct{}

// WithOrg returns a context scoped to orgID.
func WithOrg(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgID returns the active organization, if one has been established.
func OrgID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(orgKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
