// Package repository is the only data-access path for tenant-owned rows
// (memberships, invitations, tasks, audit logs). Every method applies one of
// the scoping rules below before touching the database:
//
//   - create:        the row must carry an org id equal to the active tenant
//   - update:        the org id column can never be written
//   - filter reads:  the org id predicate is always the active tenant's
//   - unique lookup: the key must embed an org id matching the active tenant
//
// Rule violations are programming defects. They are logged as
// tenant_scope_violation and returned as domain.ErrTenantScope.
package repository

import (
	"context"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const orgColumn = "org_id"

func violation(ctx context.Context, entity, op, reason string) error {
	active, _ := tenancy.OrgID(ctx)
	log.Error().
		Str("event", "tenant_scope_violation").
		Str("entity", entity).
		Str("operation", op).
		Str("active_org", active.String()).
		Msg(reason)
	return domain.ScopeViolation(entity + "." + op + ": " + reason)
}

// scopeCreate checks a row about to be inserted.
func scopeCreate(ctx context.Context, entity string, orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return violation(ctx, entity, "create", "org id missing")
	}
	if active, ok := tenancy.OrgID(ctx); ok && active != orgID {
		return violation(ctx, entity, "create", "org id does not match tenant context")
	}
	return nil
}

// scopeFilter returns the org id every filtered read or bulk write must use.
// The tenant context always wins over a caller-supplied org id. Without a
// context the caller must name the org explicitly.
func scopeFilter(ctx context.Context, entity, op string, requested uuid.UUID) (uuid.UUID, error) {
	if active, ok := tenancy.OrgID(ctx); ok {
		return active, nil
	}
	if requested == uuid.Nil {
		return uuid.Nil, violation(ctx, entity, op, "no tenant context and no org id in filter")
	}
	return requested, nil
}

// scopeKey checks that a unique-key lookup embeds its org id.
func scopeKey(ctx context.Context, entity, op string, keyOrg uuid.UUID) error {
	if keyOrg == uuid.Nil {
		return violation(ctx, entity, op, "unique lookup without org id")
	}
	if active, ok := tenancy.OrgID(ctx); ok && active != keyOrg {
		return violation(ctx, entity, op, "unique lookup org id does not match tenant context")
	}
	return nil
}

// scopeUpdate rejects payloads that try to move a row between orgs.
func scopeUpdate(ctx context.Context, entity string, fields map[string]interface{}) error {
	if _, ok := fields[orgColumn]; ok {
		return violation(ctx, entity, "update", "org id is immutable")
	}
	return nil
}
