package tasks

import (
	"context"
	"time"

	"taskdesk-backend/internal/domain"

	"github.com/google/uuid"
)

// fieldOrder fixes the order of changedFields in audit metadata.
var fieldOrder = []string{"title", "description", "status", "priority", "assignedToUserId", "dueDate"}

// diff validates in against existing and returns the columns to write and
// the changes to audit. Only fields present in in are compared.
func (s *Service) diff(ctx context.Context, existing *domain.Task, in UpdateInput) (map[string]interface{}, map[string]Change, error) {
	fields := map[string]interface{}{}
	changes := map[string]Change{}

	if !in.Title.IsUnchanged() {
		v, ok := in.Title.Value()
		if !ok {
			return nil, nil, domain.Validation("Title cannot be cleared.")
		}
		title, err := normalizeTitle(v)
		if err != nil {
			return nil, nil, err
		}
		fields["title"] = title
		if title != existing.Title {
			changes["title"] = Change{From: existing.Title, To: title}
		}
	}

	if !in.Description.IsUnchanged() {
		next, err := normalizeDescription(in.Description.Ptr(nil))
		if err != nil {
			return nil, nil, err
		}
		fields["description"] = nullable(next)
		if !equalPtr(existing.Description, next) {
			changes["description"] = Change{From: deref(existing.Description), To: deref(next)}
		}
	}

	if !in.Status.IsUnchanged() {
		v, ok := in.Status.Value()
		if !ok || !v.Valid() {
			return nil, nil, domain.Validation("Invalid status.")
		}
		fields["status"] = v
		if v != existing.Status {
			changes["status"] = Change{From: existing.Status, To: v}
		}
	}

	if !in.Priority.IsUnchanged() {
		v, ok := in.Priority.Value()
		if !ok || !v.Valid() {
			return nil, nil, domain.Validation("Invalid priority.")
		}
		fields["priority"] = v
		if v != existing.Priority {
			changes["priority"] = Change{From: existing.Priority, To: v}
		}
	}

	if !in.AssignedTo.IsUnchanged() {
		next := in.AssignedTo.Ptr(nil)
		if err := s.checkAssignee(ctx, existing.OrgID, next); err != nil {
			return nil, nil, err
		}
		fields["assigned_to_id"] = nullable(next)
		if !equalPtr(existing.AssignedToID, next) {
			changes["assignedToUserId"] = Change{From: uuidOrNil(existing.AssignedToID), To: uuidOrNil(next)}
		}
	}

	if !in.DueDate.IsUnchanged() {
		next := utcPtr(in.DueDate.Ptr(nil))
		fields["due_date"] = nullable(next)
		if !sameInstant(existing.DueDate, next) {
			changes["dueDate"] = Change{From: isoOrNil(existing.DueDate), To: isoOrNil(next)}
		}
	}

	return fields, changes, nil
}

// nullable turns a nil pointer into an untyped nil column value.
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func isoOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
