package tasks

import (
	"strings"

	"taskdesk-backend/internal/domain"

	"github.com/google/uuid"
)

// Query aliases accepted by GET /tasks. They exist only at this boundary;
// the service and repository filters know nothing about them.
//
//	status=OPEN            -> TODO
//	status=in-progress     -> IN_PROGRESS (case-insensitive, dash or underscore)
//	assignee=unassigned    -> tasks with no assignee
//	assignee=me            -> tasks assigned to the caller
var statusAliases = map[string]domain.TaskStatus{
	"OPEN": domain.TaskTodo,
}

const (
	assigneeMe         = "me"
	assigneeUnassigned = "unassigned"
)

func normalizeStatus(raw string) (domain.TaskStatus, bool) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))
	if s, ok := statusAliases[key]; ok {
		return s, true
	}
	s := domain.TaskStatus(key)
	return s, s.Valid()
}

func normalizeAssignee(raw string, caller uuid.UUID) (domain.Field[uuid.UUID], bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return domain.Unchanged[uuid.UUID](), true
	case assigneeMe:
		return domain.Set(caller), true
	case assigneeUnassigned:
		return domain.Clear[uuid.UUID](), true
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.Field[uuid.UUID]{}, false
	}
	return domain.Set(id), true
}
