package tasks

import (
	"encoding/json"
	"strings"
	"time"

	tasksvc "taskdesk-backend/internal/application/tasks"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles task handlers.
type Handlers struct {
	Service *tasksvc.Service
}

type createTaskRequest struct {
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Status           *string `json:"status"`
	Priority         *string `json:"priority"`
	AssignedToUserID *string `json:"assignedToUserId"`
	DueDate          *string `json:"dueDate"`
}

func ids(c *fiber.Ctx) (orgID, taskID uuid.UUID, err error) {
	if orgID, err = request.UUIDParam(c, "orgId", "Organization not found."); err != nil {
		return
	}
	taskID, err = request.UUIDParam(c, "taskId", "Task not found.")
	return
}

// CreateTask POST /api/v1/orgs/:orgId/tasks
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}

	in := tasksvc.CreateInput{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		s := domain.TaskStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		in.Status = &s
	}
	if req.Priority != nil {
		p := domain.TaskPriority(strings.ToUpper(strings.TrimSpace(*req.Priority)))
		in.Priority = &p
	}
	if req.AssignedToUserID != nil && strings.TrimSpace(*req.AssignedToUserID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*req.AssignedToUserID))
		if err != nil {
			return domain.Validation("Invalid assignee.")
		}
		in.AssignedToID = &id
	}
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := request.ParseTime(strings.TrimSpace(*req.DueDate))
		if err != nil {
			return domain.Validation("Invalid due date.")
		}
		in.DueDate = &due
	}

	task, err := h.Service.Create(c.UserContext(), orgID, middleware.CurrentUserID(c), in)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Task created", task, nil)
}

// GetTask GET /api/v1/orgs/:orgId/tasks/:taskId
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	orgID, taskID, err := ids(c)
	if err != nil {
		return err
	}
	task, err := h.Service.Get(c.UserContext(), orgID, middleware.CurrentUserID(c), taskID)
	if err != nil {
		return err
	}
	return response.Success(c, "Task retrieved", task, nil)
}

// UpdateTask PATCH /api/v1/orgs/:orgId/tasks/:taskId. Members absent from
// the body are left unchanged; an explicit null clears the field.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	orgID, taskID, err := ids(c)
	if err != nil {
		return err
	}
	body, err := request.Fields(c)
	if err != nil {
		return err
	}
	in, err := parseUpdate(body)
	if err != nil {
		return err
	}
	task, err := h.Service.Update(c.UserContext(), orgID, middleware.CurrentUserID(c), taskID, in)
	if err != nil {
		return err
	}
	return response.Success(c, "Task updated", task, nil)
}

// DeleteTask DELETE /api/v1/orgs/:orgId/tasks/:taskId
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	orgID, taskID, err := ids(c)
	if err != nil {
		return err
	}
	if err := h.Service.Delete(c.UserContext(), orgID, middleware.CurrentUserID(c), taskID); err != nil {
		return err
	}
	return response.Success(c, "Task deleted", fiber.Map{"id": taskID}, nil)
}

// ListTasks GET /api/v1/orgs/:orgId/tasks
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	actorID := middleware.CurrentUserID(c)
	in, err := parseListQuery(c, actorID)
	if err != nil {
		return err
	}
	result, err := h.Service.List(c.UserContext(), orgID, actorID, in)
	if err != nil {
		return err
	}
	return response.Success(c, "Tasks retrieved", result, nil)
}

func parseListQuery(c *fiber.Ctx, caller uuid.UUID) (tasksvc.ListInput, error) {
	invalid := domain.Validation("Invalid query parameters.")
	var in tasksvc.ListInput

	page, err := request.PositiveInt(c, "page")
	if err != nil {
		return in, err
	}
	size, err := request.PositiveInt(c, "pageSize")
	if err != nil {
		return in, err
	}
	if size == 0 {
		if size, err = request.PositiveInt(c, "limit"); err != nil {
			return in, err
		}
	}
	in.Page, in.PageSize = page, size

	if raw := request.Query(c, "status"); raw != "" {
		s, ok := normalizeStatus(raw)
		if !ok {
			return in, invalid
		}
		in.Status = &s
	}

	rawAssignee := request.Query(c, "assignee")
	if rawAssignee == "" {
		rawAssignee = request.Query(c, "assignedToUserId")
	}
	assignee, ok := normalizeAssignee(rawAssignee, caller)
	if !ok {
		return in, invalid
	}
	in.Assignee = assignee
	in.Search = request.Query(c, "search")

	switch field := repository.TaskDateField(request.Query(c, "dateField")); field {
	case "", repository.TaskDateCreated:
		in.DateBy = repository.TaskDateCreated
	case repository.TaskDateDue:
		in.DateBy = field
	default:
		return in, invalid
	}
	for key, dst := range map[string]**time.Time{"from": &in.From, "to": &in.To} {
		raw := request.Query(c, key)
		if raw == "" {
			continue
		}
		t, err := request.ParseTime(raw)
		if err != nil {
			return in, invalid
		}
		*dst = &t
	}
	return in, nil
}

func parseUpdate(body map[string]json.RawMessage) (tasksvc.UpdateInput, error) {
	var in tasksvc.UpdateInput

	if raw, ok := body["title"]; ok {
		f, err := stringField(raw, "Invalid title.")
		if err != nil {
			return in, err
		}
		in.Title = f
	}
	if raw, ok := body["description"]; ok {
		f, err := stringField(raw, "Invalid description.")
		if err != nil {
			return in, err
		}
		in.Description = f
	}
	if raw, ok := body["status"]; ok {
		f, err := stringField(raw, "Invalid status.")
		if err != nil {
			return in, err
		}
		in.Status = mapField(f, func(s string) domain.TaskStatus {
			return domain.TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
		})
	}
	if raw, ok := body["priority"]; ok {
		f, err := stringField(raw, "Invalid priority.")
		if err != nil {
			return in, err
		}
		in.Priority = mapField(f, func(s string) domain.TaskPriority {
			return domain.TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
		})
	}
	if raw, ok := body["assignedToUserId"]; ok {
		f, err := stringField(raw, "Invalid assignee.")
		if err != nil {
			return in, err
		}
		if v, set := f.Value(); set {
			id, err := uuid.Parse(strings.TrimSpace(v))
			if err != nil {
				return in, domain.Validation("Invalid assignee.")
			}
			in.AssignedTo = domain.Set(id)
		} else {
			in.AssignedTo = domain.Clear[uuid.UUID]()
		}
	}
	if raw, ok := body["dueDate"]; ok {
		f, err := stringField(raw, "Invalid due date.")
		if err != nil {
			return in, err
		}
		if v, set := f.Value(); set {
			due, err := request.ParseTime(strings.TrimSpace(v))
			if err != nil {
				return in, domain.Validation("Invalid due date.")
			}
			in.DueDate = domain.Set(due)
		} else {
			in.DueDate = domain.Clear[time.Time]()
		}
	}
	return in, nil
}

// stringField reads a present JSON member: null clears, a string sets.
func stringField(raw json.RawMessage, msg string) (domain.Field[string], error) {
	if request.IsNull(raw) {
		return domain.Clear[string](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Field[string]{}, domain.Validation(msg)
	}
	return domain.Set(s), nil
}

func mapField[T any](f domain.Field[string], conv func(string) T) domain.Field[T] {
	if v, ok := f.Value(); ok {
		return domain.Set(conv(v))
	}
	if f.IsClear() {
		return domain.Clear[T]()
	}
	return domain.Unchanged[T]()
}
