package audit

import (
	auditsvc "taskdesk-backend/internal/application/audit"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the audit trail.
type Handlers struct {
	Service *auditsvc.Service
}

// ListAudit GET /api/v1/orgs/:orgId/audit?cursor=&limit=&action=&entityId=
func (h *Handlers) ListAudit(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	limit, err := request.PositiveInt(c, "limit")
	if err != nil {
		return err
	}
	in := auditsvc.ListInput{
		Limit:    limit,
		Action:   request.Query(c, "action"),
		EntityID: request.Query(c, "entityId"),
	}
	if raw := request.Query(c, "cursor"); raw != "" {
		cursor, err := uuid.Parse(raw)
		if err != nil {
			return domain.Validation("invalid cursor")
		}
		in.Cursor = &cursor
	}

	page, err := h.Service.List(c.UserContext(), orgID, middleware.CurrentUserID(c), in)
	if err != nil {
		return err
	}
	return response.Success(c, "Audit log retrieved", page.Items, fiber.Map{"nextCursor": page.NextCursor})
}
