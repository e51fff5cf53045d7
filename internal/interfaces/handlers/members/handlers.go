package members

import (
	"strings"

	membersvc "taskdesk-backend/internal/application/members"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles membership handlers.
type Handlers struct {
	Service *membersvc.Service
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ListMembers GET /api/v1/orgs/:orgId/members
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	members, err := h.Service.ListMembers(c.UserContext(), orgID, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Members retrieved", members, nil)
}

// ChangeRole PATCH /api/v1/orgs/:orgId/members/:userId
func (h *Handlers) ChangeRole(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	userID, err := request.UUIDParam(c, "userId", "Member not found.")
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	m, err := h.Service.ChangeRole(c.UserContext(), orgID, middleware.CurrentUserID(c), userID,
		domain.Role(strings.ToUpper(strings.TrimSpace(req.Role))))
	if err != nil {
		return err
	}
	return response.Success(c, "Role updated", m, nil)
}
