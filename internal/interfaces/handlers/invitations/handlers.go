package invitations

import (
	"strings"

	invsvc "taskdesk-backend/internal/application/invitations"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles invitation handlers.
type Handlers struct {
	Service *invsvc.Service
}

type createInviteRequest struct {
	Email         *string `json:"email"`
	Role          string  `json:"role"`
	ExpiresInDays *int    `json:"expiresInDays"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

// token lengths outside this range can never match an issued token
const (
	minTokenLen = 10
	maxTokenLen = 256
)

func (r tokenRequest) valid() bool {
	t := strings.TrimSpace(r.Token)
	return len(t) >= minTokenLen && len(t) <= maxTokenLen
}

// SendInvite POST /api/v1/orgs/:orgId/invitations
func (h *Handlers) SendInvite(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	var req createInviteRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	created, err := h.Service.Create(c.UserContext(), orgID, middleware.CurrentUserID(c), invsvc.CreateInput{
		Email:         req.Email,
		Role:          domain.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Invitation created", created, nil)
}

// ListOrgInvitations GET /api/v1/orgs/:orgId/invitations
func (h *Handlers) ListOrgInvitations(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	views, err := h.Service.List(c.UserContext(), orgID, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Invitations retrieved", views, nil)
}

// RevokeInvite POST /api/v1/orgs/:orgId/invitations/:inviteId/revoke
func (h *Handlers) RevokeInvite(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	inviteID, err := request.UUIDParam(c, "inviteId", "Invitation not found.")
	if err != nil {
		return err
	}
	inv, err := h.Service.Revoke(c.UserContext(), orgID, middleware.CurrentUserID(c), inviteID)
	if err != nil {
		return err
	}
	return response.Success(c, "Invitation revoked", inv, nil)
}

// AcceptInvite POST /api/v1/invitations/accept
func (h *Handlers) AcceptInvite(c *fiber.Ctx) error {
	var req tokenRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	if !req.valid() {
		return response.BadRequest(c, "Invalid invite token.")
	}
	m, err := h.Service.Accept(c.UserContext(), req.Token, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Invitation accepted", m, nil)
}

// CheckToken POST /api/v1/invitations/check. Public: previews a pending
// invitation without consuming it.
func (h *Handlers) CheckToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	if !req.valid() {
		return response.BadRequest(c, "Invalid invite token.")
	}
	preview, err := h.Service.Check(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return response.Success(c, "Invitation is valid", preview, nil)
}
