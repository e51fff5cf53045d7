package org

import (
	orgsvc "taskdesk-backend/internal/application/org"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles org handlers with dependencies.
type Handlers struct {
	Service *orgsvc.Service
}

type createOrgRequest struct {
	Name string `json:"name"`
}

// CreateOrg POST /api/v1/orgs
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var req createOrgRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	org, err := h.Service.CreateOrganization(c.UserContext(), req.Name, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// ListOrgs GET /api/v1/orgs
func (h *Handlers) ListOrgs(c *fiber.Ctx) error {
	orgs, err := h.Service.ListForUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Organizations retrieved", orgs, nil)
}

// ViewOrg GET /api/v1/orgs/:orgId
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	orgID, err := request.UUIDParam(c, "orgId", "Organization not found.")
	if err != nil {
		return err
	}
	details, err := h.Service.Get(c.UserContext(), orgID, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Organization retrieved", details, nil)
}
