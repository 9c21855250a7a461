package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/http/dto"
	"github.com/session-audit/backend/internal/middleware"
	"github.com/session-audit/backend/internal/repositories"
	"github.com/session-audit/backend/internal/services"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groupService *services.GroupService
	log          *zap.Logger
}

func NewGroupHandler(groupService *services.GroupService, log *zap.Logger) *GroupHandler {
	return &GroupHandler{groupService: groupService, log: log}
}

func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	filter := repositories.GroupFilter{
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}

	groups, err := h.groupService.List(c.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{OK: true, Data: groups, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid group id")
	}

	group, err := h.groupService.Get(c.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: group})
}

func (h *GroupHandler) ListMembers(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid group id")
	}

	limit, offset := queryInt(c, "limit", 20), queryInt(c, "offset", 0)
	users, err := h.groupService.Members(c.Context(), middleware.GetTenantID(c), id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{OK: true, Data: users, Limit: limit, Offset: offset})
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	group, err := h.groupService.Create(c.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req.Name, req.Comment)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: group})
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid group id")
	}

	if err := h.groupService.Delete(c.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddAllUsers answers 200 with an empty body.
func (h *GroupHandler) AddAllUsers(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid group id")
	}

	if _, err := h.groupService.AddAllUsers(c.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	c.Status(fiber.StatusOK)
	return nil
}
