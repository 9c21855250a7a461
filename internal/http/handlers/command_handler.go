package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/formatter"
	"github.com/session-audit/backend/internal/http/dto"
	"github.com/session-audit/backend/internal/middleware"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
	"github.com/session-audit/backend/internal/services"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CommandHandler struct {
	commandService *services.CommandService
	log            *zap.Logger
}

func NewCommandHandler(commandService *services.CommandService, log *zap.Logger) *CommandHandler {
	return &CommandHandler{commandService: commandService, log: log}
}

// parseRawCommands accepts a single JSON object or a list of them.
func parseRawCommands(body []byte) ([]formatter.RawCommand, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var raws []formatter.RawCommand
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, true, err
		}
		return raws, true, nil
	}
	var raw formatter.RawCommand
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, fmt.Errorf("expected a JSON object")
	}
	return []formatter.RawCommand{raw}, false, nil
}

func (h *CommandHandler) IngestCommands(c *fiber.Ctx) error {
	raws, many, err := parseRawCommands(c.Body())
	if err != nil {
		return badRequest(c, "invalid request")
	}
	if len(raws) == 0 {
		return badRequest(c, "no commands")
	}

	cmds, err := h.commandService.Ingest(c.Context(), middleware.GetTenantID(c), raws)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var data any = cmds
	if !many {
		data = cmds[0]
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: data})
}

func (h *CommandHandler) FormatCommand(c *fiber.Ctx) error {
	var raw formatter.RawCommand
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return badRequest(c, "invalid request")
	}

	cmd, err := h.commandService.Format(raw)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cmd})
}

func (h *CommandHandler) RaiseAlert(c *fiber.Ctx) error {
	var raw formatter.RawCommand
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return badRequest(c, "invalid request")
	}

	alert, err := h.commandService.RaiseAlert(c.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), raw)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: alert})
}

func (h *CommandHandler) GetCommand(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid command id")
	}

	cmd, err := h.commandService.Get(c.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cmd})
}

func (h *CommandHandler) ListCommands(c *fiber.Ctx) error {
	filter, err := commandFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	cmds, err := h.commandService.List(c.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{OK: true, Data: cmds, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *CommandHandler) ExportCommands(c *fiber.Ctx) error {
	filter, err := commandFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var buf bytes.Buffer
	if err := h.commandService.Export(c.Context(), middleware.GetTenantID(c), filter, &buf); err != nil {
		return respondError(c, h.log, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment("commands.xlsx")
	return c.Send(buf.Bytes())
}

func commandFilter(c *fiber.Ctx) (repositories.CommandFilter, error) {
	f := repositories.CommandFilter{
		Session: c.Query("session"),
		Asset:   c.Query("asset"),
		User:    c.Query("user"),
		Account: c.Query("account"),
		Input:   c.Query("input"),
		Limit:   queryInt(c, "limit", 20),
		Offset:  queryInt(c, "offset", 0),
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	errs := &models.ValidationError{Message: "invalid filter"}
	if v := c.Query("risk_level"); v != "" {
		n, err := strconv.Atoi(v)
		level := models.RiskLevel(n)
		if err != nil || !level.IsValid() {
			errs.Add("risk_level", fmt.Sprintf("%q is not a valid choice", v))
		} else {
			f.RiskLevel = &level
		}
	}
	for _, key := range []string{"date_from", "date_to"} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs.Add(key, "a valid integer is required")
			continue
		}
		if key == "date_from" {
			f.From = &ts
		} else {
			f.To = &ts
		}
	}
	return f, errs.OrNil()
}
