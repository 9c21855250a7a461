package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/session-audit/backend/internal/http/dto"
	"github.com/session-audit/backend/internal/middleware"
	"github.com/session-audit/backend/internal/models"
	"go.uber.org/zap"
)

// respondError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as an internal error.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	resp := dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)}

	var (
		verr     *models.ValidationError
		notFound *models.NotFoundError
		denied   *models.AccessDeniedError
		conflict *models.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Message
		resp.Fields = verr.Fields
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(resp)
	case errors.As(err, &denied):
		return c.Status(fiber.StatusForbidden).JSON(resp)
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(resp)
	}

	log.Error("request failed",
		zap.String("request_id", resp.RequestID),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	resp.Error = "internal error"
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

// queryInt reads a non-negative integer query parameter. Missing, malformed
// or negative values yield fallback.
func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
