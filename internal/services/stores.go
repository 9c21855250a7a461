package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
)

// GroupStore persists tenant-scoped groups and their membership edges.
type GroupStore interface {
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context, tenantID string, f repositories.GroupFilter) ([]models.Group, error)
	Create(ctx context.Context, g *models.Group) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	AddMembers(ctx context.Context, tenantID string, groupID uuid.UUID, userIDs []uuid.UUID) (int64, error)
}

type UserStore interface {
	ListIDsNotInGroup(ctx context.Context, tenantID string, groupID uuid.UUID) ([]uuid.UUID, error)
	ListGroupMembers(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]models.User, error)
}

type CommandStore interface {
	InsertBatch(ctx context.Context, cmds []*models.Command) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Command, error)
	List(ctx context.Context, tenantID string, f repositories.CommandFilter) ([]models.Command, error)
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

var (
	_ GroupStore   = (*repositories.GroupRepo)(nil)
	_ UserStore    = (*repositories.UserRepo)(nil)
	_ CommandStore = (*repositories.CommandRepo)(nil)
	_ AuditLogger  = (*repositories.AuditRepo)(nil)
)
