package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/export"
	"github.com/session-audit/backend/internal/formatter"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
	"go.uber.org/zap"
)

type CommandService struct {
	formatter *formatter.Formatter
	commands  CommandStore
	auditRepo AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewCommandService(
	f *formatter.Formatter,
	commands CommandStore,
	auditRepo AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *CommandService {
	return &CommandService{
		formatter: f,
		commands:  commands,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
	}
}

// Format validates raw without storing it.
func (s *CommandService) Format(raw formatter.RawCommand) (*models.Command, error) {
	return s.formatter.Format(raw)
}

// Ingest validates and stores a batch of captured commands. Records without
// a tenant are attributed to tenantID; records naming another tenant are
// refused. Dangerous commands are also published as alerts.
func (s *CommandService) Ingest(ctx context.Context, tenantID string, raws []formatter.RawCommand) ([]*models.Command, error) {
	cmds, err := s.formatter.FormatBatch(raws)
	if err != nil {
		return nil, err
	}

	for _, c := range cmds {
		if err := attributeTenant(&c.CommandBase, tenantID); err != nil {
			return nil, err
		}
	}

	if err := s.commands.InsertBatch(ctx, cmds); err != nil {
		return nil, fmt.Errorf("store commands: %w", err)
	}

	for _, c := range cmds {
		if c.RiskLevel != nil && c.RiskLevel.IsDangerous() {
			if err := s.publishAlert(ctx, c.CommandBase); err != nil {
				s.log.Warn("failed to publish command alert",
					zap.String("session", c.Session),
					zap.Error(err),
				)
			}
		}
	}

	s.log.Debug("commands ingested", zap.String("tenant_id", tenantID), zap.Int("count", len(cmds)))
	return cmds, nil
}

// RaiseAlert validates an insecure command alert and publishes it.
func (s *CommandService) RaiseAlert(ctx context.Context, tenantID string, actorID uuid.UUID, raw formatter.RawCommand) (*models.CommandAlert, error) {
	alert, err := s.formatter.FormatAlert(raw)
	if err != nil {
		return nil, err
	}
	if err := attributeTenant(&alert.CommandBase, tenantID); err != nil {
		return nil, err
	}

	if err := s.publishAlert(ctx, alert.CommandBase); err != nil {
		return nil, fmt.Errorf("publish alert: %w", err)
	}

	if err := s.auditRepo.Log(ctx, models.AuditLog{
		TenantID:    alert.Tenant(),
		ActorUserID: &actorID,
		ActorType:   "terminal",
		Action:      models.AuditActionCommandAlert,
		EntityType:  "session",
		Meta:        map[string]any{"session": alert.Session, "input": alert.Input},
	}); err != nil {
		s.log.Warn("failed to write audit log", zap.Error(err))
	}

	return alert, nil
}

func attributeTenant(base *models.CommandBase, tenantID string) error {
	switch base.Tenant() {
	case "":
		t := tenantID
		base.TenantID = &t
	case tenantID:
	default:
		return models.ErrAccessDenied("cannot write commands of tenant %q", base.Tenant())
	}
	return nil
}

func (s *CommandService) publishAlert(ctx context.Context, base models.CommandBase) error {
	return s.publisher.Publish(ctx, events.StreamCommand, events.Event{
		Type:     events.EventCommandAlert,
		TenantID: base.Tenant(),
		Payload: map[string]any{
			"alert": models.CommandAlert{CommandBase: base},
		},
	})
}

func (s *CommandService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.Command, error) {
	c, err := s.commands.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.formatter.Render(c), nil
}

func (s *CommandService) List(ctx context.Context, tenantID string, f repositories.CommandFilter) ([]models.Command, error) {
	cmds, err := s.commands.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	for i := range cmds {
		s.formatter.Render(&cmds[i])
	}
	return cmds, nil
}

// Export writes up to repositories.MaxExportRows matching commands to w as XLSX.
func (s *CommandService) Export(ctx context.Context, tenantID string, f repositories.CommandFilter, w io.Writer) error {
	f.Limit = repositories.MaxExportRows
	f.Offset = 0
	cmds, err := s.List(ctx, tenantID, f)
	if err != nil {
		return err
	}
	return export.WriteCommandsXLSX(w, cmds)
}

// PurgeExpired deletes commands older than retentionDays relative to now.
func (s *CommandService) PurgeExpired(ctx context.Context, retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays).Unix()
	n, err := s.commands.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired commands: %w", err)
	}
	if n > 0 {
		s.log.Info("expired commands deleted", zap.Int64("count", n), zap.Int64("cutoff", cutoff))
	}
	return n, nil
}
