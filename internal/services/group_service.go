package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
	"go.uber.org/zap"
)

const groupNameMaxLength = 128

type GroupService struct {
	groups    GroupStore
	users     UserStore
	auditRepo AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewGroupService(
	groups GroupStore,
	users UserStore,
	auditRepo AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *GroupService {
	return &GroupService{
		groups:    groups,
		users:     users,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
	}
}

// AddAllUsers adds every user of the tenant that is not yet a member to the
// group in one batch and returns how many edges were added. A second call is
// a no-op. A group missing from the tenant yields *models.NotFoundError and
// nothing is mutated.
func (s *GroupService) AddAllUsers(ctx context.Context, tenantID string, actorID uuid.UUID, groupID uuid.UUID) (int64, error) {
	group, err := s.groups.GetByID(ctx, tenantID, groupID)
	if err != nil {
		return 0, err
	}

	userIDs, err := s.users.ListIDsNotInGroup(ctx, tenantID, group.ID)
	if err != nil {
		return 0, fmt.Errorf("list users outside group: %w", err)
	}

	added, err := s.groups.AddMembers(ctx, tenantID, group.ID, userIDs)
	if err != nil {
		return 0, fmt.Errorf("add group members: %w", err)
	}

	s.log.Info("group add all users",
		zap.String("tenant_id", tenantID),
		zap.String("group_id", group.ID.String()),
		zap.Int("candidates", len(userIDs)),
		zap.Int64("added", added),
	)

	s.audit(ctx, tenantID, actorID, models.AuditActionGroupAddAllUser, group.ID, map[string]any{"added": added})

	if added > 0 {
		err := s.publisher.Publish(ctx, events.StreamGroup, events.Event{
			Type:     events.EventGroupMembersAdded,
			TenantID: tenantID,
			Payload: map[string]any{
				"group_id": group.ID.String(),
				"added":    added,
			},
		})
		if err != nil {
			s.log.Warn("failed to publish group event", zap.Error(err))
		}
	}

	return added, nil
}

func (s *GroupService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.Group, error) {
	return s.groups.GetByID(ctx, tenantID, id)
}

// Members lists the users of a group visible in tenantID.
func (s *GroupService) Members(ctx context.Context, tenantID string, groupID uuid.UUID, limit, offset int) ([]models.User, error) {
	if _, err := s.groups.GetByID(ctx, tenantID, groupID); err != nil {
		return nil, err
	}
	return s.users.ListGroupMembers(ctx, groupID, limit, offset)
}

func (s *GroupService) List(ctx context.Context, tenantID string, f repositories.GroupFilter) ([]models.Group, error) {
	return s.groups.List(ctx, tenantID, f)
}

func (s *GroupService) Create(ctx context.Context, tenantID string, actorID uuid.UUID, name, comment string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	errs := &models.ValidationError{Message: "invalid group"}
	switch {
	case name == "":
		errs.Add("name", "this field may not be blank")
	case utf8.RuneCountInString(name) > groupNameMaxLength:
		errs.Add("name", fmt.Sprintf("ensure this field has no more than %d characters", groupNameMaxLength))
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	g := &models.Group{TenantID: tenantID, Name: name, Comment: comment}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}

	s.audit(ctx, tenantID, actorID, models.AuditActionGroupCreated, g.ID, map[string]any{"name": g.Name})
	return g, nil
}

func (s *GroupService) Delete(ctx context.Context, tenantID string, actorID uuid.UUID, id uuid.UUID) error {
	if err := s.groups.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.audit(ctx, tenantID, actorID, models.AuditActionGroupDeleted, id, nil)
	return nil
}

func (s *GroupService) audit(ctx context.Context, tenantID string, actorID uuid.UUID, action string, groupID uuid.UUID, meta map[string]any) {
	entry := models.AuditLog{
		TenantID:    tenantID,
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      action,
		EntityType:  "user_group",
		EntityID:    &groupID,
	}
	if meta != nil {
		entry.Meta = meta
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
