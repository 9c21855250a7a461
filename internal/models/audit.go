package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionGroupCreated    = "group_created"
	AuditActionGroupDeleted    = "group_deleted"
	AuditActionGroupAddAllUser = "group_add_all_users"
	AuditActionCommandAlert    = "command_alert"
)

type AuditLog struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    string     `json:"tenant_id"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	ActorType   string     `json:"actor_type"` // user/terminal/system
	Action      string     `json:"action"`
	EntityType  string     `json:"entity_type"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
