package models

import (
	"time"

	"github.com/google/uuid"
)

// CommandBase is the field set shared by stored command records and insecure
// command alerts. Field order here is the presentation order.
type CommandBase struct {
	User      string     `json:"user"`
	Asset     string     `json:"asset"`
	Input     string     `json:"input"`
	Session   string     `json:"session"`
	RiskLevel *RiskLevel `json:"risk_level"`
	TenantID  *string    `json:"tenant_id"`
}

// Tenant returns the tenant id, treating null as the empty tenant.
func (b CommandBase) Tenant() string {
	if b.TenantID == nil {
		return ""
	}
	return *b.TenantID
}

// CommandAlert is the restricted view sent for insecure command alerts.
type CommandAlert struct {
	CommandBase
}

// Command is a captured session command.
type Command struct {
	CommandBase
	ID               *uuid.UUID `json:"id"`
	Account          string     `json:"account"`
	Output           string     `json:"output"`
	Timestamp        int64      `json:"timestamp"`
	TimestampDisplay *time.Time `json:"timestamp_display"`
	RemoteAddr       string     `json:"remote_addr"`
}
