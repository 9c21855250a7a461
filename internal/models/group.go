package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a tenant-scoped named collection of users.
type Group struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Comment     string    `json:"comment"`
	MemberCount int       `json:"users_amount"`
	CreatedAt   time.Time `json:"created_at"`
}
