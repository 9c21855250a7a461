package events

import "context"

// Streams
const (
	StreamCommand = "events:command"
	StreamGroup   = "events:group"
)

// Event types
const (
	EventCommandAlert      = "command_alert"
	EventGroupMembersAdded = "group_members_added"
)

type Event struct {
	Type     string         `json:"type"`
	TenantID string         `json:"tenant_id"`
	Payload  map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
