package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
)

type stubDirectory struct {
	mu      sync.Mutex
	groups  map[uuid.UUID]*models.Group
	members map[uuid.UUID]map[uuid.UUID]bool
	users   map[string][]uuid.UUID
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		groups:  map[uuid.UUID]*models.Group{},
		members: map[uuid.UUID]map[uuid.UUID]bool{},
		users:   map[string][]uuid.UUID{},
	}
}

func (d *stubDirectory) addGroup(tenantID, name string) *models.Group {
	g := &models.Group{ID: uuid.New(), TenantID: tenantID, Name: name}
	d.groups[g.ID] = g
	d.members[g.ID] = map[uuid.UUID]bool{}
	return g
}

func (d *stubDirectory) GetByID(_ context.Context, tenantID string, id uuid.UUID) (*models.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[id]
	if !ok || g.TenantID != tenantID {
		return nil, models.ErrNotFound("group %s not found", id)
	}
	out := *g
	out.MemberCount = len(d.members[id])
	return &out, nil
}

func (d *stubDirectory) List(_ context.Context, tenantID string, _ repositories.GroupFilter) ([]models.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Group{}
	for _, g := range d.groups {
		if g.TenantID == tenantID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (d *stubDirectory) Create(_ context.Context, g *models.Group) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g.ID = uuid.New()
	d.groups[g.ID] = g
	d.members[g.ID] = map[uuid.UUID]bool{}
	return nil
}

func (d *stubDirectory) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[id]
	if !ok || g.TenantID != tenantID {
		return models.ErrNotFound("group %s not found", id)
	}
	delete(d.groups, id)
	delete(d.members, id)
	return nil
}

func (d *stubDirectory) AddMembers(_ context.Context, _ string, groupID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int64
	for _, id := range userIDs {
		if !d.members[groupID][id] {
			d.members[groupID][id] = true
			n++
		}
	}
	return n, nil
}

func (d *stubDirectory) ListIDsNotInGroup(_ context.Context, tenantID string, groupID uuid.UUID) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []uuid.UUID
	for _, id := range d.users[tenantID] {
		if !d.members[groupID][id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (d *stubDirectory) ListGroupMembers(_ context.Context, groupID uuid.UUID, _, _ int) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users := []models.User{}
	for id := range d.members[groupID] {
		users = append(users, models.User{ID: id, Username: id.String()})
	}
	return users, nil
}

type stubCommands struct {
	mu   sync.Mutex
	rows []*models.Command
}

func (s *stubCommands) InsertBatch(_ context.Context, cmds []*models.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cmds {
		id := uuid.New()
		c.ID = &id
		s.rows = append(s.rows, c)
	}
	return nil
}

func (s *stubCommands) GetByID(_ context.Context, tenantID string, id uuid.UUID) (*models.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if *c.ID == id && c.Tenant() == tenantID {
			out := *c
			return &out, nil
		}
	}
	return nil, models.ErrNotFound("command %s not found", id)
}

func (s *stubCommands) List(_ context.Context, tenantID string, _ repositories.CommandFilter) ([]models.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Command{}
	for _, c := range s.rows {
		if c.Tenant() == tenantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCommands) DeleteBefore(context.Context, int64) (int64, error) { return 0, nil }

type nopAudit struct{}

func (nopAudit) Log(context.Context, models.AuditLog) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
