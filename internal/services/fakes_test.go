package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
)

// memDirectory backs both GroupStore and UserStore.
type memDirectory struct {
	mu         sync.Mutex
	groups     map[uuid.UUID]*models.Group
	members    map[uuid.UUID]map[uuid.UUID]bool
	orgMembers map[string][]uuid.UUID
	addCalls   int
	failAdd    error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		groups:     map[uuid.UUID]*models.Group{},
		members:    map[uuid.UUID]map[uuid.UUID]bool{},
		orgMembers: map[string][]uuid.UUID{},
	}
}

func (d *memDirectory) addUsers(tenantID string, n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	d.orgMembers[tenantID] = append(d.orgMembers[tenantID], ids...)
	return ids
}

func (d *memDirectory) addGroup(tenantID, name string) *models.Group {
	g := &models.Group{ID: uuid.New(), TenantID: tenantID, Name: name, CreatedAt: time.Now()}
	d.groups[g.ID] = g
	d.members[g.ID] = map[uuid.UUID]bool{}
	return g
}

func (d *memDirectory) memberIDs(groupID uuid.UUID) []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []uuid.UUID
	for id := range d.members[groupID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (d *memDirectory) totalEdges() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.members {
		n += len(m)
	}
	return n
}

func (d *memDirectory) inTenant(tenantID string, userID uuid.UUID) bool {
	for _, id := range d.orgMembers[tenantID] {
		if id == userID {
			return true
		}
	}
	return false
}

func (d *memDirectory) GetByID(_ context.Context, tenantID string, id uuid.UUID) (*models.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[id]
	if !ok || g.TenantID != tenantID {
		return nil, models.ErrNotFound("group %s not found", id)
	}
	cp := *g
	cp.MemberCount = len(d.members[id])
	return &cp, nil
}

func (d *memDirectory) List(_ context.Context, tenantID string, f repositories.GroupFilter) ([]models.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Group{}
	for _, g := range d.groups {
		if g.TenantID != tenantID {
			continue
		}
		if f.Name != nil && g.Name != *f.Name {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *memDirectory) Create(_ context.Context, g *models.Group) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.groups {
		if existing.TenantID == g.TenantID && existing.Name == g.Name {
			return models.ErrConflict("group %q already exists", g.Name)
		}
	}
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	cp := *g
	d.groups[g.ID] = &cp
	d.members[g.ID] = map[uuid.UUID]bool{}
	return nil
}

func (d *memDirectory) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
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

func (d *memDirectory) AddMembers(_ context.Context, tenantID string, groupID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addCalls++
	if d.failAdd != nil {
		return 0, d.failAdd
	}
	var added int64
	for _, id := range userIDs {
		if !d.inTenant(tenantID, id) || d.members[groupID][id] {
			continue
		}
		d.members[groupID][id] = true
		added++
	}
	return added, nil
}

func (d *memDirectory) ListIDsNotInGroup(_ context.Context, tenantID string, groupID uuid.UUID) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []uuid.UUID
	for _, id := range d.orgMembers[tenantID] {
		if !d.members[groupID][id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (d *memDirectory) ListGroupMembers(_ context.Context, groupID uuid.UUID, _, _ int) ([]models.User, error) {
	users := []models.User{}
	for _, id := range d.memberIDs(groupID) {
		users = append(users, models.User{ID: id, Username: id.String(), IsActive: true})
	}
	return users, nil
}

type memCommands struct {
	mu        sync.Mutex
	cmds      []models.Command
	failWrite error
}

func (m *memCommands) InsertBatch(_ context.Context, cmds []*models.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for _, c := range cmds {
		id := uuid.New()
		c.ID = &id
		m.cmds = append(m.cmds, *c)
	}
	return nil
}

func (m *memCommands) GetByID(_ context.Context, tenantID string, id uuid.UUID) (*models.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cmds {
		if *c.ID == id && c.Tenant() == tenantID {
			cp := c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound("command %s not found", id)
}

func (m *memCommands) List(_ context.Context, tenantID string, f repositories.CommandFilter) ([]models.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Command{}
	for _, c := range m.cmds {
		if c.Tenant() != tenantID {
			continue
		}
		if f.Session != "" && c.Session != f.Session {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memCommands) DeleteBefore(_ context.Context, cutoff int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.cmds[:0]
	var n int64
	for _, c := range m.cmds {
		if c.Timestamp < cutoff {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.cmds = kept
	return n, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *memAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

type published struct {
	stream string
	event  events.Event
}

type memPublisher struct {
	mu     sync.Mutex
	events []published
	fail   error
}

func (p *memPublisher) Publish(_ context.Context, stream string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, published{stream: stream, event: event})
	return nil
}

var errStoreDown = errors.New("store down")
