package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/formatter"
	"github.com/session-audit/backend/internal/models"
	"github.com/session-audit/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommandService() (*CommandService, *memCommands, *memAudit, *memPublisher) {
	store := &memCommands{}
	audit := &memAudit{}
	pub := &memPublisher{}
	svc := NewCommandService(formatter.New(time.UTC), store, audit, pub, zap.NewNop())
	return svc, store, audit, pub
}

func raw(t *testing.T, fields map[string]any) formatter.RawCommand {
	t.Helper()
	base := map[string]any{
		"user":      "admin",
		"asset":     "web-01",
		"input":     "ls",
		"session":   "5c0c7d1e-6a1b-4a64-9d67-2f6d3b8f0b11",
		"account":   "root",
		"output":    "",
		"timestamp": 1700000000,
	}
	for k, v := range fields {
		if v == nil {
			delete(base, k)
			continue
		}
		base[k] = v
	}
	data, err := json.Marshal(base)
	require.NoError(t, err)
	var r formatter.RawCommand
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestIngestStoresAndAttributesTenant(t *testing.T) {
	svc, store, _, pub := newCommandService()

	cmds, err := svc.Ingest(context.Background(), tenantA, []formatter.RawCommand{
		raw(t, nil),
		raw(t, map[string]any{"tenant_id": tenantA}),
	})
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	require.Len(t, store.cmds, 2)

	assert.Equal(t, tenantA, store.cmds[0].Tenant())
	assert.Equal(t, tenantA, store.cmds[1].Tenant())
	assert.NotNil(t, cmds[0].ID)
	assert.Empty(t, pub.events)
}

func TestIngestRefusesForeignTenant(t *testing.T) {
	svc, store, _, _ := newCommandService()

	_, err := svc.Ingest(context.Background(), tenantA, []formatter.RawCommand{
		raw(t, nil),
		raw(t, map[string]any{"tenant_id": tenantB}),
	})
	var denied *models.AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Empty(t, store.cmds)
}

func TestIngestRejectsWholeBatch(t *testing.T) {
	svc, store, _, _ := newCommandService()

	_, err := svc.Ingest(context.Background(), tenantA, []formatter.RawCommand{
		raw(t, nil),
		raw(t, map[string]any{"session": strings.Repeat("x", 37)}),
	})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("1.session"))
	assert.Empty(t, store.cmds)
}

func TestIngestPublishesDangerousCommands(t *testing.T) {
	svc, _, _, pub := newCommandService()

	_, err := svc.Ingest(context.Background(), tenantA, []formatter.RawCommand{
		raw(t, map[string]any{"risk_level": 0}),
		raw(t, map[string]any{"risk_level": 5, "input": "rm -rf /"}),
		raw(t, map[string]any{"risk_level": 7}),
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)

	ev := pub.events[0]
	assert.Equal(t, events.StreamCommand, ev.stream)
	assert.Equal(t, events.EventCommandAlert, ev.event.Type)
	assert.Equal(t, tenantA, ev.event.TenantID)
	alert, ok := ev.event.Payload["alert"].(models.CommandAlert)
	require.True(t, ok)
	assert.Equal(t, "rm -rf /", alert.Input)
}

func TestIngestStoreFailure(t *testing.T) {
	svc, store, _, pub := newCommandService()
	store.failWrite = errStoreDown

	_, err := svc.Ingest(context.Background(), tenantA, []formatter.RawCommand{
		raw(t, map[string]any{"risk_level": 5}),
	})
	require.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, pub.events)
}

func TestRaiseAlert(t *testing.T) {
	svc, store, audit, pub := newCommandService()

	alert, err := svc.RaiseAlert(context.Background(), tenantA, uuid.New(), raw(t, map[string]any{
		"risk_level": 5,
		"user":       strings.Repeat("u", 80),
		"account":    nil,
		"timestamp":  nil,
	}))
	require.NoError(t, err)
	assert.Len(t, alert.User, 64)
	assert.Equal(t, tenantA, alert.Tenant())

	assert.Empty(t, store.cmds)
	require.Len(t, pub.events, 1)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCommandAlert, audit.entries[0].Action)
}

func TestRaiseAlertValidation(t *testing.T) {
	svc, _, _, pub := newCommandService()

	_, err := svc.RaiseAlert(context.Background(), tenantA, uuid.New(), raw(t, map[string]any{"session": nil}))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("session"))
	assert.Empty(t, pub.events)
}

func TestRaiseAlertPublishFailure(t *testing.T) {
	svc, _, _, pub := newCommandService()
	pub.fail = errors.New("redis down")

	_, err := svc.RaiseAlert(context.Background(), tenantA, uuid.New(), raw(t, nil))
	require.Error(t, err)
}

func TestGetAndListRender(t *testing.T) {
	svc, _, _, _ := newCommandService()
	ctx := context.Background()

	cmds, err := svc.Ingest(ctx, tenantA, []formatter.RawCommand{raw(t, nil)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, tenantA, *cmds[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.TimestampDisplay)
	assert.Equal(t, int64(1700000000), got.TimestampDisplay.Unix())

	_, err = svc.Get(ctx, tenantB, *cmds[0].ID)
	var nf *models.NotFoundError
	assert.True(t, errors.As(err, &nf))

	list, err := svc.List(ctx, tenantA, repositories.CommandFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].TimestampDisplay)
}

func TestExportWritesWorkbook(t *testing.T) {
	svc, _, _, _ := newCommandService()
	ctx := context.Background()

	_, err := svc.Ingest(ctx, tenantA, []formatter.RawCommand{raw(t, nil), raw(t, nil)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, tenantA, repositories.CommandFilter{}, &buf))
	// xlsx is a zip archive
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestPurgeExpired(t *testing.T) {
	svc, store, _, _ := newCommandService()
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	_, err := svc.Ingest(ctx, tenantA, []formatter.RawCommand{
		raw(t, map[string]any{"timestamp": now.AddDate(0, 0, -40).Unix()}),
		raw(t, map[string]any{"timestamp": now.AddDate(0, 0, -10).Unix()}),
	})
	require.NoError(t, err)

	n, err := svc.PurgeExpired(ctx, 30, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, store.cmds, 1)

	n, err = svc.PurgeExpired(ctx, 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
