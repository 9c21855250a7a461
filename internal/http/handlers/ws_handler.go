package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/session-audit/backend/internal/auth"
	"github.com/session-audit/backend/internal/config"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/rbac"
	"go.uber.org/zap"
)

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub fans command alerts and group events out to auditors connected
// from the same tenant.
type WSHub struct {
	cfg        *config.Config
	subscriber events.Subscriber
	log        *zap.Logger
	mu         sync.RWMutex
	clients    map[string][]*wsClient
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:        cfg,
		subscriber: subscriber,
		log:        log,
		clients:    make(map[string][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	for _, stream := range []string{events.StreamCommand, events.StreamGroup} {
		if err := h.subscriber.Subscribe(ctx, stream, h.SendToTenant); err != nil {
			return err
		}
	}
	return nil
}

// SendToTenant delivers event to every connection of event.TenantID.
// Events without a tenant are dropped.
func (h *WSHub) SendToTenant(event events.Event) {
	if event.TenantID == "" {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warn("failed to encode ws event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := append([]*wsClient(nil), h.clients[event.TenantID]...)
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(data); err != nil {
			h.log.Debug("ws write failed", zap.String("tenant_id", event.TenantID), zap.Error(err))
		}
	}
}

// Connections returns the number of live connections for tenantID.
func (h *WSHub) Connections(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantID])
}

func (h *WSHub) register(tenantID string, c *wsClient) {
	h.mu.Lock()
	h.clients[tenantID] = append(h.clients[tenantID], c)
	h.mu.Unlock()
}

func (h *WSHub) unregister(tenantID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.clients[tenantID]
	for i, existing := range clients {
		if existing == c {
			h.clients[tenantID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[tenantID]) == 0 {
		delete(h.clients, tenantID)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		_ = conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, h.cfg.JWTIssuer, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		_ = conn.Close()
		return
	}
	if !rbac.HasPermission(claims.Role, rbac.PermViewCommand) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"permission denied"}`))
		_ = conn.Close()
		return
	}

	client := &wsClient{conn: conn}
	h.register(claims.TenantID, client)
	h.log.Debug("ws connected", zap.String("tenant_id", claims.TenantID), zap.String("user_id", claims.UserID.String()))

	defer func() {
		h.unregister(claims.TenantID, client)
		_ = conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
