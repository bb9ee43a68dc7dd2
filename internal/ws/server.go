package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"swiftmart-admin-services/internal/config"
	"swiftmart-admin-services/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server pushes order and payment changes to connected admin dashboards. Like
// the REST side it is read-only over the database; change detection is a poll
// on updated_at, not logical replication.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	started sync.Once
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{
		DB:      db,
		Logger:  logger,
		Config:  cfg,
		clients: make(map[*feedClient]struct{}),
	}
}

type feedClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *feedClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

type feedFrame struct {
	Type     string     `json:"type"`
	Orders   []feedItem `json:"orders,omitempty"`
	Payments []feedItem `json:"payments,omitempty"`
	At       time.Time  `json:"at"`
}

type feedItem struct {
	ID               int64     `json:"id"`
	OrderNumber      string    `json:"orderNumber"`
	Status           string    `json:"status"`
	CollectionStatus string    `json:"collectionStatus,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AdminFeedWS upgrades an admin dashboard connection. Auth is a short-lived
// HMAC ticket in the query string since the browser cannot set the bearer
// header on a WebSocket handshake.
func (s *Server) AdminFeedWS(w http.ResponseWriter, r *http.Request) {
	ticket := strings.TrimSpace(r.URL.Query().Get("ticket"))
	_, role, ok := utils.VerifyWSTicket(s.Config.WSTicketSecret, ticket)
	if !ok || role != "ADMIN" {
		http.Error(w, "invalid ticket", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &feedClient{conn: conn}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	s.started.Do(func() {
		go s.pollLoop(context.Background())
	})

	go s.heartbeatLoop(client)

	// Read loop exists only to notice the close.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) heartbeatLoop(client *feedClient) {
	interval := s.Config.WSHeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := client.writeJSON(feedFrame{Type: "heartbeat", At: time.Now().UTC()}); err != nil {
			return
		}
	}
}

func (s *Server) pollLoop(ctx context.Context) {
	interval := s.Config.WSFeedPollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	since := time.Now().UTC()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.RLock()
		idle := len(s.clients) == 0
		s.mu.RUnlock()
		if idle {
			since = time.Now().UTC()
			continue
		}

		now := time.Now().UTC()
		orders := s.changedOrders(ctx, since)
		payments := s.changedPayments(ctx, since)
		since = now

		if len(orders) == 0 && len(payments) == 0 {
			continue
		}
		s.broadcast(feedFrame{Type: "changes", Orders: orders, Payments: payments, At: now})
	}
}

func (s *Server) changedOrders(ctx context.Context, since time.Time) []feedItem {
	rows, err := s.DB.Query(ctx, `
		select id, order_number, status, updated_at
		from orders
		where updated_at > $1
		order by updated_at asc
		limit 100
	`, since)
	if err != nil {
		s.Logger.Warn("feed order poll failed", zap.Error(err))
		return nil
	}
	defer rows.Close()

	items := make([]feedItem, 0)
	for rows.Next() {
		var item feedItem
		if err := rows.Scan(&item.ID, &item.OrderNumber, &item.Status, &item.UpdatedAt); err == nil {
			items = append(items, item)
		}
	}
	return items
}

func (s *Server) changedPayments(ctx context.Context, since time.Time) []feedItem {
	rows, err := s.DB.Query(ctx, `
		select p.id, o.order_number, p.status, p.collection_status, p.updated_at
		from payments p
		join orders o on o.id = p.order_id
		where p.updated_at > $1
		order by p.updated_at asc
		limit 100
	`, since)
	if err != nil {
		s.Logger.Warn("feed payment poll failed", zap.Error(err))
		return nil
	}
	defer rows.Close()

	items := make([]feedItem, 0)
	for rows.Next() {
		var item feedItem
		if err := rows.Scan(&item.ID, &item.OrderNumber, &item.Status, &item.CollectionStatus, &item.UpdatedAt); err == nil {
			items = append(items, item)
		}
	}
	return items
}

func (s *Server) broadcast(frame feedFrame) {
	s.mu.RLock()
	clients := make([]*feedClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(frame); err != nil {
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
			_ = client.conn.Close()
		}
	}
}
