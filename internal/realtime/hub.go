package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// clientBuffer 单个订阅者的缓冲条数，写满后新提示直接丢弃
const clientBuffer = 16

// Hint 变更提示，仅用于提醒前端刷新，不携带业务数据
type Hint struct {
	TenantID string `json:"tenant_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	ID       string `json:"id,omitempty"`
	At       string `json:"at"`
}

// Client 一个 SSE 连接
type Client struct {
	ID       string
	TenantID string
	UserID   string
	Outbound chan Hint

	once sync.Once
}

// Broker 跨实例转发提示的消息通道（Redis pub/sub 实现）
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, onMsg func(payload []byte)) error
}

// Hub 按租户分发变更提示
// 配置 Broker 后提示经由 Broker 发布，由 Forward 收到后再在本实例分发
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Client]struct{}
	logger *zap.Logger

	broker  Broker
	channel string
	dropped atomic.Uint64
}

// NewHub 创建 Hub，broker 为空时仅在进程内分发
func NewHub(broker Broker, channel string, logger *zap.Logger) *Hub {
	return &Hub{
		subs:    make(map[string]map[*Client]struct{}),
		logger:  logger.With(zap.String("component", "realtime")),
		broker:  broker,
		channel: channel,
	}
}

// ── 订阅管理 ──

// Subscribe 为租户登记一个新连接
func (h *Hub) Subscribe(tenantID, userID string) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		UserID:   userID,
		Outbound: make(chan Hint, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.subs[tenantID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.subs[tenantID] = clients
	}
	clients[c] = struct{}{}

	h.logger.Debug("SSE 订阅", zap.String("client_id", c.ID), zap.String("tenant_id", tenantID))
	return c
}

// Unsubscribe 移除连接并关闭其通道，可重复调用
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if clients, ok := h.subs[c.TenantID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.subs, c.TenantID)
		}
	}
	h.mu.Unlock()

	c.once.Do(func() { close(c.Outbound) })
}

// Subscribers 租户当前连接数
func (h *Hub) Subscribers(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenantID])
}

// Dropped 因缓冲已满丢弃的提示总数
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ── 分发 ──

// Broadcast 在本实例内分发，缓冲已满的连接丢弃该条提示
func (h *Hub) Broadcast(hint Hint) {
	if hint.TenantID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subs[hint.TenantID] {
		select {
		case c.Outbound <- hint:
		default:
			h.dropped.Add(1)
			h.logger.Warn("SSE 缓冲已满，丢弃提示",
				zap.String("client_id", c.ID),
				zap.String("resource", hint.Resource),
			)
		}
	}
}

// Notify 事务提交后调用，失败只记录日志
func (h *Hub) Notify(ctx context.Context, tenantID, resource, action, id string) {
	hint := Hint{
		TenantID: tenantID,
		Resource: resource,
		Action:   action,
		ID:       id,
		At:       time.Now().UTC().Format(time.RFC3339),
	}

	if h.broker == nil {
		h.Broadcast(hint)
		return
	}

	payload, err := json.Marshal(hint)
	if err == nil {
		err = h.broker.Publish(context.WithoutCancel(ctx), h.channel, payload)
	}
	if err != nil {
		// Redis 不可用时至少通知本实例的连接
		h.logger.Warn("发布变更提示失败", zap.String("resource", resource), zap.Error(err))
		h.Broadcast(hint)
	}
}

// Forward 订阅 Broker 频道并把收到的提示分发到本实例，ctx 取消时停止
func (h *Hub) Forward(ctx context.Context) error {
	if h.broker == nil {
		return nil
	}
	return h.broker.Subscribe(ctx, h.channel, func(payload []byte) {
		var hint Hint
		if err := json.Unmarshal(payload, &hint); err != nil {
			h.logger.Warn("无法解析变更提示", zap.Error(err))
			return
		}
		h.Broadcast(hint)
	})
}
