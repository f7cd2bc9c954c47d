package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"gardops/backend/internal/service"
)

var _ service.Notifier = (*Hub)(nil)

// loopBroker 进程内的 Broker，Publish 后同步回调所有订阅者
type loopBroker struct {
	mu        sync.Mutex
	handlers  map[string][]func([]byte)
	published int
	fail      bool
}

func newLoopBroker() *loopBroker {
	return &loopBroker{handlers: make(map[string][]func([]byte))}
}

func (b *loopBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	if b.fail {
		b.mu.Unlock()
		return errors.New("redis down")
	}
	b.published++
	hs := append([]func([]byte){}, b.handlers[channel]...)
	b.mu.Unlock()
	for _, h := range hs {
		h(payload)
	}
	return nil
}

func (b *loopBroker) Subscribe(_ context.Context, channel string, onMsg func([]byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], onMsg)
	return nil
}

func TestHub_BroadcastIsTenantScoped(t *testing.T) {
	hub := NewHub(nil, "", zap.NewNop())
	a := hub.Subscribe("tenant-a", "u1")
	b := hub.Subscribe("tenant-b", "u2")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Notify(context.Background(), "tenant-a", "assignments", "created", "id-1")

	select {
	case h := <-a.Outbound:
		if h.Resource != "assignments" || h.Action != "created" || h.ID != "id-1" {
			t.Errorf("提示内容错误: %+v", h)
		}
	default:
		t.Fatal("tenant-a 应收到提示")
	}
	select {
	case h := <-b.Outbound:
		t.Errorf("tenant-b 不应收到提示，实际=%+v", h)
	default:
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(nil, "", zap.NewNop())
	c := hub.Subscribe("t", "u")
	defer hub.Unsubscribe(c)

	for i := 0; i < clientBuffer+5; i++ {
		hub.Broadcast(Hint{TenantID: "t", Resource: "coverage_gaps"})
	}
	if len(c.Outbound) != clientBuffer {
		t.Errorf("缓冲应保持满 %d 条，实际=%d", clientBuffer, len(c.Outbound))
	}
	if hub.Dropped() != 5 {
		t.Errorf("期望丢弃 5 条，实际=%d", hub.Dropped())
	}
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil, "", zap.NewNop())
	c := hub.Subscribe("t", "u")
	if hub.Subscribers("t") != 1 {
		t.Fatalf("期望 1 个连接")
	}
	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	if hub.Subscribers("t") != 0 {
		t.Errorf("取消后应无连接，实际=%d", hub.Subscribers("t"))
	}
	if _, ok := <-c.Outbound; ok {
		t.Error("通道应已关闭")
	}
	// 关闭后的广播不应 panic
	hub.Broadcast(Hint{TenantID: "t"})
}

func TestHub_ForwardsThroughBroker(t *testing.T) {
	broker := newLoopBroker()
	hub := NewHub(broker, "gardops:changes", zap.NewNop())
	if err := hub.Forward(context.Background()); err != nil {
		t.Fatalf("Forward 应成功: %v", err)
	}
	c := hub.Subscribe("t", "u")
	defer hub.Unsubscribe(c)

	hub.Notify(context.Background(), "t", "shift_posts", "guard_assigned", "p-1")

	if broker.published != 1 {
		t.Errorf("应经 Broker 发布 1 次，实际=%d", broker.published)
	}
	if len(c.Outbound) != 1 {
		t.Fatalf("经 Broker 回环后只应收到 1 条，实际=%d", len(c.Outbound))
	}
	if h := <-c.Outbound; h.Resource != "shift_posts" {
		t.Errorf("提示内容错误: %+v", h)
	}
}

func TestHub_BrokerFailureFallsBackToLocal(t *testing.T) {
	broker := newLoopBroker()
	broker.fail = true
	hub := NewHub(broker, "ch", zap.NewNop())
	c := hub.Subscribe("t", "u")
	defer hub.Unsubscribe(c)

	hub.Notify(context.Background(), "t", "coverage_gaps", "changed", "")

	if len(c.Outbound) != 1 {
		t.Errorf("发布失败时应退回本地分发，实际=%d", len(c.Outbound))
	}
}

func TestHub_StreamWritesEvents(t *testing.T) {
	hub := NewHub(nil, "", zap.NewNop())
	c := hub.Subscribe("t", "u")
	hub.Broadcast(Hint{TenantID: "t", Resource: "assignments", Action: "updated", ID: "a-1"})
	hub.Unsubscribe(c)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/events", nil)
	hub.Stream(w, r, c)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: ready") {
		t.Error("应先发送 ready 事件")
	}
	idx := strings.Index(body, "event: assignments\ndata: ")
	if idx < 0 {
		t.Fatalf("缺少 assignments 事件: %q", body)
	}
	line := body[idx+len("event: assignments\ndata: "):]
	line = line[:strings.Index(line, "\n")]
	var h Hint
	if err := json.Unmarshal([]byte(line), &h); err != nil {
		t.Fatalf("data 应为 JSON: %v", err)
	}
	if h.ID != "a-1" || h.Action != "updated" {
		t.Errorf("提示内容错误: %+v", h)
	}
}
