package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// heartbeatInterval 注释行心跳，防止代理断开空闲连接
var heartbeatInterval = 15 * time.Second

// Stream 以 text/event-stream 推送提示，直到客户端断开或连接被关闭
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ready\ndata: {\"client_id\":%q}\n\n", c.ID)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case hint, ok := <-c.Outbound:
			if !ok {
				return
			}
			data, err := json.Marshal(hint)
			if err != nil {
				h.logger.Warn("序列化变更提示失败", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", hint.Resource, data)
			flusher.Flush()
		}
	}
}
