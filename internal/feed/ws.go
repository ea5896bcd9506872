package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// maxFrameBytes raises the library's 32 KiB read limit. Full-market ticker
// frames run hundreds of KB, so the default would kill every session before
// the first message is handled.
const maxFrameBytes = 16 << 20

// wsClient is a reconnecting websocket wrapper. Subscriptions are replayed
// after every reconnect, and read failures trigger a fixed-delay retry until
// the context is cancelled.
type wsClient struct {
	url            string
	reconnectDelay time.Duration
	log            *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	subs []any
}

func newWSClient(url string, reconnectDelay time.Duration, log *zap.Logger) *wsClient {
	return &wsClient{url: url, reconnectDelay: reconnectDelay, log: log}
}

func (c *wsClient) subscribe(sub any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, sub)
}

func (c *wsClient) run(ctx context.Context, handler func(json.RawMessage)) error {
	for {
		err := c.session(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("ws session ended", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *wsClient) session(ctx context.Context, handler func(json.RawMessage)) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(maxFrameBytes)
	c.mu.Lock()
	c.conn = conn
	subs := append([]any(nil), c.subs...)
	c.mu.Unlock()
	defer c.close()

	for _, sub := range subs {
		if err := writeJSON(ctx, conn, sub); err != nil {
			return err
		}
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if handler != nil {
			handler(json.RawMessage(data))
		}
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
