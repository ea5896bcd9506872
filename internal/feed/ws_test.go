package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

func wsTestURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSessionDeliversLargeFrames(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Well past the library's 32 KiB default read limit, like a full-market
	// ticker array.
	payload := "[" + strings.Repeat(`{"e":"24hrTicker"},`, 6000)
	payload = payload[:len(payload)-1] + "]"
	if len(payload) <= 32*1024 {
		t.Fatalf("fixture too small to exercise the read limit: %d bytes", len(payload))
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		if err := conn.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
			t.Errorf("write frame: %v", err)
			return
		}
		<-ctx.Done()
	}))
	defer server.Close()

	frames := make(chan json.RawMessage, 1)
	client := newWSClient(wsTestURL(server), 10*time.Millisecond, zap.NewNop())

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		_ = client.run(runCtx, func(msg json.RawMessage) {
			select {
			case frames <- msg:
			default:
			}
		})
	}()

	select {
	case frame := <-frames:
		if len(frame) != len(payload) {
			t.Fatalf("frame length = %d, want %d", len(frame), len(payload))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for the oversized frame")
	}
}

func TestRunReplaysSubscriptionsAfterReconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	subs := make(chan map[string]any, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err == nil {
			select {
			case subs <- msg:
			default:
			}
		}
		// Drop the session so the client has to reconnect and resubscribe.
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer server.Close()

	client := newWSClient(wsTestURL(server), 10*time.Millisecond, zap.NewNop())
	client.subscribe(map[string]any{"method": "SUBSCRIBE", "id": 1})

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		_ = client.run(runCtx, nil)
	}()

	for i := 0; i < 2; i++ {
		select {
		case msg := <-subs:
			if msg["method"] != "SUBSCRIBE" {
				t.Fatalf("session %d: expected subscribe message, got %v", i+1, msg)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for subscribe replay %d", i+1)
		}
	}
}
