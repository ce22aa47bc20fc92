package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

func TestDialDeliversFramesInOrder(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, msg := range []string{`{"type":"a"}`, `{"type":"b"}`, `{"type":"c"}`} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var frames []string
	d := NewDialer("ws" + strings.TrimPrefix(srv.URL, "http"))
	closer, err := d.Dial(context.Background(), "meet-1", "u-1", func(b []byte) {
		mu.Lock()
		frames = append(frames, string(b))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer closer.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(frames)
		mu.Unlock()
		if n == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	if frames[0] != `{"type":"a"}` || frames[2] != `{"type":"c"}` {
		t.Errorf("order = %v", frames)
	}
	if !strings.Contains(gotQuery, "meeting=meet-1") || !strings.Contains(gotQuery, "user=u-1") {
		t.Errorf("query = %s", gotQuery)
	}
}

func TestDialFailsFast(t *testing.T) {
	d := NewDialer("ws://127.0.0.1:1/feed")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := d.Dial(ctx, "meet-1", "u-1", func([]byte) {}); err == nil {
		t.Fatal("dial to a dead endpoint must error, not retry")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Hold the connection open until the client closes.
		conn.ReadMessage()
		conn.Close()
	}))
	defer srv.Close()

	d := NewDialer("ws" + strings.TrimPrefix(srv.URL, "http"))
	closer, err := d.Dial(context.Background(), "meet-1", "u-1", func([]byte) {})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
