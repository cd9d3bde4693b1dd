package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/testutil"
)

type tokenValidator map[string]int64

func (v tokenValidator) ValidateToken(token string) (*auth.Claims, error) {
	id, ok := v[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &auth.Claims{UserID: id}, nil
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, testutil.NopLogger())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/api/ws", hub.HandleWebSocket, auth.Middleware(tokenValidator{"ann": 1, "bob": 2}))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func dial(t *testing.T, url, token string) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_SendToUserReachesOnlyThatUser(t *testing.T) {
	hub, url := startHub(t)
	ann := dial(t, url, "ann")
	bob := dial(t, url, "bob")

	waitFor(t, func() bool { return hub.ClientCount(1) == 1 && hub.ClientCount(2) == 1 })

	hub.SendToUser(1, "discovery:completed", map[string]int{"count": 3})

	ann.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ann.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != "discovery:completed" {
		t.Errorf("Type = %q, want discovery:completed", msg.Type)
	}
	if msg.Payload["count"] != 3 {
		t.Errorf("Payload count = %d, want 3", msg.Payload["count"])
	}

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Error("bob received a message addressed to ann")
	}
}

func TestHub_UnauthenticatedUpgradeRejected(t *testing.T) {
	_, url := startHub(t)
	_, resp, err := gws.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() without a token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url, "ann")
	waitFor(t, func() bool { return hub.ClientCount(1) == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount(1) == 0 })

	hub.SendToUser(1, "collection:updated", nil)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://baing.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://baing.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Errorf("originChecker(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
