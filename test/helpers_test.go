//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goRealtime "github.com/MrEthical07/goRealtime"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var integrationKey = []byte("integration-secret")

// chatStub is an in-process chat backend: HS256 refresh endpoint, a
// token-checked websocket upgrade, and enough protocol smarts for the
// scenarios below. Connections can be dropped server-side to exercise
// the reconnect path.
type chatStub struct {
	srv *httptest.Server

	refreshCalls  atomic.Int64
	apiCalls      atomic.Int64
	rejectAPI     atomic.Bool
	rejectRefresh atomic.Bool
	rejectWS      atomic.Bool

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newChatStub(t *testing.T) *chatStub {
	t.Helper()

	s := &chatStub{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if s.rejectRefresh.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		access, expiresAt := mintIntegrationToken(t, "it-user", time.Hour)
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  access,
			"refreshToken": req.RefreshToken,
			"expiresAt":    expiresAt,
		})
	})

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		s.apiCalls.Add(1)
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if s.rejectAPI.Load() || !validIntegrationToken(token) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if s.rejectWS.Load() || !validIntegrationToken(r.URL.Query().Get("token")) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &env) != nil {
				continue
			}
			switch env.Type {
			case "ping":
				conn.WriteJSON(map[string]any{
					"type":    "pong",
					"payload": map[string]any{"timestamp": time.Now().UTC()},
				})
			case "typing_start", "typing_stop":
				conn.WriteMessage(websocket.TextMessage, data)
			}
		}
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *chatStub) realtimeURL() string {
	return "ws://" + strings.TrimPrefix(s.srv.URL, "http://") + "/api/ws"
}

// dropConnections closes every live websocket from the server side.
func (s *chatStub) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

// sendToAll pushes a raw frame to every live connection.
func (s *chatStub) sendToAll(t *testing.T, frame string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("stub write failed: %v", err)
		}
	}
}

func mintIntegrationToken(t *testing.T, userID string, ttl time.Duration) (string, int64) {
	t.Helper()
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, err := token.SignedString(integrationKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed, expiresAt.Unix()
}

func validIntegrationToken(raw string) bool {
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return integrationKey, nil })
	return err == nil && tok.Valid
}

// newIntegrationClient wires a real redis-backed client against the stub.
func newIntegrationClient(t *testing.T, stub *chatStub, tweak func(*goRealtime.Config)) *goRealtime.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := goRealtime.Config{
		Endpoint: goRealtime.EndpointConfig{
			BaseURL:     stub.srv.URL,
			RealtimeURL: stub.realtimeURL(),
		},
		Reconnect: goRealtime.ReconnectConfig{
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    50 * time.Millisecond,
			MaxAttempts: 8,
		},
		Heartbeat: goRealtime.HeartbeatConfig{Interval: time.Hour},
	}
	if tweak != nil {
		tweak(&cfg)
	}

	client, err := goRealtime.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func seedIntegrationCredential(t *testing.T, client *goRealtime.Client, ttl time.Duration) {
	t.Helper()
	access, expiresAt := mintIntegrationToken(t, "it-user", ttl)
	err := client.SetCredential(context.Background(), &goRealtime.Credential{
		AccessToken:  access,
		RefreshToken: "it-refresh",
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
}

// collectStates subscribes before Connect and returns a channel of
// connection state transitions.
func collectStates(client *goRealtime.Client) <-chan goRealtime.ConnectionState {
	states := make(chan goRealtime.ConnectionState, 64)
	client.Events().Subscribe(goRealtime.KindConnection, func(ev goRealtime.Event) {
		ce := ev.(goRealtime.ConnectionEvent)
		select {
		case states <- ce.State:
		default:
		}
	})
	return states
}

func waitState(t *testing.T, states <-chan goRealtime.ConnectionState, want goRealtime.ConnectionState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-states:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}
