// Command gorealtime-loadtest drives many concurrent realtime clients
// against a chat backend and reports connect latency and event throughput.
//
// With no -backend flag it starts a self-contained stub (miniredis for the
// credential stores plus a local websocket broadcaster), so the tool runs
// without any external infrastructure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goRealtime "github.com/MrEthical07/goRealtime"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var hmacKey = []byte("loadtest-secret-key")

func main() {
	var (
		clients    = flag.Int("clients", 64, "number of concurrent clients")
		duration   = flag.Duration("duration", 10*time.Second, "send phase duration")
		sendEvery  = flag.Duration("send-every", 50*time.Millisecond, "typing indicator interval per client")
		backendURL = flag.String("backend", "", "backend base URL; if empty, a local stub is started")
		redisAddr  = flag.String("redis-addr", "", "redis address; if empty, miniredis is used")
	)
	flag.Parse()

	if *clients <= 0 || *duration <= 0 {
		fmt.Fprintln(os.Stderr, "clients and duration must be > 0")
		os.Exit(2)
	}

	base := *backendURL
	if base == "" {
		stub := startBroadcastStub()
		defer stub.Close()
		base = stub.URL
		fmt.Printf("using local stub at %s\n", base)
	}
	realtime := "ws://" + strings.TrimPrefix(strings.TrimPrefix(base, "http://"), "https://") + "/api/ws"

	addr := *redisAddr
	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	ctx := context.Background()

	var (
		wg            sync.WaitGroup
		eventsIn      atomic.Int64
		sendErrors    atomic.Int64
		connectFailed atomic.Int64
		mu            sync.Mutex
		connectTimes  []time.Duration
	)

	stop := time.After(*duration)
	stopCh := make(chan struct{})
	go func() {
		<-stop
		close(stopCh)
	}()

	fmt.Printf("starting %d clients for %s...\n", *clients, *duration)
	startAll := time.Now()

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			rdb := redis.NewClient(&redis.Options{Addr: addr})
			defer rdb.Close()

			cfg := goRealtime.Config{
				Endpoint: goRealtime.EndpointConfig{
					BaseURL:     base,
					RealtimeURL: realtime,
				},
				Session:   goRealtime.SessionConfig{RedisPrefix: fmt.Sprintf("lt:%d", n)},
				Heartbeat: goRealtime.HeartbeatConfig{Interval: 5 * time.Second},
			}

			client, err := goRealtime.New().
				WithConfig(cfg).
				WithRedis(rdb).
				WithMetricsEnabled(true).
				Build()
			if err != nil {
				fmt.Fprintf(os.Stderr, "client %d build: %v\n", n, err)
				connectFailed.Add(1)
				return
			}
			defer client.Close()

			userID := fmt.Sprintf("load-user-%d", n)
			access, expiresAt := mintToken(userID, time.Hour)
			err = client.SetCredential(ctx, &goRealtime.Credential{
				AccessToken:  access,
				RefreshToken: "refresh-" + userID,
				IssuedAt:     time.Now().Unix(),
				ExpiresAt:    expiresAt,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "client %d seed: %v\n", n, err)
				connectFailed.Add(1)
				return
			}

			client.Events().Subscribe(goRealtime.KindTyping, func(goRealtime.Event) {
				eventsIn.Add(1)
			})

			startConnect := time.Now()
			if err := client.Connect(ctx); err != nil {
				connectFailed.Add(1)
				return
			}
			elapsed := time.Since(startConnect)
			mu.Lock()
			connectTimes = append(connectTimes, elapsed)
			mu.Unlock()

			ticker := time.NewTicker(*sendEvery)
			defer ticker.Stop()
			typing := false
			for {
				select {
				case <-stopCh:
					client.Disconnect()
					return
				case <-ticker.C:
					typing = !typing
					if err := client.Transport().SendTyping("load", typing); err != nil {
						sendErrors.Add(1)
					}
				}
			}
		}(i)
	}

	wg.Wait()
	total := time.Since(startAll)

	fmt.Println()
	fmt.Printf("clients:          %d (%d failed to connect)\n", *clients, connectFailed.Load())
	fmt.Printf("events received:  %d (%.0f/s)\n", eventsIn.Load(), float64(eventsIn.Load())/total.Seconds())
	fmt.Printf("send errors:      %d\n", sendErrors.Load())

	if len(connectTimes) > 0 {
		sort.Slice(connectTimes, func(i, j int) bool { return connectTimes[i] < connectTimes[j] })
		fmt.Printf("connect p50/p95/max: %v / %v / %v\n",
			connectTimes[len(connectTimes)/2],
			connectTimes[len(connectTimes)*95/100],
			connectTimes[len(connectTimes)-1])
	}
}

// startBroadcastStub is a minimal chat backend: it verifies the handshake
// token and fans every typing indicator out to all connected clients.
func startBroadcastStub() *httptest.Server {
	var (
		mu    sync.Mutex
		conns = map[*websocket.Conn]struct{}{}
	)

	broadcast := func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		for c := range conns {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		access, expiresAt := mintToken("refreshed", time.Hour)
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  access,
			"refreshToken": req.RefreshToken,
			"expiresAt":    expiresAt,
		})
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if _, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return hmacKey, nil }); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		defer func() {
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
			conn.Close()
		}()

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
			case "typing_start", "typing_stop":
				broadcast(data)
			case "ping":
				conn.WriteJSON(map[string]any{
					"type":    "pong",
					"payload": map[string]any{"timestamp": time.Now().UTC()},
				})
			}
		}
	})

	return httptest.NewServer(mux)
}

func mintToken(userID string, ttl time.Duration) (string, int64) {
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, _ := token.SignedString(hmacKey)
	return signed, expiresAt.Unix()
}
