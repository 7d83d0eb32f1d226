package goRealtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goRealtime/session"
)

func renewalBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeRenewal(w http.ResponseWriter, access string) {
	json.NewEncoder(w).Encode(map[string]any{
		"accessToken":  access,
		"refreshToken": "rotated-refresh",
		"expiresAt":    time.Now().Add(time.Hour).Unix(),
	})
}

func TestRenewReplacesStoredCredential(t *testing.T) {
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "seed-refresh" {
			http.Error(w, "wrong token", http.StatusUnauthorized)
			return
		}
		writeRenewal(w, "fresh-access")
	})

	client, store := newTestClient(t, backend)

	cred, err := client.Renew(context.Background())
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if cred.AccessToken != "fresh-access" || cred.RefreshToken != "rotated-refresh" {
		t.Fatalf("unexpected renewed credential: %+v", cred)
	}

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored.AccessToken != "fresh-access" {
		t.Fatalf("renewal did not persist, stored %q", stored.AccessToken)
	}
}

func TestConcurrentRenewCoalescesToOneRequest(t *testing.T) {
	var calls atomic.Int64
	gate := make(chan struct{})
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-gate
		writeRenewal(w, "fresh-access")
	})

	client, _ := newTestClient(t, backend)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = client.Renew(context.Background())
		}(i)
	}

	// Give every caller a chance to reach the in-flight marker, then let
	// the single endpoint call finish.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 renewal request, endpoint saw %d", got)
	}
	if got := client.metrics.Value(MetricRenewSuccess); got != 1 {
		t.Fatalf("expected 1 renew success, got %d", got)
	}
}

func TestRenewCallerDetachesOnContextWithoutCancellingOperation(t *testing.T) {
	gate := make(chan struct{})
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-gate
		writeRenewal(w, "fresh-access")
	})

	client, store := newTestClient(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Renew(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for detached caller, got %v", err)
	}

	// The shared operation still completes and persists.
	close(gate)

	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := store.Load(context.Background())
		if err == nil && stored.AccessToken == "fresh-access" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("renewal did not complete after caller detached")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRenewRejectionClearsStoreAndPublishes(t *testing.T) {
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "revoked", http.StatusUnauthorized)
	})

	client, store := newTestClient(t, backend)

	invalidated := make(chan Event, 1)
	client.Events().Subscribe(KindSessionInvalid, func(ev Event) {
		select {
		case invalidated <- ev:
		default:
		}
	})

	_, err := client.Renew(context.Background())
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}

	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoCredential) {
		t.Fatalf("expected cleared store, got %v", err)
	}

	select {
	case <-invalidated:
	case <-time.After(time.Second):
		t.Fatal("no SessionInvalidEvent published")
	}

	if got := client.metrics.Value(MetricRenewRejected); got != 1 {
		t.Fatalf("expected 1 rejected renewal, got %d", got)
	}
}

func TestRenewTransientFailureKeepsStore(t *testing.T) {
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	client, store := newTestClient(t, backend)

	_, err := client.Renew(context.Background())
	if !errors.Is(err, ErrRenewalUnavailable) {
		t.Fatalf("expected ErrRenewalUnavailable, got %v", err)
	}

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("store should keep the credential: %v", err)
	}
	if stored.RefreshToken != "seed-refresh" {
		t.Fatalf("credential changed on transient failure: %+v", stored)
	}
}

func TestRenewWithEmptyStoreIsSessionInvalid(t *testing.T) {
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("renewal endpoint should not be called without a credential")
	})

	client, store := newTestClient(t, backend)
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, err := client.Renew(context.Background())
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestRenewReusesRefreshTokenWhenNotRotated(t *testing.T) {
	backend := renewalBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "fresh-access",
			"expiresAt":   time.Now().Add(time.Hour).Unix(),
		})
	})

	client, _ := newTestClient(t, backend)

	cred, err := client.Renew(context.Background())
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if cred.RefreshToken != "seed-refresh" {
		t.Fatalf("expected refresh token carried over, got %q", cred.RefreshToken)
	}
}

func TestLogoutClearsStoreEvenWhenEndpointFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	client, store := newTestClient(t, backend)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoCredential) {
		t.Fatalf("expected cleared store after logout, got %v", err)
	}
}
