//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	goRealtime "github.com/MrEthical07/goRealtime"
)

func TestDroppedConnectionRecoversAutomatically(t *testing.T) {
	ctx := context.Background()
	stub := newChatStub(t)
	client := newIntegrationClient(t, stub, nil)
	seedIntegrationCredential(t, client, time.Hour)

	states := collectStates(client)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitState(t, states, goRealtime.StateConnected)

	stub.dropConnections()

	waitState(t, states, goRealtime.StateReconnecting)
	waitState(t, states, goRealtime.StateConnected)

	if got := client.Transport().State(); got != goRealtime.StateConnected {
		t.Fatalf("expected Connected after recovery, got %v", got)
	}
}

func TestReconnectExhaustionEndsInFailed(t *testing.T) {
	ctx := context.Background()
	stub := newChatStub(t)
	client := newIntegrationClient(t, stub, func(cfg *goRealtime.Config) {
		cfg.Reconnect.MaxAttempts = 2
	})
	seedIntegrationCredential(t, client, time.Hour)

	states := collectStates(client)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitState(t, states, goRealtime.StateConnected)

	stub.rejectWS.Store(true)
	stub.dropConnections()

	waitState(t, states, goRealtime.StateFailed)

	snap := client.Metrics()
	if snap.Counters[goRealtime.MetricReconnectExhausted] != 1 {
		t.Fatalf("expected one exhaustion, got %d",
			snap.Counters[goRealtime.MetricReconnectExhausted])
	}

	// A manual Connect after the backend recovers starts a fresh cycle.
	stub.rejectWS.Store(false)
	states = collectStates(client)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect after recovery failed: %v", err)
	}
	waitState(t, states, goRealtime.StateConnected)
}

func TestInboundMessagesSurviveReconnect(t *testing.T) {
	ctx := context.Background()
	stub := newChatStub(t)
	client := newIntegrationClient(t, stub, nil)
	seedIntegrationCredential(t, client, time.Hour)

	messages := make(chan goRealtime.MessageEvent, 8)
	client.Events().Subscribe(goRealtime.KindMessage, func(ev goRealtime.Event) {
		messages <- ev.(goRealtime.MessageEvent)
	})

	states := collectStates(client)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitState(t, states, goRealtime.StateConnected)

	stub.sendToAll(t, `{"type":"new_message","payload":{"chatId":"c1","senderId":"u2","message":"before"}}`)
	select {
	case ev := <-messages:
		if string(ev.Payload) != `"before"` {
			t.Fatalf("unexpected payload %s", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first message")
	}

	stub.dropConnections()
	waitState(t, states, goRealtime.StateConnected)

	stub.sendToAll(t, `{"type":"new_message","payload":{"chatId":"c1","senderId":"u2","message":"after"}}`)
	select {
	case ev := <-messages:
		if string(ev.Payload) != `"after"` {
			t.Fatalf("unexpected payload %s", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for post-reconnect message")
	}
}

func TestManualDisconnectStaysDown(t *testing.T) {
	ctx := context.Background()
	stub := newChatStub(t)
	client := newIntegrationClient(t, stub, nil)
	seedIntegrationCredential(t, client, time.Hour)

	states := collectStates(client)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitState(t, states, goRealtime.StateConnected)

	client.Disconnect()
	waitState(t, states, goRealtime.StateDisconnected)

	time.Sleep(100 * time.Millisecond)
	if got := client.Transport().State(); got != goRealtime.StateDisconnected {
		t.Fatalf("expected transport to stay Disconnected, got %v", got)
	}
}
