package goRealtime

import (
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// readPump drains one connection until it errors. Malformed frames are
// counted and dropped; the pump only exits on a transport error, which
// hands the connection to the reconnect cycle.
func (t *Transport) readPump(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.connLost(gen, err)
			return
		}

		ev, err := decodeEnvelope(data)
		if err != nil {
			if errors.Is(err, errUnknownEnvelopeType) {
				t.metrics.Inc(MetricEnvelopeUnknownType)
			} else {
				t.metrics.Inc(MetricEnvelopeDecodeError)
				log.Printf("goRealtime: dropping malformed frame: %v", err)
			}
			continue
		}

		if pong, ok := ev.(PongEvent); ok {
			t.pongReceived(gen)
			t.publish(pong)
			continue
		}

		t.publish(ev)
	}
}

// heartbeatLoop sends the application-level ping on a fixed interval. When
// PongTimeout is set, each ping arms a timer that declares the connection
// dead unless a pong lands first.
func (t *Transport) heartbeatLoop(gen uint64, conn Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(t.heartbeat.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		err := t.writeEnvelope(conn, wirePing, wirePingPayload{Timestamp: time.Now().UTC()})
		if err != nil {
			t.connLost(gen, err)
			return
		}
		t.metrics.Inc(MetricHeartbeatSent)

		if t.heartbeat.PongTimeout > 0 {
			t.armPongTimer(gen)
		}
	}
}

func (t *Transport) armPongTimer(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.pongTime != nil {
		return
	}
	t.pongTime = time.AfterFunc(t.heartbeat.PongTimeout, func() {
		t.metrics.Inc(MetricPongTimeout)
		t.connLost(gen, errPongTimeout)
	})
}

func (t *Transport) pongReceived(gen uint64) {
	t.metrics.Inc(MetricPongReceived)
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	if t.pongTime != nil {
		t.pongTime.Stop()
		t.pongTime = nil
	}
}

// writeEnvelope serializes one outbound frame. Writes are serialized by
// writeMu because the heartbeat and callers share the connection.
func (t *Transport) writeEnvelope(conn Conn, wireType string, payload any) error {
	data, err := encodeEnvelope(wireType, payload)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// liveConn returns the current connection or ErrNotConnected. Outbound
// controls are intentionally not queued while disconnected; callers get an
// explicit error instead of a silent drop.
func (t *Transport) liveConn() (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClientClosed
	}
	if t.state != StateConnected || t.conn == nil {
		return nil, ErrNotConnected
	}
	return t.conn, nil
}

// SendTyping emits a typing start or stop indicator for a chat.
func (t *Transport) SendTyping(chatID string, typing bool) error {
	conn, err := t.liveConn()
	if err != nil {
		return err
	}
	wireType := wireTypingStop
	if typing {
		wireType = wireTypingStart
	}
	return t.writeEnvelope(conn, wireType, wireTypingPayload{ChatID: chatID, IsTyping: typing})
}

// JoinChat subscribes this connection to a chat's events.
func (t *Transport) JoinChat(chatID string) error {
	conn, err := t.liveConn()
	if err != nil {
		return err
	}
	return t.writeEnvelope(conn, wireUserJoinChat, wireChatActionPayload{ChatID: chatID, Action: "join"})
}

// LeaveChat unsubscribes this connection from a chat's events.
func (t *Transport) LeaveChat(chatID string) error {
	conn, err := t.liveConn()
	if err != nil {
		return err
	}
	return t.writeEnvelope(conn, wireUserLeaveChat, wireChatActionPayload{ChatID: chatID, Action: "leave"})
}

// Ping sends an immediate application-level ping, independent of the
// heartbeat schedule. The server answers with a pong event.
func (t *Transport) Ping() error {
	conn, err := t.liveConn()
	if err != nil {
		return err
	}
	if err := t.writeEnvelope(conn, wirePing, wirePingPayload{Timestamp: time.Now().UTC()}); err != nil {
		return err
	}
	t.metrics.Inc(MetricHeartbeatSent)
	return nil
}

// Send writes an arbitrary envelope for event types the typed helpers do
// not cover.
func (t *Transport) Send(eventType string, payload any) error {
	conn, err := t.liveConn()
	if err != nil {
		return err
	}
	return t.writeEnvelope(conn, eventType, payload)
}
