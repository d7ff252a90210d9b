package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait bounds a single frame write to the subscriber
	writeWait = 10 * time.Second

	// pongWait is how long a silent subscriber is kept before it is dropped
	pongWait = 60 * time.Second

	// pingPeriod must stay below pongWait
	pingPeriod = (pongWait * 9) / 10

	// The stream is one-way, so inbound frames are only control frames
	maxInboundFrame = 512

	// outboxSize is the number of events queued per subscriber
	outboxSize = 256
)

// Subscriber is one connection listening for a user's decision and statement events
type Subscriber struct {
	id     string
	user   string
	conn   *websocket.Conn
	hub    *Hub
	outbox chan []byte

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// NewSubscriber wraps an upgraded connection for user
func NewSubscriber(conn *websocket.Conn, user string, hub *Hub) *Subscriber {
	return &Subscriber{
		id:     uuid.New().String(),
		user:   user,
		conn:   conn,
		hub:    hub,
		outbox: make(chan []byte, outboxSize),
	}
}

// ID returns the subscriber ID
func (s *Subscriber) ID() string { return s.id }

// User returns the user whose events are streamed
func (s *Subscriber) User() string { return s.user }

// Send queues an encoded event. A full outbox means the subscriber is not
// keeping up and the event is dropped for it.
func (s *Subscriber) Send(data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClientClosed
	}
	select {
	case s.outbox <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close ends the stream. It may be called more than once.
func (s *Subscriber) Close() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.outbox)
		s.mu.Unlock()

		err = s.conn.Close()
	})
	return err
}

// Closed reports whether the stream has ended
func (s *Subscriber) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Serve registers the subscriber with the hub and streams events until the
// peer goes away. It blocks, so callers run it in its own goroutine.
func (s *Subscriber) Serve() {
	s.hub.Register(s)
	go s.deliver()
	s.awaitDisconnect()
}

// awaitDisconnect reads control frames to keep the deadline fresh and
// unregisters the subscriber once reading fails
func (s *Subscriber) awaitDisconnect() {
	defer func() {
		s.hub.Unregister(s)
		s.Close()
	}()

	s.conn.SetReadLimit(maxInboundFrame)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("subscriber_id", s.id).
					Str("user", s.user).
					Msg("Event stream closed unexpectedly")
			}
			return
		}
	}
}

// deliver writes queued events and keepalive pings to the peer
func (s *Subscriber) deliver() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case event, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				log.Warn().
					Err(err).
					Str("subscriber_id", s.id).
					Str("user", s.user).
					Msg("Failed to deliver event")
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
