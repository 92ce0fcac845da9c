package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// No Origin header means a non-browser client
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// FeedMessage is one live feed frame
type FeedMessage struct {
	Type string `json:"type"`
	Hit  Hit    `json:"hit"`
}

// subscriber is one live feed connection. Its writer goroutine is the only
// one writing to conn; send is closed by the hub when it drops the subscriber.
type subscriber struct {
	conn  *websocket.Conn
	types map[string]bool
	send  chan []byte
	done  chan struct{}
}

// newSubscriber parses a comma separated list of hit types. An empty list
// subscribes to every hit.
func newSubscriber(conn *websocket.Conn, types string) *subscriber {
	s := &subscriber{
		conn: conn,
		send: make(chan []byte, config.WSChannelBuffer),
		done: make(chan struct{}),
	}
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			if s.types == nil {
				s.types = make(map[string]bool)
			}
			s.types[t] = true
		}
	}
	return s
}

func (s *subscriber) wants(hitType string) bool {
	return s.types == nil || s.types[hitType]
}

type publication struct {
	hitType string
	message []byte
}

// Hub fans received hits out to live feed subscribers
type Hub struct {
	subscribers map[*subscriber]struct{}
	register    chan *subscriber
	unregister  chan *subscriber
	publish     chan publication

	mu sync.RWMutex
}

// NewHub creates a new live feed hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		register:    make(chan *subscriber, config.WSChannelBuffer),
		unregister:  make(chan *subscriber, config.WSChannelBuffer),
		publish:     make(chan publication, config.WSBroadcastBuffer),
	}
}

// Run serves registrations and publications until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.subscribers {
				close(s.send)
			}
			h.subscribers = make(map[*subscriber]struct{})
			h.mu.Unlock()
			return
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			count := len(h.subscribers)
			h.mu.Unlock()
			logrus.WithField("clients", count).Debug("live feed client connected")
		case s := <-h.unregister:
			h.drop(s)
		case p := <-h.publish:
			h.dispatch(p)
		}
	}
}

// dispatch hands p to every matching subscriber without blocking. A
// subscriber whose queue is full is dropped.
func (h *Hub) dispatch(p publication) {
	var slow []*subscriber
	h.mu.RLock()
	for s := range h.subscribers {
		if !s.wants(p.hitType) {
			continue
		}
		select {
		case s.send <- p.message:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		logrus.Warn("live feed client too slow, disconnecting")
		h.drop(s)
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	if ok {
		delete(h.subscribers, s)
		close(s.send)
	}
	count := len(h.subscribers)
	h.mu.Unlock()
	if ok {
		logrus.WithField("clients", count).Debug("live feed client disconnected")
	}
}

// Publish queues hit for the subscribers of its type. It never blocks; the
// hit is dropped when the queue is full.
func (h *Hub) Publish(hit Hit) error {
	if h.Clients() == 0 {
		return nil
	}
	message, err := json.Marshal(FeedMessage{Type: "hit", Hit: hit})
	if err != nil {
		return err
	}

	select {
	case h.publish <- publication{hitType: hit.Type(), message: message}:
	default:
		logrus.Warn("live feed queue full, dropping hit")
	}
	return nil
}

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request and streams hits until the client goes away.
// Query: type, a comma separated list of hit types to receive.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s := newSubscriber(conn, r.URL.Query().Get("type"))
	h.register <- s
	go s.writePump()

	defer func() {
		close(s.done)
		select {
		case h.unregister <- s:
		default:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		return nil
	})

	// control frames only
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}

// writePump owns every write to the connection: feed messages and pings
func (s *subscriber) writePump() {
	ticker := time.NewTicker(config.WSPingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithError(err).Debug("live feed write failed")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
