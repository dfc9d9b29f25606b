package service

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// буфер исходящих на клиента; медленного клиента отключаем
	sendBuffer = 32
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub раздаёт записи аудита всем подключённым websocket-клиентам.
// Реализует audit Sink: Append никогда не блокируется на медленных клиентах.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}

	upgrader websocket.Upgrader
	token    string
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewHub: пустой token отключает проверку токена. Origin браузера
// должен совпадать с Host (проверка gorilla по умолчанию).
func NewHub(token string, m *metrics.Metrics, log *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		token:   token,
		metrics: m,
		log:     log.Named("stream"),
	}
}

// authorized: "Authorization: Bearer <token>" или ?token=.
func (h *Hub) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); auth != "" {
		got = strings.TrimPrefix(auth, "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func (h *Hub) Append(_ context.Context, rec models.AuditRecord) error {
	msg, err := sonic.Marshal(rec)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*subscriber
	for s := range h.subs {
		select {
		case s.send <- msg:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn("dropping slow subscriber", zap.String("remote", s.conn.RemoteAddr().String()))
		h.remove(s)
	}
	return nil
}

// Subscribers — число подключённых клиентов.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP — апгрейд до websocket и подписка. Входящие сообщения
// клиента игнорируются, читаем только ради close/pong.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.log.Warn("stream subscriber rejected", zap.String("remote", r.RemoteAddr))
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	h.metrics.StreamSubscribers.Inc()
	h.log.Debug("subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(s)
	h.readLoop(s)
}

func (h *Hub) readLoop(s *subscriber) {
	defer h.remove(s)

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()

	if ok {
		h.metrics.StreamSubscribers.Dec()
		s.close()
	}
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		h.remove(s)
	}
}
