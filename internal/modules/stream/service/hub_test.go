package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
)

func newTestHub(t *testing.T) (*Hub, *metrics.Metrics, string) {
	t.Helper()
	return newTestHubWithToken(t, "")
}

func newTestHubWithToken(t *testing.T, token string) (*Hub, *metrics.Metrics, string) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	h := NewHub(token, m, zap.NewNop())
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, h *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return h.Subscribers() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	h, m, url := newTestHub(t)
	c1 := dial(t, h, url, 1)
	c2 := dial(t, h, url, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.StreamSubscribers))

	rec := models.AuditRecord{
		ID:            "a1",
		RequestID:     "r1",
		Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Symbol:        "BTCUSDT",
		Outcome:       "success",
		ResultSummary: "order 123 FILLED",
	}
	require.NoError(t, h.Append(context.Background(), rec))

	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		typ, data, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, typ)

		var got models.AuditRecord
		require.NoError(t, sonic.Unmarshal(data, &got))
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Symbol, got.Symbol)
		assert.Equal(t, rec.ResultSummary, got.ResultSummary)
	}
}

func TestHubAppendWithoutSubscribers(t *testing.T) {
	h, _, _ := newTestHub(t)
	assert.NoError(t, h.Append(context.Background(), models.AuditRecord{ID: "x"}))
}

func TestHubClientDisconnect(t *testing.T) {
	h, m, url := newTestHub(t)
	c := dial(t, h, url, 1)

	require.NoError(t, c.Close())

	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StreamSubscribers))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h, _, url := newTestHub(t)
	c := dial(t, h, url, 1)

	h.Close()

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	h, _, url := newTestHub(t)

	hdr := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubToken(t *testing.T) {
	h, _, url := newTestHubWithToken(t, "s3cret")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, http.Header{"Authorization": []string{"Bearer wrong"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	dial(t, h, url+"?token=s3cret", 1)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": []string{"Bearer s3cret"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return h.Subscribers() == 2 }, time.Second, 5*time.Millisecond)
}
