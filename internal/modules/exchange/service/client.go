package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
)

const (
	headerAPIKey = "X-BB-APIKEY"

	// ограничение на тело ответа биржи
	maxResponseBytes = 1 << 20
)

// Client — подписанный REST-клиент спотового API биржи.
type Client struct {
	baseURL       string
	apiKey        string
	apiSecret     string
	accountPath   string
	orderPath     string
	testOrderPath string
	dryRun        bool

	http    *http.Client
	retry   RetryPolicy
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	tracer  opentracing.Tracer
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Client)

// WithRetryPolicy заменяет политику повторов из конфига.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithClock — источник времени для timestamp запросов.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(
	cfg config.Exchange,
	httpClient *http.Client,
	m *metrics.Metrics,
	tracer opentracing.Tracer,
	log *zap.Logger,
	opts ...Option,
) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		apiSecret:     cfg.APISecret,
		accountPath:   cfg.AccountPath,
		orderPath:     cfg.OrderPath,
		testOrderPath: cfg.TestOrderPath,
		dryRun:        cfg.DryRun,
		http:          httpClient,
		retry: RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
			Retryable:   IsTransport,
		},
		metrics: m,
		tracer:  tracer,
		log:     log.Named("exchange"),
		now:     time.Now,
	}

	if cfg.Breaker.Enabled {
		maxFailures := cfg.Breaker.MaxFailures
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "exchange-api",
			MaxRequests: 1,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				c.log.Warn("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	status int
	body   []byte
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

// do подписывает params (signature добавляется последним) и отправляет запрос.
// GET/DELETE — параметры в query, POST — form body.
// Ошибка *TransportError, либо *ParamError до отправки; разбор тела на вызывающем.
func (c *Client) do(ctx context.Context, method, path, endpoint string, params Params) (*response, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, "exchange."+endpoint)
	defer span.Finish()
	ext.HTTPMethod.Set(span, method)
	ext.HTTPUrl.Set(span, c.baseURL+path)

	if err := params.Check(); err != nil {
		ext.Error.Set(span, true)
		return nil, err
	}
	signed := params.Add("signature", Sign(params, c.apiSecret))
	query := signed.Encode()

	var (
		url  = c.baseURL + path
		body io.Reader
	)
	if method == http.MethodPost {
		body = strings.NewReader(query)
	} else {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &TransportError{Op: endpoint, Err: errors.Wrap(err, "new request")}
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.roundTrip(req)
	c.metrics.ExchangeRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExchangeRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
		return nil, &TransportError{Op: endpoint, Err: err}
	}

	ext.HTTPStatusCode.Set(span, uint16(resp.status))
	c.metrics.ExchangeRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.status)).Inc()
	return resp, nil
}

// roundTrip — сам HTTP-обмен, под circuit breaker если он включён.
func (c *Client) roundTrip(req *http.Request) (*response, error) {
	call := func() (*response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		rb, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, errors.Wrap(err, "read body")
		}
		return &response{status: resp.StatusCode, body: rb}, nil
	}

	if c.cb == nil {
		return call()
	}
	out, err := c.cb.Execute(func() (interface{}, error) { return call() })
	if err != nil {
		return nil, err
	}
	return out.(*response), nil
}
