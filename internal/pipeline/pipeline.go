package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	audit "signal_bot/internal/modules/audit/service"
	"signal_bot/internal/notify"
	"signal_bot/internal/signal"
)

// Exchange — то, что пайплайну нужно от биржи.
type Exchange interface {
	GetBalance(ctx context.Context, asset string) (models.Balance, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) models.OrderResult
}

// Outcome — итог одного прогона. Body заполнен только при успехе
// (тело ответа биржи как есть); иначе Err.
type Outcome struct {
	RequestID string
	Kind      string
	Status    int
	Body      []byte
	Err       *Error
	Record    models.AuditRecord
}

func (o Outcome) OK() bool { return o.Err == nil }

type Pipeline struct {
	ex         Exchange
	notifier   notify.Notifier
	sink       audit.Sink
	quoteAsset string

	metrics *metrics.Metrics
	tracer  opentracing.Tracer
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(
	ex Exchange,
	notifier notify.Notifier,
	sink audit.Sink,
	quoteAsset string,
	m *metrics.Metrics,
	tracer opentracing.Tracer,
	log *zap.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		ex:         ex,
		notifier:   notifier,
		sink:       sink,
		quoteAsset: quoteAsset,
		metrics:    m,
		tracer:     tracer,
		log:        log.Named("pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run — состояние одного прогона, из него собираются отчёт и запись аудита.
type run struct {
	requestID string
	raw       signal.RawSignal
	sig       *models.Signal
	balance   *decimal.Decimal
	after     *decimal.Decimal
	result    *models.OrderResult
}

// Process: Received -> Parsed -> Validated -> BalanceChecked -> Submitted -> Reported.
// Любой исход, включая ранние ошибки, даёт ровно одну запись аудита и одно уведомление.
func (p *Pipeline) Process(ctx context.Context, body []byte, contentType string) Outcome {
	r := &run{requestID: RequestID(ctx)}
	if r.requestID == "" {
		r.requestID = uuid.NewString()
	}

	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, p.tracer, "pipeline.process")
	defer span.Finish()
	span.SetTag("request_id", r.requestID)

	log := p.log.With(zap.String("request_id", r.requestID))
	// после разбора сигнала прогон доводится до конца, даже если клиент ушёл
	detached := context.WithoutCancel(ctx)

	raw, err := signal.Decode(body, contentType)
	if err != nil {
		return p.finish(detached, log, span, r, classifyParse(err))
	}
	r.raw = raw

	sig, err := signal.Build(raw)
	if err != nil {
		return p.finish(detached, log, span, r, classifyParse(err))
	}
	r.sig = &sig
	log = log.With(
		zap.String("symbol", sig.Symbol),
		zap.String("direction", string(sig.Direction)),
	)

	// без баланса ордер не отправляется ни в одном направлении
	bal, err := p.ex.GetBalance(detached, p.quoteAsset)
	if err != nil {
		return p.finish(detached, log, span, r, &Error{
			Kind: KindBalanceQuery,
			Msg:  "balance query failed: " + err.Error(),
			Err:  err,
		})
	}
	free := bal.Free
	r.balance = &free

	if sig.Direction == models.DirectionEnter {
		required := sig.Notional()
		if r.balance.LessThan(required) {
			return p.finish(detached, log, span, r, &Error{
				Kind: KindInsufficientBalance,
				Msg: fmt.Sprintf("insufficient %s balance: free %s, required %s",
					p.quoteAsset, r.balance.String(), required.String()),
			})
		}
	}

	req := models.OrderRequest{
		Symbol:      sig.Symbol,
		Side:        sig.Direction.Side(),
		Type:        models.OrderTypeLimit,
		TimeInForce: models.TimeInForceGTC,
		Quantity:    sig.Quantity,
		Price:       sig.Price,
	}
	log.Info("submitting order",
		zap.String("side", string(req.Side)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("price", req.Price.String()),
	)
	res := p.ex.PlaceOrder(detached, req)
	r.result = &res

	// баланс для отчёта, без гарантий
	if after, err := p.ex.GetBalance(detached, p.quoteAsset); err == nil {
		free := after.Free
		r.after = &free
	} else {
		log.Warn("balance re-query failed", zap.Error(err))
	}

	switch res.Kind {
	case models.ResultSuccess:
		return p.finish(detached, log, span, r, nil)
	case models.ResultExchangeError:
		return p.finish(detached, log, span, r, &Error{Kind: KindExchange, Msg: res.Message})
	default:
		return p.finish(detached, log, span, r, &Error{
			Kind: KindTransport,
			Msg:  fmt.Sprintf("order submission failed after %d attempts", res.Attempts),
			Err:  res.LastError,
		})
	}
}

// finish — отчёт, аудит, метрики. Ошибки уведомления и аудита только логируются.
func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, span opentracing.Span, r *run, perr *Error) Outcome {
	out := Outcome{RequestID: r.requestID, Kind: OutcomeSuccess, Status: http.StatusOK}
	if perr != nil {
		out.Kind = string(perr.Kind)
		out.Status = perr.Kind.HTTPStatus()
		out.Err = perr
		ext.Error.Set(span, true)
		log.Warn("signal rejected", zap.String("kind", out.Kind), zap.Error(perr))
	} else {
		out.Body = r.result.Raw
		log.Info("order placed",
			zap.String("order_id", r.result.OrderID),
			zap.String("status", r.result.Status),
		)
	}
	span.SetTag("outcome", out.Kind)

	out.Record = p.record(r, out)
	if err := p.sink.Append(ctx, out.Record); err != nil {
		p.metrics.AuditFailures.Inc()
		log.Error("audit append failed", zap.Error(err))
	}
	if err := p.notifier.Send(ctx, p.buildReport(r, perr).String()); err != nil {
		p.metrics.NotifyFailures.Inc()
		log.Error("notification failed", zap.Error(err))
	}

	direction := "unknown"
	if r.sig != nil {
		direction = string(r.sig.Direction)
	}
	p.metrics.SignalsTotal.WithLabelValues(direction, out.Kind).Inc()
	return out
}

func (p *Pipeline) record(r *run, out Outcome) models.AuditRecord {
	rec := models.AuditRecord{
		ID:           uuid.NewString(),
		RequestID:    r.requestID,
		Timestamp:    p.now().UTC(),
		Symbol:       r.raw.Symbol,
		Outcome:      out.Kind,
		BalanceAfter: r.after,
	}
	if dir, ok := signal.ParseDirection(r.raw.DirectionWord); ok {
		rec.Direction = dir
		rec.Side = dir.Side()
	}
	if r.sig != nil {
		qty, price := r.sig.Quantity, r.sig.Price
		rec.Quantity = &qty
		rec.Price = &price
	}

	switch {
	case out.Err != nil:
		rec.ResultSummary = out.Err.Msg
	case r.result != nil:
		rec.ResultSummary = r.result.Summary()
	}
	if r.result != nil && r.result.OK() {
		rec.OrderID = r.result.OrderID
		rec.OrderStatus = r.result.Status
	}
	return rec
}

func (p *Pipeline) buildReport(r *run, perr *Error) report {
	rep := report{
		Symbol:   r.raw.Symbol,
		Quantity: r.raw.Quantity(),
		Price:    r.raw.Price,
		Asset:    p.quoteAsset,
		Balance:  r.balance,
	}
	if r.sig != nil {
		rep.Side = r.sig.Direction.Side()
		rep.Quantity = formatQty(r.sig.Quantity)
		rep.Price = formatPrice(r.sig.Price)
	}
	if r.after != nil {
		rep.Balance = r.after
	}
	if r.result != nil {
		rep.Status = r.result.Status
	}
	if perr != nil {
		rep.Err = perr.Msg
	}
	return rep
}
