package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	health "signal_bot/internal/modules/health/service"
	"signal_bot/internal/pipeline"
)

// Processor — пайплайн с точки зрения HTTP.
type Processor interface {
	Process(ctx context.Context, body []byte, contentType string) pipeline.Outcome
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

type Handler struct {
	pipeline     Processor
	state        *health.State
	maxBodyBytes int64
	log          *zap.Logger
}

func NewHandler(p Processor, state *health.State, maxBodyBytes int64, log *zap.Logger) *Handler {
	return &Handler{
		pipeline:     p,
		state:        state,
		maxBodyBytes: maxBodyBytes,
		log:          log.Named("webhook"),
	}
}

// Webhook — POST /webhook. Ответ: тело биржи при успехе, иначе errorResponse.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.log.Warn("read webhook body", zap.String("request_id", pipeline.RequestID(r.Context())), zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:     "request body too large",
				Code:      "payload_too_large",
				RequestID: pipeline.RequestID(r.Context()),
			})
			return
		}
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:     "read body: " + err.Error(),
			Code:      string(pipeline.KindParse),
			RequestID: pipeline.RequestID(r.Context()),
		})
		return
	}

	out := h.pipeline.Process(r.Context(), body, r.Header.Get("Content-Type"))
	h.state.TouchSignal(time.Now(), out.Kind)

	if out.OK() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(out.Status)
		_, _ = w.Write(out.Body)
		return
	}

	writeError(w, out.Status, errorResponse{
		Error:     out.Err.Msg,
		Code:      string(out.Err.Kind),
		RequestID: out.RequestID,
	})
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	b, err := sonic.Marshal(resp)
	if err != nil {
		http.Error(w, resp.Error, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
