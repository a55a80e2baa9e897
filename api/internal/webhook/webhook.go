package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"exam-bot/api/internal/telegram"
)

const (
	BadRequestBody = "Bad request"
	NoMessageBody  = "No message to handle"
	OKBody         = "ok"

	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxBodyBytes = 4 << 20
)

// Event is one invocation of the webhook: the raw request body as delivered
// by the HTTP gateway.
type Event struct {
	Body            string `json:"body"`
	IsBase64Encoded bool   `json:"isBase64Encoded"`
}

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Router interface {
	Route(ctx context.Context, msg telegram.InboundMessage) error
}

type Handler struct {
	Router Router
	Log    *zap.Logger
	// Secret, when set, must match the secret token header of every request.
	Secret string
}

func New(r Router, secret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Router: r, Secret: secret, Log: log}
}

// Handle decodes one update and routes its message. Once a message was
// routed the response is 200 even if the reply could not be sent; that error
// is logged and returned alongside.
func (h *Handler) Handle(ctx context.Context, ev Event) (Response, error) {
	body := []byte(ev.Body)
	if ev.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			h.log().Warn("webhook body is not base64", zap.Error(err))
			return Response{StatusCode: http.StatusBadRequest, Body: BadRequestBody}, nil
		}
		body = b
	}

	var upd tgbotapi.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		h.log().Warn("malformed update", zap.Error(err))
		return Response{StatusCode: http.StatusBadRequest, Body: BadRequestBody}, nil
	}

	msg, ok := telegram.FromUpdate(upd)
	if !ok {
		h.log().Debug("update without message", zap.Int("update_id", upd.UpdateID))
		return Response{StatusCode: http.StatusOK, Body: NoMessageBody}, nil
	}

	err := h.Router.Route(ctx, msg)
	if err != nil {
		h.log().Error("reply not delivered", zap.Int("update_id", upd.UpdateID), zap.Error(err))
	}
	return Response{StatusCode: http.StatusOK, Body: OKBody}, err
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// ServeHTTP adapts Handle to a plain HTTP endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, BadRequestBody, http.StatusBadRequest)
		return
	}

	resp, _ := h.Handle(r.Context(), Event{Body: string(body)})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
