package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"arb_gateway/internal/models"
	"arb_gateway/internal/modules/health/service"
	tg "arb_gateway/internal/modules/telegram_bot/service"
	"arb_gateway/internal/storage"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultRecordsLimit = 50
	maxRecordsLimit     = 500
	maxBodyBytes        = 64 << 10
)

type reloader interface {
	Reload(ctx context.Context) error
}

type sender interface {
	Notify(ctx context.Context, userID, message, category string, meta map[string]any) tg.Outcome
	TestConnection(ctx context.Context, userID string) tg.ConnectionReport
}

// Deps всё, что нужно служебному HTTP.
type Deps struct {
	UserID   string
	State    *service.State
	Gateway  reloader
	Notifier sender
	Records  storage.NotificationLog
	Feed     http.HandlerFunc // websocket-лента, может быть nil
	Log      *zap.Logger
}

type notifyRequest struct {
	UserID   string         `json:"user_id"`
	Message  string         `json:"message"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !d.State.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sess := d.State.Session()
		resp := map[string]any{
			"ready":         d.State.Ready(),
			"sessionActive": d.State.SessionActive(),
			"botUsername":   sess.BotUsername,
			"uptimeSec":     int64(d.State.Uptime().Seconds()),
			"lastUpdateUnix": func() int64 {
				t := d.State.LastUpdate()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/telegram/reload", d.handleReload)
		r.Post("/telegram/test", d.handleTest)
		r.Post("/notifications", d.handleNotify)
		r.Get("/notifications", d.handleRecords)
		if d.Feed != nil {
			r.Get("/notifications/ws", d.Feed)
		}
	})

	return r
}

func (d Deps) userFrom(r *http.Request) string {
	if u := strings.TrimSpace(r.URL.Query().Get("user")); u != "" {
		return u
	}
	return d.UserID
}

func (d Deps) handleReload(w http.ResponseWriter, r *http.Request) {
	err := d.Gateway.Reload(r.Context())
	switch {
	case errors.Is(err, tg.ErrNotConfigured):
		writeJSON(w, http.StatusOK, map[string]any{"active": false, "reason": err.Error()})
	case err != nil:
		d.Log.Warn("telegram reload failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "telegram session start failed"})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"active": true, "session": d.State.Session()})
	}
}

func (d Deps) handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Notifier.TestConnection(r.Context(), d.userFrom(r)))
}

func (d Deps) handleNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body"})
		return
	}
	var req notifyRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	user := req.UserID
	if user == "" {
		user = d.UserID
	}

	// неуспешная доставка не ошибка запроса: исход в теле ответа
	out := d.Notifier.Notify(r.Context(), user, req.Message, req.Type, req.Metadata)
	writeJSON(w, http.StatusOK, out)
}

func (d Deps) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecordsLimit)
	}

	recs, err := d.Records.RecentRecords(r.Context(), d.userFrom(r), limit)
	if err != nil {
		d.Log.Error("read notification log", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage unavailable"})
		return
	}
	if recs == nil {
		recs = []models.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
