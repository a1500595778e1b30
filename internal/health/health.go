package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/julienschmidt/httprouter"

	httputil "reservio/pkg/http"
	"reservio/pkg/logger"
)

type Handler struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewHandler(pool *pgxpool.Pool, log *logger.Logger) *Handler {
	return &Handler{pool: pool, log: log}
}

// Live reports process liveness only.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_ = httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready additionally pings the database.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	_ = httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Live)
	router.GET("/ready", h.Ready)
}
