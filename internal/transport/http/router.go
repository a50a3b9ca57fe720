package http

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"quizterios-service/internal/app"
	"quizterios-service/internal/domain"
)

// NewRouter wires the health check, the read-only REST endpoints and the
// game websocket.
func NewRouter(service *app.GameService, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := NewWSHandler(service, logger)

	router := httprouter.New()
	router.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, logger, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": service.ActiveSessions(),
		})
	})
	router.GET("/api/leaderboard", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, logger, http.StatusOK, service.RefreshLeaderboard(r.Context()))
	})
	router.GET("/api/topics", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, logger, http.StatusOK, domain.Topics)
	})
	router.HandlerFunc(http.MethodGet, "/ws", ws.ServeWS)
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		logger.Error("handler panic", zap.String("path", r.URL.Path), zap.Any("panic", v))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return router
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("write json response", zap.Error(err))
	}
}
