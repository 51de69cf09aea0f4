package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gochat/internal/chat/handler"
	"gochat/internal/common"
	"gochat/internal/media"
	"gochat/internal/notif"
	"gochat/internal/user"
)

// Handler is the root HTTP handler of the API server.
type Handler http.Handler

// NewRouter mounts /health and /metrics at the root and everything else under /api/v1.
// Nil feature handlers are skipped.
func NewRouter(
	users *user.Handler,
	chat *handler.HTTPHandler,
	notifications *notif.NotificationHandler,
	mediaServer *media.HTTPServer,
	tokens common.TokenValidator,
	limiter *RateLimiter,
	log *zap.Logger,
) Handler {
	router := mux.NewRouter()
	router.Use(Observe(log))

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if mediaServer != nil {
		mediaServer.RegisterRoutes(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	protected := api.NewRoute().Subrouter()
	protected.Use(common.HTTPAuthMiddleware(tokens, log))
	if limiter != nil {
		protected.Use(limiter.Middleware)
	}

	if users != nil {
		users.RegisterRoutes(api, protected)
	}
	if chat != nil {
		chat.RegisterRoutes(protected)
	}
	if notifications != nil {
		notifications.RegisterRoutes(protected)
	}

	return CORS(router)
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "gochat"})
}
