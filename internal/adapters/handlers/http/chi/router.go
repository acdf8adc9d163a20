package chi

import (
	"log/slog"
	"net/http"
	"sociallink/internal/adapters/handlers/http/chi/v1/media"
	"sociallink/internal/adapters/handlers/http/chi/v1/notification"
	"sociallink/internal/core/port"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the mounted handlers
type Handlers struct {
	Notification *notification.HandlerV1
	Media        *media.HandlerV1
	// Realtime serves the websocket endpoint, it is mounted outside the request timeout
	Realtime http.Handler
}

// NewRouter builds http.Handler with chi
func NewRouter(logger *slog.Logger, auth port.Authenticator, handlers Handlers, env string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	//handle requestID to facilitate debug (X-Request-ID)
	//It fetches from request if exists, or creates it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	origins := allowedOrigins
	if env != "prod" {
		origins = append([]string{"http://localhost:*", "http://127.0.0.1:*"}, allowedOrigins...)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(middleware.RequestSize(1 << 20))
			r.Mount("/notifications", handlers.Notification.Routes())
		})
		// uploads may transcode inline, their size is bounded by the media handler
		r.Mount("/posts", handlers.Media.Routes())
	})

	if handlers.Realtime != nil {
		r.Handle("/ws", handlers.Realtime)
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	return r
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
