package handler

import (
	"context"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/pill-reminder/backend/internal/handler/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/handler/help"
	"github.com/zhouzirui/pill-reminder/backend/internal/handler/realtime"
	"github.com/zhouzirui/pill-reminder/backend/internal/handler/status"
	helpModel "github.com/zhouzirui/pill-reminder/backend/internal/model/help"
	chatService "github.com/zhouzirui/pill-reminder/backend/internal/service/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups what the router needs to build its handlers.
type Dependencies struct {
	ChatService    *chatService.Service
	StatusStore    store.StatusStore
	HelpContent    helpModel.Store
	Health         Pinger
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(deps.Health))

	statusHandler := status.New(deps.StatusStore)
	helpHandler := help.New(deps.HelpContent)
	chatHandler := chat.New(deps.ChatService)
	wsHandler := realtime.NewWebSocketHandler(deps.ChatService, originChecker(deps.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		statusHandler.RegisterRoutes(api)
		helpHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	if !deps.ChatService.GenerationEnabled() {
		log.Println("[router] AI generation disabled, chat routes will answer 503")
	}

	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Printf("[health] store ping failed: %v", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("store unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// originChecker returns nil when every origin is allowed.
func originChecker(allowed []string) func(string) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return nil
	}
	return func(origin string) bool {
		return slices.Contains(allowed, origin)
	}
}
