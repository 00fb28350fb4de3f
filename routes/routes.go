package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/robot-tournaments/handlers"
	"github.com/Dosada05/robot-tournaments/middleware"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

type Handlers struct {
	Auth         *middleware.Authenticator
	Tournament   *handlers.TournamentHandler
	Match        *handlers.MatchHandler
	Registration *handlers.RegistrationHandler
	Ranking      *handlers.RankingHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// WebSocket: обновления сетки турнира в реальном времени
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	limit := middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst)

	router.Route("/api", func(r chi.Router) {
		r.Route("/tournaments", func(r chi.Router) {
			// Публичные маршруты
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/bracket", h.Tournament.BracketHandler)
			r.Get("/{tournamentID}/prize", h.Tournament.PrizeHandler)
			r.Get("/{tournamentID}/matches", h.Match.ListTournamentMatchesHandler)
			r.Get("/{tournamentID}/registrations", h.Registration.ListHandler)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Use(h.Auth.Authenticate)

				r.With(middleware.RequireRole(models.RoleAdmin)).Post("/", h.Tournament.CreateHandler)
				r.With(middleware.RequireRole(models.RoleAdmin)).Post("/{tournamentID}/start", h.Tournament.StartHandler)
				r.With(middleware.RequireRole(models.RoleAdmin)).Post("/{tournamentID}/cancel", h.Tournament.CancelHandler)
				r.With(middleware.RequireRole(models.RoleAdmin, models.RoleCompetitor)).Post("/{tournamentID}/registrations", h.Registration.JoinHandler)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/{matchID}", h.Match.GetHandler)
			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Use(h.Auth.Authenticate)
				r.With(middleware.RequireRole(models.RoleAdmin, models.RoleJudge)).Patch("/{matchID}/result", h.Match.RecordResultHandler)
			})
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/competitors", h.Ranking.CompetitorsHandler)
			r.Get("/clubs", h.Ranking.ClubsHandler)
		})
	})
}
