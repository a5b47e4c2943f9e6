package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/kotc-scoreboard/handlers"
	"github.com/Dosada05/kotc-scoreboard/middleware"
	"github.com/Dosada05/kotc-scoreboard/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Player    *handlers.PlayerHandler
	Cup       *handlers.CupHandler
	League    *handlers.LeagueHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

func SetupRoutes(router *chi.Mux, jwtSecret string, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// No request timeout on websocket upgrades.
	router.Get("/ws/{room}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Get("/health", h.Health.Check)
		r.Post("/auth/login", h.Auth.Login)

		r.Get("/players", h.Player.List)
		r.Get("/players/{playerID}/history", h.Player.History)
		r.Get("/cup", h.Cup.GetBoard)
		r.Get("/league/leaderboard", h.League.Leaderboard)
		r.Get("/league/king", h.League.CurrentKing)
		r.Get("/league/day-winners", h.League.DayWinners)
		r.Get("/league/total-wins", h.League.TotalWins)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(services.RoleOperator))

			r.Post("/players", h.Player.Create)
			r.Post("/players/{playerID}/avatar", h.Player.UploadAvatar)

			r.Post("/cup/draw", h.Cup.RunDraw)
			r.Post("/cup/matches", h.Cup.ReportMatch)
			r.Delete("/cup/matches/{matchID}", h.Cup.UndoMatch)
			r.Put("/cup/finals-mode", h.Cup.SetFinalsMode)
			r.Post("/cup/finish", h.Cup.Finish)

			r.Post("/league/matches", h.League.ReportMatch)
			r.Delete("/league/matches/{matchID}", h.League.UndoMatch)
			r.Post("/league/close-day", h.League.CloseDay)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
}
