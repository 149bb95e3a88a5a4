package routes

import (
	_ "embed"
	"net/http"

	"github.com/brewbracket/tournament-system/handlers"
	"github.com/brewbracket/tournament-system/middleware"
	"github.com/brewbracket/tournament-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed doc.json
var swaggerDoc []byte

type Handlers struct {
	Auth       *handlers.AuthHandler
	Event      *handlers.EventHandler
	Team       *handlers.TeamHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Resolution *handlers.ResolutionHandler
	Admin      *handlers.AdminHandler
	Stats      *handlers.StatsHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, auth *middleware.Authenticator, h Handlers) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerDoc)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/auth/me", h.Auth.Me)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.List)
		r.Get("/{eventID}", h.Event.Get)
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/", h.Event.Create)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", h.Team.Get)
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", h.Team.Create)
			r.Post("/{teamID}/members", h.Team.AddMember)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.Get)
		r.Get("/{tournamentID}/sub-tournaments", h.Tournament.ListSubTournaments)
		r.Get("/{tournamentID}/matches", h.Tournament.ListMatches)
		r.Get("/{tournamentID}/standings", h.Tournament.ListStandings)
		r.Get("/{tournamentID}/ledger", h.Tournament.ListPointLedger)
		r.Get("/{tournamentID}/disputes", h.Admin.ListDisputes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", h.Tournament.Create)
			r.Post("/{tournamentID}/teams", h.Tournament.RegisterTeam)
			r.Post("/{tournamentID}/start", h.Tournament.Start)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.Get)
		r.Get("/{matchID}/submissions", h.Resolution.ListSubmissions)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{matchID}/results", h.Resolution.SubmitResult)
			r.Post("/{matchID}/media", h.Match.UploadMedia)
			r.Post("/{matchID}/override", h.Admin.OverrideMatch)
		})
	})

	router.Route("/submissions", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/{submissionID}/confirm", h.Resolution.ConfirmResult)
		r.Post("/{submissionID}/dispute", h.Resolution.DisputeResult)
	})

	router.Route("/disputes", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/{disputeID}/resolve", h.Admin.ResolveDispute)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))
		r.Get("/actions", h.Admin.ListActionLog)
	})

	router.Get("/users/{userID}/profile", h.Stats.GetPlayerProfile)
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
