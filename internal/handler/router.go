/*
Package handler provides the HTTP handlers and routing setup for the arena server.

This file defines the main Router, applying necessary middleware like logging,
CORS, and IP-based rate limiting before delegating requests to the room,
battle, and realtime handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"bitarena/internal/pkg/auth/jwt"
	"bitarena/internal/pkg/limiter"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/resp"
)

const (
	// CreateRate defines the maximum requests per second allowed for room creation.
	CreateRate = 0.05 // Equivalent to 1 request every 20 seconds

	// CreateBurst is the maximum number of requests allowed in a burst for room creation.
	CreateBurst = 2

	// JoinRate defines the maximum requests per second allowed for joining rooms/WebSocket connections.
	JoinRate = 0.2 // Equivalent to 1 request every 5 seconds

	// JoinBurst is the maximum number of requests allowed in a burst for joining rooms/WebSocket connections.
	JoinBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	cfg := deps.Config

	// Configure WebSocket upgrader with origin checking based on allowed origins
	allowedOrigins := make(map[string]struct{})
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if cfg.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if cfg.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(cfg.AllowedOrigins) > 0 {
		corsAllowedOrigins = cfg.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	// Ops endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "BitArena Server",
		}
		resp.RespondSuccess(w, r, data)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Room lifecycle endpoints
	r.Route("/rooms", func(api chi.Router) {
		api.Use(jwt.RequireAuthMiddleware(cfg.JWTSecret))

		rateLimitedCreate := createLimiter.Middleware(HandleCreateRoom(deps))
		api.Post("/create", rateLimitedCreate.ServeHTTP)

		api.Get("/", HandleListRooms(deps))
		api.Get("/{id}", HandleGetRoom(deps))

		rateLimitedJoin := joinLimiter.Middleware(HandleJoinRoom(deps))
		api.Post("/{id}/join", rateLimitedJoin.ServeHTTP)

		api.Post("/{id}/kick", HandleKickParticipant(deps))
		api.Post("/{id}/start", HandleStartRoom(deps))
		api.Patch("/{id}/status", HandleUpdateRoomStatus(deps))
	})

	// Battle endpoints
	r.Route("/battle", func(api chi.Router) {
		api.Use(jwt.RequireAuthMiddleware(cfg.JWTSecret))

		api.Get("/global-rankings", HandleGlobalRankings(deps))
		api.Get("/solutions/{room_id}/{username}", HandleSolutionDownload(deps))
		api.Get("/{qid}", HandleBattleQuestion(deps))
		api.Post("/{qid}/verify", HandleVerify(deps))
	})

	// Realtime endpoints; the token travels in the query string.
	r.Get("/ws/rooms/", HandleGlobalLobbyWS(deps, wsUpgrader, joinLimiter))
	r.Get("/ws/room/{room_id}/", HandleRoomLobbyWS(deps, wsUpgrader, joinLimiter))
	r.Get("/ws/battle/{room_id}/", HandleBattleWS(deps, wsUpgrader, joinLimiter))

	return r
}
