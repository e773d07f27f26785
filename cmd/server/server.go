// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pitchside/pitchside/internal/api"
	matchesapi "github.com/pitchside/pitchside/internal/api/matches"
	stadiumsapi "github.com/pitchside/pitchside/internal/api/stadiums"
	teamsapi "github.com/pitchside/pitchside/internal/api/teams"
	"github.com/pitchside/pitchside/internal/chat"
	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/ratelimit"
	"github.com/pitchside/pitchside/internal/roster"
	"github.com/pitchside/pitchside/internal/stadiums"
)

type serverDeps struct {
	matchEngine    *matches.Engine
	rosterEngine   *roster.Engine
	stadiumService *stadiums.Service
	mirror         *chat.Mirror
}

func newServer(cfg *config.Config, deps serverDeps) *http.Server {
	router := http.NewServeMux()

	matchesapi.InitHandlers(deps.matchEngine)
	teamsapi.InitHandlers(deps.rosterEngine)
	stadiumsapi.InitHandlers(deps.stadiumService)

	limiter := ratelimit.New(nil)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithActor,
		api.WithRateLimit(limiter),
		api.WithRequestID,
	)

	registerRoutes(router, deps)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, deps serverDeps) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Match routes
	mux.HandleFunc("POST /api/v1/matches", matchesapi.HandleCreateMatch)
	mux.HandleFunc("GET /api/v1/matches", matchesapi.HandleListMatches)
	mux.HandleFunc("GET /api/v1/matches/joined", matchesapi.HandleJoinedMatches)
	mux.HandleFunc("GET /api/v1/matches/mine", matchesapi.HandleMyMatches)
	mux.HandleFunc("GET /api/v1/matches/pending", matchesapi.HandlePendingRequests)
	mux.HandleFunc("GET /api/v1/matches/owned", matchesapi.HandleMatchesForOwner)
	mux.HandleFunc("GET /api/v1/matches/{id}", matchesapi.HandleGetMatch)
	mux.HandleFunc("PATCH /api/v1/matches/{id}", matchesapi.HandleUpdateMatch)
	mux.HandleFunc("DELETE /api/v1/matches/{id}", matchesapi.HandleDeleteMatch)
	mux.HandleFunc("PUT /api/v1/matches/{id}/status", matchesapi.HandleUpdateStatus)
	mux.HandleFunc("POST /api/v1/matches/{id}/approve", matchesapi.HandleApproveRequest)
	mux.HandleFunc("POST /api/v1/matches/{id}/reject", matchesapi.HandleRejectRequest)
	mux.HandleFunc("POST /api/v1/matches/{id}/leave", matchesapi.HandleLeaveMatch)
	mux.HandleFunc("GET /api/v1/matches/{id}/teams", matchesapi.HandleGetTeams)
	mux.HandleFunc("GET /api/v1/matches/{id}/participants", matchesapi.HandleGetChatParticipants)

	// Team routes
	mux.HandleFunc("POST /api/v1/matches/{id}/teams", teamsapi.HandleCreateTeam)
	mux.HandleFunc("PATCH /api/v1/matches/{id}/teams/{number}", teamsapi.HandleUpdateTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/join", teamsapi.HandleJoinTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/switch", teamsapi.HandleSwitchTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/leave", teamsapi.HandleLeaveTeam)
	mux.HandleFunc("DELETE /api/v1/teams/{id}", teamsapi.HandleDeleteTeam)
	mux.HandleFunc("DELETE /api/v1/teams/{id}/players/{playerID}", teamsapi.HandleRemovePlayer)
	mux.HandleFunc("GET /api/v1/teams/{id}/players", teamsapi.HandleGetPlayers)

	// Stadium routes
	mux.HandleFunc("POST /api/v1/stadiums", stadiumsapi.HandleCreateStadium)
	mux.HandleFunc("GET /api/v1/stadiums", stadiumsapi.HandleListStadiums)
	mux.HandleFunc("GET /api/v1/stadiums/mine", stadiumsapi.HandleMyStadiums)
	mux.HandleFunc("GET /api/v1/stadiums/{id}", stadiumsapi.HandleGetStadium)
	mux.HandleFunc("GET /api/v1/stadiums/{id}/availability", stadiumsapi.HandleGetAvailability)
	mux.HandleFunc("PATCH /api/v1/stadiums/{id}", stadiumsapi.HandleUpdateStadium)

	// Chat websocket
	mux.HandleFunc("GET /api/v1/chat/ws", deps.mirror.HandleWebSocket)
}
