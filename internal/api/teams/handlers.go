// internal/api/teams/handlers.go
package teams

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/api/actor"
	"github.com/pitchside/pitchside/internal/api/apiutil"
	"github.com/pitchside/pitchside/internal/fault"
	"github.com/pitchside/pitchside/internal/roster"
	"github.com/pitchside/pitchside/internal/store"
)

var (
	engine     *roster.Engine
	engineOnce sync.Once
)

const teamQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *roster.Engine) {
	if e == nil {
		return
	}
	engineOnce.Do(func() {
		engine = e
	})
}

type createTeamRequest struct {
	Name string `json:"name,omitempty"`
}

type updateTeamRequest struct {
	Name string `json:"name"`
}

type teamResponse struct {
	ID         int64  `json:"id"`
	MatchID    int64  `json:"match_id"`
	TeamNumber int64  `json:"team_number"`
	Name       string `json:"name,omitempty"`
}

type membershipResponse struct {
	TeamID   int64     `json:"team_id"`
	MatchID  int64     `json:"match_id"`
	PlayerID int64     `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func toTeamResponse(t store.Team) teamResponse {
	return teamResponse{
		ID:         t.ID,
		MatchID:    t.MatchID,
		TeamNumber: t.TeamNumber,
		Name:       t.Name.String,
	}
}

func toMembershipResponse(m store.Membership) membershipResponse {
	return membershipResponse{
		TeamID:   m.TeamID,
		MatchID:  m.MatchID,
		PlayerID: m.PlayerID,
		JoinedAt: m.JoinedAt,
	}
}

// POST /api/v1/matches/{id}/teams
func HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	if _, err := actor.Require(ctx); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req createTeamRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
			return
		}
	}

	team, err := engine.CreateTeam(ctx, matchID, req.Name)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusCreated, toTeamResponse(team))
}

// PATCH /api/v1/matches/{id}/teams/{number}
func HandleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	act, err := actor.Require(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	teamNumber, err := pathID(r, "number")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req updateTeamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	team, err := engine.UpdateTeam(ctx, matchID, teamNumber, req.Name, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toTeamResponse(team))
}

// DELETE /api/v1/teams/{id}
func HandleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	act, err := actor.Require(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	if err := engine.DeleteTeam(ctx, teamID, act.ID); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusNoContent, nil)
}

// POST /api/v1/teams/{id}/join
func HandleJoinTeam(w http.ResponseWriter, r *http.Request) {
	membershipMutation(w, r, func(ctx context.Context, teamID, playerID int64) (store.Membership, error) {
		return engine.JoinTeam(ctx, teamID, playerID)
	})
}

// POST /api/v1/teams/{id}/switch
func HandleSwitchTeam(w http.ResponseWriter, r *http.Request) {
	membershipMutation(w, r, func(ctx context.Context, teamID, playerID int64) (store.Membership, error) {
		return engine.SwitchTeam(ctx, teamID, playerID)
	})
}

func membershipMutation(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) (store.Membership, error)) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	act, err := actor.Require(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := actor.RequireRole(ctx, actor.RolePlayer); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	teamID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	membership, err := op(ctx, teamID, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusCreated, toMembershipResponse(membership))
}

// POST /api/v1/teams/{id}/leave
func HandleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	act, err := actor.Require(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	if err := engine.LeaveTeam(ctx, teamID, act.ID); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusNoContent, nil)
}

// DELETE /api/v1/teams/{id}/players/{playerID} (admin removal)
func HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := actor.RequireRole(ctx, actor.RoleAdmin); err != nil {
		if err == actor.ErrUnauthenticated {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	teamID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	playerID, err := pathID(r, "playerID")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	if err := engine.RemovePlayer(ctx, teamID, playerID); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusNoContent, nil)
}

// GET /api/v1/teams/{id}/players
func HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	teamID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	players, err := engine.GetPlayers(ctx, teamID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	type playerResponse struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, playerResponse{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	apiutil.RespondJSON(w, http.StatusOK, out)
}

func handlerContext(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, bool) {
	if engine == nil {
		log.Ctx(r.Context()).Error().Msg("Roster engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), teamQueryTimeout)
	return ctx, cancel, true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Invalid("invalid " + name)
	}
	return id, nil
}
