// internal/api/matches/handlers.go
package matches

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
	matchengine "github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/store"
)

var (
	engine     *matchengine.Engine
	engineOnce sync.Once
)

const matchQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *matchengine.Engine) {
	if e == nil {
		return
	}
	engineOnce.Do(func() {
		engine = e
	})
}

type createMatchRequest struct {
	StadiumID       int64  `json:"stadium_id"`
	MatchDate       string `json:"match_date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int64  `json:"duration_minutes,omitempty"`
	MaxPlayers      int64  `json:"max_players"`
}

type updateMatchRequest struct {
	StadiumID       *int64  `json:"stadium_id,omitempty"`
	MatchDate       *string `json:"match_date,omitempty"`
	StartTime       *string `json:"start_time,omitempty"`
	DurationMinutes *int64  `json:"duration_minutes,omitempty"`
	MaxPlayers      *int64  `json:"max_players,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type matchResponse struct {
	ID              int64     `json:"id"`
	CreatorID       int64     `json:"creator_id"`
	StadiumID       int64     `json:"stadium_id"`
	MatchDate       time.Time `json:"match_date"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	MaxPlayers      int64     `json:"max_players"`
	Status          string    `json:"status"`
	ChatRoomRef     string    `json:"chat_room_ref,omitempty"`
}

func toMatchResponse(m store.Match) matchResponse {
	return matchResponse{
		ID:              m.ID,
		CreatorID:       m.CreatorID,
		StadiumID:       m.StadiumID,
		MatchDate:       m.MatchDate,
		StartTime:       m.StartTime,
		DurationMinutes: m.DurationMinutes,
		MaxPlayers:      m.MaxPlayers,
		Status:          m.Status,
		ChatRoomRef:     m.ChatRoomRef.String,
	}
}

func toMatchResponses(matches []store.Match) []matchResponse {
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchResponse(m))
	}
	return out
}

// POST /api/v1/matches
func HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
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

	var req createMatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	matchDate, err := parseDate(req.MatchDate)
	if err != nil {
		apiutil.RespondError(w, r, fault.Invalid("invalid match_date, expected YYYY-MM-DD"))
		return
	}

	match, err := engine.CreateMatch(ctx, matchengine.CreateMatchParams{
		StadiumID:       req.StadiumID,
		MatchDate:       matchDate,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		MaxPlayers:      req.MaxPlayers,
	}, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusCreated, toMatchResponse(match))
}

// GET /api/v1/matches
func HandleListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	filter := store.ListMatchesParams{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("creator_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apiutil.RespondError(w, r, fault.Invalid("invalid creator_id"))
			return
		}
		filter.CreatorID = id
	}
	if raw := r.URL.Query().Get("stadium_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apiutil.RespondError(w, r, fault.Invalid("invalid stadium_id"))
			return
		}
		filter.StadiumID = id
	}
	if raw := r.URL.Query().Get("match_date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			apiutil.RespondError(w, r, fault.Invalid("invalid match_date, expected YYYY-MM-DD"))
			return
		}
		filter.MatchDate = date
	}

	matches, err := engine.ListMatches(ctx, filter)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponses(matches))
}

// GET /api/v1/matches/joined
func HandleJoinedMatches(w http.ResponseWriter, r *http.Request) {
	listForActor(w, r, engineGetJoined)
}

// GET /api/v1/matches/mine
func HandleMyMatches(w http.ResponseWriter, r *http.Request) {
	listForActor(w, r, engineGetMine)
}

// GET /api/v1/matches/pending
func HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	listForActor(w, r, engineGetPending)
}

// GET /api/v1/matches/owned lists matches booked against the caller's stadiums.
func HandleMatchesForOwner(w http.ResponseWriter, r *http.Request) {
	if err := actor.RequireRole(r.Context(), actor.RoleOwner); err != nil {
		respondRoleError(w, err)
		return
	}
	listForActor(w, r, engineGetForOwner)
}

func engineGetJoined(ctx context.Context, id int64) ([]store.Match, error) {
	return engine.GetJoined(ctx, id)
}

func engineGetMine(ctx context.Context, id int64) ([]store.Match, error) {
	return engine.GetMyMatches(ctx, id)
}

func engineGetPending(ctx context.Context, id int64) ([]store.Match, error) {
	return engine.GetPendingRequests(ctx, id)
}

func engineGetForOwner(ctx context.Context, id int64) ([]store.Match, error) {
	return engine.GetMatchesForOwner(ctx, id)
}

func listForActor(w http.ResponseWriter, r *http.Request, list func(context.Context, int64) ([]store.Match, error)) {
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

	matches, err := list(ctx, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponses(matches))
}

// GET /api/v1/matches/{id}
func HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	match, err := engine.FindMatch(ctx, matchID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponse(match))
}

// PATCH /api/v1/matches/{id}
func HandleUpdateMatch(w http.ResponseWriter, r *http.Request) {
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

	var req updateMatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	params := matchengine.UpdateMatchParams{
		StadiumID:       req.StadiumID,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		MaxPlayers:      req.MaxPlayers,
	}
	if req.MatchDate != nil {
		date, err := parseDate(*req.MatchDate)
		if err != nil {
			apiutil.RespondError(w, r, fault.Invalid("invalid match_date, expected YYYY-MM-DD"))
			return
		}
		params.MatchDate = &date
	}

	match, err := engine.Update(ctx, matchID, params, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponse(match))
}

// PUT /api/v1/matches/{id}/status
func HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	match, err := engine.UpdateStatus(ctx, matchID, req.Status)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponse(match))
}

// POST /api/v1/matches/{id}/approve
func HandleApproveRequest(w http.ResponseWriter, r *http.Request) {
	ruleOnMatch(w, r, engine.ApproveRequest)
}

// POST /api/v1/matches/{id}/reject
func HandleRejectRequest(w http.ResponseWriter, r *http.Request) {
	ruleOnMatch(w, r, engine.RejectRequest)
}

func ruleOnMatch(w http.ResponseWriter, r *http.Request, rule func(context.Context, int64) (store.Match, error)) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := actor.RequireRole(ctx, actor.RoleOwner); err != nil {
		respondRoleError(w, err)
		return
	}

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	match, err := rule(ctx, matchID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toMatchResponse(match))
}

// DELETE /api/v1/matches/{id}
func HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
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

	if err := engine.Delete(ctx, matchID, act.ID); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusNoContent, nil)
}

// POST /api/v1/matches/{id}/leave
func HandleLeaveMatch(w http.ResponseWriter, r *http.Request) {
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

	if err := engine.LeaveMatch(ctx, matchID, act.ID); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusNoContent, nil)
}

// GET /api/v1/matches/{id}/teams
func HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	teams, err := engine.GetTeams(ctx, matchID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	type teamResponse struct {
		ID         int64  `json:"id"`
		MatchID    int64  `json:"match_id"`
		TeamNumber int64  `json:"team_number"`
		Name       string `json:"name,omitempty"`
	}
	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamResponse{
			ID:         t.ID,
			MatchID:    t.MatchID,
			TeamNumber: t.TeamNumber,
			Name:       t.Name.String,
		})
	}
	apiutil.RespondJSON(w, http.StatusOK, out)
}

// GET /api/v1/matches/{id}/participants
func HandleGetChatParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	matchID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	players, err := engine.GetChatParticipants(ctx, matchID)
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
		log.Ctx(r.Context()).Error().Msg("Match engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), matchQueryTimeout)
	return ctx, cancel, true
}

func respondRoleError(w http.ResponseWriter, err error) {
	if err == actor.ErrUnauthenticated {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Invalid("invalid " + name)
	}
	return id, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
