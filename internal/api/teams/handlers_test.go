package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pitchside/pitchside/internal/api"
	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/roster"
	"github.com/pitchside/pitchside/internal/testutil"
)

// The handler engine initializes once per process, so the handler tests share
// one fixture under a single parent test.
func TestTeamHandlers(t *testing.T) {
	database := testutil.NewTestDB(t)
	engine, err := roster.NewEngine(database, nil, roster.Config{})
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	InitHandlers(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/matches/{id}/teams", HandleCreateTeam)
	mux.HandleFunc("PATCH /api/v1/matches/{id}/teams/{number}", HandleUpdateTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/join", HandleJoinTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/switch", HandleSwitchTeam)
	mux.HandleFunc("POST /api/v1/teams/{id}/leave", HandleLeaveTeam)
	mux.HandleFunc("DELETE /api/v1/teams/{id}", HandleDeleteTeam)
	mux.HandleFunc("DELETE /api/v1/teams/{id}/players/{playerID}", HandleRemovePlayer)
	mux.HandleFunc("GET /api/v1/teams/{id}/players", HandleGetPlayers)
	handler := api.ChainMiddleware(mux, api.WithActor)

	ctx := context.Background()
	creatorID := insertTestUser(t, database, "Creator", "creator@example.com", "player")
	playerID := insertTestUser(t, database, "Player", "player@example.com", "player")
	adminID := insertTestUser(t, database, "Admin", "admin@example.com", "admin")

	res, err := database.ExecContext(ctx,
		"INSERT INTO stadiums (owner_id, name) VALUES (?, 'City Arena')", creatorID)
	if err != nil {
		t.Fatalf("insert stadium: %v", err)
	}
	stadiumID, _ := res.LastInsertId()

	start := time.Now().Add(24 * time.Hour)
	res, err = database.ExecContext(ctx,
		"INSERT INTO matches (creator_id, stadium_id, match_date, start_time, duration_minutes, max_players, status) VALUES (?, ?, ?, ?, 90, 10, 'pending')",
		creatorID, stadiumID, start, start)
	if err != nil {
		t.Fatalf("insert match: %v", err)
	}
	matchID, _ := res.LastInsertId()

	do := func(method, path, body string, actorID int64, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if actorID > 0 {
			req.Header.Set("X-Actor-Id", fmt.Sprintf("%d", actorID))
			req.Header.Set("X-Actor-Role", role)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	var team1ID, team2ID int64

	t.Run("create team", func(t *testing.T) {
		rec := do("POST", fmt.Sprintf("/api/v1/matches/%d/teams", matchID), `{"name":"Reds"}`, creatorID, "player")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		var resp struct {
			ID         int64  `json:"id"`
			TeamNumber int64  `json:"team_number"`
			Name       string `json:"name"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.TeamNumber != 1 || resp.Name != "Reds" {
			t.Errorf("resp = %+v", resp)
		}
		team1ID = resp.ID

		rec = do("POST", fmt.Sprintf("/api/v1/matches/%d/teams", matchID), "", creatorID, "player")
		if rec.Code != http.StatusCreated {
			t.Fatalf("second create status = %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		team2ID = resp.ID

		rec = do("POST", fmt.Sprintf("/api/v1/matches/%d/teams", matchID), "", creatorID, "player")
		if rec.Code != http.StatusConflict {
			t.Errorf("third create status = %d, want 409", rec.Code)
		}
	})

	t.Run("create team requires identity", func(t *testing.T) {
		rec := do("POST", fmt.Sprintf("/api/v1/matches/%d/teams", matchID), "", 0, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("update team", func(t *testing.T) {
		rec := do("PATCH", fmt.Sprintf("/api/v1/matches/%d/teams/1", matchID), `{"name":"Home"}`, creatorID, "player")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}

		rec = do("PATCH", fmt.Sprintf("/api/v1/matches/%d/teams/1", matchID), `{"name":"Away"}`, playerID, "player")
		if rec.Code != http.StatusForbidden {
			t.Errorf("non-creator status = %d, want 403", rec.Code)
		}
	})

	t.Run("join team", func(t *testing.T) {
		rec := do("POST", fmt.Sprintf("/api/v1/teams/%d/join", team1ID), "", playerID, "player")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}

		// Not idempotent.
		rec = do("POST", fmt.Sprintf("/api/v1/teams/%d/join", team1ID), "", playerID, "player")
		if rec.Code != http.StatusConflict {
			t.Errorf("repeat join status = %d, want 409", rec.Code)
		}

		// Other team of the same match is also off limits.
		rec = do("POST", fmt.Sprintf("/api/v1/teams/%d/join", team2ID), "", playerID, "player")
		if rec.Code != http.StatusConflict {
			t.Errorf("cross-team join status = %d, want 409", rec.Code)
		}

		// The creator is excluded from the roster.
		rec = do("POST", fmt.Sprintf("/api/v1/teams/%d/join", team1ID), "", creatorID, "player")
		if rec.Code != http.StatusConflict {
			t.Errorf("creator join status = %d, want 409", rec.Code)
		}
	})

	t.Run("switch team", func(t *testing.T) {
		rec := do("POST", fmt.Sprintf("/api/v1/teams/%d/switch", team2ID), "", playerID, "player")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		var resp struct {
			TeamID int64 `json:"team_id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.TeamID != team2ID {
			t.Errorf("team_id = %d, want %d", resp.TeamID, team2ID)
		}
	})

	t.Run("get players", func(t *testing.T) {
		rec := do("GET", fmt.Sprintf("/api/v1/teams/%d/players", team2ID), "", 0, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var players []struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &players); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(players) != 1 || players[0].ID != playerID {
			t.Errorf("players = %+v", players)
		}
	})

	t.Run("remove player admin only", func(t *testing.T) {
		rec := do("DELETE", fmt.Sprintf("/api/v1/teams/%d/players/%d", team2ID, playerID), "", playerID, "player")
		if rec.Code != http.StatusForbidden {
			t.Errorf("player removal status = %d, want 403", rec.Code)
		}

		rec = do("DELETE", fmt.Sprintf("/api/v1/teams/%d/players/%d", team2ID, playerID), "", adminID, "admin")
		if rec.Code != http.StatusNoContent {
			t.Errorf("admin removal status = %d, want 204", rec.Code)
		}
	})

	t.Run("leave team", func(t *testing.T) {
		rec := do("POST", fmt.Sprintf("/api/v1/teams/%d/join", team1ID), "", playerID, "player")
		if rec.Code != http.StatusCreated {
			t.Fatalf("rejoin status = %d", rec.Code)
		}
		rec = do("POST", fmt.Sprintf("/api/v1/teams/%d/leave", team1ID), "", playerID, "player")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("leave status = %d", rec.Code)
		}
		rec = do("POST", fmt.Sprintf("/api/v1/teams/%d/leave", team1ID), "", playerID, "player")
		if rec.Code != http.StatusNotFound {
			t.Errorf("repeat leave status = %d, want 404", rec.Code)
		}
	})

	t.Run("delete team creator only", func(t *testing.T) {
		rec := do("DELETE", fmt.Sprintf("/api/v1/teams/%d", team2ID), "", playerID, "player")
		if rec.Code != http.StatusForbidden {
			t.Errorf("non-creator status = %d, want 403", rec.Code)
		}

		rec = do("DELETE", fmt.Sprintf("/api/v1/teams/%d", team2ID), "", creatorID, "player")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body)
		}

		rec = do("DELETE", fmt.Sprintf("/api/v1/teams/%d", team2ID), "", creatorID, "player")
		if rec.Code != http.StatusNotFound {
			t.Errorf("repeat delete status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed path id", func(t *testing.T) {
		rec := do("POST", "/api/v1/teams/abc/join", "", playerID, "player")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed actor header", func(t *testing.T) {
		req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/teams/%d/join", team1ID), strings.NewReader(""))
		req.Header.Set("X-Actor-Id", "not-a-number")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func insertTestUser(t *testing.T, database *db.DB, name, email, role string) int64 {
	t.Helper()
	res, err := database.ExecContext(context.Background(),
		"INSERT INTO users (name, email, role) VALUES (?, ?, ?)", name, email, role)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
