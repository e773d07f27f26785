// Package matches is the match lifecycle engine: creation, creator-only
// edits, the pending/approved/rejected workflow, and match-level leave.
package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/events"
	"github.com/pitchside/pitchside/internal/fault"
	"github.com/pitchside/pitchside/internal/store"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	defaultDurationMinutes = 90
)

// ValidStatus reports whether s is a member of the status enumeration.
// The workflow deliberately enforces no transition table: approve and reject
// overwrite each other, and UpdateStatus may set any enumerated value.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Engine struct {
	db  *db.DB
	bus *events.Bus
}

func NewEngine(database *db.DB, bus *events.Bus) (*Engine, error) {
	if database == nil {
		return nil, errors.New("match engine requires a database")
	}
	return &Engine{db: database, bus: bus}, nil
}

// CreateMatchParams describes a new match. StartTime is a "HH:MM" or
// "HH:MM:SS" time of day combined with MatchDate's calendar day.
type CreateMatchParams struct {
	StadiumID       int64
	MatchDate       time.Time
	StartTime       string
	DurationMinutes int64
	MaxPlayers      int64
}

// CreateMatch persists a pending match and initializes its chat room. Chat
// initialization is best-effort: a failure there is logged and the match
// stands.
func (e *Engine) CreateMatch(ctx context.Context, arg CreateMatchParams, creatorID int64) (store.Match, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "match_engine").
		Int64("creator_id", creatorID).
		Logger()

	if arg.MaxPlayers <= 0 || arg.MaxPlayers%2 != 0 {
		return store.Match{}, fault.Invalid("max_players must be a positive even number")
	}

	startAt, err := combineDateTime(arg.MatchDate, arg.StartTime)
	if err != nil {
		return store.Match{}, fault.Invalid(fmt.Sprintf("invalid start_time %q", arg.StartTime))
	}

	duration := arg.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}

	// The gateway vouches for the actor ID; the user row still has to exist
	// before it can own a match.
	if _, err := e.db.Queries.GetUser(ctx, creatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Match{}, fault.NotFound("creator not found")
		}
		return store.Match{}, fmt.Errorf("load user %d: %w", creatorID, err)
	}

	if _, err := e.db.Queries.GetStadium(ctx, arg.StadiumID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Match{}, fault.NotFound("stadium not found")
		}
		return store.Match{}, fmt.Errorf("load stadium %d: %w", arg.StadiumID, err)
	}

	match, err := e.db.Queries.CreateMatch(ctx, store.CreateMatchParams{
		CreatorID:       creatorID,
		StadiumID:       arg.StadiumID,
		MatchDate:       startAt,
		StartTime:       startAt,
		DurationMinutes: duration,
		MaxPlayers:      arg.MaxPlayers,
	})
	if err != nil {
		return store.Match{}, fmt.Errorf("create match: %w", err)
	}

	// Chat room setup must not fail match creation.
	roomRef := fmt.Sprintf("match_%d", match.ID)
	if err := e.db.Queries.SetMatchChatRoomRef(ctx, match.ID, roomRef); err != nil {
		logger.Warn().Err(err).Int64("match_id", match.ID).Msg("Failed to record chat room ref")
	} else {
		match.ChatRoomRef = sql.NullString{String: roomRef, Valid: true}
		e.publish(events.Event{
			Type:     events.TypeMatchCreated,
			MatchID:  match.ID,
			RoomRef:  roomRef,
			PlayerID: creatorID,
		})
	}

	logger.Info().
		Int64("match_id", match.ID).
		Int64("stadium_id", match.StadiumID).
		Time("start_time", match.StartTime).
		Msg("Match created")
	return match, nil
}

// FindMatch loads one match.
func (e *Engine) FindMatch(ctx context.Context, matchID int64) (store.Match, error) {
	match, err := e.db.Queries.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Match{}, fault.NotFound("match not found")
		}
		return store.Match{}, fmt.Errorf("load match %d: %w", matchID, err)
	}
	return match, nil
}

// ListMatches returns matches filtered by status, creator, stadium and date.
func (e *Engine) ListMatches(ctx context.Context, filter store.ListMatchesParams) ([]store.Match, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, fault.Invalid(fmt.Sprintf("unknown status %q", filter.Status))
	}
	return e.db.Queries.ListMatches(ctx, filter)
}

// GetJoined lists matches the player holds a membership in.
func (e *Engine) GetJoined(ctx context.Context, playerID int64) ([]store.Match, error) {
	return e.db.Queries.ListMatchesJoinedByPlayer(ctx, playerID)
}

// GetMyMatches lists matches created by the caller.
func (e *Engine) GetMyMatches(ctx context.Context, creatorID int64) ([]store.Match, error) {
	return e.db.Queries.ListMatches(ctx, store.ListMatchesParams{CreatorID: creatorID})
}

// GetMatchesForOwner lists matches booked against the owner's stadiums,
// ordered by date. This feeds the owner's approval dashboard.
func (e *Engine) GetMatchesForOwner(ctx context.Context, ownerID int64) ([]store.Match, error) {
	return e.db.Queries.ListMatchesForOwner(ctx, ownerID)
}

// GetPendingRequests lists the caller's matches still awaiting an owner
// ruling.
func (e *Engine) GetPendingRequests(ctx context.Context, creatorID int64) ([]store.Match, error) {
	return e.db.Queries.ListMatches(ctx, store.ListMatchesParams{
		Status:    StatusPending,
		CreatorID: creatorID,
	})
}

// GetTeams lists the (at most two) teams of a match.
func (e *Engine) GetTeams(ctx context.Context, matchID int64) ([]store.Team, error) {
	return e.db.Queries.ListTeamsByMatch(ctx, matchID)
}

// GetChatParticipants lists the profiles of everyone on either team.
func (e *Engine) GetChatParticipants(ctx context.Context, matchID int64) ([]store.User, error) {
	return e.db.Queries.ListPlayersByMatch(ctx, matchID)
}

// UpdateMatchParams is a field patch; nil fields are left unchanged.
type UpdateMatchParams struct {
	StadiumID       *int64
	MatchDate       *time.Time
	StartTime       *string
	DurationMinutes *int64
	MaxPlayers      *int64
}

// Update patches match fields. Creator only; no workflow-state checks.
func (e *Engine) Update(ctx context.Context, matchID int64, arg UpdateMatchParams, actorID int64) (store.Match, error) {
	var updated store.Match
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		match, err := txdb.Queries.GetMatch(ctx, matchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("match not found")
			}
			return fmt.Errorf("load match %d: %w", matchID, err)
		}
		if match.CreatorID != actorID {
			return fault.Forbidden("only match creator can update this match")
		}

		params := store.UpdateMatchParams{
			StadiumID:       match.StadiumID,
			MatchDate:       match.MatchDate,
			StartTime:       match.StartTime,
			DurationMinutes: match.DurationMinutes,
			MaxPlayers:      match.MaxPlayers,
			ID:              match.ID,
		}
		if arg.StadiumID != nil {
			params.StadiumID = *arg.StadiumID
		}
		if arg.MatchDate != nil {
			params.MatchDate = *arg.MatchDate
		}
		if arg.StartTime != nil {
			startAt, err := combineDateTime(params.MatchDate, *arg.StartTime)
			if err != nil {
				return fault.Invalid(fmt.Sprintf("invalid start_time %q", *arg.StartTime))
			}
			params.MatchDate = startAt
			params.StartTime = startAt
		}
		if arg.DurationMinutes != nil {
			params.DurationMinutes = *arg.DurationMinutes
		}
		if arg.MaxPlayers != nil {
			if *arg.MaxPlayers <= 0 || *arg.MaxPlayers%2 != 0 {
				return fault.Invalid("max_players must be a positive even number")
			}
			params.MaxPlayers = *arg.MaxPlayers
		}

		updated, err = txdb.Queries.UpdateMatch(ctx, params)
		if err != nil {
			return fmt.Errorf("update match %d: %w", matchID, err)
		}
		return nil
	})
	if err != nil {
		return store.Match{}, err
	}
	return updated, nil
}

// UpdateStatus sets the status directly. The value is validated against the
// enumeration but no transition table applies.
func (e *Engine) UpdateStatus(ctx context.Context, matchID int64, status string) (store.Match, error) {
	if !ValidStatus(status) {
		return store.Match{}, fault.Invalid(fmt.Sprintf("unknown status %q", status))
	}
	return e.setStatus(ctx, matchID, status)
}

// ApproveRequest marks the match approved. Intended caller is the stadium
// owner; role gating happens upstream.
func (e *Engine) ApproveRequest(ctx context.Context, matchID int64) (store.Match, error) {
	return e.setStatus(ctx, matchID, StatusApproved)
}

// RejectRequest marks the match rejected. Overwrites a prior approval.
func (e *Engine) RejectRequest(ctx context.Context, matchID int64) (store.Match, error) {
	return e.setStatus(ctx, matchID, StatusRejected)
}

func (e *Engine) setStatus(ctx context.Context, matchID int64, status string) (store.Match, error) {
	match, err := e.db.Queries.UpdateMatchStatus(ctx, matchID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Match{}, fault.NotFound("match not found")
		}
		return store.Match{}, fmt.Errorf("update match %d status: %w", matchID, err)
	}
	log.Ctx(ctx).Info().
		Str("component", "match_engine").
		Int64("match_id", matchID).
		Str("status", status).
		Msg("Match status updated")
	return match, nil
}

// Delete removes a match. Creator only. Team and membership rows cascade.
func (e *Engine) Delete(ctx context.Context, matchID, actorID int64) error {
	return e.db.RunInTx(ctx, func(txdb *db.DB) error {
		match, err := txdb.Queries.GetMatch(ctx, matchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("match not found")
			}
			return fmt.Errorf("load match %d: %w", matchID, err)
		}
		if match.CreatorID != actorID {
			return fault.Forbidden("only match creator can delete this match")
		}
		if err := txdb.Queries.DeleteMatch(ctx, matchID); err != nil {
			return fmt.Errorf("delete match %d: %w", matchID, err)
		}
		return nil
	})
}

// LeaveMatch removes the player's single membership across the match's
// teams, wherever it is.
func (e *Engine) LeaveMatch(ctx context.Context, matchID, playerID int64) error {
	var match store.Match
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		var err error
		match, err = txdb.Queries.GetMatch(ctx, matchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("match not found")
			}
			return fmt.Errorf("load match %d: %w", matchID, err)
		}

		membership, err := txdb.Queries.GetMembershipByMatchAndPlayer(ctx, matchID, playerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("player is not in this match")
			}
			return fmt.Errorf("load membership: %w", err)
		}

		if _, err := txdb.Queries.DeleteMembership(ctx, membership.TeamID, playerID); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("component", "match_engine").
		Int64("match_id", matchID).
		Int64("player_id", playerID).
		Msg("Player left match")
	e.publish(events.Event{
		Type:     events.TypeMemberLeft,
		MatchID:  match.ID,
		RoomRef:  match.ChatRoomRef.String,
		PlayerID: playerID,
	})
	return nil
}

func (e *Engine) publish(evt events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(evt)
}

// combineDateTime applies an "HH:MM" or "HH:MM:SS" time of day to date's
// calendar day, keeping date's location.
func combineDateTime(date time.Time, timeOfDay string) (time.Time, error) {
	parsed, err := time.Parse("15:04:05", timeOfDay)
	if err != nil {
		parsed, err = time.Parse("15:04", timeOfDay)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0,
		date.Location(),
	), nil
}
