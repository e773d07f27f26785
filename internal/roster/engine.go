// Package roster is the team assignment engine: it decides whether
// join/switch/leave transitions are legal against the roster store.
//
// Every mutation runs inside a single database transaction. The store's
// UNIQUE (match_id, player_id) constraint backs the exclusivity rule, so a
// racing duplicate join loses at commit time and surfaces as Conflict rather
// than as a driver error.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/events"
	"github.com/pitchside/pitchside/internal/fault"
	"github.com/pitchside/pitchside/internal/store"
)

const maxTeamsPerMatch = 2

// Config tunes engine behavior.
type Config struct {
	// AllowCreatorJoin permits the match creator to take a roster spot.
	// Off by default: the creator organizes the match and books the pitch,
	// and counting them against a team's capacity double-books their slot.
	AllowCreatorJoin bool
}

type Engine struct {
	db  *db.DB
	bus *events.Bus
	cfg Config
}

func NewEngine(database *db.DB, bus *events.Bus, cfg Config) (*Engine, error) {
	if database == nil {
		return nil, errors.New("roster engine requires a database")
	}
	return &Engine{db: database, bus: bus, cfg: cfg}, nil
}

// JoinTeam adds a player to a team. Precondition order is fixed: team
// existence, duplicate membership in this team, membership in the other team
// of the match, creator exclusion, then capacity. The first failing check
// wins and nothing is written.
func (e *Engine) JoinTeam(ctx context.Context, teamID, playerID int64) (store.Membership, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "roster_engine").
		Int64("team_id", teamID).
		Int64("player_id", playerID).
		Logger()

	var (
		membership store.Membership
		match      store.Match
	)
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		team, err := txdb.Queries.GetTeam(ctx, teamID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("team not found")
			}
			return fmt.Errorf("load team %d: %w", teamID, err)
		}

		match, err = txdb.Queries.GetMatch(ctx, team.MatchID)
		if err != nil {
			return fmt.Errorf("load match %d: %w", team.MatchID, err)
		}

		if err := e.checkJoinPreconditions(ctx, txdb.Queries, team, match, playerID); err != nil {
			return err
		}

		membership, err = txdb.Queries.CreateMembership(ctx, store.CreateMembershipParams{
			TeamID:   teamID,
			MatchID:  match.ID,
			PlayerID: playerID,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return fault.Conflict("player already in a team for this match")
			}
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Membership{}, err
	}

	logger.Info().Int64("match_id", match.ID).Msg("Player joined team")
	e.publish(events.Event{
		Type:     events.TypeMemberJoined,
		MatchID:  match.ID,
		RoomRef:  match.ChatRoomRef.String,
		PlayerID: playerID,
	})
	return membership, nil
}

// SwitchTeam moves a player to the other team of the same match. The
// destination team gets the full join precondition set, and the old-membership
// delete commits together with the new-membership insert. No chat event
// fires: the room is match-scoped, so the participant list is unchanged.
func (e *Engine) SwitchTeam(ctx context.Context, newTeamID, playerID int64) (store.Membership, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "roster_engine").
		Int64("team_id", newTeamID).
		Int64("player_id", playerID).
		Logger()

	var membership store.Membership
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		newTeam, err := txdb.Queries.GetTeam(ctx, newTeamID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("team not found")
			}
			return fmt.Errorf("load team %d: %w", newTeamID, err)
		}

		match, err := txdb.Queries.GetMatch(ctx, newTeam.MatchID)
		if err != nil {
			return fmt.Errorf("load match %d: %w", newTeam.MatchID, err)
		}

		current, err := txdb.Queries.GetMembershipByMatchAndPlayer(ctx, match.ID, playerID)
		hasCurrent := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load current membership: %w", err)
		}
		if hasCurrent && current.TeamID == newTeamID {
			return fault.Conflict("player already in this team")
		}

		if !e.cfg.AllowCreatorJoin && match.CreatorID == playerID {
			return fault.Conflict("match creator cannot join a team")
		}

		count, err := txdb.Queries.CountMembershipsByTeam(ctx, newTeamID)
		if err != nil {
			return fmt.Errorf("count team members: %w", err)
		}
		if count >= match.MaxPlayers/2 {
			return fault.Conflict("team is full")
		}

		if hasCurrent {
			if _, err := txdb.Queries.DeleteMembership(ctx, current.TeamID, playerID); err != nil {
				return fmt.Errorf("delete current membership: %w", err)
			}
		}

		membership, err = txdb.Queries.CreateMembership(ctx, store.CreateMembershipParams{
			TeamID:   newTeamID,
			MatchID:  match.ID,
			PlayerID: playerID,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return fault.Conflict("player already in a team for this match")
			}
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Membership{}, err
	}

	logger.Info().Msg("Player switched team")
	return membership, nil
}

// LeaveTeam removes the caller's membership.
func (e *Engine) LeaveTeam(ctx context.Context, teamID, playerID int64) error {
	return e.removeMembership(ctx, teamID, playerID, "Player left team")
}

// RemovePlayer is the privileged variant of LeaveTeam: same deletion
// contract, invoked on behalf of someone else. Role gating happens at the
// handler.
func (e *Engine) RemovePlayer(ctx context.Context, teamID, playerID int64) error {
	return e.removeMembership(ctx, teamID, playerID, "Player removed from team")
}

func (e *Engine) removeMembership(ctx context.Context, teamID, playerID int64, logMsg string) error {
	var match store.Match
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		team, err := txdb.Queries.GetTeam(ctx, teamID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("team not found")
			}
			return fmt.Errorf("load team %d: %w", teamID, err)
		}

		match, err = txdb.Queries.GetMatch(ctx, team.MatchID)
		if err != nil {
			return fmt.Errorf("load match %d: %w", team.MatchID, err)
		}

		deleted, err := txdb.Queries.DeleteMembership(ctx, teamID, playerID)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		if !deleted {
			return fault.NotFound("player is not in this team")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("component", "roster_engine").
		Int64("team_id", teamID).
		Int64("player_id", playerID).
		Msg(logMsg)
	e.publish(events.Event{
		Type:     events.TypeMemberLeft,
		MatchID:  match.ID,
		RoomRef:  match.ChatRoomRef.String,
		PlayerID: playerID,
	})
	return nil
}

// GetPlayers lists player profiles on a team. Pure read, no invariant checks.
func (e *Engine) GetPlayers(ctx context.Context, teamID int64) ([]store.User, error) {
	players, err := e.db.Queries.ListPlayersByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team players: %w", err)
	}
	return players, nil
}

// CreateTeam adds a team to a match, numbering it after the existing teams.
// A match holds at most two.
func (e *Engine) CreateTeam(ctx context.Context, matchID int64, name string) (store.Team, error) {
	var team store.Team
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetMatch(ctx, matchID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("match not found")
			}
			return fmt.Errorf("load match %d: %w", matchID, err)
		}

		count, err := txdb.Queries.CountTeamsByMatch(ctx, matchID)
		if err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		if count >= maxTeamsPerMatch {
			return fault.Conflict("maximum number of teams reached")
		}

		team, err = txdb.Queries.CreateTeam(ctx, store.CreateTeamParams{
			MatchID:    matchID,
			TeamNumber: count + 1,
			Name:       toNullString(name),
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return fault.Conflict("maximum number of teams reached")
			}
			return fmt.Errorf("create team: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Team{}, err
	}
	return team, nil
}

// UpdateTeam renames a team, identified by (match, team number). Creator only.
func (e *Engine) UpdateTeam(ctx context.Context, matchID, teamNumber int64, name string, actorID int64) (store.Team, error) {
	var team store.Team
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetTeamByMatchAndNumber(ctx, matchID, teamNumber); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("team not found")
			}
			return fmt.Errorf("load team %d/%d: %w", matchID, teamNumber, err)
		}

		match, err := txdb.Queries.GetMatch(ctx, matchID)
		if err != nil {
			return fmt.Errorf("load match %d: %w", matchID, err)
		}
		if match.CreatorID != actorID {
			return fault.Forbidden("only match creator can update this team")
		}

		team, err = txdb.Queries.UpdateTeamName(ctx, store.UpdateTeamNameParams{
			Name:       toNullString(name),
			MatchID:    matchID,
			TeamNumber: teamNumber,
		})
		if err != nil {
			return fmt.Errorf("update team: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Team{}, err
	}
	return team, nil
}

// DeleteTeam removes a team and, through the store's cascade, every
// membership on it. Creator only.
func (e *Engine) DeleteTeam(ctx context.Context, teamID, actorID int64) error {
	var matchID int64
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		team, err := txdb.Queries.GetTeam(ctx, teamID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("team not found")
			}
			return fmt.Errorf("load team %d: %w", teamID, err)
		}

		match, err := txdb.Queries.GetMatch(ctx, team.MatchID)
		if err != nil {
			return fmt.Errorf("load match %d: %w", team.MatchID, err)
		}
		if match.CreatorID != actorID {
			return fault.Forbidden("only match creator can delete this team")
		}
		matchID = match.ID

		if err := txdb.Queries.DeleteTeam(ctx, teamID); err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("component", "roster_engine").
		Int64("team_id", teamID).
		Int64("match_id", matchID).
		Msg("Team deleted")
	return nil
}

func (e *Engine) checkJoinPreconditions(ctx context.Context, q *store.Queries, team store.Team, match store.Match, playerID int64) error {
	if _, err := q.GetMembership(ctx, team.ID, playerID); err == nil {
		return fault.Conflict("player already in this team")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load membership: %w", err)
	}

	if _, err := q.GetMembershipByMatchAndPlayer(ctx, match.ID, playerID); err == nil {
		return fault.Conflict("player already in another team for this match")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load match membership: %w", err)
	}

	if !e.cfg.AllowCreatorJoin && match.CreatorID == playerID {
		return fault.Conflict("match creator cannot join a team")
	}

	count, err := q.CountMembershipsByTeam(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("count team members: %w", err)
	}
	if count >= match.MaxPlayers/2 {
		return fault.Conflict("team is full")
	}
	return nil
}

func (e *Engine) publish(evt events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(evt)
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
