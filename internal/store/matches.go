package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const matchColumns = `id, creator_id, stadium_id, match_date, start_time, duration_minutes, max_players, status, chat_room_ref, created_at`

func scanMatchRow(row *sql.Row) (Match, error) {
	var m Match
	err := row.Scan(&m.ID, &m.CreatorID, &m.StadiumID, &m.MatchDate, &m.StartTime,
		&m.DurationMinutes, &m.MaxPlayers, &m.Status, &m.ChatRoomRef, &m.CreatedAt)
	return m, err
}

func scanMatches(rows *sql.Rows) ([]Match, error) {
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.CreatorID, &m.StadiumID, &m.MatchDate, &m.StartTime,
			&m.DurationMinutes, &m.MaxPlayers, &m.Status, &m.ChatRoomRef, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

const createMatch = `
INSERT INTO matches (creator_id, stadium_id, match_date, start_time, duration_minutes, max_players, status)
VALUES (?, ?, ?, ?, ?, ?, 'pending')
RETURNING ` + matchColumns

type CreateMatchParams struct {
	CreatorID       int64
	StadiumID       int64
	MatchDate       time.Time
	StartTime       time.Time
	DurationMinutes int64
	MaxPlayers      int64
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (Match, error) {
	row := q.db.QueryRowContext(ctx, createMatch,
		arg.CreatorID, arg.StadiumID, arg.MatchDate, arg.StartTime, arg.DurationMinutes, arg.MaxPlayers)
	return scanMatchRow(row)
}

const getMatch = `
SELECT ` + matchColumns + ` FROM matches WHERE id = ?`

func (q *Queries) GetMatch(ctx context.Context, id int64) (Match, error) {
	return scanMatchRow(q.db.QueryRowContext(ctx, getMatch, id))
}

// ListMatchesParams are optional filters; zero values are ignored.
type ListMatchesParams struct {
	Status    string
	CreatorID int64
	StadiumID int64
	MatchDate time.Time
}

func (q *Queries) ListMatches(ctx context.Context, arg ListMatchesParams) ([]Match, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if arg.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, arg.Status)
	}
	if arg.CreatorID != 0 {
		clauses = append(clauses, "creator_id = ?")
		args = append(args, arg.CreatorID)
	}
	if arg.StadiumID != 0 {
		clauses = append(clauses, "stadium_id = ?")
		args = append(args, arg.StadiumID)
	}
	if !arg.MatchDate.IsZero() {
		clauses = append(clauses, "date(match_date) = date(?)")
		args = append(args, arg.MatchDate)
	}

	query := "SELECT " + matchColumns + " FROM matches"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY match_date"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

const listMatchesJoinedByPlayer = `
SELECT ` + matchColumns + ` FROM matches
WHERE id IN (SELECT match_id FROM team_players WHERE player_id = ?)
ORDER BY match_date`

func (q *Queries) ListMatchesJoinedByPlayer(ctx context.Context, playerID int64) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listMatchesJoinedByPlayer, playerID)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

const listMatchesForOwner = `
SELECT m.id, m.creator_id, m.stadium_id, m.match_date, m.start_time, m.duration_minutes, m.max_players, m.status, m.chat_room_ref, m.created_at
FROM matches m
JOIN stadiums s ON s.id = m.stadium_id
WHERE s.owner_id = ?
ORDER BY m.match_date`

func (q *Queries) ListMatchesForOwner(ctx context.Context, ownerID int64) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listMatchesForOwner, ownerID)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

const listPendingMatchesStartingBefore = `
SELECT ` + matchColumns + ` FROM matches
WHERE status = 'pending' AND start_time < ?
ORDER BY start_time`

func (q *Queries) ListPendingMatchesStartingBefore(ctx context.Context, cutoff time.Time) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listPendingMatchesStartingBefore, cutoff)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

const updateMatch = `
UPDATE matches
SET stadium_id = ?, match_date = ?, start_time = ?, duration_minutes = ?, max_players = ?
WHERE id = ?
RETURNING ` + matchColumns

type UpdateMatchParams struct {
	StadiumID       int64
	MatchDate       time.Time
	StartTime       time.Time
	DurationMinutes int64
	MaxPlayers      int64
	ID              int64
}

func (q *Queries) UpdateMatch(ctx context.Context, arg UpdateMatchParams) (Match, error) {
	row := q.db.QueryRowContext(ctx, updateMatch,
		arg.StadiumID, arg.MatchDate, arg.StartTime, arg.DurationMinutes, arg.MaxPlayers, arg.ID)
	return scanMatchRow(row)
}

const updateMatchStatus = `
UPDATE matches SET status = ? WHERE id = ?
RETURNING ` + matchColumns

func (q *Queries) UpdateMatchStatus(ctx context.Context, id int64, status string) (Match, error) {
	return scanMatchRow(q.db.QueryRowContext(ctx, updateMatchStatus, status, id))
}

const setMatchChatRoomRef = `
UPDATE matches SET chat_room_ref = ? WHERE id = ?`

func (q *Queries) SetMatchChatRoomRef(ctx context.Context, id int64, roomRef string) error {
	_, err := q.db.ExecContext(ctx, setMatchChatRoomRef, roomRef, id)
	return err
}

const deleteMatch = `
DELETE FROM matches WHERE id = ?`

func (q *Queries) DeleteMatch(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMatch, id)
	return err
}
