package store

import (
	"context"
	"database/sql"
)

const createMembership = `
INSERT INTO team_players (match_team_id, match_id, player_id)
VALUES (?, ?, ?)
RETURNING match_team_id, match_id, player_id, joined_at`

type CreateMembershipParams struct {
	TeamID   int64
	MatchID  int64
	PlayerID int64
}

func (q *Queries) CreateMembership(ctx context.Context, arg CreateMembershipParams) (Membership, error) {
	row := q.db.QueryRowContext(ctx, createMembership, arg.TeamID, arg.MatchID, arg.PlayerID)
	var m Membership
	err := row.Scan(&m.TeamID, &m.MatchID, &m.PlayerID, &m.JoinedAt)
	return m, err
}

const getMembership = `
SELECT match_team_id, match_id, player_id, joined_at
FROM team_players WHERE match_team_id = ? AND player_id = ?`

func (q *Queries) GetMembership(ctx context.Context, teamID, playerID int64) (Membership, error) {
	row := q.db.QueryRowContext(ctx, getMembership, teamID, playerID)
	var m Membership
	err := row.Scan(&m.TeamID, &m.MatchID, &m.PlayerID, &m.JoinedAt)
	return m, err
}

const getMembershipByMatchAndPlayer = `
SELECT match_team_id, match_id, player_id, joined_at
FROM team_players WHERE match_id = ? AND player_id = ?`

// GetMembershipByMatchAndPlayer finds the player's single membership across
// both teams of a match, relying on the (match_id, player_id) uniqueness.
func (q *Queries) GetMembershipByMatchAndPlayer(ctx context.Context, matchID, playerID int64) (Membership, error) {
	row := q.db.QueryRowContext(ctx, getMembershipByMatchAndPlayer, matchID, playerID)
	var m Membership
	err := row.Scan(&m.TeamID, &m.MatchID, &m.PlayerID, &m.JoinedAt)
	return m, err
}

const countMembershipsByTeam = `
SELECT COUNT(*) FROM team_players WHERE match_team_id = ?`

func (q *Queries) CountMembershipsByTeam(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMembershipsByTeam, teamID).Scan(&count)
	return count, err
}

const deleteMembership = `
DELETE FROM team_players WHERE match_team_id = ? AND player_id = ?`

// DeleteMembership removes the membership and reports whether a row existed.
func (q *Queries) DeleteMembership(ctx context.Context, teamID, playerID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteMembership, teamID, playerID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const listPlayersByTeam = `
SELECT u.id, u.name, u.email, u.role, u.created_at
FROM users u
JOIN team_players tp ON tp.player_id = u.id
WHERE tp.match_team_id = ?
ORDER BY tp.joined_at`

func (q *Queries) ListPlayersByTeam(ctx context.Context, teamID int64) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listPlayersByTeam, teamID)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const listPlayersByMatch = `
SELECT u.id, u.name, u.email, u.role, u.created_at
FROM users u
JOIN team_players tp ON tp.player_id = u.id
WHERE tp.match_id = ?
ORDER BY tp.joined_at`

func (q *Queries) ListPlayersByMatch(ctx context.Context, matchID int64) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listPlayersByMatch, matchID)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
