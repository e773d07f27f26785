package store

import (
	"context"
	"database/sql"
)

const teamColumns = `id, match_id, team_number, name`

func scanTeamRow(row *sql.Row) (Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.MatchID, &t.TeamNumber, &t.Name)
	return t, err
}

const createTeam = `
INSERT INTO match_teams (match_id, team_number, name)
VALUES (?, ?, ?)
RETURNING ` + teamColumns

type CreateTeamParams struct {
	MatchID    int64
	TeamNumber int64
	Name       sql.NullString
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	row := q.db.QueryRowContext(ctx, createTeam, arg.MatchID, arg.TeamNumber, arg.Name)
	return scanTeamRow(row)
}

const getTeam = `
SELECT ` + teamColumns + ` FROM match_teams WHERE id = ?`

func (q *Queries) GetTeam(ctx context.Context, id int64) (Team, error) {
	return scanTeamRow(q.db.QueryRowContext(ctx, getTeam, id))
}

const getTeamByMatchAndNumber = `
SELECT ` + teamColumns + ` FROM match_teams WHERE match_id = ? AND team_number = ?`

func (q *Queries) GetTeamByMatchAndNumber(ctx context.Context, matchID, teamNumber int64) (Team, error) {
	return scanTeamRow(q.db.QueryRowContext(ctx, getTeamByMatchAndNumber, matchID, teamNumber))
}

const listTeamsByMatch = `
SELECT ` + teamColumns + ` FROM match_teams WHERE match_id = ? ORDER BY team_number`

func (q *Queries) ListTeamsByMatch(ctx context.Context, matchID int64) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsByMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.MatchID, &t.TeamNumber, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

const countTeamsByMatch = `
SELECT COUNT(*) FROM match_teams WHERE match_id = ?`

func (q *Queries) CountTeamsByMatch(ctx context.Context, matchID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTeamsByMatch, matchID).Scan(&count)
	return count, err
}

const updateTeamName = `
UPDATE match_teams SET name = ? WHERE match_id = ? AND team_number = ?
RETURNING ` + teamColumns

type UpdateTeamNameParams struct {
	Name       sql.NullString
	MatchID    int64
	TeamNumber int64
}

func (q *Queries) UpdateTeamName(ctx context.Context, arg UpdateTeamNameParams) (Team, error) {
	row := q.db.QueryRowContext(ctx, updateTeamName, arg.Name, arg.MatchID, arg.TeamNumber)
	return scanTeamRow(row)
}

const deleteTeam = `
DELETE FROM match_teams WHERE id = ?`

func (q *Queries) DeleteTeam(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTeam, id)
	return err
}
