package store

import (
	"context"
	"database/sql"
)

const stadiumColumns = `id, owner_id, name, address, contact_phone, price_per_hour, photos, status, created_at`

func scanStadium(row *sql.Row) (Stadium, error) {
	var s Stadium
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.ContactPhone, &s.PricePerHour, &s.Photos, &s.Status, &s.CreatedAt)
	return s, err
}

const createStadium = `
INSERT INTO stadiums (owner_id, name, address, contact_phone, price_per_hour, photos)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + stadiumColumns

type CreateStadiumParams struct {
	OwnerID      int64
	Name         string
	Address      string
	ContactPhone sql.NullString
	PricePerHour float64
	Photos       string
}

func (q *Queries) CreateStadium(ctx context.Context, arg CreateStadiumParams) (Stadium, error) {
	row := q.db.QueryRowContext(ctx, createStadium,
		arg.OwnerID, arg.Name, arg.Address, arg.ContactPhone, arg.PricePerHour, arg.Photos)
	return scanStadium(row)
}

const getStadium = `
SELECT ` + stadiumColumns + ` FROM stadiums WHERE id = ?`

func (q *Queries) GetStadium(ctx context.Context, id int64) (Stadium, error) {
	return scanStadium(q.db.QueryRowContext(ctx, getStadium, id))
}

func scanStadiums(rows *sql.Rows) ([]Stadium, error) {
	defer rows.Close()
	var stadiums []Stadium
	for rows.Next() {
		var s Stadium
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.ContactPhone, &s.PricePerHour, &s.Photos, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		stadiums = append(stadiums, s)
	}
	return stadiums, rows.Err()
}

const listStadiums = `
SELECT ` + stadiumColumns + ` FROM stadiums WHERE status = 'active' ORDER BY name`

func (q *Queries) ListStadiums(ctx context.Context) ([]Stadium, error) {
	rows, err := q.db.QueryContext(ctx, listStadiums)
	if err != nil {
		return nil, err
	}
	return scanStadiums(rows)
}

const listStadiumsByOwner = `
SELECT ` + stadiumColumns + ` FROM stadiums WHERE owner_id = ? ORDER BY name`

// ListStadiumsByOwner returns the owner's stadiums regardless of status.
func (q *Queries) ListStadiumsByOwner(ctx context.Context, ownerID int64) ([]Stadium, error) {
	rows, err := q.db.QueryContext(ctx, listStadiumsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	return scanStadiums(rows)
}

const updateStadium = `
UPDATE stadiums
SET name = ?, address = ?, contact_phone = ?, price_per_hour = ?, photos = ?, status = ?
WHERE id = ?
RETURNING ` + stadiumColumns

type UpdateStadiumParams struct {
	Name         string
	Address      string
	ContactPhone sql.NullString
	PricePerHour float64
	Photos       string
	Status       string
	ID           int64
}

func (q *Queries) UpdateStadium(ctx context.Context, arg UpdateStadiumParams) (Stadium, error) {
	row := q.db.QueryRowContext(ctx, updateStadium,
		arg.Name, arg.Address, arg.ContactPhone, arg.PricePerHour, arg.Photos, arg.Status, arg.ID)
	return scanStadium(row)
}
