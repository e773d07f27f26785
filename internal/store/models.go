package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}

type Stadium struct {
	ID           int64
	OwnerID      int64
	Name         string
	Address      string
	ContactPhone sql.NullString
	PricePerHour float64
	Photos       string
	Status       string
	CreatedAt    time.Time
}

type Match struct {
	ID              int64
	CreatorID       int64
	StadiumID       int64
	MatchDate       time.Time
	StartTime       time.Time
	DurationMinutes int64
	MaxPlayers      int64
	Status          string
	ChatRoomRef     sql.NullString
	CreatedAt       time.Time
}

type Team struct {
	ID         int64
	MatchID    int64
	TeamNumber int64
	Name       sql.NullString
}

type Membership struct {
	TeamID   int64
	MatchID  int64
	PlayerID int64
	JoinedAt time.Time
}
