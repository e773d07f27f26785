// Package stadiums is the stadium directory: owners list pitches that
// matches get booked against.
package stadiums

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/fault"
	"github.com/pitchside/pitchside/internal/store"
)

// defaultPhoneRegion applies when a contact number has no country prefix.
const defaultPhoneRegion = "US"

type Service struct {
	db *db.DB
}

func NewService(database *db.DB) (*Service, error) {
	if database == nil {
		return nil, errors.New("stadium service requires a database")
	}
	return &Service{db: database}, nil
}

type CreateStadiumParams struct {
	Name         string
	Address      string
	ContactPhone string
	PricePerHour float64
	Photos       []string
}

func (s *Service) Create(ctx context.Context, arg CreateStadiumParams, ownerID int64) (store.Stadium, error) {
	if arg.Name == "" {
		return store.Stadium{}, fault.Invalid("stadium name is required")
	}

	phone, err := normalizePhone(arg.ContactPhone)
	if err != nil {
		return store.Stadium{}, err
	}

	photos, err := marshalPhotos(arg.Photos)
	if err != nil {
		return store.Stadium{}, err
	}

	stadium, err := s.db.Queries.CreateStadium(ctx, store.CreateStadiumParams{
		OwnerID:      ownerID,
		Name:         arg.Name,
		Address:      arg.Address,
		ContactPhone: phone,
		PricePerHour: arg.PricePerHour,
		Photos:       photos,
	})
	if err != nil {
		return store.Stadium{}, fmt.Errorf("create stadium: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("component", "stadium_service").
		Int64("stadium_id", stadium.ID).
		Int64("owner_id", ownerID).
		Msg("Stadium created")
	return stadium, nil
}

func (s *Service) Get(ctx context.Context, stadiumID int64) (store.Stadium, error) {
	stadium, err := s.db.Queries.GetStadium(ctx, stadiumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Stadium{}, fault.NotFound("stadium not found")
		}
		return store.Stadium{}, fmt.Errorf("load stadium %d: %w", stadiumID, err)
	}
	return stadium, nil
}

func (s *Service) List(ctx context.Context) ([]store.Stadium, error) {
	return s.db.Queries.ListStadiums(ctx)
}

// GetMyStadiums lists every stadium the owner has registered, inactive ones
// included.
func (s *Service) GetMyStadiums(ctx context.Context, ownerID int64) ([]store.Stadium, error) {
	return s.db.Queries.ListStadiumsByOwner(ctx, ownerID)
}

// BookedSlot is one match already booked against a stadium.
type BookedSlot struct {
	MatchDate time.Time
	StartTime time.Time
	Status    string
}

type Availability struct {
	StadiumID   int64
	BookedSlots []BookedSlot
}

// GetAvailability reports the match slots booked against a stadium, ordered
// by date. Every status is included so callers see rejected and cancelled
// bookings as free.
func (s *Service) GetAvailability(ctx context.Context, stadiumID int64) (Availability, error) {
	if _, err := s.Get(ctx, stadiumID); err != nil {
		return Availability{}, err
	}

	booked, err := s.db.Queries.ListMatches(ctx, store.ListMatchesParams{StadiumID: stadiumID})
	if err != nil {
		return Availability{}, fmt.Errorf("list booked slots: %w", err)
	}

	slots := make([]BookedSlot, 0, len(booked))
	for _, m := range booked {
		slots = append(slots, BookedSlot{
			MatchDate: m.MatchDate,
			StartTime: m.StartTime,
			Status:    m.Status,
		})
	}
	return Availability{StadiumID: stadiumID, BookedSlots: slots}, nil
}

type UpdateStadiumParams struct {
	Name         *string
	Address      *string
	ContactPhone *string
	PricePerHour *float64
	Photos       []string
	Status       *string
}

// Update patches stadium fields. Owner only.
func (s *Service) Update(ctx context.Context, stadiumID int64, arg UpdateStadiumParams, actorID int64) (store.Stadium, error) {
	var updated store.Stadium
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		stadium, err := txdb.Queries.GetStadium(ctx, stadiumID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("stadium not found")
			}
			return fmt.Errorf("load stadium %d: %w", stadiumID, err)
		}
		if stadium.OwnerID != actorID {
			return fault.Forbidden("only the stadium owner can update this stadium")
		}

		params := store.UpdateStadiumParams{
			Name:         stadium.Name,
			Address:      stadium.Address,
			ContactPhone: stadium.ContactPhone,
			PricePerHour: stadium.PricePerHour,
			Photos:       stadium.Photos,
			Status:       stadium.Status,
			ID:           stadium.ID,
		}
		if arg.Name != nil {
			if *arg.Name == "" {
				return fault.Invalid("stadium name is required")
			}
			params.Name = *arg.Name
		}
		if arg.Address != nil {
			params.Address = *arg.Address
		}
		if arg.ContactPhone != nil {
			phone, err := normalizePhone(*arg.ContactPhone)
			if err != nil {
				return err
			}
			params.ContactPhone = phone
		}
		if arg.PricePerHour != nil {
			params.PricePerHour = *arg.PricePerHour
		}
		if arg.Photos != nil {
			photos, err := marshalPhotos(arg.Photos)
			if err != nil {
				return err
			}
			params.Photos = photos
		}
		if arg.Status != nil {
			if *arg.Status != "active" && *arg.Status != "inactive" {
				return fault.Invalid(fmt.Sprintf("unknown stadium status %q", *arg.Status))
			}
			params.Status = *arg.Status
		}

		updated, err = txdb.Queries.UpdateStadium(ctx, params)
		if err != nil {
			return fmt.Errorf("update stadium %d: %w", stadiumID, err)
		}
		return nil
	})
	if err != nil {
		return store.Stadium{}, err
	}
	return updated, nil
}

// normalizePhone validates the contact number and stores it in E.164 form.
// An empty input clears the number.
func normalizePhone(raw string) (sql.NullString, error) {
	if raw == "" {
		return sql.NullString{}, nil
	}
	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return sql.NullString{}, fault.Invalid(fmt.Sprintf("invalid contact phone %q", raw))
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return sql.NullString{}, fault.Invalid(fmt.Sprintf("invalid contact phone %q", raw))
	}
	return sql.NullString{
		String: phonenumbers.Format(parsed, phonenumbers.E164),
		Valid:  true,
	}, nil
}

func marshalPhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return "", fmt.Errorf("marshal photos: %w", err)
	}
	return string(data), nil
}
