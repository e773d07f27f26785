// internal/api/stadiums/handlers.go
package stadiums

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/api/actor"
	"github.com/pitchside/pitchside/internal/api/apiutil"
	"github.com/pitchside/pitchside/internal/fault"
	stadiumsvc "github.com/pitchside/pitchside/internal/stadiums"
	"github.com/pitchside/pitchside/internal/store"
)

var (
	service     *stadiumsvc.Service
	serviceOnce sync.Once
)

const stadiumQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *stadiumsvc.Service) {
	if s == nil {
		return
	}
	serviceOnce.Do(func() {
		service = s
	})
}

type createStadiumRequest struct {
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	PricePerHour float64  `json:"price_per_hour,omitempty"`
	Photos       []string `json:"photos,omitempty"`
}

type updateStadiumRequest struct {
	Name         *string  `json:"name,omitempty"`
	Address      *string  `json:"address,omitempty"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	PricePerHour *float64 `json:"price_per_hour,omitempty"`
	Photos       []string `json:"photos,omitempty"`
	Status       *string  `json:"status,omitempty"`
}

type stadiumResponse struct {
	ID           int64    `json:"id"`
	OwnerID      int64    `json:"owner_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	PricePerHour float64  `json:"price_per_hour"`
	Photos       []string `json:"photos"`
	Status       string   `json:"status"`
}

func toStadiumResponse(s store.Stadium) stadiumResponse {
	var photos []string
	if err := json.Unmarshal([]byte(s.Photos), &photos); err != nil {
		photos = []string{}
	}
	return stadiumResponse{
		ID:           s.ID,
		OwnerID:      s.OwnerID,
		Name:         s.Name,
		Address:      s.Address,
		ContactPhone: s.ContactPhone.String,
		PricePerHour: s.PricePerHour,
		Photos:       photos,
		Status:       s.Status,
	}
}

// POST /api/v1/stadiums
func HandleCreateStadium(w http.ResponseWriter, r *http.Request) {
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
	if err := actor.RequireRole(ctx, actor.RoleOwner); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req createStadiumRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	stadium, err := service.Create(ctx, stadiumsvc.CreateStadiumParams{
		Name:         req.Name,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		PricePerHour: req.PricePerHour,
		Photos:       req.Photos,
	}, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusCreated, toStadiumResponse(stadium))
}

// GET /api/v1/stadiums
func HandleListStadiums(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	listed, err := service.List(ctx)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	out := make([]stadiumResponse, 0, len(listed))
	for _, s := range listed {
		out = append(out, toStadiumResponse(s))
	}
	apiutil.RespondJSON(w, http.StatusOK, out)
}

// GET /api/v1/stadiums/mine lists the caller's stadiums, inactive included.
func HandleMyStadiums(w http.ResponseWriter, r *http.Request) {
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
	if err := actor.RequireRole(ctx, actor.RoleOwner); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	listed, err := service.GetMyStadiums(ctx, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	out := make([]stadiumResponse, 0, len(listed))
	for _, s := range listed {
		out = append(out, toStadiumResponse(s))
	}
	apiutil.RespondJSON(w, http.StatusOK, out)
}

type bookedSlotResponse struct {
	MatchDate time.Time `json:"match_date"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`
}

type availabilityResponse struct {
	StadiumID   int64                `json:"stadium_id"`
	BookedSlots []bookedSlotResponse `json:"booked_slots"`
}

// GET /api/v1/stadiums/{id}/availability
func HandleGetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	stadiumID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	avail, err := service.GetAvailability(ctx, stadiumID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	out := availabilityResponse{
		StadiumID:   avail.StadiumID,
		BookedSlots: make([]bookedSlotResponse, 0, len(avail.BookedSlots)),
	}
	for _, slot := range avail.BookedSlots {
		out.BookedSlots = append(out.BookedSlots, bookedSlotResponse{
			MatchDate: slot.MatchDate,
			StartTime: slot.StartTime,
			Status:    slot.Status,
		})
	}
	apiutil.RespondJSON(w, http.StatusOK, out)
}

// GET /api/v1/stadiums/{id}
func HandleGetStadium(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, ok := handlerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	stadiumID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	stadium, err := service.Get(ctx, stadiumID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toStadiumResponse(stadium))
}

// PATCH /api/v1/stadiums/{id}
func HandleUpdateStadium(w http.ResponseWriter, r *http.Request) {
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

	stadiumID, err := pathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req updateStadiumRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, fault.Invalid("malformed request body"))
		return
	}

	stadium, err := service.Update(ctx, stadiumID, stadiumsvc.UpdateStadiumParams{
		Name:         req.Name,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		PricePerHour: req.PricePerHour,
		Photos:       req.Photos,
		Status:       req.Status,
	}, act.ID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, http.StatusOK, toStadiumResponse(stadium))
}

func handlerContext(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, bool) {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Stadium service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), stadiumQueryTimeout)
	return ctx, cancel, true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Invalid("invalid " + name)
	}
	return id, nil
}
