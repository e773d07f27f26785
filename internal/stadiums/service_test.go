package stadiums

import (
	"context"
	"testing"
	"time"

	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/fault"
	"github.com/pitchside/pitchside/internal/testutil"
)

func setupStadiumTest(t *testing.T) (*Service, *db.DB, int64) {
	t.Helper()

	database := testutil.NewTestDB(t)
	svc, err := NewService(database)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	res, err := database.ExecContext(context.Background(),
		"INSERT INTO users (name, email, role) VALUES ('Owner', 'owner@example.com', 'owner')")
	if err != nil {
		t.Fatalf("insert owner: %v", err)
	}
	ownerID, _ := res.LastInsertId()
	return svc, database, ownerID
}

func TestCreateStadium(t *testing.T) {
	svc, _, ownerID := setupStadiumTest(t)

	stadium, err := svc.Create(context.Background(), CreateStadiumParams{
		Name:         "City Arena",
		Address:      "1 Main St",
		ContactPhone: "(415) 555-2671",
		PricePerHour: 80,
		Photos:       []string{"front.jpg", "pitch.jpg"},
	}, ownerID)
	if err != nil {
		t.Fatalf("create stadium: %v", err)
	}

	if stadium.OwnerID != ownerID {
		t.Errorf("owner = %d, want %d", stadium.OwnerID, ownerID)
	}
	if stadium.Status != "active" {
		t.Errorf("status = %q, want active", stadium.Status)
	}
	if !stadium.ContactPhone.Valid || stadium.ContactPhone.String != "+14155552671" {
		t.Errorf("contact phone = %+v, want E.164 +14155552671", stadium.ContactPhone)
	}
	if stadium.Photos != `["front.jpg","pitch.jpg"]` {
		t.Errorf("photos = %q", stadium.Photos)
	}
}

func TestCreateStadiumValidation(t *testing.T) {
	svc, _, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateStadiumParams{Name: ""}, ownerID); !fault.IsInvalid(err) {
		t.Errorf("empty name err = %v, want Invalid", err)
	}
	_, err := svc.Create(ctx, CreateStadiumParams{
		Name:         "City Arena",
		ContactPhone: "not a number",
	}, ownerID)
	if !fault.IsInvalid(err) {
		t.Errorf("bad phone err = %v, want Invalid", err)
	}
}

func TestCreateStadiumEmptyPhone(t *testing.T) {
	svc, _, ownerID := setupStadiumTest(t)

	stadium, err := svc.Create(context.Background(), CreateStadiumParams{Name: "No Phone FC"}, ownerID)
	if err != nil {
		t.Fatalf("create stadium: %v", err)
	}
	if stadium.ContactPhone.Valid {
		t.Errorf("contact phone = %+v, want null", stadium.ContactPhone)
	}
	if stadium.Photos != "[]" {
		t.Errorf("photos = %q, want empty JSON array", stadium.Photos)
	}
}

func TestGetStadium(t *testing.T) {
	svc, _, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateStadiumParams{Name: "City Arena"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "City Arena" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := svc.Get(ctx, 9999); !fault.IsNotFound(err) {
		t.Errorf("missing stadium err = %v, want NotFound", err)
	}
}

func TestListStadiumsActiveOnly(t *testing.T) {
	svc, _, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateStadiumParams{Name: "Beta Park"}, ownerID); err != nil {
		t.Fatalf("create: %v", err)
	}
	alpha, err := svc.Create(ctx, CreateStadiumParams{Name: "Alpha Field"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	closed, err := svc.Create(ctx, CreateStadiumParams{Name: "Closed Ground"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := "inactive"
	if _, err := svc.Update(ctx, closed.ID, UpdateStadiumParams{Status: &inactive}, ownerID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	stadiums, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stadiums) != 2 {
		t.Fatalf("listed %d stadiums, want 2 active", len(stadiums))
	}
	// Sorted by name.
	if stadiums[0].ID != alpha.ID {
		t.Errorf("first = %q, want Alpha Field", stadiums[0].Name)
	}
}

func TestGetMyStadiums(t *testing.T) {
	svc, database, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateStadiumParams{Name: "Beta Park"}, ownerID); err != nil {
		t.Fatalf("create: %v", err)
	}
	closed, err := svc.Create(ctx, CreateStadiumParams{Name: "Alpha Field"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := "inactive"
	if _, err := svc.Update(ctx, closed.ID, UpdateStadiumParams{Status: &inactive}, ownerID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	res, err := database.ExecContext(ctx,
		"INSERT INTO users (name, email, role) VALUES ('Other', 'other@example.com', 'owner')")
	if err != nil {
		t.Fatalf("insert other owner: %v", err)
	}
	otherID, _ := res.LastInsertId()
	if _, err := svc.Create(ctx, CreateStadiumParams{Name: "Other Ground"}, otherID); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.GetMyStadiums(ctx, ownerID)
	if err != nil {
		t.Fatalf("get my stadiums: %v", err)
	}
	// Both stadiums, the deactivated one included, sorted by name.
	if len(mine) != 2 {
		t.Fatalf("got %d stadiums, want 2", len(mine))
	}
	if mine[0].Name != "Alpha Field" || mine[0].Status != "inactive" {
		t.Errorf("first = %+v, want inactive Alpha Field", mine[0])
	}
	for _, s := range mine {
		if s.OwnerID != ownerID {
			t.Errorf("listed stadium owned by %d", s.OwnerID)
		}
	}
}

func TestGetAvailability(t *testing.T) {
	svc, database, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	stadium, err := svc.Create(ctx, CreateStadiumParams{Name: "City Arena"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(ctx, CreateStadiumParams{Name: "Other Ground"}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := database.ExecContext(ctx,
		"INSERT INTO users (name, email, role) VALUES ('Creator', 'creator@example.com', 'player')")
	if err != nil {
		t.Fatalf("insert creator: %v", err)
	}
	creatorID, _ := res.LastInsertId()

	early := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 13, 20, 0, 0, 0, time.UTC)
	insertBooking(t, database, stadium.ID, creatorID, "approved", early)
	insertBooking(t, database, stadium.ID, creatorID, "pending", late)
	insertBooking(t, database, other.ID, creatorID, "approved", early)

	avail, err := svc.GetAvailability(ctx, stadium.ID)
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}
	if avail.StadiumID != stadium.ID {
		t.Errorf("stadium id = %d, want %d", avail.StadiumID, stadium.ID)
	}
	if len(avail.BookedSlots) != 2 {
		t.Fatalf("got %d slots, want 2", len(avail.BookedSlots))
	}
	// Ordered by date; every status included.
	if avail.BookedSlots[0].Status != "approved" || !avail.BookedSlots[0].StartTime.Equal(early) {
		t.Errorf("first slot = %+v", avail.BookedSlots[0])
	}
	if avail.BookedSlots[1].Status != "pending" {
		t.Errorf("second slot = %+v", avail.BookedSlots[1])
	}

	if _, err := svc.GetAvailability(ctx, 9999); !fault.IsNotFound(err) {
		t.Errorf("missing stadium err = %v, want NotFound", err)
	}
}

func insertBooking(t *testing.T, database *db.DB, stadiumID, creatorID int64, status string, start time.Time) {
	t.Helper()
	_, err := database.ExecContext(context.Background(),
		"INSERT INTO matches (creator_id, stadium_id, match_date, start_time, duration_minutes, max_players, status) VALUES (?, ?, ?, ?, 90, 10, ?)",
		creatorID, stadiumID, start, start, status)
	if err != nil {
		t.Fatalf("insert booking: %v", err)
	}
}

func TestUpdateStadium(t *testing.T) {
	svc, database, ownerID := setupStadiumTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateStadiumParams{Name: "City Arena", PricePerHour: 80}, ownerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Grand Arena"
	newPrice := 95.0
	updated, err := svc.Update(ctx, created.ID, UpdateStadiumParams{
		Name:         &newName,
		PricePerHour: &newPrice,
	}, ownerID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Grand Arena" || updated.PricePerHour != 95 {
		t.Errorf("updated = %+v", updated)
	}
	// Untouched fields survive the patch.
	if updated.Address != created.Address {
		t.Errorf("address changed: %q -> %q", created.Address, updated.Address)
	}

	res, err := database.ExecContext(ctx,
		"INSERT INTO users (name, email, role) VALUES ('Other', 'other@example.com', 'owner')")
	if err != nil {
		t.Fatalf("insert other owner: %v", err)
	}
	otherID, _ := res.LastInsertId()

	if _, err := svc.Update(ctx, created.ID, UpdateStadiumParams{Name: &newName}, otherID); !fault.IsForbidden(err) {
		t.Errorf("other owner err = %v, want Forbidden", err)
	}

	bogus := "closed"
	if _, err := svc.Update(ctx, created.ID, UpdateStadiumParams{Status: &bogus}, ownerID); !fault.IsInvalid(err) {
		t.Errorf("bogus status err = %v, want Invalid", err)
	}
	if _, err := svc.Update(ctx, 9999, UpdateStadiumParams{Name: &newName}, ownerID); !fault.IsNotFound(err) {
		t.Errorf("missing stadium err = %v, want NotFound", err)
	}
}
