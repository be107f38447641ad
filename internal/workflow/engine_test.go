package workflow

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/oit-labs/lostfound/internal/db"
	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/store"
)

// recordingDispatcher captures notifications for assertions.
type recordingDispatcher struct {
	sent []sentNotification
	err  error
}

type sentNotification struct {
	template   string
	recipients []string
	fields     map[string]string
}

func (d *recordingDispatcher) Notify(_ context.Context, templateKey string, recipients []string, fields map[string]string) error {
	d.sent = append(d.sent, sentNotification{templateKey, recipients, fields})
	return d.err
}

type testEnv struct {
	db         *sql.DB
	engine     *Engine
	dispatcher *recordingDispatcher
	locationID int64
	categoryID int64
	staff      *model.Person
	attendant  *model.Person
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	location, err := store.CreateLocation(ctx, database, "Front desk")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	categories, _ := store.ListCategories(ctx, database)
	var categoryID int64
	for _, c := range categories {
		if c.MachineName == model.CategoryOther {
			categoryID = c.ID
		}
	}
	if categoryID == 0 {
		t.Fatal("seeded OTHER category not found")
	}

	staff, _ := store.CreateLoginPerson(ctx, database, "Sam", "Staff", "sam@example.edu", "sstaff", "", true)
	attendant, _ := store.CreateLoginPerson(ctx, database, "Alex", "Attendant", "alex@example.edu", "aattendant", "", false)

	dispatcher := &recordingDispatcher{}
	engine := &Engine{
		DB:               database,
		Notifier:         dispatcher,
		CheckinNotifyTo:  []string{"valuables@example.edu"},
		CheckoutNotifyTo: []string{"valuables@example.edu"},
	}

	return &testEnv{
		db:         database,
		engine:     engine,
		dispatcher: dispatcher,
		locationID: location.ID,
		categoryID: categoryID,
		staff:      staff,
		attendant:  attendant,
	}
}

func (env *testEnv) checkIn(t *testing.T, req CheckInRequest) *model.Item {
	t.Helper()
	if req.LocationID == 0 {
		req.LocationID = env.locationID
	}
	if req.CategoryID == 0 {
		req.CategoryID = env.categoryID
	}
	item, err := env.engine.CheckIn(context.Background(), req, env.staff)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	return item
}

func countStatusEvents(t *testing.T, database *sql.DB, itemID int64) int {
	t.Helper()
	var n int
	err := database.QueryRow(`SELECT COUNT(*) FROM status WHERE item_id = ?`, itemID).Scan(&n)
	if err != nil {
		t.Fatalf("counting status events: %v", err)
	}
	return n
}

func countPersons(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM person`).Scan(&n); err != nil {
		t.Fatalf("counting persons: %v", err)
	}
	return n
}

func TestCheckInCreatesItemAndInitialEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.checkIn(t, CheckInRequest{Description: "Black umbrella"})
	if item.CurrentAction != model.ActionCheckedIn {
		t.Errorf("expected current action CHECKED_IN, got %q", item.CurrentAction)
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected exactly one status event after check-in")
	}

	current, _ := store.CurrentStatus(ctx, env.db, item.ID)
	if current.Note != "Initial check-in" {
		t.Errorf("expected initial note, got %q", current.Note)
	}
	if current.PerformedBy == nil || *current.PerformedBy != env.staff.ID {
		t.Error("expected the actor recorded as performer")
	}
}

func TestCheckInValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CheckIn(context.Background(), CheckInRequest{}, env.staff)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"location", "category", "description"} {
		if verr[field] == "" {
			t.Errorf("expected a message for field %q", field)
		}
	}
}

func TestCheckInPartialOwnerRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CheckIn(context.Background(), CheckInRequest{
		LocationID:     env.locationID,
		CategoryID:     env.categoryID,
		Description:    "Wallet",
		OwnerFirstName: "Jamie",
	}, env.staff)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr["last_name"] == "" || verr["email"] == "" {
		t.Errorf("expected missing owner fields flagged, got %v", verr)
	}
	if countPersons(t, env.db) != 2 {
		t.Error("expected no person created by a rejected check-in")
	}
}

func TestCheckInUnknownLocation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CheckIn(context.Background(), CheckInRequest{
		LocationID:  9999,
		CategoryID:  env.categoryID,
		Description: "Wallet",
	}, env.staff)

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "location" {
		t.Fatalf("expected location not-found error, got %v", err)
	}
}

func TestCheckInValuableWithOwnerNotifies(t *testing.T) {
	env := newTestEnv(t)

	persons := countPersons(t, env.db)
	item := env.checkIn(t, CheckInRequest{
		Description:    "Leather wallet",
		IsValuable:     true,
		OwnerFirstName: "Jamie",
		OwnerLastName:  "Doe",
		OwnerEmail:     "jamie@example.edu",
	})

	if item.PossibleOwnerName != "Doe, Jamie" {
		t.Errorf("expected possible owner attached, got %q", item.PossibleOwnerName)
	}
	if countPersons(t, env.db) != persons+1 {
		t.Error("expected exactly one placeholder person created")
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected exactly one status event")
	}

	if len(env.dispatcher.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(env.dispatcher.sent))
	}
	owner := env.dispatcher.sent[0]
	if owner.template != "owner-found-generic" {
		t.Errorf("expected generic owner template, got %q", owner.template)
	}
	if len(owner.recipients) != 1 || owner.recipients[0] != "jamie@example.edu" {
		t.Errorf("expected owner email recipient, got %v", owner.recipients)
	}
	valuable := env.dispatcher.sent[1]
	if valuable.template != "staff-valuable-checkin" {
		t.Errorf("expected valuable check-in template, got %q", valuable.template)
	}
	if valuable.fields["found_by"] != "Staff, Sam" {
		t.Errorf("expected found_by field, got %q", valuable.fields["found_by"])
	}
}

func TestCheckInUSBOwnerTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	categories, _ := store.ListCategories(ctx, env.db)
	var usbID int64
	for _, c := range categories {
		if c.MachineName == model.CategoryUSB {
			usbID = c.ID
		}
	}

	env.checkIn(t, CheckInRequest{
		CategoryID:     usbID,
		Description:    "Red flash drive",
		OwnerFirstName: "Jamie",
		OwnerLastName:  "Doe",
		OwnerEmail:     "jamie@example.edu",
	})

	if len(env.dispatcher.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(env.dispatcher.sent))
	}
	if env.dispatcher.sent[0].template != "owner-found-usb" {
		t.Errorf("expected usb owner template, got %q", env.dispatcher.sent[0].template)
	}
}

func TestCheckInNotifierFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.err = errors.New("smtp down")

	item := env.checkIn(t, CheckInRequest{Description: "Wallet", IsValuable: true})
	if item == nil {
		t.Fatal("expected check-in to succeed despite notifier failure")
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected the committed event to survive")
	}
}

func TestApplyActionRequiresActor(t *testing.T) {
	env := newTestEnv(t)
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	_, err := env.engine.ApplyAction(context.Background(), item.ID, ActionRequest{
		Action: model.ActionOther, Note: "moved to safe",
	}, nil)

	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestApplyActionNonStaffGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	// Non-staff may not perform OTHER, even with a note. The gate runs before
	// validation, and nothing reaches the ledger.
	_, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action: model.ActionOther, Note: "moved to safe",
	}, env.attendant)
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected no event appended for rejected action")
	}

	// RETURNED is the one transition open to non-staff.
	updated, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.attendant)
	if err != nil {
		t.Fatalf("ApplyAction RETURNED by non-staff: %v", err)
	}
	if updated.CurrentAction != model.ActionReturned {
		t.Errorf("expected current action RETURNED, got %q", updated.CurrentAction)
	}
}

func TestApplyActionOtherRequiresNote(t *testing.T) {
	env := newTestEnv(t)
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	_, err := env.engine.ApplyAction(context.Background(), item.ID, ActionRequest{
		Action: model.ActionOther, Note: "   ",
	}, env.staff)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr["note"] != "Note required when choosing action of type Other." {
		t.Errorf("unexpected note message: %q", verr["note"])
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected no event appended for rejected action")
	}
}

func TestApplyActionUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	_, err := env.engine.ApplyAction(context.Background(), item.ID, ActionRequest{
		Action: "EATEN_BY_DOG",
	}, env.staff)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr["action"] != "Select a valid action." {
		t.Errorf("unexpected action message: %q", verr["action"])
	}
}

func TestApplyActionMissingItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.ApplyAction(context.Background(), 9999, ActionRequest{
		Action: model.ActionMissing,
	}, env.staff)

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "item" {
		t.Fatalf("expected item not-found error, got %v", err)
	}
}

func TestReturnSetsRecipientAndDefaultNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	updated, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.staff)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	if updated.ReturnedToName != "Doe, Jamie" {
		t.Errorf("expected returned-to recipient, got %q", updated.ReturnedToName)
	}
	current, _ := store.CurrentStatus(ctx, env.db, item.ID)
	if current.Note != "Returned to owner" {
		t.Errorf("expected default note, got %q", current.Note)
	}
}

func TestReturnMissingFieldsLeavesItemUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	_, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe",
	}, env.staff)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr["email"] != "Email is required when returning item." {
		t.Errorf("unexpected email message: %q", verr["email"])
	}

	got, _ := store.GetItem(ctx, env.db, item.ID)
	if got.ReturnedToID != nil {
		t.Error("expected returned_to unchanged by rejected return")
	}
	if countStatusEvents(t, env.db, item.ID) != 1 {
		t.Error("expected no event appended for rejected return")
	}
}

func TestValuableReturnNotifiesStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.checkIn(t, CheckInRequest{Description: "Gold watch", IsValuable: true})
	env.dispatcher.sent = nil

	_, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.staff)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	if len(env.dispatcher.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(env.dispatcher.sent))
	}
	sent := env.dispatcher.sent[0]
	if sent.template != "staff-valuable-checkout" {
		t.Errorf("expected valuable checkout template, got %q", sent.template)
	}
	if sent.fields["returned_to"] != "Doe, Jamie" {
		t.Errorf("expected returned_to field, got %q", sent.fields["returned_to"])
	}
	if sent.fields["returned_by"] != "Staff, Sam" {
		t.Errorf("expected returned_by field, got %q", sent.fields["returned_by"])
	}
}

func TestNonValuableReturnDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	item := env.checkIn(t, CheckInRequest{Description: "Umbrella"})
	env.dispatcher.sent = nil

	env.engine.ApplyAction(context.Background(), item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.staff)

	if len(env.dispatcher.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(env.dispatcher.sent))
	}
}

func TestRecheckinClearsReturnedTo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.checkIn(t, CheckInRequest{Description: "Wallet"})

	env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.staff)

	updated, err := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action: model.ActionCheckedIn,
	}, env.staff)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	if updated.ReturnedToID != nil || updated.ReturnedToName != "" {
		t.Error("expected returned_to cleared by re-check-in")
	}
	if updated.CurrentAction != model.ActionCheckedIn {
		t.Errorf("expected current action CHECKED_IN, got %q", updated.CurrentAction)
	}
	if countStatusEvents(t, env.db, item.ID) != 3 {
		t.Errorf("expected full history retained, got %d events", countStatusEvents(t, env.db, item.ID))
	}
}

func TestReturnReusesExistingPerson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.checkIn(t, CheckInRequest{
		Description:    "Wallet",
		OwnerFirstName: "Jamie", OwnerLastName: "Doe", OwnerEmail: "jamie@example.edu",
	})
	persons := countPersons(t, env.db)

	updated, _ := env.engine.ApplyAction(ctx, item.ID, ActionRequest{
		Action:    model.ActionReturned,
		FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu",
	}, env.staff)

	if countPersons(t, env.db) != persons {
		t.Error("expected the existing person reused, not a new placeholder")
	}
	if updated.ReturnedToID == nil || updated.PossibleOwnerID == nil ||
		*updated.ReturnedToID != *updated.PossibleOwnerID {
		t.Error("expected return recipient to resolve to the possible owner")
	}
}
