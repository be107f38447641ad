// Package workflow validates and applies item status transitions. It is a
// state machine keyed by action: any action may follow any prior status, with
// per-action required fields, a staff-only gate, and transactional side
// effects on the item and the status ledger.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/notify"
	"github.com/oit-labs/lostfound/internal/store"
)

// Engine applies status transitions. One engine serves all requests; every
// apply runs in its own transaction, so concurrent calls against the same
// item serialize at the database and last-committer-wins on the item's
// mutable fields.
type Engine struct {
	DB       *sql.DB
	Notifier notify.Dispatcher

	// Staff mailing addresses for valuable-item notifications.
	CheckinNotifyTo  []string
	CheckoutNotifyTo []string
}

// CheckInRequest carries the fields of an item-creating check-in. The owner
// triple is optional; when any part is present, all three are required and
// the resolved person becomes the item's possible owner.
type CheckInRequest struct {
	LocationID     int64
	CategoryID     int64
	Description    string
	IsValuable     bool
	OwnerFirstName string
	OwnerLastName  string
	OwnerEmail     string
}

func (r *CheckInRequest) hasOwner() bool {
	return r.OwnerFirstName != "" || r.OwnerLastName != "" || r.OwnerEmail != ""
}

// ActionRequest carries the fields of a transition on an existing item.
// The person triple is only consulted for RETURNED.
type ActionRequest struct {
	Action    string
	Note      string
	FirstName string
	LastName  string
	Email     string
}

// CheckIn creates an item and appends its initial CHECKED_IN event in one
// transaction. After commit it dispatches, best-effort and independently, the
// category-specific owner notification (when an owner was resolved) and the
// staff valuable-check-in notification (when the persisted valuable flag is
// set).
func (e *Engine) CheckIn(ctx context.Context, req CheckInRequest, actor *model.Person) (*model.Item, error) {
	if errs := validateCheckIn(&req); errs != nil {
		return nil, errs
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	location, err := store.GetLocation(ctx, tx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, &NotFoundError{Resource: "location"}
	}
	category, err := store.GetCategory(ctx, tx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, &NotFoundError{Resource: "category"}
	}

	var owner *model.Person
	var ownerID *int64
	if req.hasOwner() {
		owner, err = store.ResolveOrCreatePerson(ctx, tx, req.OwnerFirstName, req.OwnerLastName, req.OwnerEmail)
		if err != nil {
			if errors.Is(err, store.ErrUsernameConflict) {
				return nil, &ConflictError{Err: err}
			}
			return nil, err
		}
		ownerID = &owner.ID
	}

	item, err := store.CreateItem(ctx, tx, req.LocationID, req.CategoryID, req.Description, req.IsValuable, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := store.AppendStatus(ctx, tx, item.ID, model.ActionCheckedIn, performerID(actor), "Initial check-in"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing check-in: %w", err)
	}

	created, err := store.GetItem(ctx, e.DB, item.ID)
	if err != nil {
		return nil, err
	}

	if owner != nil && owner.Email != "" {
		fields := e.itemFields(created)
		e.dispatch(ctx, ownerFoundTemplate(created.CategoryTag), []string{owner.Email}, fields)
	}
	if created.IsValuable {
		fields := e.itemFields(created)
		if first, err := store.FirstStatus(ctx, e.DB, created.ID); err == nil && first != nil {
			fields["found_by"] = first.PerformedByName
		}
		e.dispatch(ctx, notify.TemplateStaffValuableCheckin, e.CheckinNotifyTo, fields)
	}

	return created, nil
}

// ApplyAction applies a transition to an existing item. The permission gate
// runs first (non-staff actors may only return items), then the per-action
// field validation, then the transactional apply: person resolution, ledger
// append, and item mutation commit atomically. The valuable-checkout
// notification fires after commit when the persisted item is valuable.
func (e *Engine) ApplyAction(ctx context.Context, itemID int64, req ActionRequest, actor *model.Person) (*model.Item, error) {
	if actor == nil || (!actor.IsStaff && req.Action != model.ActionReturned) {
		return nil, &PermissionError{Reason: "only staff may perform this action"}
	}

	if errs := validateAction(&req); errs != nil {
		return nil, errs
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Resource: "item"}
	}

	note := req.Note
	switch req.Action {
	case model.ActionReturned:
		recipient, err := store.ResolveOrCreatePerson(ctx, tx, req.FirstName, req.LastName, req.Email)
		if err != nil {
			if errors.Is(err, store.ErrUsernameConflict) {
				return nil, &ConflictError{Err: err}
			}
			return nil, err
		}
		if err := store.SetItemReturnedTo(ctx, tx, item.ID, &recipient.ID); err != nil {
			return nil, err
		}
		if note == "" {
			note = "Returned to owner"
		}
	case model.ActionCheckedIn:
		// Re-checking in reverts a return.
		if err := store.SetItemReturnedTo(ctx, tx, item.ID, nil); err != nil {
			return nil, err
		}
	}

	if _, err := store.AppendStatus(ctx, tx, item.ID, req.Action, performerID(actor), note); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing action: %w", err)
	}

	updated, err := store.GetItem(ctx, e.DB, itemID)
	if err != nil {
		return nil, err
	}

	// Policy: the persisted flag read back after commit decides, not the
	// submitted form value.
	if req.Action == model.ActionReturned && updated.IsValuable {
		fields := e.itemFields(updated)
		fields["returned_to"] = updated.ReturnedToName
		if current, err := store.CurrentStatus(ctx, e.DB, updated.ID); err == nil && current != nil {
			fields["returned_by"] = current.PerformedByName
		}
		e.dispatch(ctx, notify.TemplateStaffValuableCheckout, e.CheckoutNotifyTo, fields)
	}

	return updated, nil
}

// dispatch invokes the notifier, logging and swallowing failures: the
// transition that triggered the notification has already committed.
func (e *Engine) dispatch(ctx context.Context, templateKey string, recipients []string, fields map[string]string) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, templateKey, recipients, fields); err != nil {
		slog.WarnContext(ctx, "notification dispatch failed",
			"template", templateKey, "error", err)
	}
}

// itemFields builds the template context shared by all notifications.
func (e *Engine) itemFields(item *model.Item) map[string]string {
	fields := map[string]string{
		"found_in":            item.LocationName,
		"category":            item.CategoryName,
		"description":         item.Description,
		"possible_owner_name": item.PossibleOwnerName,
	}
	if !item.FoundOn.IsZero() {
		fields["found_on"] = item.FoundOn.Format(time.RFC3339)
	}
	return fields
}

// ownerFoundTemplate picks the category-specific owner notification.
func ownerFoundTemplate(categoryTag string) string {
	switch categoryTag {
	case model.CategoryUSB:
		return notify.TemplateOwnerFoundUSB
	case model.CategoryID:
		return notify.TemplateOwnerFoundID
	default:
		return notify.TemplateOwnerFoundGeneric
	}
}

func performerID(actor *model.Person) *int64 {
	if actor == nil {
		return nil
	}
	return &actor.ID
}
