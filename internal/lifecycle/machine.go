package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erazemk/izgubljeno/internal/model"
)

// Event names a status transition.
type Event string

// Status transition events.
const (
	EventMarkToBeDiscarded Event = "mark_to_be_discarded"
	EventDiscard           Event = "discard"
	EventExtend            Event = "extend_disposal"
	EventGive              Event = "give"
)

type transition struct {
	from []model.Status
	to   model.Status
}

var transitions = map[Event]transition{
	EventMarkToBeDiscarded: {from: []model.Status{model.StatusLost}, to: model.StatusToBeDiscarded},
	EventDiscard:           {from: []model.Status{model.StatusToBeDiscarded}, to: model.StatusDiscarded},
	EventExtend:            {from: []model.Status{model.StatusToBeDiscarded}, to: model.StatusToBeDiscarded},
	EventGive:              {from: []model.Status{model.StatusLost, model.StatusToBeDiscarded}, to: model.StatusGiven},
}

// Can reports whether event is legal for an item in status s.
func Can(s model.Status, event Event) bool {
	t, ok := transitions[event]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if s == from {
			return true
		}
	}
	return false
}

func apply(item *model.Item, event Event) error {
	if !Can(item.Status, event) {
		if event == EventGive && item.Status == model.StatusGiven {
			return Conflictf("item has already been given")
		}
		return Conflictf("cannot %s: item is %s", strings.ReplaceAll(string(event), "_", " "), item.Status)
	}
	item.Status = transitions[event].to
	return nil
}

// Item field limits.
const (
	MaxNameLength        = 100
	MaxPlaceDetailLength = 255
)

// ValidateNewItem checks a registration before the item is created.
func ValidateNewItem(n model.NewItem, now time.Time) error {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return Validationf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return Validationf("name must be at most %d characters", MaxNameLength)
	}
	if n.Category == "" {
		return Validationf("category is required")
	}
	if !n.Category.Valid() {
		return Validationf("unknown category %q", n.Category)
	}
	if n.PlaceID <= 0 {
		return Validationf("place is required")
	}
	if utf8.RuneCountInString(n.PlaceDetail) > MaxPlaceDetailLength {
		return Validationf("place detail must be at most %d characters", MaxPlaceDetailLength)
	}
	if n.FoundAt.IsZero() {
		return Validationf("found_at is required")
	}
	if n.FoundAt.After(now) {
		return Validationf("found_at must not be in the future")
	}
	return nil
}

// Approve records an administrator's decision on a pending item.
// Lifecycle status is not affected.
func Approve(item *model.Item, decision model.ApprovalStatus, approverID int64, now time.Time) error {
	if decision != model.ApprovalApproved && decision != model.ApprovalRejected {
		return Validationf("decision must be %q or %q", model.ApprovalApproved, model.ApprovalRejected)
	}
	if item.ApprovalStatus != model.ApprovalPending {
		return Conflictf("item approval has already been processed")
	}

	item.ApprovalStatus = decision
	item.ApproverID = &approverID
	item.ApprovedAt = &now
	if decision == model.ApprovalApproved {
		item.HolderID = &approverID
	}
	return nil
}

// Give hands the item over to receiverID and drops any discard deadline.
func Give(item *model.Item, receiverID int64) error {
	if err := apply(item, EventGive); err != nil {
		return err
	}
	item.PossessorID = &receiverID
	item.DiscardAt = nil
	return nil
}

// ExtendDisposal pushes the discard deadline forward by days. The extension
// is added to the current deadline, not to the current time.
func ExtendDisposal(item *model.Item, days int) error {
	if days < model.MinExtensionDays || days > model.MaxExtensionDays {
		return Validationf("extension must be between %d and %d days", model.MinExtensionDays, model.MaxExtensionDays)
	}
	if !Can(item.Status, EventExtend) {
		return apply(item, EventExtend)
	}
	if item.DiscardAt == nil {
		return Conflictf("item has no discard deadline")
	}

	deadline := item.DiscardAt.AddDate(0, 0, days)
	item.DiscardAt = &deadline
	return nil
}

// MarkToBeDiscarded moves a lost item into the disposal queue and sets its
// deadline from the found date.
func MarkToBeDiscarded(item *model.Item, r Retention) error {
	if err := apply(item, EventMarkToBeDiscarded); err != nil {
		return err
	}
	deadline := r.Deadline(item.FoundAt)
	item.DiscardAt = &deadline
	return nil
}

// Discard marks a to-be-discarded item as discarded. The deadline is kept
// as a record of when disposal became due.
func Discard(item *model.Item) error {
	return apply(item, EventDiscard)
}

// PendingDeadline returns the discard deadline if the item is waiting for
// disposal, or nil otherwise.
func PendingDeadline(item *model.Item) *time.Time {
	if item.Status != model.StatusToBeDiscarded {
		return nil
	}
	return item.DiscardAt
}
