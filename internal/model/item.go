package model

import "time"

// Status is the lifecycle status of a found item.
type Status string

// Lifecycle statuses.
const (
	StatusLost          Status = "lost"
	StatusToBeDiscarded Status = "to_be_discarded"
	StatusDiscarded     Status = "discarded"
	StatusGiven         Status = "given"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusLost, StatusToBeDiscarded, StatusDiscarded, StatusGiven:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions exist from s.
func (s Status) Terminal() bool {
	return s == StatusDiscarded || s == StatusGiven
}

// ApprovalStatus records whether an administrator accepted the report.
type ApprovalStatus string

// Approval statuses.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether a is a known approval status.
func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Category is the closed set of item kinds.
type Category string

// Item categories.
const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBag         Category = "bag"
	CategoryWallet      Category = "wallet"
	CategoryBook        Category = "book"
	CategoryStationery  Category = "stationery"
	CategoryAccessory   Category = "accessory"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryBag,
	CategoryWallet,
	CategoryBook,
	CategoryStationery,
	CategoryAccessory,
	CategorySports,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Item is one found physical object.
type Item struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       Category       `json:"category"`
	FoundAt        time.Time      `json:"found_at"`
	PlaceID        int64          `json:"place_id"`
	PlaceDetail    string         `json:"place_detail,omitempty"`
	ImageMime      string         `json:"image_mime,omitempty"`
	Status         Status         `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	DiscardAt      *time.Time     `json:"discard_at,omitempty"`
	ReportedBy     int64          `json:"reported_by"`
	ApproverID     *int64         `json:"approver_id,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	HolderID       *int64         `json:"holder_id,omitempty"`
	PossessorID    *int64         `json:"possessor_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Joined fields (not always populated).
	PlaceName string `json:"place_name,omitempty"`
}

// NewItem holds the reporter-supplied fields of a registration.
type NewItem struct {
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	FoundAt     time.Time `json:"found_at"`
	PlaceID     int64     `json:"place_id"`
	PlaceDetail string    `json:"place_detail"`
}
