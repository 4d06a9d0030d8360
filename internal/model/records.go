package model

import "time"

// ClaimStatus is the status of an ownership claim.
type ClaimStatus string

// Claim statuses.
const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	return s == ClaimPending || s == ClaimApproved || s == ClaimRejected
}

// Claim is one ownership assertion by a claimant against an item.
type Claim struct {
	ID         int64       `json:"id"`
	ItemID     string      `json:"item_id"`
	ClaimantID int64       `json:"claimant_id"`
	Reason     string      `json:"reason"`
	Status     ClaimStatus `json:"status"`
	ClaimedAt  time.Time   `json:"claimed_at"`

	// Joined fields (not always populated).
	ItemName         string `json:"item_name,omitempty"`
	ClaimantUsername string `json:"claimant_username,omitempty"`
}

// DisposalHold is a staff-submitted justification for delaying disposal.
// Holds are never modified after creation.
type DisposalHold struct {
	ID            int64     `json:"id"`
	ItemID        string    `json:"item_id"`
	StaffID       int64     `json:"staff_id"`
	Reason        string    `json:"reason"`
	ExtensionDays int       `json:"extension_days"`
	CreatedAt     time.Time `json:"created_at"`
}

// Disposal hold limits.
const (
	MaxHoldReasonLength = 1000
	MinExtensionDays    = 1
	MaxExtensionDays    = 365
)

// Reward records that a student was recognized for finding an item.
type Reward struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	StudentID int64     `json:"student_id"`
	GrantedBy int64     `json:"granted_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Give records the physical hand-off of an item.
type Give struct {
	ID         int64     `json:"id"`
	ItemID     string    `json:"item_id"`
	GiverID    int64     `json:"giver_id"`
	ReceiverID int64     `json:"receiver_id"`
	GivenAt    time.Time `json:"given_at"`

	// Joined fields (not always populated).
	ItemName         string `json:"item_name,omitempty"`
	GiverUsername    string `json:"giver_username,omitempty"`
	ReceiverUsername string `json:"receiver_username,omitempty"`
}

// MaxClaimReasonLength bounds the free-text claim justification.
const MaxClaimReasonLength = 1000
