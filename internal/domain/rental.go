package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusNone      RentalStatus = ""
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusRejected  RentalStatus = "REJECTED"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusActive, RentalStatusCompleted, RentalStatusRejected:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions and never block a tool.
func (s RentalStatus) Terminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusRejected
}

// NonTerminalRentalStatuses take part in conflict detection.
var NonTerminalRentalStatuses = []RentalStatus{RentalStatusPending, RentalStatusActive}

type RentalEvent string

const (
	RentalEventRequest     RentalEvent = "request"
	RentalEventAdminCreate RentalEvent = "admin_create"
	RentalEventApprove     RentalEvent = "approve"
	RentalEventReject      RentalEvent = "reject"
	RentalEventReturn      RentalEvent = "return"
)

var rentalTransitions = map[RentalStatus]map[RentalEvent]RentalStatus{
	RentalStatusNone: {
		RentalEventRequest:     RentalStatusPending,
		RentalEventAdminCreate: RentalStatusActive,
	},
	RentalStatusPending: {
		RentalEventApprove: RentalStatusActive,
		RentalEventReject:  RentalStatusRejected,
	},
	RentalStatusActive: {
		RentalEventReturn: RentalStatusCompleted,
	},
}

// NextRentalStatus looks up the transition table. Anything not listed is
// rejected with ErrInvalidState.
func NextRentalStatus(from RentalStatus, event RentalEvent) (RentalStatus, error) {
	if next, ok := rentalTransitions[from][event]; ok {
		return next, nil
	}
	if from == RentalStatusNone {
		return "", fmt.Errorf("%w: cannot %s a new rental", ErrInvalidState, event)
	}
	return "", fmt.Errorf("%w: cannot %s a rental that is %s", ErrInvalidState, event, from)
}

// HistoryAction is the audit tag written for a transition event.
func (e RentalEvent) HistoryAction() HistoryAction {
	switch e {
	case RentalEventRequest, RentalEventAdminCreate:
		return HistoryActionCreated
	case RentalEventApprove:
		return HistoryActionApproved
	case RentalEventReject:
		return HistoryActionRejected
	case RentalEventReturn:
		return HistoryActionReturned
	}
	return ""
}

type Rental struct {
	ID               int32           `json:"id"`
	ToolID           int32           `json:"tool_id"`
	MemberID         int32           `json:"member_id"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	Status           RentalStatus    `json:"status"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ActualReturnDate *time.Time      `json:"actual_return_date,omitempty"`
	ReturnComment    string          `json:"return_comment,omitempty"`
	CreatedBy        int32           `json:"created_by"`
	CreatedOn        time.Time       `json:"created_on"`
	UpdatedOn        time.Time       `json:"updated_on"`
}

// Period renders the rental interval for messages.
func (r *Rental) Period() string {
	return fmt.Sprintf("%s to %s", r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout))
}

type RentalFilter struct {
	Statuses []RentalStatus
	MemberID int32
	ToolID   int32
	From     *time.Time // rentals ending after From
	To       *time.Time // rentals starting before To
	Page     int32
	PageSize int32
}

// Normalize fills in paging defaults.
func (f *RentalFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
