package domain

import "time"

type HistoryAction string

const (
	HistoryActionCreated  HistoryAction = "CREATED"
	HistoryActionApproved HistoryAction = "APPROVED"
	HistoryActionRejected HistoryAction = "REJECTED"
	HistoryActionReturned HistoryAction = "RETURNED"
)

// RentalHistory is one immutable audit record of a rental transition.
type RentalHistory struct {
	ID        int32         `json:"id"`
	RentalID  int32         `json:"rental_id"`
	ActorID   int32         `json:"actor_id"`
	Action    HistoryAction `json:"action"`
	Comment   string        `json:"comment,omitempty"`
	CreatedOn time.Time     `json:"created_on"`
}
