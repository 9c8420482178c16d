package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRentalStatus(t *testing.T) {
	allowed := []struct {
		from  RentalStatus
		event RentalEvent
		want  RentalStatus
	}{
		{RentalStatusNone, RentalEventRequest, RentalStatusPending},
		{RentalStatusNone, RentalEventAdminCreate, RentalStatusActive},
		{RentalStatusPending, RentalEventApprove, RentalStatusActive},
		{RentalStatusPending, RentalEventReject, RentalStatusRejected},
		{RentalStatusActive, RentalEventReturn, RentalStatusCompleted},
	}
	for _, tt := range allowed {
		got, err := NextRentalStatus(tt.from, tt.event)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	events := []RentalEvent{RentalEventApprove, RentalEventReject, RentalEventReturn}
	for _, from := range []RentalStatus{RentalStatusCompleted, RentalStatusRejected} {
		for _, event := range events {
			_, err := NextRentalStatus(from, event)
			assert.True(t, errors.Is(err, ErrInvalidState), "%s on %s", event, from)
		}
	}

	_, err := NextRentalStatus(RentalStatusActive, RentalEventApprove)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = NextRentalStatus(RentalStatusPending, RentalEventReturn)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = NextRentalStatus(RentalStatusNone, RentalEventApprove)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRentalStatus_Terminal(t *testing.T) {
	assert.True(t, RentalStatusCompleted.Terminal())
	assert.True(t, RentalStatusRejected.Terminal())
	assert.False(t, RentalStatusPending.Terminal())
	assert.False(t, RentalStatusActive.Terminal())
}

func TestMember_MembershipActive(t *testing.T) {
	m := &Member{MembershipExpiresOn: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}
	assert.True(t, m.MembershipActive(time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC)))
	assert.False(t, m.MembershipActive(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "conflict", ErrorCode(errors.Join(errors.New("x"), ErrConflict)))
	assert.Equal(t, "membership_expired", ErrorCode(ErrMembershipExpired))
	assert.Equal(t, "internal", ErrorCode(errors.New("boom")))
}
