package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Member struct {
	ID                  int32           `json:"id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	MembershipExpiresOn time.Time       `json:"membership_expires_on"`
	Debt                decimal.Decimal `json:"debt"`
	CreatedOn           time.Time       `json:"created_on"`
}

// MembershipActive reports whether the membership still covers the given day.
// The expiry date itself is the last valid day.
func (m *Member) MembershipActive(today time.Time) bool {
	return !DateOnly(today).After(DateOnly(m.MembershipExpiresOn))
}
