package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/repository"
	"toolshed-backend/internal/repository/memory"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

var (
	adminActor = domain.Actor{UserID: 1, Role: domain.UserRoleAdmin}
	// today is a Tuesday; the first bookable Friday is w0.
	today = time.Date(2024, time.February, 20, 9, 30, 0, 0, time.UTC)
	w0    = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
)

func week(n int) time.Time {
	return w0.AddDate(0, 0, 7*n)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	notifier    *MockNotifier
	svc         RentalService
	ledger      LedgerService
	tool        *domain.Tool
	member      *domain.Member
	memberActor domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.NewStore(), notifier: new(MockNotifier)}
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewRentalService(f.store, f.notifier, WithClock(func() time.Time { return today }))
	f.ledger = NewLedgerService(f.store)

	f.tool = f.addTool(t, "Table saw", "15.00")
	f.member = f.addMember(t, "Ada", "ada@example.com", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	f.memberActor = domain.Actor{UserID: f.member.ID, Role: domain.UserRoleMember}
	return f
}

func (f *fixture) addTool(t *testing.T, name, rate string) *domain.Tool {
	t.Helper()
	tool := &domain.Tool{Name: name, Status: domain.ToolStatusAvailable, WeeklyRate: dec(rate), MaintenanceImportance: domain.MaintenanceImportanceLow}
	require.NoError(t, f.store.Tools().Create(f.ctx, tool))
	return tool
}

func (f *fixture) addMember(t *testing.T, name, email string, expires time.Time) *domain.Member {
	t.Helper()
	m := &domain.Member{Name: name, Email: email, MembershipExpiresOn: expires}
	require.NoError(t, f.store.Members().Create(f.ctx, m))
	return m
}

func (f *fixture) create(actor domain.Actor, toolID, memberID int32, start, end time.Time) (*domain.Rental, error) {
	return f.svc.CreateRental(f.ctx, actor, CreateRentalInput{ToolID: toolID, MemberID: memberID, StartDate: start, EndDate: end})
}

func (f *fixture) debt(t *testing.T, memberID int32) decimal.Decimal {
	t.Helper()
	m, err := f.store.Members().GetByID(f.ctx, memberID)
	require.NoError(t, err)
	return m.Debt
}

// ledgerSum adds up every entry of the member. Debt must always equal it.
func (f *fixture) ledgerSum(t *testing.T, memberID int32) decimal.Decimal {
	t.Helper()
	txs, _, err := f.store.Ledger().ListByMember(f.ctx, memberID, 1, 1000)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

func (f *fixture) toolStatus(t *testing.T, id int32) domain.ToolStatus {
	t.Helper()
	tool, err := f.store.Tools().GetByID(f.ctx, id)
	require.NoError(t, err)
	return tool.Status
}

// failingStore makes one repository call fail inside every transaction.
type failingStore struct {
	repository.Store
	err error
}

func (s *failingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&failingStore{Store: tx, err: s.err})
	})
}

func (s *failingStore) Ledger() repository.LedgerRepository {
	return &failingLedger{LedgerRepository: s.Store.Ledger(), err: s.err}
}

type failingLedger struct {
	repository.LedgerRepository
	err error
}

func (l *failingLedger) Create(context.Context, *domain.LedgerTransaction) error {
	return l.err
}
