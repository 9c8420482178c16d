package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository"
	"toolshed-backend/internal/utils"
)

type rentalService struct {
	store    repository.Store
	notifier notification.Notifier
	calendar utils.Calendar
	policy   utils.MaintenancePolicy
	now      func() time.Time
}

type RentalOption func(*rentalService)

func WithCalendar(c utils.Calendar) RentalOption {
	return func(s *rentalService) { s.calendar = c }
}

func WithMaintenancePolicy(p utils.MaintenancePolicy) RentalOption {
	return func(s *rentalService) { s.policy = p }
}

// WithClock replaces time.Now, which decides "today" for membership,
// maintenance and default return dates.
func WithClock(now func() time.Time) RentalOption {
	return func(s *rentalService) { s.now = now }
}

func NewRentalService(store repository.Store, notifier notification.Notifier, opts ...RentalOption) RentalService {
	s := &rentalService{
		store:    store,
		notifier: notifier,
		calendar: utils.DefaultCalendar(),
		policy:   utils.DefaultMaintenancePolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notification.LogNotifier{}
	}
	return s
}

func (s *rentalService) today() time.Time {
	return domain.DateOnly(s.now())
}

func (s *rentalService) CreateRental(ctx context.Context, actor domain.Actor, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "toolID", in.ToolID, "memberID", in.MemberID, "actor", actor.UserID)

	if !actor.CanActFor(in.MemberID) {
		return nil, fmt.Errorf("%w: members can only request rentals for themselves", domain.ErrForbidden)
	}
	if in.PriceOverride != nil {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: only administrators can set the price", domain.ErrForbidden)
		}
		if in.PriceOverride.IsNegative() {
			return nil, fmt.Errorf("%w: price override must not be negative", domain.ErrValidation)
		}
	}
	if err := s.validateInterval(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	event := domain.RentalEventRequest
	if actor.IsAdmin() {
		event = domain.RentalEventAdminCreate
	}
	status, err := domain.NextRentalStatus(domain.RentalStatusNone, event)
	if err != nil {
		return nil, err
	}

	today := s.today()
	var (
		rental *domain.Rental
		tool   *domain.Tool
		member *domain.Member
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		tool, err = tx.Tools().LockByID(ctx, in.ToolID)
		if err != nil {
			return err
		}
		if err := s.checkBookable(tool, today); err != nil {
			return err
		}

		member, err = tx.Members().GetByID(ctx, in.MemberID)
		if err != nil {
			return err
		}
		if !member.MembershipActive(today) {
			return fmt.Errorf("%w: membership of %s ended on %s", domain.ErrMembershipExpired,
				member.Name, member.MembershipExpiresOn.Format(domain.DateLayout))
		}

		existing, err := tx.Rentals().ListNonTerminalByTool(ctx, tool.ID)
		if err != nil {
			return err
		}
		if err := checkConflict(tool, in.StartDate, in.EndDate, existing); err != nil {
			return err
		}

		rental = &domain.Rental{
			ToolID:     tool.ID,
			MemberID:   member.ID,
			StartDate:  domain.DateOnly(in.StartDate),
			EndDate:    domain.DateOnly(in.EndDate),
			Status:     status,
			TotalPrice: utils.ComputePrice(tool.WeeklyRate, in.StartDate, in.EndDate, in.PriceOverride),
			CreatedBy:  actor.UserID,
		}
		if err := tx.Rentals().Create(ctx, rental); err != nil {
			return err
		}
		if rental.Status == domain.RentalStatusActive {
			if err := tx.Tools().UpdateStatus(ctx, tool.ID, domain.ToolStatusRented); err != nil {
				return err
			}
			tool.Status = domain.ToolStatusRented
		}

		charge := &domain.LedgerTransaction{
			MemberID:    member.ID,
			RentalID:    &rental.ID,
			Amount:      rental.TotalPrice,
			Type:        domain.TransactionTypeRentalCharge,
			Status:      domain.TransactionStatusPending,
			Description: fmt.Sprintf("Rental of %s (%s)", tool.Name, rental.Period()),
		}
		if err := bookTransaction(ctx, tx, charge); err != nil {
			return err
		}
		return writeHistory(ctx, tx, rental.ID, actor.UserID, event.HistoryAction(), "")
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "toolID", in.ToolID)
		return nil, err
	}

	kind := domain.NotificationRentalRequested
	if rental.Status == domain.RentalStatusActive {
		kind = domain.NotificationRentalCreated
	}
	s.notify(ctx, notification.RentalNotification(kind, rental, tool, member, ""))

	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID, "status", rental.Status)
	return rental, nil
}

func (s *rentalService) validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", domain.ErrValidation)
	}
	anchor := s.calendar.Anchor
	if !s.calendar.IsAllowedAnchor(start) {
		return fmt.Errorf("%w: start date %s is not a %s", domain.ErrValidation, start.Format(domain.DateLayout), anchor)
	}
	if !s.calendar.IsAllowedAnchor(end) {
		return fmt.Errorf("%w: end date %s is not a %s", domain.ErrValidation, end.Format(domain.DateLayout), anchor)
	}
	if !s.calendar.IsValidInterval(start, end) {
		return fmt.Errorf("%w: end date %s must be after start date %s", domain.ErrValidation,
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}
	return nil
}

func (s *rentalService) checkBookable(tool *domain.Tool, today time.Time) error {
	if tool.DeletedOn != nil {
		return fmt.Errorf("%w: tool %d", domain.ErrNotFound, tool.ID)
	}
	if !tool.Status.Bookable() {
		return fmt.Errorf("%w: %s is %s", domain.ErrBlocked, tool.Name, tool.Status)
	}
	if s.policy.IsToolBlocked(tool, today) {
		last := "never"
		if tool.LastMaintenanceDate != nil {
			last = tool.LastMaintenanceDate.Format(domain.DateLayout)
		}
		return fmt.Errorf("%w: %s is overdue for maintenance (every %d months, last serviced %s)",
			domain.ErrBlocked, tool.Name, *tool.MaintenanceIntervalMonths, last)
	}
	return nil
}

func checkConflict(tool *domain.Tool, start, end time.Time, existing []domain.Rental) error {
	intervals := make([]utils.Interval, len(existing))
	for i, rt := range existing {
		intervals[i] = utils.Interval{Start: rt.StartDate, End: rt.EndDate}
	}
	if iv, found := utils.FindConflict(domain.DateOnly(start), domain.DateOnly(end), intervals); found {
		return fmt.Errorf("%w: %s is already booked from %s to %s", domain.ErrConflict, tool.Name,
			iv.Start.Format(domain.DateLayout), iv.End.Format(domain.DateLayout))
	}
	return nil
}

func (s *rentalService) ApproveRental(ctx context.Context, actor domain.Actor, rentalID int32) (*domain.Rental, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can approve rentals", domain.ErrForbidden)
	}
	return s.transition(ctx, actor, rentalID, domain.RentalEventApprove, "", func(ctx context.Context, tx repository.Store, c *transitionContext) error {
		c.tool.Status = domain.ToolStatusRented
		return tx.Tools().UpdateStatus(ctx, c.tool.ID, domain.ToolStatusRented)
	})
}

// RejectRental reverses the provisional charge. The tool keeps its status
// since a pending rental never marks it.
func (s *rentalService) RejectRental(ctx context.Context, actor domain.Actor, rentalID int32, comment string) (*domain.Rental, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can reject rentals", domain.ErrForbidden)
	}
	return s.transition(ctx, actor, rentalID, domain.RentalEventReject, comment, func(ctx context.Context, tx repository.Store, c *transitionContext) error {
		return reverseRentalCharge(ctx, tx, c.rental.ID)
	})
}

func (s *rentalService) ReturnRental(ctx context.Context, actor domain.Actor, rentalID int32, actualReturnDate *time.Time, comment string) (*domain.Rental, error) {
	returned := s.today()
	if actualReturnDate != nil {
		returned = domain.DateOnly(*actualReturnDate)
	}
	return s.transition(ctx, actor, rentalID, domain.RentalEventReturn, comment, func(ctx context.Context, tx repository.Store, c *transitionContext) error {
		if returned.Before(c.rental.StartDate) {
			return fmt.Errorf("%w: return date %s is before the rental start %s", domain.ErrValidation,
				returned.Format(domain.DateLayout), c.rental.StartDate.Format(domain.DateLayout))
		}
		c.rental.ActualReturnDate = &returned
		c.rental.ReturnComment = comment

		if err := tx.Tools().UpdateStatus(ctx, c.tool.ID, domain.ToolStatusAvailable); err != nil {
			return err
		}
		c.tool.Status = domain.ToolStatusAvailable

		charge, err := tx.Ledger().GetChargeByRentalID(ctx, c.rental.ID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.WarnContext(ctx, "returned rental has no charge", "rental_id", c.rental.ID)
			return nil
		}
		if err != nil {
			return err
		}
		charge.ToolReturned = true
		return tx.Ledger().Update(ctx, charge)
	})
}

type transitionContext struct {
	rental *domain.Rental
	tool   *domain.Tool
	member *domain.Member
}

// transition applies one table driven status change. The caller's apply
// func adds the side effects; the rental update and audit record are common.
func (s *rentalService) transition(ctx context.Context, actor domain.Actor, rentalID int32, event domain.RentalEvent, comment string,
	apply func(ctx context.Context, tx repository.Store, c *transitionContext) error) (*domain.Rental, error) {
	method := "rentalService." + string(event)
	logger.EnterMethod(method, "rentalID", rentalID, "actor", actor.UserID)

	c := &transitionContext{}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.load(ctx, tx, rentalID, c); err != nil {
			return err
		}
		if !actor.CanActFor(c.rental.MemberID) {
			return fmt.Errorf("%w: rental %d belongs to another member", domain.ErrForbidden, rentalID)
		}

		from := c.rental.Status
		next, err := domain.NextRentalStatus(from, event)
		if err != nil {
			return err
		}
		c.rental.Status = next

		if err := apply(ctx, tx, c); err != nil {
			return err
		}
		if err := tx.Rentals().Update(ctx, c.rental, from); err != nil {
			return err
		}
		return writeHistory(ctx, tx, c.rental.ID, actor.UserID, event.HistoryAction(), comment)
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return nil, err
	}

	s.notify(ctx, notification.RentalNotification(notificationFor(event), c.rental, c.tool, c.member, comment))
	logger.ExitMethod(method, "rentalID", rentalID, "status", c.rental.Status)
	return c.rental, nil
}

// load takes the tool lock first, as CreateRental does, and reads the rental
// again under it. The unlocked read only locates the tool.
func (s *rentalService) load(ctx context.Context, tx repository.Store, rentalID int32, c *transitionContext) error {
	unlocked, err := tx.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return err
	}
	tool, err := tx.Tools().LockByID(ctx, unlocked.ToolID)
	if err != nil {
		return err
	}
	rental, err := tx.Rentals().LockByID(ctx, rentalID)
	if err != nil {
		return err
	}
	member, err := tx.Members().GetByID(ctx, rental.MemberID)
	if err != nil {
		return err
	}
	c.rental, c.tool, c.member = rental, tool, member
	return nil
}

func notificationFor(event domain.RentalEvent) domain.NotificationType {
	switch event {
	case domain.RentalEventApprove:
		return domain.NotificationRentalApproved
	case domain.RentalEventReject:
		return domain.NotificationRentalRejected
	case domain.RentalEventReturn:
		return domain.NotificationRentalReturned
	}
	return domain.NotificationRentalCreated
}

// DeleteRental retracts a rental in any status: the charge is reversed if it
// is still booked, the tool is released and the audit trail goes with it.
func (s *rentalService) DeleteRental(ctx context.Context, actor domain.Actor, rentalID int32) error {
	logger.EnterMethod("rentalService.DeleteRental", "rentalID", rentalID, "actor", actor.UserID)
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can delete rentals", domain.ErrForbidden)
	}

	c := &transitionContext{}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.load(ctx, tx, rentalID, c); err != nil {
			return err
		}
		if err := reverseRentalCharge(ctx, tx, rentalID); err != nil {
			return err
		}
		if err := tx.Tools().UpdateStatus(ctx, c.tool.ID, domain.ToolStatusAvailable); err != nil {
			return err
		}
		if err := tx.History().DeleteByRental(ctx, rentalID); err != nil {
			return err
		}
		return tx.Rentals().Delete(ctx, rentalID)
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.DeleteRental", err, "rentalID", rentalID)
		return err
	}

	s.notify(ctx, notification.RentalNotification(domain.NotificationRentalDeleted, c.rental, c.tool, c.member, ""))
	logger.ExitMethod("rentalService.DeleteRental", "rentalID", rentalID)
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, actor domain.Actor, rentalID int32) (*domain.Rental, error) {
	rental, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(rental.MemberID) {
		return nil, fmt.Errorf("%w: rental %d belongs to another member", domain.ErrForbidden, rentalID)
	}
	return rental, nil
}

func (s *rentalService) ListRentals(ctx context.Context, actor domain.Actor, filter domain.RentalFilter) ([]domain.Rental, int32, error) {
	if !actor.IsAdmin() {
		if filter.MemberID != 0 && filter.MemberID != actor.UserID {
			return nil, 0, fmt.Errorf("%w: members can only list their own rentals", domain.ErrForbidden)
		}
		filter.MemberID = actor.UserID
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown rental status %q", domain.ErrValidation, st)
		}
	}
	filter.Normalize()
	return s.store.Rentals().List(ctx, filter)
}

func (s *rentalService) GetRentalHistory(ctx context.Context, actor domain.Actor, rentalID int32) ([]domain.RentalHistory, error) {
	if _, err := s.GetRental(ctx, actor, rentalID); err != nil {
		return nil, err
	}
	return s.store.History().ListByRental(ctx, rentalID)
}

// notify runs after commit. Delivery failures are logged, never returned.
func (s *rentalService) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.WarnContext(ctx, "notification failed", "type", n.Type, "member_id", n.MemberID, "error", err)
	}
}

func writeHistory(ctx context.Context, tx repository.Store, rentalID, actorID int32, action domain.HistoryAction, comment string) error {
	return tx.History().Create(ctx, &domain.RentalHistory{
		RentalID: rentalID,
		ActorID:  actorID,
		Action:   action,
		Comment:  comment,
	})
}
