package service

import (
	"context"
	"sort"
	"time"

	"keyrental-backend/internal/audit"
	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/repository"
)

// PlanReconciliation returns the active rentals that break the one-per-scope
// rule. For each student and scope the lowest transaction id is kept and
// every other one is returned, ordered by id.
func PlanReconciliation(active []domain.ActiveRental) []domain.ActiveRental {
	type key struct {
		studentID string
		scope     domain.Scope
	}
	keep := make(map[key]int64)
	for _, a := range active {
		k := key{a.StudentID, a.Kind.Scope()}
		if id, ok := keep[k]; !ok || a.ID < id {
			keep[k] = a.ID
		}
	}

	var surplus []domain.ActiveRental
	for _, a := range active {
		if keep[key{a.StudentID, a.Kind.Scope()}] != a.ID {
			surplus = append(surplus, a)
		}
	}
	sort.Slice(surplus, func(i, j int) bool { return surplus[i].ID < surplus[j].ID })
	return surplus
}

type reconciliationService struct {
	transactor repository.Transactor
	publisher  audit.Publisher
	now        func() time.Time
}

func NewReconciliationService(transactor repository.Transactor, publisher audit.Publisher) ReconciliationService {
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	return &reconciliationService{transactor: transactor, publisher: publisher, now: time.Now}
}

// Reconcile closes duplicate active rentals left by earlier versions of the
// ledger and reports what it closed.
func (s *reconciliationService) Reconcile(ctx context.Context) ([]domain.ActiveRental, error) {
	methodName := "reconciliationService.Reconcile"
	logger.EnterMethod(methodName)

	now := s.now().UTC()
	var closed []domain.ActiveRental
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		closed = nil
		active, err := uow.Ledger().ListAllActive(ctx)
		if err != nil {
			return err
		}
		for _, r := range PlanReconciliation(active) {
			if _, err := uow.Ledger().CloseActiveItems(ctx, r.ID, now); err != nil {
				return err
			}
			if _, err := uow.Ledger().CloseTransaction(ctx, r.ID, now); err != nil {
				return err
			}
			closed = append(closed, r)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(methodName, err)
		return nil, err
	}

	for _, r := range closed {
		logger.WarnContext(ctx, "Closed duplicate active rental", "transactionID", r.ID, "studentID", r.StudentID, "kind", r.Kind)
		if err := s.publisher.Publish(ctx, audit.Event{
			Type:          audit.EventReconciled,
			TransactionID: r.ID,
			StudentID:     r.StudentID,
			RentalKind:    string(r.Kind),
			OccurredAt:    now,
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish audit event", "type", audit.EventReconciled, "transactionID", r.ID, "error", err)
		}
	}
	logger.ExitMethod(methodName, "closed", len(closed))
	return closed, nil
}
