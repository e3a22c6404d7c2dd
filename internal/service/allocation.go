package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keyrental-backend/internal/audit"
	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/metrics"
	"keyrental-backend/internal/repository"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

type AllocationSettings struct {
	HistoryDefaultLimit int
	HistoryMaxLimit     int
}

type allocationService struct {
	transactor repository.Transactor
	ledgerRepo repository.LedgerRepository
	publisher  audit.Publisher
	settings   AllocationSettings
	now        func() time.Time
}

func NewAllocationService(
	transactor repository.Transactor,
	ledgerRepo repository.LedgerRepository,
	publisher audit.Publisher,
	settings AllocationSettings,
) AllocationService {
	if settings.HistoryDefaultLimit <= 0 {
		settings.HistoryDefaultLimit = DefaultHistoryLimit
	}
	if settings.HistoryMaxLimit <= 0 {
		settings.HistoryMaxLimit = MaxHistoryLimit
	}
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	return &allocationService{
		transactor: transactor,
		ledgerRepo: ledgerRepo,
		publisher:  publisher,
		settings:   settings,
		now:        time.Now,
	}
}

func (s *allocationService) Checkout(ctx context.Context, req domain.CheckoutRequest) (int64, error) {
	methodName := "allocationService.Checkout"
	logger.EnterMethod(methodName, "studentID", req.StudentID, "orgID", req.OrgID, "storageUnitIDs", req.StorageUnitIDs)

	now := s.now().UTC()
	var rental *domain.RentalTransaction
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		if err := s.evaluate(ctx, uow, req); err != nil {
			return err
		}
		var err error
		rental, err = s.record(ctx, uow.Ledger(), req, now)
		return err
	})
	if err != nil {
		if domain.IsBusinessRule(err) {
			logger.InfoContext(ctx, "Checkout refused", "studentID", req.StudentID, "orgID", req.OrgID, "kind", metrics.KindLabel(req.Allocation), "reason", err)
			logger.ExitMethod(methodName, "refused", true)
		} else {
			logger.ExitMethodWithError(methodName, err)
		}
		return 0, err
	}

	s.publish(ctx, audit.Event{
		Type:          audit.EventCheckedOut,
		TransactionID: rental.ID,
		StudentID:     req.StudentID,
		OrgID:         req.OrgID,
		RentalKind:    string(req.Allocation.Kind()),
		OccurredAt:    now,
	})
	logger.InfoContext(ctx, "Rental checked out", "transactionID", rental.ID, "studentID", req.StudentID, "kind", req.Allocation.Kind())
	logger.ExitMethod(methodName, "transactionID", rental.ID)
	return rental.ID, nil
}

// evaluate runs the checkout rules in order against the unit of work.
func (s *allocationService) evaluate(ctx context.Context, uow repository.UnitOfWork, req domain.CheckoutRequest) error {
	exists, err := uow.Students().Exists(ctx, req.StudentID)
	if err != nil {
		return err
	}
	member := false
	if exists {
		if member, err = uow.Students().IsMember(ctx, req.StudentID, req.OrgID); err != nil {
			return err
		}
	}
	if err := checkStudent(req.StudentID, exists, member, req.OrgID); err != nil {
		return err
	}
	if err := checkStorageCount(req); err != nil {
		return err
	}
	if err := checkRentalType(req.Allocation); err != nil {
		return err
	}

	active, err := uow.Ledger().ListActiveByStudent(ctx, req.StudentID)
	if err != nil {
		return err
	}
	if err := checkScopes(req.Allocation.Kind(), active); err != nil {
		return err
	}

	allocationHeld, err := uow.Ledger().AllocationHeld(ctx, req.Allocation)
	if err != nil {
		return err
	}
	storageUnitID, wantsStorage := req.StorageUnitID()
	storageHeld := false
	if wantsStorage && !allocationHeld {
		if storageHeld, err = uow.Ledger().StorageUnitHeld(ctx, storageUnitID); err != nil {
			return err
		}
	}
	if err := checkAvailability(req.Allocation, allocationHeld, storageHeld, storageUnitID); err != nil {
		return err
	}

	if err := checkReferences(req); err != nil {
		return err
	}
	e := entitlement{}
	if e.org, err = uow.Organizations().GetByID(ctx, req.OrgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: organization %d", domain.ErrUnknownResource, req.OrgID)
		}
		return err
	}
	if item, ok := domain.ExclusiveItem(req.Allocation); ok && item.Kind != domain.ItemKindRoom {
		if e.allocationExists, err = uow.Catalog().Exists(ctx, item.Kind, item.ID); err != nil {
			return err
		}
	}
	if wantsStorage {
		if e.storageExists, err = uow.Catalog().Exists(ctx, domain.ItemKindStorage, storageUnitID); err != nil {
			return err
		}
	}
	return checkEntitlement(req, e)
}

// record inserts the transaction and one item per concrete resource.
func (s *allocationService) record(ctx context.Context, ledger repository.LedgerRepository, req domain.CheckoutRequest, now time.Time) (*domain.RentalTransaction, error) {
	rental := &domain.RentalTransaction{
		StudentID:    req.StudentID,
		OrgID:        req.OrgID,
		Allocation:   req.Allocation,
		CheckedOutAt: now,
		Status:       domain.RentalStatusActive,
	}
	storageUnitID, wantsStorage := req.StorageUnitID()
	if wantsStorage {
		rental.StorageUnitID = &storageUnitID
	}
	if err := ledger.CreateTransaction(ctx, rental); err != nil {
		return nil, err
	}

	var resources []domain.ItemResource
	if item, ok := domain.ExclusiveItem(req.Allocation); ok {
		resources = append(resources, item)
	}
	if wantsStorage {
		resources = append(resources, domain.ItemResource{Kind: domain.ItemKindStorage, ID: storageUnitID})
	}
	for _, res := range resources {
		item := &domain.RentalItem{
			TransactionID: rental.ID,
			Resource:      res,
			CheckedOutAt:  now,
			Status:        domain.RentalStatusActive,
		}
		if err := ledger.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}
	return rental, nil
}

func (s *allocationService) ReturnTransaction(ctx context.Context, transactionID int64) error {
	methodName := "allocationService.ReturnTransaction"
	logger.EnterMethod(methodName, "transactionID", transactionID)

	now := s.now().UTC()
	var closed int64
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		if _, err := uow.Ledger().CloseActiveItems(ctx, transactionID, now); err != nil {
			return err
		}
		var err error
		closed, err = uow.Ledger().CloseTransaction(ctx, transactionID, now)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError(methodName, err)
		return err
	}

	if closed > 0 {
		metrics.ReturnsTotal.WithLabelValues("transaction").Inc()
		s.publish(ctx, audit.Event{Type: audit.EventReturned, TransactionID: transactionID, OccurredAt: now})
		logger.InfoContext(ctx, "Rental returned", "transactionID", transactionID)
	}
	logger.ExitMethod(methodName, "closed", closed)
	return nil
}

func (s *allocationService) ReturnItem(ctx context.Context, itemID int64) error {
	methodName := "allocationService.ReturnItem"
	logger.EnterMethod(methodName, "itemID", itemID)

	now := s.now().UTC()
	var transactionID, closed int64
	var itemClosed bool
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		var err error
		transactionID, itemClosed, err = uow.Ledger().CloseItem(ctx, itemID, now)
		if err != nil || !itemClosed {
			return err
		}
		remaining, err := uow.Ledger().CountActiveItems(ctx, transactionID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			closed, err = uow.Ledger().CloseTransaction(ctx, transactionID, now)
		}
		return err
	})
	if err != nil {
		logger.ExitMethodWithError(methodName, err)
		return err
	}
	if !itemClosed {
		logger.ExitMethod(methodName, "itemClosed", false)
		return nil
	}

	metrics.ReturnsTotal.WithLabelValues("item").Inc()
	s.publish(ctx, audit.Event{Type: audit.EventItemReturned, TransactionID: transactionID, ItemID: itemID, OccurredAt: now})
	if closed > 0 {
		s.publish(ctx, audit.Event{Type: audit.EventReturned, TransactionID: transactionID, OccurredAt: now})
	}
	logger.ExitMethod(methodName, "transactionID", transactionID, "transactionClosed", closed > 0)
	return nil
}

func (s *allocationService) ListItems(ctx context.Context, transactionID int64) ([]domain.RentalItem, error) {
	return s.ledgerRepo.ListActiveItems(ctx, transactionID)
}

func (s *allocationService) ListActiveTransactions(ctx context.Context) ([]domain.RentalTransaction, error) {
	return s.ledgerRepo.ListActive(ctx)
}

func (s *allocationService) ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error) {
	if limit <= 0 {
		limit = s.settings.HistoryDefaultLimit
	}
	if limit > s.settings.HistoryMaxLimit {
		limit = s.settings.HistoryMaxLimit
	}
	return s.ledgerRepo.ListHistory(ctx, limit)
}

func (s *allocationService) UsageSnapshot(ctx context.Context) (*domain.Usage, error) {
	return s.ledgerRepo.Usage(ctx)
}

func (s *allocationService) publish(ctx context.Context, event audit.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish audit event", "type", event.Type, "transactionID", event.TransactionID, "error", err)
	}
}
