package repository

import (
	"context"
	"time"

	"keyrental-backend/internal/domain"
)

type StudentRepository interface {
	Exists(ctx context.Context, studentID string) (bool, error)
	IsMember(ctx context.Context, studentID string, orgID int32) (bool, error)
	ListAffiliations(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error)
	Upsert(ctx context.Context, student *domain.Student) error
	UpsertMembership(ctx context.Context, membership *domain.Membership) error
	DeleteMembershipsByOrg(ctx context.Context, orgID int32) error
	DeleteAll(ctx context.Context) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int32) (*domain.Organization, error)
	GetByName(ctx context.Context, name string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	ListMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error)
	Update(ctx context.Context, org *domain.Organization) error
	Delete(ctx context.Context, id int32) error
	DeleteAll(ctx context.Context) error
}

type CatalogRepository interface {
	ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error)
	ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error)
	ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error)
	Exists(ctx context.Context, kind domain.ItemKind, id int32) (bool, error)

	// Ensure* insert the resource unless one with the same name exists.
	EnsurePracticeRoom(ctx context.Context, room *domain.PracticeRoom) (bool, error)
	EnsurePrintRoom(ctx context.Context, room *domain.PrintRoom) (bool, error)
	EnsureStorageUnit(ctx context.Context, unit *domain.StorageUnit) (bool, error)
}

type LedgerRepository interface {
	// Conflict queries
	ListActiveByStudent(ctx context.Context, studentID string) ([]domain.ActiveRental, error)
	ListAllActive(ctx context.Context) ([]domain.ActiveRental, error)
	AllocationHeld(ctx context.Context, allocation domain.Allocation) (bool, error)
	StorageUnitHeld(ctx context.Context, storageUnitID int32) (bool, error)

	// Writes
	CreateTransaction(ctx context.Context, rental *domain.RentalTransaction) error
	CreateItem(ctx context.Context, item *domain.RentalItem) error
	CloseTransaction(ctx context.Context, id int64, at time.Time) (int64, error)
	CloseActiveItems(ctx context.Context, transactionID int64, at time.Time) (int64, error)
	// CloseItem returns an active item. closed is false when the item does
	// not exist or was already returned.
	CloseItem(ctx context.Context, itemID int64, at time.Time) (transactionID int64, closed bool, err error)
	CountActiveItems(ctx context.Context, transactionID int64) (int, error)
	DeleteByOrg(ctx context.Context, orgID int32) error
	DeleteAll(ctx context.Context) error

	// Reads
	ListActiveItems(ctx context.Context, transactionID int64) ([]domain.RentalItem, error)
	ListActive(ctx context.Context) ([]domain.RentalTransaction, error)
	ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error)
	Usage(ctx context.Context) (*domain.Usage, error)
}

// UnitOfWork exposes the repositories bound to one database transaction.
type UnitOfWork interface {
	Students() StudentRepository
	Organizations() OrganizationRepository
	Catalog() CatalogRepository
	Ledger() LedgerRepository
}

// Transactor runs fn inside a single atomic unit of work. If fn returns an
// error nothing it wrote is committed.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
