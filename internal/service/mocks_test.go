package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"keyrental-backend/internal/audit"
	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

// MockTransactor hands the same unit of work to every WithinTx call.
type MockTransactor struct {
	uow   repository.UnitOfWork
	err   error
	calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(m.uow)
}

type MockUnitOfWork struct {
	students *MockStudentRepo
	orgs     *MockOrganizationRepo
	catalog  *MockCatalogRepo
	ledger   *MockLedgerRepo
}

func newMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		students: new(MockStudentRepo),
		orgs:     new(MockOrganizationRepo),
		catalog:  new(MockCatalogRepo),
		ledger:   new(MockLedgerRepo),
	}
}

func (u *MockUnitOfWork) Students() repository.StudentRepository           { return u.students }
func (u *MockUnitOfWork) Organizations() repository.OrganizationRepository { return u.orgs }
func (u *MockUnitOfWork) Catalog() repository.CatalogRepository            { return u.catalog }
func (u *MockUnitOfWork) Ledger() repository.LedgerRepository              { return u.ledger }

// MockStudentRepo
type MockStudentRepo struct {
	mock.Mock
}

func (m *MockStudentRepo) Exists(ctx context.Context, studentID string) (bool, error) {
	args := m.Called(ctx, studentID)
	return args.Bool(0), args.Error(1)
}
func (m *MockStudentRepo) IsMember(ctx context.Context, studentID string, orgID int32) (bool, error) {
	args := m.Called(ctx, studentID, orgID)
	return args.Bool(0), args.Error(1)
}
func (m *MockStudentRepo) ListAffiliations(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StudentAffiliation), args.Error(1)
}
func (m *MockStudentRepo) Upsert(ctx context.Context, student *domain.Student) error {
	return m.Called(ctx, student).Error(0)
}
func (m *MockStudentRepo) UpsertMembership(ctx context.Context, membership *domain.Membership) error {
	return m.Called(ctx, membership).Error(0)
}
func (m *MockStudentRepo) DeleteMembershipsByOrg(ctx context.Context, orgID int32) error {
	return m.Called(ctx, orgID).Error(0)
}
func (m *MockStudentRepo) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockOrganizationRepo
type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) Create(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}
func (m *MockOrganizationRepo) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) List(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) ListMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]domain.OrganizationMembers), args.Error(1)
}
func (m *MockOrganizationRepo) Update(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}
func (m *MockOrganizationRepo) Delete(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockOrganizationRepo) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockCatalogRepo
type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PracticeRoom), args.Error(1)
}
func (m *MockCatalogRepo) ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PrintRoom), args.Error(1)
}
func (m *MockCatalogRepo) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StorageUnit), args.Error(1)
}
func (m *MockCatalogRepo) Exists(ctx context.Context, kind domain.ItemKind, id int32) (bool, error) {
	args := m.Called(ctx, kind, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockCatalogRepo) EnsurePracticeRoom(ctx context.Context, room *domain.PracticeRoom) (bool, error) {
	args := m.Called(ctx, room)
	return args.Bool(0), args.Error(1)
}
func (m *MockCatalogRepo) EnsurePrintRoom(ctx context.Context, room *domain.PrintRoom) (bool, error) {
	args := m.Called(ctx, room)
	return args.Bool(0), args.Error(1)
}
func (m *MockCatalogRepo) EnsureStorageUnit(ctx context.Context, unit *domain.StorageUnit) (bool, error) {
	args := m.Called(ctx, unit)
	return args.Bool(0), args.Error(1)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) ListActiveByStudent(ctx context.Context, studentID string) ([]domain.ActiveRental, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]domain.ActiveRental), args.Error(1)
}
func (m *MockLedgerRepo) ListAllActive(ctx context.Context) ([]domain.ActiveRental, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ActiveRental), args.Error(1)
}
func (m *MockLedgerRepo) AllocationHeld(ctx context.Context, allocation domain.Allocation) (bool, error) {
	args := m.Called(ctx, allocation)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedgerRepo) StorageUnitHeld(ctx context.Context, storageUnitID int32) (bool, error) {
	args := m.Called(ctx, storageUnitID)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedgerRepo) CreateTransaction(ctx context.Context, rental *domain.RentalTransaction) error {
	return m.Called(ctx, rental).Error(0)
}
func (m *MockLedgerRepo) CreateItem(ctx context.Context, item *domain.RentalItem) error {
	return m.Called(ctx, item).Error(0)
}
func (m *MockLedgerRepo) CloseTransaction(ctx context.Context, id int64, at time.Time) (int64, error) {
	args := m.Called(ctx, id, at)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockLedgerRepo) CloseActiveItems(ctx context.Context, transactionID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, transactionID, at)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockLedgerRepo) CloseItem(ctx context.Context, itemID int64, at time.Time) (int64, bool, error) {
	args := m.Called(ctx, itemID, at)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}
func (m *MockLedgerRepo) CountActiveItems(ctx context.Context, transactionID int64) (int, error) {
	args := m.Called(ctx, transactionID)
	return args.Int(0), args.Error(1)
}
func (m *MockLedgerRepo) DeleteByOrg(ctx context.Context, orgID int32) error {
	return m.Called(ctx, orgID).Error(0)
}
func (m *MockLedgerRepo) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockLedgerRepo) ListActiveItems(ctx context.Context, transactionID int64) ([]domain.RentalItem, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).([]domain.RentalItem), args.Error(1)
}
func (m *MockLedgerRepo) ListActive(ctx context.Context) ([]domain.RentalTransaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RentalTransaction), args.Error(1)
}
func (m *MockLedgerRepo) ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.RentalTransaction), args.Error(1)
}
func (m *MockLedgerRepo) Usage(ctx context.Context) (*domain.Usage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Usage), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event audit.Event) error {
	return m.Called(ctx, event).Error(0)
}
func (m *MockPublisher) Close() error { return nil }
