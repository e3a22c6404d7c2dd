package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"keyrental-backend/internal/domain"
)

type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) Checkout(ctx context.Context, req domain.CheckoutRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAllocationService) ReturnTransaction(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAllocationService) ReturnItem(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAllocationService) ListItems(ctx context.Context, id int64) ([]domain.RentalItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.RentalItem), args.Error(1)
}
func (m *MockAllocationService) ListActiveTransactions(ctx context.Context) ([]domain.RentalTransaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RentalTransaction), args.Error(1)
}
func (m *MockAllocationService) ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.RentalTransaction), args.Error(1)
}
func (m *MockAllocationService) UsageSnapshot(ctx context.Context) (*domain.Usage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Usage), args.Error(1)
}

type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) LookupStudent(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StudentAffiliation), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}
func (m *MockAdminService) ListOrganizationMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrganizationMembers), args.Error(1)
}
func (m *MockAdminService) AddOrganization(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}
func (m *MockAdminService) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}
func (m *MockAdminService) DeleteOrganization(ctx context.Context, orgID int32) error {
	return m.Called(ctx, orgID).Error(0)
}
func (m *MockAdminService) ImportOrganizations(ctx context.Context, records []domain.OrganizationImportRecord) (*domain.ImportResult, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}
func (m *MockAdminService) ImportStudents(ctx context.Context, records []domain.StudentImportRecord, replace bool, orgID int32) (int, error) {
	args := m.Called(ctx, records, replace, orgID)
	return args.Int(0), args.Error(1)
}
func (m *MockAdminService) ResetDirectory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PracticeRoom), args.Error(1)
}
func (m *MockCatalogService) ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PrintRoom), args.Error(1)
}
func (m *MockCatalogService) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StorageUnit), args.Error(1)
}
func (m *MockCatalogService) Provision(ctx context.Context, catalog *domain.Catalog) (int, error) {
	args := m.Called(ctx, catalog)
	return args.Int(0), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
