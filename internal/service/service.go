package service

import (
	"context"

	"keyrental-backend/internal/domain"
)

type AllocationService interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (int64, error)
	ReturnTransaction(ctx context.Context, transactionID int64) error
	ReturnItem(ctx context.Context, itemID int64) error
	ListItems(ctx context.Context, transactionID int64) ([]domain.RentalItem, error)
	ListActiveTransactions(ctx context.Context) ([]domain.RentalTransaction, error)
	ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error)
	UsageSnapshot(ctx context.Context) (*domain.Usage, error)
}

type ReconciliationService interface {
	Reconcile(ctx context.Context) ([]domain.ActiveRental, error)
}

type DirectoryService interface {
	LookupStudent(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error)
}

type AdminService interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	ListOrganizationMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error)
	AddOrganization(ctx context.Context, org *domain.Organization) error
	UpdateOrganization(ctx context.Context, org *domain.Organization) error
	DeleteOrganization(ctx context.Context, orgID int32) error
	ImportOrganizations(ctx context.Context, records []domain.OrganizationImportRecord) (*domain.ImportResult, error)
	ImportStudents(ctx context.Context, records []domain.StudentImportRecord, replaceOrgMemberships bool, orgID int32) (int, error)
	ResetDirectory(ctx context.Context) error
}

type CatalogService interface {
	ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error)
	ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error)
	ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error)
	Provision(ctx context.Context, catalog *domain.Catalog) (int, error)
}
