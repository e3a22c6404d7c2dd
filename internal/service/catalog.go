package service

import (
	"context"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/repository"
)

type catalogService struct {
	transactor  repository.Transactor
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(transactor repository.Transactor, catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{transactor: transactor, catalogRepo: catalogRepo}
}

func (s *catalogService) ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error) {
	return s.catalogRepo.ListPracticeRooms(ctx)
}

func (s *catalogService) ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error) {
	return s.catalogRepo.ListPrintRooms(ctx)
}

func (s *catalogService) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	return s.catalogRepo.ListStorageUnits(ctx)
}

// Provision inserts every catalog entry whose name is not yet present and
// returns how many were added. Existing rows are left untouched.
func (s *catalogService) Provision(ctx context.Context, catalog *domain.Catalog) (int, error) {
	logger.EnterMethod("catalogService.Provision")

	inserted := 0
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		inserted = 0
		repo := uow.Catalog()
		count := func(added bool, err error) error {
			if added {
				inserted++
			}
			return err
		}
		for i := range catalog.PracticeRooms {
			if err := count(repo.EnsurePracticeRoom(ctx, &catalog.PracticeRooms[i])); err != nil {
				return err
			}
		}
		for i := range catalog.PrintRooms {
			if err := count(repo.EnsurePrintRoom(ctx, &catalog.PrintRooms[i])); err != nil {
				return err
			}
		}
		for i := range catalog.StorageUnits {
			if err := count(repo.EnsureStorageUnit(ctx, &catalog.StorageUnits[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("catalogService.Provision", err)
		return 0, err
	}
	logger.InfoContext(ctx, "Catalog provisioned", "inserted", inserted)
	logger.ExitMethod("catalogService.Provision")
	return inserted, nil
}
