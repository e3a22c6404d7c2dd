package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/repository"
)

type adminService struct {
	transactor repository.Transactor
	orgRepo    repository.OrganizationRepository
}

func NewAdminService(transactor repository.Transactor, orgRepo repository.OrganizationRepository) AdminService {
	return &adminService{transactor: transactor, orgRepo: orgRepo}
}

func (s *adminService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.orgRepo.List(ctx)
}

func (s *adminService) ListOrganizationMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error) {
	return s.orgRepo.ListMembers(ctx, orgID)
}

func normalizeOrganization(org *domain.Organization) error {
	org.Name = strings.TrimSpace(org.Name)
	org.RoomNumber = strings.TrimSpace(org.RoomNumber)
	if org.Name == "" {
		return fmt.Errorf("%w: organization name is required", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *adminService) AddOrganization(ctx context.Context, org *domain.Organization) error {
	logger.EnterMethod("adminService.AddOrganization", "name", org.Name)
	if err := normalizeOrganization(org); err != nil {
		return err
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		logger.ExitMethodWithError("adminService.AddOrganization", err)
		return err
	}
	logger.ExitMethod("adminService.AddOrganization", "orgID", org.ID)
	return nil
}

func (s *adminService) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	logger.EnterMethod("adminService.UpdateOrganization", "orgID", org.ID)
	if err := normalizeOrganization(org); err != nil {
		return err
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		logger.ExitMethodWithError("adminService.UpdateOrganization", err)
		return err
	}
	logger.ExitMethod("adminService.UpdateOrganization")
	return nil
}

// DeleteOrganization removes the organization together with its ledger and
// memberships: items, then transactions, then memberships, then the row.
func (s *adminService) DeleteOrganization(ctx context.Context, orgID int32) error {
	logger.EnterMethod("adminService.DeleteOrganization", "orgID", orgID)
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		if err := uow.Ledger().DeleteByOrg(ctx, orgID); err != nil {
			return err
		}
		if err := uow.Students().DeleteMembershipsByOrg(ctx, orgID); err != nil {
			return err
		}
		return uow.Organizations().Delete(ctx, orgID)
	})
	if err != nil {
		logger.ExitMethodWithError("adminService.DeleteOrganization", err)
		return err
	}
	logger.InfoContext(ctx, "Organization deleted", "orgID", orgID)
	logger.ExitMethod("adminService.DeleteOrganization")
	return nil
}

// ImportOrganizations upserts each record, matching an existing organization
// by id and then by name. When the id and the name point at different rows
// the name match wins.
func (s *adminService) ImportOrganizations(ctx context.Context, records []domain.OrganizationImportRecord) (*domain.ImportResult, error) {
	methodName := "adminService.ImportOrganizations"
	logger.EnterMethod(methodName, "records", len(records))

	var result domain.ImportResult
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		result = domain.ImportResult{}
		orgs := uow.Organizations()
		for i, rec := range records {
			org := &domain.Organization{
				ID:                  rec.ID,
				Name:                rec.Name,
				RoomNumber:          rec.RoomNumber,
				CanUsePracticeRooms: rec.CanUsePracticeRooms,
				StorageUnitIDs:      rec.StorageUnitIDs,
			}
			if err := normalizeOrganization(org); err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}

			target, err := matchOrganization(ctx, orgs, org)
			if err != nil {
				return err
			}
			if target != nil {
				org.ID = target.ID
				if err := orgs.Update(ctx, org); err != nil {
					return err
				}
				result.Updated++
				continue
			}
			if err := orgs.Create(ctx, org); err != nil {
				return err
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(methodName, err)
		return nil, err
	}
	logger.InfoContext(ctx, "Organizations imported", "inserted", result.Inserted, "updated", result.Updated)
	logger.ExitMethod(methodName)
	return &result, nil
}

func matchOrganization(ctx context.Context, orgs repository.OrganizationRepository, org *domain.Organization) (*domain.Organization, error) {
	var byID *domain.Organization
	if org.ID > 0 {
		found, err := orgs.GetByID(ctx, org.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		byID = found
	}
	byName, err := orgs.GetByName(ctx, org.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if byName != nil {
		return byName, nil
	}
	return byID, nil
}

// ImportStudents upserts students and their memberships. In replace mode the
// memberships of orgID are removed first so the import becomes the
// organization's full roster.
func (s *adminService) ImportStudents(ctx context.Context, records []domain.StudentImportRecord, replaceOrgMemberships bool, orgID int32) (int, error) {
	methodName := "adminService.ImportStudents"
	logger.EnterMethod(methodName, "records", len(records), "replace", replaceOrgMemberships, "orgID", orgID)

	if replaceOrgMemberships && orgID <= 0 {
		return 0, fmt.Errorf("%w: replace mode needs an organization", domain.ErrInvalidArgument)
	}

	imported := 0
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		imported = 0
		students := uow.Students()
		if replaceOrgMemberships {
			if err := students.DeleteMembershipsByOrg(ctx, orgID); err != nil {
				return err
			}
		}
		for i, rec := range records {
			student := &domain.Student{
				ID:    strings.TrimSpace(rec.StudentID),
				Name:  strings.TrimSpace(rec.Name),
				Email: strings.TrimSpace(rec.Email),
			}
			target := rec.OrgID
			if target <= 0 {
				target = orgID
			}
			if student.ID == "" || student.Name == "" || target <= 0 {
				return fmt.Errorf("%w: record %d needs a student id, a name and an organization", domain.ErrInvalidArgument, i+1)
			}
			role := rec.Role
			if strings.TrimSpace(string(role)) == "" {
				role = domain.MembershipRoleMember
			}

			if err := students.Upsert(ctx, student); err != nil {
				return err
			}
			if err := students.UpsertMembership(ctx, &domain.Membership{StudentID: student.ID, OrgID: target, Role: role}); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(methodName, err)
		return 0, err
	}
	logger.InfoContext(ctx, "Students imported", "count", imported, "orgID", orgID)
	logger.ExitMethod(methodName)
	return imported, nil
}

// ResetDirectory wipes the ledger and the membership directory. The catalog
// is kept.
func (s *adminService) ResetDirectory(ctx context.Context) error {
	logger.EnterMethod("adminService.ResetDirectory")
	err := s.transactor.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		if err := uow.Ledger().DeleteAll(ctx); err != nil {
			return err
		}
		if err := uow.Students().DeleteAll(ctx); err != nil {
			return err
		}
		return uow.Organizations().DeleteAll(ctx)
	})
	if err != nil {
		logger.ExitMethodWithError("adminService.ResetDirectory", err)
		return err
	}
	logger.WarnContext(ctx, "Directory reset")
	logger.ExitMethod("adminService.ResetDirectory")
	return nil
}
