package service

import (
	"context"
	"fmt"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/repository"
)

type directoryService struct {
	studentRepo repository.StudentRepository
}

func NewDirectoryService(studentRepo repository.StudentRepository) DirectoryService {
	return &directoryService{studentRepo: studentRepo}
}

// LookupStudent returns one row per organization the student belongs to.
func (s *directoryService) LookupStudent(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error) {
	logger.EnterMethod("directoryService.LookupStudent", "studentID", studentID)

	affiliations, err := s.studentRepo.ListAffiliations(ctx, studentID)
	if err != nil {
		logger.ExitMethodWithError("directoryService.LookupStudent", err)
		return nil, err
	}
	if len(affiliations) == 0 {
		return nil, fmt.Errorf("%w: student %s was not found", domain.ErrUnknownStudent, studentID)
	}

	logger.ExitMethod("directoryService.LookupStudent", "organizations", len(affiliations))
	return affiliations, nil
}
