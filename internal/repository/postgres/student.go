package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

type studentRepository struct {
	db querier
}

func NewStudentRepository(db *sql.DB) repository.StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, studentID).Scan(&exists); err != nil {
		return false, classify("lookup student", err)
	}
	return exists, nil
}

func (r *studentRepository) IsMember(ctx context.Context, studentID string, orgID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM memberships WHERE student_id = $1 AND org_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, studentID, orgID).Scan(&exists); err != nil {
		return false, classify("lookup membership", err)
	}
	return exists, nil
}

func (r *studentRepository) ListAffiliations(ctx context.Context, studentID string) ([]domain.StudentAffiliation, error) {
	query := `SELECT s.id, s.name, s.email, m.role,
	                 o.id, o.name, o.room_number, o.can_use_practice_rooms, o.storage_unit_ids
	          FROM students s
	          JOIN memberships m ON m.student_id = s.id
	          JOIN organizations o ON o.id = m.org_id
	          WHERE s.id = $1
	          ORDER BY o.name`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, classify("list affiliations", err)
	}
	defer rows.Close()

	var affiliations []domain.StudentAffiliation
	for rows.Next() {
		var a domain.StudentAffiliation
		var storage pq.Int32Array
		if err := rows.Scan(&a.Student.ID, &a.Student.Name, &a.Student.Email, &a.Role,
			&a.Organization.ID, &a.Organization.Name, &a.Organization.RoomNumber,
			&a.Organization.CanUsePracticeRooms, &storage); err != nil {
			return nil, classify("scan affiliation", err)
		}
		a.Organization.StorageUnitIDs = []int32(storage)
		affiliations = append(affiliations, a)
	}
	return affiliations, classify("list affiliations", rows.Err())
}

func (r *studentRepository) Upsert(ctx context.Context, s *domain.Student) error {
	query := `INSERT INTO students (id, name, email) VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Email)
	return classify("upsert student", err)
}

func (r *studentRepository) UpsertMembership(ctx context.Context, m *domain.Membership) error {
	query := `INSERT INTO memberships (student_id, org_id, role) VALUES ($1, $2, $3)
	          ON CONFLICT (student_id, org_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.db.ExecContext(ctx, query, m.StudentID, m.OrgID, m.Role)
	if isCode(err, codeForeignKeyViolation) {
		return fmt.Errorf("%w: organization %d does not exist", domain.ErrInvalidArgument, m.OrgID)
	}
	return classify("upsert membership", err)
}

func (r *studentRepository) DeleteMembershipsByOrg(ctx context.Context, orgID int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE org_id = $1`, orgID)
	return classify("delete memberships", err)
}

func (r *studentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM memberships`); err != nil {
		return classify("delete memberships", err)
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM students`)
	return classify("delete students", err)
}
