package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

type organizationRepository struct {
	db querier
}

func NewOrganizationRepository(db *sql.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

const orgColumns = `id, name, room_number, can_use_practice_rooms, storage_unit_ids`

func scanOrganization(row interface{ Scan(...any) error }, o *domain.Organization) error {
	var storage pq.Int32Array
	if err := row.Scan(&o.ID, &o.Name, &o.RoomNumber, &o.CanUsePracticeRooms, &storage); err != nil {
		return err
	}
	o.StorageUnitIDs = []int32(storage)
	return nil
}

// Create inserts the organization. A non-zero ID is kept as given and the id
// sequence is advanced past it.
func (r *organizationRepository) Create(ctx context.Context, o *domain.Organization) error {
	storage := pq.Array(nonNilIDs(o.StorageUnitIDs))
	var err error
	if o.ID > 0 {
		query := `INSERT INTO organizations (id, name, room_number, can_use_practice_rooms, storage_unit_ids)
		          VALUES ($1, $2, $3, $4, $5) RETURNING id`
		err = r.db.QueryRowContext(ctx, query, o.ID, o.Name, o.RoomNumber, o.CanUsePracticeRooms, storage).Scan(&o.ID)
		if err == nil {
			_, err = r.db.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence('organizations', 'id'), (SELECT MAX(id) FROM organizations))`)
		}
	} else {
		query := `INSERT INTO organizations (name, room_number, can_use_practice_rooms, storage_unit_ids)
		          VALUES ($1, $2, $3, $4) RETURNING id`
		err = r.db.QueryRowContext(ctx, query, o.Name, o.RoomNumber, o.CanUsePracticeRooms, storage).Scan(&o.ID)
	}
	if isCode(err, codeUniqueViolation) {
		return fmt.Errorf("%w: organization %q already exists", domain.ErrConflict, o.Name)
	}
	return classify("create organization", err)
}

func (r *organizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	o := &domain.Organization{}
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	if err := scanOrganization(r.db.QueryRowContext(ctx, query, id), o); err != nil {
		if isNoRows(err) {
			return nil, notFound("organization", id)
		}
		return nil, classify("get organization", err)
	}
	return o, nil
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	o := &domain.Organization{}
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE name = $1`
	if err := scanOrganization(r.db.QueryRowContext(ctx, query, name), o); err != nil {
		if isNoRows(err) {
			return nil, notFound("organization", name)
		}
		return nil, classify("get organization", err)
	}
	return o, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, classify("list organizations", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var o domain.Organization
		if err := scanOrganization(rows, &o); err != nil {
			return nil, classify("scan organization", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, classify("list organizations", rows.Err())
}

// ListMembers returns organizations with their members. orgID zero selects
// every organization.
func (r *organizationRepository) ListMembers(ctx context.Context, orgID int32) ([]domain.OrganizationMembers, error) {
	query := `SELECT o.id, o.name, o.room_number, o.can_use_practice_rooms, o.storage_unit_ids,
	                 s.id, s.name, s.email, m.role
	          FROM organizations o
	          LEFT JOIN memberships m ON m.org_id = o.id
	          LEFT JOIN students s ON s.id = m.student_id
	          WHERE ($1 = 0 OR o.id = $1)
	          ORDER BY o.name, s.name`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, classify("list organization members", err)
	}
	defer rows.Close()

	var result []domain.OrganizationMembers
	index := make(map[int32]int)
	for rows.Next() {
		var o domain.Organization
		var storage pq.Int32Array
		var studentID, name, email, role sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &o.RoomNumber, &o.CanUsePracticeRooms, &storage,
			&studentID, &name, &email, &role); err != nil {
			return nil, classify("scan organization member", err)
		}
		i, ok := index[o.ID]
		if !ok {
			o.StorageUnitIDs = []int32(storage)
			result = append(result, domain.OrganizationMembers{Organization: o, Members: []domain.Member{}})
			i = len(result) - 1
			index[o.ID] = i
		}
		if studentID.Valid {
			result[i].Members = append(result[i].Members, domain.Member{
				StudentID: studentID.String,
				Name:      name.String,
				Email:     email.String,
				Role:      domain.MembershipRole(role.String),
			})
		}
	}
	return result, classify("list organization members", rows.Err())
}

func (r *organizationRepository) Update(ctx context.Context, o *domain.Organization) error {
	query := `UPDATE organizations SET name = $1, room_number = $2, can_use_practice_rooms = $3, storage_unit_ids = $4
	          WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, o.Name, o.RoomNumber, o.CanUsePracticeRooms, pq.Array(nonNilIDs(o.StorageUnitIDs)), o.ID)
	if isCode(err, codeUniqueViolation) {
		return fmt.Errorf("%w: organization %q already exists", domain.ErrConflict, o.Name)
	}
	if err != nil {
		return classify("update organization", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update organization", err)
	}
	if n == 0 {
		return notFound("organization", o.ID)
	}
	return nil
}

func (r *organizationRepository) Delete(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return classify("delete organization", err)
}

func (r *organizationRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations`)
	return classify("delete organizations", err)
}

func nonNilIDs(ids []int32) []int32 {
	if ids == nil {
		return []int32{}
	}
	return ids
}
