package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

type catalogRepository struct {
	db querier
}

func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListPracticeRooms(ctx context.Context) ([]domain.PracticeRoom, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category FROM practice_rooms ORDER BY id`)
	if err != nil {
		return nil, classify("list practice rooms", err)
	}
	defer rows.Close()

	var rooms []domain.PracticeRoom
	for rows.Next() {
		var p domain.PracticeRoom
		if err := rows.Scan(&p.ID, &p.Name, &p.Category); err != nil {
			return nil, classify("scan practice room", err)
		}
		rooms = append(rooms, p)
	}
	return rooms, classify("list practice rooms", rows.Err())
}

func (r *catalogRepository) ListPrintRooms(ctx context.Context) ([]domain.PrintRoom, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM print_rooms ORDER BY id`)
	if err != nil {
		return nil, classify("list print rooms", err)
	}
	defer rows.Close()

	var rooms []domain.PrintRoom
	for rows.Next() {
		var p domain.PrintRoom
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, classify("scan print room", err)
		}
		rooms = append(rooms, p)
	}
	return rooms, classify("list print rooms", rows.Err())
}

func (r *catalogRepository) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM storage_units ORDER BY id`)
	if err != nil {
		return nil, classify("list storage units", err)
	}
	defer rows.Close()

	var units []domain.StorageUnit
	for rows.Next() {
		var s domain.StorageUnit
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, classify("scan storage unit", err)
		}
		units = append(units, s)
	}
	return units, classify("list storage units", rows.Err())
}

var catalogTables = map[domain.ItemKind]string{
	domain.ItemKindPracticeRoom: "practice_rooms",
	domain.ItemKindPrintRoom:    "print_rooms",
	domain.ItemKindStorage:      "storage_units",
}

func (r *catalogRepository) Exists(ctx context.Context, kind domain.ItemKind, id int32) (bool, error) {
	table, ok := catalogTables[kind]
	if !ok {
		return false, fmt.Errorf("%w: %q is not a catalog resource", domain.ErrInvalidArgument, kind)
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, classify("lookup "+string(kind), err)
	}
	return exists, nil
}

// ensure runs an INSERT ... ON CONFLICT (name) DO NOTHING RETURNING id. No
// returned row means the name already existed; its id is then looked up.
func (r *catalogRepository) ensure(ctx context.Context, table, insert string, name string, id *int32, args ...any) (bool, error) {
	err := r.db.QueryRowContext(ctx, insert, args...).Scan(id)
	if err == nil {
		return true, nil
	}
	if !isNoRows(err) {
		return false, classify("provision "+table, err)
	}
	err = r.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = $1`, name).Scan(id)
	return false, classify("provision "+table, err)
}

func (r *catalogRepository) EnsurePracticeRoom(ctx context.Context, p *domain.PracticeRoom) (bool, error) {
	query := `INSERT INTO practice_rooms (name, category) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING RETURNING id`
	return r.ensure(ctx, "practice_rooms", query, p.Name, &p.ID, p.Name, p.Category)
}

func (r *catalogRepository) EnsurePrintRoom(ctx context.Context, p *domain.PrintRoom) (bool, error) {
	query := `INSERT INTO print_rooms (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`
	return r.ensure(ctx, "print_rooms", query, p.Name, &p.ID, p.Name)
}

func (r *catalogRepository) EnsureStorageUnit(ctx context.Context, s *domain.StorageUnit) (bool, error) {
	query := `INSERT INTO storage_units (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`
	return r.ensure(ctx, "storage_units", query, s.Name, &s.ID, s.Name)
}
