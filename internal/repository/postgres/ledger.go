package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

type ledgerRepository struct {
	db querier
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]domain.ActiveRental, error) {
	query := `SELECT id, student_id, kind FROM rental_transactions
	          WHERE status = 'active' AND student_id = $1 ORDER BY id`
	return r.listActiveRentals(ctx, query, studentID)
}

func (r *ledgerRepository) ListAllActive(ctx context.Context) ([]domain.ActiveRental, error) {
	query := `SELECT id, student_id, kind FROM rental_transactions
	          WHERE status = 'active' ORDER BY student_id, id`
	return r.listActiveRentals(ctx, query)
}

func (r *ledgerRepository) listActiveRentals(ctx context.Context, query string, args ...any) ([]domain.ActiveRental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list active rentals", err)
	}
	defer rows.Close()

	var active []domain.ActiveRental
	for rows.Next() {
		var a domain.ActiveRental
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Kind); err != nil {
			return nil, classify("scan active rental", err)
		}
		active = append(active, a)
	}
	return active, classify("list active rentals", rows.Err())
}

// AllocationHeld reports whether another active transaction of the same kind
// holds the allocation's resource. Storage-only allocations hold nothing.
func (r *ledgerRepository) AllocationHeld(ctx context.Context, a domain.Allocation) (bool, error) {
	var column string
	var arg any
	switch v := a.(type) {
	case domain.RoomAllocation:
		column, arg = "room_number", v.RoomNumber
	case domain.PracticeAllocation:
		column, arg = "practice_room_id", v.PracticeRoomID
	case domain.PrintRoomAllocation:
		column, arg = "print_room_id", v.PrintRoomID
	default:
		return false, nil
	}
	var held bool
	query := `SELECT EXISTS (SELECT 1 FROM rental_transactions
	          WHERE status = 'active' AND kind = $1 AND ` + column + ` = $2)`
	if err := r.db.QueryRowContext(ctx, query, a.Kind(), arg).Scan(&held); err != nil {
		return false, classify("check resource", err)
	}
	return held, nil
}

func (r *ledgerRepository) StorageUnitHeld(ctx context.Context, storageUnitID int32) (bool, error) {
	var held bool
	query := `SELECT EXISTS (SELECT 1 FROM rental_items
	          WHERE status = 'active' AND item_kind = 'storage' AND storage_unit_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, storageUnitID).Scan(&held); err != nil {
		return false, classify("check storage unit", err)
	}
	return held, nil
}

func allocationColumns(a domain.Allocation) (room sql.NullString, practice, printRoom sql.NullInt32) {
	switch v := a.(type) {
	case domain.RoomAllocation:
		room = sql.NullString{String: v.RoomNumber, Valid: true}
	case domain.PracticeAllocation:
		practice = sql.NullInt32{Int32: v.PracticeRoomID, Valid: true}
	case domain.PrintRoomAllocation:
		printRoom = sql.NullInt32{Int32: v.PrintRoomID, Valid: true}
	}
	return
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, rt *domain.RentalTransaction) error {
	if rt.Allocation == nil {
		return fmt.Errorf("%w: rental has no allocation", domain.ErrInvalidArgument)
	}
	room, practice, printRoom := allocationColumns(rt.Allocation)
	query := `INSERT INTO rental_transactions (student_id, org_id, kind, room_number, practice_room_id, print_room_id, storage_unit_id, checked_out_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rt.StudentID, rt.OrgID, rt.Allocation.Kind(), room, practice, printRoom,
		rt.StorageUnitID, rt.CheckedOutAt, domain.RentalStatusActive).Scan(&rt.ID)
	if err != nil {
		return classify("create rental transaction", err)
	}
	rt.Status = domain.RentalStatusActive
	return nil
}

func (r *ledgerRepository) CreateItem(ctx context.Context, item *domain.RentalItem) error {
	var room sql.NullString
	var practice, printRoom, storage sql.NullInt32
	id := sql.NullInt32{Int32: item.Resource.ID, Valid: true}
	switch item.Resource.Kind {
	case domain.ItemKindRoom:
		room = sql.NullString{String: item.Resource.RoomNumber, Valid: true}
	case domain.ItemKindPracticeRoom:
		practice = id
	case domain.ItemKindPrintRoom:
		printRoom = id
	case domain.ItemKindStorage:
		storage = id
	default:
		return fmt.Errorf("%w: unknown item kind %q", domain.ErrInvalidArgument, item.Resource.Kind)
	}
	query := `INSERT INTO rental_items (rental_transaction_id, item_kind, room_number, practice_room_id, print_room_id, storage_unit_id, checked_out_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, item.TransactionID, item.Resource.Kind, room, practice, printRoom, storage,
		item.CheckedOutAt, domain.RentalStatusActive).Scan(&item.ID)
	if err != nil {
		return classify("create rental item", err)
	}
	item.Status = domain.RentalStatusActive
	return nil
}

// CloseTransaction marks an active transaction returned. A transaction that
// is already returned keeps its original return time and reports 0 rows.
func (r *ledgerRepository) CloseTransaction(ctx context.Context, id int64, at time.Time) (int64, error) {
	query := `UPDATE rental_transactions SET status = 'returned', returned_at = COALESCE(returned_at, $2)
	          WHERE id = $1 AND status = 'active'`
	return r.exec(ctx, "close rental transaction", query, id, at)
}

func (r *ledgerRepository) CloseActiveItems(ctx context.Context, transactionID int64, at time.Time) (int64, error) {
	query := `UPDATE rental_items SET status = 'returned', returned_at = COALESCE(returned_at, $2)
	          WHERE rental_transaction_id = $1 AND status = 'active'`
	return r.exec(ctx, "close rental items", query, transactionID, at)
}

// CloseItem only touches an active item, so a repeated return reports
// closed=false and leaves the first return time alone.
func (r *ledgerRepository) CloseItem(ctx context.Context, itemID int64, at time.Time) (int64, bool, error) {
	var transactionID int64
	query := `UPDATE rental_items SET status = 'returned', returned_at = COALESCE(returned_at, $2)
	          WHERE id = $1 AND status = 'active' RETURNING rental_transaction_id`
	err := r.db.QueryRowContext(ctx, query, itemID, at).Scan(&transactionID)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify("close rental item", err)
	}
	return transactionID, true, nil
}

func (r *ledgerRepository) CountActiveItems(ctx context.Context, transactionID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM rental_items WHERE rental_transaction_id = $1 AND status = 'active'`
	if err := r.db.QueryRowContext(ctx, query, transactionID).Scan(&count); err != nil {
		return 0, classify("count rental items", err)
	}
	return count, nil
}

// DeleteByOrg removes an organization's ledger, items first.
func (r *ledgerRepository) DeleteByOrg(ctx context.Context, orgID int32) error {
	if _, err := r.exec(ctx, "delete rental items",
		`DELETE FROM rental_items WHERE rental_transaction_id IN (SELECT id FROM rental_transactions WHERE org_id = $1)`, orgID); err != nil {
		return err
	}
	_, err := r.exec(ctx, "delete rental transactions", `DELETE FROM rental_transactions WHERE org_id = $1`, orgID)
	return err
}

func (r *ledgerRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.exec(ctx, "delete rental items", `DELETE FROM rental_items`); err != nil {
		return err
	}
	_, err := r.exec(ctx, "delete rental transactions", `DELETE FROM rental_transactions`)
	return err
}

func (r *ledgerRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

func (r *ledgerRepository) ListActiveItems(ctx context.Context, transactionID int64) ([]domain.RentalItem, error) {
	query := `SELECT i.id, i.rental_transaction_id, i.item_kind, i.room_number,
	                 COALESCE(i.practice_room_id, i.print_room_id, i.storage_unit_id),
	                 COALESCE(p.name, pr.name, su.name, i.room_number, ''),
	                 i.checked_out_at, i.returned_at, i.status
	          FROM rental_items i
	          LEFT JOIN practice_rooms p ON p.id = i.practice_room_id
	          LEFT JOIN print_rooms pr ON pr.id = i.print_room_id
	          LEFT JOIN storage_units su ON su.id = i.storage_unit_id
	          WHERE i.rental_transaction_id = $1 AND i.status = 'active'
	          ORDER BY CASE i.item_kind WHEN 'room' THEN 0 WHEN 'practice_room' THEN 1 WHEN 'print_room' THEN 2 ELSE 3 END, i.id`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, classify("list rental items", err)
	}
	defer rows.Close()

	items := []domain.RentalItem{}
	for rows.Next() {
		var it domain.RentalItem
		var room sql.NullString
		var id sql.NullInt32
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.Resource.Kind, &room, &id, &it.Resource.Name,
			&it.CheckedOutAt, &it.ReturnedAt, &it.Status); err != nil {
			return nil, classify("scan rental item", err)
		}
		it.Resource.RoomNumber = room.String
		it.Resource.ID = id.Int32
		items = append(items, it)
	}
	return items, classify("list rental items", rows.Err())
}

const transactionSelect = `SELECT t.id, t.student_id, s.name, t.org_id, o.name, t.kind,
	       t.room_number, t.practice_room_id, COALESCE(p.name, ''), t.print_room_id, t.storage_unit_id,
	       t.checked_out_at, t.returned_at, t.status
	FROM rental_transactions t
	JOIN students s ON s.id = t.student_id
	JOIN organizations o ON o.id = t.org_id
	LEFT JOIN practice_rooms p ON p.id = t.practice_room_id`

func (r *ledgerRepository) ListActive(ctx context.Context) ([]domain.RentalTransaction, error) {
	query := transactionSelect + ` WHERE t.status = 'active' ORDER BY t.checked_out_at DESC, t.id DESC`
	return r.listTransactions(ctx, query)
}

func (r *ledgerRepository) ListHistory(ctx context.Context, limit int) ([]domain.RentalTransaction, error) {
	query := transactionSelect + ` ORDER BY t.checked_out_at DESC, t.id DESC LIMIT $1`
	return r.listTransactions(ctx, query, limit)
}

func (r *ledgerRepository) listTransactions(ctx context.Context, query string, args ...any) ([]domain.RentalTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list rental transactions", err)
	}
	defer rows.Close()

	rentals := []domain.RentalTransaction{}
	for rows.Next() {
		var rt domain.RentalTransaction
		var kind domain.RentalKind
		var room sql.NullString
		var practice, printRoom, storage sql.NullInt32
		if err := rows.Scan(&rt.ID, &rt.StudentID, &rt.StudentName, &rt.OrgID, &rt.OrgName, &kind,
			&room, &practice, &rt.PracticeRoomName, &printRoom, &storage,
			&rt.CheckedOutAt, &rt.ReturnedAt, &rt.Status); err != nil {
			return nil, classify("scan rental transaction", err)
		}
		switch kind {
		case domain.RentalKindRoom:
			rt.Allocation = domain.RoomAllocation{RoomNumber: room.String}
		case domain.RentalKindPractice:
			rt.Allocation = domain.PracticeAllocation{PracticeRoomID: practice.Int32}
		case domain.RentalKindPrintRoom:
			rt.Allocation = domain.PrintRoomAllocation{PrintRoomID: printRoom.Int32}
		case domain.RentalKindStorageOnly:
			rt.Allocation = domain.StorageOnlyAllocation{}
		default:
			return nil, classify("scan rental transaction", fmt.Errorf("unknown rental kind %q", kind))
		}
		if storage.Valid {
			id := storage.Int32
			rt.StorageUnitID = &id
		}
		rentals = append(rentals, rt)
	}
	return rentals, classify("list rental transactions", rows.Err())
}

// Usage reads the same active rows the checkout conflict checks consult.
func (r *ledgerRepository) Usage(ctx context.Context) (*domain.Usage, error) {
	query := `SELECT kind, room_number, COALESCE(practice_room_id, print_room_id)
	          FROM rental_transactions WHERE status = 'active' AND kind <> 'storage_only'
	          UNION ALL
	          SELECT 'storage', NULL, storage_unit_id
	          FROM rental_items WHERE status = 'active' AND item_kind = 'storage'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("read usage", err)
	}
	defer rows.Close()

	u := &domain.Usage{Rooms: []string{}, PracticeRoomIDs: []int32{}, PrintRoomIDs: []int32{}, StorageUnitIDs: []int32{}}
	for rows.Next() {
		var kind string
		var room sql.NullString
		var id sql.NullInt32
		if err := rows.Scan(&kind, &room, &id); err != nil {
			return nil, classify("scan usage", err)
		}
		switch kind {
		case string(domain.RentalKindRoom):
			u.Rooms = append(u.Rooms, room.String)
		case string(domain.RentalKindPractice):
			u.PracticeRoomIDs = append(u.PracticeRoomIDs, id.Int32)
		case string(domain.RentalKindPrintRoom):
			u.PrintRoomIDs = append(u.PrintRoomIDs, id.Int32)
		case string(domain.ItemKindStorage):
			u.StorageUnitIDs = append(u.StorageUnitIDs, id.Int32)
		}
	}
	return u, classify("read usage", rows.Err())
}
