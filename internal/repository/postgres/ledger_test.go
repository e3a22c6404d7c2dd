package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository/postgres"
)

func TestLedgerRepository_CreateTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Room", func(t *testing.T) {
		rt := &domain.RentalTransaction{
			StudentID:    "S1",
			OrgID:        1,
			Allocation:   domain.RoomAllocation{RoomNumber: "101"},
			CheckedOutAt: now,
		}
		mock.ExpectQuery("INSERT INTO rental_transactions").
			WithArgs("S1", int32(1), "room", "101", nil, nil, nil, now, "active").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		err := repo.CreateTransaction(ctx, rt)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), rt.ID)
		assert.Equal(t, domain.RentalStatusActive, rt.Status)
	})

	t.Run("StorageOnly", func(t *testing.T) {
		unit := int32(3)
		rt := &domain.RentalTransaction{
			StudentID:     "S1",
			OrgID:         1,
			Allocation:    domain.StorageOnlyAllocation{},
			StorageUnitID: &unit,
			CheckedOutAt:  now,
		}
		mock.ExpectQuery("INSERT INTO rental_transactions").
			WithArgs("S1", int32(1), "storage_only", nil, nil, nil, int64(3), now, "active").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

		assert.NoError(t, repo.CreateTransaction(ctx, rt))
		assert.Equal(t, int64(8), rt.ID)
	})

	t.Run("UniqueViolationIsRetryable", func(t *testing.T) {
		rt := &domain.RentalTransaction{
			StudentID:    "S1",
			OrgID:        1,
			Allocation:   domain.PracticeAllocation{PracticeRoomID: 2},
			CheckedOutAt: now,
		}
		mock.ExpectQuery("INSERT INTO rental_transactions").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "ux_rental_tx_active_practice"})

		err := repo.CreateTransaction(ctx, rt)
		assert.ErrorIs(t, err, domain.ErrStorageFailure)
		assert.True(t, domain.IsRetryable(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CreateItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	item := &domain.RentalItem{
		TransactionID: 7,
		Resource:      domain.ItemResource{Kind: domain.ItemKindStorage, ID: 4},
		CheckedOutAt:  now,
	}
	mock.ExpectQuery("INSERT INTO rental_items").
		WithArgs(int64(7), "storage", nil, nil, nil, int64(4), now, "active").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	assert.NoError(t, repo.CreateItem(context.Background(), item))
	assert.Equal(t, int64(11), item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AllocationHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("PrintRoom", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM rental_transactions").
			WithArgs("print_room", int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		held, err := repo.AllocationHeld(ctx, domain.PrintRoomAllocation{PrintRoomID: 1})
		assert.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("StorageOnlyHoldsNothing", func(t *testing.T) {
		held, err := repo.AllocationHeld(ctx, domain.StorageOnlyAllocation{})
		assert.NoError(t, err)
		assert.False(t, held)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CloseItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Active", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE rental_items SET status = 'returned', returned_at = COALESCE(returned_at, $2) WHERE id = $1 AND status = 'active'")).
			WithArgs(int64(11), now).
			WillReturnRows(sqlmock.NewRows([]string{"rental_transaction_id"}).AddRow(7))

		txID, closed, err := repo.CloseItem(ctx, 11, now)
		assert.NoError(t, err)
		assert.True(t, closed)
		assert.Equal(t, int64(7), txID)
	})

	t.Run("AlreadyReturned", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = 'active'")).
			WithArgs(int64(11), now.Add(time.Hour)).
			WillReturnRows(sqlmock.NewRows([]string{"rental_transaction_id"}))

		_, closed, err := repo.CloseItem(ctx, 11, now.Add(time.Hour))
		assert.NoError(t, err)
		assert.False(t, closed)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("UPDATE rental_items").
			WithArgs(int64(99), now).
			WillReturnRows(sqlmock.NewRows([]string{"rental_transaction_id"}))

		_, closed, err := repo.CloseItem(ctx, 99, now)
		assert.NoError(t, err)
		assert.False(t, closed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CloseTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE rental_transactions SET status = 'returned'").
		WithArgs(int64(7), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rental_transactions SET status = 'returned'").
		WithArgs(int64(7), now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.CloseTransaction(context.Background(), 7, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CloseTransaction(context.Background(), 7, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	cols := []string{"id", "student_id", "student_name", "org_id", "org_name", "kind",
		"room_number", "practice_room_id", "practice_room_name", "print_room_id", "storage_unit_id",
		"checked_out_at", "returned_at", "status"}
	mock.ExpectQuery("SELECT t.id, t.student_id").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "S2", "Bob", 1, "Brass Band", "practice", nil, 5, "Music Room 1", nil, 3, now, nil, "active").
			AddRow(1, "S1", "Ann", 1, "Brass Band", "room", "101", nil, "", nil, nil, now, nil, "active"))

	rentals, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rentals, 2)

	assert.Equal(t, domain.PracticeAllocation{PracticeRoomID: 5}, rentals[0].Allocation)
	assert.Equal(t, "Music Room 1", rentals[0].PracticeRoomName)
	require.NotNil(t, rentals[0].StorageUnitID)
	assert.Equal(t, int32(3), *rentals[0].StorageUnitID)

	assert.Equal(t, domain.RoomAllocation{RoomNumber: "101"}, rentals[1].Allocation)
	assert.Nil(t, rentals[1].StorageUnitID)
	assert.Nil(t, rentals[1].ReturnedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Usage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)

	t.Run("Populated", func(t *testing.T) {
		mock.ExpectQuery("SELECT kind, room_number").
			WillReturnRows(sqlmock.NewRows([]string{"kind", "room_number", "id"}).
				AddRow("room", "101", nil).
				AddRow("practice", nil, 5).
				AddRow("print_room", nil, 1).
				AddRow("storage", nil, 3))

		u, err := repo.Usage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"101"}, u.Rooms)
		assert.Equal(t, []int32{5}, u.PracticeRoomIDs)
		assert.Equal(t, []int32{1}, u.PrintRoomIDs)
		assert.Equal(t, []int32{3}, u.StorageUnitIDs)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT kind, room_number").
			WillReturnRows(sqlmock.NewRows([]string{"kind", "room_number", "id"}))

		u, err := repo.Usage(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, u.Rooms)
		assert.Empty(t, u.Rooms)
		assert.Empty(t, u.StorageUnitIDs)
	})

	t.Run("DriverError", func(t *testing.T) {
		mock.ExpectQuery("SELECT kind, room_number").WillReturnError(errors.New("connection reset"))

		_, err := repo.Usage(context.Background())
		assert.ErrorIs(t, err, domain.ErrStorageFailure)
		assert.False(t, domain.IsRetryable(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_DeleteByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)

	mock.ExpectExec("DELETE FROM rental_items").WithArgs(int32(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM rental_transactions").WithArgs(int32(4)).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteByOrg(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
