package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

//go:embed indexes.sql
var indexesSQL string

// querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run either standalone or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.StudentRepository
	repository.OrganizationRepository
	repository.CatalogRepository
	repository.LedgerRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		StudentRepository:      NewStudentRepository(db),
		OrganizationRepository: NewOrganizationRepository(db),
		CatalogRepository:      NewCatalogRepository(db),
		LedgerRepository:       NewLedgerRepository(db),
	}
}

// WithinTx runs fn in a serializable transaction. Serialization failures
// surface as retryable storage errors, either from a statement inside fn or
// from the commit.
func (s *Store) WithinTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(newUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// Migrate applies the idempotent table schema. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("migrate", "schema.sql")
	_, err := s.db.ExecContext(ctx, schemaSQL)
	logger.DatabaseResult("migrate", 0, err)
	return classify("migrate schema", err)
}

// EnforceActiveIndexes creates the partial unique indexes that back the
// single-active-rental rules. Ledgers written before the indexes existed may
// hold duplicates, so this runs after reconciliation has closed them.
func (s *Store) EnforceActiveIndexes(ctx context.Context) error {
	logger.DatabaseCall("migrate", "indexes.sql")
	_, err := s.db.ExecContext(ctx, indexesSQL)
	logger.DatabaseResult("migrate", 0, err)
	return classify("create active rental indexes", err)
}

func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.db.PingContext(ctx))
}

type unitOfWork struct {
	students repository.StudentRepository
	orgs     repository.OrganizationRepository
	catalog  repository.CatalogRepository
	ledger   repository.LedgerRepository
}

func newUnitOfWork(q querier) *unitOfWork {
	return &unitOfWork{
		students: &studentRepository{db: q},
		orgs:     &organizationRepository{db: q},
		catalog:  &catalogRepository{db: q},
		ledger:   &ledgerRepository{db: q},
	}
}

func (u *unitOfWork) Students() repository.StudentRepository           { return u.students }
func (u *unitOfWork) Organizations() repository.OrganizationRepository { return u.orgs }
func (u *unitOfWork) Catalog() repository.CatalogRepository            { return u.catalog }
func (u *unitOfWork) Ledger() repository.LedgerRepository              { return u.ledger }
