// Package pgstore is the Postgres-backed AccountStorage. Finalization runs
// as a single transaction: the college is resolved or created, then the
// account is inserted keyed by session id, so a replayed finalization finds
// the prior row instead of creating a second account.
package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/enrollkit/svc/registration"
)

const (
	pgUniqueViolation = "23505"

	emailUniqueConstraint = "accounts_email_key"
)

// Storage implements registration.AccountStorage on a pgx pool.
type Storage struct {
	pool *pgxpool.Pool
}

// New returns a storage over the given pool.
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

const selectCollegeByID = `
SELECT id, name FROM colleges WHERE id = $1`

const upsertCollegeByName = `
INSERT INTO colleges (id, name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name`

const insertAccount = `
INSERT INTO accounts (id, session_id, email, phone, name, role, password_hash, college_id, position, department)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id) DO NOTHING
RETURNING id, created_at`

const selectAccountBySession = `
SELECT a.id, a.email, a.phone, a.name, a.role, a.created_at, c.id, c.name
FROM accounts a
JOIN colleges c ON c.id = a.college_id
WHERE a.session_id = $1`

func (s *Storage) GetCollege(ctx context.Context, id uuid.UUID) (*registration.College, error) {
	var college registration.College
	err := s.pool.QueryRow(ctx, selectCollegeByID, id).Scan(&college.ID, &college.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registration.ErrCollegeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &college, nil
}

func (s *Storage) CreateAccount(ctx context.Context, params registration.CreateAccountParams) (*registration.Account, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var college registration.College
	if params.CollegeID != uuid.Nil {
		err = tx.QueryRow(ctx, selectCollegeByID, params.CollegeID).Scan(&college.ID, &college.Name)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registration.ErrCollegeNotFound
		}
	} else {
		err = tx.QueryRow(ctx, upsertCollegeByName, uuid.New(), params.CollegeName).Scan(&college.ID, &college.Name)
	}
	if err != nil {
		return nil, err
	}

	account := &registration.Account{
		ID:      uuid.New(),
		Email:   params.Email,
		Phone:   params.Phone,
		Name:    params.Name,
		Role:    params.Role,
		College: college,
	}
	err = tx.QueryRow(ctx, insertAccount,
		account.ID, params.SessionID, params.Email, params.Phone, params.Name,
		params.Role, string(params.PasswordHash), college.ID, params.Position, params.Department,
	).Scan(&account.ID, &account.CreatedAt)

	switch {
	case err == nil:
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Session already committed an account; return it unchanged.
		existing, getErr := scanAccountBySession(ctx, tx, params.SessionID)
		if getErr != nil {
			return nil, getErr
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return existing, nil
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailUniqueConstraint {
			return nil, registration.ErrDuplicateAccount
		}
		return nil, err
	}
}

func scanAccountBySession(ctx context.Context, tx pgx.Tx, sessionID string) (*registration.Account, error) {
	var account registration.Account
	err := tx.QueryRow(ctx, selectAccountBySession, sessionID).Scan(
		&account.ID, &account.Email, &account.Phone, &account.Name, &account.Role,
		&account.CreatedAt, &account.College.ID, &account.College.Name,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
