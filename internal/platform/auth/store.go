package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"PONTO-backend/internal/platform/db"
)

type Account struct {
	ID           string // e-mail
	PasswordHash string
	Name         string
	Role         string
	IsDisabled   bool
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) (int64, error)
}

type Store struct {
	db      db.DBTX
	dialect db.Dialect
}

func NewStore(conn db.DBTX, dialect db.Dialect) AccountStore {
	return &Store{db: conn, dialect: dialect}
}

// GetByID returns (nil, nil) when no account matches.
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	q, args, err := s.dialect.Builder().
		Select("id", "password_hash", "name", "role", "is_disabled", "created_at").
		From("auth_accounts").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var a Account
	var isDisabledInt int
	var createdAt int64
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&a.ID,
		&a.PasswordHash,
		&a.Name,
		&a.Role,
		&isDisabledInt,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsDisabled = isDisabledInt != 0
	a.CreatedAt = time.UnixMilli(createdAt)
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	disabled := 0
	if a.IsDisabled {
		disabled = 1
	}
	q, args, err := s.dialect.Builder().
		Insert("auth_accounts").
		Columns("id", "password_hash", "name", "role", "is_disabled", "created_at").
		Values(a.ID, a.PasswordHash, a.Name, a.Role, disabled, a.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	q, args, err := s.dialect.Builder().
		Delete("auth_accounts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
