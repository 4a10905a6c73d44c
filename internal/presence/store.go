package presence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"PONTO-backend/internal/platform/db"
)

const table = "presences"

var columns = []string{"id", "occurred_at", "status", "observation", "created_at"}

// Repository is the persistence contract the service depends on.
type Repository interface {
	FindByDateRange(ctx context.Context, start, end time.Time) ([]Record, error)
	Insert(ctx context.Context, occurredAt time.Time, status Status, observation *string, createdAt time.Time) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type Store struct {
	db      db.DBTX
	dialect db.Dialect
	loc     *time.Location
}

func NewStore(conn db.DBTX, dialect db.Dialect, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: conn, dialect: dialect, loc: loc}
}

// FindByDateRange: start <= occurred_at <= end, ascending.
func (s *Store) FindByDateRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	q, args, err := s.dialect.Builder().
		Select(columns...).
		From(table).
		Where(sq.And{
			sq.GtOrEq{"occurred_at": start.UnixMilli()},
			sq.LtOrEq{"occurred_at": end.UnixMilli()},
		}).
		OrderBy("occurred_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r.toModel(s.loc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert writes one row and returns it as stored. Dialects with RETURNING get
// the row back from the INSERT itself; MySQL reads it back by LastInsertId.
// A write that reports zero affected rows is a PersistenceFailure, not a driver error.
func (s *Store) Insert(ctx context.Context, occurredAt time.Time, status Status, observation *string, createdAt time.Time) (Record, error) {
	ins := s.dialect.Builder().
		Insert(table).
		Columns("occurred_at", "status", "observation", "created_at").
		Values(occurredAt.UnixMilli(), string(status), observationOrNil(observation), createdAt.UnixMilli())

	if s.dialect.Returning {
		q, args, err := ins.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
		if err != nil {
			return Record{}, err
		}
		r, err := scanRow(s.db.QueryRowContext(ctx, q, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrPersistence("Falha ao criar registro no banco de dados.")
		}
		if err != nil {
			return Record{}, err
		}
		return r.toModel(s.loc), nil
	}

	q, args, err := ins.ToSql()
	if err != nil {
		return Record{}, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return Record{}, err
	}
	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		return Record{}, ErrPersistence("Falha ao criar registro no banco de dados.")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, err
	}

	rec, err := s.GetByID(ctx, id)
	if errors.Is(err, errRowNotFound) {
		return Record{}, ErrPersistence("Falha ao criar registro no banco de dados.")
	}
	return rec, err
}

var errRowNotFound = errors.New("presence row not found")

func (s *Store) GetByID(ctx context.Context, id int64) (Record, error) {
	q, args, err := s.dialect.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Record{}, err
	}

	r, err := scanRow(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errRowNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return r.toModel(s.loc), nil
}

// Delete removes the row and reports how many rows matched.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	q, args, err := s.dialect.Builder().
		Delete(table).
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

// ===== helpers =====

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(sc rowScanner) (presenceRow, error) {
	var r presenceRow
	err := sc.Scan(&r.ID, &r.OccurredAt, &r.Status, &r.Observation, &r.CreatedAt)
	return r, err
}

func observationOrNil(s *string) any {
	if s == nil {
		return nil
	}
	if *s == "" {
		return nil
	}
	return *s
}
