package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ===== Service =====

type Service struct {
	repo  Repository
	cache *MonthCache
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithLogger(l *slog.Logger) Option     { return func(s *Service) { s.log = l } }

// NewService wires the repository and an optional month cache (nil disables caching).
func NewService(repo Repository, cache *MonthCache, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		repo:  repo,
		cache: cache,
		loc:   loc,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FindByDateRange returns the records with start <= occurred_at <= end.
func (s *Service) FindByDateRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	recs, err := s.repo.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, ErrStorage("Falha ao consultar registros.", fmt.Errorf("find by date range: %w", err))
	}
	return recs, nil
}

// monthRecords goes through the cache.
func (s *Service) monthRecords(ctx context.Context, r MonthRange) ([]Record, error) {
	key := r.Key()
	recs, epoch, ok := s.cache.Get(key)
	if ok {
		return recs, nil
	}

	recs, err := s.FindByDateRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, recs, epoch)
	return recs, nil
}

// FindMonth never fails: query errors come back as Success=false.
// It always reads storage; the month cache is not consulted.
func (s *Service) FindMonth(ctx context.Context, month, year int) FindMonthResult {
	r, err := ResolveMonthRange(month, year, s.loc)
	if err != nil {
		return FindMonthResult{Success: false, Data: []MonthRecord{}, Error: messageOf(err)}
	}

	recs, err := s.FindByDateRange(ctx, r.Start, r.End)
	if err != nil {
		s.log.ErrorContext(ctx, "presence.find_month", slog.Int("month", month), slog.Int("year", year), slog.Any("error", err))
		return FindMonthResult{Success: false, Data: []MonthRecord{}, Error: messageOf(err)}
	}

	data := make([]MonthRecord, 0, len(recs))
	for i := 0; i < len(recs); i++ {
		data = append(data, recs[i].toMonthRecord())
	}

	msg := fmt.Sprintf("Nenhum registro encontrado para %d/%d", month, year)
	if len(data) > 0 {
		msg = fmt.Sprintf("%d registro(s) encontrado(s) para %d/%d", len(data), month, year)
	}
	period := r.Period()
	return FindMonthResult{
		Success: true,
		Data:    data,
		Message: msg,
		Period:  &period,
	}
}

// ListMonth backs GET /date. A nil month or year means "current" in the app location.
func (s *Service) ListMonth(ctx context.Context, month, year *int) ([]RawRecord, error) {
	now := s.now().In(s.loc)
	m, y := int(now.Month()), now.Year()
	if month != nil {
		m = *month
	}
	if year != nil {
		y = *year
	}
	r, err := ResolveMonthRange(m, y, s.loc)
	if err != nil {
		return nil, err
	}
	recs, err := s.monthRecords(ctx, r)
	if err != nil {
		return nil, err
	}
	out := make([]RawRecord, 0, len(recs))
	for i := 0; i < len(recs); i++ {
		out = append(out, recs[i].toRaw())
	}
	return out, nil
}

// CreateRecord validates and persists one record. It never returns an error:
// every failure is reported through CreateResult.
func (s *Service) CreateRecord(ctx context.Context, in CreateInput) CreateResult {
	status, err := s.validate(in)
	if err != nil {
		return failed(err)
	}

	occurredAt := time.Date(in.Year, time.Month(in.Month), in.Day, in.Hour, in.Minute, 0, 0, s.loc)
	rec, err := s.repo.Insert(ctx, occurredAt, status, normalizeObservation(in.Observation), s.now().In(s.loc))
	if err != nil {
		var api *APIError
		if !errors.As(err, &api) {
			err = &APIError{Code: CodeStorageUnavailable, Message: "Erro ao processar: " + err.Error(), cause: err}
		}
		s.log.ErrorContext(ctx, "presence.create", slog.Any("error", err))
		return failed(err)
	}

	s.cache.Invalidate(monthKeyOf(rec.OccurredAt, s.loc))
	s.log.InfoContext(ctx, "presence.created",
		slog.Int64("id", rec.ID),
		slog.String("status", string(rec.Status)),
		slog.Time("occurred_at", rec.OccurredAt),
	)

	created := rec.toCreated()
	return CreateResult{
		Success: true,
		Message: "Registro criado com sucesso!",
		Data:    &created,
	}
}

// Delete removes a record by id and drops its month from the cache.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalid("id deve ser um inteiro positivo")
	}
	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, errRowNotFound) {
		return ErrNotFound(fmt.Sprintf("Registro %d não encontrado.", id))
	}
	if err != nil {
		return ErrStorage("Falha ao consultar registro.", err)
	}

	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return ErrStorage("Falha ao remover registro.", err)
	}
	if n == 0 {
		return ErrNotFound(fmt.Sprintf("Registro %d não encontrado.", id))
	}

	s.cache.Invalidate(monthKeyOf(rec.OccurredAt, s.loc))
	s.log.InfoContext(ctx, "presence.deleted", slog.Int64("id", id))
	return nil
}

// ===== helpers =====

// validate applies the checks in order; the first failure wins.
func (s *Service) validate(in CreateInput) (Status, error) {
	if in.Day < 1 || in.Day > 31 || in.Month < 1 || in.Month > 12 {
		return "", ErrInvalidDate("Data inválida. Dia deve estar entre 1-31 e mês entre 1-12.")
	}
	if in.Year < 1 || in.Year > 9999 {
		return "", ErrInvalidDate("Data inválida. Ano deve estar entre 1-9999.")
	}
	if in.Hour < 0 || in.Hour > 23 || in.Minute < 0 || in.Minute > 59 {
		return "", ErrInvalidTime("Hora inválida. Hora deve estar entre 0-23 e minuto entre 0-59.")
	}
	if in.Day > daysIn(in.Month, in.Year, s.loc) {
		return "", ErrInvalidDate(fmt.Sprintf("Data inválida. %02d/%02d/%04d não existe.", in.Day, in.Month, in.Year))
	}
	return ParseStatus(in.Status)
}

func failed(err error) CreateResult {
	return CreateResult{Success: false, Error: messageOf(err), Code: CodeOf(err)}
}

func messageOf(err error) string {
	var api *APIError
	if errors.As(err, &api) {
		return api.Message
	}
	return err.Error()
}

func normalizeObservation(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func monthKeyOf(t time.Time, loc *time.Location) MonthKey {
	t = t.In(loc)
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}
