package source

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the warehouse source needs. pgxmock's
// pool satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresSource reads raw observations from the warehouse observation table.
type PostgresSource struct {
	pool Pool
}

// NewPostgres connects a pgx pool to the warehouse.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: connect postgres")
	}
	return &PostgresSource{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Close releases the underlying pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// ObservationSQL returns the warehouse query for a scope. The ORDER BY pins
// the input sequence so duplicate tie-breaking is deterministic across runs.
func ObservationSQL(scope model.Scope) (string, []any) {
	sql := `
		SELECT unit_code, unit_name, indicator_code, indicator_name, date, value, submitted_at
		FROM observation
		WHERE country_code = $1
		  AND unit_level = $2`
	args := []any{scope.CountryCode, scope.UnitLevel}

	if scope.DateMin != nil {
		args = append(args, scope.DateMin.Time())
		sql += "\n\t\t  AND date >= $3"
	}
	if scope.DateMax != nil {
		args = append(args, scope.DateMax.Time())
		if scope.DateMin != nil {
			sql += "\n\t\t  AND date <= $4"
		} else {
			sql += "\n\t\t  AND date <= $3"
		}
	}

	sql += "\n\t\tORDER BY unit_code, indicator_code, date, submitted_at"
	return sql, args
}

// Fetch queries the observation table for the scope.
func (s *PostgresSource) Fetch(ctx context.Context, scope model.Scope) ([]model.RawRecord, error) {
	sql, args := ObservationSQL(scope)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "source: query observations")
	}
	defer rows.Close()

	var records []model.RawRecord
	for rows.Next() {
		var (
			r           model.RawRecord
			date        time.Time
			submittedAt time.Time
		)
		if err := rows.Scan(&r.UnitID, &r.UnitName, &r.IndicatorID, &r.IndicatorName, &date, &r.Value, &submittedAt); err != nil {
			return nil, eris.Wrap(err, "source: scan observation")
		}
		r.Period = model.PeriodOf(date)
		r.SubmittedAt = submittedAt
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: read observations")
	}

	zap.L().Info("fetched raw observations",
		zap.String("driver", "postgres"),
		zap.String("country", scope.CountryCode),
		zap.Int("unit_level", scope.UnitLevel),
		zap.Int("records", len(records)),
	)
	return records, nil
}
