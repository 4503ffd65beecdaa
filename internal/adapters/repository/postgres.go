package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
)

//go:embed schema.sql
var schema string

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore persists the season in PostgreSQL.
type PostgresStore struct {
	db *sql.DB

	maxOpenConns    int
	connMaxLifetime time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens and pings the database at dsn.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	s := &PostgresStore{maxOpenConns: 10, connMaxLifetime: 30 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s.db = db
	return s, nil
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetOrCreateEvent implements Store.
func (s *PostgresStore) GetOrCreateEvent(ctx context.Context, date, location string) (int64, error) {
	const query = `
		INSERT INTO events (event_date, location) VALUES ($1, $2)
		ON CONFLICT (event_date) DO UPDATE SET event_date = EXCLUDED.event_date
		RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, query, date, location).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create event %s: %w", date, err)
	}
	return id, nil
}

// MaxRaceID implements Store.
func (s *PostgresStore) MaxRaceID(ctx context.Context) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(race_id), 0) FROM race_results`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("max race id: %w", err)
	}
	return id, nil
}

// InsertResults implements Store. The batch commits or rolls back as a whole.
func (s *PostgresStore) InsertResults(ctx context.Context, eventID int64, raceID int, records []model.PlacementRecord) (int, int, error) {
	defer observe("insert_results", time.Now())
	if raceID < 1 {
		return 0, 0, ErrInvalidRace
	}
	const query = `
		INSERT INTO race_results
			(event_id, race_id, gender, sport, division, first_name, last_name, school, place, time_seconds, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`
	return s.insertBatch(ctx, query, records, func(r model.PlacementRecord) []any {
		return []any{eventID, raceID, r.Gender, r.Sport, r.Division,
			r.FirstName, r.LastName, r.School, r.Place, r.TimeSeconds, r.Points}
	})
}

// InsertRun implements Store.
func (s *PostgresStore) InsertRun(ctx context.Context, eventID int64, run int, records []model.PlacementRecord) (int, int, error) {
	if !validRun(run) {
		return 0, 0, ErrInvalidRun
	}
	const query = `
		INSERT INTO qualifier_runs
			(event_id, run, gender, sport, division, first_name, last_name, school, place, time_seconds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`
	return s.insertBatch(ctx, query, records, func(r model.PlacementRecord) []any {
		return []any{eventID, run, r.Gender, r.Sport, r.Division,
			r.FirstName, r.LastName, r.School, r.Place, r.TimeSeconds, r.Status}
	})
}

func (s *PostgresStore) insertBatch(ctx context.Context, query string, records []model.PlacementRecord, args func(model.PlacementRecord) []any) (inserted, skipped int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		res, err := stmt.ExecContext(ctx, args(r)...)
		if err != nil {
			return 0, 0, mapPQError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			skipped++
			continue
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, skipped, nil
}

const selectResults = `
	SELECT r.race_id, r.gender, r.sport, r.division, r.first_name, r.last_name, r.school,
	       r.place, r.time_seconds, r.points, e.event_date
	FROM race_results r JOIN events e ON e.id = r.event_id`

// CategoryResults implements Store.
func (s *PostgresStore) CategoryResults(ctx context.Context, cat types.Category) ([]model.PlacementRecord, error) {
	defer observe("category_results", time.Now())
	recs, err := s.queryResults(ctx, selectResults+`
		WHERE r.gender = $1 AND r.sport = $2 AND r.division = $3
		ORDER BY r.race_id, r.id`, cat.Gender, cat.Sport, cat.Division)
	if err != nil {
		return nil, fmt.Errorf("category results %s: %w", cat.Slug(), err)
	}
	return numberRaces(recs), nil
}

// SportResults implements Store.
func (s *PostgresStore) SportResults(ctx context.Context, gender types.Gender, sport types.Sport) ([]model.PlacementRecord, error) {
	defer observe("sport_results", time.Now())
	recs, err := s.queryResults(ctx, selectResults+`
		WHERE r.gender = $1 AND r.sport = $2
		ORDER BY r.race_id, r.id`, gender, sport)
	if err != nil {
		return nil, fmt.Errorf("sport results %s %s: %w", gender, sport, err)
	}
	return numberRaces(recs), nil
}

func (s *PostgresStore) queryResults(ctx context.Context, query string, args ...any) ([]model.PlacementRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PlacementRecord{}
	for rows.Next() {
		var (
			r   model.PlacementRecord
			sec sql.NullFloat64
		)
		if err := rows.Scan(&r.RaceID, &r.Gender, &r.Sport, &r.Division, &r.FirstName, &r.LastName,
			&r.School, &r.Place, &sec, &r.Points, &r.EventDate); err != nil {
			return nil, err
		}
		if sec.Valid {
			r.TimeSeconds = &sec.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Races implements Store.
func (s *PostgresStore) Races(ctx context.Context) ([]model.RaceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.race_id, r.gender, r.sport, r.division, e.event_date
		FROM race_results r JOIN events e ON e.id = r.event_id
		ORDER BY r.race_id`)
	if err != nil {
		return nil, fmt.Errorf("races: %w", err)
	}
	defer rows.Close()

	races := []model.RaceInfo{}
	for rows.Next() {
		var ri model.RaceInfo
		if err := rows.Scan(&ri.RaceID, &ri.Category.Gender, &ri.Category.Sport, &ri.Category.Division, &ri.EventDate); err != nil {
			return nil, fmt.Errorf("races: %w", err)
		}
		races = append(races, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("races: %w", err)
	}
	return model.NumberRaces(races), nil
}

// Summary implements Store.
func (s *PostgresStore) Summary(ctx context.Context) (model.SeasonSummary, error) {
	var (
		sum  model.SeasonSummary
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM race_results),
			(SELECT COUNT(DISTINCT race_id) FROM race_results),
			(SELECT MAX(event_date) FROM events)`).
		Scan(&sum.EventCount, &sum.ResultCount, &sum.RaceCount, &last)
	if err != nil {
		return model.SeasonSummary{}, fmt.Errorf("summary: %w", err)
	}
	sum.LastEventDate = last.String
	return sum, nil
}

// FlagQualifier implements Store.
func (s *PostgresStore) FlagQualifier(ctx context.Context, eventID int64, sport types.Sport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO qualifier_events (event_id, sport) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, sport)
	if err != nil {
		return mapPQError(err)
	}
	return nil
}

// QualifierEvent implements Store.
func (s *PostgresStore) QualifierEvent(ctx context.Context, sport types.Sport) (*model.QualifierEvent, error) {
	q := model.QualifierEvent{Sport: sport}
	err := s.db.QueryRowContext(ctx, `
		SELECT q.event_id, e.event_date
		FROM qualifier_events q JOIN events e ON e.id = q.event_id
		WHERE q.sport = $1
		ORDER BY e.event_date DESC
		LIMIT 1`, sport).Scan(&q.EventID, &q.EventDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("qualifier event %s: %w", sport, err)
	}
	return &q, nil
}

// QualifierRuns implements Store.
func (s *PostgresStore) QualifierRuns(ctx context.Context, eventID int64, cat types.Category) ([]model.PlacementRecord, []model.PlacementRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.run, q.gender, q.sport, q.division, q.first_name, q.last_name, q.school,
		       q.place, q.time_seconds, q.status, e.event_date
		FROM qualifier_runs q JOIN events e ON e.id = q.event_id
		WHERE q.event_id = $1 AND q.gender = $2 AND q.sport = $3 AND q.division = $4
		ORDER BY q.run, q.id`, eventID, cat.Gender, cat.Sport, cat.Division)
	if err != nil {
		return nil, nil, fmt.Errorf("qualifier runs: %w", err)
	}
	defer rows.Close()

	var run1, run2 []model.PlacementRecord
	for rows.Next() {
		var (
			run int
			r   model.PlacementRecord
			sec sql.NullFloat64
		)
		if err := rows.Scan(&run, &r.Gender, &r.Sport, &r.Division, &r.FirstName, &r.LastName,
			&r.School, &r.Place, &sec, &r.Status, &r.EventDate); err != nil {
			return nil, nil, fmt.Errorf("qualifier runs: %w", err)
		}
		if sec.Valid {
			r.TimeSeconds = &sec.Float64
		}
		if run == Run1 {
			run1 = append(run1, r)
		} else {
			run2 = append(run2, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("qualifier runs: %w", err)
	}
	return run1, run2, nil
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrEventNotFound, pqErr.Constraint)
		case pqUniqueViolation:
			return fmt.Errorf("duplicate %s: %w", pqErr.Constraint, err)
		}
	}
	return err
}
