package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/glotchimo/slashbridge/internal/models"
	"github.com/glotchimo/slashbridge/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/graxinc/errutil"
)

type Database struct {
	l       *slog.Logger
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewDatabase(l *slog.Logger, databaseURL, migrationsURL string) (*Database, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errutil.With(err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	database := New(l, db)

	if err := database.Migrate(migrationsURL, databaseURL); err != nil {
		return nil, errutil.With(err)
	}

	return database, nil
}

// New wraps an open handle without running migrations.
func New(l *slog.Logger, db *sql.DB) *Database {
	cache := sq.NewStmtCache(db)
	return &Database{l: l, db: db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(cache)}
}

func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) Migrate(migrationsURL, databaseURL string) error {
	m, err := migrate.New(migrationsURL, databaseURL)
	if err != nil {
		return errutil.With(err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errutil.With(err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errutil.With(err)
	}

	db.l.Info("migrations applied", "version", version, "dirty", dirty)

	return nil
}

func (db *Database) Create(ctx context.Context, m models.Mappable) error {
	data := m.Map()
	data["created"] = time.Now().UTC()
	q := db.builder.
		Insert(string(m.Table())).
		SetMap(data)

	if _, err := q.ExecContext(ctx); err != nil {
		return errutil.With(err)
	}

	return nil
}

func (db *Database) Count(ctx context.Context, table models.Table, where sq.Eq) (int, error) {
	var count int

	q := db.builder.
		Select("COUNT(*)").
		From(string(table)).
		Where(where)

	if err := q.QueryRowContext(ctx).Scan(&count); err != nil {
		return count, errutil.With(err)
	}

	return count, nil
}

// Prune deletes rows created before cutoff and reports how many went.
func (db *Database) Prune(ctx context.Context, table models.Table, cutoff time.Time) (int64, error) {
	q := db.builder.
		Delete(string(table)).
		Where(sq.Lt{"created": cutoff.UTC()})

	res, err := q.ExecContext(ctx)
	if err != nil {
		return 0, errutil.With(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errutil.With(err)
	}

	return n, nil
}

// LogInteraction stores an interaction claimed by this process.
func (db *Database) LogInteraction(ctx context.Context, i models.Interaction) error {
	return db.Create(ctx, i)
}

// RecordSync stores one scope push.
func (db *Database) RecordSync(ctx context.Context, s models.CommandSync) error {
	if s.ID == "" {
		s.ID = utils.GenerateID()
	}
	return db.Create(ctx, s)
}

// LastSync returns the most recent push to scope, or nil when there is none.
func (db *Database) LastSync(ctx context.Context, scope string) (*models.CommandSync, error) {
	var s models.CommandSync
	var durationMS int64

	q := db.builder.
		Select(
			"id",
			"scope",
			"hash",
			"count",
			"duration_ms",
			"error",
			"created").
		From(string(models.TableCommandSyncs)).
		Where(sq.Eq{"scope": scope}).
		OrderBy("created DESC").
		Limit(1)

	if err := q.QueryRowContext(ctx).Scan(
		&s.ID,
		&s.Scope,
		&s.Hash,
		&s.Count,
		&durationMS,
		&s.Error,
		&s.Created,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errutil.Wrap(err)
	}

	s.Duration = time.Duration(durationMS) * time.Millisecond
	return &s, nil
}
