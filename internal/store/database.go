package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/entity"
)

// Database holds the alias catalog: the teams, players, and alias rows that
// seed the in-memory registry at startup. It is read once per process start
// and never consulted while answering a question.
type Database struct {
	conn *sql.DB
	log  *logrus.Logger
}

// NewDatabase opens a connection pool and verifies it with a ping.
func NewDatabase(dsn string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{conn: db, log: log}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// EnsureSchema creates the catalog tables when they do not exist yet.
func (db *Database) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id SERIAL PRIMARY KEY,
			canonical_name VARCHAR(128) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			abbreviation VARCHAR(8) NOT NULL DEFAULT '',
			team_affiliation VARCHAR(128) NOT NULL DEFAULT '',
			espn_id VARCHAR(32) NOT NULL DEFAULT '',
			conference VARCHAR(16) NOT NULL DEFAULT '',
			UNIQUE (canonical_name, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS entity_aliases (
			entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			alias VARCHAR(128) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			PRIMARY KEY (alias, kind)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	db.log.Info("✓ catalog schema ready")
	return nil
}

// SeedCatalog upserts the registry's entities and aliases into the catalog,
// so a fresh database starts with the built-in seed set.
func (db *Database) SeedCatalog(ctx context.Context, registry *entity.Registry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	entities := append(registry.Entities(entity.KindTeam), registry.Entities(entity.KindPlayer)...)
	for _, e := range entities {
		var id int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO entities (canonical_name, kind, abbreviation, team_affiliation, espn_id, conference)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (canonical_name, kind) DO UPDATE SET
				abbreviation = EXCLUDED.abbreviation,
				team_affiliation = EXCLUDED.team_affiliation,
				espn_id = EXCLUDED.espn_id,
				conference = EXCLUDED.conference
			RETURNING id`,
			e.CanonicalName, string(e.Kind), e.Abbreviation, e.TeamAffiliation, e.ESPNID, e.Conference,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to upsert entity %s: %w", e.CanonicalName, err)
		}
		for _, alias := range registry.Aliases(e) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entity_aliases (entity_id, alias, kind)
				VALUES ($1, $2, $3)
				ON CONFLICT (alias, kind) DO UPDATE SET entity_id = EXCLUDED.entity_id`,
				id, alias, string(e.Kind),
			); err != nil {
				return fmt.Errorf("failed to upsert alias %q: %w", alias, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.log.Info("✓ catalog seeded")
	return nil
}

// LoadRegistry builds the immutable registry from the catalog tables. The
// returned registry is the only view of this data the pipeline ever sees.
func (db *Database) LoadRegistry(ctx context.Context) (*entity.Registry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT e.canonical_name, e.kind, e.abbreviation, e.team_affiliation, e.espn_id, e.conference, a.alias
		FROM entities e
		JOIN entity_aliases a ON a.entity_id = e.id
		ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rows.Close()

	registry := entity.NewRegistry()
	byName := make(map[string]*entity.Entity)
	aliases := make(map[string][]string)
	var order []string

	for rows.Next() {
		var e entity.Entity
		var kind, alias string
		if err := rows.Scan(&e.CanonicalName, &kind, &e.Abbreviation, &e.TeamAffiliation, &e.ESPNID, &e.Conference, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.Kind = entity.Kind(kind)
		key := e.CanonicalName + "/" + kind
		if _, seen := byName[key]; !seen {
			copied := e
			byName[key] = &copied
			order = append(order, key)
		}
		aliases[key] = append(aliases[key], alias)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	for _, key := range order {
		e := byName[key]
		if err := registry.Add(e, aliases[key]...); err != nil {
			return nil, fmt.Errorf("catalog has conflicting aliases: %w", err)
		}
	}

	db.log.WithField("entities", len(order)).Info("✓ registry loaded from catalog")
	return registry, nil
}
