package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scope-labs/provider-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	country       TEXT,
	location      TEXT,
	tier          TEXT,
	website       TEXT,
	description   TEXT,
	services      TEXT NOT NULL DEFAULT '[]',
	refs_list     TEXT NOT NULL DEFAULT '[]',
	price         REAL,
	source_url    TEXT,
	collected_at  DATETIME,
	completeness  REAL NOT NULL DEFAULT 0,
	validity      REAL NOT NULL DEFAULT 0,
	quality_score REAL NOT NULL DEFAULT 0,
	flags         TEXT NOT NULL DEFAULT '{}',
	category      TEXT,
	service_match TEXT,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS provider_references (
	id           TEXT PRIMARY KEY,
	provider_id  TEXT NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
	client_name  TEXT NOT NULL,
	country      TEXT,
	industry     TEXT,
	project_size TEXT,
	timeline     TEXT,
	outcomes     TEXT,
	source_url   TEXT,
	flagged      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_providers_country ON providers(country);
CREATE INDEX IF NOT EXISTS idx_providers_tier ON providers(tier);
CREATE INDEX IF NOT EXISTS idx_providers_quality ON providers(quality_score);
CREATE INDEX IF NOT EXISTS idx_providers_services ON providers(services);
CREATE INDEX IF NOT EXISTS idx_references_provider_id ON provider_references(provider_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsert = `
INSERT INTO providers (
	id, name, country, location, tier, website, description,
	services, refs_list, price, source_url, collected_at,
	completeness, validity, quality_score, flags, category, service_match, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	name = excluded.name, country = excluded.country, location = excluded.location,
	tier = excluded.tier, website = excluded.website, description = excluded.description,
	services = excluded.services, refs_list = excluded.refs_list, price = excluded.price,
	source_url = excluded.source_url, collected_at = excluded.collected_at,
	completeness = excluded.completeness, validity = excluded.validity,
	quality_score = excluded.quality_score, flags = excluded.flags,
	category = excluded.category, service_match = excluded.service_match,
	updated_at = excluded.updated_at`

func (s *SQLiteStore) UpsertProviders(ctx context.Context, providers []model.Provider) (int, error) {
	if len(providers) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range providers {
		services, flags, refs, err := encodeLists(p)
		if err != nil {
			return 0, err
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Name, p.Country, p.Location, string(p.Tier), p.Website, p.Description,
			services, refs, p.Price, p.SourceURL, p.CollectedAt,
			p.CompletenessScore, p.ValidityScore, p.QualityScore, flags,
			p.Category, p.ServiceMatch, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert provider %s", p.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(providers), nil
}

const sqliteProviderColumns = `id, name, country, location, tier, website, description,
	services, refs_list, price, source_url, collected_at,
	completeness, validity, quality_score, flags, category, service_match`

func (s *SQLiteStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteProviderColumns+` FROM providers WHERE id = ?`, id)
	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("provider not found: %s", id)
	}
	return p, err
}

func (s *SQLiteStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT ` + sqliteProviderColumns + ` FROM providers WHERE 1=1`
	var args []any

	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, filter.Country)
	}
	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, filter.Tier)
	}
	if filter.MinQuality > 0 {
		query += ` AND quality_score >= ?`
		args = append(args, filter.MinQuality)
	}
	if filter.Service != "" {
		query += ` AND services LIKE ?`
		args = append(args, "%"+filter.Service+"%")
	}
	query += ` ORDER BY quality_score DESC, name ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list providers")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, eris.Wrap(rows.Err(), "sqlite: list providers iterate")
}

func (s *SQLiteStore) CountProviders(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM providers`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count providers")
}

func (s *SQLiteStore) CountByCountry(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, "country")
}

func (s *SQLiteStore) CountByTier(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, "tier")
}

func (s *SQLiteStore) groupCount(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM providers GROUP BY `+column)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: count by %s", column)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan count by %s", column)
		}
		counts[key] = n
	}
	return counts, eris.Wrapf(rows.Err(), "sqlite: count by %s iterate", column)
}

func (s *SQLiteStore) DeleteProvider(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete provider %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("provider not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) ReplaceReferences(ctx context.Context, providerID string, refs []model.Reference) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace references")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM provider_references WHERE provider_id = ?`, providerID); err != nil {
		return eris.Wrapf(err, "sqlite: clear references for %s", providerID)
	}
	for _, r := range refs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO provider_references
			 (id, provider_id, client_name, country, industry, project_size, timeline, outcomes, source_url, flagged)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, providerID, r.ClientName, r.Country, r.Industry,
			r.ProjectSize, r.Timeline, r.Outcomes, r.SourceURL, r.Flagged,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert reference %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace references")
}

func (s *SQLiteStore) ListReferences(ctx context.Context, providerID string) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider_id, client_name, country, industry, project_size, timeline, outcomes, source_url, flagged
		 FROM provider_references WHERE provider_id = ? ORDER BY client_name`,
		providerID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list references for %s", providerID)
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.ProviderID, &r.ClientName, &r.Country, &r.Industry,
			&r.ProjectSize, &r.Timeline, &r.Outcomes, &r.SourceURL, &r.Flagged); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reference")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: list references iterate")
}

// helpers

func encodeLists(p model.Provider) (services, flags, refs string, err error) {
	s, err := json.Marshal(emptySlice(p.Services))
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal services")
	}
	f, err := json.Marshal(p.Flags)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal flags")
	}
	r, err := json.Marshal(emptySlice(p.References))
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal references")
	}
	return string(s), string(f), string(r), nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProvider(row scannable) (*model.Provider, error) {
	var p model.Provider
	var tier, servicesJSON, refsJSON, flagsJSON string
	var collectedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.Country, &p.Location, &tier, &p.Website, &p.Description,
		&servicesJSON, &refsJSON, &p.Price, &p.SourceURL, &collectedAt,
		&p.CompletenessScore, &p.ValidityScore, &p.QualityScore, &flagsJSON,
		&p.Category, &p.ServiceMatch)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan provider")
	}

	p.Tier = model.Tier(tier)
	if collectedAt.Valid {
		p.CollectedAt = collectedAt.Time
	}
	if err := json.Unmarshal([]byte(servicesJSON), &p.Services); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal services")
	}
	if err := json.Unmarshal([]byte(refsJSON), &p.References); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal references")
	}
	if err := json.Unmarshal([]byte(flagsJSON), &p.Flags); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal flags")
	}
	return &p, nil
}
