package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/scope-labs/provider-intel/internal/db"
	"github.com/scope-labs/provider-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the underlying pool for bulk load helpers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	country       TEXT,
	location      TEXT,
	tier          TEXT,
	website       TEXT,
	description   TEXT,
	services      JSONB NOT NULL DEFAULT '[]',
	refs_list     JSONB NOT NULL DEFAULT '[]',
	price         DOUBLE PRECISION,
	source_url    TEXT,
	collected_at  TIMESTAMPTZ,
	completeness  DOUBLE PRECISION NOT NULL DEFAULT 0,
	validity      DOUBLE PRECISION NOT NULL DEFAULT 0,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	flags         JSONB NOT NULL DEFAULT '{}',
	category      TEXT,
	service_match TEXT,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
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
	flagged      BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_providers_country ON providers(country);
CREATE INDEX IF NOT EXISTS idx_providers_tier ON providers(tier);
CREATE INDEX IF NOT EXISTS idx_providers_quality ON providers(quality_score);
CREATE INDEX IF NOT EXISTS idx_providers_services ON providers USING GIN (services);
CREATE INDEX IF NOT EXISTS idx_references_provider_id ON provider_references(provider_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const postgresUpsert = `
INSERT INTO providers (
	id, name, country, location, tier, website, description,
	services, refs_list, price, source_url, collected_at,
	completeness, validity, quality_score, flags, category, service_match, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name, country = EXCLUDED.country, location = EXCLUDED.location,
	tier = EXCLUDED.tier, website = EXCLUDED.website, description = EXCLUDED.description,
	services = EXCLUDED.services, refs_list = EXCLUDED.refs_list, price = EXCLUDED.price,
	source_url = EXCLUDED.source_url, collected_at = EXCLUDED.collected_at,
	completeness = EXCLUDED.completeness, validity = EXCLUDED.validity,
	quality_score = EXCLUDED.quality_score, flags = EXCLUDED.flags,
	category = EXCLUDED.category, service_match = EXCLUDED.service_match,
	updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) UpsertProviders(ctx context.Context, providers []model.Provider) (int, error) {
	if len(providers) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, p := range providers {
		services, flags, refs, err := encodeLists(p)
		if err != nil {
			return 0, err
		}
		_, err = s.pool.Exec(ctx, postgresUpsert,
			p.ID, p.Name, p.Country, p.Location, string(p.Tier), p.Website, p.Description,
			[]byte(services), []byte(refs), p.Price, p.SourceURL, nullableTime(p.CollectedAt),
			p.CompletenessScore, p.ValidityScore, p.QualityScore, []byte(flags),
			p.Category, p.ServiceMatch, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert provider %s", p.ID)
		}
	}
	return len(providers), nil
}

const postgresProviderColumns = `id, name, country, location, tier, website, description,
	services, refs_list, price, source_url, collected_at,
	completeness, validity, quality_score, flags, category, service_match`

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresProviderColumns+` FROM providers WHERE id = $1`, id)
	p, err := scanPostgresProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("provider not found: %s", id)
	}
	return p, err
}

func (s *PostgresStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT ` + postgresProviderColumns + ` FROM providers WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Country != "" {
		query += fmt.Sprintf(` AND country = $%d`, argIdx)
		args = append(args, filter.Country)
		argIdx++
	}
	if filter.Tier != "" {
		query += fmt.Sprintf(` AND tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.MinQuality > 0 {
		query += fmt.Sprintf(` AND quality_score >= $%d`, argIdx)
		args = append(args, filter.MinQuality)
		argIdx++
	}
	if filter.Service != "" {
		query += fmt.Sprintf(` AND services::text ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Service+"%")
		argIdx++
	}
	query += ` ORDER BY quality_score DESC, name ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list providers")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		p, err := scanPostgresProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, eris.Wrap(rows.Err(), "postgres: list providers iterate")
}

func (s *PostgresStore) CountProviders(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count providers")
}

func (s *PostgresStore) CountByCountry(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, "country")
}

func (s *PostgresStore) CountByTier(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, "tier")
}

func (s *PostgresStore) groupCount(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+column+`, COUNT(*) FROM providers GROUP BY `+column)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: count by %s", column)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan count by %s", column)
		}
		counts[key] = n
	}
	return counts, eris.Wrapf(rows.Err(), "postgres: count by %s iterate", column)
}

func (s *PostgresStore) DeleteProvider(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete provider %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("provider not found: %s", id)
	}
	return nil
}

var referenceColumns = []string{
	"id", "provider_id", "client_name", "country", "industry",
	"project_size", "timeline", "outcomes", "source_url", "flagged",
}

func (s *PostgresStore) ReplaceReferences(ctx context.Context, providerID string, refs []model.Reference) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace references")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM provider_references WHERE provider_id = $1`, providerID); err != nil {
		return eris.Wrapf(err, "postgres: clear references for %s", providerID)
	}

	rows := make([][]any, len(refs))
	for i, r := range refs {
		rows[i] = []any{
			r.ID, providerID, r.ClientName, r.Country, r.Industry,
			r.ProjectSize, r.Timeline, r.Outcomes, r.SourceURL, r.Flagged,
		}
	}
	if _, err := db.CopyFrom(ctx, tx, "provider_references", referenceColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: copy references for %s", providerID)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace references")
}

func (s *PostgresStore) ListReferences(ctx context.Context, providerID string) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, provider_id, client_name, country, industry, project_size, timeline, outcomes, source_url, flagged
		 FROM provider_references WHERE provider_id = $1 ORDER BY client_name`,
		providerID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list references for %s", providerID)
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.ProviderID, &r.ClientName, &r.Country, &r.Industry,
			&r.ProjectSize, &r.Timeline, &r.Outcomes, &r.SourceURL, &r.Flagged); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reference")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "postgres: list references iterate")
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanPostgresProvider(row scannable) (*model.Provider, error) {
	var p model.Provider
	var tier string
	var servicesJSON, refsJSON, flagsJSON []byte
	var collectedAt *time.Time

	err := row.Scan(&p.ID, &p.Name, &p.Country, &p.Location, &tier, &p.Website, &p.Description,
		&servicesJSON, &refsJSON, &p.Price, &p.SourceURL, &collectedAt,
		&p.CompletenessScore, &p.ValidityScore, &p.QualityScore, &flagsJSON,
		&p.Category, &p.ServiceMatch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan provider")
	}

	p.Tier = model.Tier(tier)
	if collectedAt != nil {
		p.CollectedAt = *collectedAt
	}
	if err := json.Unmarshal(servicesJSON, &p.Services); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal services")
	}
	if err := json.Unmarshal(refsJSON, &p.References); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal references")
	}
	if err := json.Unmarshal(flagsJSON, &p.Flags); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal flags")
	}
	return &p, nil
}
