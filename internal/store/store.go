// Package store persists cleaned provider tables in SQLite or Postgres.
package store

import (
	"context"

	"github.com/scope-labs/provider-intel/internal/model"
)

// ProviderFilter specifies criteria for listing providers.
type ProviderFilter struct {
	Country    string  `json:"country,omitempty"`
	Tier       string  `json:"tier,omitempty"`
	MinQuality float64 `json:"min_quality,omitempty"`
	Service    string  `json:"service,omitempty"` // substring match on the services list
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// Store defines the persistence interface for provider tables.
type Store interface {
	// Providers
	UpsertProviders(ctx context.Context, providers []model.Provider) (int, error)
	GetProvider(ctx context.Context, id string) (*model.Provider, error)
	ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error)
	CountProviders(ctx context.Context) (int, error)
	// CountByCountry and CountByTier report provider counts grouped by the
	// respective column, for the db stats command.
	CountByCountry(ctx context.Context) (map[string]int, error)
	CountByTier(ctx context.Context) (map[string]int, error)
	// DeleteProvider removes a provider and, via the schema's cascade,
	// every reference attached to it.
	DeleteProvider(ctx context.Context, id string) error

	// References
	ReplaceReferences(ctx context.Context, providerID string, refs []model.Reference) error
	ListReferences(ctx context.Context, providerID string) ([]model.Reference, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
