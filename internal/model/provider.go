package model

import (
	"strings"
	"time"
)

// Tier represents a provider's partner tier.
type Tier string

const (
	TierGold    Tier = "Gold"
	TierSilver  Tier = "Silver"
	TierReady   Tier = "Ready"
	TierUnknown Tier = "Unknown"
)

// ParseTier normalizes an arbitrary tier string into a Tier.
// Unrecognized values map to TierUnknown.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gold":
		return TierGold
	case "silver":
		return TierSilver
	case "ready":
		return TierReady
	default:
		return TierUnknown
	}
}

// Provider is a canonical service-provider record, the system's output of
// record. The flat CSV representation lives in pkg/report.
type Provider struct {
	ID          string    `json:"provider_id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"` // ISO 3166-1 alpha-2
	Location    string    `json:"location,omitempty"`
	Tier        Tier      `json:"tier"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	Services    []string  `json:"services,omitempty"`
	References  []string  `json:"references,omitempty"`
	Price       float64   `json:"price_numeric,omitempty"`
	SourceURL   string    `json:"source_url"`
	CollectedAt time.Time `json:"collected_at,omitempty"`

	// Quality scores are attached by the scorer; all values are in [0,1].
	CompletenessScore float64         `json:"data_completeness_score"`
	ValidityScore     float64         `json:"data_validity_score"`
	QualityScore      float64         `json:"data_quality_score"`
	Flags             map[string]bool `json:"quality_flags,omitempty"`

	// Analyzer annotations.
	Category     string `json:"category,omitempty"`
	ServiceMatch string `json:"service_match,omitempty"`
}

// ListSep joins and splits list-typed fields in flat CSV representations.
const ListSep = "; "

// ServicesJoined returns the services list as a single CSV-safe cell value.
func (p Provider) ServicesJoined() string {
	return strings.Join(p.Services, ListSep)
}

// ReferencesJoined returns the reference names as a single CSV-safe cell value.
func (p Provider) ReferencesJoined() string {
	return strings.Join(p.References, ListSep)
}

// SplitList splits a delimiter-joined list cell back into an ordered sequence.
// Both "; " and bare ";" delimiters are accepted; empty items are dropped.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Flag records a failed quality check on the provider, allocating the map on
// first use so zero-value providers stay cheap.
func (p *Provider) Flag(name string) {
	if p.Flags == nil {
		p.Flags = make(map[string]bool)
	}
	p.Flags[name] = true
}
