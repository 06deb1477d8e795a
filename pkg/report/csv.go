// Package report renders canonical provider tables to CSV and multi-sheet
// XLSX summaries.
package report

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/scope-labs/provider-intel/internal/model"
)

// Row is the flat canonical+scored CSV schema. List fields are
// delimiter-joined and flags render as a sorted name list.
type Row struct {
	ProviderID        string  `csv:"provider_id"`
	Name              string  `csv:"name"`
	Country           string  `csv:"country"`
	Location          string  `csv:"location"`
	Tier              string  `csv:"tier"`
	Website           string  `csv:"website"`
	Description       string  `csv:"description"`
	Services          string  `csv:"services"`
	References        string  `csv:"references"`
	Price             float64 `csv:"price_numeric"`
	SourceURL         string  `csv:"source_url"`
	CollectedAt       string  `csv:"collected_at"`
	CompletenessScore float64 `csv:"data_completeness_score"`
	ValidityScore     float64 `csv:"data_validity_score"`
	QualityScore      float64 `csv:"data_quality_score"`
	Flags             string  `csv:"quality_flags"`
	Category          string  `csv:"category"`
	ServiceMatch      string  `csv:"service_match"`
}

// ToRow flattens a provider into the CSV schema.
func ToRow(p model.Provider) Row {
	r := Row{
		ProviderID:        p.ID,
		Name:              p.Name,
		Country:           p.Country,
		Location:          p.Location,
		Tier:              string(p.Tier),
		Website:           p.Website,
		Description:       p.Description,
		Services:          p.ServicesJoined(),
		References:        p.ReferencesJoined(),
		Price:             p.Price,
		SourceURL:         p.SourceURL,
		CompletenessScore: p.CompletenessScore,
		ValidityScore:     p.ValidityScore,
		QualityScore:      p.QualityScore,
		Flags:             joinFlags(p.Flags),
		Category:          p.Category,
		ServiceMatch:      p.ServiceMatch,
	}
	if !p.CollectedAt.IsZero() {
		r.CollectedAt = p.CollectedAt.UTC().Format(time.RFC3339)
	}
	return r
}

// FromRow expands a CSV row back into a provider.
func FromRow(r Row) model.Provider {
	p := model.Provider{
		ID:                r.ProviderID,
		Name:              r.Name,
		Country:           r.Country,
		Location:          r.Location,
		Tier:              model.Tier(r.Tier),
		Website:           r.Website,
		Description:       r.Description,
		Services:          model.SplitList(r.Services),
		References:        model.SplitList(r.References),
		Price:             r.Price,
		SourceURL:         r.SourceURL,
		CompletenessScore: r.CompletenessScore,
		ValidityScore:     r.ValidityScore,
		QualityScore:      r.QualityScore,
		Category:          r.Category,
		ServiceMatch:      r.ServiceMatch,
	}
	if r.CollectedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CollectedAt); err == nil {
			p.CollectedAt = t.UTC()
		}
	}
	for _, flag := range model.SplitList(r.Flags) {
		p.Flag(flag)
	}
	return p
}

// WriteCSV writes providers to the canonical CSV at path.
func WriteCSV(path string, providers []model.Provider) error {
	rows := make([]Row, len(providers))
	for i, p := range providers {
		rows[i] = ToRow(p)
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "report: marshal csv")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// ReadCSV reads a canonical CSV back into providers.
func ReadCSV(path string) ([]model.Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}

	var rows []Row
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "report: parse %s", path)
	}

	providers := make([]model.Provider, len(rows))
	for i, r := range rows {
		providers[i] = FromRow(r)
	}
	return providers, nil
}

func joinFlags(flags map[string]bool) string {
	if len(flags) == 0 {
		return ""
	}
	names := make([]string, 0, len(flags))
	for f, set := range flags {
		if set {
			names = append(names, f)
		}
	}
	sort.Strings(names)
	return strings.Join(names, model.ListSep)
}
