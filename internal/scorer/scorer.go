// Package scorer computes per-record data quality scores. Scoring is
// read-only: it attaches scores and a flags map but never corrects fields.
package scorer

import (
	"math"
	"net/url"

	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/model"
	"github.com/scope-labs/provider-intel/internal/taxonomy"
)

// listCreditCap is the list length at which a list field earns full
// completeness credit.
const listCreditCap = 3

// Scorer scores providers against the data dictionary's quality rules.
type Scorer struct {
	dict *taxonomy.Dictionary
	cfg  config.ScoreConfig
}

// New creates a Scorer. An invalid config falls back to the defaults.
func New(dict *taxonomy.Dictionary, cfg config.ScoreConfig) *Scorer {
	if dict == nil {
		dict = taxonomy.Default()
	}
	if err := ValidateConfig(cfg); err != nil {
		cfg = DefaultConfig()
	}
	return &Scorer{dict: dict, cfg: cfg}
}

// Score computes completeness, validity, and the combined quality score for
// one provider, returning a copy with scores and flags attached.
func (s *Scorer) Score(p model.Provider) model.Provider {
	flags := make(map[string]bool)

	comp := s.completeness(p)
	valid := s.validity(p, flags)

	for _, f := range s.dict.QualityRules.MandatoryFields {
		if !fieldPopulated(p, f) {
			flags["missing_"+f] = true
		}
	}
	if p.Website == "" {
		flags["no_website"] = true
	}
	if len(p.Description) > 0 && len(p.Description) < 50 {
		flags["short_description"] = true
	}

	total := s.cfg.CompletenessWeight + s.cfg.ValidityWeight
	combined := (s.cfg.CompletenessWeight*comp + s.cfg.ValidityWeight*valid) / total

	p.CompletenessScore = round2(comp)
	p.ValidityScore = round2(valid)
	p.QualityScore = round2(combined)
	if len(flags) > 0 {
		p.Flags = mergeFlags(p.Flags, flags)
	}
	return p
}

// ScoreAll scores every provider in place-order.
func (s *Scorer) ScoreAll(providers []model.Provider) []model.Provider {
	out := make([]model.Provider, len(providers))
	for i, p := range providers {
		out[i] = s.Score(p)
	}
	return out
}

// completeness is the weighted fraction of fields populated, per the
// dictionary's completeness weights. List fields earn partial credit up to
// listCreditCap items.
func (s *Scorer) completeness(p model.Provider) float64 {
	weights := s.dict.QualityRules.CompletenessWeights
	if len(weights) == 0 {
		return 0
	}

	var total, achieved float64
	for field, w := range weights {
		total += w
		switch field {
		case "services":
			if n := len(p.Services); n > 0 {
				achieved += w * math.Min(float64(n)/listCreditCap, 1.0)
			}
		case "references":
			if n := len(p.References); n > 0 {
				achieved += w * math.Min(float64(n)/listCreditCap, 1.0)
			}
		default:
			if fieldPopulated(p, field) {
				achieved += w
			}
		}
	}
	if total == 0 {
		return 0
	}
	return achieved / total
}

// validity is the fraction of populated fields passing their format check.
// Unpopulated fields are excluded from the denominator, so a sparse but
// well-formed record is not penalized twice.
func (s *Scorer) validity(p model.Provider, flags map[string]bool) float64 {
	type check struct {
		name      string
		populated bool
		pass      func() bool
	}

	checks := []check{
		{"name", p.Name != "", func() bool { return len(p.Name) >= 2 }},
		{"country", p.Country != "", func() bool {
			if re := s.dict.Pattern("country_code"); re != nil {
				return re.MatchString(p.Country)
			}
			return len(p.Country) == 2
		}},
		{"tier", p.Tier != "", func() bool {
			if re := s.dict.Pattern("tier"); re != nil {
				return re.MatchString(string(p.Tier))
			}
			return p.Tier != model.TierUnknown
		}},
		{"website", p.Website != "", func() bool { return validURL(p.Website) }},
		{"source_url", p.SourceURL != "", func() bool { return validURL(p.SourceURL) }},
	}

	n, passed := 0, 0
	for _, c := range checks {
		if !c.populated {
			continue
		}
		n++
		if c.pass() {
			passed++
		} else {
			flags["invalid_"+c.name] = true
		}
	}
	if n == 0 {
		return 0
	}
	return float64(passed) / float64(n)
}

// validURL requires a scheme and a host.
func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fieldPopulated(p model.Provider, field string) bool {
	switch field {
	case "name":
		return p.Name != ""
	case "country":
		return p.Country != ""
	case "location":
		return p.Location != ""
	case "tier":
		return p.Tier != "" && p.Tier != model.TierUnknown
	case "website":
		return p.Website != ""
	case "description":
		return p.Description != ""
	case "source_url":
		return p.SourceURL != ""
	case "services":
		return len(p.Services) > 0
	case "references":
		return len(p.References) > 0
	case "price", "price_numeric":
		return p.Price > 0
	default:
		return false
	}
}

func mergeFlags(existing, extra map[string]bool) map[string]bool {
	out := make(map[string]bool, len(existing)+len(extra))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
