package model

import "time"

// RawRecord is a provider-shaped record as scraped, before any validation.
// Fields are unvalidated and possibly missing; values are whatever the page
// yielded (strings, lists, numbers).
type RawRecord map[string]any

// GetString returns the named field as a string, or "" if absent or not
// string-shaped.
func (r RawRecord) GetString(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetList returns the named field as a string slice. JSON decoding yields
// []any for lists, so both representations are handled.
func (r RawRecord) GetList(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// RawBatch is one scrape run's output for a single source page.
type RawBatch struct {
	Metadata BatchMetadata `json:"metadata"`
	Records  []RawRecord   `json:"providers"`
}

// BatchMetadata tags a raw batch with its origin.
type BatchMetadata struct {
	Target      string    `json:"target"`
	CountryCode string    `json:"country_code"`
	Page        int       `json:"page"`
	SourceURL   string    `json:"source_url"`
	ScrapedAt   time.Time `json:"scrape_date"`
	Total       int       `json:"total_records"`
}
