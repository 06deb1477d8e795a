// Package collector drives a headless browser over configured directory
// sources and writes raw provider batches as JSON.
package collector

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/titanous/json5"
)

// Field describes how to pull one value out of a page. When Attr is set the
// attribute value is extracted instead of the element text; when List is set
// every match contributes one entry.
type Field struct {
	Selector string `json:"selector"`
	Attr     string `json:"attr,omitempty"`
	List     bool   `json:"list,omitempty"`
}

// Listing holds the selectors for a search-results page.
type Listing struct {
	ProviderLink string           `json:"provider_link"`
	NextPage     string           `json:"next_page"`
	Card         map[string]Field `json:"card,omitempty"` // fields readable without a detail visit
}

// Source is one configured provider directory.
type Source struct {
	Name        string           `json:"name"`
	BaseURL     string           `json:"base_url"`
	SearchURL   string           `json:"search_url"` // {keyword} is substituted
	CountryCode string           `json:"country_code,omitempty"`
	Listing     Listing          `json:"listing"`
	Detail      map[string]Field `json:"detail"`
	BlockText   []string         `json:"block_markers,omitempty"` // page text that signals a captcha or ban
}

// SearchFor renders the search URL for a keyword.
func (s Source) SearchFor(keyword string) string {
	return strings.ReplaceAll(s.SearchURL, "{keyword}", keyword)
}

type sourcesFile struct {
	Sources []Source `json:"sources"`
}

// LoadSources reads the source definitions. The file is JSON5 so selectors
// can carry inline comments.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "collector: read sources %s", path)
	}
	var f sourcesFile
	if err := json5.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "collector: parse sources %s", path)
	}
	if len(f.Sources) == 0 {
		return nil, eris.Errorf("collector: no sources defined in %s", path)
	}
	for i, s := range f.Sources {
		if s.Name == "" {
			return nil, eris.Errorf("collector: source %d has no name", i)
		}
		if s.SearchURL == "" {
			return nil, eris.Errorf("collector: source %q has no search_url", s.Name)
		}
		if s.Listing.ProviderLink == "" {
			return nil, eris.Errorf("collector: source %q has no listing.provider_link", s.Name)
		}
	}
	return f.Sources, nil
}
