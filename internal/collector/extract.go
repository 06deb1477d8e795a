package collector

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/scope-labs/provider-intel/internal/model"
)

// ListingPage is the parsed form of one search-results page.
type ListingPage struct {
	ProviderURLs []string
	NextURL      string // empty on the last page
	Cards        []model.RawRecord
}

// ParseListing extracts provider links, card fields, and the next-page link.
// Relative links are resolved against baseURL.
func ParseListing(html string, src Source, baseURL string) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "collector: parse listing html")
	}

	page := &ListingPage{}
	seen := map[string]bool{}
	doc.Find(src.Listing.ProviderLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs := resolveURL(baseURL, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		page.ProviderURLs = append(page.ProviderURLs, abs)

		if len(src.Listing.Card) > 0 {
			card := extractFields(s, src.Listing.Card, baseURL)
			card["source_url"] = abs
			page.Cards = append(page.Cards, card)
		}
	})

	if src.Listing.NextPage != "" {
		if href, ok := doc.Find(src.Listing.NextPage).First().Attr("href"); ok {
			page.NextURL = resolveURL(baseURL, href)
		}
	}
	return page, nil
}

// ParseDetail extracts a provider record from a profile page.
func ParseDetail(html string, src Source, pageURL string) (model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrapf(err, "collector: parse detail html %s", pageURL)
	}

	rec := extractFields(doc.Selection, src.Detail, src.BaseURL)
	rec["source_url"] = pageURL
	if src.CountryCode != "" {
		if _, ok := rec["country"]; !ok {
			rec["country"] = src.CountryCode
		}
	}
	return rec, nil
}

func extractFields(root *goquery.Selection, fields map[string]Field, baseURL string) model.RawRecord {
	rec := model.RawRecord{}
	for name, f := range fields {
		sel := root.Find(f.Selector)
		if f.List {
			var values []string
			sel.Each(func(_ int, s *goquery.Selection) {
				if v := fieldValue(s, f, baseURL); v != "" {
					values = append(values, v)
				}
			})
			if len(values) > 0 {
				rec[name] = values
			}
			continue
		}
		if v := fieldValue(sel.First(), f, baseURL); v != "" {
			rec[name] = v
		}
	}
	return rec
}

func fieldValue(s *goquery.Selection, f Field, baseURL string) string {
	if f.Attr != "" {
		v, _ := s.Attr(f.Attr)
		if f.Attr == "href" || f.Attr == "src" {
			return resolveURL(baseURL, v)
		}
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.Text())
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(u).String()
}
