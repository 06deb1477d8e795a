// Package cleaner maps raw scrape records onto the canonical provider schema:
// whitespace and casing normalization, controlled-vocabulary mapping, numeric
// coercion, list splitting, and duplicate merging. Unmappable categorical
// values pass through unchanged and are flagged, never dropped.
package cleaner

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/model"
	"github.com/scope-labs/provider-intel/internal/taxonomy"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	tierBadgeRe  = regexp.MustCompile(`(?i)\s+(Gold|Silver|Ready)\s*$`)
	firstIntRe   = regexp.MustCompile(`\d[\d,]*`)
	domainishRe  = regexp.MustCompile(`^[\w.-]+\.[a-zA-Z]{2,}(/\S*)?$`)
)

// Cleaner normalizes raw records against a data dictionary.
type Cleaner struct {
	dict      *taxonomy.Dictionary
	threshold float64
}

// New creates a Cleaner. threshold is the Jaro-Winkler similarity above which
// two same-country provider names are treated as duplicates.
func New(dict *taxonomy.Dictionary, threshold float64) *Cleaner {
	if dict == nil {
		dict = taxonomy.Default()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Cleaner{dict: dict, threshold: threshold}
}

// Clean normalizes every raw record into a canonical provider. Records are
// never dropped for mapping failures; a record is skipped only when it has no
// name at all and no identifying fields.
func (c *Cleaner) Clean(records []model.RawRecord) []model.Provider {
	out := make([]model.Provider, 0, len(records))
	for _, r := range records {
		p, ok := c.cleanOne(r)
		if !ok {
			zap.L().Warn("cleaner: skipped empty record", zap.String("source_url", r.GetString("source_url")))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Cleaner) cleanOne(r model.RawRecord) (model.Provider, bool) {
	p := model.Provider{
		ID:          strings.TrimSpace(r.GetString("provider_id")),
		Name:        CleanName(r.GetString("name")),
		Location:    CollapseWhitespace(r.GetString("location")),
		Description: CleanText(r.GetString("description")),
		SourceURL:   strings.TrimSpace(r.GetString("source_url")),
	}

	if p.Name == "" && p.SourceURL == "" {
		return model.Provider{}, false
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	// Country → ISO-2 via the dictionary; unmapped values pass through flagged.
	if raw := r.GetString("country"); raw != "" {
		code, ok := c.dict.MapCountry(raw)
		p.Country = code
		if !ok {
			p.Flag("unmapped_country")
		}
	}

	// Tier → controlled enum.
	if raw := strings.TrimSpace(r.GetString("tier")); raw != "" {
		p.Tier = model.ParseTier(raw)
		if p.Tier == model.TierUnknown {
			p.Flag("unmapped_tier")
		}
	} else {
		p.Tier = model.TierUnknown
	}

	// Website: require a scheme, tolerating bare domains.
	if raw := r.GetString("website"); raw != "" {
		url, ok := CleanURL(raw)
		p.Website = url
		if !ok {
			p.Flag("invalid_website")
		}
	}

	// Numeric coercion of price-looking text ("From $1,200" → 1200).
	switch v := r["price"].(type) {
	case float64:
		p.Price = v
	case int:
		p.Price = float64(v)
	case string:
		p.Price = CoercePrice(v)
	}
	if p.Price == 0 {
		if n := r.GetString("price_numeric"); n != "" {
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				p.Price = f
			}
		}
	}

	// List fields: split, trim, map services through the vocabulary.
	p.Services = c.normalizeServices(listField(r, "services"), &p)
	p.References = dedupeStrings(trimAll(listField(r, "references")))

	if ts := r.GetString("collected_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			p.CollectedAt = t.UTC()
		}
	}

	return p, true
}

// normalizeServices maps each service through the module vocabulary, flagging
// values the dictionary does not know. Order is preserved; duplicates after
// mapping collapse to the first occurrence.
func (c *Cleaner) normalizeServices(raw []string, p *model.Provider) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range raw {
		s = CollapseWhitespace(s)
		if s == "" {
			continue
		}
		mapped, ok := c.dict.MapService(s)
		if !ok {
			p.Flag("unmapped_service")
		}
		if !seen[mapped] {
			seen[mapped] = true
			out = append(out, mapped)
		}
	}
	return out
}

// listField reads a field that may be a real list (raw JSON batches) or a
// delimiter-joined string (flat CSV rows).
func listField(r model.RawRecord, key string) []string {
	if l := r.GetList(key); l != nil {
		return l
	}
	return model.SplitList(r.GetString(key))
}

// CleanName collapses whitespace and strips trailing tier badges that
// directory listings append to company names.
func CleanName(name string) string {
	name = CollapseWhitespace(name)
	return strings.TrimSpace(tierBadgeRe.ReplaceAllString(name, ""))
}

// CleanText collapses whitespace and removes control characters that break
// CSV output.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r", " ")
	return CollapseWhitespace(s)
}

// CollapseWhitespace trims and collapses runs of whitespace to single spaces.
func CollapseWhitespace(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// CleanURL validates a website value. Scheme-less domain-looking values get
// an https:// prefix; anything else without a scheme is returned as-is with
// ok=false so the caller can flag it.
func CleanURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, true
	}
	if domainishRe.MatchString(raw) {
		return "https://" + raw, true
	}
	return raw, false
}

// CoercePrice extracts the first integer run from price-looking text.
// "From $1,200" → 1200; no digits → 0.
func CoercePrice(s string) float64 {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 0
	}
	m = strings.ReplaceAll(m, ",", "")
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if v := CollapseWhitespace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupeStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
