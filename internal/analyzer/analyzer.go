// Package analyzer groups scored providers into categories via fixed-seed
// keyword clustering, ranks the clusters, and measures service-gap coverage
// against a configured target keyword list. Given identical input and
// configuration the output is identical: the clustering seed is fixed and all
// iteration orders are stable.
package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scope-labs/provider-intel/internal/config"
	"github.com/scope-labs/provider-intel/internal/model"
)

// maxVocabulary caps the size of a corpus-derived clustering vocabulary.
const maxVocabulary = 1000

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var titleCaser = cases.Title(language.English)

// ClusterStat describes one discovered category.
type ClusterStat struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	MeanQuality float64 `json:"mean_quality"`
	MeanPrice   float64 `json:"mean_price"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	TotalValue  float64 `json:"total_value"`
}

// GapStat reports market coverage for one target keyword.
type GapStat struct {
	Keyword   string  `json:"keyword"`
	Providers int     `json:"providers"`
	Coverage  float64 `json:"coverage"` // fraction of providers, 0..1
	Gap       bool    `json:"gap"`
}

// FlagCount pairs a quality flag with its occurrence count.
type FlagCount struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// Summary holds corpus-level metrics for the executive summary sheet.
type Summary struct {
	Total           int         `json:"total_providers"`
	AvgPrice        float64     `json:"avg_price"`
	MedianPrice     float64     `json:"median_price"`
	MaxPrice        float64     `json:"max_price"`
	TotalValue      float64     `json:"total_value"`
	AvgCompleteness float64     `json:"avg_completeness"`
	AvgQuality      float64     `json:"avg_quality"`
	HighQuality     int         `json:"high_quality"`   // score > 0.8
	MediumQuality   int         `json:"medium_quality"` // 0.5..0.8
	LowQuality      int         `json:"low_quality"`    // < 0.5
	TopFlags        []FlagCount `json:"top_flags"`
}

// Analysis is the full analyzer output consumed by the report writer.
type Analysis struct {
	Providers []model.Provider `json:"providers"` // annotated copies
	Clusters  []ClusterStat    `json:"clusters"`
	Gaps      []GapStat        `json:"gaps"`
	Summary   Summary          `json:"summary"`
}

// Analyzer clusters and summarizes scored provider tables.
type Analyzer struct {
	keywords *Keywords
	cfg      config.AnalyzeConfig
}

// New creates an Analyzer. Nil keywords fall back to the built-in set.
func New(keywords *Keywords, cfg config.AnalyzeConfig) *Analyzer {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	if cfg.Clusters <= 0 {
		cfg.Clusters = 8
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 100
	}
	return &Analyzer{keywords: keywords, cfg: cfg}
}

// Analyze annotates each provider with a cluster category and service match,
// then computes cluster stats, service gaps, and the corpus summary.
func (a *Analyzer) Analyze(providers []model.Provider) *Analysis {
	annotated := make([]model.Provider, len(providers))
	copy(annotated, providers)

	vocab := a.vocabulary(annotated)
	assign := a.cluster(annotated, vocab)
	names := a.clusterNames(annotated, assign, vocab)

	for i := range annotated {
		if assign != nil {
			annotated[i].Category = names[assign[i]]
		}
		annotated[i].ServiceMatch = a.keywords.MatchServices(providerText(annotated[i]))
	}

	res := &Analysis{
		Providers: annotated,
		Clusters:  clusterStats(annotated, assign, names),
		Gaps:      a.serviceGaps(annotated),
		Summary:   summarize(annotated),
	}

	zap.L().Info("analyzer: analysis complete",
		zap.Int("providers", len(annotated)),
		zap.Int("clusters", len(res.Clusters)),
		zap.Int("gap_keywords", len(res.Gaps)))
	return res
}

// vocabulary returns the clustering feature set: the configured vocabulary if
// present, otherwise the most frequent corpus tokens (stop words and short
// tokens excluded), ranked by frequency then alphabetically for determinism.
func (a *Analyzer) vocabulary(providers []model.Provider) []string {
	if len(a.keywords.Vocabulary) > 0 {
		vocab := append([]string(nil), a.keywords.Vocabulary...)
		sort.Strings(vocab)
		return vocab
	}

	stop := a.keywords.stopWordSet()
	freq := make(map[string]int)
	for _, p := range providers {
		for _, tok := range tokenize(providerText(p)) {
			if len(tok) < 3 || stop[tok] {
				continue
			}
			freq[tok]++
		}
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}
	sort.Strings(terms)
	return terms
}

// cluster runs fixed-seed k-means over keyword presence vectors.
func (a *Analyzer) cluster(providers []model.Provider, vocab []string) []int {
	if len(providers) == 0 || len(vocab) == 0 {
		return nil
	}

	k := a.cfg.Clusters
	if len(providers) < k {
		k = max(1, len(providers)/2)
	}

	vectors := make([][]float64, len(providers))
	for i, p := range providers {
		vectors[i] = presenceVector(providerText(p), vocab)
	}
	return kmeans(vectors, k, a.cfg.Seed, a.cfg.MaxIter)
}

// clusterNames labels each cluster with its three most common vocabulary
// terms, title-cased.
func (a *Analyzer) clusterNames(providers []model.Provider, assign []int, vocab []string) map[int]string {
	names := make(map[int]string)
	if assign == nil {
		return names
	}

	sums := make(map[int][]float64)
	for i, p := range providers {
		c := assign[i]
		if sums[c] == nil {
			sums[c] = make([]float64, len(vocab))
		}
		v := presenceVector(providerText(p), vocab)
		for d, x := range v {
			sums[c][d] += x
		}
	}

	for c, sum := range sums {
		type termWeight struct {
			term   string
			weight float64
		}
		tw := make([]termWeight, len(vocab))
		for d, t := range vocab {
			tw[d] = termWeight{term: t, weight: sum[d]}
		}
		sort.Slice(tw, func(i, j int) bool {
			if tw[i].weight != tw[j].weight {
				return tw[i].weight > tw[j].weight
			}
			return tw[i].term < tw[j].term
		})

		var top []string
		for _, t := range tw {
			if t.weight == 0 || len(top) == 3 {
				break
			}
			top = append(top, t.term)
		}
		if len(top) == 0 {
			names[c] = "Uncategorized"
			continue
		}
		names[c] = titleCaser.String(strings.Join(top, ", "))
	}
	return names
}

// serviceGaps measures coverage of each target keyword across provider
// services and titles. Zero coverage marks a gap; so does coverage under 10%.
func (a *Analyzer) serviceGaps(providers []model.Provider) []GapStat {
	keywords := append([]string(nil), a.keywords.TargetKeywords...)
	sort.Strings(keywords)

	out := make([]GapStat, 0, len(keywords))
	for _, kw := range keywords {
		needle := strings.ToLower(kw)
		n := 0
		for _, p := range providers {
			if strings.Contains(strings.ToLower(providerText(p)), needle) {
				n++
			}
		}
		coverage := 0.0
		if len(providers) > 0 {
			coverage = float64(n) / float64(len(providers))
		}
		out = append(out, GapStat{
			Keyword:   kw,
			Providers: n,
			Coverage:  coverage,
			Gap:       coverage < 0.10,
		})
	}
	return out
}

// clusterStats ranks clusters by member count, then mean quality, then name.
func clusterStats(providers []model.Provider, assign []int, names map[int]string) []ClusterStat {
	if assign == nil {
		return nil
	}

	type agg struct {
		count    int
		quality  float64
		price    float64
		minPrice float64
		maxPrice float64
	}
	byCluster := make(map[int]*agg)
	for i, p := range providers {
		c := assign[i]
		s := byCluster[c]
		if s == nil {
			s = &agg{minPrice: p.Price}
			byCluster[c] = s
		}
		s.count++
		s.quality += p.QualityScore
		s.price += p.Price
		if p.Price < s.minPrice {
			s.minPrice = p.Price
		}
		if p.Price > s.maxPrice {
			s.maxPrice = p.Price
		}
	}

	out := make([]ClusterStat, 0, len(byCluster))
	for c, s := range byCluster {
		out = append(out, ClusterStat{
			Name:        names[c],
			Count:       s.count,
			MeanQuality: s.quality / float64(s.count),
			MeanPrice:   s.price / float64(s.count),
			MinPrice:    s.minPrice,
			MaxPrice:    s.maxPrice,
			TotalValue:  s.price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].MeanQuality != out[j].MeanQuality {
			return out[i].MeanQuality > out[j].MeanQuality
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func summarize(providers []model.Provider) Summary {
	s := Summary{Total: len(providers)}
	if len(providers) == 0 {
		return s
	}

	prices := make([]float64, 0, len(providers))
	flagCounts := make(map[string]int)
	for _, p := range providers {
		prices = append(prices, p.Price)
		s.TotalValue += p.Price
		if p.Price > s.MaxPrice {
			s.MaxPrice = p.Price
		}
		s.AvgCompleteness += p.CompletenessScore
		s.AvgQuality += p.QualityScore
		switch {
		case p.QualityScore > 0.8:
			s.HighQuality++
		case p.QualityScore >= 0.5:
			s.MediumQuality++
		default:
			s.LowQuality++
		}
		for flag := range p.Flags {
			flagCounts[flag]++
		}
	}

	n := float64(len(providers))
	s.AvgPrice = s.TotalValue / n
	s.AvgCompleteness /= n
	s.AvgQuality /= n

	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		s.MedianPrice = (prices[mid-1] + prices[mid]) / 2
	} else {
		s.MedianPrice = prices[mid]
	}

	flags := make([]FlagCount, 0, len(flagCounts))
	for f, c := range flagCounts {
		flags = append(flags, FlagCount{Flag: f, Count: c})
	}
	sort.Slice(flags, func(i, j int) bool {
		if flags[i].Count != flags[j].Count {
			return flags[i].Count > flags[j].Count
		}
		return flags[i].Flag < flags[j].Flag
	})
	if len(flags) > 10 {
		flags = flags[:10]
	}
	s.TopFlags = flags

	return s
}

func providerText(p model.Provider) string {
	parts := []string{p.Name, strings.Join(p.Services, " "), p.Description}
	return strings.Join(parts, " ")
}

func presenceVector(text string, vocab []string) []float64 {
	present := make(map[string]bool)
	for _, tok := range tokenize(text) {
		present[tok] = true
	}
	v := make([]float64, len(vocab))
	for i, term := range vocab {
		if present[term] {
			v[i] = 1
		}
	}
	return v
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}
