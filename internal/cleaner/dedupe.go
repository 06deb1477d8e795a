package cleaner

import (
	"strings"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/model"
)

// legalSuffixes lists common legal entity suffixes stripped before matching.
var legalSuffixes = []string{
	" LLC", " L.L.C.", " INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" LTD", " LTD.", " LIMITED",
	" LLP", " L.L.P.", " CO", " CO.", " PLC",
}

// MatchKey standardizes a provider name for duplicate matching: uppercase,
// legal suffix stripped, punctuation removed, spaces collapsed.
func MatchKey(name string) string {
	name = strings.ToUpper(CollapseWhitespace(name))
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(name, " "))
}

// Dedupe merges duplicate providers. Two records are duplicates when their
// (match key, country) pair is identical, or when they share a country and
// their match keys are more similar than the configured threshold. The record
// with higher field completeness wins; list fields present only in the loser
// are merged in. Input order determines output order, so Dedupe is
// deterministic and idempotent.
func (c *Cleaner) Dedupe(providers []model.Provider) []model.Provider {
	type kept struct {
		idx int
		key string
	}

	var out []model.Provider
	byExact := make(map[string]int)   // "key|country" → index in out
	byCountry := make(map[string][]kept)

	for _, p := range providers {
		key := MatchKey(p.Name)
		exact := key + "|" + p.Country

		if i, ok := byExact[exact]; ok {
			out[i] = merge(out[i], p)
			zap.L().Debug("cleaner: merged exact duplicate",
				zap.String("name", p.Name), zap.String("country", p.Country))
			continue
		}

		// Near-duplicate: same country, similar normalized name.
		matched := false
		for _, k := range byCountry[p.Country] {
			if matchr.JaroWinkler(key, k.key, false) >= c.threshold {
				out[k.idx] = merge(out[k.idx], p)
				zap.L().Debug("cleaner: merged near duplicate",
					zap.String("name", p.Name),
					zap.String("kept", out[k.idx].Name),
					zap.String("country", p.Country))
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		out = append(out, p)
		idx := len(out) - 1
		byExact[exact] = idx
		byCountry[p.Country] = append(byCountry[p.Country], kept{idx: idx, key: key})
	}

	if n := len(providers) - len(out); n > 0 {
		zap.L().Info("cleaner: deduplicated records",
			zap.Int("before", len(providers)), zap.Int("after", len(out)))
	}
	return out
}

// merge combines two duplicate records. The one with higher field
// completeness wins; scalar gaps fill from the loser and list fields union,
// winner order first. Flags union so no quality signal is lost.
func merge(a, b model.Provider) model.Provider {
	winner, loser := a, b
	if fieldCompleteness(b) > fieldCompleteness(a) {
		winner, loser = b, a
	}

	if winner.Location == "" {
		winner.Location = loser.Location
	}
	if winner.Website == "" {
		winner.Website = loser.Website
	}
	if winner.Description == "" {
		winner.Description = loser.Description
	}
	if winner.Country == "" {
		winner.Country = loser.Country
	}
	if winner.Tier == model.TierUnknown && loser.Tier != "" {
		winner.Tier = loser.Tier
	}
	if winner.Price == 0 {
		winner.Price = loser.Price
	}
	if winner.CollectedAt.IsZero() {
		winner.CollectedAt = loser.CollectedAt
	}

	winner.Services = unionLists(winner.Services, loser.Services)
	winner.References = unionLists(winner.References, loser.References)

	for flag := range loser.Flags {
		winner.Flag(flag)
	}

	return winner
}

// fieldCompleteness counts populated canonical fields, used only to pick a
// merge winner. The scorer computes the weighted completeness score.
func fieldCompleteness(p model.Provider) int {
	n := 0
	for _, s := range []string{p.Name, p.Country, p.Location, p.Website, p.Description, p.SourceURL} {
		if s != "" {
			n++
		}
	}
	if p.Tier != "" && p.Tier != model.TierUnknown {
		n++
	}
	if len(p.Services) > 0 {
		n++
	}
	if len(p.References) > 0 {
		n++
	}
	if p.Price > 0 {
		n++
	}
	return n
}

func unionLists(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
