package analyzer

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Keywords is the configured feature set for clustering and gap analysis.
type Keywords struct {
	// ServiceKeywords maps a service category to the keywords that signal it.
	ServiceKeywords map[string][]string `yaml:"service_keywords"`
	// TargetKeywords are the offerings whose market coverage is measured.
	TargetKeywords []string `yaml:"target_keywords"`
	// Vocabulary is an optional explicit clustering vocabulary. Empty means
	// derive it from the input corpus.
	Vocabulary []string `yaml:"vocabulary"`
	// StopWords are excluded from a derived vocabulary.
	StopWords []string `yaml:"stop_words"`
}

// LoadKeywords reads the keyword configuration from a YAML file.
func LoadKeywords(path string) (*Keywords, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analyzer: read keywords %s", path)
	}
	var k Keywords
	if err := yaml.Unmarshal(raw, &k); err != nil {
		return nil, eris.Wrapf(err, "analyzer: parse keywords %s", path)
	}
	return &k, nil
}

// DefaultKeywords returns the built-in service keyword map, mirroring the
// shipped config/keywords.yaml.
func DefaultKeywords() *Keywords {
	return &Keywords{
		ServiceKeywords: map[string][]string{
			"Implementation":     {"implementation", "setup", "install", "deploy", "configure"},
			"Customization":      {"customization", "customize", "custom", "module", "develop"},
			"Integration":        {"integration", "integrate", "api", "payment", "gateway"},
			"Migration":          {"migration", "migrate", "upgrade", "data"},
			"Support & Training": {"support", "training", "consultant", "consulting", "help", "fix", "bug"},
			"Web & E-commerce":   {"website", "ecommerce", "store", "shop", "design", "theme"},
		},
		TargetKeywords: []string{
			"implementation", "customization", "integration",
			"migration", "support", "training",
		},
		StopWords: []string{
			"the", "and", "for", "with", "your", "you", "will",
			"this", "that", "from", "our", "are", "can",
		},
	}
}

// Categories returns the service category names in sorted order.
func (k *Keywords) Categories() []string {
	out := make([]string, 0, len(k.ServiceKeywords))
	for name := range k.ServiceKeywords {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MatchServices returns the sorted service categories whose keywords appear
// in the given text, or "Other" when none match.
func (k *Keywords) MatchServices(text string) string {
	text = strings.ToLower(text)
	var found []string
	for _, cat := range k.Categories() {
		for _, kw := range k.ServiceKeywords[cat] {
			if strings.Contains(text, kw) {
				found = append(found, cat)
				break
			}
		}
	}
	if len(found) == 0 {
		return "Other"
	}
	return strings.Join(found, ", ")
}

func (k *Keywords) stopWordSet() map[string]bool {
	set := make(map[string]bool, len(k.StopWords))
	for _, w := range k.StopWords {
		set[strings.ToLower(w)] = true
	}
	return set
}
