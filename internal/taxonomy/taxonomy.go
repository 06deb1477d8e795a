// Package taxonomy loads the data dictionary: controlled vocabularies for
// countries, industries, and service modules, plus the validation rules the
// scorer applies. Lookups default to passthrough so unmapped values are never
// dropped, only reported.
package taxonomy

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/titanous/json5"
)

// Country holds the display names for an ISO 3166-1 alpha-2 code.
type Country struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// Industries holds the industry vocabulary.
type Industries struct {
	NormalizationMap map[string]string `json:"normalization_map"`
	Standardized     []string          `json:"standardized_taxonomy"`
}

// ServiceModules holds the service/module vocabulary.
type ServiceModules struct {
	CoreModules   []string          `json:"core_modules"`
	ModuleAliases map[string]string `json:"module_aliases"`
}

// QualityRules holds the scorer's validation inputs.
type QualityRules struct {
	ValidationPatterns  map[string]string  `json:"validation_patterns"`
	MandatoryFields     []string           `json:"mandatory_fields"`
	CompletenessWeights map[string]float64 `json:"completeness_weights"`
}

// Dictionary is the full data dictionary. Dictionaries are immutable after
// load; pattern regexes are compiled once.
type Dictionary struct {
	Countries      map[string]Country `json:"countries"`
	Industries     Industries         `json:"industries"`
	ServiceModules ServiceModules     `json:"service_modules"`
	QualityRules   QualityRules       `json:"data_quality_rules"`

	countryByName map[string]string
	patterns      map[string]*regexp.Regexp
}

// Load reads and indexes a data dictionary from a JSON/JSON5 file.
func Load(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", path)
	}

	var d Dictionary
	if err := json5.Unmarshal(raw, &d); err != nil {
		return nil, eris.Wrapf(err, "taxonomy: parse %s", path)
	}

	d.index()
	return &d, nil
}

// index builds the reverse country lookup and compiles validation patterns.
func (d *Dictionary) index() {
	d.countryByName = make(map[string]string, len(d.Countries)*2)
	for code, c := range d.Countries {
		if c.Name != "" {
			d.countryByName[strings.ToLower(c.Name)] = code
		}
		if c.FullName != "" {
			d.countryByName[strings.ToLower(c.FullName)] = code
		}
	}

	d.patterns = make(map[string]*regexp.Regexp, len(d.QualityRules.ValidationPatterns))
	for name, pat := range d.QualityRules.ValidationPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			// A broken pattern disables that check rather than failing the load.
			continue
		}
		d.patterns[name] = re
	}
}

// MapCountry resolves a country string to an ISO-2 code. Two-letter inputs
// are uppercased and accepted as-is; full names resolve through the
// dictionary. Unknown values pass through unchanged with ok=false.
func (d *Dictionary) MapCountry(s string) (code string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) == 2 {
		code = strings.ToUpper(s)
		_, known := d.Countries[code]
		return code, known
	}
	if code, found := d.countryByName[strings.ToLower(s)]; found {
		return code, true
	}
	return s, false
}

// MapIndustry resolves an industry string to the standardized taxonomy.
// Unknown values pass through unchanged with ok=false.
func (d *Dictionary) MapIndustry(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if mapped, found := d.Industries.NormalizationMap[s]; found {
		return mapped, true
	}
	for _, std := range d.Industries.Standardized {
		if strings.EqualFold(s, std) {
			return std, true
		}
	}
	return s, false
}

// MapService resolves a service/module name through aliases and the core
// module list. Unknown values pass through unchanged with ok=false.
func (d *Dictionary) MapService(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if mapped, found := d.ServiceModules.ModuleAliases[s]; found {
		return mapped, true
	}
	for _, core := range d.ServiceModules.CoreModules {
		if strings.EqualFold(s, core) {
			return core, true
		}
	}
	return s, false
}

// Pattern returns the compiled validation regex for the named check, or nil
// if the dictionary does not define one.
func (d *Dictionary) Pattern(name string) *regexp.Regexp {
	return d.patterns[name]
}

// Mandatory reports whether the named field is in the mandatory set.
func (d *Dictionary) Mandatory(field string) bool {
	for _, f := range d.QualityRules.MandatoryFields {
		if f == field {
			return true
		}
	}
	return false
}

// Default returns a built-in dictionary used when no file is configured.
// It mirrors the shipped config/data_dictionary.json.
func Default() *Dictionary {
	d := &Dictionary{
		Countries: map[string]Country{
			"US": {Name: "USA", FullName: "United States"},
			"GB": {Name: "UK", FullName: "United Kingdom"},
			"BD": {Name: "Bangladesh", FullName: "People's Republic of Bangladesh"},
			"IN": {Name: "India", FullName: "Republic of India"},
			"PK": {Name: "Pakistan", FullName: "Islamic Republic of Pakistan"},
			"DE": {Name: "Germany", FullName: "Federal Republic of Germany"},
			"CA": {Name: "Canada", FullName: "Canada"},
			"AU": {Name: "Australia", FullName: "Commonwealth of Australia"},
		},
		Industries: Industries{
			NormalizationMap: map[string]string{
				"Health":         "Healthcare",
				"Medical":        "Healthcare",
				"E-commerce":     "Retail",
				"Ecommerce":      "Retail",
				"Banking":        "Finance",
				"Fintech":        "Finance",
				"Manufacture":    "Manufacturing",
				"Education Tech": "Education",
			},
			Standardized: []string{
				"Manufacturing", "Retail", "Healthcare", "Finance",
				"Education", "Services", "General",
			},
		},
		ServiceModules: ServiceModules{
			CoreModules: []string{
				"Implementation", "Customization", "Integration",
				"Migration", "Support", "Training",
			},
			ModuleAliases: map[string]string{
				"Setup":      "Implementation",
				"Install":    "Implementation",
				"Deploy":     "Implementation",
				"Custom Dev": "Customization",
				"API":        "Integration",
				"Upgrade":    "Migration",
				"Consulting": "Support",
			},
		},
		QualityRules: QualityRules{
			ValidationPatterns: map[string]string{
				"country_code": `^[A-Z]{2}$`,
				"tier":         `^(Gold|Silver|Ready|Unknown)$`,
				"url":          `^https?://\S+$`,
			},
			MandatoryFields: []string{"name", "country", "source_url"},
			CompletenessWeights: map[string]float64{
				"name":        0.20,
				"country":     0.10,
				"location":    0.05,
				"tier":        0.10,
				"website":     0.15,
				"description": 0.15,
				"services":    0.15,
				"references":  0.10,
			},
		},
	}
	d.index()
	return d
}
