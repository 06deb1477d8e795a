package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCountry(t *testing.T) {
	d := Default()

	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"US", "US", true},
		{"us", "US", true},
		{"USA", "US", true},
		{"United States", "US", true},
		{"bangladesh", "BD", true},
		{"Atlantis", "Atlantis", false}, // passthrough, flagged by caller
		{"ZZ", "ZZ", false},             // code shape but unknown
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code, ok := d.MapCountry(tt.input)
			assert.Equal(t, tt.expected, code)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestMapService(t *testing.T) {
	d := Default()

	got, ok := d.MapService("Setup")
	assert.True(t, ok)
	assert.Equal(t, "Implementation", got)

	got, ok = d.MapService("migration")
	assert.True(t, ok)
	assert.Equal(t, "Migration", got)

	got, ok = d.MapService("Quantum Consulting")
	assert.False(t, ok)
	assert.Equal(t, "Quantum Consulting", got, "unknown services pass through")
}

func TestMapIndustry(t *testing.T) {
	d := Default()

	got, ok := d.MapIndustry("Fintech")
	assert.True(t, ok)
	assert.Equal(t, "Finance", got)

	got, ok = d.MapIndustry("retail")
	assert.True(t, ok)
	assert.Equal(t, "Retail", got)

	got, ok = d.MapIndustry("Basket Weaving")
	assert.False(t, ok)
	assert.Equal(t, "Basket Weaving", got)
}

func TestPattern(t *testing.T) {
	d := Default()

	re := d.Pattern("country_code")
	require.NotNil(t, re)
	assert.True(t, re.MatchString("US"))
	assert.False(t, re.MatchString("usa"))

	assert.Nil(t, d.Pattern("nonexistent"))
}

func TestMandatory(t *testing.T) {
	d := Default()
	assert.True(t, d.Mandatory("name"))
	assert.True(t, d.Mandatory("source_url"))
	assert.False(t, d.Mandatory("website"))
}

func TestLoad(t *testing.T) {
	// JSON5: comments and trailing commas must parse.
	content := `{
		// test dictionary
		"countries": {
			"US": {"name": "USA", "full_name": "United States"},
		},
		"data_quality_rules": {
			"validation_patterns": {"country_code": "^[A-Z]{2}$"},
			"mandatory_fields": ["name"],
			"completeness_weights": {"name": 1.0},
		},
	}`
	path := filepath.Join(t.TempDir(), "dict.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)

	code, ok := d.MapCountry("United States")
	assert.True(t, ok)
	assert.Equal(t, "US", code)
	assert.NotNil(t, d.Pattern("country_code"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_BadPatternDisablesCheck(t *testing.T) {
	content := `{"data_quality_rules": {"validation_patterns": {"broken": "["}}}`
	path := filepath.Join(t.TempDir(), "dict.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, d.Pattern("broken"))
}
