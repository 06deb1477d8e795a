package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scope-labs/provider-intel/internal/model"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme Solutions Gold", "Acme Solutions"},
		{"Acme Solutions  Silver", "Acme Solutions"},
		{"Acme Solutions ready", "Acme Solutions"},
		{"Goldsmith Labs", "Goldsmith Labs"}, // badge only stripped as a whole trailing word
		{"  Acme   Corp  ", "Acme Corp"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanName(tt.input))
		})
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"https://acme.com", "https://acme.com", true},
		{"http://acme.com/about", "http://acme.com/about", true},
		{"acme.com", "https://acme.com", true},
		{"www.acme.co.uk/contact", "https://www.acme.co.uk/contact", true},
		{"not a url", "not a url", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CleanURL(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCoercePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"From $1,200", 1200},
		{"$150", 150},
		{"150", 150},
		{"Contact us", 0},
		{"", 0},
		{"USD 2,500 fixed", 2500},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoercePrice(tt.input))
		})
	}
}

func TestClean_CanonicalMapping(t *testing.T) {
	c := New(nil, 0)

	records := []model.RawRecord{
		{
			"name":         "Acme Solutions Gold",
			"country":      "Bangladesh",
			"location":     "Dhaka,  Bangladesh",
			"tier":         "gold",
			"website":      "acme.com",
			"description":  "Odoo implementation\r\nand support",
			"services":     []any{"Setup", "API", "Setup"},
			"references":   []any{"Client A", "Client B"},
			"price":        "From $1,200",
			"source_url":   "https://example.com/acme",
			"collected_at": "2026-08-01T10:00:00Z",
		},
	}

	out := c.Clean(records)
	require.Len(t, out, 1)
	p := out[0]

	assert.NotEmpty(t, p.ID, "missing id is generated")
	assert.Equal(t, "Acme Solutions", p.Name)
	assert.Equal(t, "BD", p.Country)
	assert.Equal(t, "Dhaka, Bangladesh", p.Location)
	assert.Equal(t, model.TierGold, p.Tier)
	assert.Equal(t, "https://acme.com", p.Website)
	assert.Equal(t, "Odoo implementation and support", p.Description)
	assert.Equal(t, []string{"Implementation", "Integration"}, p.Services, "aliases map and duplicates collapse")
	assert.Equal(t, []string{"Client A", "Client B"}, p.References)
	assert.Equal(t, 1200.0, p.Price)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), p.CollectedAt)
	assert.Empty(t, p.Flags)
}

func TestClean_UnmappedValuesFlaggedNotDropped(t *testing.T) {
	c := New(nil, 0)

	out := c.Clean([]model.RawRecord{{
		"name":       "Mystery Co",
		"country":    "Atlantis",
		"tier":       "Platinum",
		"website":    "not a url",
		"services":   []any{"Quantum Consulting"},
		"source_url": "https://example.com/mystery",
	}})
	require.Len(t, out, 1)
	p := out[0]

	assert.Equal(t, "Atlantis", p.Country, "unmapped country passes through")
	assert.Equal(t, model.TierUnknown, p.Tier)
	assert.Equal(t, []string{"Quantum Consulting"}, p.Services)
	assert.True(t, p.Flags["unmapped_country"])
	assert.True(t, p.Flags["unmapped_tier"])
	assert.True(t, p.Flags["unmapped_service"])
	assert.True(t, p.Flags["invalid_website"])
}

func TestClean_SkipsOnlyEmptyRecords(t *testing.T) {
	c := New(nil, 0)

	out := c.Clean([]model.RawRecord{
		{"description": "no name, no source"},
		{"name": "Has Name"},
		{"source_url": "https://example.com/x"},
	})
	assert.Len(t, out, 2)
}

func TestClean_ListFieldsFromCSVStrings(t *testing.T) {
	// Flat CSV rows carry joined strings instead of real lists.
	c := New(nil, 0)

	out := c.Clean([]model.RawRecord{{
		"name":       "Flat Row",
		"services":   "Implementation; Migration",
		"references": "Client A;Client B",
		"source_url": "https://example.com/f",
	}})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"Implementation", "Migration"}, out[0].Services)
	assert.Equal(t, []string{"Client A", "Client B"}, out[0].References)
}

func TestClean_PriceNumericFallback(t *testing.T) {
	c := New(nil, 0)

	out := c.Clean([]model.RawRecord{{
		"name":          "Priced",
		"price_numeric": "450",
		"source_url":    "https://example.com/p",
	}})
	require.Len(t, out, 1)
	assert.Equal(t, 450.0, out[0].Price)
}
