package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() Source {
	return Source{
		Name:        "directory",
		BaseURL:     "https://directory.example.com",
		SearchURL:   "https://directory.example.com/search?q={keyword}",
		CountryCode: "US",
		Listing: Listing{
			ProviderLink: "div.card a.profile",
			NextPage:     "a.next",
			Card: map[string]Field{
				"tier": {Selector: "span.badge"},
			},
		},
		Detail: map[string]Field{
			"name":        {Selector: "h1.seller-name"},
			"price":       {Selector: "span.price"},
			"website":     {Selector: "a.website", Attr: "href"},
			"services":    {Selector: "ul.services li", List: true},
			"description": {Selector: "div.about p"},
		},
	}
}

const listingHTML = `
<html><body>
<div class="card">
	<a class="profile" href="/sellers/acme">Acme <span class="badge">Gold</span></a>
</div>
<div class="card">
	<a class="profile" href="https://other.example.com/sellers/beta">Beta <span class="badge">Silver</span></a>
</div>
<div class="card">
	<a class="profile" href="/sellers/acme">Acme again</a>
</div>
<div class="card">
	<a class="profile" href="#top">Anchor</a>
</div>
<a class="next" href="/search?q=fiverr&amp;page=2">Next</a>
</body></html>`

func TestParseListing(t *testing.T) {
	src := testSource()

	page, err := ParseListing(listingHTML, src, src.BaseURL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://directory.example.com/sellers/acme",
		"https://other.example.com/sellers/beta",
	}, page.ProviderURLs, "duplicates and anchors are dropped")

	assert.Equal(t, "https://directory.example.com/search?q=fiverr&page=2", page.NextURL)

	require.Len(t, page.Cards, 2)
	assert.Equal(t, "Gold", page.Cards[0].GetString("tier"))
	assert.Equal(t, "https://directory.example.com/sellers/acme", page.Cards[0].GetString("source_url"))
	assert.Equal(t, "Silver", page.Cards[1].GetString("tier"))
}

func TestParseListing_LastPage(t *testing.T) {
	src := testSource()
	html := `<div class="card"><a class="profile" href="/sellers/acme">Acme</a></div>`

	page, err := ParseListing(html, src, src.BaseURL)
	require.NoError(t, err)
	assert.Empty(t, page.NextURL)
}

const detailHTML = `
<html><body>
<h1 class="seller-name">  Acme Solutions  </h1>
<span class="price">From $1,200</span>
<a class="website" href="https://acme.com">Visit</a>
<ul class="services">
	<li>Implementation</li>
	<li>Migration</li>
	<li></li>
</ul>
<div class="about"><p>Full-service implementation shop.</p></div>
</body></html>`

func TestParseDetail(t *testing.T) {
	src := testSource()

	rec, err := ParseDetail(detailHTML, src, "https://directory.example.com/sellers/acme")
	require.NoError(t, err)

	assert.Equal(t, "Acme Solutions", rec.GetString("name"))
	assert.Equal(t, "From $1,200", rec.GetString("price"))
	assert.Equal(t, "https://acme.com", rec.GetString("website"))
	assert.Equal(t, "Full-service implementation shop.", rec.GetString("description"))
	assert.Equal(t, []string{"Implementation", "Migration"}, rec.GetList("services"))
	assert.Equal(t, "https://directory.example.com/sellers/acme", rec.GetString("source_url"))
	assert.Equal(t, "US", rec.GetString("country"), "source country code fills in when the page has none")
}

func TestParseDetail_MissingFieldsOmitted(t *testing.T) {
	src := testSource()

	rec, err := ParseDetail("<html><body></body></html>", src, "https://x.example.com/p")
	require.NoError(t, err)

	_, hasName := rec["name"]
	assert.False(t, hasName)
	_, hasServices := rec["services"]
	assert.False(t, hasServices)
	assert.Equal(t, "https://x.example.com/p", rec.GetString("source_url"))
}

func TestResolveURL(t *testing.T) {
	base := "https://directory.example.com/search"
	tests := []struct {
		name string
		href string
		want string
	}{
		{"relative", "/sellers/acme", "https://directory.example.com/sellers/acme"},
		{"absolute", "https://other.com/x", "https://other.com/x"},
		{"anchor", "#top", ""},
		{"javascript", "javascript:void(0)", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(base, tt.href))
		})
	}
}
