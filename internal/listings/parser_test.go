package listings

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div data-testid="property-card">
  <h3><a data-testid="title-link" href="/hotel/es/generator-barcelona.en-gb.html?aid=1#map"><div data-testid="title">Generator  Barcelona</div></a></h3>
  <div data-testid="review-score"><div>8.1</div><div>Very good</div></div>
  <span data-testid="price-and-discounted-price">€ 1.234</span>
  <div data-testid="recommended-units">Bed in 8-bed Dormitory Room</div>
</div>
<div data-testid="property-card">
  <a data-testid="title-link" href="https://www.booking.com/hotel/es/casa-gracia.en-gb.html"><div data-testid="title">Casa Gracia</div></a>
  <span data-testid="price-and-discounted-price">€95,50</span>
</div>
<div data-testid="property-card">
  <a data-testid="title-link" href="/hotel/es/generator-barcelona.en-gb.html?aid=1"><div data-testid="title">Generator duplicate</div></a>
</div>
<div data-testid="property-card">
  <div data-testid="title">No link</div>
</div>
<a aria-label="Next page" href="/searchresults.html?ss=Barcelona&offset=25">2</a>
</body></html>`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	sel, err := DefaultSelectors()
	require.NoError(t, err)
	return NewParser(sel)
}

func TestParseSearch(t *testing.T) {
	p := newTestParser(t)

	results, err := p.ParseSearch(searchPage, "https://www.booking.com/searchresults.html")
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "Generator Barcelona", first.Title)
	assert.Equal(t, "https://www.booking.com/hotel/es/generator-barcelona.en-gb.html?aid=1", first.URL)
	assert.Equal(t, 8.1, first.Rating)
	assert.Equal(t, 1234.0, first.Price)
	assert.Equal(t, "Bed in 8-bed Dormitory Room", first.Description)
	assert.Equal(t, 0, first.SequenceNum)

	second := results[1]
	assert.Equal(t, "Casa Gracia", second.Title)
	assert.Equal(t, 95.5, second.Price)
	assert.Zero(t, second.Rating)
	assert.Equal(t, 1, second.SequenceNum)
}

func TestNextPage(t *testing.T) {
	p := newTestParser(t)

	next, err := p.NextPage(searchPage, "https://www.booking.com/searchresults.html?ss=Barcelona")
	require.NoError(t, err)
	assert.Equal(t, "https://www.booking.com/searchresults.html?ss=Barcelona&offset=25", next)

	next, err = p.NextPage("<html><body></body></html>", "https://www.booking.com/")
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"€ 1.234", 1234},
		{"US$95", 95},
		{"Scored 8.7", 8.7},
		{"€95,50", 95.5},
		{"1,234.56 €", 1234.56},
		{"€ 101", 101},
		{"8.7 Very good 1,234 reviews", 8.7},
		{"sin precio", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.input); got != tt.expected {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base     string
		href     string
		expected string
	}{
		{"https://www.booking.com/searchresults.html", "/hotel/es/a.html#anchor", "https://www.booking.com/hotel/es/a.html"},
		{"", "  https://example.com/x  ", "https://example.com/x"},
		{"https://www.booking.com/", "https://other.example/y", "https://other.example/y"},
	}

	for _, tt := range tests {
		if got := resolveURL(tt.base, tt.href); got != tt.expected {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.expected)
		}
	}
}

func TestParseDetail(t *testing.T) {
	p := newTestParser(t)

	html := `<html><head>
<meta property="og:title" content="Fallback title">
<meta property="og:image" content="https://cf.bstatic.com/img.jpg">
</head><body>
<h2 class="pp-header__title">Hostal Lausanne</h2>
<div data-testid="PropertyHeaderAddressDesktop-wrapper"><span>Avinguda del Portal de l'Àngel, 24, Barcelona</span></div>
<div data-testid="review-score-component"><div>Scored 8.4</div></div>
<p data-testid="property-description">Right in   the centre.<script>var x = 1;</script>
Close to Plaça de Catalunya.</p>
</body></html>`

	d, err := p.ParseDetail(html)
	require.NoError(t, err)
	assert.Equal(t, "Hostal Lausanne", d.Title)
	assert.Equal(t, "Avinguda del Portal de l'Àngel, 24, Barcelona", d.Address)
	assert.Equal(t, 8.4, d.Rating)
	assert.Equal(t, "Right in the centre. Close to Plaça de Catalunya.", d.Description)
	assert.Equal(t, "https://cf.bstatic.com/img.jpg", d.ImageURL)
}

func TestParseDetailFallbacks(t *testing.T) {
	p := newTestParser(t)

	d, err := p.ParseDetail(`<html><head>
<meta property="og:title" content="Og Title">
<meta name="description" content="Plain   description">
</head><body></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Og Title", d.Title)
	assert.Equal(t, "Plain description", d.Description)
}

func TestTruncatePreview(t *testing.T) {
	input := "Habitación compartida muy luminosa cerca de la Sagrada Família y del metro"
	result := TruncatePreview(input, 30)

	if len([]rune(result)) > 31 {
		t.Errorf("TruncatePreview result too long: %d", len([]rune(result)))
	}
	if !strings.HasSuffix(result, "…") {
		t.Errorf("TruncatePreview should end with …")
	}
	if got := TruncatePreview("corto", 30); got != "corto" {
		t.Errorf("TruncatePreview(short) = %q", got)
	}
}

func TestSearchURL(t *testing.T) {
	checkin := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	u, err := SearchURL("https://www.booking.com/searchresults.html", "Barcelona", checkin, time.Time{}, 2)
	require.NoError(t, err)
	assert.Contains(t, u, "ss=Barcelona")
	assert.Contains(t, u, "checkin=2025-03-10")
	assert.Contains(t, u, "checkout=2025-03-11")
	assert.Contains(t, u, "group_adults=2")

	_, err = SearchURL("https://www.booking.com/searchresults.html", "", checkin, checkin, 2)
	assert.Error(t, err)

	assert.Equal(t, u, PageURL(u, 0))
	assert.Contains(t, PageURL(u, 2), "offset=50")
}
