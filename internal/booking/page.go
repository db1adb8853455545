package booking

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	hotelNameRe    = regexp.MustCompile(`hotelName:\s*"(.+?)"`)
	hotelCountryRe = regexp.MustCompile(`hotelCountry:\s*"(.+?)"`)
	csrfTokenRe    = regexp.MustCompile(`b_csrf_token:\s*'(.+?)'`)
	// hotel/es/sixtytwo-barcelona.es.html
	slugRe = regexp.MustCompile(`hotel/(\w+)/([^./?#]+)`)

	ErrNoPageName = errors.New("hotel page name not found")
)

// PageInfo - переменные страницы отеля, нужные для запроса календаря.
type PageInfo struct {
	URL       string
	PageName  string
	Country   string
	CSRFToken string
	// Name - читаемое название, если на странице его нет, собирается из slug.
	Name string
}

// ParseHotelPage достаёт hotelName, hotelCountry и b_csrf_token из inline-скриптов.
// Если их нет, page name и страна берутся из URL.
func ParseHotelPage(html, pageURL string) (*PageInfo, error) {
	info := &PageInfo{URL: pageURL}

	if m := hotelNameRe.FindStringSubmatch(html); m != nil {
		info.PageName = m[1]
	}
	if m := hotelCountryRe.FindStringSubmatch(html); m != nil {
		info.Country = m[1]
	}
	if m := csrfTokenRe.FindStringSubmatch(html); m != nil {
		info.CSRFToken = m[1]
	}

	country, slug := SlugFromURL(pageURL)
	if info.PageName == "" {
		info.PageName = slug
	}
	if info.Country == "" {
		info.Country = country
	}
	if info.PageName == "" {
		return nil, ErrNoPageName
	}

	info.Name = PrettyName(info.PageName)
	return info, nil
}

// SlugFromURL: https://www.booking.com/hotel/es/sixtytwo-barcelona.es.html -> ("es", "sixtytwo-barcelona")
func SlugFromURL(u string) (country, slug string) {
	m := slugRe.FindStringSubmatch(u)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// PrettyName: "sixtytwo-barcelona" -> "Sixtytwo Barcelona".
func PrettyName(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
