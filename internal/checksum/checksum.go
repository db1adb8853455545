package checksum

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ObservationKey - ключ наблюдения цены.
// Формула: SHA256(canonical_url|date_iso|adults)
func (g *Generator) ObservationKey(hostelURL string, date time.Time, adults int) string {
	dateISO := date.UTC().Format("2006-01-02")
	content := fmt.Sprintf("%s|%s|%d", CanonicalURL(hostelURL), dateISO, adults)
	return sum(content)
}

// ListingHash меняется при изменении названия или цены карточки.
// Формула: SHA256(canonical_url|title|price|date_iso)
func (g *Generator) ListingHash(listingURL, title string, price float64, date time.Time) string {
	dateISO := date.UTC().Format("2006-01-02")
	content := fmt.Sprintf("%s|%s|%.2f|%s", CanonicalURL(listingURL), strings.TrimSpace(title), price, dateISO)
	return sum(content)
}

// VerifyObservationKey проверяет соответствие ключа
func (g *Generator) VerifyObservationKey(expected, hostelURL string, date time.Time, adults int) bool {
	return g.ObservationKey(hostelURL, date, adults) == expected
}

func (g *Generator) VerifyListingHash(expected, listingURL, title string, price float64, date time.Time) bool {
	return g.ListingHash(listingURL, title, price, date) == expected
}

// CanonicalURL оставляет схему, хост и путь: параметры Booking (aid, sid, ...)
// не влияют на идентичность отеля.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/"))
}

func sum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
