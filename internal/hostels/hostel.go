package hostels

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category определяет, какой тип комнаты публикует хостел на Booking.
type Category string

const (
	Private Category = "Privado"
	Shared  Category = "Compartido"
	Hybrid  Category = "Híbrido"
)

// BookingPrefix is the only accepted origin for hostel URLs.
const BookingPrefix = "https://www.booking.com"

var (
	ErrUnknownCategory = errors.New("unknown hostel category")
	ErrMissingURL      = errors.New("missing hostel URL")
	ErrInvalidURL      = errors.New("hostel URL must point to www.booking.com")
	ErrMissingName     = errors.New("missing hostel name")
)

var categoryAliases = map[string]Category{
	"privado":    Private,
	"private":    Private,
	"compartido": Shared,
	"shared":     Shared,
	"hibrido":    Hybrid,
	"hybrid":     Hybrid,
	"mixto":      Hybrid,
}

// ParseCategory принимает варианты с акцентом и без, в любом регистре.
func ParseCategory(s string) (Category, error) {
	key := fold(s)
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	switch c {
	case Private, Shared, Hybrid:
		return true
	}
	return false
}

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{Private, Shared, Hybrid}
}

type Hostel struct {
	Name     string   `json:"name"`
	Category Category `json:"type"`
	URL      string   `json:"url"`
}

func (h Hostel) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrMissingName
	}
	if !h.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, h.Category)
	}
	return ValidateURL(h.URL)
}

func ValidateURL(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return ErrMissingURL
	}
	if !strings.HasPrefix(u, BookingPrefix) {
		return fmt.Errorf("%w: %s", ErrInvalidURL, u)
	}
	return nil
}

// fold убирает диакритику и приводит к нижнему регистру: "Híbrido" -> "hibrido".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
