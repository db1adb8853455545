package listings

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultSelectorsYAML []byte

// SearchResult - одна карточка со страницы выдачи.
type SearchResult struct {
	Title       string
	URL         string
	Rating      float64
	Price       float64
	PriceRaw    string
	Description string
	Page        int
	SequenceNum int
	// Hash меняется, когда меняется название или цена карточки
	Hash   string
	Detail *Detail
}

type Detail struct {
	Title       string
	Description string
	Address     string
	Rating      float64
	Price       float64
	ImageURL    string
}

type Selectors struct {
	CardSelectors        string          `yaml:"card_selectors"`
	TitleSelectors       []string        `yaml:"title_selectors"`
	URLSelectors         []string        `yaml:"url_selectors"`
	RatingSelectors      []string        `yaml:"rating_selectors"`
	PriceSelectors       []string        `yaml:"price_selectors"`
	DescriptionSelectors []string        `yaml:"description_selectors"`
	NextPageLink         []string        `yaml:"next_page_link"`
	Detail               DetailSelectors `yaml:"detail"`
}

type DetailSelectors struct {
	TitleSelectors       []string `yaml:"title_selectors"`
	DescriptionSelectors []string `yaml:"description_selectors"`
	RatingSelectors      []string `yaml:"rating_selectors"`
	AddressSelectors     []string `yaml:"address_selectors"`
	PriceSelectors       []string `yaml:"price_selectors"`
}

// Validate проверяет минимальный набор селекторов
func (s *Selectors) Validate() error {
	if s.CardSelectors == "" {
		return fmt.Errorf("card_selectors is required")
	}
	if len(s.TitleSelectors) == 0 {
		return fmt.Errorf("title_selectors is required")
	}
	if len(s.URLSelectors) == 0 {
		return fmt.Errorf("url_selectors is required")
	}
	return nil
}

// DefaultSelectors - селекторы Booking.com, встроенные в бинарник.
func DefaultSelectors() (*Selectors, error) {
	var s Selectors
	if err := yaml.Unmarshal(defaultSelectorsYAML, &s); err != nil {
		return nil, fmt.Errorf("failed to parse embedded selectors: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
