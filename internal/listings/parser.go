package listings

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var numberRe = regexp.MustCompile(`\d[\d.,\x{00A0}\x{202F}]*`)

type Parser struct {
	selectors *Selectors
}

func NewParser(selectors *Selectors) *Parser {
	return &Parser{
		selectors: selectors,
	}
}

// ParseSearch парсит страницу выдачи и возвращает карточки в порядке страницы.
// Карточки без названия или ссылки пропускаются, повторы по URL отбрасываются.
func (p *Parser) ParseSearch(html, baseURL string) ([]*SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		results []*SearchResult
		seen    = make(map[string]struct{})
	)

	doc.Find(p.selectors.CardSelectors).Each(func(i int, sel *goquery.Selection) {
		title := trySelectors(sel, p.selectors.TitleSelectors)
		if title == "" {
			return
		}

		urlRaw := tryAttr(sel, p.selectors.URLSelectors, "href")
		if urlRaw == "" {
			return
		}
		link := resolveURL(baseURL, urlRaw)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		priceRaw := trySelectors(sel, p.selectors.PriceSelectors)
		results = append(results, &SearchResult{
			Title:       collapseSpaces(title),
			URL:         link,
			Rating:      ParseNumber(trySelectors(sel, p.selectors.RatingSelectors)),
			Price:       ParseNumber(priceRaw),
			PriceRaw:    collapseSpaces(priceRaw),
			Description: collapseSpaces(trySelectors(sel, p.selectors.DescriptionSelectors)),
			SequenceNum: len(results),
		})
	})

	return results, nil
}

// NextPage ищет ссылку на следующую страницу; пустая строка - страниц больше нет.
func (p *Parser) NextPage(html, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range p.selectors.NextPageLink {
		href, exists := doc.Find(selector).First().Attr("href")
		if exists && strings.TrimSpace(href) != "" {
			return resolveURL(baseURL, href), nil
		}
	}

	return "", nil
}

func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		node := s.Find(selector).First()
		text := strings.TrimSpace(node.Text())
		if text != "" {
			return text
		}
		// Пробуем атрибут (для ссылок и картинок)
		if attr, exists := node.Attr("href"); exists && attr != "" {
			return attr
		}
		if attr, exists := node.Attr("src"); exists && attr != "" {
			return attr
		}
	}
	return ""
}

func tryAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		if v, exists := s.Find(selector).First().Attr(attr); exists && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// resolveURL делает ссылку абсолютной и убирает якорь.
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if idx := strings.Index(href, "#"); idx > -1 {
		href = href[:idx]
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// ParseNumber достаёт первое число из строки вида "€ 1.234", "US$95", "Scored 8.7".
// Последний '.' или ',' с ровно тремя цифрами после него считается разделителем
// тысяч, иначе десятичным.
func ParseNumber(s string) float64 {
	m := numberRe.FindString(s)
	if m == "" {
		return 0
	}
	m = strings.NewReplacer("\u00a0", "", "\u202f", "").Replace(strings.TrimRight(m, ".,\u00a0\u202f"))

	lastSep := strings.LastIndexAny(m, ".,")
	if lastSep >= 0 {
		decimals := len(m) - lastSep - 1
		intPart := strings.NewReplacer(".", "", ",", "").Replace(m[:lastSep])
		if decimals == 3 {
			// 1.234 / 1,234 - тысячи
			m = intPart + m[lastSep+1:]
		} else {
			m = intPart + "." + m[lastSep+1:]
		}
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
