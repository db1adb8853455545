package listings

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spacesRe = regexp.MustCompile(`\s+`)

// MaxDescriptionChars - описание в таблице и CSV обрезается до этой длины.
const MaxDescriptionChars = 300

// ParseDetail парсит страницу отеля: сначала селекторы, потом og:-метатеги и h1.
func (p *Parser) ParseDetail(html string) (*Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	sel := p.selectors.Detail
	root := doc.Selection
	d := &Detail{}

	// Title: селекторы → og:title → h1
	d.Title = collapseSpaces(trySelectors(root, sel.TitleSelectors))
	if d.Title == "" {
		if og, _ := doc.Find("meta[property='og:title']").Attr("content"); og != "" {
			d.Title = strings.TrimSpace(og)
		} else {
			d.Title = collapseSpaces(doc.Find("h1").First().Text())
		}
	}

	// Description: селекторы → og:description → meta description
	for _, selector := range sel.DescriptionSelectors {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		inner, _ := node.Html()
		if text := cleanHTML(inner); text != "" {
			d.Description = text
			break
		}
	}
	if d.Description == "" {
		og, _ := doc.Find("meta[property='og:description']").Attr("content")
		if og == "" {
			og, _ = doc.Find("meta[name='description']").Attr("content")
		}
		d.Description = collapseSpaces(og)
	}
	d.Description = TruncatePreview(d.Description, MaxDescriptionChars)

	d.Address = collapseSpaces(trySelectors(root, sel.AddressSelectors))
	d.Rating = ParseNumber(trySelectors(root, sel.RatingSelectors))
	d.Price = ParseNumber(trySelectors(root, sel.PriceSelectors))
	d.ImageURL, _ = doc.Find("meta[property='og:image']").Attr("content")

	return d, nil
}

// cleanHTML парсит HTML и извлекает текст
func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, noscript").Remove()

	text := strings.ReplaceAll(doc.Text(), "\u00a0", " ")
	text = spacesRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// TruncatePreview обрезает текст до max символов по границе слова.
func TruncatePreview(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}

	truncated := string(runes[:max])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}

	return truncated + "…"
}
