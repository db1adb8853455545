package app

import (
	"context"
	"fmt"
	"time"

	"bcn-hostel-prices/internal/checksum"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/listings"
	"bcn-hostel-prices/internal/observability"
)

type Searcher struct {
	cfg       *config.Config
	logger    *observability.Logger
	transport fetcher.Transport
	parser    *listings.Parser
	keys      *checksum.Generator
	now       func() time.Time
}

func NewSearcher(cfg *config.Config, logger *observability.Logger, transport fetcher.Transport, parser *listings.Parser) *Searcher {
	return &Searcher{
		cfg:       cfg,
		logger:    logger,
		transport: transport,
		parser:    parser,
		keys:      checksum.NewGenerator(),
		now:       time.Now,
	}
}

type SearchQuery struct {
	Query    string
	Checkin  time.Time
	Checkout time.Time
	Adults   int
}

type SearchOutcome struct {
	Results        []*listings.SearchResult
	TotalPages     int
	DuplicateCards int
	DetailsFetched int
	DetailsFailed  int
	StoppedReason  string
}

// Run проходит страницы выдачи до search.max_pages, затем загружает детали
// первых search.max_details карточек по одной.
func (s *Searcher) Run(ctx context.Context, q SearchQuery) (*SearchOutcome, error) {
	searchURL, err := listings.SearchURL(s.cfg.Search.BaseURL, q.Query, q.Checkin, q.Checkout, q.Adults)
	if err != nil {
		return nil, err
	}

	maxPages := s.cfg.Search.MaxPages
	s.logger.Info("Starting search",
		"query", q.Query,
		"url", searchURL,
		"max_pages", maxPages,
	)

	stats := &SearchOutcome{}
	seen := make(map[string]bool)
	currentURL := searchURL

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		s.logger.Info("Processing page", "page", pageNum+1, "url", currentURL)

		resp, err := s.transport.Do(ctx, &fetcher.Request{URL: currentURL, Render: true})
		if err == nil && !resp.OK() {
			err = &fetcher.StatusError{URL: currentURL, StatusCode: resp.StatusCode}
		}
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("fetch error at page %d: %v", pageNum+1, err)
			// без первой страницы искать нечего; дальше страница пропускается
			if pageNum == 0 || ctx.Err() != nil {
				s.logger.Error("Fetch failed", "page", pageNum+1, "url", currentURL, "error", err.Error())
				return stats, err
			}
			s.logger.Warn("Fetch failed, keeping collected results", "page", pageNum+1, "url", currentURL, "error", err.Error())
			break
		}

		cards, err := s.parser.ParseSearch(string(resp.Body), currentURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("parse error at page %d: %v", pageNum+1, err)
			if pageNum == 0 {
				s.logger.Error("Parse search page failed", "page", pageNum+1, "error", err.Error())
				return stats, err
			}
			s.logger.Warn("Parse search page failed", "page", pageNum+1, "error", err.Error())
			break
		}

		if len(cards) == 0 {
			s.logger.Info("No cards found on page", "page", pageNum+1)
			stats.StoppedReason = fmt.Sprintf("no results on page %d", pageNum+1)
			break
		}

		stats.TotalPages++
		newOnPage := 0
		for _, card := range cards {
			if seen[card.URL] {
				stats.DuplicateCards++
				continue
			}
			seen[card.URL] = true
			card.Page = pageNum
			card.SequenceNum = newOnPage
			card.Hash = s.keys.ListingHash(card.URL, card.Title, card.Price, s.listingDate(q))
			stats.Results = append(stats.Results, card)
			newOnPage++
		}

		s.logger.Info("Page analysis",
			"page", pageNum+1,
			"total_cards", len(cards),
			"new_cards", newOnPage,
		)

		if pageNum+1 >= maxPages {
			stats.StoppedReason = fmt.Sprintf("reached max pages (%d)", maxPages)
			break
		}

		// Ищем ссылку на следующую страницу
		nextLink, err := s.parser.NextPage(string(resp.Body), currentURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("failed to extract next link at page %d: %v", pageNum+1, err)
			break
		}
		if nextLink == "" {
			// кнопка без href: полная страница значит, что есть следующая по offset
			if len(cards) < listings.ResultsPerPage {
				stats.StoppedReason = fmt.Sprintf("no next link at page %d", pageNum+1)
				break
			}
			nextLink = listings.PageURL(searchURL, pageNum+1)
		}
		currentURL = nextLink
	}

	if s.cfg.Search.FetchDetails {
		s.fetchDetails(ctx, stats)
	}

	s.logger.Info("Search completed",
		"total_pages", stats.TotalPages,
		"results", len(stats.Results),
		"details", stats.DetailsFetched,
		"details_failed", stats.DetailsFailed,
		"reason", stats.StoppedReason,
	)
	return stats, ctx.Err()
}

// fetchDetails идёт последовательно; паузу между запросами держит транспорт.
func (s *Searcher) fetchDetails(ctx context.Context, stats *SearchOutcome) {
	limit := min(s.cfg.Search.MaxDetails, len(stats.Results))
	for _, r := range stats.Results[:limit] {
		if ctx.Err() != nil {
			return
		}

		resp, err := s.transport.Do(ctx, &fetcher.Request{URL: r.URL, Render: true})
		if err == nil && !resp.OK() {
			err = &fetcher.StatusError{URL: r.URL, StatusCode: resp.StatusCode}
		}
		if err != nil {
			stats.DetailsFailed++
			s.logger.Warn("Detail fetch failed", "url", r.URL, "error", err.Error())
			continue
		}

		detail, err := s.parser.ParseDetail(string(resp.Body))
		if err != nil {
			stats.DetailsFailed++
			s.logger.Warn("Detail parse failed", "url", r.URL, "error", err.Error())
			continue
		}
		r.Detail = detail
		stats.DetailsFetched++
	}
}

func (s *Searcher) listingDate(q SearchQuery) time.Time {
	if !q.Checkin.IsZero() {
		return q.Checkin
	}
	return s.now().UTC()
}
