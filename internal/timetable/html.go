package timetable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// HTMLSource scrapes a monthly timetable published as an HTML table.
// The URL template may contain {year}, {month} (two digits) and {monthname}.
type HTMLSource struct {
	urlTemplate string
	selector    string
	timeout     time.Duration
	log         *zap.Logger
}

// NewHTMLSource creates a scraper. selector picks the table element and
// defaults to the first "table" on the page.
func NewHTMLSource(urlTemplate, selector string, timeout time.Duration, log *zap.Logger) *HTMLSource {
	if selector == "" {
		selector = "table"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTMLSource{urlTemplate: urlTemplate, selector: selector, timeout: timeout, log: log}
}

func (s *HTMLSource) url(year int, month time.Month) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{month}", fmt.Sprintf("%02d", int(month)),
		"{monthname}", strings.ToLower(month.String()),
	).Replace(s.urlTemplate)
}

func (s *HTMLSource) FetchMonth(ctx context.Context, year int, month time.Month) (*domain.MonthTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := s.url(year, month)

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(s.timeout)

	var (
		rows     [][]string
		found    bool
		fetchErr error
	)
	c.OnHTML(s.selector, func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		e.ForEach("tr", func(_ int, tr *colly.HTMLElement) {
			var cells []string
			tr.ForEach("th, td", func(_ int, cell *colly.HTMLElement) {
				cells = append(cells, strings.TrimSpace(cell.Text))
			})
			rows = append(rows, cells)
		})
	})
	c.OnRequest(func(r *colly.Request) {
		s.log.Debug("fetching timetable", zap.String("url", r.URL.String()))
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, target, fetchErr)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s: no %q element", domain.ErrDataUnavailable, target, s.selector)
	}
	return buildMonth(year, month, rows)
}
