package sp500

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultURL string = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
const DefaultUserAgent string = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var (
	ErrNoTable        = errors.New("sp500: constituents table not found")
	ErrNoSymbolColumn = errors.New("sp500: symbol column not found")
)

type HTTPError struct {
	StatusCode int
	Status     string
	Err        error
}

func NewHTTPError(statusCode int, err error) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Err:        err,
	}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("sp500: %d %s", e.StatusCode, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher scrapes the index constituents once and serves the cached list
// for the life of the process.
type Fetcher struct {
	Config *Config
	Client *http.Client
	Logger *zap.Logger

	mu      sync.Mutex
	tickers []string
}

func NewFetcher(config *Config, logger *zap.Logger) *Fetcher {
	if config == nil {
		config = &Config{}
	}
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		Config: config,
		Client: &http.Client{Timeout: config.Timeout},
		Logger: logger,
	}
}

// Tickers returns the constituent symbols as published (BRK.B keeps its dot).
func (f *Fetcher) Tickers(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tickers != nil {
		return append([]string(nil), f.tickers...), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.Config.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, NewHTTPError(res.StatusCode, nil)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	tickers, err := parseConstituents(doc)
	if err != nil {
		return nil, err
	}
	f.Logger.Info("loaded S&P 500 constituents", zap.Int("count", len(tickers)))
	f.tickers = tickers
	return append([]string(nil), tickers...), nil
}

func parseConstituents(doc *goquery.Document) ([]string, error) {
	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	col := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(th.Text()), "Symbol") {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return nil, ErrNoSymbolColumn
	}

	var tickers []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= col {
			return
		}
		if sym := strings.TrimSpace(cells.Eq(col).Text()); sym != "" {
			tickers = append(tickers, sym)
		}
	})
	return tickers, nil
}
