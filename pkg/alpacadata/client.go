package alpacadata

import (
	"errors"
	"os"
	"strconv"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"
)

const (
	PAPER_URL  = "https://paper-api.alpaca.markets"
	LIVE_URL   = "https://api.alpaca.markets"
	BATCH_SIZE = 100 // symbols per multi-symbol request
)

var (
	ErrMissingCredentials = errors.New("alpacadata: ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")
	ErrNoData             = errors.New("alpacadata: no data returned")
)

type Config struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Paper     *bool  `yaml:"paper"` // nil means paper
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

func (c Config) IsPaper() bool {
	return c.Paper == nil || *c.Paper
}

// envConfig reads the raw environment; Paper stays nil unless ALPACA_PAPER
// parses as a bool.
func envConfig() Config {
	c := Config{
		APIKey:    os.Getenv("ALPACA_API_KEY"),
		APISecret: os.Getenv("ALPACA_SECRET_KEY"),
		BaseURL:   os.Getenv("ALPACA_BASE_URL"),
		Feed:      os.Getenv("ALPACA_FEED"),
	}
	if v, err := strconv.ParseBool(os.Getenv("ALPACA_PAPER")); err == nil {
		c.Paper = &v
	}
	return c
}

// ConfigFromEnv reads credentials the same way the commands expect them in
// .env. ALPACA_PAPER defaults to true and ALPACA_FEED to iex.
func ConfigFromEnv() Config {
	return envConfig().withDefaults()
}

// FillFromEnv completes c with environment values for the fields it leaves
// unset, then derives the base URL and feed.
func (c Config) FillFromEnv() Config {
	env := envConfig()
	if c.APIKey == "" {
		c.APIKey = env.APIKey
	}
	if c.APISecret == "" {
		c.APISecret = env.APISecret
	}
	if c.Feed == "" {
		c.Feed = env.Feed
	}
	if c.Paper == nil {
		c.Paper = env.Paper
	}
	if c.BaseURL == "" {
		c.BaseURL = env.BaseURL
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Feed == "" {
		c.Feed = string(marketdata.IEX)
	}
	if c.BaseURL == "" {
		c.BaseURL = LIVE_URL
		if c.IsPaper() {
			c.BaseURL = PAPER_URL
		}
	}
	return c
}

func (c Config) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// MarketData is the subset of *marketdata.Client used here.
type MarketData interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
	GetSnapshots(symbols []string, req marketdata.GetSnapshotRequest) (map[string]*marketdata.Snapshot, error)
	GetTrades(symbol string, req marketdata.GetTradesRequest) ([]marketdata.Trade, error)
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
	GetCorporateActions(req marketdata.GetCorporateActionsRequest) (marketdata.CorporateActions, error)
}

// Trading is the subset of *alpaca.Client used here.
type Trading interface {
	GetPositions() ([]alpaca.Position, error)
}

type Client struct {
	Config  Config
	Market  MarketData
	Trading Trading
	Logger  *zap.Logger

	// Alpaca is the full trading client, nil when built from fakes.
	Alpaca *alpaca.Client
}

func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := marketdata.ClientOpts{
		APIKey:    config.APIKey,
		APISecret: config.APISecret,
	}
	if config.DataURL != "" {
		opts.BaseURL = config.DataURL
	}
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    config.APIKey,
		APISecret: config.APISecret,
		BaseURL:   config.BaseURL,
	})

	return &Client{
		Config:  config,
		Market:  marketdata.NewClient(opts),
		Trading: trading,
		Alpaca:  trading,
		Logger:  logger,
	}, nil
}

func (c *Client) feed() marketdata.Feed {
	return marketdata.Feed(c.Config.Feed)
}

func batches(symbols []string, size int) [][]string {
	var out [][]string
	for len(symbols) > 0 {
		n := min(size, len(symbols))
		out = append(out, symbols[:n])
		symbols = symbols[n:]
	}
	return out
}
