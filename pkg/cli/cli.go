package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"marketlab/pkg/alpacadata"
	"marketlab/pkg/config"
	"marketlab/pkg/logging"
	"marketlab/pkg/portfolio"
	"marketlab/pkg/report"
)

const DATE_LAYOUT = "2006-01-02"

// App is the shared state every command starts from.
type App struct {
	Name   string
	Ctx    context.Context
	Config *config.Config
	Logger *zap.Logger

	cancel context.CancelFunc
}

// Start loads .env and the config file, builds the logger, and returns a
// context cancelled on SIGINT or SIGTERM.
func Start(name, configPath string, debug bool) (*App, error) {
	logger := logging.New(debug).Named(name)

	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found")
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		logger.Error("loading config", zap.String("path", configPath), zap.Error(err))
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &App{
		Name:   name,
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
		cancel: cancel,
	}, nil
}

func (a *App) Close() {
	a.cancel()
	_ = a.Logger.Sync()
}

// Alpaca builds the market data client from the loaded config.
func (a *App) Alpaca() (*alpacadata.Client, error) {
	client, err := alpacadata.NewClient(a.Config.Alpaca, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("alpaca client: %w", err)
	}
	return client, nil
}

// Save writes a report when enabled and logs where it went.
func (a *App) Save(enabled bool, name string, v any) {
	if !enabled {
		return
	}
	path, err := report.NewWriter(a.Config.Output.Dir, a.Config.Output.Pretty).Save(name, a.Name, v)
	if err != nil {
		a.Logger.Error("saving report", zap.String("name", name), zap.Error(err))
		return
	}
	a.Logger.Info("report saved", zap.String("path", path))
	fmt.Printf("\nResults saved to %s\n", path)
}

// Fatal logs err and exits non-zero.
func (a *App) Fatal(msg string, err error) {
	a.Logger.Error(msg, zap.Error(err))
	a.Close()
	os.Exit(1)
}

// Window returns [today-days, today] in UTC dates.
func Window(days int, now time.Time) (start, end time.Time) {
	y, m, d := now.UTC().Date()
	end = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -days), end
}

// ParseDate accepts YYYY-MM-DD; an empty string returns fallback.
func ParseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(DATE_LAYOUT, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// Positions reads holdings from path when the file exists, otherwise from
// the Alpaca account.
func (a *App) Positions(client *alpacadata.Client, path string) (portfolio.Positions, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			a.Logger.Info("loading positions file", zap.String("path", path))
			return report.LoadPositions(path)
		}
	}
	if client == nil {
		return nil, fmt.Errorf("no positions file at %q and no account client", path)
	}
	return client.Positions(a.Ctx)
}
