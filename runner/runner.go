// Package runner selects and configures the process run mode: a one-shot
// batch from a handles file, or a long-lived Redis worker.
package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/tlmt"
	"github.com/AliAlAbbassi/air1/tlmt/gonoop"
	"github.com/AliAlAbbassi/air1/tlmt/goposthog"
)

const (
	RunModeFile = iota + 1
	RunModeRedis
	RunModeInstallPlaywright
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	InputFile   string
	ResultsFile string
	JSON        bool

	AccountID string
	Message   string

	// DatabasePath is the sqlite file holding credentials and the attempt
	// journal.
	DatabasePath string
	// ContactsDsn is the optional PostgreSQL DSN for the shared contact
	// ledger.
	ContactsDsn string

	RedisWorker bool
	RedisURL    string

	MaxActions int
	StartAt    int

	// UseBrowser resolves profiles through a real browser instead of plain
	// HTTP fetches.
	UseBrowser bool
	Debug      bool

	RunMode int
}

func ParseConfig() *Config {
	cfg := Config{}

	if os.Getenv("PLAYWRIGHT_INSTALL_ONLY") == "1" {
		cfg.RunMode = RunModeInstallPlaywright

		return &cfg
	}

	flag.StringVar(&cfg.InputFile, "input", "", "path to the input file with handles (one per line), or 'stdin'")
	flag.StringVar(&cfg.ResultsFile, "results", "stdout", "path to the results file [default: stdout]")
	flag.BoolVar(&cfg.JSON, "json", false, "produce JSON output instead of CSV")
	flag.StringVar(&cfg.AccountID, "account", "", "account whose session performs the outreach")
	flag.StringVar(&cfg.Message, "message", "", "connection note to include with each invitation")
	flag.StringVar(&cfg.DatabasePath, "db", "outreach.db", "sqlite database for credentials and the attempt journal")
	flag.StringVar(&cfg.ContactsDsn, "contacts-dsn", "", "PostgreSQL DSN of the shared contact ledger [optional]")
	flag.BoolVar(&cfg.RedisWorker, "redis", false, "run as a Redis worker consuming outreach batches")
	flag.StringVar(&cfg.RedisURL, "redis-url", "", "Redis URL (e.g. redis://localhost:6379/0)")
	flag.IntVar(&cfg.MaxActions, "max-actions", 0, "stop after this many connections were made or confirmed [default: unlimited]")
	flag.IntVar(&cfg.StartAt, "start-at", 0, "skip the first N handles (resume an interrupted batch)")
	flag.BoolVar(&cfg.UseBrowser, "browser", false, "resolve profiles with a real browser (playwright)")
	flag.BoolVar(&cfg.Debug, "debug", false, "debug logging; with -browser also opens a browser window")

	flag.Parse()

	if cfg.StartAt < 0 {
		panic("start-at must not be negative")
	}

	if cfg.MaxActions < 0 {
		panic("max-actions must not be negative")
	}

	switch {
	case cfg.RedisWorker:
		cfg.RunMode = RunModeRedis
	default:
		if cfg.InputFile == "" {
			panic("input file must be provided")
		}

		if cfg.AccountID == "" {
			panic("account must be provided")
		}

		cfg.RunMode = RunModeFile
	}

	return &cfg
}

// NewLogger builds the process logger. Debug gets the development console
// encoder, everything else structured JSON.
func NewLogger(debug bool) *zap.Logger {
	if debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}

		return log
	}

	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}

	return log
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		if os.Getenv("DISABLE_TELEMETRY") == "1" {
			telemetry = gonoop.New()

			return
		}

		apiKey := os.Getenv("POSTHOG_API_KEY")
		if apiKey == "" {
			telemetry = gonoop.New()

			return
		}

		endpoint := os.Getenv("POSTHOG_ENDPOINT")
		if endpoint == "" {
			endpoint = "https://eu.i.posthog.com"
		}

		val, err := goposthog.New(apiKey, endpoint)
		if err != nil || val == nil {
			telemetry = gonoop.New()

			return
		}

		telemetry = val
	})

	return telemetry
}

func Banner() {
	lines := []string{
		"air1 outreach",
		"batch connection requests with paced, budgeted delivery",
	}

	fmt.Fprintln(os.Stderr, strings.Join(lines, "\n"))
	fmt.Fprintln(os.Stderr)
}
