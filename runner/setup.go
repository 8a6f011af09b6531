package runner

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/budget"
	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/deduper"
	"github.com/AliAlAbbassi/air1/fetchers"
	"github.com/AliAlAbbassi/air1/linkedin"
	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/outreach"
	"github.com/AliAlAbbassi/air1/pacer"
	"github.com/AliAlAbbassi/air1/postgres"
	redisconfig "github.com/AliAlAbbassi/air1/redis/config"
	"github.com/AliAlAbbassi/air1/session"
	"github.com/AliAlAbbassi/air1/sqlite"
)

// Outreach bundles the wired attempt pipeline for a process. Both run modes
// build one and drive it through the scheduler.
type Outreach struct {
	Scheduler *pacer.Scheduler
	Store     *sqlite.Store
	Contacts  *postgres.ContactRepository

	contactsDB *sql.DB
	log        *zap.Logger
}

// NewOutreach wires configuration, storage, budget tracking, the protocol
// client and the pacing scheduler into a ready pipeline.
func NewOutreach(ctx context.Context, cfg *Config, log *zap.Logger) (*Outreach, error) {
	ocfg, err := config.NewOutreachConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load outreach config: %w", err)
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	if err := store.AutoMigrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}

	guard := session.NewGuard(store, log)

	tracker, err := newTracker(cfg, ocfg)
	if err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(cfg, ocfg)
	if err != nil {
		return nil, err
	}

	client := linkedin.NewClient(ocfg, log)
	resolver := linkedin.NewResolver(client, fetcher, ocfg.ResolutionOrder, log)
	classifier := linkedin.NewClassifier(ocfg.DuplicatePhrases)

	executor := outreach.NewExecutor(resolver, client, tracker, guard, classifier, log)

	ans := Outreach{
		Scheduler: pacer.New(executor, ocfg, log),
		Store:     store,
		log:       log,
	}

	if cfg.ContactsDsn != "" {
		db, err := sql.Open("pgx", cfg.ContactsDsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open contacts database: %w", err)
		}

		contacts, err := postgres.NewContactRepository(db)
		if err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to set up contact ledger: %w", err)
		}

		ans.contactsDB = db
		ans.Contacts = contacts
	}

	return &ans, nil
}

// Persist journals an outcome and, when it proves a connection, records it in
// the shared contact ledger. Persistence failures are logged, not fatal: the
// attempt already happened and aborting the batch would not undo it.
func (o *Outreach) Persist(ctx context.Context, accountID string, outcome models.Outcome) {
	// Outcomes still drain after a signal cancels the run context. The attempt
	// already happened, so the journal write must not die with the context.
	ctx = context.WithoutCancel(ctx)

	// Journal and ledger store the same canonical form the deduper keys on,
	// so a URL-form input and its bare slug count as one contact.
	outcome.Handle = deduper.Normalize(outcome.Handle)

	if err := o.Store.RecordAttempt(ctx, accountID, outcome); err != nil {
		o.log.Error("failed to journal attempt",
			zap.String("handle", outcome.Handle),
			zap.Error(err))
	}

	if o.Contacts == nil || !outcome.Classification.ConnectionExists() {
		return
	}

	if err := o.Contacts.RecordContact(ctx, accountID, outcome); err != nil {
		o.log.Error("failed to record contact",
			zap.String("handle", outcome.Handle),
			zap.Error(err))
	}
}

// FilterContacted drops handles whose connection is already proven, either in
// the local journal or in the shared contact ledger. They are not worth an
// attempt or a pacing delay.
func (o *Outreach) FilterContacted(ctx context.Context, accountID string, handles []string) ([]string, int, error) {
	journaled, err := o.Store.AttemptedHandles(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	contacted := make(map[string]bool, len(journaled))
	for h := range journaled {
		contacted[deduper.Normalize(h)] = true
	}

	fresh := make([]string, 0, len(handles))

	for _, h := range handles {
		key := deduper.Normalize(h)

		if contacted[key] {
			continue
		}

		if o.Contacts != nil {
			exists, err := o.Contacts.HasExistingConnection(ctx, accountID, key)
			if err != nil {
				return nil, 0, err
			}

			if exists {
				continue
			}
		}

		fresh = append(fresh, h)
	}

	return fresh, len(handles) - len(fresh), nil
}

func (o *Outreach) Close() error {
	if o.contactsDB != nil {
		return o.contactsDB.Close()
	}

	return nil
}

// newTracker picks the budget backend: process-local counters by default, a
// shared Redis ledger when workers on several machines spend the same
// account's budget.
func newTracker(cfg *Config, ocfg *config.OutreachConfig) (budget.Tracker, error) {
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}

	if redisURL != "" {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}

		return budget.NewRedis(goredis.NewClient(opt), ocfg.DailyCaps), nil
	}

	if cfg.RedisWorker {
		// Workers share accounts, so the budget must live in Redis too.
		rcfg, err := redisconfig.NewRedisConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load redis config: %w", err)
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     rcfg.GetRedisAddr(),
			Password: rcfg.Password,
			DB:       rcfg.DB,
		})

		return budget.NewRedis(client, ocfg.DailyCaps), nil
	}

	return budget.NewMemory(ocfg.DailyCaps), nil
}

func newFetcher(cfg *Config, ocfg *config.OutreachConfig) (fetchers.PageFetcher, error) {
	if !cfg.UseBrowser {
		return fetchers.NewHTTP(ocfg.HTTPTimeout, ocfg.UserAgent), nil
	}

	headless := !cfg.Debug

	fetcher, err := fetchers.NewJS(headless)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser fetcher: %w", err)
	}

	return fetcher, nil
}
