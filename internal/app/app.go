// Package app assembles the card services from configuration: it picks the
// rate limit store, builds the provider clients whose credentials are
// present, and exposes maintenance helpers shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/config"
	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers/lyrics"
	"github.com/tbourn/go-songcard-backend/internal/providers/mailer"
	"github.com/tbourn/go-songcard-backend/internal/providers/suno"
	"github.com/tbourn/go-songcard-backend/internal/ratelimit"
	"github.com/tbourn/go-songcard-backend/internal/repo"
	"github.com/tbourn/go-songcard-backend/internal/services"
	"github.com/tbourn/go-songcard-backend/internal/sysutil"
)

// App holds the wired services and the resources they share.
type App struct {
	Config   config.Config
	DB       *gorm.DB
	Limiter  *ratelimit.Limiter
	Cards    *services.CardService
	Workflow *services.Workflow

	redis *redis.Client
}

// Build wires services over db according to cfg. Providers whose API key is
// empty stay nil so the operations that need them report the feature as
// unavailable.
func Build(ctx context.Context, cfg config.Config, db *gorm.DB) (*App, error) {
	if db == nil {
		return nil, errors.New("app: nil db")
	}
	a := &App{Config: cfg, DB: db}

	store, err := a.limiterStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Limiter = ratelimit.New(store, nil)

	cards := services.NewCardService(db, cardRepoShim{})
	cards.Idem = idempotencyRepoShim{}
	cards.Limiter = a.Limiter
	cards.Demo = cfg.DemoMode
	cards.IdemTTL = cfg.IdempotencyTTL
	a.Cards = cards

	flow := services.NewWorkflow(db, cardRepoShim{}, jobRepoShim{}, emailLogRepoShim{})
	flow.Limiter = a.Limiter
	flow.PublicBaseURL = cfg.PublicBaseURL
	if cfg.Lyrics.APIKey != "" {
		flow.Lyrics = lyrics.NewClient(lyrics.Config{
			APIKey:  cfg.Lyrics.APIKey,
			BaseURL: cfg.Lyrics.BaseURL,
			Model:   sysutil.FirstNonEmpty(cfg.Lyrics.Model, lyrics.DefaultModel),
			Timeout: cfg.Lyrics.Timeout,
		})
	}
	if cfg.Song.APIKey != "" {
		flow.Songs = suno.NewClient(suno.Config{
			APIKey:        cfg.Song.APIKey,
			BaseURL:       sysutil.FirstNonEmpty(cfg.Song.BaseURL, suno.DefaultBaseURL),
			SubmitTimeout: cfg.Song.SubmitTimeout,
			StatusTimeout: cfg.Song.StatusTimeout,
		})
	}
	if cfg.Email.APIKey != "" {
		flow.Mail = mailer.NewClient(mailer.Config{
			APIKey: cfg.Email.APIKey,
			From:   sysutil.FirstNonEmpty(cfg.Email.From, mailer.DefaultFrom),
		})
	}
	a.Workflow = flow

	log.Info().
		Str("rate_store", cfg.RateLimit.Store).
		Bool("demo", cfg.DemoMode).
		Bool("lyrics", flow.Lyrics != nil).
		Bool("songs", flow.Songs != nil).
		Bool("email", flow.Mail != nil).
		Msg("services wired")

	return a, nil
}

func (a *App) limiterStore(ctx context.Context) (ratelimit.Store, error) {
	switch a.Config.RateLimit.Store {
	case config.RateStoreMemory:
		return ratelimit.NewMemoryStore(), nil
	case config.RateStoreRedis:
		rc := a.Config.RateLimit
		client, err := ratelimit.NewRedisClient(ctx, rc.RedisAddr, rc.RedisPassword, rc.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("app: rate limit store: %w", err)
		}
		a.redis = client
		return ratelimit.NewRedisStore(client), nil
	default:
		return ratelimit.NewDBStore(a.DB), nil
	}
}

// Close releases resources opened by Build. The database is owned by the
// caller.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Purge deletes expired replay records and rate limit windows older than the
// longest policy window.
func (a *App) Purge(ctx context.Context, now time.Time) (idem, windows int64, err error) {
	idem, err = repo.PurgeIdempotency(ctx, a.DB, now)
	if err != nil {
		return 0, 0, err
	}
	windows, err = repo.PurgeWindows(ctx, a.DB, now.Add(-longestWindow()))
	if err != nil {
		return idem, 0, err
	}
	return idem, windows, nil
}

// RunJanitor calls Purge every interval until ctx is done.
func (a *App) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			idem, windows, err := a.Purge(ctx, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("janitor purge failed")
				continue
			}
			if idem > 0 || windows > 0 {
				log.Debug().Int64("idempotency", idem).Int64("windows", windows).Msg("janitor purged")
			}
		}
	}
}

// CardReport is a card with its generation and email history.
type CardReport struct {
	Card   *domain.Card
	Jobs   []domain.GenerationJob
	Emails []domain.EmailLog
}

// Inspect loads a card by id or share id together with its history.
func (a *App) Inspect(ctx context.Context, key string) (*CardReport, error) {
	card, err := a.Cards.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	jobs, err := repo.ListJobsForCard(ctx, a.DB, card.ID)
	if err != nil {
		return nil, err
	}
	emails, err := repo.ListEmailLogs(ctx, a.DB, card.ID)
	if err != nil {
		return nil, err
	}
	return &CardReport{Card: card, Jobs: jobs, Emails: emails}, nil
}

func longestWindow() time.Duration {
	var longest time.Duration
	for _, p := range ratelimit.DefaultPolicies {
		if p.Window > longest {
			longest = p.Window
		}
	}
	return longest
}
