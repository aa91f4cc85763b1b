// Package bootstrap builds the application service and its backing clients from
// configuration. Both the server and the CLI start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"printshop/internal/ai"
	"printshop/internal/app"
	"printshop/internal/chatlog"
	"printshop/internal/config"
	"printshop/internal/core"
	"printshop/internal/db"
	"printshop/internal/jobs"
	"printshop/internal/messaging"
	"printshop/internal/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Runtime is a fully wired process. Close releases everything Open acquired.
type Runtime struct {
	Config  *config.Config
	Log     *zap.Logger
	Pool    *pgxpool.Pool
	Service app.ApplicationService
	Users   core.UserService
	Sweep   *jobs.OverdueSweep

	closers []func(context.Context) error
}

// Open connects to Postgres and the optional Redis and MongoDB backends, picks the
// model provider and wires the application service. A missing model key or an
// unreachable optional backend is logged and degraded, never fatal.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	rt := &Runtime{Config: cfg, Log: log, Pool: pool}
	rt.closers = append(rt.closers, func(context.Context) error { pool.Close(); return nil })

	customers := core.NewCustomerService(pool)
	orders := core.NewOrderService(pool)
	payments := core.NewPaymentService(pool)
	catalog := core.NewCatalogService(pool)
	templates := core.NewTemplateService(pool)
	messages := core.NewMessageLogService(pool)
	reports := core.NewReportingService(pool)
	rt.Users = core.NewUserService(pool)

	format := messaging.NewFormatter(cfg.DisplayLocale)
	agg := messaging.NewAggregator(orders, payments, format, cfg.PublicOrigin)
	composer := messaging.NewComposer(customers, templates, agg, format, cfg.TimeZone)

	var notifier notify.Publisher = notify.Nop{}
	if cfg.RedisURL != "" {
		client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, notifications disabled", zap.Error(err))
		} else {
			notifier = notify.NewRedisPublisher(client, log)
			rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		}
	}

	var transcripts chatlog.Store = chatlog.Nop{}
	if cfg.MongoURI != "" {
		store, err := chatlog.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Warn("mongodb unavailable, chat transcripts disabled", zap.Error(err))
		} else {
			transcripts = store
			rt.closers = append(rt.closers, store.Close)
		}
	}

	model, err := newModel(ctx, cfg)
	if err != nil {
		log.Warn("assistant disabled", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}
	var dispatcher *ai.Dispatcher
	if model != nil {
		var search *ai.SearchClient
		if cfg.SearchAPIKey != "" {
			search = ai.NewSearchClient(cfg.SearchAPIURL, cfg.SearchAPIKey)
		}
		tools := ai.NewShopTools(ai.ShopData{
			Customers: customers,
			Orders:    orders,
			Payments:  payments,
			Catalog:   catalog,
			Templates: templates,
			Reports:   reports,
			Search:    search,
		})
		dispatcher = ai.NewDispatcher(model, tools, ai.SystemPrompt, log.Named("dispatcher"))
	}

	rt.Service = app.NewAppService(app.Deps{
		Customers:    customers,
		Orders:       orders,
		Payments:     payments,
		Catalog:      catalog,
		Templates:    templates,
		Messages:     messages,
		Users:        rt.Users,
		Reports:      reports,
		Composer:     composer,
		Dispatcher:   dispatcher,
		AIProvider:   cfg.AIProvider,
		Transcripts:  transcripts,
		Notifier:     notifier,
		PublicOrigin: cfg.PublicOrigin,
		Location:     cfg.TimeZone,
		Log:          log,
	})
	rt.Sweep = jobs.NewOverdueSweep(reports, notifier, format, cfg.TimeZone, log.Named("jobs"))
	return rt, nil
}

// newModel builds the configured provider's model. A nil model always comes with an error.
func newModel(ctx context.Context, cfg *config.Config) (ai.Model, error) {
	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		m, err := ai.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is not set")
		}
		m, err := ai.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Close releases backends in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
