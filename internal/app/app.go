package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/broker"
	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/engine"
	"github.com/anycrawl/anycrawl-core/internal/extractor"
	"github.com/anycrawl/anycrawl-core/internal/frontier"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/llmagent"
	"github.com/anycrawl/anycrawl-core/internal/models"
	"github.com/anycrawl/anycrawl-core/internal/progress"
	"github.com/anycrawl/anycrawl-core/internal/proxy"
	"github.com/anycrawl/anycrawl-core/internal/queue"
	"github.com/anycrawl/anycrawl-core/internal/search"
)

// searchEngine is the C2 backend the Search Orchestrator fetches SERP/result
// pages with. Search result pages are plain server-rendered HTML, so the
// static engine is the right default — no job ever requests a different one
// since /v1/search carries no engine selector of its own beyond the search
// engine name (google/bing), which is unrelated to the C2 variant.
const searchEngine = interfaces.EngineStatic

// App is the composition root tying every C1-C9 component together,
// generalizing the teacher's own App struct (constructed once in main and
// threaded through the HTTP server) to this pipeline's component graph.
type App struct {
	cfg    *common.Config
	logger arbor.ILogger

	db       *broker.DB
	repo     *broker.Repository
	broker   *broker.Broker
	queues   *queue.Manager
	cancels  interfaces.CancelBroadcaster
	progress interfaces.ProgressEngine
	proxy    interfaces.ProxyRouter
	engines  *engine.Registry
	frontier interfaces.Frontier
	agent    *llmagent.Agent
	extract  interfaces.Extractor
	search   *search.Orchestrator

	waiter  *scrapeWaiter
	pool    *queue.WorkerPool
	janitor *janitor

	progressRDB *redis.Client
}

// New constructs every component and the worker pool that drives them, but
// does not start consuming queues yet — call Start for that.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := broker.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: open database: %w", err)
	}
	repo := broker.NewRepository(db, logger)

	queues, err := queue.NewManager(ctx, cfg.Redis.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("app: connect queue manager: %w", err)
	}
	cancels := queues.NewCancelBroadcaster()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", err)
	}
	progressRDB := redis.NewClient(redisOpts)
	if err := progressRDB.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("app: connect progress redis: %w", err)
	}
	prog := progress.New(progressRDB, logger)

	brk := broker.NewBroker(repo, repo, prog, cancels, logger)

	rules, err := proxy.LoadRules(cfg.Proxy.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("app: load proxy rules: %w", err)
	}
	router, err := proxy.NewRouter(rules, splitCSV(cfg.Proxy.TierURLs), logger)
	if err != nil {
		return nil, fmt.Errorf("app: build proxy router: %w", err)
	}

	engCfg := engine.DefaultConfig()
	engCfg.Headless = cfg.Crawler.Headless
	engCfg.IgnoreSSLError = cfg.Crawler.IgnoreSSLError
	engCfg.UserAgent = cfg.Crawler.UserAgent
	engCfg.KeepAlive = cfg.Crawler.KeepAlive
	if cfg.Crawler.DefaultTimeout > 0 {
		engCfg.DefaultTimeout = cfg.Crawler.DefaultTimeout
	}
	engines, engErrs := engine.NewRegistry(engCfg, logger)
	for _, e := range engErrs {
		logger.Warn().Err(e).Msg("engine unavailable, continuing without it")
	}

	fr := frontier.New(queues, prog, logger)

	agent := llmagent.New(cfg.AI.AnthropicAPIKey, cfg.AI.GeminiAPIKey, nil, logger)
	ext := extractor.New(agent, logger)

	so := search.New(queues, ext, searchEngine, logger)

	a := &App{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		repo:        repo,
		broker:      brk,
		queues:      queues,
		cancels:     cancels,
		progress:    prog,
		proxy:       router,
		engines:     engines,
		frontier:    fr,
		agent:       agent,
		extract:     ext,
		search:      so,
		waiter:      newScrapeWaiter(),
		progressRDB: progressRDB,
	}

	proc := newProcessor(brk, fr, ext, so, a.waiter, logger)
	a.pool = queue.NewWorkerPool(queues, engines, router, cancels, proc, logger, concurrencyFor(cfg))
	a.janitor = newJanitor(brk, logger)

	return a, nil
}

func concurrencyFor(cfg *common.Config) int {
	if cfg.Crawler.MinConcurrency > 0 {
		return cfg.Crawler.MinConcurrency
	}
	return queue.DefaultConcurrency
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// allQueueSpecs enumerates every (kind, engine) queue a worker pool services:
// scrape and crawl against all three C2 variants, search against the fixed
// static engine it always fetches result pages with.
func allQueueSpecs() []queue.QueueSpec {
	engines := []interfaces.EngineName{interfaces.EngineStatic, interfaces.EngineBrowserA, interfaces.EngineBrowserB}
	specs := make([]queue.QueueSpec, 0, len(engines)*2+1)
	for _, e := range engines {
		specs = append(specs, queue.QueueSpec{Kind: models.KindScrape, Engine: e})
		specs = append(specs, queue.QueueSpec{Kind: models.KindCrawl, Engine: e})
	}
	specs = append(specs, queue.QueueSpec{Kind: models.KindSearch, Engine: searchEngine})
	return specs
}

// Start launches the worker pool servicing every queue plus the background
// janitor. Call once, after New.
func (a *App) Start(ctx context.Context) error {
	if err := a.janitor.start(); err != nil {
		return fmt.Errorf("app: start janitor: %w", err)
	}
	return a.pool.Start(ctx, allQueueSpecs())
}

// Shutdown drains the worker pool and releases every held resource, in
// reverse dependency order, collecting (not short-circuiting on) individual
// close errors the same way engine.Registry.Close does.
func (a *App) Shutdown(ctx context.Context) error {
	a.janitor.stop()
	a.pool.Stop()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(a.engines.Close())
	record(a.queues.Close())
	record(a.progressRDB.Close())
	record(a.db.Close())
	return firstErr
}

// Logger exposes the process logger for internal/httpapi's own middleware.
func (a *App) Logger() arbor.ILogger { return a.logger }

// Config exposes the process configuration for internal/httpapi's server
// setup (listen address, timeouts).
func (a *App) Config() *common.Config { return a.cfg }
