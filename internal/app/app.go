package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"SelfEarnBot/internal/config"
	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/finance"
	"SelfEarnBot/internal/generator"
	"SelfEarnBot/internal/httpserver"
	"SelfEarnBot/internal/infrastructure/archive"
	"SelfEarnBot/internal/infrastructure/events"
	"SelfEarnBot/internal/infrastructure/llm"
	"SelfEarnBot/internal/infrastructure/ml"
	"SelfEarnBot/internal/infrastructure/parser"
	"SelfEarnBot/internal/infrastructure/scheduler"
	"SelfEarnBot/internal/infrastructure/storage"
	"SelfEarnBot/internal/infrastructure/telegram"
	"SelfEarnBot/internal/learning"
	"SelfEarnBot/internal/logging"
	"SelfEarnBot/internal/ports"
	"SelfEarnBot/internal/publisher"
	"SelfEarnBot/internal/report"
	"SelfEarnBot/internal/scanner"
	"SelfEarnBot/internal/scoring"
	"SelfEarnBot/internal/selector"
	"SelfEarnBot/internal/strategy"
	"SelfEarnBot/internal/usecase"
	"SelfEarnBot/pkg/logger"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     ports.Store
	ledger    *finance.Ledger
	optimizer *learning.Optimizer
	cycle     *usecase.Cycle
	scheduler *usecase.Scheduler
	server    *httpserver.Server
	closers   []func() error
}

// New builds every adapter from cfg. Optional integrations (Telegram, Kafka,
// S3, remote quality assessor, ops server) are enabled only when configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	component := func(name string) *slog.Logger { return baseLogger.With("component", name) }

	a := &Application{cfg: cfg, logger: baseLogger}
	loc := cfg.Scheduler.Location()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	initial := cfg.Budget.Initial
	switch balance, err := store.LatestBudget(ctx); {
	case err == nil:
		initial = balance
		baseLogger.Info("budget restored from snapshot", "balance", balance)
	case !errors.Is(err, domain.ErrNotFound):
		a.Close()
		return nil, fmt.Errorf("load budget snapshot: %w", err)
	}
	a.ledger = finance.NewLedger(initial, component("ledger"))

	engine := scoring.NewEngine(costRanges(cfg.Economics))
	table := strategy.NewTable(engine)
	a.optimizer = learning.NewOptimizer(cfg.Selection.MinOpportunityScore)

	registry := scanner.NewRegistry()
	httpClient := &http.Client{Timeout: 15 * time.Second}
	registry.Register(parser.NewDemoScanner(uint64(time.Now().UnixNano())))
	registry.Register(parser.NewRSSScanner(httpClient, revenueRanges(cfg.Economics)))
	registry.Register(parser.NewMarketScanner(httpClient))
	source := parser.NewStrategySource(registry, cfg.Sources, component("source"))

	var assessor ports.QualityAssessor
	if cfg.Quality.AssessorURL != "" {
		assessor = ml.NewClient(cfg.Quality.AssessorURL, cfg.Quality.APIKey)
	}
	gen := generator.NewService(completionBackends(cfg.Providers, baseLogger), assessor, component("generator"))

	dice := publisher.NewDice(uint64(time.Now().UnixNano()))
	router := publisher.NewRouter(component("publisher"))
	router.Register(strategy.OutletPlatform, publisher.NewPlatform(dice))
	router.Register(strategy.OutletFreelance, publisher.NewFreelance(dice))

	var recorderOpts []learning.RecorderOption
	if len(cfg.Events.Brokers) > 0 {
		producer, err := events.NewKafkaProducer(events.ProducerConfig{
			Brokers:     cfg.Events.Brokers,
			Topic:       cfg.Events.Topic,
			ErrorLogger: logger.New(baseLogger, "kafka", slog.LevelWarn),
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init outcome stream: %w", err)
		}
		recorderOpts = append(recorderOpts, learning.WithSink(producer))
		a.closers = append(a.closers, producer.Close)
	}
	recorder := learning.NewRecorder(store, component("recorder"), recorderOpts...)

	var archiver ports.ReportArchiver
	if cfg.Archive.Bucket != "" {
		s3, err := archive.NewS3Archiver(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix, archive.WithLocation(loc))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init report archive: %w", err)
		}
		archiver = s3
	}

	var notifier ports.Notifier = logging.NewLogNotifier(component("notifier"))
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	a.cycle = usecase.NewCycle(usecase.CycleDeps{
		Source:     source,
		Store:      store,
		Selector:   selector.New(engine, component("selector")),
		Strategy:   table,
		Ledger:     a.ledger,
		Reinvestor: finance.NewReinvestor(a.ledger, finance.ReinvestPolicy{Enabled: cfg.Budget.AutoReinvest, Percentage: cfg.Budget.ReinvestPercentage}, component("reinvest")),
		Generator:  gen,
		Publisher:  router,
		Recorder:   recorder,
		Optimizer:  a.optimizer,
		Notifier:   notifier,
		Archiver:   archiver,
		Logger:     component("cycle"),
		Settings: usecase.CycleSettings{
			MinScore:        cfg.Selection.MinOpportunityScore,
			MaxPerCycle:     cfg.Selection.MaxPerCycle,
			AutoPublish:     cfg.Publishing.AutoPublish,
			RequireApproval: cfg.Publishing.RequireApproval,
			LearningEnabled: cfg.Learning.Enabled,
			OptimizeEvery:   cfg.Learning.OptimizeEvery,
			Location:        loc,
		},
	})

	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		a.cycle,
		cfg.Scheduler.MaxCycles,
		component("scheduler"),
		usecase.WithLocation(loc),
	)

	if cfg.HTTP.Addr != "" {
		a.server = httpserver.New(store, a.ledger, a.cycle, a.optimizer, component("http"),
			httpserver.WithLocation(loc),
			httpserver.WithScanners(registry.Names()),
		)
	}

	return a, nil
}

// RunOnce executes a single cycle.
func (a *Application) RunOnce(ctx context.Context) (domain.CycleSummary, error) {
	return a.cycle.Run(ctx)
}

// Run schedules cycles until ctx is cancelled or the configured number of
// cycles has completed. The ops server, when enabled, lives as long as Run.
func (a *Application) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() { serverErr <- a.server.ListenAndServe(runCtx, a.cfg.HTTP.Addr) }()
	}

	if err := a.scheduler.Start(runCtx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"interval", a.cfg.Scheduler.Interval,
		"max_cycles", a.cfg.Scheduler.MaxCycles,
		"timezone", a.cfg.Scheduler.Location().String())

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case <-a.scheduler.Done():
		a.logger.Info("cycle limit reached", "cycles", a.cycle.Count())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("ops server: %w", err)
		}
	}

	// Let an in-flight cycle finish its current opportunity and report.
	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer stopCancel()
	cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop timed out", "error", err)
	}

	return runErr
}

// Report builds a performance report from the full outcome history.
func (a *Application) Report(ctx context.Context) (report.Report, error) {
	history, err := a.store.ListOutcomes(ctx, domain.OutcomeFilter{})
	if err != nil {
		return report.Report{}, fmt.Errorf("load outcome history: %w", err)
	}
	return report.Build(history, a.ledger.Get(), a.optimizer.Optimize(history), time.Now().In(a.cfg.Scheduler.Location())), nil
}

// Close releases stores and producers in reverse order of creation.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, db config.DatabaseConfig) (ports.Store, error) {
	if db.Driver == "memory" {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.Open(ctx, db.Driver, db.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", db.Driver, err)
	}
	return store, nil
}

func costRanges(economics map[string]config.EconomicsConfig) map[domain.Category]scoring.CostRange {
	out := make(map[domain.Category]scoring.CostRange, len(economics))
	for name, e := range economics {
		out[domain.Category(name)] = scoring.CostRange{Min: e.AICostMin, Max: e.AICostMax}
	}
	return out
}

func revenueRanges(economics map[string]config.EconomicsConfig) map[domain.Category]parser.RevenueRange {
	out := make(map[domain.Category]parser.RevenueRange, len(economics))
	for name, e := range economics {
		out[domain.Category(name)] = parser.RevenueRange{Min: e.RevenueMin, Max: e.RevenueMax}
	}
	return out
}

// completionBackends uses the remote API for providers with a key and the
// offline backend for the rest.
func completionBackends(providers map[string]config.ProviderConfig, log *slog.Logger) map[string]ports.CompletionBackend {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]ports.CompletionBackend, len(providers)+1)
	for _, name := range names {
		p := providers[name]
		if p.APIKey != "" {
			out[name] = llm.NewChatClient(p)
			log.Info("completion backend", "provider", name, "mode", "remote", "model", p.Model)
			continue
		}
		out[name] = llm.NewOfflineBackend(p.Model, p.PricePer1K)
		log.Info("completion backend", "provider", name, "mode", "offline", "model", p.Model)
	}
	for _, required := range []string{strategy.ProviderOpenAI, strategy.ProviderMistral} {
		if _, ok := out[required]; !ok {
			out[required] = llm.NewOfflineBackend(required+"-offline", 0)
		}
	}
	return out
}
