// -----------------------------------------------------------------------
// Last Modified: Wednesday, 12th August 2026 9:21:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/handlers"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/services/annotator"
	"github.com/ternarybob/auspex/internal/services/calendar"
	"github.com/ternarybob/auspex/internal/services/events"
	"github.com/ternarybob/auspex/internal/services/llm"
	"github.com/ternarybob/auspex/internal/services/pdf"
	"github.com/ternarybob/auspex/internal/services/report"
	"github.com/ternarybob/auspex/internal/services/scheduler"
	"github.com/ternarybob/auspex/internal/services/timezone"
	"github.com/ternarybob/auspex/internal/storage"
)

// Name of the scheduled job that runs the daily pipeline
const dailyFetchJob = "daily-fetch"

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline services
	EventService     interfaces.EventService
	CalendarService  interfaces.CalendarService
	AnnotatorService *annotator.Service
	ReportService    interfaces.ReportService
	PDFService       interfaces.PDFService
	TimezoneService  *timezone.Service
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	WSHandler        *handlers.WebSocketHandler
	LogStreamer      *handlers.LogStreamer
	PageHandler      *handlers.PageHandler
	CalendarHandler  *handlers.CalendarHandler
	AnalysisHandler  *handlers.AnalysisHandler
	MarketHandler    *handlers.MarketHandler
	ReportHandler    *handlers.ReportHandler
	SettingsHandler  *handlers.SettingsHandler
	SchedulerHandler *handlers.SchedulerHandler
	StatusHandler    *handlers.StatusHandler
	PipelineHandler  *handlers.PipelineHandler

	scoringMu sync.RWMutex
	scoringOn bool
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event bus and WebSocket hub come first so every later service can
	// publish and every log line can reach the UI.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// Mirror the server log into the UI log panel via arbor's context channel
	app.LogStreamer = handlers.NewLogStreamer(app.WSHandler, &app.Config.WebSocket)
	if err := app.LogStreamer.Start(); err != nil {
		return nil, fmt.Errorf("failed to start log streamer: %w", err)
	}
	app.Logger.SetChannel("context", app.LogStreamer.Channel())

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("scoring_ready", app.scoringReady()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	// Timezone service (display conversion + zone list)
	a.TimezoneService = timezone.NewService(a.Logger)

	// Seed markets and settings on an empty store
	if err := a.seedOnFirstBoot(context.Background()); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to seed initial data")
	}

	// Annotator is constructed without a scorer; reloadScoring attaches one
	// when a key is available, and again whenever settings change.
	rateLimit, err := time.ParseDuration(a.Config.LLM.RateLimit)
	if err != nil {
		a.Logger.Warn().
			Str("rate_limit", a.Config.LLM.RateLimit).
			Msg("Invalid LLM rate limit, using 1s")
		rateLimit = time.Second
	}
	a.AnnotatorService = annotator.NewService(
		nil,
		annotator.NewCallLimiter(rateLimit),
		a.StorageManager,
		a.EventService,
		a.Logger,
	)
	a.reloadScoring(context.Background())

	// Calendar fetch service with its headless browser
	browser := calendar.NewBrowser(&a.Config.Calendar, a.Logger)
	a.CalendarService = calendar.NewService(
		a.Config,
		browser,
		a.StorageManager,
		a.TimezoneService,
		a.EventService,
		a.Logger,
	)
	a.Logger.Debug().
		Str("source", a.Config.Calendar.SourceURL).
		Bool("headless", a.Config.Calendar.Headless).
		Msg("Calendar service initialized")

	// Report compilation and PDF export
	a.ReportService = report.NewService(a.StorageManager, a.EventService, a.Logger)
	a.PDFService = pdf.NewService(a.Logger)

	// Scheduler with the daily pipeline job
	a.SchedulerService = scheduler.NewService(a.Logger)
	if err := a.SchedulerService.RegisterJob(
		dailyFetchJob,
		a.Config.Scheduler.FetchSchedule,
		"Fetch the day's economic calendar and refresh market reports",
		a.runDailyPipeline,
	); err != nil {
		return fmt.Errorf("failed to register daily fetch job: %w", err)
	}

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
		}
	} else {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Config.Logging.ClientDebug)
	a.CalendarHandler = handlers.NewCalendarHandler(a.CalendarService, a.StorageManager, a.EventService, a.Logger)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.StorageManager, a.Logger)
	a.MarketHandler = handlers.NewMarketHandler(a.StorageManager, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.ReportService, a.PDFService, a.StorageManager, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.StorageManager, a.TimezoneService, a.ReloadScoring, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StorageManager, a.SchedulerService, a.WSHandler, a.scoringReady, a.Logger)
	a.PipelineHandler = handlers.NewPipelineHandler(
		a.CalendarService,
		a.AnnotatorService,
		a.ReportService,
		a.StorageManager,
		a.EventService,
		a.scoringReady,
		a.Logger,
	)

	return nil
}

// ReloadScoring rebuilds the scoring service from current settings. Wired to
// the settings handler so a key saved through the UI takes effect immediately.
func (a *App) ReloadScoring() {
	a.reloadScoring(context.Background())
}

// reloadScoring swaps the annotator's scorer for one built from the current
// key sources. On any failure the scorer is cleared rather than left stale, so
// scoringReady always reflects what the next call will actually do.
func (a *App) reloadScoring(ctx context.Context) {
	scorer, err := llm.NewScoringService(ctx, a.Config, a.StorageManager.SettingsStorage(), a.Logger)
	if err != nil {
		a.AnnotatorService.SetScorer(nil)
		a.setScoringReady(false)
		a.Logger.Warn().Err(err).Msg("Scoring service unavailable - events will not be analyzed")
		a.Logger.Info().Msg("Provide an LLM API key on the settings page or via ANTHROPIC_API_KEY / GEMINI_API_KEY")
		return
	}

	if err := scorer.HealthCheck(ctx); err != nil {
		scorer.Close()
		a.AnnotatorService.SetScorer(nil)
		a.setScoringReady(false)
		a.Logger.Warn().Err(err).Msg("Scoring service health check failed - service disabled")
		return
	}

	a.AnnotatorService.SetScorer(scorer)
	a.setScoringReady(true)
	a.Logger.Info().
		Str("model", scorer.ModelName()).
		Msg("Scoring service ready")
}

func (a *App) setScoringReady(ready bool) {
	a.scoringMu.Lock()
	a.scoringOn = ready
	a.scoringMu.Unlock()
}

func (a *App) scoringReady() bool {
	a.scoringMu.RLock()
	defer a.scoringMu.RUnlock()
	return a.scoringOn
}

// runDailyPipeline is the scheduled job: fetch today's calendar, then score
// and compile a report for every tracked market. Per-market failures are
// logged and skipped so one bad market cannot stall the others.
func (a *App) runDailyPipeline() error {
	ctx := context.Background()
	date := time.Now().Format(models.DateLayout)

	if _, err := a.CalendarService.FetchAndStore(ctx, date); err != nil {
		return fmt.Errorf("daily fetch failed for %s: %w", date, err)
	}

	if !a.Config.Scheduler.AutoAnalyze {
		return nil
	}
	if !a.scoringReady() {
		a.Logger.Info().Msg("Skipping scheduled analysis, no scoring service configured")
		return nil
	}

	markets, err := a.StorageManager.MarketStorage().ListMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list markets: %w", err)
	}

	for _, market := range markets {
		if _, err := a.AnnotatorService.AnalyzeDate(ctx, date, market.Symbol); err != nil {
			a.Logger.Warn().
				Err(err).
				Str("market", market.Symbol).
				Msg("Scheduled analysis failed for market")
			continue
		}

		existing, err := a.StorageManager.ReportStorage().GetReportByPair(ctx, date, market.Symbol)
		if err != nil {
			a.Logger.Warn().Err(err).Str("market", market.Symbol).Msg("Failed to check existing report")
			continue
		}
		if existing != nil {
			continue
		}

		if _, err := a.ReportService.Compile(ctx, date, market.Symbol); err != nil {
			a.Logger.Warn().
				Err(err).
				Str("market", market.Symbol).
				Msg("Scheduled report compile failed for market")
		}
	}

	return nil
}

// seedFile is the YAML shape of the optional seeds file
type seedFile struct {
	Markets  []common.DefaultMarket `yaml:"markets"`
	Settings *seedSettings          `yaml:"settings"`
}

type seedSettings struct {
	Timezone   string `yaml:"timezone"`
	StarFilter int    `yaml:"star_filter"`
}

// seedOnFirstBoot populates markets and settings when the store is empty.
// An existing market store means the user has been here before; their data
// is never touched again.
func (a *App) seedOnFirstBoot(ctx context.Context) error {
	count, err := a.StorageManager.MarketStorage().CountMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to count markets: %w", err)
	}
	if count > 0 {
		return nil
	}

	seeds := seedFile{Markets: common.GetDefaultMarkets()}

	data, err := os.ReadFile(a.Config.Seeds.File)
	if err == nil {
		var fromFile seedFile
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			a.Logger.Warn().
				Err(err).
				Str("file", a.Config.Seeds.File).
				Msg("Failed to parse seeds file, using built-in defaults")
		} else {
			if len(fromFile.Markets) > 0 {
				seeds.Markets = fromFile.Markets
			}
			seeds.Settings = fromFile.Settings
		}
	} else if !os.IsNotExist(err) {
		a.Logger.Warn().Err(err).Str("file", a.Config.Seeds.File).Msg("Failed to read seeds file")
	}

	for _, seed := range seeds.Markets {
		market := &models.Market{
			Symbol:      models.NormalizeSymbol(seed.Symbol),
			Description: seed.Description,
			CreatedAt:   time.Now(),
		}
		if market.Symbol == "" {
			continue
		}
		if err := a.StorageManager.MarketStorage().UpsertMarket(ctx, market); err != nil {
			a.Logger.Warn().Err(err).Str("symbol", market.Symbol).Msg("Failed to seed market")
		}
	}

	if seeds.Settings != nil {
		settings, err := a.StorageManager.SettingsStorage().GetSettings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings for seeding: %w", err)
		}
		if seeds.Settings.Timezone != "" {
			settings.Timezone = seeds.Settings.Timezone
		}
		if seeds.Settings.StarFilter >= models.StarFilterMin && seeds.Settings.StarFilter <= models.StarFilterMax {
			settings.StarFilter = seeds.Settings.StarFilter
		}
		settings.UpdatedAt = time.Now()
		if err := a.StorageManager.SettingsStorage().SaveSettings(ctx, settings); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to seed settings")
		}
	}

	a.Logger.Info().
		Int("markets", len(seeds.Markets)).
		Bool("settings", seeds.Settings != nil).
		Msg("Seeded initial data")

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler first so no new pipeline runs start mid-shutdown
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Close the browser session
	if a.CalendarService != nil {
		if err := a.CalendarService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close calendar service")
		}
	}

	// Release the scoring provider
	if a.AnnotatorService != nil {
		a.AnnotatorService.SetScorer(nil)
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Stop the UI log mirror
	if a.LogStreamer != nil {
		if err := a.LogStreamer.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop log streamer")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
