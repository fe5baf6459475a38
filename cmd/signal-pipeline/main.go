// Command signal-pipeline collects signals from configured upstreams, scores
// them, delivers them to the inbox and Telegram, and serves the Telegram
// webhook plus the presentation API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/internal/analysis"
	"github.com/tbourn/go-signal-pipeline/internal/collector"
	"github.com/tbourn/go-signal-pipeline/internal/config"
	httpapi "github.com/tbourn/go-signal-pipeline/internal/http"
	"github.com/tbourn/go-signal-pipeline/internal/http/handlers"
	"github.com/tbourn/go-signal-pipeline/internal/metrics"
	"github.com/tbourn/go-signal-pipeline/internal/notify"
	"github.com/tbourn/go-signal-pipeline/internal/observability"
	"github.com/tbourn/go-signal-pipeline/internal/pipeline"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/routing"
	"github.com/tbourn/go-signal-pipeline/internal/services"
	"github.com/tbourn/go-signal-pipeline/internal/sysutil"
	"github.com/tbourn/go-signal-pipeline/internal/telegram"
)

var version = "dev"

const (
	modeAll      = "all"
	modePipeline = "pipeline"
	modeWebhook  = "webhook"
)

// Flags are the command-line switches.
type Flags struct {
	Mode string
	Once bool
}

func main() {
	fl, err := parseFlags(flag.NewFlagSet("signal-pipeline", flag.ExitOnError), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(2)
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal: config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	if err := run(ctx, fl, cfg, log); err != nil {
		log.Error().Err(err).Msg("signal-pipeline exited")
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.Mode, "mode", modeAll, "what to run: all|pipeline|webhook")
	fs.BoolVar(&f.Once, "once", false, "run a single pipeline cycle and exit (overrides RUN_CONTINUOUS)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	switch f.Mode {
	case modeAll, modePipeline, modeWebhook:
	default:
		return f, fmt.Errorf("unknown -mode %q", f.Mode)
	}
	if f.Once && f.Mode == modeWebhook {
		return f, errors.New("-once has no effect with -mode webhook")
	}
	return f, nil
}

// runsServer reports whether the HTTP server is started. A one-shot run is
// a batch job and never serves.
func (f Flags) runsServer() bool { return f.Mode != modePipeline && !f.Once }

func (f Flags) runsPipeline() bool { return f.Mode != modeWebhook }

func run(ctx context.Context, fl Flags, cfg config.Config, log zerolog.Logger) error {
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	db, err := repo.Open(repo.Options{
		Driver:      cfg.Store.Driver,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresURL: cfg.Store.PostgresURL,
		Tracing:     cfg.OTEL.Enabled,
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := repo.Close(db); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()
	store := repo.NewStore(db)

	tg, err := buildTelegram(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	log.Info().
		Str("version", version).
		Str("mode", fl.Mode).
		Bool("once", fl.Once).
		Str("store", cfg.Store.Driver).
		Bool("analysis", cfg.Analysis.Enabled).
		Bool("telegram", tg != nil && cfg.Telegram.DeliveryEnabled).
		Msg("starting signal-pipeline")

	var orch *pipeline.Orchestrator
	if fl.runsPipeline() {
		orch = buildOrchestrator(cfg, store, tg, log)
	}

	if fl.Once {
		rep, err := orch.RunBatch(ctx)
		if err != nil {
			return fmt.Errorf("cycle: %w", err)
		}
		log.Info().Interface("report", rep).Msg("single cycle done")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if fl.runsServer() {
		var callbacks *services.CallbackService
		if cfg.Telegram.WebhookEnabled {
			var replier services.Replier
			if tg != nil {
				replier = tg
			}
			callbacks = services.NewCallbackService(store, replier, cfg.Telegram.CallbackTTL, log)
		}
		srv := buildServer(cfg, db, callbacks)
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("http server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if orch != nil {
		g.Go(func() error {
			if !cfg.Worker.Continuous {
				_, err := orch.RunBatch(gctx)
				return err
			}
			return orch.Run(gctx)
		})
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("sd_notify ready")
	}
	go func() {
		<-gctx.Done()
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	}()

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("signal-pipeline stopped")
	return err
}

// buildTelegram returns nil when no bot token is configured.
func buildTelegram(cfg config.TelegramConfig) (*telegram.Client, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}
	return telegram.New(telegram.Options{
		Token:   cfg.BotToken,
		APIURL:  cfg.APIURL,
		Timeout: cfg.Timeout,
	})
}

func buildCollectors(cfg config.CollectorConfig, log zerolog.Logger) []collector.Collector {
	common := collector.Common{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
		Log:         log,
	}

	var out []collector.Collector
	if len(cfg.RSSFeeds) > 0 {
		out = append(out, collector.NewFeedCollector(cfg.RSSFeeds, cfg.RSSMaxItems, common))
	}
	if len(cfg.YouTubeChannelIDs) > 0 {
		out = append(out, collector.NewVideoCollector(cfg.YouTubeChannelIDs, cfg.YouTubeMaxItems, cfg.YouTubeFeedBase, common))
	}
	social := collector.NewSocialCollector(collector.SocialOptions{
		BearerToken: cfg.XBearerToken,
		Usernames:   cfg.XUsernames,
		MaxItems:    cfg.XMaxItems,
		BaseURL:     cfg.XAPIBase,
		RPS:         1,
	}, common)
	switch {
	case social.Enabled():
		out = append(out, social)
	case cfg.MockSocial:
		out = append(out, collector.NewDemoSocialCollector(nil))
	}
	return out
}

func buildAnalyzer(cfg config.AnalysisConfig, log zerolog.Logger) analysis.Analyzer {
	if !cfg.Enabled {
		return analysis.Heuristic{}
	}
	return analysis.NewRemote(analysis.RemoteOptions{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.APIBase,
		Model:           cfg.Model,
		Timeout:         cfg.Timeout,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, log)
}

func buildOrchestrator(cfg config.Config, store *repo.Store, tg *telegram.Client, log zerolog.Logger) *pipeline.Orchestrator {
	chatOn := cfg.Telegram.DeliveryEnabled && cfg.Telegram.Configured() && tg != nil

	notifiers := []notify.Notifier{notify.NewInbox(log)}
	if chatOn {
		notifiers = append(notifiers, notify.NewTelegram(tg, notify.TelegramOptions{
			ChatID:       cfg.Telegram.ChatID,
			WithAnalysis: cfg.Analysis.Enabled,
			Timeout:      cfg.Telegram.Timeout,
		}, log))
	}

	return pipeline.New(pipeline.Deps{
		Store:      store,
		Purger:     store,
		Collectors: buildCollectors(cfg.Collector, log),
		Analyzer:   buildAnalyzer(cfg.Analysis, log),
		Notifier:   notify.NewMulti(notifiers...),
		Log:        log,
	}, pipeline.Options{
		Routing: routing.Options{
			TelegramEnabled:   chatOn,
			ScoringEnabled:    cfg.Analysis.Enabled,
			PriorityThreshold: cfg.Routing.PriorityThreshold,
			HourlyThreshold:   cfg.Routing.HourlyThreshold,
		},
		ChatCap:           cfg.Routing.ChatCapPerCycle,
		Interval:          cfg.Worker.Interval,
		Retention:         cfg.Store.Retention(),
		RetentionInterval: cfg.Store.RetentionInterval,
	})
}

func buildServer(cfg config.Config, db *gorm.DB, callbacks *services.CallbackService) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()

	var cb handlers.CallbackHandler
	if callbacks != nil {
		cb = callbacks
	}
	httpapi.RegisterRoutes(r, db, cb, cfg)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
