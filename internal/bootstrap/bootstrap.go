package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/kirillkom/file-organizer/internal/adapters/filewatcher"
	"github.com/kirillkom/file-organizer/internal/config"
	"github.com/kirillkom/file-organizer/internal/core/domain"
	"github.com/kirillkom/file-organizer/internal/core/ports"
	"github.com/kirillkom/file-organizer/internal/core/usecase"
	"github.com/kirillkom/file-organizer/internal/infrastructure/analysis"
	"github.com/kirillkom/file-organizer/internal/infrastructure/extractor"
	"github.com/kirillkom/file-organizer/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/file-organizer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/file-organizer/internal/infrastructure/resilience"
	"github.com/kirillkom/file-organizer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/file-organizer/internal/infrastructure/storage/xattr"
	"github.com/kirillkom/file-organizer/internal/observability/metrics"
)

const serviceName = "file-organizer"

type App struct {
	Config config.Config
	Logger *slog.Logger

	Schema  *domain.OrganizationSchema
	Mapping domain.CategoryMapping

	Metrics    *metrics.PipelineMetrics
	Source     ports.EventSource
	ProcessUC  ports.FileProcessor
	Dispatcher *usecase.Dispatcher

	closeFn func()
}

func New(_ context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	schema, mapping, err := config.BuildSchema(cfg)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	policy, err := localfs.ParseCollisionPolicy(cfg.CollisionPolicy)
	if err != nil {
		return nil, err
	}

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	resilienceCfg.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutorWithLogger(resilienceCfg, logger)

	var limiter *rate.Limiter
	if cfg.ClassifierRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ClassifierRatePerSec), cfg.ClassifierBurst)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
		Timeout:    cfg.ClassifierTimeout,
		HTTPClient: &http.Client{Transport: pipelineMetrics.InstrumentTransport(nil)},
		Executor:   executor,
		Limiter:    limiter,
	})
	labeler := ollama.NewLabeler(ollamaClient, mapping)

	extractors := extractor.NewRegistry(extractor.Limits{
		PDFPages:       cfg.PDFMaxPages,
		DOCXParagraphs: cfg.DOCXMaxParagraphs,
		TextLines:      cfg.TXTMaxLines,
		CSVRows:        cfg.CSVMaxRows,
		HTMLChars:      cfg.HTMLMaxChars,
		XLSXRows:       cfg.XLSXMaxRows,
	})

	var publisher ports.PlacementPublisher
	closers := []func(){}
	if strings.TrimSpace(cfg.NATSURL) != "" {
		natsPublisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init placement publisher: %w", err)
		}
		publisher = natsPublisher
		closers = append(closers, natsPublisher.Close)
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, fmt.Errorf("init watcher: %w", err)
	}
	closers = append(closers, func() { _ = watcher.Close() })

	processUC := usecase.NewProcessFileUseCase(
		extractors,
		analysis.NewKeywordAnalyzer(),
		labeler,
		xattr.New(cfg.TagXattr),
		localfs.NewMover(policy, logger),
		publisher,
		schema,
		mapping,
		logger,
	)
	dispatcher := usecase.NewDispatcher(processUC, pipelineMetrics, usecase.DispatcherConfig{
		Workers:     cfg.Workers,
		SettleDelay: cfg.SettleDelay,
	}, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Schema:  schema,
		Mapping: mapping,

		Metrics:    pipelineMetrics,
		Source:     watcher,
		ProcessUC:  processUC,
		Dispatcher: dispatcher,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

// Run blocks until ctx is cancelled and every started run has finished.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("organizer_starting",
		"dir", a.Config.WatchDir,
		"category", a.Schema.Category(),
		"destinations", a.Schema.Directories(),
		"labels", a.Mapping.Labels(),
	)
	return a.Dispatcher.Run(ctx, a.Source, a.Config.WatchDir)
}

// ObservabilityHandler serves /metrics and /healthz.
func (a *App) ObservabilityHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
