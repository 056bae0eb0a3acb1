// Package app wires the translation service components together.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"speech-translation-service/internal/broadcast"
	"speech-translation-service/internal/cache"
	"speech-translation-service/internal/config"
	"speech-translation-service/internal/events"
	"speech-translation-service/internal/filter"
	"speech-translation-service/internal/history"
	"speech-translation-service/internal/history/sqlite"
	"speech-translation-service/internal/observability/logging"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/pipeline"
	"speech-translation-service/internal/service/audio"
	"speech-translation-service/internal/service/stt"
	googlestt "speech-translation-service/internal/service/stt/google"
	mockstt "speech-translation-service/internal/service/stt/mock"
	"speech-translation-service/internal/service/stt/whisper"
	"speech-translation-service/internal/service/translate"
	googletr "speech-translation-service/internal/service/translate/google"
	mocktr "speech-translation-service/internal/service/translate/mock"
	"speech-translation-service/internal/service/translate/openai"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Metrics     *metrics.Metrics

	Filter   *filter.Filter
	Cache    *cache.Cache
	Pipeline *pipeline.Pipeline
	Audio    *audio.Handler
	Recorder *history.Recorder
	// History answers history queries; nil when no queryable store is configured.
	History history.Reader
	Hub     *broadcast.Hub

	store      *sqlite.Store
	publisher  *events.Publisher
	roomReader *kafka.Reader
	closers    []func() error
	cron       *cron.Cron
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New constructs the application from cfg. Providers are created but no
// background work starts until Start.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:     cfg,
		Metrics: metrics.DefaultMetrics,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	if err := a.build(ctx); err != nil {
		a.closeAll()
		return nil, err
	}

	appLogger.Info().
		Str("translator", cfg.Translation.Provider).
		Str("stt", cfg.STT.Provider).
		Str("filterSeverity", string(a.Filter.Severity())).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Speech translation service application created")
	return a, nil
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = a.Cfg.Observability.LogLevel
	logCfg.Format = a.Cfg.Observability.LogFormat
	if a.Cfg.Service.Env == "dev" {
		logCfg.Format = "console"
	}
	logging.Init(logCfg)

	a.Logger = logging.Logger().With().
		Str("service", "speech-translation-service").
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

func (a *Application) build(ctx context.Context) error {
	cfg := a.Cfg

	filterCfg, err := filter.LoadConfig(cfg.Filter.ConfigFile)
	if err != nil {
		return err
	}
	if err := filterCfg.OverrideSeverity(cfg.Filter.Severity); err != nil {
		return err
	}
	a.Filter = filter.New(filterCfg, filter.WithLogger(logging.WithComponent("filter")))

	a.Cache = cache.New(
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)

	translator, err := a.newTranslator(ctx)
	if err != nil {
		return err
	}
	transcriber, err := a.newTranscriber(ctx)
	if err != nil {
		return err
	}

	stores, err := a.newStores()
	if err != nil {
		return err
	}
	a.Recorder = history.NewRecorder(history.Config{
		RetryDelay:   cfg.History.RetryDelay,
		WriteTimeout: cfg.History.WriteTimeout,
	}, a.Metrics, logging.WithComponent("history"), stores...)

	a.Pipeline = pipeline.New(pipeline.Config{
		MaxTextLength:      cfg.Translation.MaxTextLength,
		TranslationTimeout: cfg.Translation.Timeout,
		SourceLang:         cfg.Translation.SourceLang,
		TargetLang:         cfg.Translation.TargetLang,
	}, a.Filter, a.Cache, translator, a.Recorder,
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithLogger(logging.WithProvider(logging.WithComponent("pipeline"), "translation", translator.Name())),
	)

	prompt, err := audio.LoadPrompt(cfg.STT.PromptFile)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load recognizer prompt, using fallback")
	}
	a.Audio = audio.NewHandler(transcriber, a.Filter,
		audio.WithLimits(audio.Limits{
			MinAudioBytes: cfg.STT.MinAudioBytes,
			MaxAudioBytes: cfg.STT.MaxAudioBytes,
		}),
		audio.WithLanguage(cfg.STT.Language),
		audio.WithPrompt(prompt),
		audio.WithMetrics(a.Metrics),
		audio.WithLogger(logging.WithProvider(logging.WithComponent("audio"), "stt", transcriber.Name())),
	)

	return nil
}

func (a *Application) newTranslator(ctx context.Context) (translate.Translator, error) {
	cfg := a.Cfg.Translation
	switch cfg.Provider {
	case "openai":
		return openai.New(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}), nil
	case "google":
		tr, err := googletr.New(ctx, googletr.Config{
			CredentialsFile: cfg.CredentialsFile,
			SourceLang:      cfg.SourceLang,
			TargetLang:      cfg.TargetLang,
		})
		if err != nil {
			return nil, fmt.Errorf("create google translator: %w", err)
		}
		a.closers = append(a.closers, tr.Close)
		return tr, nil
	case "mock", "":
		return mocktr.New(nil), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}
}

func (a *Application) newTranscriber(ctx context.Context) (stt.Transcriber, error) {
	cfg := a.Cfg.STT
	switch cfg.Provider {
	case "whisper":
		return whisper.New(whisper.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "google":
		ad, err := googlestt.New(ctx, googlestt.Config{
			LanguageCode:  cfg.LanguageCode,
			SampleRateHz:  int32(cfg.SampleRateHz),
			AudioEncoding: cfg.AudioEncoding,
		})
		if err != nil {
			return nil, fmt.Errorf("create google speech adapter: %w", err)
		}
		a.closers = append(a.closers, ad.Close)
		return ad, nil
	case "mock", "":
		return mockstt.New(), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// newStores opens the history backends. Room records reach the broadcast
// hub through Kafka when it is enabled, otherwise the hub is a store itself.
func (a *Application) newStores() ([]history.Store, error) {
	cfg := a.Cfg
	var stores []history.Store

	if cfg.History.SQLitePath != "" {
		st, err := sqlite.Open(cfg.History.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.History = st
		a.closers = append(a.closers, st.Close)
		stores = append(stores, st)
	}

	a.publisher = events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		TopicRoom: cfg.Kafka.TopicRoom,
		TopicUser: cfg.Kafka.TopicUser,
		Principal: cfg.Kafka.Principal,
	}, a.Metrics)
	a.closers = append(a.closers, a.publisher.Close)
	stores = append(stores, a.publisher)

	a.Hub = broadcast.NewHub(a.Metrics, logging.WithComponent("broadcast"))
	if cfg.Kafka.Enabled {
		a.roomReader = broadcast.NewReader(broadcast.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TopicRoom,
			GroupID: cfg.Kafka.ConsumerGroup,
		})
	} else {
		stores = append(stores, a.Hub)
	}

	return stores, nil
}

// Start launches the background work: the broadcast hub, the Kafka room
// consumer and the maintenance jobs.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	ctx, a.cancel = context.WithCancel(ctx)

	a.cron = cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := a.cron.AddFunc(a.Cfg.Cache.PurgeSchedule, a.PurgeCache); err != nil {
		a.cancel()
		return fmt.Errorf("schedule cache purge: %w", err)
	}
	if a.Cfg.History.Retention > 0 && a.store != nil {
		if _, err := a.cron.AddFunc(a.Cfg.History.PruneSchedule, func() { a.PruneHistory(ctx) }); err != nil {
			a.cancel()
			return fmt.Errorf("schedule history prune: %w", err)
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Hub.Run(ctx)
	}()

	if a.roomReader != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			broadcast.Consume(ctx, a.Hub, a.roomReader, logging.WithComponent("broadcast-consumer"))
		}()
	}

	a.cron.Start()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Speech translation service starting")

	return nil
}

// PurgeCache drops expired cache entries.
func (a *Application) PurgeCache() {
	removed := a.Cache.Purge()
	a.Metrics.RecordCachePurge(removed)
	a.Metrics.RecordCacheSize(a.Cache.Len())
	if removed > 0 {
		a.Logger.Debug().Int("removed", removed).Msg("Purged expired cache entries")
	}
}

// PruneHistory deletes history older than the retention window.
func (a *Application) PruneHistory(ctx context.Context) {
	if a.store == nil || a.Cfg.History.Retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-a.Cfg.History.Retention)
	n, err := a.store.PruneBefore(ctx, cutoff)
	if err != nil {
		a.Logger.Error().Err(err).Msg("History prune failed")
		return
	}
	a.Logger.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("Pruned history")
}

// Shutdown stops background work, drains pending history writes and
// releases provider clients.
func (a *Application) Shutdown(ctx context.Context) {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Speech translation service shutting down")

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if err := a.Recorder.Close(ctx); err != nil {
		shutdownLogger.Warn().Err(err).Msg("History writes still pending at shutdown")
	}
	if a.cancel != nil {
		a.cancel()
	}
	// The room consumer closes its reader on exit.
	a.wg.Wait()
	a.closeAll()
}

func (a *Application) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn().Err(err).Msg("Error releasing resource")
		}
	}
	a.closers = nil
}
