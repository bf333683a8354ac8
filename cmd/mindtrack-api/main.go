package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smanilla/mindtrack/common/database"
	"github.com/smanilla/mindtrack/common/logger"
	"github.com/smanilla/mindtrack/common/mqtt"
	commonredis "github.com/smanilla/mindtrack/common/redis"
	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/config"
	"github.com/smanilla/mindtrack/internal/events"
	httpapi "github.com/smanilla/mindtrack/internal/http"
	"github.com/smanilla/mindtrack/internal/metrics"
	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/notifier"
	"github.com/smanilla/mindtrack/internal/repository"
	"github.com/smanilla/mindtrack/internal/service"
	"github.com/smanilla/mindtrack/internal/store"
	"github.com/smanilla/mindtrack/internal/summary"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "mindtrack-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; authenticated routes will reject every request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence: Postgres when reachable, in-memory otherwise.
	var (
		db          *sql.DB
		assessments repository.AssessmentsRepository
		users       repository.UsersRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			if err := database.ApplySchema(ctx, d, repository.Schema); err != nil {
				log.Warn("Failed to apply schema, falling back to memory store", zap.Error(err))
				_ = database.Close(d)
			} else {
				db = d
				log.Info("DB enabled for mindtrack-api")
			}
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		defer database.Close(db)
		assessments = repository.NewPostgresAssessmentsRepository(db, log)
		users = repository.NewPostgresUsersRepository(db, log)
	} else {
		assessments = repository.NewMemoryAssessmentsRepo()
		users = repository.NewMemoryUsersRepo()
	}

	// Call status cache and the red-alert event stream.
	var (
		kv         store.KV = store.NewMemoryKV()
		publishers events.Multi
	)
	if cfg.RedisEnabled {
		rdb := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, rdb); err == nil {
			defer commonredis.Close(rdb)
			kv = store.NewRedisKV(rdb)
			publishers = append(publishers, events.NewRedisStreamPublisher(rdb, cfg.Events.Stream, cfg.Events.StreamMaxLen))
			log.Info("Redis enabled for mindtrack-api", zap.String("stream", cfg.Events.Stream))
		} else {
			log.Warn("Redis enabled but ping failed, call status kept in memory", zap.Error(err))
			_ = commonredis.Close(rdb)
		}
	}
	if cfg.MQTT.Enabled {
		if mc, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig, log); err == nil {
			defer mc.Disconnect()
			publishers = append(publishers, events.NewMQTTPublisher(mc, cfg.MQTT.Topic, cfg.MQTT.QoS))
		} else {
			log.Warn("MQTT enabled but connection failed, events not published over MQTT", zap.Error(err))
		}
	}
	calls := store.NewCallStatusStore(kv, cfg.Voice.StatusTTL)

	// Outbound clients. Interfaces stay nil when a client is not configured.
	var backend summary.Backend
	if cfg.AI.Enabled() {
		backend = client.NewGeminiClient(client.GeminiOptions{
			BaseURL:       cfg.AI.BaseURL,
			APIKey:        cfg.AI.APIKey,
			Model:         cfg.AI.Model,
			FallbackModel: cfg.AI.FallbackModel,
			Timeout:       cfg.AI.Timeout,
			RetryCount:    cfg.AI.RetryCount,
		}, log)
	} else {
		log.Info("GOOGLE_API_KEY not set, summaries use the rule-based fallback")
	}

	var placer notifier.CallPlacer
	if cfg.Voice.Configured() {
		placer = client.NewTwilioClient(client.TwilioOptions{
			BaseURL:       cfg.Voice.APIBaseURL,
			LookupBaseURL: cfg.Voice.LookupBaseURL,
			AccountSID:    cfg.Voice.AccountSID,
			AuthToken:     cfg.Voice.AuthToken,
			Timeout:       cfg.Voice.RequestTimeout,
		}, log)
	}

	var mailer notifier.Mailer
	if cfg.Mail.Configured() {
		m, err := notifier.NewSMTPMailer(notifier.SMTPOptions{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			Timeout:  cfg.Mail.Timeout,
		}, log)
		if err != nil {
			log.Error("Failed to create SMTP transport", zap.Error(err))
		} else {
			mailer = m
		}
	}

	collector := metrics.NewCollector()
	resolver := notifier.NewResolver(users, log)
	email := notifier.NewEmailNotifier(cfg.Mail.Enabled, mailer, cfg.Mail.From, cfg.Mail.Timeout, log)
	voice := notifier.NewVoiceNotifier(notifier.VoiceOptions{
		Enabled:            cfg.Voice.Enabled,
		FromNumber:         cfg.Voice.FromNumber,
		PublicBaseURL:      cfg.HTTP.PublicBaseURL,
		TwimlBinURL:        cfg.Voice.TwimlBinURL,
		DefaultCountryCode: cfg.Voice.DefaultCountryCode,
		RingTimeout:        cfg.Voice.RingTimeout,
		RequestTimeout:     cfg.Voice.RequestTimeout,
		LookupEnabled:      cfg.Voice.LookupEnabled,
		PreflightEnabled:   cfg.Voice.PreflightEnabled,
		PreflightTimeout:   cfg.Voice.PreflightTimeout,
		Details: models.TelephonyDetails{
			HasAccountSID:  cfg.Voice.AccountSID != "",
			HasAuthToken:   cfg.Voice.AuthToken != "",
			HasPhoneNumber: cfg.Voice.FromNumber != "",
		},
	}, placer, calls, log)
	orchestrator := notifier.NewOrchestrator(resolver, email, voice, cfg.Voice.CallConcurrency, collector, log)

	var publisher events.Publisher = events.Nop{}
	if len(publishers) > 0 {
		publisher = publishers
	}
	svc := service.NewAssessmentService(
		assessments,
		users,
		summary.NewGenerator(backend, cfg.AI.Timeout, log),
		orchestrator,
		publisher,
		collector,
		cfg.NotifyTimeout,
		log,
	)

	script := notifier.VoiceScript{
		AudioURL:        cfg.Voice.AudioURL,
		Voice:           cfg.Voice.Voice,
		Language:        cfg.Voice.Language,
		EmergencyNumber: cfg.Voice.EmergencyNumber,
	}
	auth := httpapi.NewAuth(cfg.Auth.JWTSecret, users, log)
	router := httpapi.NewRouter(log)
	router.RegisterAssessmentRoutes(auth,
		httpapi.NewAssessmentHandler(svc, cfg.HTTP.MaxBodyBytes, log),
		httpapi.NewVoiceHandler(script, calls, log),
		httpapi.NewDiagnosticsHandler(cfg, resolver, email, voice, log),
	)
	router.RegisterDoctorRoutes(auth, httpapi.NewDoctorHandler(svc, log))
	router.RegisterOpsRoutes(collector.Handler())

	log.Info("Alert channels",
		zap.Bool("email_enabled", email.Enabled()),
		zap.Bool("email_configured", email.Configured()),
		zap.Bool("voice_enabled", voice.Enabled()),
		zap.Bool("voice_configured", voice.Configured()),
		zap.String("public_base_url", cfg.HTTP.PublicBaseURL),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout+5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
