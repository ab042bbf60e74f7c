package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	admissionhandler "guestpass/internal/admission/handler"
	admissionmetrics "guestpass/internal/admission/metrics"
	admissionservice "guestpass/internal/admission/service"
	admissionstore "guestpass/internal/admission/store"
	"guestpass/internal/artifact"
	artifacthandler "guestpass/internal/artifact/handler"
	"guestpass/internal/audit"
	"guestpass/internal/card/compositor"
	cardhandler "guestpass/internal/card/handler"
	cardmetrics "guestpass/internal/card/metrics"
	cardservice "guestpass/internal/card/service"
	"guestpass/internal/card/store/rendered"
	"guestpass/internal/card/store/template"
	credentialhandler "guestpass/internal/credential/handler"
	credentialmetrics "guestpass/internal/credential/metrics"
	credentialservice "guestpass/internal/credential/service"
	credentialstore "guestpass/internal/credential/store"
	httpapi "guestpass/internal/http"
	"guestpass/internal/platform/config"
	"guestpass/internal/platform/httpserver"
	"guestpass/internal/platform/logger"
	"guestpass/internal/platform/postgres"
	platformredis "guestpass/internal/platform/redis"
)

// main wires stores, services and the HTTP surface. Backing stores are
// chosen by configuration: in-memory by default, PostgreSQL when a database
// URL is set, Redis for the redemption store when a Redis URL is set.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		credentials credentialstore.Store = credentialstore.NewInMemory()
		templates   template.Store        = template.NewInMemory()
		renders     rendered.Store        = rendered.NewInMemory()
		redemptions admissionstore.Store  = admissionstore.NewInMemory()
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		credentials = credentialstore.NewPostgres(db)
		templates = template.NewPostgres(db)
		renders = rendered.NewPostgres(db)
		redemptions = admissionstore.NewPostgres(db)
		log.Info("using postgres stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		redemptions = admissionstore.NewRedis(redisClient.Client)
		log.Info("using redis redemption store")
	}

	// Audit pipeline: emitters enqueue, the worker fans out to sinks.
	auditStore := audit.NewMemoryStore()
	sinks := []audit.Publisher{audit.NewStorePublisher(auditStore)}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
		log.Info("audit events shipping to kafka", "topic", cfg.KafkaTopic)
	}
	auditPub := audit.NewChannelPublisher(1024, log)
	go audit.NewWorker(auditPub.Inbox(), log, sinks...).Run(ctx)

	registry := prometheus.NewRegistry()

	issuer, err := credentialservice.New(credentials, cfg.Issuer,
		credentialservice.WithLogger(log),
		credentialservice.WithAuditPublisher(auditPub),
		credentialservice.WithMetrics(credentialmetrics.New(registry)),
	)
	if err != nil {
		log.Error("issuer init failed", "error", err)
		os.Exit(1)
	}

	files, err := artifact.NewFileStore(cfg.Card.ArtifactDir)
	if err != nil {
		log.Error("artifact store init failed", "error", err)
		os.Exit(1)
	}

	fontBytes, err := compositor.LoadFont(cfg.Card.FontPath)
	if err != nil {
		log.Error("font load failed", "error", err)
		os.Exit(1)
	}
	comp, err := compositor.New(fontBytes, compositor.Options{
		MaxWidth:     cfg.Card.MaxWidth,
		MaxHeight:    cfg.Card.MaxHeight,
		QRSize:       cfg.Card.QRSize,
		NameFontSize: cfg.Card.NameFontSize,
		TierFontSize: cfg.Card.TierFontSize,
	})
	if err != nil {
		log.Error("compositor init failed", "error", err)
		os.Exit(1)
	}

	cards, err := cardservice.New(credentials, templates, renders, files, comp, cfg.Card,
		cardservice.WithLogger(log),
		cardservice.WithAuditPublisher(auditPub),
		cardservice.WithMetrics(cardmetrics.New(registry)),
	)
	if err != nil {
		log.Error("card service init failed", "error", err)
		os.Exit(1)
	}

	admissions, err := admissionservice.New(credentials, redemptions,
		admissionservice.WithLogger(log),
		admissionservice.WithAuditPublisher(auditPub),
		admissionservice.WithMetrics(admissionmetrics.New(registry)),
	)
	if err != nil {
		log.Error("admission service init failed", "error", err)
		os.Exit(1)
	}

	lifecycle, err := artifact.NewService(credentials, renders, files,
		artifact.WithLogger(log),
		artifact.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("lifecycle service init failed", "error", err)
		os.Exit(1)
	}

	router := httpapi.New(httpapi.Deps{
		Logger:   log,
		Registry: registry,
		Registrars: []httpapi.Registrar{
			credentialhandler.New(issuer, log),
			cardhandler.New(cards, log),
			admissionhandler.New(admissions, log),
			artifacthandler.New(lifecycle, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("guestpass listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
