package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-app/backend/internal/auth"
	"notes-app/backend/internal/config"
	"notes-app/backend/internal/httpapi"
	"notes-app/backend/internal/identity"
	"notes-app/backend/internal/logging"
	"notes-app/backend/internal/notify"
	"notes-app/backend/internal/otp"
	"notes-app/backend/internal/reclaim"
	"notes-app/backend/internal/store"
	"notes-app/backend/internal/store/memory"
	"notes-app/backend/internal/store/postgres"
	"notes-app/backend/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
		defer pg.Close()

		ctxMigrate, cancelMigrate := context.WithTimeout(rootCtx, time.Minute)
		err = pg.Migrate(ctxMigrate)
		cancelMigrate()
		if err != nil {
			log.Fatalf("failed to migrate postgres store: %v", err)
		}
		st = pg
		logger.Info(rootCtx, "using postgres store")
	} else {
		st = memory.NewStore()
		logger.Info(rootCtx, "using memory store")
	}

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	tokens, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, nil)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn(rootCtx, "JWT_SECRET not set, tokens will not survive a restart")
	}
	if cfg.GoogleClientID == "" {
		logger.Warn(rootCtx, "GOOGLE_CLIENT_ID not set, google sign-in will reject every token")
	}

	svc, err := auth.NewService(auth.Deps{
		Store:    st,
		Hasher:   auth.BcryptHasher{Cost: cfg.BcryptCost},
		OTP:      otp.NewGenerator(cfg.OTPTTL, cfg.OTPDigits, nil),
		Tokens:   tokens,
		Notifier: notifier,
		Verifier: identity.NewGoogleVerifier(cfg.GoogleClientID),
		Log:      logger,
	})
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	scheduler := reclaim.New(st, reclaim.Options{
		Interval:  cfg.ReclaimInterval,
		Retention: cfg.ReclaimRetention,
		Log:       logger,
	})
	if err := scheduler.Start(rootCtx); err != nil {
		log.Fatalf("reclaim scheduler: %v", err)
	}
	defer scheduler.Stop()

	srv := httpapi.NewServer(cfg, svc, tokens, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(rootCtx, "server listening", "addr", cfg.ListenAddr())
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info(rootCtx, "shutdown requested")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(rootCtx, "server error", "error", err)
		}
	}

	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctxShutdown, "http shutdown", "error", err)
	}
}

func newNotifier(cfg config.Config, logger logging.Logger) (notify.Notifier, func()) {
	switch cfg.Mail.Transport {
	case config.MailTransportSMTP:
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
			Subject:  cfg.Mail.Subject,
			ValidFor: cfg.OTPTTL,
		}), func() {}
	case config.MailTransportKafka:
		k := notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers:  cfg.Mail.Kafka.Brokers,
			Topic:    cfg.Mail.Kafka.Topic,
			Username: cfg.Mail.Kafka.Username,
			Password: cfg.Mail.Kafka.Password,
			TLS:      cfg.Mail.Kafka.TLS,
		})
		return k, func() {
			if err := k.Close(); err != nil {
				logger.Warn(context.Background(), "close kafka writer", "error", err)
			}
		}
	default:
		return notify.NewLogNotifier(logger), func() {}
	}
}
