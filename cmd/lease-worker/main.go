package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/auth"
	"github.com/neela-property/neela-server/internal/config"
	"github.com/neela-property/neela-server/internal/docstore"
	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/lease"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/provision"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
	"github.com/neela-property/neela-server/internal/worker"
)

func main() {
	// Command line flags
	var configFile string
	flag.StringVar(&configFile, "config", "config/lease-worker.yml", "Configuration file path")
	flag.Parse()

	// Local development overrides
	_ = godotenv.Load()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Connect to database
	store, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	log.Info().Msg("Connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document artifact storage
	docs, err := buildDocstore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document storage")
	}

	// The worker delivers notifications inline; when queued mode is on it
	// also consumes the queue the API publishes to
	delivery := notify.NewSyncNotifier(cfg.Notify)
	notifier := notify.Notifier(delivery)

	var nc *nats.Conn
	if cfg.Notify.Mode == "queued" && cfg.NATS.URL != "" {
		nc, err = connectNATS(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, delivering notifications inline")
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	// Domain services
	provider := buildProvider(cfg)
	tokens := auth.NewJWTManager(&cfg.JWT)
	accounts := provision.New(store, tokens, cfg.Notify.FrontendURL)
	renderer := render.NewTemplateRenderer(cfg.ESign.LandlordName)

	leaseSvc := lease.NewService(store, renderer, provider, docs, accounts, lease.Config{
		LandlordName:  cfg.ESign.LandlordName,
		LandlordEmail: cfg.ESign.LandlordEmail,
		AdminEmails:   cfg.Notify.AdminEmails,
	})

	var wg sync.WaitGroup

	// Reconciliation poller
	poller := worker.NewPoller(store, leaseSvc, notifier, cfg.Worker.ReconcileInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := poller.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Reconciliation poller stopped")
		}
	}()

	// Daily reminder sweep
	reminders := worker.NewReminderWorker(store, notifier, cfg.Worker.ReminderHour)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reminders.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Reminder worker stopped")
		}
	}()

	// Queued notification consumer
	if nc != nil {
		notifyWorker := notify.NewWorker(nc, delivery)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := notifyWorker.Start(ctx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Notification worker stopped")
			}
		}()
	}

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	cancel()
	wg.Wait()

	log.Info().Msg("Lease worker stopped")
}

// buildProvider selects the configured e-signature provider
func buildProvider(cfg *config.Config) esign.Provider {
	switch cfg.ESign.Provider {
	case "docusign":
		return esign.NewDocuSign(cfg.ESign.DocuSign)
	default:
		return esign.NewDropboxSign(cfg.ESign.DropboxSign)
	}
}

// buildDocstore selects the configured artifact storage backend
func buildDocstore(cfg *config.Config) (docstore.Storage, error) {
	if cfg.Storage.Backend == "s3" {
		return docstore.NewS3Storage(cfg.Storage.S3)
	}
	return docstore.NewLocalStorage(cfg.Storage.LocalDir)
}

// connectNATS connects to the notification broker
func connectNATS(cfg *config.Config) (*nats.Conn, error) {
	return nats.Connect(cfg.NATS.URL,
		nats.Name(cfg.Server.Name),
		nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
		nats.ReconnectWait(cfg.NATS.ReconnectInterval),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Msg("Reconnected to NATS")
		}),
	)
}
