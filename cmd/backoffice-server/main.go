package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/api"
	"github.com/neela-property/neela-server/internal/auth"
	"github.com/neela-property/neela-server/internal/config"
	"github.com/neela-property/neela-server/internal/docstore"
	"github.com/neela-property/neela-server/internal/esign"
	"github.com/neela-property/neela-server/internal/lease"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/provision"
	"github.com/neela-property/neela-server/internal/render"
	"github.com/neela-property/neela-server/internal/storage"
)

func main() {
	// Command line flags
	var configFile string
	flag.StringVar(&configFile, "config", "config/backoffice-server.yml", "Configuration file path")
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

	if err := store.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Document artifact storage
	docs, err := buildDocstore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document storage")
	}

	// Notifier: direct delivery or queued through NATS
	var nc *nats.Conn
	notifier := notify.Notifier(notify.NewSyncNotifier(cfg.Notify))
	if cfg.Notify.Mode == "queued" && cfg.NATS.URL != "" {
		nc, err = connectNATS(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, delivering notifications inline")
		} else {
			defer nc.Close()
			notifier = notify.NewNATSNotifier(nc)
			log.Info().Msg("Queued notification mode enabled")
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

	// Start REST API server
	apiServer := api.NewRESTServer(cfg, store, leaseSvc, accounts, docs, notifier)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		if err := apiServer.ListenAndServe(addr); err != nil {
			log.Fatal().Err(err).Msg("REST API server failed")
		}
	}()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	cancel()

	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
	}

	wg.Wait()

	log.Info().Msg("Back office server stopped")
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
