package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/zephyra-labs/tradeledger/internal/api/http"
	"github.com/zephyra-labs/tradeledger/internal/application/ledger"
	"github.com/zephyra-labs/tradeledger/internal/application/notify"
	"github.com/zephyra-labs/tradeledger/internal/application/verifier"
	"github.com/zephyra-labs/tradeledger/internal/config"
	"github.com/zephyra-labs/tradeledger/internal/domain/notification"
	"github.com/zephyra-labs/tradeledger/internal/infrastructure/ethrpc"
	"github.com/zephyra-labs/tradeledger/internal/infrastructure/kafka"
	"github.com/zephyra-labs/tradeledger/internal/infrastructure/postgres"
	"github.com/zephyra-labs/tradeledger/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	contractRepo := postgres.NewContractRepository(pool)
	partyRepo := postgres.NewPartyRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	var publisher *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("kafka error: %v", err)
		}
		defer publisher.Close()
	}

	// services
	var verifierSvc ledger.Verifier
	if cfg.ChainRPCURL != "" {
		chainClient := ethrpc.NewClient(cfg.ChainRPCURL, logger)
		verifierSvc = verifier.NewService(chainClient, cfg.VerifyTimeout, logger)
	}
	notifySvc := notify.NewService(sseHub, publisherOrNil(publisher), cfg.AdminAddresses, cfg.AdminNotifyRule, logger)
	ledgerSvc := ledger.NewService(contractRepo, partyRepo, verifierSvc, notifySvc, logger)

	// API server
	apiServer := httpapi.NewServer(ledgerSvc, sseHub)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}

// publisherOrNil keeps a typed nil *kafka.Producer from masquerading as a
// non-nil notification.Publisher inside the notify service.
func publisherOrNil(p *kafka.Producer) notification.Publisher {
	if p == nil {
		return nil
	}
	return p
}
