package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/config"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/pricefetcher"
	ledgerrpc "github.com/tdex-network/oracle-dispatcher/internal/infrastructure/ledger-rpc"
	httpinterface "github.com/tdex-network/oracle-dispatcher/internal/interfaces/http"
	calculator "github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	hook, err := configureLogger(cfg)
	if err != nil {
		log.WithError(err).Fatal("error while configuring logger")
	}
	if hook != nil {
		defer hook.Close()
	}

	ledger, err := ledgerrpc.NewService(cfg.LedgerURL, cfg.SubmitTimeout)
	if err != nil {
		log.WithError(err).Fatal("error while setting up ledger client")
	}

	appConfig := &application.Config{
		Ledger:     ledger,
		Signer:     cfg.Signer,
		OracleName: cfg.OracleName,
		Symbols:    cfg.Symbols,
		SourceOpts: pricefetcher.SourceOpts{
			Timeout:             cfg.SourceTimeout,
			RateLimit:           cfg.SourceRateLimit,
			CryptoCompareAPIKey: cfg.CryptoCompareAPIKey,
			AlphaVantageAPIKey:  cfg.AlphaVantageAPIKey,
		},
		Policy:          cfg.Policy(),
		EnableArbitrage: cfg.EnableArbitrage,
		BaseCurrency:    cfg.BaseCurrency,
		ArbitrageOpts: calculator.Opts{
			Threshold: cfg.ArbitrageThreshold,
			Slippage:  cfg.SlippageTolerance,
		},
		DispatcherOpts: application.DispatcherOpts{
			Interval:            cfg.Interval,
			SubmitTimeout:       cfg.SubmitTimeout,
			HeartbeatMultiplier: cfg.HeartbeatMultiplier,
			NoiseInterval:       cfg.NoiseInterval,
			NoiseBps:            cfg.NoiseBps,
		},
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	defer appConfig.Close()

	dispatcher := appConfig.Dispatcher()
	if hook != nil {
		hook.SetHealthReporter(dispatcher.Heartbeats())
	}

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address: cfg.ListeningAddress(),
		Health:  dispatcher.Heartbeats(),
	})
	if err != nil {
		log.WithError(err).Fatal("error while setting up health interface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats.EnableMemoryStatistics(ctx, cfg.StatsInterval)

	log.WithFields(log.Fields{
		"address":  cfg.Signer.Address(),
		"oracle":   cfg.OracleName,
		"symbols":  len(cfg.Symbols),
		"interval": cfg.Interval,
	}).Info("starting dispatcher")

	if err := httpSvc.Start(); err != nil {
		log.WithError(err).Fatal("error while starting health interface")
	}
	defer httpSvc.Stop()

	if err := dispatcher.Start(ctx); err != nil {
		log.WithError(err).Fatal("error while starting dispatcher")
	}
	defer dispatcher.Stop()

	log.Infof("health interface is listening on %s", cfg.ListeningAddress())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
}
