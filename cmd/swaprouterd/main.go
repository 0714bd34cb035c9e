package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paw-chain/swaprouter/pkg/chain"
	"github.com/paw-chain/swaprouter/pkg/config"
	"github.com/paw-chain/swaprouter/pkg/engine"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swaprouterd",
		Short: "Off-chain swap routing and execution engine for the PAW DEX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("swaprouterd exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.JSONFormatter{})

	client := chain.NewHTTPClient(cfg.NodeRPC, cfg.ChainTimeout)

	eng, err := engine.New(client, engine.Options{
		RouterParams:       cfg.RouterParams(),
		LifecycleParams:    cfg.LifecycleParams(),
		SlippageCeilingBps: cfg.SlippageCeilingBps,
		DeadlineWindow:     cfg.DeadlineWindow,
		QuoteCacheTTL:      cfg.QuoteCacheTTL,
		RefreshInterval:    cfg.RefreshInterval,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Sync(ctx); err != nil {
		log.WithError(err).Warn("Initial pool sync failed, will retry on refresh")
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := ":" + cfg.MetricsPort
		log.WithField("addr", addr).Info("Metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	log.WithFields(log.Fields{
		"node_rpc": cfg.NodeRPC,
		"chain_id": cfg.ChainID,
		"pools":    eng.Registry().PoolCount(),
	}).Info("Swap router engine started")

	eng.Run(ctx)
	log.Info("Swap router engine stopped")
	return nil
}
