package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/shop_api/internal/clock"
	"github.com/Skotchmaster/shop_api/internal/config"
	"github.com/Skotchmaster/shop_api/internal/db"
	"github.com/Skotchmaster/shop_api/internal/events"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/voucher"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg := config.LoadSweeper()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"-sweeper")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	}

	sweeper := &voucher.Sweeper{
		DB:        gdb,
		Clock:     clock.NewRealClock(),
		Interval:  cfg.SweepInterval,
		Publisher: publisher,
		Logger:    logger,
	}

	if *once {
		res, err := sweeper.Sweep(context.Background())
		if err != nil {
			logger.Error("sweep_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sweep_done", "activated", res.Activated, "expired", res.Expired)
		return
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sweeper.Run(runCtx); err != nil {
		logger.Error("sweeper_stopped", "error", err)
	}
	logger.Info("sweeper_exited")
}
