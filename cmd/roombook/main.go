package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikmy/roombook/internal/api"
	"github.com/nikmy/roombook/internal/index"
	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/internal/pubsub"
	"github.com/nikmy/roombook/internal/storage"
	"github.com/nikmy/roombook/internal/telegram"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := loadConfig(parseFlags())
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "load config"))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "init logger"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	defer cancel()

	strategy, err := index.StrategyByName(cfg.Ledger.Strategy)
	if err != nil {
		log.Panic(errors.WrapFail(err, "choose search strategy"))
	}

	opts := []ledger.Option{
		ledger.WithStrategy(strategy),
		ledger.WithLogger(log),
		ledger.WithCatalog(cfg.Ledger.Catalog()...),
	}
	if cfg.Ledger.HistorySize > 0 {
		opts = append(opts, ledger.WithHistorySize(cfg.Ledger.HistorySize))
	}

	var closers []func() error

	if cfg.Kafka.Enabled() {
		producer := pubsub.NewKafkaProducer(cfg.Kafka, log)
		opts = append(opts, ledger.WithPublisher(producer))
		closers = append(closers, producer.Close)
	}

	l := ledger.New(opts...)

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Panic(errors.WrapFail(err, "init storage"))
	}

	saver := storage.NewSaver(store, l, cfg.Storage.Interval, log)
	err = saver.Restore(ctx)
	if err != nil {
		log.Panic(errors.WrapFail(err, "restore bookings"))
	}

	saved := make(chan struct{})
	go func() {
		defer close(saved)
		err := saver.Run(ctx)
		if err != nil {
			log.Error(err)
		}
	}()

	server := api.NewServer(cfg.HTTP, log, l)
	go func() {
		err := server.Serve(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error(errors.WrapFail(err, "serve http"))
			cancel()
		}
	}()

	var bot *telegram.Bot
	if cfg.Telegram.Token != "" {
		bot, err = telegram.New(log, cfg.Telegram, l)
		if err != nil {
			log.Panic(errors.WrapFail(err, "initialize bot service"))
		}

		err = bot.Run(ctx)
		if err != nil {
			log.Panic(err)
		}

		if cfg.Kafka.Enabled() && cfg.Kafka.Group != "" {
			consumer := pubsub.NewKafkaConsumer(cfg.Kafka, log)
			consumer.HandleEvents(ctx, bot.OnEvent)
			closers = append(closers, consumer.Close)
		}
		stdlog.Println("Bot has been started")
	}

	stdlog.Println("Roombook has been started")
	<-ctx.Done()
	stdlog.Println("Graceful shutdown...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Warn(err)
	}

	if bot != nil {
		bot.Stop()
	}

	<-saved

	for _, closeFn := range closers {
		err := closeFn()
		if err != nil {
			log.Warn(err)
		}
	}

	err = store.Close(shutdownCtx)
	if err != nil {
		log.Warn(err)
	}

	stdlog.Println("Shutdown complete")
}
