package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/qtistate/internal/config"
	"github.com/S0me0neR0man/qtistate/internal/server"
	"github.com/S0me0neR0man/qtistate/internal/storage"
	"github.com/S0me0neR0man/qtistate/internal/token"
)

func main() {
	conf, err := config.NewConfig(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger, err := conf.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(conf, logger); err != nil {
		logger.Fatal("sessionstore", zap.Error(err))
	}
}

func newBackend(conf *config.Config) (storage.Backend, error) {
	if conf.StoreDir == "" {
		return storage.NewMemoryBackend(), nil
	}
	return storage.NewFileBackend(conf.StoreDir)
}

func run(conf *config.Config, logger *zap.Logger) error {
	backend, err := newBackend(conf)
	if err != nil {
		return err
	}
	s := server.NewGRPCServer(backend, token.NewTokens(conf.Token), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	logger.Sugar().Infow("sessionstore", "address", conf.Address, "store", storeName(conf))
	if err := s.Start(ctx, conf.Address); err != nil {
		return err
	}
	s.Wait()
	return nil
}

func storeName(conf *config.Config) string {
	if conf.StoreDir == "" {
		return "memory"
	}
	return fmt.Sprintf("dir %s", conf.StoreDir)
}
