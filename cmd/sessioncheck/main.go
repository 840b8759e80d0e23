package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/qtistate/internal/client"
	"github.com/S0me0neR0man/qtistate/internal/config"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, conf, logger); err != nil {
		logger.Fatal("sessioncheck", zap.Error(err))
	}
}

func storageOptions(conf *config.Config) ([]storage.Option, error) {
	compression, err := storage.ParseCompression(conf.Compression)
	if err != nil {
		return nil, err
	}
	opts := []storage.Option{storage.WithCompression(compression)}
	if conf.Checksum {
		key, err := conf.Key()
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithChecksum(key))
	}
	return opts, nil
}

func run(ctx context.Context, conf *config.Config, logger *zap.Logger) error {
	c, err := client.NewGRPClient(conf.Address, token.NewTokens(conf.Token))
	if err != nil {
		return err
	}
	defer c.Close()

	opts, err := storageOptions(conf)
	if err != nil {
		return err
	}
	files := storage.NewFileManager(c)
	opts = append(opts, storage.WithFiles(files))
	store, err := storage.NewSessionStorage(c, logger, opts...)
	if err != nil {
		return err
	}

	checker := NewChecker(store, files, conf, logger)
	stats, err := checker.Run(ctx)
	fmt.Fprintf(os.Stdout, "\n%s\n", stats)
	return err
}
