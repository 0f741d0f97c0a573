package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ogurasousui/peoplesoft-ledger/internal/adapters/repository/boltdb"
	"github.com/ogurasousui/peoplesoft-ledger/internal/adapters/repository/jsonfile"
	"github.com/ogurasousui/peoplesoft-ledger/internal/adapters/repository/memory"
	"github.com/ogurasousui/peoplesoft-ledger/internal/adapters/repository/postgres"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/config"
	pg "github.com/ogurasousui/peoplesoft-ledger/internal/platform/db/postgres"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/idgen"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/logging"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/server"
	"google.golang.org/grpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log, os.Stderr)

	store, closeStore, err := openStateStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer closeStore()

	opts := []ledger.Option{ledger.WithStateStore(store), ledger.WithLogger(logger)}
	if cfg.IDs.Format != config.IDFormatSequential {
		ids, err := idgen.New(cfg.IDs.Format)
		if err != nil {
			log.Fatalf("failed to initialize id generator: %v", err)
		}
		opts = append(opts, ledger.WithIDGenerator(ids))
	}

	svc := ledger.NewService(memory.NewPersonRepository(), memory.NewJobRepository(), employment.New(), opts...)
	if err := svc.Restore(ctx); err != nil {
		log.Fatalf("failed to restore ledger state: %v", err)
	}

	grpcServer := server.New(cfg.Server.ListenAddr, svc, grpc.UnaryInterceptor(server.LoggingInterceptor(logger)))

	logger.Info("gRPC server listening",
		slog.String("addr", cfg.Server.ListenAddr),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("ids", cfg.IDs.Format),
	)

	if err := grpcServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}

func openStateStore(ctx context.Context, cfg *config.Config) (ledger.StateStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		store, err := jsonfile.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.StorageBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create directory for %s: %w", cfg.Storage.Path, err)
		}
		store, err := boltdb.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.StoragePostgres:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return postgres.NewStateStore(pool, pg.NewTransactionManager(pool)), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
