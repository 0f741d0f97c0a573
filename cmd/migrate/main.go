package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/config"
	"github.com/ogurasousui/peoplesoft-ledger/internal/platform/logging"
)

// migrator は *migrate.Migrate のうち台帳スキーマの操作に使うメソッドです。
type migrator interface {
	Up() error
	Down() error
	Drop() error
	Version() (uint, bool, error)
}

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing ledger migration files")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfgPath := effectiveConfigPath(*configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log, os.Stderr).With(slog.String("action", action))

	if err := validateTarget(cfg); err != nil {
		log.Fatalf("config %s: %v", cfgPath, err)
	}

	m, err := newMigrator(*migrationsDir, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("failed to open ledger schema: %v", err)
	}
	defer m.Close()

	if err := apply(m, action, logger); err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}
	logger.Info("ledger migration completed")
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

// validateTarget は台帳の状態が PostgreSQL に保存される設定かを確認します。
func validateTarget(cfg *config.Config) error {
	if cfg.Storage.Driver != config.StoragePostgres {
		return fmt.Errorf("storage.driver is %q; migrations only apply to the ledger postgres state store (storage.driver: %s)", cfg.Storage.Driver, config.StoragePostgres)
	}
	if !cfg.Database.Configured() {
		return errors.New("database section is required for the ledger postgres state store")
	}
	return nil
}

func newMigrator(dir, dsn string) (*migrate.Migrate, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// apply は action を実行します。reset は全マイグレーションを戻してから再適用し、台帳を空の状態にします。
func apply(m migrator, action string, logger *slog.Logger) error {
	switch action {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Down())
	case "drop":
		return m.Drop()
	case "reset":
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("down: %w", err)
		}
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("up: %w", err)
		}
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no ledger migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("ledger schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q (want up, down, drop, reset or version)", action)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
