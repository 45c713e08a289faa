// This program performs administrative tasks for the tenant CRM service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/mongodb"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

// Config holds the store settings shared by every command.
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"tenantcrm"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Mongo struct {
		URI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database string `envconfig:"MONGO_DATABASE" default:"tenantcrm"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", nil)

	if err := newRootCmd(log).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	var cfg Config

	root := cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for the tenant CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}

			if err := envconfig.Process("", &cfg); err != nil {
				return fmt.Errorf("processing config: %w", err)
			}

			return nil
		},
	}

	root.AddCommand(
		migrateCmd(log, &cfg),
		seedPlansCmd(&cfg),
		createTenantCmd(log, &cfg),
		createUserCmd(log, &cfg),
		genKeyCmd(&cfg),
	)

	return &root
}

func openDB(cfg *Config) (*sqlx.DB, error) {
	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	return db, nil
}

func openMongo(ctx context.Context, cfg *Config) (*mongo.Database, error) {
	mdb, err := mongodb.Open(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	return mdb, nil
}
