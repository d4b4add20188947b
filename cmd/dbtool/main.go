package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"food-rescue-service/internal/adapters/repositories"
	"food-rescue-service/internal/config"
	"food-rescue-service/internal/platform/db"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedPath string

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "Manages the food rescue database",
	Long:          `dbtool initializes the SQLite or Postgres schema and loads seed offers and needs. The database is chosen with DB_DRIVER, DB_PATH and DATABASE_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and indexes if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *repositories.SQLStore) error {
			log.Info().Msg("initializing database schema")
			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			log.Info().Msg("schema ready")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the schema and insert seed records that are not present yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *repositories.SQLStore) error {
			if err := store.InitSchema(ctx); err != nil {
				return err
			}

			if seedPath == "" {
				seedPath = config.Get("SEED_PATH", "data/seeds/seed.json")
			}
			log.Info().Str("seed_path", seedPath).Msg("seeding database")
			offers, needs, err := store.SeedFromJSON(ctx, seedPath, time.Now().UTC())
			if err != nil {
				return err
			}
			log.Info().Int("offers", offers).Int("needs", needs).Msg("seeding complete")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "seed file path (default SEED_PATH)")
	rootCmd.AddCommand(initCmd, seedCmd)
}

func withStore(ctx context.Context, fn func(ctx context.Context, store *repositories.SQLStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("dbtool: DB_DRIVER=%s has no database to manage", cfg.DBDriver)
	}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer func(conn *sql.DB) {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}(conn)

	return fn(ctx, repositories.NewSQLStore(conn, repositories.Dialect(cfg.DBDriver)))
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if !config.LoadDotEnv() {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("dbtool failed")
	}
}
