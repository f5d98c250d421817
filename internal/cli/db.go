// Package cli implements the vetoctl commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DoyleJ11/veto-backend/internal/config"
	"github.com/DoyleJ11/veto-backend/internal/logger"
	"github.com/DoyleJ11/veto-backend/internal/store"
)

// AddDatabaseFlags registers --driver and --dsn, which override DB_DRIVER and
// DATABASE_URL.
func AddDatabaseFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("driver", "", "database driver (postgres|sqlite)")
	cmd.PersistentFlags().String("dsn", "", "database connection string")
	cmd.PersistentFlags().Bool("verbose", false, "log SQL errors and slow queries")
}

type env struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		cfg.DatabaseURL = v
	}

	level := "error"
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	log, err := logger.New(config.EnvDevelopment, level)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &env{cfg: cfg, db: db, log: log}, nil
}

func (e *env) close() {
	_ = store.Close(e.db)
	_ = e.log.Sync()
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := store.Migrate(e.db); err != nil {
				return err
			}
			fmt.Printf("%s schema migrated (%s)\n", ok(), e.cfg.DBDriver)
			return nil
		},
	}
}

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the official HCS map pool",
		Long:  "Migrates the schema, then upserts the HCS modes and maps. Running it again changes nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := store.Migrate(e.db); err != nil {
				return err
			}
			res, err := store.Seed(cmd.Context(), e.db, store.HCSCatalog, e.cfg.SlayerMode)
			if err != nil {
				return fmt.Errorf("failed to seed catalog: %w", err)
			}
			fmt.Printf("%s catalog seeded: %d modes and %d maps created, %d modes and %d maps pruned\n",
				ok(), res.ModesCreated, res.MapsCreated, res.ModesPruned, res.MapsPruned)
			return nil
		},
	}
}
