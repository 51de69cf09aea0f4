package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gochat/internal/dbmysql"
	"gochat/internal/di"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the MySQL schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, cleanup, err := di.InitializeDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := dbmysql.AutoMigrate(db); err != nil {
		return err
	}
	log.Info("database migration completed", zap.Int("tables", len(dbmysql.Models())))
	return nil
}
