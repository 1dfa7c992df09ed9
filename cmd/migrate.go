package cmd

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-todo/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openMigrationDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return goose.UpContext(cmd.Context(), db, ".")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openMigrationDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return goose.DownContext(cmd.Context(), db, ".")
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print migration status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openMigrationDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return goose.StatusContext(cmd.Context(), db, ".")
	},
}

func init() {
	goose.SetBaseFS(migrations.FS)

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func openMigrationDB() (*sql.DB, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	if err := goose.SetDialect("mysql"); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
