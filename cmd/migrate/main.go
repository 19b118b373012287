package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/database"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare the donation network datastores",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Info("No .env file found")
		}
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending Postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator()
		if err != nil {
			return err
		}
		defer func() {
			_, _ = m.Close()
		}()

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		log.Info("Migration up successful")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all Postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator()
		if err != nil {
			return err
		}
		defer func() {
			_, _ = m.Close()
		}()

		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		log.Info("Migration down successful")
		return nil
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		mongoURL := getEnv("MONGO_URL", "mongodb://localhost:27017")
		dbName := getEnv("MONGO_DB", "donation_network")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.ConnectMongo(ctx, mongoURL, dbName)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Client().Disconnect(context.Background())
		}()

		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return fmt.Errorf("create indexes failed: %w", err)
		}
		log.Info("MongoDB indexes ready", "database", dbName)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (searched upwards from the working directory when empty)")
	rootCmd.AddCommand(upCmd, downCmd, indexesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal("migrate failed", "err", err)
	}
}

func newMigrator() (*migrate.Migrate, error) {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return nil, errors.New("DB_URL environment variable is required")
	}

	dir := migrationsDir
	if dir == "" {
		found, err := findMigrationsDir()
		if err != nil {
			return nil, err
		}
		dir = found
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), dbURL)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return m, nil
}

func findMigrationsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	candidates := []string{}
	current := cwd
	for i := 0; i < 6; i++ {
		candidates = append(candidates, filepath.Join(current, "migrations"))
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.New("migrations directory not found")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
