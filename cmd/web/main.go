package main

import (
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	_ "github.com/databricks/databricks-sql-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/consent-funnel/pkg/export/excel"
	"github.com/de-tools/consent-funnel/pkg/server"
	"github.com/de-tools/consent-funnel/pkg/services/config"
	"github.com/de-tools/consent-funnel/pkg/services/mailer"
	"github.com/de-tools/consent-funnel/pkg/services/recipients"
	"github.com/de-tools/consent-funnel/pkg/services/report"
	"github.com/de-tools/consent-funnel/pkg/store/warehouse"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the consent funnel report API",
		RunE:  runServer,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	directory, err := recipients.Load(cfg.RecipientsPath)
	if err != nil {
		return fmt.Errorf("failed to load recipients from %s: %w", cfg.RecipientsPath, err)
	}
	logger.Info().Int("entities", len(directory.Entities())).
		Msgf("Recipient directory at `%s` successfully loaded.", cfg.RecipientsPath)

	db, err := sql.Open("databricks", cfg.WarehouseDSN)
	if err != nil {
		return fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	defer db.Close()

	store, err := warehouse.NewStore(db, warehouse.Settings{BasePath: cfg.BasePath})
	if err != nil {
		return fmt.Errorf("failed to create warehouse store: %w", err)
	}

	ctrl, err := report.NewController(
		store,
		excel.NewExporter(),
		mailer.NewSender(cfg.SMTP),
		directory,
		report.Settings{OutputDir: cfg.OutputDir},
	)
	if err != nil {
		return fmt.Errorf("failed to create report controller: %w", err)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Runner:    ctrl,
			Directory: directory,
			Logger:    logger,
		},
	})

	return api.Start()
}
