package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/databricks/databricks-sql-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/consent-funnel/pkg/export/console"
	"github.com/de-tools/consent-funnel/pkg/export/excel"
	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/services/aggregate"
	"github.com/de-tools/consent-funnel/pkg/services/config"
	"github.com/de-tools/consent-funnel/pkg/services/dates"
	"github.com/de-tools/consent-funnel/pkg/services/funnel"
	"github.com/de-tools/consent-funnel/pkg/services/mailer"
	"github.com/de-tools/consent-funnel/pkg/services/recipients"
	"github.com/de-tools/consent-funnel/pkg/services/report"
	"github.com/de-tools/consent-funnel/pkg/store/warehouse"
)

var dateSpec string

func main() {
	rootCmd := &cobra.Command{
		Use:   "funnel-report",
		Short: "Generate and deliver consent funnel reports",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generate reports for every configured entity and mail them out",
		RunE:  runReports,
	}
	runCmd.Flags().StringVarP(&dateSpec, "date", "d", "",
		"Date spec: dd_mm_yyyy, *mm_yyyy or 'dd_mm_yyyy -> dd_mm_yyyy' (default is yesterday)")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Render a workbook from built-in sample data, no warehouse needed",
		RunE:  runDemo,
	}
	demoCmd.Flags().StringVarP(&dateSpec, "date", "d", "",
		"Date spec used only for the artifact name (default is yesterday)")

	rootCmd.AddCommand(runCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReports(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	spec, err := resolveSpec()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	directory, err := recipients.Load(cfg.RecipientsPath)
	if err != nil {
		return fmt.Errorf("failed to load recipients from %s: %w", cfg.RecipientsPath, err)
	}

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

	summary, err := ctrl.Run(ctx, spec)
	if err != nil {
		return err
	}

	fmt.Printf("Reports for %s: %d written, %d mailed, %d skipped, %d failed\n",
		spec.Raw, summary.Written, summary.Mailed, summary.Skipped, summary.Failed)
	for _, artifact := range summary.Artifacts {
		fmt.Printf("  %s\n", artifact)
	}
	if summary.Written == 0 {
		fmt.Println("No reports written. Try `funnel-report demo` to check the rendering pipeline.")
	}
	return nil
}

func runDemo(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	spec, err := resolveSpec()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path, err := report.WriteDemo(ctx, excel.NewExporter(), cfg.OutputDir, spec)
	if err != nil {
		return err
	}

	stageRows, otpRows, discoveryRows, fetchStatusRows := funnel.DemoRowSets()
	table := funnel.BuildTable(
		aggregate.Stages(stageRows),
		aggregate.Otp(otpRows),
		aggregate.Discovery(discoveryRows),
		aggregate.FetchStatus(fetchStatusRows),
	)
	if err := console.NewReporter(os.Stdout).Handle(&table); err != nil {
		return fmt.Errorf("failed to print funnel table: %w", err)
	}

	fmt.Printf("Demo workbook written to %s\n", path)
	return nil
}

func resolveSpec() (domain.DateSpec, error) {
	if dateSpec == "" {
		return dates.Single(time.Now().AddDate(0, 0, -1)), nil
	}
	return dates.Parse(dateSpec)
}
