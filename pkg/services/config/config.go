package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

// Load reads the pipeline configuration from the environment (after the cmd
// layer has loaded any .env file). Everything downstream receives the
// resulting domain.Config explicitly; services never touch the environment.
func Load() (domain.Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("warehouse_dsn", "")
	v.SetDefault("data_base_path", "/data/user-funnel")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("recipients_path", "recipients.json")
	v.SetDefault("smtp_from", "")
	v.SetDefault("smtp_host", "smtp.example.com")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")

	cfg := domain.Config{
		WarehouseDSN:   v.GetString("warehouse_dsn"),
		BasePath:       v.GetString("data_base_path"),
		OutputDir:      v.GetString("output_dir"),
		RecipientsPath: v.GetString("recipients_path"),
		SMTP: domain.SMTPConfig{
			From:     v.GetString("smtp_from"),
			Host:     v.GetString("smtp_host"),
			Port:     v.GetInt("smtp_port"),
			User:     v.GetString("smtp_user"),
			Password: v.GetString("smtp_password"),
		},
	}

	if cfg.SMTP.Port <= 0 {
		return domain.Config{}, fmt.Errorf("invalid smtp port %d", cfg.SMTP.Port)
	}
	return cfg, nil
}
