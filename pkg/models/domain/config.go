package domain

// SMTPConfig carries mail transport settings. User and Password empty means
// mail delivery is not configured; sends are skipped, not failed.
type SMTPConfig struct {
	From     string
	Host     string
	Port     int
	User     string
	Password string
}

// Config is the explicit configuration passed into the pipeline entry points.
// Core packages never read process environment themselves.
type Config struct {
	WarehouseDSN   string
	BasePath       string
	OutputDir      string
	RecipientsPath string
	SMTP           SMTPConfig
}
