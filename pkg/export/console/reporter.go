package console

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

// Reporter outputs a funnel table to the console in a formatted text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(table *domain.FunnelTable) error {
	tmpl := `
Summary
Approved consents: {{printf "%.1f" .ApprovedPct}}% of initial users
Data shared successfully: {{printf "%.1f" .SharedPct}}% of initial users

{{range .Rows}}{{if .Sub}}  {{.DropoffCause}}: {{metric .Dropoff}}
{{else}}{{.Stage}}
  {{.PositiveAction}}: {{metric .Success}}
{{- if .DropoffCause}}
  {{.DropoffCause}}: {{metric .Dropoff}}
{{- end}}
{{end}}{{end}}`

	t, err := template.New("funnel").Funcs(template.FuncMap{
		"metric": formatMetric,
	}).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, table)
}

func formatMetric(m domain.Metric) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%d (%.1f%%)", m.Count, m.Pct)
}
