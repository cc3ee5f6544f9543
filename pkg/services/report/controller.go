package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/services/aggregate"
	"github.com/de-tools/consent-funnel/pkg/services/funnel"
	"github.com/de-tools/consent-funnel/pkg/services/mailer"
	"github.com/de-tools/consent-funnel/pkg/services/recipients"
	"github.com/de-tools/consent-funnel/pkg/store/warehouse"
)

// ErrNoData marks an entity with an empty stage row set for the requested
// period. The pipeline skips the entity; it is not a failure.
var ErrNoData = errors.New("no stage data for entity")

// Renderer writes a funnel table to an artifact at path.
type Renderer interface {
	Write(table domain.FunnelTable, path string) error
}

// Controller orchestrates the per-entity pipeline: fetch, aggregate, build,
// render, notify. Entities are processed sequentially and their failures are
// isolated from each other.
type Controller struct {
	store     warehouse.Store
	renderer  Renderer
	sender    mailer.Sender
	directory *recipients.Directory
	outputDir string
}

type Settings struct {
	OutputDir string
}

func NewController(
	store warehouse.Store,
	renderer Renderer,
	sender mailer.Sender,
	directory *recipients.Directory,
	settings Settings,
) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("warehouse store is nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is nil")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender is nil")
	}
	if directory == nil {
		return nil, fmt.Errorf("recipient directory is nil")
	}
	if settings.OutputDir == "" {
		settings.OutputDir = "./output"
	}
	return &Controller{
		store:     store,
		renderer:  renderer,
		sender:    sender,
		directory: directory,
		outputDir: settings.OutputDir,
	}, nil
}

// RunSummary accounts for one batch run across all configured entities.
type RunSummary struct {
	Written   int
	Skipped   int
	Failed    int
	Mailed    int
	Artifacts []string
}

// Run generates and delivers one report per configured entity. A single
// entity's failure is logged and does not abort the remaining entities.
func (c *Controller) Run(ctx context.Context, spec domain.DateSpec) (RunSummary, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", uuid.NewString()).
		Str("date_spec", spec.Raw).
		Logger()
	ctx = logger.WithContext(ctx)

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return RunSummary{}, fmt.Errorf("failed to create output dir %s: %w", c.outputDir, err)
	}

	var summary RunSummary
	for _, entity := range c.directory.Entities() {
		entityLogger := logger.With().Str("entity", entity).Logger()
		entityCtx := entityLogger.WithContext(ctx)

		path, err := c.RunEntity(entityCtx, entity, spec)
		switch {
		case errors.Is(err, ErrNoData):
			entityLogger.Info().Msg("no data for period; skipping entity")
			summary.Skipped++
			continue
		case err != nil:
			entityLogger.Error().Err(err).Msg("report generation failed")
			summary.Failed++
			continue
		}

		summary.Written++
		summary.Artifacts = append(summary.Artifacts, path)
		entityLogger.Info().Str("artifact", path).Msg("report written")

		sent, err := c.sender.Send(entityCtx, mailer.Message{
			To:          c.directory.To(entity),
			CC:          c.directory.CC(entity),
			Subject:     Subject(entity, spec),
			HTMLBody:    Body(entity, spec),
			Attachments: []string{path},
		})
		if err != nil {
			entityLogger.Error().Err(err).Msg("mail send failed")
			continue
		}
		if sent {
			summary.Mailed++
			entityLogger.Info().Msg("email sent")
		} else {
			entityLogger.Info().Msg("email skipped")
		}
	}
	return summary, nil
}

// RunEntity produces the artifact for one entity and returns its path.
// An empty stage result yields ErrNoData.
func (c *Controller) RunEntity(ctx context.Context, entity string, spec domain.DateSpec) (string, error) {
	stageRows, err := c.store.StageCounts(ctx, entity, spec)
	if err != nil {
		return "", fmt.Errorf("failed to fetch stage counts: %w", err)
	}
	if len(stageRows) == 0 {
		return "", ErrNoData
	}

	otpRows, err := c.store.OtpCounts(ctx, entity, spec)
	if err != nil {
		return "", fmt.Errorf("failed to fetch otp counts: %w", err)
	}
	discoveryRows, err := c.store.DiscoveryCounts(ctx, entity, spec)
	if err != nil {
		return "", fmt.Errorf("failed to fetch discovery counts: %w", err)
	}
	fetchStatusRows, err := c.store.FetchStatusCounts(ctx, entity, spec)
	if err != nil {
		return "", fmt.Errorf("failed to fetch fetch-status counts: %w", err)
	}

	table := funnel.BuildTable(
		aggregate.Stages(stageRows),
		aggregate.Otp(otpRows),
		aggregate.Discovery(discoveryRows),
		aggregate.FetchStatus(fetchStatusRows),
	)

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", c.outputDir, err)
	}
	path := c.artifactPath(entity, spec)
	if err := c.renderer.Write(table, path); err != nil {
		return "", fmt.Errorf("failed to render artifact: %w", err)
	}
	return path, nil
}

// Demo renders one artifact from the built-in synthetic row sets without any
// outbound call. Mail delivery is never attempted.
func (c *Controller) Demo(ctx context.Context, spec domain.DateSpec) (string, error) {
	return WriteDemo(ctx, c.renderer, c.outputDir, spec)
}

// WriteDemo is the warehouse-free variant of a run: it needs only a renderer
// and a directory to write into.
func WriteDemo(ctx context.Context, renderer Renderer, outputDir string, spec domain.DateSpec) (string, error) {
	if outputDir == "" {
		outputDir = "./output"
	}
	stageRows, otpRows, discoveryRows, fetchStatusRows := funnel.DemoRowSets()
	table := funnel.BuildTable(
		aggregate.Stages(stageRows),
		aggregate.Otp(otpRows),
		aggregate.Discovery(discoveryRows),
		aggregate.FetchStatus(fetchStatusRows),
	)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("demo_funnel_report-%s.xlsx", spec.Raw))
	if err := renderer.Write(table, path); err != nil {
		return "", fmt.Errorf("failed to render demo artifact: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("artifact", path).Msg("demo report written")
	return path, nil
}

// Subject is the fixed notification subject for one entity and period.
func Subject(entity string, spec domain.DateSpec) string {
	return fmt.Sprintf("%s_user_funnel_%s", entity, spec.Raw)
}

// Body is the fixed notification HTML body.
func Body(entity string, spec domain.DateSpec) string {
	return fmt.Sprintf(
		"Dear team,<br>Please find the user funnel for %s %s.<br><br>Thanks & Regards,<br>Your Team",
		entity, spec.Raw,
	)
}

// artifactPath keys the file name on entity and date spec so independent
// entities never collide.
func (c *Controller) artifactPath(entity string, spec domain.DateSpec) string {
	safeEntity := strings.ReplaceAll(entity, "@", "-")
	safeSpec := strings.ReplaceAll(spec.Raw, " -> ", "-")
	return filepath.Join(c.outputDir, fmt.Sprintf("%s-%s.xlsx", safeEntity, safeSpec))
}
