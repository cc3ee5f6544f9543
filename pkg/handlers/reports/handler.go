package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/consent-funnel/pkg/models/api"
	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/services/dates"
	"github.com/de-tools/consent-funnel/pkg/services/recipients"
	"github.com/de-tools/consent-funnel/pkg/services/report"
)

// Runner generates one report artifact for an entity and period.
type Runner interface {
	RunEntity(ctx context.Context, entity string, spec domain.DateSpec) (string, error)
}

type Handler struct {
	runner    Runner
	directory *recipients.Directory
	now       func() time.Time
}

func NewHandler(runner Runner, directory *recipients.Directory) *Handler {
	return &Handler{
		runner:    runner,
		directory: directory,
		now:       time.Now,
	}
}

func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var response []api.Entity
	for _, entity := range h.directory.Entities() {
		response = append(response, api.Entity{ID: entity})
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode entities")
	}
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	entity := chi.URLParam(r, "entity")

	spec := dates.Single(h.now().AddDate(0, 0, -1))
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := dates.Parse(raw)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid date spec")
			return
		}
		spec = parsed
	}

	path, err := h.runner.RunEntity(ctx, entity, spec)
	switch {
	case errors.Is(err, report.ErrNoData):
		writeError(w, logger, http.StatusNotFound, "no data for entity and period")
		return
	case err != nil:
		logger.Error().Err(err).Str("entity", entity).Msg("report generation failed")
		writeError(w, logger, http.StatusInternalServerError, "report generation failed")
		return
	}

	response := api.ReportArtifact{Entity: entity, DateSpec: spec.Raw, Path: path}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Str("entity", entity).Msg("failed to encode report artifact")
	}
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.Error{Message: msg}); err != nil {
		logger.Error().Err(err).Msg("failed to encode error response")
	}
}
