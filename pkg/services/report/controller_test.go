package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/models/store"
	"github.com/de-tools/consent-funnel/pkg/services/dates"
	"github.com/de-tools/consent-funnel/pkg/services/funnel"
	"github.com/de-tools/consent-funnel/pkg/services/mailer"
	"github.com/de-tools/consent-funnel/pkg/services/recipients"
)

// stubStore simulates the warehouse with per-entity stage rows and optional
// fetch errors.
type stubStore struct {
	stages   map[string][]store.StageRow
	stageErr map[string]error
}

func (s *stubStore) StageCounts(_ context.Context, entity string, _ domain.DateSpec) ([]store.StageRow, error) {
	if err := s.stageErr[entity]; err != nil {
		return nil, err
	}
	return s.stages[entity], nil
}

func (s *stubStore) OtpCounts(context.Context, string, domain.DateSpec) ([]store.OtpRow, error) {
	return []store.OtpRow{{Incorrect: 1}}, nil
}

func (s *stubStore) DiscoveryCounts(context.Context, string, domain.DateSpec) ([]store.DiscoveryRow, error) {
	return nil, nil
}

func (s *stubStore) FetchStatusCounts(context.Context, string, domain.DateSpec) ([]store.FetchStatusRow, error) {
	return nil, nil
}

// stubRenderer records written paths instead of producing workbooks.
type stubRenderer struct {
	paths  []string
	tables []domain.FunnelTable
	err    error
}

func (r *stubRenderer) Write(table domain.FunnelTable, path string) error {
	if r.err != nil {
		return r.err
	}
	r.tables = append(r.tables, table)
	r.paths = append(r.paths, path)
	return nil
}

// stubSender records messages and answers with a preset outcome.
type stubSender struct {
	msgs []mailer.Message
	sent bool
	err  error
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) (bool, error) {
	s.msgs = append(s.msgs, msg)
	return s.sent, s.err
}

func stageRows() []store.StageRow {
	demoStages, _, _, _ := funnel.DemoRowSets()
	return demoStages
}

func mustSpec(t *testing.T, raw string) domain.DateSpec {
	t.Helper()
	spec, err := dates.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse spec %q: %v", raw, err)
	}
	return spec
}

func TestRun_WritesAndMailsPerEntity(t *testing.T) {
	// Given two entities with data and a configured sender
	st := &stubStore{stages: map[string][]store.StageRow{
		"fiu-alpha": stageRows(),
		"fiu-beta":  stageRows(),
	}}
	renderer := &stubRenderer{}
	sender := &stubSender{sent: true}
	dir := recipients.New(map[string][]string{
		"fiu-alpha": {"alpha@example.com"},
		"fiu-beta":  {"beta@example.com"},
	}, nil)
	ctrl, err := NewController(st, renderer, sender, dir, Settings{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	// When
	summary, err := ctrl.Run(context.Background(), mustSpec(t, "01_01_2024"))

	// Then every entity got an artifact and a notification
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Written != 2 || summary.Mailed != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(sender.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.msgs))
	}
	if sender.msgs[0].Subject != "fiu-alpha_user_funnel_01_01_2024" {
		t.Errorf("unexpected subject %q", sender.msgs[0].Subject)
	}
	if len(sender.msgs[0].Attachments) != 1 || !strings.HasSuffix(sender.msgs[0].Attachments[0], "fiu-alpha-01_01_2024.xlsx") {
		t.Errorf("unexpected attachments %v", sender.msgs[0].Attachments)
	}
}

func TestRun_SkipsEntityWithoutData(t *testing.T) {
	// Given one entity with data and one without
	st := &stubStore{stages: map[string][]store.StageRow{"fiu-alpha": stageRows()}}
	renderer := &stubRenderer{}
	sender := &stubSender{sent: true}
	dir := recipients.New(map[string][]string{
		"fiu-alpha": {"alpha@example.com"},
		"fiu-empty": {"empty@example.com"},
	}, nil)
	ctrl, _ := NewController(st, renderer, sender, dir, Settings{OutputDir: t.TempDir()})

	// When
	summary, err := ctrl.Run(context.Background(), mustSpec(t, "01_01_2024"))

	// Then the empty entity is skipped, the other still processed
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Written != 1 || summary.Skipped != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(renderer.paths) != 1 {
		t.Errorf("expected 1 artifact, got %v", renderer.paths)
	}
}

func TestRun_IsolatesEntityFailures(t *testing.T) {
	// Given the first entity fails at fetch time
	st := &stubStore{
		stages:   map[string][]store.StageRow{"fiu-b": stageRows()},
		stageErr: map[string]error{"fiu-a": fmt.Errorf("warehouse exploded")},
	}
	renderer := &stubRenderer{}
	sender := &stubSender{sent: true}
	dir := recipients.New(map[string][]string{
		"fiu-a": {"a@example.com"},
		"fiu-b": {"b@example.com"},
	}, nil)
	ctrl, _ := NewController(st, renderer, sender, dir, Settings{OutputDir: t.TempDir()})

	// When
	summary, err := ctrl.Run(context.Background(), mustSpec(t, "01_01_2024"))

	// Then the failure does not abort the batch
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Failed != 1 || summary.Written != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestRun_CountsSkippedMail(t *testing.T) {
	// Given a sender without credentials (reports false, nil)
	st := &stubStore{stages: map[string][]store.StageRow{"fiu-a": stageRows()}}
	sender := &stubSender{sent: false}
	dir := recipients.New(map[string][]string{"fiu-a": {"a@example.com"}}, nil)
	ctrl, _ := NewController(st, &stubRenderer{}, sender, dir, Settings{OutputDir: t.TempDir()})

	// When
	summary, err := ctrl.Run(context.Background(), mustSpec(t, "01_01_2024"))

	// Then the artifact counts as written but not mailed
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Written != 1 || summary.Mailed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestRun_DefaultCCUsedForEntitiesWithoutOverride(t *testing.T) {
	st := &stubStore{stages: map[string][]store.StageRow{"fiu-a": stageRows()}}
	sender := &stubSender{sent: true}
	dir := recipients.New(
		map[string][]string{"fiu-a": {"a@example.com"}},
		map[string][]string{"default": {"cc@example.com"}},
	)
	ctrl, _ := NewController(st, &stubRenderer{}, sender, dir, Settings{OutputDir: t.TempDir()})

	if _, err := ctrl.Run(context.Background(), mustSpec(t, "01_01_2024")); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(sender.msgs) != 1 || len(sender.msgs[0].CC) != 1 || sender.msgs[0].CC[0] != "cc@example.com" {
		t.Errorf("expected default cc applied, got %+v", sender.msgs)
	}
}

func TestRunEntity_RangeSpecProducesFlattenedArtifactName(t *testing.T) {
	st := &stubStore{stages: map[string][]store.StageRow{"fiu@a": stageRows()}}
	renderer := &stubRenderer{}
	dir := recipients.New(map[string][]string{"fiu@a": {"a@example.com"}}, nil)
	out := t.TempDir()
	ctrl, _ := NewController(st, renderer, &stubSender{}, dir, Settings{OutputDir: out})

	path, err := ctrl.RunEntity(context.Background(), "fiu@a", mustSpec(t, "01_01_2024 -> 03_01_2024"))
	if err != nil {
		t.Fatalf("RunEntity error: %v", err)
	}
	want := filepath.Join(out, "fiu-a-01_01_2024-03_01_2024.xlsx")
	if path != want {
		t.Errorf("expected artifact path %s, got %s", want, path)
	}
}

func TestDemo_WritesArtifactWithoutMail(t *testing.T) {
	renderer := &stubRenderer{}
	sender := &stubSender{sent: true}
	dir := recipients.New(nil, nil)
	ctrl, _ := NewController(&stubStore{}, renderer, sender, dir, Settings{OutputDir: t.TempDir()})

	path, err := ctrl.Demo(context.Background(), mustSpec(t, "15_06_2024"))
	if err != nil {
		t.Fatalf("Demo error: %v", err)
	}
	if !strings.HasSuffix(path, "demo_funnel_report-15_06_2024.xlsx") {
		t.Errorf("unexpected demo path %s", path)
	}
	if len(sender.msgs) != 0 {
		t.Errorf("demo mode must not send mail, got %d messages", len(sender.msgs))
	}
	if len(renderer.tables) != 1 || renderer.tables[0].Rows[0].Success.Count != 7700 {
		t.Errorf("expected demo cohort 7700 in rendered table")
	}
}
