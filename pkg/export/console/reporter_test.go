package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/services/aggregate"
	"github.com/de-tools/consent-funnel/pkg/services/funnel"
)

func TestHandle(t *testing.T) {
	// Given a table built from the sample row sets
	stageRows, otpRows, discoveryRows, fetchStatusRows := funnel.DemoRowSets()
	table := funnel.BuildTable(
		aggregate.Stages(stageRows),
		aggregate.Otp(otpRows),
		aggregate.Discovery(discoveryRows),
		aggregate.FetchStatus(fetchStatusRows),
	)

	// When it is rendered to the console
	var buf bytes.Buffer
	reporter := NewReporter(&buf)
	if err := reporter.Handle(&table); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	out := buf.String()

	// Then the summary and every stage appear with counts and percentages
	for _, want := range []string{
		"Approved consents: 16.2% of initial users",
		"Data shared successfully: 10.6% of initial users",
		"Consent Initiated",
		"AA successfully received a consent handle: 7700 (100.0%)",
		"↳Incorrect OTP entered: 450 (5.8%)",
		"FI Fetch",
		"FIU successfully received the data: 820 (10.6%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestHandleUnmeasuredCell(t *testing.T) {
	table := domain.FunnelTable{
		Rows: []domain.FunnelRow{
			{Sub: true, DropoffCause: "↳User did not take any action"},
		},
	}

	var buf bytes.Buffer
	if err := NewReporter(&buf).Handle(&table); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	// An unmeasured cell renders as a dash, never as zero
	if !strings.Contains(buf.String(), "↳User did not take any action: -") {
		t.Errorf("expected dash for unmeasured cell, got:\n%s", buf.String())
	}
}
