package aggregate

import (
	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/models/store"
)

// Stages sums the eleven stage columns across all rows (one row per day).
// An empty row set yields all-zero totals.
func Stages(rows []store.StageRow) domain.StageTotals {
	var t domain.StageTotals
	for _, r := range rows {
		t.ClientInitialization += r.ClientInitialization
		t.OTPSignIn += r.OTPSignIn
		t.ViewConsentDetails += r.ViewConsentDetails
		t.Discovery += r.Discovery
		t.Linking += r.Linking
		t.RejectedConsents += r.RejectedConsents
		t.ApprovedConsents += r.ApprovedConsents
		t.FIPRejectedArtefacts += r.FIPRejectedArtefacts
		t.FIPAcceptedArtefacts += r.FIPAcceptedArtefacts
		t.DataFetchSuccess += r.DataFetchSuccess
		t.DataFetchNotAttempted += r.DataFetchNotAttempted
	}
	return t
}

// Otp sums the per-period OTP outcome rows elementwise.
func Otp(rows []store.OtpRow) domain.OtpTotals {
	var t domain.OtpTotals
	for _, r := range rows {
		t.Correct += r.Correct
		t.Incorrect += r.Incorrect
		t.NotEntered += r.NotEntered
	}
	return t
}

// Discovery sums the per-period discovery outcome rows elementwise.
func Discovery(rows []store.DiscoveryRow) domain.DiscoveryTotals {
	var t domain.DiscoveryTotals
	for _, r := range rows {
		t.Discovered += r.Discovered
		t.NotFound += r.NotFound
		t.FIPNotSelected += r.FIPNotSelected
		t.Failure += r.Failure
		t.NoStatus += r.NoStatus
	}
	return t
}

// FetchStatus groups rows by status category and sums the counts within each
// group. The same category may occur once per queried period, in any order.
func FetchStatus(rows []store.FetchStatusRow) domain.FetchStatusCounts {
	counts := domain.FetchStatusCounts{}
	for _, r := range rows {
		counts[r.Status] += r.Count
	}
	return counts
}
