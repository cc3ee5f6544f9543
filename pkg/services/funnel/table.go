package funnel

import (
	"math"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

// Percent expresses count as a share of the initial cohort, rounded to one
// decimal. A zero cohort yields 0 rather than a division error.
func Percent(count, cohort int) float64 {
	if cohort <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(cohort)*1000) / 10
}

// BuildTable derives the ordered funnel table from the four aggregated row
// sets. The derivation chain is fixed; two of its figures (the correct-OTP
// residual and the requested-but-not-fetched dropoff) may go negative when
// the upstream counts are inconsistent. They are preserved as computed so the
// report stays auditable against the source tables.
func BuildTable(
	stages domain.StageTotals,
	otp domain.OtpTotals,
	disc domain.DiscoveryTotals,
	fetch domain.FetchStatusCounts,
) domain.FunnelTable {
	// Cohort: everyone who entered the funnel, i.e. the users who dropped at
	// one of the first five stages plus those who reached a consent decision.
	cohort := stages.ClientInitialization +
		stages.OTPSignIn +
		stages.ViewConsentDetails +
		stages.Discovery +
		stages.Linking +
		stages.RejectedConsents +
		stages.ApprovedConsents

	initDrop := stages.ClientInitialization
	authDrop := stages.OTPSignIn + stages.ViewConsentDetails
	discDrop := disc.Discovered + disc.NotFound + disc.FIPNotSelected + disc.Failure + disc.NoStatus
	linkDrop := stages.Linking

	// Running cohort subtraction: each stage's successful count is the cohort
	// minus everything lost so far, in stage order.
	afterInit := cohort - initDrop
	afterAuth := afterInit - authDrop
	afterDisc := afterAuth - discDrop
	afterLink := afterDisc - linkDrop

	// Both Success and Failed represent an attempted FI request.
	requested := fetch[domain.FetchStatusSuccess] + fetch[domain.FetchStatusFailed]
	fetchDrop := requested - stages.DataFetchSuccess

	otpResidual := stages.OTPSignIn - (otp.Incorrect + otp.NotEntered) + stages.ViewConsentDetails
	foundNotLinked := disc.Discovered + disc.FIPNotSelected

	m := func(count int) domain.Metric {
		return domain.Metric{Valid: true, Count: count, Pct: Percent(count, cohort)}
	}

	rows := []domain.FunnelRow{
		{
			Stage:          "Consent Initiated",
			PositiveAction: "AA successfully received a consent handle",
			Success:        m(cohort),
			DropoffCause:   "AA did not receive a consent handle",
			Dropoff:        m(0),
		},
		{
			Stage:          "FIU initiated AA Client",
			PositiveAction: "AA client was successfully initiated",
			Success:        m(afterInit),
			DropoffCause:   "AA client was not successfully initiated",
			Dropoff:        m(initDrop),
		},
		{
			Stage:          "Registration/Login",
			PositiveAction: "User was authenticated",
			Success:        m(afterAuth),
			DropoffCause:   "User was not authenticated",
			Dropoff:        m(authDrop),
		},
		{Sub: true, DropoffCause: "↳Incorrect OTP entered", Dropoff: m(otp.Incorrect)},
		{Sub: true, DropoffCause: "↳OTP not received back", Dropoff: m(otp.NotEntered)},
		{Sub: true, DropoffCause: "↳Correct OTP entered but user dropped off", Dropoff: m(otpResidual)},
		{
			Stage:          "Account Discovery",
			PositiveAction: "User was able to find accounts",
			Success:        m(afterDisc),
			DropoffCause:   "User was not able to find accounts",
			Dropoff:        m(discDrop),
		},
		{Sub: true, DropoffCause: "↳FIP returned 'No Records Found'", Dropoff: m(disc.NotFound)},
		{Sub: true, DropoffCause: "↳FIP failed to send records", Dropoff: m(disc.NoStatus)},
		{Sub: true, DropoffCause: "↳Some FIP returned 'No Records Found' and some failed to send records", Dropoff: m(disc.Failure)},
		{Sub: true, DropoffCause: "↳FIP returned accounts, but user did not link any accounts", Dropoff: m(foundNotLinked)},
		{
			Stage:          "Account Linking",
			PositiveAction: "User was able to link accounts",
			Success:        m(afterLink),
			DropoffCause:   "User was not able to link accounts",
			Dropoff:        m(linkDrop),
		},
		{
			Stage:          "Consent Request Review",
			PositiveAction: "User approved the consent request",
			Success:        m(stages.ApprovedConsents),
			DropoffCause:   "User did not approve the consent request",
			Dropoff:        m(stages.RejectedConsents),
		},
		{Sub: true, DropoffCause: "↳User rejected the consent", Dropoff: m(stages.RejectedConsents)},
		// No data source measures this cause; the cell stays blank, not zero.
		{Sub: true, DropoffCause: "↳User did not take any action"},
		{
			Stage:          "Consent Artefact Delivery",
			PositiveAction: "FIP accepted the consent artefact",
			Success:        m(stages.FIPAcceptedArtefacts),
			DropoffCause:   "FIP rejected the consent artefact",
			Dropoff:        m(stages.FIPRejectedArtefacts),
		},
		{
			Stage:          "FI Request",
			PositiveAction: "FIU successfully requested the data",
			Success:        m(requested),
			DropoffCause:   "FIU did not request the data",
			Dropoff:        m(stages.DataFetchNotAttempted),
		},
		{
			Stage:          "FI Fetch",
			PositiveAction: "FIU successfully received the data",
			Success:        m(stages.DataFetchSuccess),
			DropoffCause:   "FIU did not received the data",
			Dropoff:        m(fetchDrop),
		},
	}

	return domain.FunnelTable{
		ApprovedPct: Percent(stages.ApprovedConsents, cohort),
		SharedPct:   Percent(stages.DataFetchSuccess, cohort),
		Rows:        rows,
	}
}
