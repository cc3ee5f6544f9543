package funnel

import (
	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/models/store"
)

// DemoRowSets returns synthetic row sets with the same shapes the warehouse
// store produces, so the full pipeline can run without any outbound call.
func DemoRowSets() ([]store.StageRow, []store.OtpRow, []store.DiscoveryRow, []store.FetchStatusRow) {
	stageRows := []store.StageRow{
		{
			Date:                  "01-01-2024",
			ClientInitialization:  800,
			OTPSignIn:             450,
			ViewConsentDetails:    1050,
			Discovery:             600,
			Linking:               1600,
			RejectedConsents:      1950,
			ApprovedConsents:      1250,
			FIPRejectedArtefacts:  150,
			FIPAcceptedArtefacts:  1100,
			DataFetchSuccess:      820,
			DataFetchNotAttempted: 50,
		},
	}

	otpRows := []store.OtpRow{
		{Correct: 0, Incorrect: 450, NotEntered: 1200},
	}

	discoveryRows := []store.DiscoveryRow{
		{Discovered: 350, NotFound: 600, FIPNotSelected: 400, Failure: 150, NoStatus: 200},
	}

	fetchStatusRows := []store.FetchStatusRow{
		{Status: domain.FetchStatusSuccess, Count: 820},
		{Status: domain.FetchStatusFailed, Count: 230},
		{Status: domain.FetchStatusNotAttempted, Count: 50},
	}

	return stageRows, otpRows, discoveryRows, fetchStatusRows
}
