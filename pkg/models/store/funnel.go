package store

// StageRow is one scanned row of a stage-counts dataset: the eleven stage
// columns for one day. NULL and empty cells are normalized to zero when
// scanning.
type StageRow struct {
	Date                  string // dd-mm-yyyy, as stored in the dataset
	ClientInitialization  int
	OTPSignIn             int
	ViewConsentDetails    int
	Discovery             int
	Linking               int
	RejectedConsents      int
	ApprovedConsents      int
	FIPRejectedArtefacts  int
	FIPAcceptedArtefacts  int
	DataFetchSuccess      int
	DataFetchNotAttempted int
}

// OtpRow is one pre-summed OTP outcome row for a single period.
type OtpRow struct {
	Correct    int
	Incorrect  int
	NotEntered int
}

// DiscoveryRow is one pre-summed discovery outcome row for a single period.
type DiscoveryRow struct {
	Discovered     int
	NotFound       int
	FIPNotSelected int
	Failure        int
	NoStatus       int
}

// FetchStatusRow is one grouped fetch-status count. The same status may
// appear once per queried period; aggregation re-groups them.
type FetchStatusRow struct {
	Status string
	Count  int
}
