package domain

// StageTotals holds the per-stage event counts for one aggregation unit
// (a single day, a month, or a combined date range). Field names follow the
// stage columns of the warehouse datasets.
type StageTotals struct {
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

// OtpTotals is the OTP outcome breakdown for one aggregation unit.
type OtpTotals struct {
	Correct    int
	Incorrect  int
	NotEntered int
}

// DiscoveryTotals is the account-discovery outcome breakdown for one
// aggregation unit.
type DiscoveryTotals struct {
	Discovered     int
	NotFound       int
	FIPNotSelected int
	Failure        int
	NoStatus       int
}

// Fetch status categories as stored in the warehouse.
const (
	FetchStatusNotAttempted = "Not Attempted"
	FetchStatusFailed       = "Failed"
	FetchStatusSuccess      = "Success"
)

// FetchStatusCounts maps a fetch status category to its occurrence count.
// Missing categories count as zero.
type FetchStatusCounts map[string]int

// Metric is one count cell of the funnel table together with its percentage
// of the initial cohort. Valid is false for cells that are not measured at
// all; those render blank rather than zero.
type Metric struct {
	Valid bool
	Count int
	Pct   float64
}

// FunnelRow is one row of the funnel table. Sub rows break a stage's dropoff
// into individual causes and carry only the dropoff-side fields.
type FunnelRow struct {
	Stage          string
	PositiveAction string
	Success        Metric
	DropoffCause   string
	Dropoff        Metric
	Sub            bool
}

// FunnelTable is the complete report for one (entity, date spec) pair. It is
// produced once and never mutated afterwards.
type FunnelTable struct {
	// Leading summary figures: percentage of initial users who approved the
	// consent and percentage who ended up sharing their data.
	ApprovedPct float64
	SharedPct   float64
	Rows        []FunnelRow
}
