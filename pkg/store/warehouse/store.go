package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/models/store"
	"github.com/de-tools/consent-funnel/pkg/services/dates"
)

const rowDateLayout = "02-01-2006"

// Store reads the four raw funnel row sets for one entity and date spec.
// A transport failure yields an empty result, not an error: the pipeline
// treats empty stage rows as "no data for this entity/period" and empty
// OTP/discovery/fetch-status rows as all-zero.
type Store interface {
	StageCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.StageRow, error)
	OtpCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.OtpRow, error)
	DiscoveryCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.DiscoveryRow, error)
	FetchStatusCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.FetchStatusRow, error)
}

type Settings struct {
	// BasePath is the warehouse location the per-period funnel datasets live
	// under, e.g. /data/user-funnel.
	BasePath string
}

type warehouseStore struct {
	db   *sql.DB
	base string
}

func NewStore(db *sql.DB, settings Settings) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if settings.BasePath == "" {
		return nil, fmt.Errorf("base path is required")
	}
	return &warehouseStore{db: db, base: settings.BasePath}, nil
}

// StageCounts loads the per-day stage rows. Stage datasets only exist at
// month granularity, so a range is served from its covering months and then
// filtered back to the requested interval.
func (w *warehouseStore) StageCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.StageRow, error) {
	logger := zerolog.Ctx(ctx)

	tokens := []string{spec.Raw}
	if spec.Kind == domain.DateRange {
		tokens = dates.Months(spec)
	}

	rows := make([]store.StageRow, 0)
	for _, tok := range tokens {
		query := fmt.Sprintf(`
		SELECT
			`+"`Date`"+`,
			AA_client_Initialization,
			OTP_Based_Sign_in_Sign_up,
			View_Consent_Details,
			Discovery,
			Linking,
			Rejected_Consent_Requests,
			Approved_Consent_Requests,
			FIP_Rejected_Consent_Artefacts,
			FIP_Accepted_Consent_Artefacts,
			Data_Fetch_Success,
			Data_Fetch_Not_Attempted
		FROM dfs.`+"`%[1]s/%[2]s/uf-stages-user-funnel-%[2]s.csv`"+`
		WHERE Entity_ID = ?`, w.base, tok)

		scanned, err := w.scanStageRows(ctx, query, entity)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", tok).Msg("stage counts query failed; treating as empty")
			continue
		}
		rows = append(rows, scanned...)
	}

	if spec.Kind == domain.DateRange {
		rows = filterStageRows(ctx, rows, spec)
	}
	return rows, nil
}

func (w *warehouseStore) scanStageRows(ctx context.Context, query, entity string) ([]store.StageRow, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := w.db.QueryContext(ctx, query, entity)
	if err != nil {
		return nil, fmt.Errorf("stage query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close stage query rows")
		}
	}(rows)

	var out []store.StageRow
	for rows.Next() {
		var (
			date string
			cols [11]sql.NullFloat64
		)
		dest := make([]interface{}, 0, 12)
		dest = append(dest, &date)
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, store.StageRow{
			Date:                  date,
			ClientInitialization:  asInt(cols[0]),
			OTPSignIn:             asInt(cols[1]),
			ViewConsentDetails:    asInt(cols[2]),
			Discovery:             asInt(cols[3]),
			Linking:               asInt(cols[4]),
			RejectedConsents:      asInt(cols[5]),
			ApprovedConsents:      asInt(cols[6]),
			FIPRejectedArtefacts:  asInt(cols[7]),
			FIPAcceptedArtefacts:  asInt(cols[8]),
			DataFetchSuccess:      asInt(cols[9]),
			DataFetchNotAttempted: asInt(cols[10]),
		})
	}
	return out, rows.Err()
}

func filterStageRows(ctx context.Context, rows []store.StageRow, spec domain.DateSpec) []store.StageRow {
	logger := zerolog.Ctx(ctx)
	out := make([]store.StageRow, 0, len(rows))
	for _, r := range rows {
		day, err := time.Parse(rowDateLayout, r.Date)
		if err != nil {
			logger.Warn().Str("date", r.Date).Msg("skipping stage row with unparseable date")
			continue
		}
		if day.Before(spec.Start) || day.After(spec.End) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// OtpCounts loads the pre-summed OTP outcome rows, one per covered day.
func (w *warehouseStore) OtpCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.OtpRow, error) {
	logger := zerolog.Ctx(ctx)

	var out []store.OtpRow
	for _, tok := range dayTokens(spec) {
		query := fmt.Sprintf(`
		SELECT
			SUM(CAST(Correct_OTP_Entered AS DOUBLE)) AS Total_Correct_OTP_Entered,
			SUM(CAST(Incorrect_OTP_Entered AS DOUBLE)) AS Total_Incorrect_OTP_Entered,
			SUM(CAST(OTP_Not_Entered AS DOUBLE)) AS Total_OTP_Not_Entered
		FROM dfs.`+"`%[1]s/%[2]s/otp-summary-user-funnel-%[2]s.csv`"+`
		WHERE entity_id = ?`, w.base, tok)

		var correct, incorrect, notEntered sql.NullFloat64
		err := w.db.QueryRowContext(ctx, query, entity).Scan(&correct, &incorrect, &notEntered)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", tok).Msg("otp counts query failed; treating as empty")
			continue
		}
		out = append(out, store.OtpRow{
			Correct:    asInt(correct),
			Incorrect:  asInt(incorrect),
			NotEntered: asInt(notEntered),
		})
	}
	return out, nil
}

// DiscoveryCounts loads the pre-summed discovery outcome rows, one per
// covered day. Source cells are legitimately empty for categories with no
// occurrences; NULLIF turns them into NULLs, which scan as zero.
func (w *warehouseStore) DiscoveryCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.DiscoveryRow, error) {
	logger := zerolog.Ctx(ctx)

	var out []store.DiscoveryRow
	for _, tok := range dayTokens(spec) {
		query := fmt.Sprintf(`
		SELECT
			SUM(CAST(NULLIF(Account_Discovered,'') AS DOUBLE)) AS Account_Discovered,
			SUM(CAST(NULLIF(Account_not_Found,'') AS DOUBLE)) AS Account_not_Found,
			SUM(CAST(NULLIF(FIP_Not_Selected,'') AS DOUBLE)) AS FIP_Not_Selected,
			SUM(CAST(NULLIF(Failure,'') AS DOUBLE)) AS Failure,
			SUM(CAST(NULLIF(NO_STATUS,'') AS DOUBLE)) AS NO_STATUS
		FROM dfs.`+"`%[1]s/%[2]s/discovery-summary-user-funnel-%[2]s.csv`"+`
		WHERE entity_id = ?`, w.base, tok)

		var discovered, notFound, fipNotSelected, failure, noStatus sql.NullFloat64
		err := w.db.QueryRowContext(ctx, query, entity).Scan(&discovered, &notFound, &fipNotSelected, &failure, &noStatus)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", tok).Msg("discovery counts query failed; treating as empty")
			continue
		}
		out = append(out, store.DiscoveryRow{
			Discovered:     asInt(discovered),
			NotFound:       asInt(notFound),
			FIPNotSelected: asInt(fipNotSelected),
			Failure:        asInt(failure),
			NoStatus:       asInt(noStatus),
		})
	}
	return out, nil
}

// FetchStatusCounts loads the grouped fetch-status counts, one group result
// per covered day. Category keys repeat across days; the aggregator re-groups
// them.
func (w *warehouseStore) FetchStatusCounts(ctx context.Context, entity string, spec domain.DateSpec) ([]store.FetchStatusRow, error) {
	logger := zerolog.Ctx(ctx)

	var out []store.FetchStatusRow
	for _, tok := range dayTokens(spec) {
		query := fmt.Sprintf(`
		SELECT fetch_status, COUNT(fetch_status) AS status_count
		FROM dfs.`+"`%[1]s/%[2]s/user-funnel-%[2]s.csv`"+`
		WHERE entity_id = ?
			AND fetch_status IN (?, ?, ?)
			AND fetch_status IS NOT NULL AND fetch_status <> ''
		GROUP BY fetch_status`, w.base, tok)

		rows, err := w.db.QueryContext(ctx, query, entity,
			domain.FetchStatusNotAttempted, domain.FetchStatusFailed, domain.FetchStatusSuccess)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", tok).Msg("fetch status query failed; treating as empty")
			continue
		}
		scanned, err := scanFetchStatusRows(rows)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", tok).Msg("fetch status scan failed; treating as empty")
			continue
		}
		out = append(out, scanned...)
	}
	return out, nil
}

func scanFetchStatusRows(rows *sql.Rows) ([]store.FetchStatusRow, error) {
	defer rows.Close()

	var out []store.FetchStatusRow
	for rows.Next() {
		var (
			status string
			count  sql.NullInt64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out = append(out, store.FetchStatusRow{Status: status, Count: int(count.Int64)})
	}
	return out, rows.Err()
}

// dayTokens resolves the partition tokens for the per-day datasets. Single
// day and month specs name one dataset directly; a range expands to its days.
func dayTokens(spec domain.DateSpec) []string {
	if spec.Kind == domain.DateRange {
		return dates.Days(spec)
	}
	return []string{spec.Raw}
}

func asInt(v sql.NullFloat64) int {
	if !v.Valid {
		return 0
	}
	return int(v.Float64)
}
