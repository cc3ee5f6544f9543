package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
	"github.com/de-tools/consent-funnel/pkg/services/dates"
)

var stageCols = []string{
	"Date",
	"AA_client_Initialization",
	"OTP_Based_Sign_in_Sign_up",
	"View_Consent_Details",
	"Discovery",
	"Linking",
	"Rejected_Consent_Requests",
	"Approved_Consent_Requests",
	"FIP_Rejected_Consent_Artefacts",
	"FIP_Accepted_Consent_Artefacts",
	"Data_Fetch_Success",
	"Data_Fetch_Not_Attempted",
}

func setupStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db, Settings{BasePath: "/data/user-funnel"})
	require.NoError(t, err)
	return s, mock
}

// dataset matches the partition-specific file name inside the query text.
func dataset(prefix, tok string) string {
	return regexp.QuoteMeta(fmt.Sprintf("%s-%s.csv", prefix, tok))
}

func TestNewStore(t *testing.T) {
	t.Run("nil db", func(t *testing.T) {
		_, err := NewStore(nil, Settings{BasePath: "/data"})
		assert.Error(t, err)
	})

	t.Run("missing base path", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		_, err = NewStore(db, Settings{})
		assert.Error(t, err)
	})
}

func TestStageCounts_SingleDay(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("05_03_2024")
	require.NoError(t, err)

	mock.ExpectQuery(dataset("uf-stages-user-funnel", "05_03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(stageCols).
			AddRow("05-03-2024", 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110))

	rows, err := s.StageCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].ClientInitialization)
	assert.Equal(t, 110, rows[0].DataFetchNotAttempted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageCounts_NullCellsScanAsZero(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("05_03_2024")
	require.NoError(t, err)

	mock.ExpectQuery(dataset("uf-stages-user-funnel", "05_03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(stageCols).
			AddRow("05-03-2024", nil, 20, nil, nil, nil, nil, nil, nil, nil, nil, nil))

	rows, err := s.StageCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ClientInitialization)
	assert.Equal(t, 20, rows[0].OTPSignIn)
}

func TestStageCounts_RangeFiltersToRequestedInterval(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("28_02_2024 -> 02_03_2024")
	require.NoError(t, err)

	// Two covering months are queried; rows outside the interval are dropped.
	mock.ExpectQuery(dataset("uf-stages-user-funnel", "*02_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(stageCols).
			AddRow("27-02-2024", 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0).
			AddRow("28-02-2024", 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0).
			AddRow("29-02-2024", 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))
	mock.ExpectQuery(dataset("uf-stages-user-funnel", "*03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(stageCols).
			AddRow("01-03-2024", 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0).
			AddRow("03-03-2024", 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))

	rows, err := s.StageCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "28-02-2024", rows[0].Date)
	assert.Equal(t, "29-02-2024", rows[1].Date)
	assert.Equal(t, "01-03-2024", rows[2].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageCounts_TransportFailureYieldsEmptyResult(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("05_03_2024")
	require.NoError(t, err)

	mock.ExpectQuery(dataset("uf-stages-user-funnel", "05_03_2024")).
		WithArgs("fiu-one").
		WillReturnError(fmt.Errorf("connection refused"))

	rows, err := s.StageCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOtpCounts_RangeQueriesEachDay(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("01_03_2024 -> 03_03_2024")
	require.NoError(t, err)

	cols := []string{"Total_Correct_OTP_Entered", "Total_Incorrect_OTP_Entered", "Total_OTP_Not_Entered"}
	mock.ExpectQuery(dataset("otp-summary-user-funnel", "01_03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1.0, 2.0, 3.0))
	// Day two is unreachable; it contributes nothing.
	mock.ExpectQuery(dataset("otp-summary-user-funnel", "02_03_2024")).
		WithArgs("fiu-one").
		WillReturnError(fmt.Errorf("connection refused"))
	// SUM over an empty dataset comes back NULL.
	mock.ExpectQuery(dataset("otp-summary-user-funnel", "03_03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(nil, nil, nil))

	rows, err := s.OtpCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Incorrect)
	assert.Equal(t, 0, rows[1].Incorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscoveryCounts_SingleDay(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("05_03_2024")
	require.NoError(t, err)

	cols := []string{"Account_Discovered", "Account_not_Found", "FIP_Not_Selected", "Failure", "NO_STATUS"}
	mock.ExpectQuery(dataset("discovery-summary-user-funnel", "05_03_2024")).
		WithArgs("fiu-one").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(350.0, 600.0, nil, 150.0, 200.0))

	rows, err := s.DiscoveryCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 350, rows[0].Discovered)
	assert.Equal(t, 0, rows[0].FIPNotSelected)
	assert.Equal(t, 200, rows[0].NoStatus)
}

func TestFetchStatusCounts_GroupedPerDay(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("01_03_2024 -> 02_03_2024")
	require.NoError(t, err)

	cols := []string{"fetch_status", "status_count"}
	mock.ExpectQuery(dataset("user-funnel", "01_03_2024")).
		WithArgs("fiu-one", domain.FetchStatusNotAttempted, domain.FetchStatusFailed, domain.FetchStatusSuccess).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(domain.FetchStatusSuccess, 10).
			AddRow(domain.FetchStatusFailed, 2))
	mock.ExpectQuery(dataset("user-funnel", "02_03_2024")).
		WithArgs("fiu-one", domain.FetchStatusNotAttempted, domain.FetchStatusFailed, domain.FetchStatusSuccess).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(domain.FetchStatusSuccess, 5).
			AddRow(domain.FetchStatusNotAttempted, 1))

	rows, err := s.FetchStatusCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, domain.FetchStatusSuccess, rows[0].Status)
	assert.Equal(t, 10, rows[0].Count)
	assert.Equal(t, domain.FetchStatusNotAttempted, rows[3].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchStatusCounts_MonthSpecUsesWildcardDataset(t *testing.T) {
	s, mock := setupStore(t)
	spec, err := dates.Parse("*03_2024")
	require.NoError(t, err)

	mock.ExpectQuery(dataset("user-funnel", "*03_2024")).
		WithArgs("fiu-one", domain.FetchStatusNotAttempted, domain.FetchStatusFailed, domain.FetchStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"fetch_status", "status_count"}).
			AddRow(domain.FetchStatusSuccess, 7))

	rows, err := s.FetchStatusCounts(context.Background(), "fiu-one", spec)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
