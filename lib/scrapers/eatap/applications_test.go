package eatap

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"eatap-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestListApplications(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := serveFixture(t, "/applications", "testdata/applications.html")
	applications, err := client.ListApplications(context.Background(), ApplicationQuery{})
	require.NoError(t, err)

	require.Equal(t, []Application{
		{
			Id:                 "482",
			Applicant:          "AHMAD BIN ABDULLAH",
			ApplicationNumber:  "ATP2024000482",
			RegistrationNumber: "880101-10-5523",
			Category:           "Individual",
			Status:             "Approved",
			RowNumber:          1,
			Url:                "/applications/482/applicant",
		},
		{
			Id:                 "519",
			Applicant:          "SOLARTECH SDN BHD",
			ApplicationNumber:  "ATP2024000519",
			RegistrationNumber: "201901012345",
			Category:           "Company",
			Status:             "Pending Approval",
			RowNumber:          2,
			Url:                "/applications/519/applicant",
		},
		{
			Id:        "533",
			Applicant: "SITI AMINAH BINTI HASSAN",
			Status:    "Unknown",
			RowNumber: 3,
			Url:       "/applications/533/applicant",
		},
	}, applications)
}

func TestListApplicationsForwardsFilters(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	var gotQuery map[string][]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte("<html></html>"))
	}))

	_, err := client.ListApplications(context.Background(), ApplicationQuery{
		Keyword: "ahmad",
		CA:      "TNB",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"ahmad"}, gotQuery["keyword"])
	require.Equal(t, []string{"TNB"}, gotQuery["ca"])
	_, hasStatus := gotQuery["status"]
	require.False(t, hasStatus)
}

func TestGetApplicationDetail(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := serveFixture(t, "/applications/482/applicant", "testdata/application_detail.html")
	detail, err := client.GetApplicationDetail(context.Background(), "482")
	require.NoError(t, err)

	require.Equal(t, "ATP2024000482", detail.ApplicationNumber)
	require.Equal(t, map[string]string{"name": "AHMAD BIN ABDULLAH"}, detail.Consumer)
	require.Equal(t, []string{"Approved", "Payment Received"}, detail.StatusBadges)

	require.Equal(t, []Field{
		{Name: "premise_address", Value: "NO 12 JALAN MERANTI 3"},
		{Name: "meter_no", Value: "2201134455"},
		{Name: "phase", Value: "Three Phase"},
	}, detail.FormData.Entries())

	// the contact row in the same table has no equipment vocabulary
	// and must not be picked up
	require.Equal(t, []Equipment{
		{
			Type:       "Solar Panel",
			Technology: "Monocrystalline",
			Model:      "JKM550M-72HL4",
			Capacity:   "550 Wp",
			Quantity:   "22",
		},
		{
			Type:       "Inverter",
			Technology: "String",
			Model:      "SUN2000-10KTL",
			Capacity:   "10 kW",
			Quantity:   "1",
		},
	}, detail.Equipment)
}

func TestGetApplicationDetailIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := serveFixture(t, "/applications/482/applicant", "testdata/application_detail.html")

	first, err := client.GetApplicationDetail(context.Background(), "482")
	require.NoError(t, err)
	second, err := client.GetApplicationDetail(context.Background(), "482")
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(first, second, cmp.AllowUnexported(FormFields{})))

	firstJson, err := json.Marshal(first)
	require.NoError(t, err)
	secondJson, err := json.Marshal(second)
	require.NoError(t, err)
	require.JSONEq(t, string(firstJson), string(secondJson))
}

func TestGetApplicationDetailSparsePage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>nothing recognizable</p></body></html>"))
	}))

	detail, err := client.GetApplicationDetail(context.Background(), "482")
	require.NoError(t, err)

	require.Empty(t, detail.ApplicationNumber)
	require.NotNil(t, detail.Consumer)
	require.NotNil(t, detail.Equipment)
	require.NotNil(t, detail.StatusBadges)
}

func TestGetApplicationRaw(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	contents, err := os.ReadFile("testdata/application_detail.html")
	require.NoError(t, err)

	client := serveFixture(t, "/applications/482/applicant", "testdata/application_detail.html")
	html, err := client.GetApplicationRaw(context.Background(), "482")
	require.NoError(t, err)
	require.Equal(t, string(contents), html)
}
