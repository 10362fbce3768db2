package parks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/models"
	"campwatch/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestClient builds a client whose settings point at the given test server.
func newTestClient(t *testing.T, baseURL string) (*Client, error) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemSetting{}))

	settingsManager := config.NewSystemSettingsManager()
	require.NoError(t, settingsManager.Initialize(db))
	require.NoError(t, settingsManager.UpdateSettings(map[string]any{
		"parks_base_url": baseURL,
	}))

	return NewClient(settingsManager, httpclient.NewHTTPClientManager(), store.NewMemoryStore()), nil
}

func TestFetchDailyAvailabilityParsesCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/availability/map", r.URL.Path)
		assert.Equal(t, "888", r.URL.Query().Get("mapId"))
		assert.Equal(t, "true", r.URL.Query().Get("getDailyAvailability"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resourceAvailabilities":{
			"101":[{"availability":0},{"availability":0},{"availability":1}],
			"102":[{"availability":4},{},{"availability":0}]
		}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	codes, err := client.FetchDailyAvailability(context.Background(), 888, start, end)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1}, codes["101"])
	assert.Equal(t, []int{4, -1, 0}, codes["102"], "missing availability maps to -1")
}

func TestFetchDailyAvailabilityRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = client.FetchDailyAvailability(context.Background(), 888, start, start.AddDate(0, 0, 2))
	assert.ErrorContains(t, err, "unexpected status")
}

func TestFetchDailyAvailabilityRejectsMissingPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = client.FetchDailyAvailability(context.Background(), 888, start, start.AddDate(0, 0, 2))
	assert.ErrorContains(t, err, "resourceAvailabilities")
}

func TestCampgroundNameResolvesAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/api/resourcelocation/777", r.URL.Path)
		w.Write([]byte(`{"localizedValues":[{"fullName":"Rathtrevor Beach"}]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Rathtrevor Beach", client.CampgroundName(context.Background(), 777))
	assert.Equal(t, "Rathtrevor Beach", client.CampgroundName(context.Background(), 777))
	assert.Equal(t, 1, hits, "second lookup served from cache")
}

func TestCampgroundNameFallsBackToListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/resourcelocation" {
			w.Write([]byte(`[
				{"resourceLocationId":1,"localizedValues":[{"fullName":"Elsewhere"}]},
				{"resourceLocationId":777,"localizedValues":[{"fullName":"Rathtrevor Beach"}]}
			]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Rathtrevor Beach", client.CampgroundName(context.Background(), 777))
}

func TestCampgroundNameUnresolvedIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	assert.Empty(t, client.CampgroundName(context.Background(), 777))
}

func TestSiteNamesHandlesObjectAndArrayShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"101":{"localizedValues":[{"name":"Site 42"}]},"102":{"localizedValues":[{"name":"Site 43"}]}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := newTestClient(t, srv.URL)
	require.NoError(t, err)

	names := client.SiteNames(context.Background(), 777)
	assert.Equal(t, "Site 42", names["101"])
	assert.Equal(t, "Site 43", names["102"])

	srvArr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"resourceId":201,"localizedValues":[{"name":"Site 1"}]}]`))
	}))
	t.Cleanup(srvArr.Close)

	clientArr, err := newTestClient(t, srvArr.URL)
	require.NoError(t, err)

	namesArr := clientArr.SiteNames(context.Background(), 778)
	assert.Equal(t, "Site 1", namesArr["201"])
}

func TestBookingLink(t *testing.T) {
	f := models.Finding{Start: time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), Nights: 3}
	link := BookingLink("https://camping.bcparks.ca", 777, 888, f)
	assert.Equal(t,
		"https://camping.bcparks.ca/create-booking/results?resourceLocationId=777&mapId=888"+
			"&startDate=2025-07-04&endDate=2025-07-07&nights=3"+
			"&bookingCategoryId=0&equipmentId=-32768&subEquipmentId=-32768",
		link)
}
