package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/models"
	"campwatch/internal/notify"
	"campwatch/internal/parks"
	"campwatch/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingSMSSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSMSSender) Send(ctx context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, body)
	return nil
}

type recordingEmailSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingEmailSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, body)
	return nil
}

func (r *recordingEmailSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// availabilityServer serves the availability feed from a mutable per-site code
// slice and 404s everything else so metadata lookups degrade gracefully.
type availabilityServer struct {
	mu    sync.Mutex
	codes []int
	srv   *httptest.Server
}

func newAvailabilityServer(t *testing.T, codes []int) *availabilityServer {
	t.Helper()
	as := &availabilityServer{codes: codes}
	as.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/availability/map") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		as.mu.Lock()
		defer as.mu.Unlock()
		var days []string
		for _, code := range as.codes {
			days = append(days, fmt.Sprintf(`{"availability":%d}`, code))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"resourceAvailabilities":{"101":[%s]}}`, strings.Join(days, ","))
	}))
	t.Cleanup(as.srv.Close)
	return as
}

func (as *availabilityServer) setCodes(codes []int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.codes = codes
}

func setupScannerTest(t *testing.T, upstream string) (*Scanner, *gorm.DB, *recordingEmailSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SystemSetting{},
		&models.User{},
		&models.Contact{},
		&models.Alert{},
		&models.NotificationLog{},
	))

	settingsManager := config.NewSystemSettingsManager()
	require.NoError(t, settingsManager.Initialize(db))
	require.NoError(t, settingsManager.UpdateSettings(map[string]any{
		"parks_base_url": upstream,
	}))

	clientManager := httpclient.NewHTTPClientManager()
	parksClient := parks.NewClient(settingsManager, clientManager, store.NewMemoryStore())

	email := &recordingEmailSender{}
	dispatcher := notify.NewDispatcher(db, settingsManager, &recordingSMSSender{}, email)

	return NewScanner(db, settingsManager, parksClient, dispatcher), db, email
}

func seedScannerAlert(t *testing.T, db *gorm.DB, start, end time.Time) *models.Alert {
	t.Helper()

	user := models.User{Username: "camper"}
	require.NoError(t, user.SetPassword("secret"))
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Contact{
		UserID:      user.ID,
		ChannelType: models.ChannelEmail,
		Value:       "camper@example.com",
		Verified:    true,
	}).Error)

	alert := models.Alert{
		UserID:       user.ID,
		CampgroundID: 777,
		MapID:        888,
		StartDate:    start,
		EndDate:      end,
		MinNights:    2,
		Status:       models.AlertStatusActive,
	}
	require.NoError(t, db.Create(&alert).Error)
	return &alert
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestScannerSuppressesInitialPassButPersistsSnapshot(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{0, 0, 0, 1, 1, 1, 1})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	alert := seedScannerAlert(t, db, today(), today().AddDate(0, 0, 5))

	s.scanAll()

	assert.Zero(t, email.count(), "startup pass must not notify")
	assert.False(t, s.firstRun, "flag clears after the pass completes")

	var stored models.Alert
	require.NoError(t, db.First(&stored, alert.ID).Error)
	require.NotNil(t, stored.LastScannedAt)

	snapshot, err := models.DecodeSnapshot(stored.LastFound)
	require.NoError(t, err)
	assert.Len(t, snapshot["101"], 1, "findings recorded even while suppressed")
}

func TestScannerNotifiesOnNewFindingsOnly(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{1, 1, 1, 1, 1, 1, 1})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	seedScannerAlert(t, db, today(), today().AddDate(0, 0, 5))

	// Startup pass: nothing available.
	s.scanAll()
	assert.Zero(t, email.count())

	// Second pass with identical data stays quiet.
	s.scanAll()
	assert.Zero(t, email.count())

	// A stretch opens up; exactly one notification goes out.
	upstream.setCodes([]int{0, 0, 0, 1, 1, 1, 1})
	s.scanAll()
	assert.Equal(t, 1, email.count())

	// Re-observing the same stretch stays quiet.
	s.scanAll()
	assert.Equal(t, 1, email.count())
}

func TestScannerTreatsCorruptSnapshotAsFirstScan(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{0, 0, 0, 1, 1, 1, 1})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	alert := seedScannerAlert(t, db, today(), today().AddDate(0, 0, 5))

	require.NoError(t, db.Model(alert).UpdateColumn("last_found", []byte("not json")).Error)

	s.firstRun = false
	s.scanAll()

	assert.Zero(t, email.count(), "corrupt snapshot degrades to first-scan suppression")

	var stored models.Alert
	require.NoError(t, db.First(&stored, alert.ID).Error)
	_, err := models.DecodeSnapshot(stored.LastFound)
	assert.NoError(t, err, "snapshot replaced with a valid one")
}

func TestScannerSkipsAlertsEntirelyInThePast(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{0, 0, 0})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	alert := seedScannerAlert(t, db, today().AddDate(0, 0, -30), today().AddDate(0, 0, -20))

	s.firstRun = false
	s.scanAll()

	assert.Zero(t, email.count())

	var stored models.Alert
	require.NoError(t, db.First(&stored, alert.ID).Error)
	assert.Nil(t, stored.LastScannedAt, "past alerts are not scanned at all")
}

func TestScannerIgnoresPausedAlerts(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{0, 0, 0, 1, 1, 1, 1})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	alert := seedScannerAlert(t, db, today(), today().AddDate(0, 0, 5))
	require.NoError(t, db.Model(alert).Update("status", models.AlertStatusPaused).Error)

	s.firstRun = false
	s.scanAll()

	assert.Zero(t, email.count())

	var stored models.Alert
	require.NoError(t, db.First(&stored, alert.ID).Error)
	assert.Nil(t, stored.LastScannedAt)
}

func TestScannerPreservesSnapshotOnFetchFailure(t *testing.T) {
	upstream := newAvailabilityServer(t, []int{0, 0, 0, 1, 1, 1, 1})
	s, db, email := setupScannerTest(t, upstream.srv.URL)
	alert := seedScannerAlert(t, db, today(), today().AddDate(0, 0, 5))

	s.scanAll()
	var afterFirst models.Alert
	require.NoError(t, db.First(&afterFirst, alert.ID).Error)

	// Upstream goes away; the stored snapshot must survive the failed pass.
	upstream.srv.Close()
	s.scanAll()

	var afterFailure models.Alert
	require.NoError(t, db.First(&afterFailure, alert.ID).Error)
	assert.Equal(t, []byte(afterFirst.LastFound), []byte(afterFailure.LastFound))
	assert.Zero(t, email.count())
}
