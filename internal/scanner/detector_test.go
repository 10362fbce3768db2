package scanner

import (
	"testing"
	"time"

	"campwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DateLayout, value)
	require.NoError(t, err)
	return parsed
}

func TestDetectRunsFindsMaximalStretches(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	codes := map[string][]int{
		"site-1": {0, 0, 0, 1, 0, 0, 1, 1, 0, 0},
	}

	findings := DetectRuns(codes, windowStart, date(t, "2025-07-10"), 2, 0, nil)

	require.Len(t, findings["site-1"], 3)
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-01"), Nights: 3}))
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-05"), Nights: 2}))
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-09"), Nights: 2}))
}

func TestDetectRunsDiscardsShortRuns(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	codes := map[string][]int{
		"site-1": {0, 1, 0, 1, 0},
	}

	findings := DetectRuns(codes, windowStart, date(t, "2025-07-05"), 2, 0, nil)
	assert.Empty(t, findings)
}

func TestDetectRunsArrivalCutoff(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	latestArrival := date(t, "2025-07-03")

	// A run opening on the arrival cutoff may extend past it.
	codes := map[string][]int{
		"site-1": {1, 1, 0, 0, 0},
	}
	findings := DetectRuns(codes, windowStart, latestArrival, 2, 0, nil)
	require.Len(t, findings["site-1"], 1)
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-03"), Nights: 3}))

	// A run that would only start past the cutoff is never opened.
	codes = map[string][]int{
		"site-1": {1, 1, 1, 0, 0},
	}
	findings = DetectRuns(codes, windowStart, latestArrival, 2, 0, nil)
	assert.Empty(t, findings)
}

func TestDetectRunsClosesRunAtEndOfWindow(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	codes := map[string][]int{
		"site-1": {1, 0, 0},
	}

	findings := DetectRuns(codes, windowStart, date(t, "2025-07-03"), 2, 0, nil)
	require.Len(t, findings["site-1"], 1)
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-02"), Nights: 2}))
}

func TestDetectRunsRespectsSiteFilter(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	codes := map[string][]int{
		"site-1": {0, 0},
		"site-2": {0, 0},
	}

	filter := map[string]struct{}{"site-2": {}}
	findings := DetectRuns(codes, windowStart, date(t, "2025-07-02"), 2, 0, filter)

	assert.Empty(t, findings["site-1"])
	assert.Len(t, findings["site-2"], 1)
}

func TestDetectRunsCustomAvailableCode(t *testing.T) {
	windowStart := date(t, "2025-07-01")
	codes := map[string][]int{
		"site-1": {4, 4, 0, 0},
	}

	findings := DetectRuns(codes, windowStart, date(t, "2025-07-04"), 2, 4, nil)
	require.Len(t, findings["site-1"], 1)
	assert.True(t, findings.Contains("site-1", models.Finding{Start: date(t, "2025-07-01"), Nights: 2}))
}

func TestScanWindowClampsToTodayAndHorizon(t *testing.T) {
	now := time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC)

	alert := &models.Alert{
		StartDate: date(t, "2025-07-01"),
		EndDate:   date(t, "2025-07-20"),
		MinNights: 3,
	}

	window, ok := ScanWindow(alert, now, 150)
	require.True(t, ok)
	assert.True(t, window.Start.Equal(date(t, "2025-07-10")), "start clamps to today")
	assert.True(t, window.End.Equal(date(t, "2025-07-23")), "end extends by min nights")
}

func TestScanWindowCapsAtBookingHorizon(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	alert := &models.Alert{
		StartDate: date(t, "2025-11-01"),
		EndDate:   date(t, "2026-03-01"),
		MinNights: 2,
	}

	window, ok := ScanWindow(alert, now, 150)
	require.True(t, ok)
	assert.True(t, window.End.Equal(date(t, "2025-11-28")), "end capped at today+150d")
}

func TestScanWindowRejectsPastAlerts(t *testing.T) {
	now := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	alert := &models.Alert{
		StartDate: date(t, "2025-06-01"),
		EndDate:   date(t, "2025-06-30"),
		MinNights: 1,
	}

	_, ok := ScanWindow(alert, now, 150)
	assert.False(t, ok)
}
