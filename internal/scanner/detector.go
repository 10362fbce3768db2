package scanner

import (
	"time"

	"campwatch/internal/models"
)

// Window is the date range of one availability query.
type Window struct {
	Start time.Time
	End   time.Time
}

// ScanWindow computes the bounded query window for an alert. The end is
// extended by MinNights so a stretch starting exactly on the latest permissible
// arrival day is captured in full, and capped at the upstream booking horizon.
// ok is false when the alert's window lies entirely in the past.
func ScanWindow(alert *models.Alert, now time.Time, horizonDays int) (Window, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := alert.StartDate
	if today.After(start) {
		start = today
	}

	end := alert.EndDate.AddDate(0, 0, alert.MinNights)
	if horizon := today.AddDate(0, 0, horizonDays); end.After(horizon) {
		end = horizon
	}

	if start.After(alert.EndDate) {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

// DetectRuns extracts maximal consecutive-available stretches from per-site
// daily codes indexed from windowStart. A run may only begin on a calendar date
// no later than latestArrival, but an open run keeps extending and may close
// past that date. Runs shorter than minNights are discarded. When siteFilter is
// non-empty, sites outside it are skipped entirely.
func DetectRuns(
	codes map[string][]int,
	windowStart time.Time,
	latestArrival time.Time,
	minNights int,
	availableCode int,
	siteFilter map[string]struct{},
) models.Snapshot {
	findings := make(models.Snapshot)

	for siteID, days := range codes {
		if len(siteFilter) > 0 {
			if _, ok := siteFilter[siteID]; !ok {
				continue
			}
		}

		runLength := 0
		runStart := -1

		for i, code := range days {
			if code == availableCode {
				if runStart == -1 {
					// An available day past the latest arrival date cannot
					// start a new run, only extend one already open.
					if windowStart.AddDate(0, 0, i).After(latestArrival) {
						continue
					}
					runStart = i
				}
				runLength++
				continue
			}

			if runLength >= minNights {
				findings.Add(siteID, models.Finding{
					Start:  windowStart.AddDate(0, 0, runStart),
					Nights: runLength,
				})
			}
			runLength = 0
			runStart = -1
		}

		if runLength >= minNights {
			findings.Add(siteID, models.Finding{
				Start:  windowStart.AddDate(0, 0, runStart),
				Nights: runLength,
			})
		}
	}

	return findings
}
