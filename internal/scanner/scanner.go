// Package scanner implements the periodic availability scan: window
// computation, run detection, diffing against the previous snapshot, and
// notification suppression.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/models"
	"campwatch/internal/notify"
	"campwatch/internal/parks"
	"campwatch/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scanner is the background service that walks all active alerts on a fixed
// interval and hands fresh findings to the dispatcher.
type Scanner struct {
	db              *gorm.DB
	settingsManager *config.SystemSettingsManager
	parks           *parks.Client
	dispatcher      *notify.Dispatcher

	stopChan chan struct{}
	wg       sync.WaitGroup

	// firstRun suppresses notifications for the entire first pass after
	// startup so a restart never replays findings users already saw.
	firstRun bool
}

// NewScanner creates the scan service.
func NewScanner(
	db *gorm.DB,
	settingsManager *config.SystemSettingsManager,
	parksClient *parks.Client,
	dispatcher *notify.Dispatcher,
) *Scanner {
	return &Scanner{
		db:              db,
		settingsManager: settingsManager,
		parks:           parksClient,
		dispatcher:      dispatcher,
		stopChan:        make(chan struct{}),
		firstRun:        true,
	}
}

// Start launches the background scan loop.
func (s *Scanner) Start() {
	s.wg.Add(1)
	go s.runLoop()
	logrus.Debug("Scanner started")
}

// Stop gracefully stops the scan loop, waiting up to the context deadline for
// an in-flight pass to finish.
func (s *Scanner) Stop(ctx context.Context) {
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Debug("Scanner stopped gracefully")
	case <-ctx.Done():
		logrus.Warn("Scanner stop timed out")
	}
}

func (s *Scanner) runLoop() {
	defer s.wg.Done()

	s.scanAll()

	interval := s.scanInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.scanAll()
			// Pick up interval changes without a restart.
			if next := s.scanInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				logrus.WithField("interval", interval).Info("Scan interval updated")
			}
		}
	}
}

func (s *Scanner) scanInterval() time.Duration {
	minutes := s.settingsManager.GetSettings().ScanIntervalMinutes
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// scanAll runs one pass over every active alert. Alerts are isolated from each
// other: a panic or error in one never skips the rest. The startup suppression
// flag clears only after a pass has completed.
func (s *Scanner) scanAll() {
	var alerts []models.Alert
	if err := s.db.Where("status = ?", models.AlertStatusActive).Find(&alerts).Error; err != nil {
		logrus.WithError(err).Error("Failed to load active alerts")
		return
	}

	logrus.WithField("count", len(alerts)).Debug("Starting scan pass")
	for i := range alerts {
		s.safeScan(&alerts[i])
	}

	if s.firstRun {
		s.firstRun = false
		logrus.Info("Initial scan pass complete, notifications enabled")
	}
}

func (s *Scanner) safeScan(alert *models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"alert_id": alert.ID,
				"panic":    r,
			}).Error("Panic while scanning alert")
		}
	}()

	if err := s.scanAlert(alert); err != nil {
		logrus.WithError(err).WithField("alert_id", alert.ID).Error("Scan failed")
	}
}

// scanAlert runs the full pipeline for one alert: window, fetch, detect, diff,
// persist, suppress, dispatch. A fetch failure leaves the stored snapshot
// untouched so the next successful scan diffs against real prior state.
func (s *Scanner) scanAlert(alert *models.Alert) error {
	settings := s.settingsManager.GetSettings()

	window, ok := ScanWindow(alert, time.Now(), settings.BookingHorizonDays)
	if !ok {
		logrus.WithField("alert_id", alert.ID).Debug("Alert window is entirely in the past, skipping")
		return nil
	}

	timeout := time.Duration(settings.ScanTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	codes, err := s.parks.FetchDailyAvailability(ctx, alert.MapID, window.Start, window.End)
	if err != nil {
		return fmt.Errorf("availability fetch failed: %w", err)
	}

	current := DetectRuns(codes, window.Start, alert.EndDate, alert.MinNights, settings.AvailableCode, alert.SiteFilter())

	var previous models.Snapshot
	hasPrevious := false
	if len(alert.LastFound) > 0 {
		previous, err = models.DecodeSnapshot(alert.LastFound)
		if err != nil {
			logrus.WithError(err).WithField("alert_id", alert.ID).Warn("Discarding corrupt snapshot")
			previous = nil
		} else {
			hasPrevious = true
		}
	}

	fresh := Diff(current, previous)

	// Persist before dispatch: a crash mid-dispatch must not cause the same
	// finding to be announced twice on the next pass.
	if err := s.persistScanResult(alert, current); err != nil {
		return fmt.Errorf("failed to persist scan result: %w", err)
	}

	switch {
	case len(fresh) == 0:
		logrus.WithField("alert_id", alert.ID).Debug("No new findings")
		return nil
	case s.firstRun:
		logrus.WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"findings": len(fresh),
		}).Info("Suppressing findings from initial pass after startup")
		return nil
	case !hasPrevious:
		logrus.WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"findings": len(fresh),
		}).Info("Suppressing findings from first scan of alert")
		return nil
	}

	campName := s.parks.CampgroundName(ctx, alert.CampgroundID)
	siteNames := s.parks.SiteNames(ctx, alert.CampgroundID)
	return s.dispatcher.Dispatch(ctx, alert, fresh, campName, siteNames)
}

func (s *Scanner) persistScanResult(alert *models.Alert, current models.Snapshot) error {
	encoded, err := current.Encode()
	if err != nil {
		return err
	}

	now := time.Now()
	update := func() error {
		return s.db.Model(&models.Alert{}).
			Where("id = ?", alert.ID).
			UpdateColumns(map[string]any{
				"last_found":      datatypes.JSON(encoded),
				"last_scanned_at": now,
			}).Error
	}
	err = update()
	if err != nil && utils.IsTransientDBError(err) {
		// One retry covers the common SQLite busy window.
		time.Sleep(100 * time.Millisecond)
		err = update()
	}
	if err != nil {
		return err
	}
	alert.LastFound = datatypes.JSON(encoded)
	alert.LastScannedAt = &now
	return nil
}
