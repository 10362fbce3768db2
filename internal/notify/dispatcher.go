package notify

import (
	"context"
	"fmt"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/models"
	"campwatch/internal/parks"
	"campwatch/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dispatcher formats notification messages and fans them out to every contact
// channel of an alert's owner under per-channel policy.
type Dispatcher struct {
	db              *gorm.DB
	settingsManager *config.SystemSettingsManager
	sms             SMSSender
	email           EmailSender
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(db *gorm.DB, settingsManager *config.SystemSettingsManager, sms SMSSender, email EmailSender) *Dispatcher {
	return &Dispatcher{
		db:              db,
		settingsManager: settingsManager,
		sms:             sms,
		email:           email,
	}
}

// Dispatch sends one notification per new finding to each of the owner's
// contacts. Channel failures are logged and isolated; they never abort the
// remaining contacts or findings. Name maps are best-effort and may be empty.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	alert *models.Alert,
	findings []models.SiteFinding,
	campgroundName string,
	siteNames map[string]string,
) error {
	if len(findings) == 0 {
		return nil
	}

	var contacts []models.Contact
	if err := d.db.Where("user_id = ?", alert.UserID).Find(&contacts).Error; err != nil {
		return fmt.Errorf("failed to load contacts for user %d: %w", alert.UserID, err)
	}
	if len(contacts) == 0 {
		logrus.WithField("alert_id", alert.ID).Info("No contacts registered, nothing to dispatch")
		return nil
	}

	if campgroundName == "" {
		campgroundName = "Campground"
	}

	settings := d.settingsManager.GetSettings()
	subject := fmt.Sprintf("Campsite Alert: %s Available!", campgroundName)

	for _, sf := range findings {
		siteLabel := sf.SiteID
		if name, ok := siteNames[sf.SiteID]; ok && name != "" {
			siteLabel = name
		}

		link := parks.BookingLink(settings.ParksBaseURL, alert.CampgroundID, alert.MapID, sf.Finding)
		message := fmt.Sprintf(
			"Campsite Found! %s site %s, %s - %s for %d nights. %s",
			campgroundName, siteLabel,
			sf.Finding.Start.Format("Mon Jan 02"),
			sf.Finding.End().Format("Jan 02"),
			sf.Finding.Nights, link,
		)

		logrus.WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"site_id":  sf.SiteID,
			"finding":  sf.Finding.Key(),
		}).Info("Dispatching notification")

		for i := range contacts {
			contact := &contacts[i]
			switch contact.ChannelType {
			case models.ChannelSMS:
				d.dispatchSMS(ctx, alert, contact, message)
			case models.ChannelEmail:
				d.dispatchEmail(ctx, alert, contact, subject, message)
			default:
				logrus.WithFields(logrus.Fields{
					"contact_id":   contact.ID,
					"channel_type": contact.ChannelType,
				}).Warn("Skipping contact with unknown channel type")
			}
		}
	}
	return nil
}

// dispatchSMS applies the verification requirement and the optional global cap
// before sending. The per-contact counter is incremented and persisted only on
// a confirmed send.
func (d *Dispatcher) dispatchSMS(ctx context.Context, alert *models.Alert, contact *models.Contact, message string) {
	if !contact.Verified {
		logrus.WithField("destination", utils.MaskSecret(contact.Value)).Warn("Skipping SMS to unverified contact")
		return
	}

	settings := d.settingsManager.GetSettings()
	if settings.SMSLimitEnabled && contact.SMSCount >= settings.SMSLimitMax {
		logrus.WithFields(logrus.Fields{
			"destination": utils.MaskSecret(contact.Value),
			"sms_count":   contact.SMSCount,
			"sms_max":     settings.SMSLimitMax,
		}).Warn("SMS cap reached, skipping contact")
		return
	}

	err := d.sms.Send(ctx, contact.Value, message)
	d.logNotification(alert.ID, models.ChannelSMS, contact.Value, message, err)
	if err != nil {
		logrus.WithError(err).WithField("contact_id", contact.ID).Error("SMS send failed")
		return
	}

	// Confirmed send: commit the counter increment.
	if dbErr := d.db.Model(&models.Contact{}).
		Where("id = ?", contact.ID).
		UpdateColumn("sms_count", gorm.Expr("sms_count + 1")).Error; dbErr != nil {
		logrus.WithError(dbErr).WithField("contact_id", contact.ID).Error("Failed to persist SMS counter")
		return
	}
	contact.SMSCount++
}

func (d *Dispatcher) dispatchEmail(ctx context.Context, alert *models.Alert, contact *models.Contact, subject, message string) {
	err := d.email.Send(ctx, contact.Value, subject, message)
	d.logNotification(alert.ID, models.ChannelEmail, contact.Value, message, err)
	if err != nil {
		logrus.WithError(err).WithField("contact_id", contact.ID).Error("Email send failed")
	}
}

// logNotification records one dispatch attempt in the audit trail. Failures to
// write the log never affect delivery.
func (d *Dispatcher) logNotification(alertID uint, channel, destination, message string, sendErr error) {
	entry := models.NotificationLog{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		AlertID:     alertID,
		ChannelType: channel,
		Destination: destination,
		Message:     message,
		IsSuccess:   sendErr == nil,
	}
	if sendErr != nil {
		entry.ErrorMessage = utils.TruncateString(sendErr.Error(), 500)
	}
	if err := d.db.Create(&entry).Error; err != nil {
		logrus.WithError(err).Warn("Failed to write notification log entry")
	}
}
