package notifications

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
)

// WhatsAppChannel notifies volunteers about escalated appointments over
// WhatsApp. When a template name is configured in settings it is used,
// otherwise a plain text message is sent.
type WhatsAppChannel struct {
	sender   *WhatsAppCloudSender
	settings providers.SettingsReader
	logger   zerolog.Logger
}

// NewWhatsAppChannel creates a WhatsApp notification channel
func NewWhatsAppChannel(sender *WhatsAppCloudSender, settings providers.SettingsReader, logger zerolog.Logger) providers.NotificationChannel {
	return &WhatsAppChannel{
		sender:   sender,
		settings: settings,
		logger:   logger,
	}
}

// Notify sends the escalation message to the volunteer's phone.
func (c *WhatsAppChannel) Notify(ctx context.Context, volunteer *entities.Volunteer, appointment *entities.Appointment) error {
	snapshot, err := c.settings.Snapshot(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("settings unavailable, sending plain text notification")
	}

	templateName := snapshot.Get(entities.SettingWhatsAppTemplate, "")
	locale := snapshot.Get(entities.SettingWhatsAppDefLocale, "en")

	var messageID string
	if templateName != "" {
		messageID, err = c.sender.SendTemplate(volunteer.Phone, templateName, locale, []string{
			volunteer.Name,
			appointment.PatientName,
			appointment.AppointmentDatetime.Format("Mon, 2 Jan 2006 15:04"),
			appointment.Location,
		})
	} else {
		body := fmt.Sprintf(
			"Hello %s, patient %s could not be reached about their %s appointment on %s in %s. Please follow up. Patient phone: %s",
			volunteer.Name,
			appointment.PatientName,
			appointment.ServiceType,
			appointment.AppointmentDatetime.Format("Mon, 2 Jan 2006 15:04"),
			appointment.Location,
			appointment.PatientPhone,
		)
		messageID, err = c.sender.SendText(volunteer.Phone, body)
	}

	if err != nil {
		return fmt.Errorf("failed to notify volunteer %s: %w", volunteer.ID, err)
	}

	c.logger.Info().
		Str("volunteer_id", volunteer.ID).
		Str("appointment_id", appointment.ID).
		Str("message_id", messageID).
		Msg("Escalation notification sent")
	return nil
}

// LogChannel is a no-op notification channel that only logs, used when
// WhatsApp credentials are not configured.
type LogChannel struct {
	logger zerolog.Logger
}

// NewLogChannel creates a log-only notification channel
func NewLogChannel(logger zerolog.Logger) providers.NotificationChannel {
	return &LogChannel{logger: logger}
}

// Notify logs the escalation instead of sending anything.
func (c *LogChannel) Notify(ctx context.Context, volunteer *entities.Volunteer, appointment *entities.Appointment) error {
	c.logger.Info().
		Str("volunteer_id", volunteer.ID).
		Str("volunteer_phone", volunteer.Phone).
		Str("appointment_id", appointment.ID).
		Msg("Escalation notification (log only)")
	return nil
}
