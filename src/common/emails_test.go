package common

import (
	"errors"
	"etms/src/db"
	"etms/src/lib"
	"etms/src/models"
	"etms/src/types"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newEmailTestDB(t *testing.T) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&models.Event{},
		&models.Participant{},
		&models.Certificate{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizParticipant{},
		&models.QuizAnswer{},
	))
	db.NewDB(conn)

	NewSleeper(func(time.Duration) {})
	lib.NewBackoff(func(time.Duration) {})
	t.Cleanup(func() {
		NewSleeper(time.Sleep)
		lib.NewBackoff(time.Sleep)
		lib.NewMailSender(lib.SendMail)
	})
	return conn
}

func seedTicketBatch(t *testing.T, conn *gorm.DB, count int) *models.Event {
	event := &models.Event{
		Title:     "Tech Summit 2025",
		AliasName: "TECH",
		Date:      time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC),
		Status:    types.EVENT_ACTIVE,
	}
	require.NoError(t, conn.Create(event).Error)
	for i := 1; i <= count; i++ {
		p := &models.Participant{
			EventID:      event.ID,
			Name:         fmt.Sprintf("Person %d", i),
			Email:        fmt.Sprintf("person%d@example.com", i),
			TicketNumber: fmt.Sprintf("TECH-03-2025-%03d", i),
		}
		require.NoError(t, conn.Create(p).Error)
	}
	return event
}

func TestSendTicketEmailsAllDelivered(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 3)

	var recipients []string
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		recipients = append(recipients, input.To[0])
		return nil
	})

	report, err := SendTicketEmails(event.ID, "all", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Aborted)
	assert.Len(t, recipients, 3)

	var sentCount int64
	require.NoError(t, conn.Model(&models.Participant{}).Where("email_sent = ?", true).Count(&sentCount).Error)
	assert.EqualValues(t, 3, sentCount)
}

func TestSendTicketEmailsRateLimitAbortsBatch(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 30)

	calls := 0
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		calls++
		if calls == 5 {
			return errors.New("rate limit exceeded")
		}
		return nil
	})

	report, err := SendTicketEmails(event.ID, "all", nil)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Total)
	assert.Equal(t, 4, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.Aborted)
	assert.Equal(t, "provider rate limit reached", report.AbortReason)
	// the rate-limited send is not retried, so the transport saw exactly
	// one call per attempted item
	assert.Equal(t, 5, calls)

	var sentCount int64
	require.NoError(t, conn.Model(&models.Participant{}).Where("email_sent = ?", true).Count(&sentCount).Error)
	assert.EqualValues(t, 4, sentCount)
}

func TestSendTicketEmailsStopsWhenNothingDelivers(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 10)

	lib.NewMailSender(func(input *lib.SendMailInput) error {
		return errors.New("mailbox unavailable")
	})

	report, err := SendTicketEmails(event.ID, "all", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 4, report.Failed)
	assert.True(t, report.Aborted)
	assert.Equal(t, "too many failures with no successful sends", report.AbortReason)
	assert.Len(t, report.Errors, 4)

	var sentCount int64
	require.NoError(t, conn.Model(&models.Participant{}).Where("email_sent = ?", true).Count(&sentCount).Error)
	assert.EqualValues(t, 0, sentCount)
}

func TestSendTicketEmailsCapsReportedErrors(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 10)

	calls := 0
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		calls++
		if calls == 1 {
			return nil
		}
		return errors.New("mailbox unavailable")
	})

	report, err := SendTicketEmails(event.ID, "all", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 9, report.Failed)
	assert.False(t, report.Aborted)
	assert.Len(t, report.Errors, maxReportedErrors)
}

func TestSendTicketEmailsPendingMode(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 2)
	require.NoError(t, conn.Model(&models.Participant{}).Where("email = ?", "person1@example.com").Update("email_sent", true).Error)

	var recipients []string
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		recipients = append(recipients, input.To[0])
		return nil
	})

	report, err := SendTicketEmails(event.ID, "pending", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"person2@example.com"}, recipients)
}

func TestSendTicketEmailsSelectedMode(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 3)

	var second models.Participant
	require.NoError(t, conn.Where("email = ?", "person2@example.com").First(&second).Error)

	var recipients []string
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		recipients = append(recipients, input.To[0])
		return nil
	})

	report, err := SendTicketEmails(event.ID, "selected", []uint{second.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, []string{"person2@example.com"}, recipients)
}

func TestSendTicketEmailsUnknownEvent(t *testing.T) {
	newEmailTestDB(t)
	_, err := SendTicketEmails(999, "all", nil)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestSendTicketEmailEmbedsQRCode(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 1)

	var captured *lib.SendMailInput
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		captured = input
		return nil
	})

	var participant models.Participant
	require.NoError(t, conn.Where("event_id = ?", event.ID).First(&participant).Error)
	require.NoError(t, SendTicketEmail(event, &participant))

	require.NotNil(t, captured)
	assert.Contains(t, captured.Subject, participant.TicketNumber)
	assert.True(t, captured.Html)
	require.Len(t, captured.Embeds, 1)
	assert.Equal(t, "ticket_qr", captured.Embeds[0].ContentID)
	assert.NotEmpty(t, captured.Embeds[0].Data)

	assert.True(t, participant.EmailSent)
	assert.NotNil(t, participant.EmailSentAt)
}

func TestBatchDelaySchedule(t *testing.T) {
	cases := map[int]time.Duration{
		0:  200 * time.Millisecond,
		25: 200 * time.Millisecond,
		26: time.Second,
		50: time.Second,
		51: 2 * time.Second,
		75: 2 * time.Second,
		76: 3 * time.Second,
		99: 3 * time.Second,
	}
	for index, want := range cases {
		assert.Equal(t, want, batchDelay(index), "index %d", index)
	}
}

func TestTicketQRCode(t *testing.T) {
	qr, err := TicketQRCode("TECH-03-2025-001")
	require.NoError(t, err)
	assert.NotEmpty(t, qr)
}

func TestSendCertificateEmailsAttachesArtifact(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 1)

	var participant models.Participant
	require.NoError(t, conn.Where("event_id = ?", event.ID).First(&participant).Error)
	cert := &models.Certificate{
		ParticipantID:     participant.ID,
		EventID:           event.ID,
		CertificateNumber: "CERT-001-0001-20250324-0001",
		Status:            types.CERTIFICATE_ISSUED,
		IssuedDate:        time.Now(),
		CertificateConfig: models.CertificateConfig{
			CertificateType: types.CERT_PARTICIPATION,
			OrganizerName:   "Acme Institute",
		},
	}
	require.NoError(t, conn.Create(cert).Error)

	var captured *lib.SendMailInput
	lib.NewMailSender(func(input *lib.SendMailInput) error {
		captured = input
		return nil
	})

	report, err := SendCertificateEmails(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Sent)

	require.NotNil(t, captured)
	require.Len(t, captured.Attachments, 1)
	assert.NotEmpty(t, captured.Attachments[0].Filename)
	assert.NotEmpty(t, captured.Attachments[0].Data)

	var stored models.Certificate
	require.NoError(t, conn.First(&stored, cert.ID).Error)
	assert.True(t, stored.EmailSent)
}

func TestSendCertificateEmailsSkipsAlreadySent(t *testing.T) {
	conn := newEmailTestDB(t)
	event := seedTicketBatch(t, conn, 1)

	var participant models.Participant
	require.NoError(t, conn.Where("event_id = ?", event.ID).First(&participant).Error)
	cert := &models.Certificate{
		ParticipantID:     participant.ID,
		EventID:           event.ID,
		CertificateNumber: "CERT-001-0001-20250324-0001",
		Status:            types.CERTIFICATE_ISSUED,
		IssuedDate:        time.Now(),
		EmailSent:         true,
	}
	require.NoError(t, conn.Create(cert).Error)

	lib.NewMailSender(func(input *lib.SendMailInput) error {
		t.Fatal("already-sent certificates must not be mailed again")
		return nil
	})

	report, err := SendCertificateEmails(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
}
