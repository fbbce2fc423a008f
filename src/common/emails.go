package common

import (
	"bytes"
	"errors"
	"etms/src/config"
	"etms/src/db"
	"etms/src/lib"
	"etms/src/models"
	"etms/src/models/scopes"
	"etms/src/types"
	"fmt"
	"log"
	"time"

	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

var sleepFn = time.Sleep

// NewSleeper replaces the inter-send delay. Used by tests.
func NewSleeper(fn func(time.Duration)) {
	sleepFn = fn
}

const maxReportedErrors = 5

// batchDelay returns the pause before sending item at the given zero-based
// position. Delays grow with batch progress to stay under provider
// throttles.
func batchDelay(index int) time.Duration {
	switch {
	case index > 75:
		return 3 * time.Second
	case index > 50:
		return 2 * time.Second
	case index > 25:
		return time.Second
	default:
		return 200 * time.Millisecond
	}
}

func appendCapped(errs []string, msg string) []string {
	if len(errs) < maxReportedErrors {
		errs = append(errs, msg)
	}
	return errs
}

// SendTicketEmails delivers ticket emails for an event in one synchronous
// loop. mode selects the target set: "all", "pending" (not yet emailed) or
// "selected" (explicit participant ids). A rate-limited send aborts the
// rest of the batch, as does crossing three failures before the first
// success.
func SendTicketEmails(eventID uint, mode string, selected []uint) (*types.BatchReport, error) {
	conn := db.GetDb()
	var event models.Event
	if err := conn.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "event", ID: eventID}
		}
		return nil, err
	}
	q := conn.Scopes(scopes.WithEvent(eventID))
	switch mode {
	case "pending":
		q = q.Scopes(scopes.WithPendingEmail)
	case "selected":
		q = q.Scopes(scopes.WithIDs(selected...))
	}
	var participants []models.Participant
	if err := q.Order("id asc").Find(&participants).Error; err != nil {
		return nil, err
	}

	report := &types.BatchReport{Total: len(participants)}
	for i := range participants {
		p := &participants[i]
		if i > 0 {
			sleepFn(batchDelay(i))
		}
		if err := SendTicketEmail(&event, p); err != nil {
			report.Failed++
			report.Errors = appendCapped(report.Errors, fmt.Sprintf("%s: %s", p.Email, err.Error()))
			if types.IsRateLimitError(err) {
				report.Aborted = true
				report.AbortReason = "provider rate limit reached"
				log.Printf("[emails] Aborting batch for event %d after rate limit at item %d\n", eventID, i+1)
				break
			}
			if report.Failed > 3 && report.Sent == 0 {
				report.Aborted = true
				report.AbortReason = "too many failures with no successful sends"
				log.Printf("[emails] Aborting batch for event %d: %d failures, 0 sent\n", eventID, report.Failed)
				break
			}
			continue
		}
		report.Sent++
	}
	log.Printf("[emails] Event %d ticket batch: total=%d sent=%d failed=%d aborted=%t\n",
		eventID, report.Total, report.Sent, report.Failed, report.Aborted)
	return report, nil
}

// SendTicketEmail sends a single ticket email with the QR code embedded
// inline. EmailSent is recorded only after the transport accepts the
// message.
func SendTicketEmail(event *models.Event, participant *models.Participant) error {
	input := &lib.SendMailInput{
		From:     config.MailFrom(),
		FromName: config.MailFromName(),
		To:       []string{participant.Email},
		Subject:  fmt.Sprintf("Your Ticket for %s - %s", event.Title, participant.TicketNumber),
		Body:     buildTicketEmailBody(event, participant),
		Html:     true,
	}
	if event.LogoFilename != "" {
		logo, err := lib.FetchAsset(event.LogoFilename)
		if err != nil {
			log.Printf("[emails] Could not load event logo %s: %s\n", event.LogoFilename, err.Error())
		} else {
			input.Embeds = append(input.Embeds, lib.InlineEmbed{
				Filename:  "logo.png",
				ContentID: "event_logo",
				Data:      logo,
			})
		}
	}
	if qr, err := TicketQRCode(participant.TicketNumber); err != nil {
		log.Printf("[emails] Could not generate QR for %s: %s\n", participant.TicketNumber, err.Error())
	} else {
		input.Embeds = append(input.Embeds, lib.InlineEmbed{
			Filename:  "ticket_qr.png",
			ContentID: "ticket_qr",
			Data:      qr,
		})
	}
	if err := lib.SendMailWithRetry(input); err != nil {
		return err
	}
	return participant.MarkEmailSent(db.GetDb())
}

func TicketQRCode(ticketNumber string) ([]byte, error) {
	qrc, err := qrcode.New(ticketNumber)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SendCertificateEmails delivers rendered certificates for every issued,
// not-yet-emailed certificate of the event, with the same batch policy as
// ticket emails.
func SendCertificateEmails(eventID uint) (*types.BatchReport, error) {
	conn := db.GetDb()
	var event models.Event
	if err := conn.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "event", ID: eventID}
		}
		return nil, err
	}
	var certs []models.Certificate
	if err := conn.
		Where("event_id = ? AND email_sent = ? AND status = ?", eventID, false, types.CERTIFICATE_ISSUED).
		Order("id asc").
		Find(&certs).Error; err != nil {
		return nil, err
	}

	report := &types.BatchReport{Total: len(certs)}
	for i := range certs {
		cert := &certs[i]
		if i > 0 {
			sleepFn(batchDelay(i))
		}
		if err := SendCertificateEmail(&event, cert); err != nil {
			report.Failed++
			report.Errors = appendCapped(report.Errors, fmt.Sprintf("%s: %s", cert.CertificateNumber, err.Error()))
			if types.IsRateLimitError(err) {
				report.Aborted = true
				report.AbortReason = "provider rate limit reached"
				log.Printf("[emails] Aborting certificate batch for event %d after rate limit at item %d\n", eventID, i+1)
				break
			}
			if report.Failed > 3 && report.Sent == 0 {
				report.Aborted = true
				report.AbortReason = "too many failures with no successful sends"
				break
			}
			continue
		}
		report.Sent++
	}
	log.Printf("[emails] Event %d certificate batch: total=%d sent=%d failed=%d aborted=%t\n",
		eventID, report.Total, report.Sent, report.Failed, report.Aborted)
	return report, nil
}

// SendCertificateEmail renders the certificate through the fallback chain
// and mails the artifact as an attachment.
func SendCertificateEmail(event *models.Event, cert *models.Certificate) error {
	conn := db.GetDb()
	var participant models.Participant
	if err := conn.First(&participant, cert.ParticipantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.NotFoundError{Resource: "participant", ID: cert.ParticipantID}
		}
		return err
	}
	artifact := RenderCertificateArtifact(event, &participant, cert)
	input := &lib.SendMailInput{
		From:     config.MailFrom(),
		FromName: config.MailFromName(),
		To:       []string{participant.Email},
		Subject:  fmt.Sprintf("Your Certificate for %s", event.Title),
		Body:     buildCertificateEmailBody(event, &participant, cert),
		Html:     true,
		Attachments: []lib.MailAttachment{
			{Filename: artifact.Filename, Data: artifact.Content},
		},
	}
	if err := lib.SendMailWithRetry(input); err != nil {
		return err
	}
	return cert.MarkEmailSent(conn)
}
