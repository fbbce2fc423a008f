package utils

import (
	"errors"
	"etms/src/config"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func IsProd() bool {
	return config.API_ENV == "production"
}

// lockForUpdate takes the event row lock guarding the ticket-number
// read-assign-insert window. sqlite (tests) has no row locks; its
// single-writer model covers the same window.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func defaultAlias(title string) string {
	alias := strings.ToUpper(strings.ReplaceAll(slug.Make(title), "-", ""))
	if len(alias) > 10 {
		alias = alias[:10]
	}
	return alias
}

func CreateNewEvent(body *types.CreateEventRequestBody) (*models.Event, error) {
	date, err := time.Parse(config.DATE_PARSE_FORMAT, body.Date)
	if err != nil {
		return nil, &types.ValidationError{Field: "date", Message: err.Error()}
	}
	alias := strings.ToUpper(strings.TrimSpace(body.AliasName))
	if alias == "" {
		alias = defaultAlias(body.Title)
	}
	event := models.Event{
		Title:         body.Title,
		AliasName:     alias,
		Date:          date,
		TimeText:      body.TimeText,
		Location:      body.Location,
		GoogleMapsURL: body.GoogleMapsURL,
		Description:   body.Description,
		Instructions:  body.Instructions,
		Status:        types.EVENT_ACTIVE,
	}
	conn := db.GetDb()
	if err := conn.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func UpdateEvent(id uint, body *types.UpdateEventRequestBody) (*models.Event, error) {
	conn := db.GetDb()
	var event models.Event
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: id}
			}
			return err
		}
		updates := map[string]any{}
		if body.Title != nil {
			updates["title"] = *body.Title
		}
		if body.AliasName != nil {
			updates["alias_name"] = strings.ToUpper(strings.TrimSpace(*body.AliasName))
		}
		if body.Date != nil {
			date, err := time.Parse(config.DATE_PARSE_FORMAT, *body.Date)
			if err != nil {
				return &types.ValidationError{Field: "date", Message: err.Error()}
			}
			updates["date"] = date
		}
		if body.TimeText != nil {
			updates["time_text"] = *body.TimeText
		}
		if body.Location != nil {
			updates["location"] = *body.Location
		}
		if body.GoogleMapsURL != nil {
			updates["google_maps_url"] = *body.GoogleMapsURL
		}
		if body.Description != nil {
			updates["description"] = *body.Description
		}
		if body.Instructions != nil {
			updates["instructions"] = *body.Instructions
		}
		if body.Status != nil {
			updates["status"] = *body.Status
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&event).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateCertificateConfig edits the event's live template fields. Issued
// certificates keep their own snapshot and are unaffected.
func UpdateCertificateConfig(eventID uint, body *types.CertificateConfigRequestBody) (*models.Event, error) {
	conn := db.GetDb()
	var event models.Event
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: eventID}
			}
			return err
		}
		now := time.Now()
		event.CertificateConfig = models.CertificateConfig{
			CertificateType:     types.CertificateType(body.CertificateType),
			OrganizerName:       body.OrganizerName,
			OrganizerLogoURL:    body.OrganizerLogoURL,
			SponsorName:         body.SponsorName,
			SponsorLogoURL:      body.SponsorLogoURL,
			EventLocation:       body.EventLocation,
			EventTheme:          body.EventTheme,
			Signature1Name:      body.Signature1Name,
			Signature1Title:     body.Signature1Title,
			Signature1ImageURL:  body.Signature1ImageURL,
			Signature2Name:      body.Signature2Name,
			Signature2Title:     body.Signature2Title,
			Signature2ImageURL:  body.Signature2ImageURL,
			CertificateTemplate: body.CertificateTemplate,
		}
		event.CertificateConfigUpdated = &now
		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func AddParticipant(eventID uint, name, email string) (*models.Participant, error) {
	conn := db.GetDb()
	var participant models.Participant
	err := conn.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: eventID}
			}
			return err
		}
		ticketNumber, err := event.NextTicketNumber(tx)
		if err != nil {
			return err
		}
		participant = models.Participant{
			EventID:      eventID,
			Name:         strings.TrimSpace(name),
			Email:        strings.ToLower(strings.TrimSpace(email)),
			TicketNumber: ticketNumber,
		}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &types.DuplicateError{
					Constraint: "event_id,email",
					Message:    fmt.Sprintf("%s is already registered for this event", participant.Email),
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// ImportParticipants registers the accepted rows of an uploaded CSV inside
// one transaction, skipping emails already registered for the event.
func ImportParticipants(eventID uint, data []byte) (*types.ImportReport, error) {
	result, err := ParseParticipantsCSV(data)
	if err != nil {
		return nil, &types.ValidationError{Field: "file", Message: err.Error()}
	}
	report := &types.ImportReport{
		Errors:  result.Errors,
		Skipped: result.Duplicates,
	}
	conn := db.GetDb()
	err = conn.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: eventID}
			}
			return err
		}
		var existingEmails []string
		if err := tx.
			Model(&models.Participant{}).
			Where("event_id = ?", eventID).
			Pluck("email", &existingEmails).Error; err != nil {
			return err
		}
		registered := map[string]bool{}
		for _, e := range existingEmails {
			registered[strings.ToLower(e)] = true
		}
		for _, row := range result.Rows {
			if registered[row.Email] {
				report.Skipped++
				continue
			}
			ticketNumber, err := event.NextTicketNumber(tx)
			if err != nil {
				return err
			}
			participant := models.Participant{
				EventID:      eventID,
				Name:         row.Name,
				Email:        row.Email,
				TicketNumber: ticketNumber,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
			registered[row.Email] = true
			report.Added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[import] Event %d: added=%d skipped=%d errors=%d\n", eventID, report.Added, report.Skipped, len(report.Errors))
	return report, nil
}

func getParticipant(tx *gorm.DB, id uint) (*models.Participant, error) {
	var participant models.Participant
	if err := tx.First(&participant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "participant", ID: id}
		}
		return nil, err
	}
	return &participant, nil
}

func CheckInParticipant(id uint) (*models.Participant, error) {
	conn := db.GetDb()
	var participant *models.Participant
	err := conn.Transaction(func(tx *gorm.DB) error {
		p, err := getParticipant(tx, id)
		if err != nil {
			return err
		}
		if p.CheckedIn {
			return &types.ValidationError{Message: fmt.Sprintf("%s is already checked in", p.Name)}
		}
		if err := p.CheckIn(tx); err != nil {
			return err
		}
		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func UndoCheckIn(id uint) (*models.Participant, error) {
	conn := db.GetDb()
	var participant *models.Participant
	err := conn.Transaction(func(tx *gorm.DB) error {
		p, err := getParticipant(tx, id)
		if err != nil {
			return err
		}
		if err := p.CheckOut(tx); err != nil {
			return err
		}
		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// IssueCertificate creates a certificate for a checked-in participant,
// copying the event's certificate config onto the new row. With reissue set
// an existing certificate is replaced and the new number carries the
// reissue suffix.
func IssueCertificate(participantID uint, reissue bool) (*models.Certificate, error) {
	conn := db.GetDb()
	var cert models.Certificate
	err := conn.Transaction(func(tx *gorm.DB) error {
		participant, err := getParticipant(tx, participantID)
		if err != nil {
			return err
		}
		var event models.Event
		if err := tx.First(&event, participant.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: participant.EventID}
			}
			return err
		}
		if !event.HasCertificateConfig() {
			return &types.ValidationError{Message: "event has no certificate configuration"}
		}
		if !participant.CheckedIn {
			return &types.ValidationError{Message: fmt.Sprintf("%s has not checked in", participant.Name)}
		}
		var existing models.Certificate
		err = tx.Where(&models.Certificate{ParticipantID: participantID}).First(&existing).Error
		if err == nil {
			if !reissue {
				return &types.DuplicateError{
					Constraint: "participant_id",
					Message:    fmt.Sprintf("certificate already issued for %s", participant.Name),
				}
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now()
		number, err := models.GenerateCertificateNumber(tx, event.ID, participantID, now)
		if err != nil {
			return err
		}
		if reissue {
			number += models.ReissueSuffix(now)
		}
		cert = models.Certificate{
			ParticipantID:     participantID,
			EventID:           event.ID,
			CertificateNumber: number,
			Status:            types.CERTIFICATE_ISSUED,
			IssuedDate:        now,
			CertificateConfig: event.CertificateConfig,
		}
		return tx.Create(&cert).Error
	})
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// IssueCertificatesForEvent issues (or reissues) certificates for every
// checked-in participant of the event. Per-participant failures are
// collected, not fatal.
func IssueCertificatesForEvent(eventID uint, reissue bool) (issued int, skipped int, errs []string, err error) {
	conn := db.GetDb()
	var event models.Event
	if err = conn.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &types.NotFoundError{Resource: "event", ID: eventID}
		}
		return
	}
	var participants []models.Participant
	if err = conn.
		Where("event_id = ? AND checked_in = ?", eventID, true).
		Order("id asc").
		Find(&participants).Error; err != nil {
		return
	}
	for _, p := range participants {
		if _, ierr := IssueCertificate(p.ID, reissue); ierr != nil {
			if types.IsDuplicate(ierr) {
				skipped++
				continue
			}
			errs = append(errs, fmt.Sprintf("%s: %s", p.Name, ierr.Error()))
			continue
		}
		issued++
	}
	return
}

func DeleteParticipant(id uint) error {
	conn := db.GetDb()
	return conn.Transaction(func(tx *gorm.DB) error {
		p, err := getParticipant(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("participant_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

// DeleteEvent removes the event and everything hanging off it. Deletion
// order follows the FK chain so it also works without database-level
// cascades.
func DeleteEvent(id uint) error {
	conn := db.GetDb()
	return conn.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "event", ID: id}
			}
			return err
		}
		var quizIDs []uint
		if err := tx.Model(&models.Quiz{}).Where("event_id = ?", id).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			var qpIDs []uint
			if err := tx.Model(&models.QuizParticipant{}).Where("quiz_id IN ?", quizIDs).Pluck("id", &qpIDs).Error; err != nil {
				return err
			}
			if len(qpIDs) > 0 {
				if err := tx.Where("quiz_participant_id IN ?", qpIDs).Delete(&models.QuizAnswer{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizParticipant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", id).Delete(&models.Quiz{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
}

func GetEventStats(eventID uint) (*types.EventStats, error) {
	conn := db.GetDb()
	var event models.Event
	if err := conn.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "event", ID: eventID}
		}
		return nil, err
	}
	stats := &types.EventStats{HasCertificate: event.HasCertificateConfig()}
	participants := conn.Model(&models.Participant{}).Where("event_id = ?", eventID)
	if err := participants.Count(&stats.TotalParticipants).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Participant{}).Where("event_id = ? AND checked_in = ?", eventID, true).Count(&stats.CheckedInCount).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Participant{}).Where("event_id = ? AND email_sent = ?", eventID, true).Count(&stats.EmailsSentCount).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Certificate{}).Where("event_id = ?", eventID).Count(&stats.CertificatesIssued).Error; err != nil {
		return nil, err
	}
	if stats.TotalParticipants > 0 {
		stats.AttendanceRate = float64(stats.CheckedInCount) / float64(stats.TotalParticipants) * 100
	}
	return stats, nil
}
