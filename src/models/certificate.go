package models

import (
	"errors"
	"etms/src/types"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Certificate struct {
	ID                uint                    `json:"id"`
	ParticipantID     uint                    `gorm:"uniqueIndex" json:"participant_id"`
	EventID           uint                    `json:"event_id"`
	CertificateNumber string                  `gorm:"uniqueIndex" json:"certificate_number"`
	Status            types.CertificateStatus `gorm:"default:'issued'" json:"status"`
	IssuedDate        time.Time               `json:"issued_date"`
	EmailSent         bool                    `gorm:"default:false" json:"email_sent"`
	EmailSentDate     *time.Time              `json:"email_sent_date,omitempty"`
	CreatedAt         time.Time               `gorm:"autoCreateTime" json:"created_at,omitempty"`
	UpdatedAt         time.Time               `json:"updated_at,omitempty"`

	CertificateConfig `gorm:"embedded"`

	Participant Participant `gorm:"foreignKey:participant_id;constraint:OnDelete:CASCADE" json:"-"`
}

// GenerateCertificateNumber builds CERT-{event}-{participant}-{date}-{seq}
// where seq is 1 + the number of certificates issued since local midnight,
// across all events.
func GenerateCertificateNumber(tx *gorm.DB, eventID, participantID uint, now time.Time) (string, error) {
	var participant Participant
	if err := tx.First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &types.NotFoundError{Resource: "participant", ID: participantID}
		}
		return "", err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayCount int64
	if err := tx.
		Model(&Certificate{}).
		Where("issued_date >= ?", dayStart).
		Count(&todayCount).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("CERT-%03d-%04d-%s-%04d", eventID, participantID, now.Format("20060102"), todayCount+1), nil
}

// ReissueSuffix distinguishes a replacement certificate number from the one
// it replaces, derived from the current time's millisecond component.
func ReissueSuffix(now time.Time) string {
	return fmt.Sprintf("-R%03d", now.UnixMilli()%1000)
}

func (c *Certificate) MarkEmailSent(tx *gorm.DB) error {
	now := time.Now()
	err := tx.Model(c).Updates(map[string]any{
		"email_sent":      true,
		"email_sent_date": now,
	}).Error
	if err != nil {
		return err
	}
	c.EmailSent = true
	c.EmailSentDate = &now
	return nil
}
