package models

import (
	"time"

	"gorm.io/gorm"
)

type Participant struct {
	ID           uint   `json:"id"`
	EventID      uint   `gorm:"uniqueIndex:uq_participants_event_email" json:"event_id"`
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex:uq_participants_event_email" json:"email"`
	TicketNumber string `gorm:"uniqueIndex" json:"ticket_number"`
	CheckedIn    bool   `gorm:"default:false" json:"checked_in"`
	CheckinTime  *time.Time `json:"checkin_time,omitempty"`
	EmailSent    bool       `gorm:"default:false" json:"email_sent"`
	EmailSentAt  *time.Time `json:"email_sent_at,omitempty"`
	RegisteredAt time.Time  `gorm:"autoCreateTime" json:"registered_at"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`

	Event       Event        `gorm:"foreignKey:event_id;constraint:OnDelete:CASCADE" json:"-"`
	Certificate *Certificate `gorm:"foreignKey:participant_id;constraint:OnDelete:CASCADE" json:"certificate,omitempty"`
}

func (p *Participant) CheckIn(tx *gorm.DB) error {
	now := time.Now()
	err := tx.Model(p).Updates(map[string]any{
		"checked_in":   true,
		"checkin_time": now,
	}).Error
	if err != nil {
		return err
	}
	p.CheckedIn = true
	p.CheckinTime = &now
	return nil
}

func (p *Participant) CheckOut(tx *gorm.DB) error {
	err := tx.Model(p).Updates(map[string]any{
		"checked_in":   false,
		"checkin_time": nil,
	}).Error
	if err != nil {
		return err
	}
	p.CheckedIn = false
	p.CheckinTime = nil
	return nil
}

// MarkEmailSent records a successful ticket delivery. Called only after the
// SMTP send has completed without error.
func (p *Participant) MarkEmailSent(tx *gorm.DB) error {
	now := time.Now()
	err := tx.Model(p).Updates(map[string]any{
		"email_sent":    true,
		"email_sent_at": now,
	}).Error
	if err != nil {
		return err
	}
	p.EmailSent = true
	p.EmailSentAt = &now
	return nil
}
