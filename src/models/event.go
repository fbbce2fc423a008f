package models

import (
	"errors"
	"etms/src/types"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CertificateConfig is the set of presentation fields a certificate is
// rendered from. It lives on the Event while being edited and is copied
// onto each Certificate at issuance, so later event edits never change an
// issued certificate.
type CertificateConfig struct {
	CertificateType     types.CertificateType `json:"certificate_type,omitempty"`
	OrganizerName       string                `json:"organizer_name,omitempty"`
	OrganizerLogoURL    string                `json:"organizer_logo_url,omitempty"`
	SponsorName         string                `json:"sponsor_name,omitempty"`
	SponsorLogoURL      string                `json:"sponsor_logo_url,omitempty"`
	EventLocation       string                `json:"event_location,omitempty"`
	EventTheme          string                `json:"event_theme,omitempty"`
	Signature1Name      string                `json:"signature1_name,omitempty"`
	Signature1Title     string                `json:"signature1_title,omitempty"`
	Signature1ImageURL  string                `json:"signature1_image_url,omitempty"`
	Signature2Name      string                `json:"signature2_name,omitempty"`
	Signature2Title     string                `json:"signature2_title,omitempty"`
	Signature2ImageURL  string                `json:"signature2_image_url,omitempty"`
	CertificateTemplate string                `json:"certificate_template,omitempty"`
}

type Event struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title,omitempty"`
	AliasName     string            `json:"alias_name,omitempty"`
	Date          time.Time         `json:"date,omitempty"`
	TimeText      string            `json:"time,omitempty"`
	Location      string            `json:"location,omitempty"`
	GoogleMapsURL string            `json:"google_maps_url,omitempty"`
	LogoFilename  string            `json:"logo_filename,omitempty"`
	Description   string            `json:"description,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Status        types.EventStatus `gorm:"default:'active'" json:"status,omitempty"`

	CertificateConfig        `gorm:"embedded"`
	CertificateConfigUpdated *time.Time `json:"certificate_config_updated,omitempty"`

	Participants []Participant `gorm:"foreignKey:event_id;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Quizzes      []Quiz        `gorm:"foreignKey:event_id;constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`

	types.Timestamps
}

func (c *CertificateConfig) HasCertificateConfig() bool {
	return c.CertificateType != ""
}

// NextTicketNumber computes the next ticket number for the event in the
// form {ALIAS}-{MM}-{YYYY}-{NNN}. The sequence continues from the trailing
// segment of the most recently created participant's ticket number; if that
// segment does not parse as an integer the sequence restarts at 1. Callers
// must hold the event row lock for the whole read-assign-insert window.
func (e *Event) NextTicketNumber(tx *gorm.DB) (string, error) {
	next := 1
	var last Participant
	err := tx.
		Where(&Participant{EventID: e.ID}).
		Order("id desc").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if err == nil {
		segments := strings.Split(last.TicketNumber, "-")
		n, perr := strconv.Atoi(segments[len(segments)-1])
		if perr != nil {
			n = 0
		}
		next = n + 1
	}
	alias := strings.ToUpper(e.AliasName)
	return fmt.Sprintf("%s-%02d-%04d-%03d", alias, int(e.Date.Month()), e.Date.Year(), next), nil
}
