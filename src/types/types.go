package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_ACTIVE    EventStatus = "active"
	EVENT_COMPLETED EventStatus = "completed"
	EVENT_ARCHIVED  EventStatus = "archived"
)

type CertificateStatus string

const (
	CERTIFICATE_ISSUED    CertificateStatus = "issued"
	CERTIFICATE_CANCELLED CertificateStatus = "cancelled"
)

type CertificateType string

const (
	CERT_PARTICIPATION CertificateType = "participation"
	CERT_COMPLETION    CertificateType = "completion"
	CERT_ACHIEVEMENT   CertificateType = "achievement"
)

type QuizStatus string

const (
	QUIZ_DRAFT  QuizStatus = "draft"
	QUIZ_OPEN   QuizStatus = "open"
	QUIZ_CLOSED QuizStatus = "closed"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateEventRequestBody struct {
	Title         string `json:"title" binding:"required"`
	AliasName     string `json:"alias_name,omitempty"`
	Date          string `json:"date" binding:"required,eventdate"`
	TimeText      string `json:"time,omitempty"`
	Location      string `json:"location,omitempty"`
	GoogleMapsURL string `json:"google_maps_url,omitempty"`
	Description   string `json:"description,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

type UpdateEventRequestBody struct {
	Title         *string `json:"title,omitempty"`
	AliasName     *string `json:"alias_name,omitempty"`
	Date          *string `json:"date,omitempty" binding:"omitempty,eventdate"`
	TimeText      *string `json:"time,omitempty"`
	Location      *string `json:"location,omitempty"`
	GoogleMapsURL *string `json:"google_maps_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	Instructions  *string `json:"instructions,omitempty"`
	Status        *string `json:"status,omitempty"`
}

type CertificateConfigRequestBody struct {
	CertificateType     string `json:"certificate_type" binding:"required,oneof=participation completion achievement"`
	OrganizerName       string `json:"organizer_name,omitempty"`
	OrganizerLogoURL    string `json:"organizer_logo_url,omitempty"`
	SponsorName         string `json:"sponsor_name,omitempty"`
	SponsorLogoURL      string `json:"sponsor_logo_url,omitempty"`
	EventLocation       string `json:"event_location,omitempty"`
	EventTheme          string `json:"event_theme,omitempty"`
	Signature1Name      string `json:"signature1_name,omitempty"`
	Signature1Title     string `json:"signature1_title,omitempty"`
	Signature1ImageURL  string `json:"signature1_image_url,omitempty"`
	Signature2Name      string `json:"signature2_name,omitempty"`
	Signature2Title     string `json:"signature2_title,omitempty"`
	Signature2ImageURL  string `json:"signature2_image_url,omitempty"`
	CertificateTemplate string `json:"certificate_template,omitempty"`
}

type AddParticipantRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type SendEmailsRequestBody struct {
	// Mode selects the target set: all, pending or selected.
	Mode         string `json:"mode,omitempty" binding:"omitempty,oneof=all pending selected"`
	Participants []uint `json:"participants,omitempty"`
}

type CreateQuizRequestBody struct {
	Title            string `json:"title" binding:"required"`
	TimerPerQuestion uint   `json:"timer_per_question,omitempty"`
}

type QuizQuestionRequestBody struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer string   `json:"correct_answer" binding:"required"`
}

type JoinQuizRequestBody struct {
	Name string `json:"name" binding:"required"`
}

type QuizAnswerSubmission struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	Answer     string  `json:"answer"`
	TimeTaken  float64 `json:"time_taken,omitempty"`
}

type SubmitQuizAnswersRequestBody struct {
	Answers []QuizAnswerSubmission `json:"answers" binding:"required,min=1"`
}

// BatchReport aggregates the outcome of a batch email run.
type BatchReport struct {
	Total       int      `json:"total"`
	Sent        int      `json:"sent"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
	Aborted     bool     `json:"aborted"`
	AbortReason string   `json:"abort_reason,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// ImportReport aggregates the outcome of a participant CSV import.
type ImportReport struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type EventStats struct {
	TotalParticipants  int64   `json:"total_participants"`
	CheckedInCount     int64   `json:"checked_in_count"`
	AttendanceRate     float64 `json:"attendance_rate"`
	EmailsSentCount    int64   `json:"emails_sent_count"`
	CertificatesIssued int64   `json:"certificates_issued"`
	HasCertificate     bool    `json:"has_certificate_config"`
}
