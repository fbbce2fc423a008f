package models

import (
	"etms/src/types"
	"strings"
	"time"
)

type Quiz struct {
	ID               uint             `json:"id"`
	EventID          uint             `json:"event_id"`
	Title            string           `json:"title"`
	TimerPerQuestion uint             `gorm:"default:30" json:"timer_per_question"`
	Status           types.QuizStatus `gorm:"default:'draft'" json:"status"`

	Questions    []QuizQuestion    `gorm:"foreignKey:quiz_id;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Participants []QuizParticipant `gorm:"foreignKey:quiz_id;constraint:OnDelete:CASCADE" json:"participants,omitempty"`

	types.Timestamps
}

type QuizQuestion struct {
	ID            uint   `json:"id"`
	QuizID        uint   `json:"quiz_id"`
	Text          string `json:"text"`
	Options       string `json:"options"`
	CorrectAnswer string `json:"correct_answer"`
	Position      uint   `json:"position"`

	types.Timestamps
}

// OptionList splits the stored comma-separated options.
func (q *QuizQuestion) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	raw := strings.Split(q.Options, ",")
	options := make([]string, 0, len(raw))
	for _, o := range raw {
		options = append(options, strings.TrimSpace(o))
	}
	return options
}

func (q *QuizQuestion) HasOption(answer string) bool {
	for _, o := range q.OptionList() {
		if strings.EqualFold(o, strings.TrimSpace(answer)) {
			return true
		}
	}
	return false
}

type QuizParticipant struct {
	ID          uint       `json:"id"`
	QuizID      uint       `json:"quiz_id"`
	Name        string     `json:"name"`
	Score       uint       `gorm:"default:0" json:"score"`
	TotalTime   float64    `gorm:"default:0" json:"total_time"`
	StartedAt   time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Answers []QuizAnswer `gorm:"foreignKey:quiz_participant_id;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

type QuizAnswer struct {
	ID                uint    `json:"id"`
	QuizParticipantID uint    `json:"quiz_participant_id"`
	QuestionID        uint    `json:"question_id"`
	Answer            string  `json:"answer"`
	IsCorrect         bool    `gorm:"default:false" json:"is_correct"`
	TimeTaken         float64 `gorm:"default:0" json:"time_taken"`
}
