package common

import (
	"errors"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SubmitQuizAnswers scores a session server-side: an answer is correct when
// it matches the question's stored answer case-insensitively. The session
// is marked completed afterwards.
func SubmitQuizAnswers(sessionID uint, submissions []types.QuizAnswerSubmission) (*models.QuizParticipant, error) {
	conn := db.GetDb()
	var session models.QuizParticipant
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "quiz session", ID: sessionID}
			}
			return err
		}
		if session.CompletedAt != nil {
			return &types.ValidationError{Message: "quiz session already completed"}
		}
		var questions []models.QuizQuestion
		if err := tx.Where("quiz_id = ?", session.QuizID).Find(&questions).Error; err != nil {
			return err
		}
		byID := make(map[uint]*models.QuizQuestion, len(questions))
		for i := range questions {
			byID[questions[i].ID] = &questions[i]
		}
		var score uint
		var totalTime float64
		for _, sub := range submissions {
			question, ok := byID[sub.QuestionID]
			if !ok {
				return &types.NotFoundError{Resource: "quiz question", ID: sub.QuestionID}
			}
			correct := strings.EqualFold(strings.TrimSpace(sub.Answer), strings.TrimSpace(question.CorrectAnswer))
			answer := models.QuizAnswer{
				QuizParticipantID: sessionID,
				QuestionID:        sub.QuestionID,
				Answer:            sub.Answer,
				IsCorrect:         correct,
				TimeTaken:         sub.TimeTaken,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
			if correct {
				score++
			}
			totalTime += sub.TimeTaken
		}
		now := time.Now()
		if err := tx.Model(&session).Updates(map[string]any{
			"score":        score,
			"total_time":   totalTime,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}
		session.Score = score
		session.TotalTime = totalTime
		session.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// QuizLeaderboard ranks completed sessions by score, ties broken by the
// faster total time.
func QuizLeaderboard(quizID uint) ([]models.QuizParticipant, error) {
	conn := db.GetDb()
	var quiz models.Quiz
	if err := conn.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "quiz", ID: quizID}
		}
		return nil, err
	}
	var sessions []models.QuizParticipant
	err := conn.
		Where("quiz_id = ? AND completed_at IS NOT NULL", quizID).
		Order("score desc, total_time asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

const quizSessionGrace = 5 * time.Minute

// ExpireStaleQuizSessions closes sessions that were started but never
// submitted, once their quiz's full answering window plus a grace period
// has passed. Runs on the scheduler.
func ExpireStaleQuizSessions() {
	conn := db.GetDb()
	var open []models.QuizParticipant
	if err := conn.Where("completed_at IS NULL").Find(&open).Error; err != nil {
		log.Printf("[quiz] Could not list open sessions: %s\n", err.Error())
		return
	}
	now := time.Now()
	expired := 0
	for i := range open {
		session := &open[i]
		var quiz models.Quiz
		if err := conn.First(&quiz, session.QuizID).Error; err != nil {
			continue
		}
		var questionCount int64
		if err := conn.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount).Error; err != nil {
			continue
		}
		window := time.Duration(quiz.TimerPerQuestion) * time.Second * time.Duration(questionCount)
		if now.Sub(session.StartedAt) < window+quizSessionGrace {
			continue
		}
		if err := conn.Model(session).Update("completed_at", now).Error; err != nil {
			log.Printf("[quiz] Could not expire session %d: %s\n", session.ID, err.Error())
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("[quiz] Expired %d stale sessions\n", expired)
	}
}
