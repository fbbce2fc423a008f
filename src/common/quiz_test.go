package common

import (
	"etms/src/models"
	"etms/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedQuiz(t *testing.T, conn *gorm.DB) (*models.Quiz, []models.QuizQuestion) {
	event := &models.Event{
		Title:     "Tech Summit 2025",
		AliasName: "TECH",
		Date:      time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, conn.Create(event).Error)
	quiz := &models.Quiz{EventID: event.ID, Title: "Closing Quiz", TimerPerQuestion: 30, Status: types.QUIZ_OPEN}
	require.NoError(t, conn.Create(quiz).Error)
	questions := []models.QuizQuestion{
		{QuizID: quiz.ID, Text: "Capital of France?", Options: "Paris,London,Berlin", CorrectAnswer: "Paris", Position: 1},
		{QuizID: quiz.ID, Text: "2+2?", Options: "3,4,5", CorrectAnswer: "4", Position: 2},
	}
	for i := range questions {
		require.NoError(t, conn.Create(&questions[i]).Error)
	}
	return quiz, questions
}

func TestSubmitQuizAnswersScoresCaseInsensitively(t *testing.T) {
	conn := newEmailTestDB(t)
	quiz, questions := seedQuiz(t, conn)

	session := &models.QuizParticipant{QuizID: quiz.ID, Name: "Jane"}
	require.NoError(t, conn.Create(session).Error)

	scored, err := SubmitQuizAnswers(session.ID, []types.QuizAnswerSubmission{
		{QuestionID: questions[0].ID, Answer: "paris", TimeTaken: 4.5},
		{QuestionID: questions[1].ID, Answer: "5", TimeTaken: 2.0},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, scored.Score)
	assert.InDelta(t, 6.5, scored.TotalTime, 0.001)
	require.NotNil(t, scored.CompletedAt)

	var answers []models.QuizAnswer
	require.NoError(t, conn.Where("quiz_participant_id = ?", session.ID).Order("question_id asc").Find(&answers).Error)
	require.Len(t, answers, 2)
	assert.True(t, answers[0].IsCorrect)
	assert.False(t, answers[1].IsCorrect)
}

func TestSubmitQuizAnswersRejectsCompletedSession(t *testing.T) {
	conn := newEmailTestDB(t)
	quiz, questions := seedQuiz(t, conn)

	now := time.Now()
	session := &models.QuizParticipant{QuizID: quiz.ID, Name: "Jane", CompletedAt: &now}
	require.NoError(t, conn.Create(session).Error)

	_, err := SubmitQuizAnswers(session.ID, []types.QuizAnswerSubmission{
		{QuestionID: questions[0].ID, Answer: "Paris"},
	})
	require.Error(t, err)
	var ve *types.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSubmitQuizAnswersUnknownQuestion(t *testing.T) {
	conn := newEmailTestDB(t)
	quiz, _ := seedQuiz(t, conn)

	session := &models.QuizParticipant{QuizID: quiz.ID, Name: "Jane"}
	require.NoError(t, conn.Create(session).Error)

	_, err := SubmitQuizAnswers(session.ID, []types.QuizAnswerSubmission{
		{QuestionID: 999, Answer: "Paris"},
	})
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestQuizLeaderboardOrdersByScoreThenTime(t *testing.T) {
	conn := newEmailTestDB(t)
	quiz, _ := seedQuiz(t, conn)

	now := time.Now()
	sessions := []models.QuizParticipant{
		{QuizID: quiz.ID, Name: "Slow Winner", Score: 2, TotalTime: 20, CompletedAt: &now},
		{QuizID: quiz.ID, Name: "Fast Winner", Score: 2, TotalTime: 10, CompletedAt: &now},
		{QuizID: quiz.ID, Name: "Runner Up", Score: 1, TotalTime: 5, CompletedAt: &now},
		{QuizID: quiz.ID, Name: "Never Finished", Score: 0, TotalTime: 0},
	}
	for i := range sessions {
		require.NoError(t, conn.Create(&sessions[i]).Error)
	}

	ranked, err := QuizLeaderboard(quiz.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Fast Winner", ranked[0].Name)
	assert.Equal(t, "Slow Winner", ranked[1].Name)
	assert.Equal(t, "Runner Up", ranked[2].Name)
}

func TestExpireStaleQuizSessions(t *testing.T) {
	conn := newEmailTestDB(t)
	quiz, _ := seedQuiz(t, conn)

	stale := &models.QuizParticipant{QuizID: quiz.ID, Name: "Walked Away"}
	require.NoError(t, conn.Create(stale).Error)
	// two questions at 30s each plus grace is well in the past
	require.NoError(t, conn.Model(stale).Update("started_at", time.Now().Add(-time.Hour)).Error)

	fresh := &models.QuizParticipant{QuizID: quiz.ID, Name: "Still Answering"}
	require.NoError(t, conn.Create(fresh).Error)

	ExpireStaleQuizSessions()

	var staleStored, freshStored models.QuizParticipant
	require.NoError(t, conn.First(&staleStored, stale.ID).Error)
	require.NoError(t, conn.First(&freshStored, fresh.ID).Error)
	assert.NotNil(t, staleStored.CompletedAt)
	assert.Nil(t, freshStored.CompletedAt)
}
