package main

import (
	"errors"
	"etms/src/common"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func quizHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events/:id/quizzes", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var quizzes []models.Quiz
			if err := db.
				Where("event_id = ?", params.ID).
				Order("id asc").
				Find(&quizzes).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": quizzes})
		}).
		POST("/events/:id/quizzes", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateQuizRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var event models.Event
			if err := db.First(&event, params.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			quiz := models.Quiz{
				EventID: event.ID,
				Title:   body.Title,
				Status:  types.QUIZ_DRAFT,
			}
			if body.TimerPerQuestion > 0 {
				quiz.TimerPerQuestion = body.TimerPerQuestion
			}
			if err := db.Create(&quiz).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": quiz})
		}).
		GET("/quizzes/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var quiz models.Quiz
			if err := db.
				Preload("Questions", func(db *gorm.DB) *gorm.DB {
					return db.Order("position asc")
				}).
				First(&quiz, params.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": quiz})
		}).
		DELETE("/quizzes/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var quiz models.Quiz
				if err := tx.First(&quiz, params.ID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return &types.NotFoundError{Resource: "quiz", ID: params.ID}
					}
					return err
				}
				var sessionIDs []uint
				if err := tx.Model(&models.QuizParticipant{}).Where("quiz_id = ?", quiz.ID).Pluck("id", &sessionIDs).Error; err != nil {
					return err
				}
				if len(sessionIDs) > 0 {
					if err := tx.Where("quiz_participant_id IN ?", sessionIDs).Delete(&models.QuizAnswer{}).Error; err != nil {
						return err
					}
				}
				if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizParticipant{}).Error; err != nil {
					return err
				}
				if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
					return err
				}
				return tx.Delete(&quiz).Error
			})
			if err != nil {
				log.Printf("Error deleting quiz [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/quizzes/:id/questions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.QuizQuestionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var quiz models.Quiz
			if err := db.First(&quiz, params.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			question := models.QuizQuestion{
				QuizID:        quiz.ID,
				Text:          body.Text,
				Options:       strings.Join(body.Options, ","),
				CorrectAnswer: body.CorrectAnswer,
			}
			if !question.HasOption(body.CorrectAnswer) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "correct answer must be one of the options"})
				return
			}
			var count int64
			if err := db.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error; err != nil {
				respondError(ctx, err)
				return
			}
			question.Position = uint(count) + 1
			if err := db.Create(&question).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": question})
		}).
		POST("/quizzes/:id/join", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.JoinQuizRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var quiz models.Quiz
			if err := db.First(&quiz, params.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			if quiz.Status == types.QUIZ_CLOSED {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "quiz is closed"})
				return
			}
			session := models.QuizParticipant{
				QuizID: quiz.ID,
				Name:   strings.TrimSpace(body.Name),
			}
			if err := db.Create(&session).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": session})
		}).
		POST("/quiz-sessions/:id/answers", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.SubmitQuizAnswersRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			session, err := common.SubmitQuizAnswers(params.ID, body.Answers)
			if err != nil {
				log.Printf("Error scoring quiz session [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": session})
		}).
		GET("/quizzes/:id/leaderboard", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			sessions, err := common.QuizLeaderboard(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": sessions})
		})
	return g
}
