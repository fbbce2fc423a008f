package main

import (
	"etms/src/common"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"etms/src/utils"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func participantHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events/:id/participants", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var participants []models.Participant
			if err := db.
				Where("event_id = ?", params.ID).
				Preload("Certificate").
				Order("id asc").
				Find(&participants).Error; err != nil {
				log.Printf("Error listing participants for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": participants})
		}).
		POST("/events/:id/participants", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AddParticipantRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			participant, err := utils.AddParticipant(params.ID, body.Name, body.Email)
			if err != nil {
				log.Printf("Error adding participant to event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": participant})
		}).
		POST("/events/:id/participants/upload", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			fileHeader, err := ctx.FormFile("file")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
				return
			}
			file, err := fileHeader.Open()
			if err != nil {
				respondError(ctx, err)
				return
			}
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				respondError(ctx, err)
				return
			}
			report, err := utils.ImportParticipants(params.ID, data)
			if err != nil {
				log.Printf("Error importing participants for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": report})
		}).
		DELETE("/participants/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.DeleteParticipant(params.ID); err != nil {
				log.Printf("Error deleting participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/participants/:id/checkin", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			participant, err := utils.CheckInParticipant(params.ID)
			if err != nil {
				log.Printf("Error on check-in for participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": participant})
		}).
		POST("/participants/:id/undo-checkin", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			participant, err := utils.UndoCheckIn(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": participant})
		}).
		GET("/participants/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var participant models.Participant
			if err := db.First(&participant, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			qr, err := common.TicketQRCode(participant.TicketNumber)
			if err != nil {
				log.Printf("Error generating QR for participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Data(http.StatusOK, "image/png", qr)
		})
	return g
}
