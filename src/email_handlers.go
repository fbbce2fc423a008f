package main

import (
	"errors"
	"etms/src/common"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func emailHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events/:id/emails/tickets", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.SendEmailsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			mode := body.Mode
			if mode == "" {
				mode = "all"
			}
			if mode == "selected" && len(body.Participants) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "selected mode requires participant ids"})
				return
			}
			report, err := common.SendTicketEmails(params.ID, mode, body.Participants)
			if err != nil {
				log.Printf("Error sending ticket emails for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": report})
		}).
		POST("/participants/:id/emails/ticket", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var participant models.Participant
			if err := db.First(&participant, params.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			var event models.Event
			if err := db.First(&event, participant.EventID).Error; err != nil {
				respondError(ctx, err)
				return
			}
			if err := common.SendTicketEmail(&event, &participant); err != nil {
				log.Printf("Error sending ticket email to participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": participant})
		}).
		POST("/events/:id/emails/certificates", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			report, err := common.SendCertificateEmails(params.ID)
			if err != nil {
				log.Printf("Error sending certificate emails for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": report})
		})
	return g
}
