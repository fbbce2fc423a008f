package main

import (
	"errors"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"etms/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			db := db.GetDb()
			var events []models.Event
			if err := db.Order("date desc").Find(&events).Error; err != nil {
				log.Printf("Error listing events: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := utils.CreateNewEvent(&body)
			if err != nil {
				log.Printf("Error creating event: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": event})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
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
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		PATCH("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := utils.UpdateEvent(params.ID, &body)
			if err != nil {
				log.Printf("Error updating event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		DELETE("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.DeleteEvent(params.ID); err != nil {
				log.Printf("Error deleting event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/events/:id/stats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			stats, err := utils.GetEventStats(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stats})
		}).
		GET("/events/:id/certificate-config", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
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
			ctx.JSON(http.StatusOK, gin.H{
				"data":    event.CertificateConfig,
				"updated": event.CertificateConfigUpdated,
			})
		}).
		PUT("/events/:id/certificate-config", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CertificateConfigRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := utils.UpdateCertificateConfig(params.ID, &body)
			if err != nil {
				log.Printf("Error updating certificate config [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event.CertificateConfig})
		})
	return g
}
