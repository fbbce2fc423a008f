package main

import (
	"etms/src/common"
	"etms/src/db"
	"etms/src/models"
	"etms/src/types"
	"etms/src/utils"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func certificateHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events/:id/certificates", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var certs []models.Certificate
			if err := db.
				Where("event_id = ?", params.ID).
				Order("id asc").
				Find(&certs).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": certs})
		}).
		POST("/events/:id/certificates", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				Reissue bool `json:"reissue,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			issued, skipped, errs, err := utils.IssueCertificatesForEvent(params.ID, body.Reissue)
			if err != nil {
				log.Printf("Error issuing certificates for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"issued":  issued,
				"skipped": skipped,
				"errors":  errs,
			})
		}).
		POST("/participants/:id/certificate", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cert, err := utils.IssueCertificate(params.ID, false)
			if err != nil {
				log.Printf("Error issuing certificate for participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": cert})
		}).
		POST("/participants/:id/certificate/reissue", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cert, err := utils.IssueCertificate(params.ID, true)
			if err != nil {
				log.Printf("Error reissuing certificate for participant [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": cert})
		}).
		GET("/certificates/:id/download", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := common.RenderCertificateByID(params.ID)
			if err != nil {
				log.Printf("Error rendering certificate [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
			ctx.Data(http.StatusOK, result.MimeType, result.Content)
		}).
		GET("/certificates/:id/preview", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := common.PreviewCertificateHTML(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Data(http.StatusOK, "text/html; charset=utf-8", result)
		}).
		GET("/certificates/:id/url", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			url, err := common.CertificateArtifactURL(params.ID)
			if err != nil {
				log.Printf("Error preparing download URL for certificate [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		})
	return g
}
