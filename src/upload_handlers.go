package main

import (
	"etms/src/config"
	awslib "etms/src/lib/aws"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const uploadURLTTL = 24 * time.Hour

// uploadHandlers stores event logos and signature images. Local
// environments write to the uploads directory; everything else goes to S3.
func uploadHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/uploads", func(ctx *gin.Context) {
			fileHeader, err := ctx.FormFile("file")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
				return
			}
			ext := filepath.Ext(fileHeader.Filename)
			filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

			if os.Getenv("API_ENV") == "local" {
				dest := path.Join(config.UploadsDir(), filename)
				if err := ctx.SaveUploadedFile(fileHeader, dest); err != nil {
					log.Printf("Error saving upload %s: %s\n", filename, err.Error())
					respondError(ctx, err)
					return
				}
				ctx.JSON(http.StatusCreated, gin.H{
					"filename": filename,
					"url":      fmt.Sprintf("/uploads/%s", filename),
				})
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
			contentType := fileHeader.Header.Get("Content-Type")
			if contentType == "" {
				contentType = http.DetectContentType(data)
			}
			url, err := awslib.S3UploadObject(path.Join("uploads", filename), data, contentType, uploadURLTTL)
			if err != nil {
				log.Printf("Error uploading %s to S3: %s\n", filename, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"filename": filename,
				"url":      url,
			})
		}).
		GET("/uploads/:filename", func(ctx *gin.Context) {
			if os.Getenv("API_ENV") != "local" {
				ctx.Status(http.StatusNotFound)
				return
			}
			var params struct {
				Filename string `uri:"filename" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.File(path.Join(config.UploadsDir(), path.Clean("/"+params.Filename)))
		})
	return g
}
