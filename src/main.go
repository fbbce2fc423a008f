package main

import (
	"errors"
	"etms/src/boot"
	"etms/src/config"
	"etms/src/types"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const apiPrefix = "/api/v1"

var eventDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	return err == nil
}

func respondError(ctx *gin.Context, err error) {
	var nf *types.NotFoundError
	var ve *types.ValidationError
	var de *types.DuplicateError
	var se *types.SendError
	switch {
	case errors.As(err, &nf):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &ve):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &de):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("Unhandled error: %s\n", err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("eventdate", eventDateValidatorFunc)
	}

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})

	apiv1 := router.Group(apiPrefix)
	eventHandlers(apiv1)
	participantHandlers(apiv1)
	certificateHandlers(apiv1)
	emailHandlers(apiv1)
	quizHandlers(apiv1)
	uploadHandlers(apiv1)

	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	defer boot.StopScheduler()

	router := setupRouter()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = []string{allowedOrigins}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server exited: %s\n", err.Error())
	}
}
