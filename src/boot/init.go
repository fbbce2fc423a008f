package boot

import (
	"etms/src/common"
	"etms/src/db"
	"etms/src/lib"
	"etms/src/models"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Event{},
		&models.Participant{},
		&models.Certificate{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizParticipant{},
		&models.QuizAnswer{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(common.ExpireStaleQuizSessions, 5*time.Minute)
	if err != nil {
		log.Printf("Error scheduling quiz session sweep: %s\n", err.Error())
		return
	}
	log.Printf("Scheduled quiz session sweep: %s\n", *id)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
