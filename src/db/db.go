package db

import (
	"etms/src/config"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// NewDB swaps the package-level connection. Used by tests to inject a mock
// or in-memory database.
func NewDB(newdb *gorm.DB) {
	db = newdb
}

func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	dsn := config.GetDSN()
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Could not connect to database: %s\n", err.Error())
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("Could not access underlying connection: %s\n", err.Error())
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	db = conn
	return db
}
