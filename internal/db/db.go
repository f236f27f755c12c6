package db

import (
	"log"
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/config"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Service{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// One active appointment per (organization, slot). The partial
	// index is the hard guarantee behind the locked conflict check.
	db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS uidx_appointments_active_slot
        ON appointments (organization_id, scheduled_at)
        WHERE status IN ('pending', 'confirmed')
    `)

	return db
}
