package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/TailwagServices/clinic-scheduler/internal/config"
	dbpkg "github.com/TailwagServices/clinic-scheduler/internal/db"
	"github.com/TailwagServices/clinic-scheduler/internal/idempotency"
	"github.com/TailwagServices/clinic-scheduler/internal/middleware"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
	"github.com/TailwagServices/clinic-scheduler/internal/routes"
)

func main() {

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	idem := idempotency.New(rdb)

	publisher := notify.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
	defer publisher.Close()

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, db, idem, publisher, cfg)

	log.Printf("Server running on %s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
