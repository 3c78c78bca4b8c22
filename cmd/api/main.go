package main

import (
	"fmt"
	"log"

	"cmdgate/internal/config"
	"cmdgate/internal/db"
	httpserver "cmdgate/internal/http"
	"cmdgate/internal/models"
	"cmdgate/internal/ratelimit"
	"cmdgate/internal/seed"
	"cmdgate/internal/store"
)

func main() {
	cfg := config.Load()

	var st store.Store
	if cfg.DSN != "" {
		gdb := db.Connect(cfg.DSN)
		db.AutoMigrate(gdb,
			&models.User{},
			&models.Rule{},
			&models.Command{},
			&models.AuditLog{},
		)
		st = store.NewGorm(gdb)
	} else {
		log.Println("⚠️ GATEWAY_DSN not set, using in-memory store (data is not persisted)")
		st = store.NewMemory()
	}

	if err := seed.FirstSetup(st, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		l, err := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, 0)
		if err != nil {
			log.Fatalf("❌ Redis rate limiter setup failed: %v", err)
		}
		limiter = l
		log.Println("✅ Redis rate limiter enabled")
	} else {
		limiter = ratelimit.NewMemory(ratelimit.MemoryConfig{})
	}

	r := httpserver.NewRouter(st, limiter, httpserver.RouterConfig{
		JWTSecret:    cfg.JWTSecret,
		SubmitLimit:  cfg.SubmitLimit,
		SubmitWindow: cfg.SubmitWindow,
	})
	log.Printf("🚀 Server listening on :%s\n", cfg.AppPort)
	r.Run(fmt.Sprintf(":%s", cfg.AppPort))
}
