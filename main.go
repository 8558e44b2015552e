package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/souqline/souqline-api/auth"
	"github.com/souqline/souqline-api/models"
	"github.com/souqline/souqline-api/routes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	_ = godotenv.Load()

	db := initDatabase()

	if err := db.AutoMigrate(
		&models.User{},
		&models.GuestUser{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.GuestCart{},
		&models.GuestCartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		slog.Error("automigrate failed", "error", err)
		os.Exit(1)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sweep abandoned guest carts daily at 03:00.
	go startGuestCartSweeper(ctx, db, auth.GuestRetention, 3, 0)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// initDatabase sets up the GORM DB connection.
func initDatabase() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	return db
}

// startGuestCartSweeper deletes guest carts and guest identities older
// than the retention window, once a day at a fixed hour.
func startGuestCartSweeper(ctx context.Context, db *gorm.DB, retention time.Duration, hour, min int) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		slog.Info("next guest cart sweep scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		sweepGuestCarts(db, retention)
	}
}

func sweepGuestCarts(db *gorm.DB, retention time.Duration) {
	cutoff := time.Now().Add(-retention)

	var stale []models.GuestCart
	if err := db.Where("updated_at < ?", cutoff).Find(&stale).Error; err != nil {
		slog.Error("guest cart sweep failed", "error", err)
		return
	}

	for _, guestCart := range stale {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("cart_id = ?", guestCart.CartID).Delete(&models.GuestCartItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&guestCart).Error
		})
		if err != nil {
			slog.Error("failed to remove stale guest cart", "guest_id", guestCart.GuestID, "error", err)
		}
	}

	if err := db.Where("expires_at < ?", time.Now()).Delete(&models.GuestUser{}).Error; err != nil {
		slog.Error("failed to remove expired guests", "error", err)
		return
	}

	if len(stale) > 0 {
		slog.Info("guest cart sweep complete", "removed", len(stale))
	}
}
