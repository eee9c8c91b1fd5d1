package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"schoolpay_backend/internal/handlers"
	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			log.Println("Continuing without cache; reconcile locking degrades to the DB constraint")
			cache = nil
		}
	}

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}
	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Admin endpoints will reject all requests until credentials are provided")
	}

	store := services.NewGormStore(db)
	gateway := services.NewPaystackService()

	feeService := services.NewFeeService(store, cache)
	paymentService := services.NewPaymentService(store, gateway)
	receiptService := services.NewReceiptService(store)
	reconcileService := services.NewReconcileService(store, gateway, cache, receiptService)
	lookupService := services.NewLookupService(store, receiptService)
	exportService := services.NewExportService(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	studentHandler := handlers.NewStudentHandler(store, feeService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, reconcileService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	verifyHandler := handlers.NewVerifyHandler(lookupService)
	adminHandler := handlers.NewAdminHandler(db, cache, store, feeService, exportService)

	api := e.Group("/api")
	api.POST("/students/activate", studentHandler.Activate)
	api.GET("/fees", studentHandler.ListFees)
	api.POST("/payments/initiate", paymentHandler.Initiate)
	api.POST("/payments/reconcile", paymentHandler.Reconcile)
	api.GET("/receipts/:reference", receiptHandler.Get)
	api.POST("/verify", verifyHandler.Verify)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(authClient))
	admin.POST("/fees", adminHandler.CreateFee)
	admin.PUT("/fees/:id", adminHandler.UpdateFee)
	admin.POST("/fees/:id/toggle", adminHandler.ToggleFee)
	admin.GET("/analytics", adminHandler.Analytics)
	admin.GET("/payments/export", adminHandler.ExportPayments)
	admin.POST("/reminders", adminHandler.CreateReminder)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
