package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"vtfitness_api/internal/handlers"
	appMiddleware "vtfitness_api/internal/middleware"
	"vtfitness_api/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migration
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; report endpoints fall back to direct queries
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	} else {
		log.Println("REDIS_URL not set, report caching disabled")
	}

	// Wire up services
	var identity services.IdentityProvider
	if authClient != nil {
		identity = services.NewFirebaseIdentity(authClient)
	}
	emailService := services.NewEmailService()

	balanceService := services.NewBalanceService(db)
	paymentService := services.NewPaymentService(db, balanceService, emailService)
	enrollmentService := services.NewEnrollmentService(db, identity, emailService)
	installmentService := services.NewInstallmentService(db)
	forecastService := services.NewForecastService(db, cache)
	midtransService := services.NewMidtransService()
	gatewayService := services.NewGatewayService(db, midtransService, installmentService)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Initialize handlers
	memberHandler := handlers.NewMemberHandler(db, enrollmentService, balanceService)
	balanceHandler := handlers.NewBalanceHandler(balanceService, paymentService)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService, balanceService)
	planHandler := handlers.NewPlanHandler(db)
	installmentHandler := handlers.NewInstallmentHandler(installmentService, forecastService, gatewayService)
	notifPrefHandler := handlers.NewNotifPreferenceHandler(db)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Gateway callbacks are unauthenticated; Midtrans calls them directly
	e.POST("/api/callbacks/midtrans", installmentHandler.MidtransCallback)

	// Protected API routes
	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))

	// Member routes
	api.POST("/members", memberHandler.Enroll)
	api.GET("/members", memberHandler.List)
	api.GET("/members/:id", memberHandler.Get)
	api.PUT("/members/:id", memberHandler.Update)
	api.DELETE("/members/:id", memberHandler.Delete)
	api.GET("/members/:id/notification-preference", notifPrefHandler.Get)
	api.PUT("/members/:id/notification-preference", notifPrefHandler.Set)

	// Balance routes
	api.GET("/balance/members-with-balance", balanceHandler.MembersWithBalance)
	api.GET("/balance/member/:id", balanceHandler.MemberBalance)
	api.POST("/balance/record-partial-payment", balanceHandler.RecordPartialPayment)
	api.GET("/balance/summary", balanceHandler.Summary)

	// Payment routes
	api.POST("/payments", paymentHandler.Create)
	api.GET("/payments", paymentHandler.List)
	api.GET("/payments/:id", paymentHandler.Get)
	api.PUT("/payments/:id", paymentHandler.Update)
	api.DELETE("/payments/:id", paymentHandler.Delete)

	// Plan catalog routes
	api.POST("/plans", planHandler.Create)
	api.GET("/plans", planHandler.List)
	api.GET("/plans/:id", planHandler.Get)
	api.PUT("/plans/:id", planHandler.Update)
	api.DELETE("/plans/:id", planHandler.Delete)

	// Installment routes
	api.POST("/installments/plans", installmentHandler.CreatePlan)
	api.GET("/installments/plans", installmentHandler.ListPlans)
	api.GET("/installments/plans/:id", installmentHandler.GetPlan)
	api.DELETE("/installments/plans/:id", installmentHandler.CancelPlan)
	api.GET("/installments/payments", installmentHandler.ListPayments)
	api.GET("/installments/payments/due", installmentHandler.ListDue)
	api.GET("/installments/payments/overdue", installmentHandler.ListOverdue)
	api.POST("/installments/payments/:id/pay", installmentHandler.PayInstallment)
	api.POST("/installments/payments/:id/checkout", installmentHandler.Checkout)
	api.GET("/installments/revenue-forecast", installmentHandler.RevenueForecast)
	api.GET("/installments/analytics", installmentHandler.Analytics)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
