package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lexengageAPI/handlers"
	"lexengageAPI/internal/metrics"
	"lexengageAPI/internal/notification"
	"lexengageAPI/internal/workers"
	"lexengageAPI/internal/xp"
	"lexengageAPI/middleware"
	"lexengageAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	xpConfig            xp.Config
	notificationService *services.NotificationService
	userService         *services.UserService
	xpService           *services.XPService
	streakService       *services.StreakService
	challengeService    *services.ChallengeService
	leaderboardService  *services.LeaderboardService
	wishlistService     *services.WishlistService
	scheduler           *workers.Scheduler
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to NeonDB")

	xpConfig = xp.DefaultConfig()
	if v := os.Getenv("XP_CONVERSION_RATE_CENTS"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			xpConfig.ConversionRateCents = rate
		}
	}

	randomizer := xp.NewRandomizer(rand.NewSource(time.Now().UnixNano()))

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	xpService = services.NewXPService(dbPool, xpConfig, randomizer, notificationService)
	streakService = services.NewStreakService(dbPool, xpService, notificationService)
	challengeService = services.NewChallengeService(dbPool, xpService, notificationService)
	leaderboardService = services.NewLeaderboardService(dbPool, notificationService)
	wishlistService = services.NewWishlistService(dbPool, xpService, notificationService)
	scheduler = workers.NewScheduler(streakService, leaderboardService, wishlistService)

	fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.Dispatcher().SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	emailProvider, err := notification.NewResendEmailProvider()
	if err != nil {
		log.Printf("Warning: Could not initialize Resend: %v", err)
	} else {
		notificationService.Dispatcher().SetEmailProvider(emailProvider)
		log.Println("Resend Email Provider initialized successfully")
	}

	middleware.InitPrometheus()
	metrics.Init()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	xpHandler := handlers.NewXPHandler(xpService, userService, xpConfig)
	eventHandler := handlers.NewEventHandler(xpService, streakService, challengeService, userService)
	streakHandler := handlers.NewStreakHandler(streakService, userService)
	challengeHandler := handlers.NewChallengeHandler(challengeService, userService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, userService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService, xpService, wishlistService)
	jobsHandler := handlers.NewJobsHandler(streakService, leaderboardService, wishlistService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "lexengage-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	api.HandleFunc("/webhooks/orders", webhookHandler.HandleOrderWebhook).Methods("POST")

	api.HandleFunc("/challenges", challengeHandler.GetActiveChallenges).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/events", eventHandler.TrackEvent).Methods("POST")
	protected.HandleFunc("/engagement/summary", eventHandler.GetSummary).Methods("GET")

	protected.HandleFunc("/xp", xpHandler.GetXPState).Methods("GET")
	protected.HandleFunc("/xp/state", xpHandler.GetXPState).Methods("GET")
	protected.HandleFunc("/xp/ledger", xpHandler.GetLedger).Methods("GET")
	protected.HandleFunc("/xp/redeem", xpHandler.Redeem).Methods("POST")

	protected.HandleFunc("/streak", streakHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak/check-in", streakHandler.CheckIn).Methods("POST")
	protected.HandleFunc("/streak/settings", streakHandler.UpdateSettings).Methods("PUT")

	protected.HandleFunc("/challenges/mine", challengeHandler.GetUserChallenges).Methods("GET")
	protected.HandleFunc("/challenges/{id}/enroll", challengeHandler.Enroll).Methods("POST")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/rank", leaderboardHandler.GetRank).Methods("GET")

	protected.HandleFunc("/wishlist", wishlistHandler.GetWishlist).Methods("GET")
	protected.HandleFunc("/wishlist", wishlistHandler.AddItem).Methods("POST")
	protected.HandleFunc("/wishlist/{productId}", wishlistHandler.RemoveItem).Methods("DELETE")
	protected.HandleFunc("/wishlist/alerts", wishlistHandler.GetAlerts).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/test", notificationHandler.SendTestNotification).Methods("POST")

	// -------------------------------------------------------------------------
	// ADMIN ROUTES (SHARED SECRET)
	// -------------------------------------------------------------------------
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.JobsSecurityMiddleware)

	admin.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	admin.HandleFunc("/xp/award", xpHandler.Award).Methods("POST")
	admin.HandleFunc("/jobs/streak-scan", jobsHandler.RunStreakScan).Methods("POST")
	admin.HandleFunc("/jobs/leaderboard-compute", jobsHandler.RunLeaderboardCompute).Methods("POST")
	admin.HandleFunc("/jobs/wishlist-sweep", jobsHandler.RunWishlistSweep).Methods("POST")

	scheduler.Start()

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret", "X-Jobs-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	scheduler.Stop()
	notificationService.Dispatcher().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
