package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mlsmap/internal/application"
	"mlsmap/internal/config"
	domainrepo "mlsmap/internal/domain/repository"
	"mlsmap/internal/domain/strategy"
	"mlsmap/internal/handler"
	"mlsmap/internal/infrastructure/database"
	fsinfra "mlsmap/internal/infrastructure/firestore"
	"mlsmap/internal/infrastructure/mls"
	repoImpl "mlsmap/internal/repository"
	"mlsmap/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// Listings read path for the recommendation strategies.
	checkers := map[string]handler.HealthChecker{}
	var listingsRepo domainrepo.ListingsRepository
	switch cfg.ListingsBackend {
	case config.BackendPostgres:
		pgClient, err := database.NewPostgreSQLClient()
		if err != nil {
			log.Fatalf("PostgreSQL initialization failed: %v", err)
		}
		defer pgClient.Close()
		checkers["postgres"] = pgClient
		listingsRepo = repoImpl.NewPostgresListingsRepository(pgClient)
		log.Println("✅ listings backend: PostgreSQL")
	default:
		supabaseClient, err := database.NewSupabaseClient()
		if err != nil {
			log.Fatalf("Supabase initialization failed: %v", err)
		}
		checkers["supabase"] = supabaseClient
		listingsRepo = repoImpl.NewSupabaseListingsRepository(supabaseClient)
		log.Println("✅ listings backend: Supabase")
	}

	// Viewport transport; each map session gets its own loader on top of it.
	mlsClient := mls.NewClient(cfg.ListingsServiceURL)
	discoveryUseCase := usecase.NewMapDiscoveryUseCase(mlsClient, application.LoaderConfig{})
	defer discoveryUseCase.Close()

	// Optional swipe journal shared by every queue session.
	var swipeRepo domainrepo.SwipeEventsRepository
	if cfg.FirestoreProjectID != "" {
		fsClient, err := fsinfra.NewFirestoreClient(context.Background(), cfg.FirestoreProjectID)
		if err != nil {
			log.Fatalf("Firestore initialization failed: %v", err)
		}
		defer fsClient.Close()
		swipeRepo = repoImpl.NewFirestoreSwipeRepository(fsClient)
		log.Println("✅ swipe journaling enabled")
	}

	queueUseCase := usecase.NewQueueUseCase(
		strategy.NewMapProximityStrategy(listingsRepo),
		strategy.NewNeighborhoodStrategy(listingsRepo),
		strategy.NewSemanticStrategy(),
		swipeRepo,
	)

	markersHandler := handler.NewMarkersHandler(discoveryUseCase)
	queueHandler := handler.NewQueueHandler(queueUseCase)
	healthHandler := handler.NewHealthHandler(checkers)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "X-Session-Id"}
	router.Use(cors.New(corsConfig))

	router.GET("/api/health", healthHandler.GetHealth)
	router.GET("/api/map/markers", markersHandler.GetMarkers)

	queueRoutes := router.Group("/api/queue")
	{
		queueRoutes.POST("/initialize", queueHandler.PostInitialize)
		queueRoutes.GET("/next", queueHandler.GetNext)
		queueRoutes.GET("/peek", queueHandler.GetPeek)
		queueRoutes.POST("/exclude", queueHandler.PostExclude)
		queueRoutes.POST("/reset", queueHandler.PostReset)
		queueRoutes.GET("/state", queueHandler.GetState)
	}

	log.Printf("mlsmap server starting on :%s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
