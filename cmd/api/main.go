package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"facility-planner/internal/catalog"
	"facility-planner/internal/cleanup"
	"facility-planner/internal/config"
	"facility-planner/internal/database"
	"facility-planner/internal/defects"
	"facility-planner/internal/handlers"
	"facility-planner/internal/models"
	"facility-planner/internal/ratelimit"
	"facility-planner/internal/registry"
	"facility-planner/internal/scheduler"
	"facility-planner/internal/search"
	"facility-planner/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}
	applyEnvOverrides(appConfig)
	setupLogging(appConfig.Logging)

	loc := time.Local
	if appConfig.Timezone != "" {
		if loc, err = time.LoadLocation(appConfig.Timezone); err != nil {
			log.Fatalf("Invalid timezone %q: %v", appConfig.Timezone, err)
		}
	}

	// Reference data
	elementCatalog, err := catalog.Load(appConfig.Catalog.ElementsPath)
	if err != nil {
		log.Fatalf("Failed to load element catalog: %v", err)
	}
	if err := catalog.Validate(elementCatalog); err != nil {
		log.Fatalf("Invalid element catalog: %v", err)
	}
	categories, err := catalog.LoadCategories(appConfig.Catalog.CategoriesPath)
	if err != nil {
		log.Warnf("Failed to load categories from %s: %v", appConfig.Catalog.CategoriesPath, err)
		categories = []models.CategoryGroup{}
	}
	log.Printf("Loaded catalog with %d element names", len(elementCatalog))

	// Database
	db, err := database.Open(appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	log.Printf("Using %s database", appConfig.Database.Type)

	store := registry.NewStore(elementCatalog, defects.ParsePolicy(appConfig.Defects.MaterialChangePolicy), db)
	if err := store.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load working copy: %v", err)
	}

	files, err := storage.New(appConfig.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// Search is optional; routes fall back to scanning the working copy
	var (
		searchIndex handlers.SearchIndex
		indexer     scheduler.Indexer
		deindexer   cleanup.Deindexer
	)
	if appConfig.Search.Enabled {
		meili := appConfig.Search.Meilisearch
		searchClient := search.NewSearchClient(meili.Host, meili.APIKey, meili.Index)
		if err := searchClient.InitIndex(); err != nil {
			log.Warnf("Failed to initialize search index: %v. Search disabled.", err)
		} else {
			searchIndex, indexer, deindexer = searchClient, searchClient, searchClient
			log.Println("Meilisearch initialized")
		}
	}

	cleanupService := cleanup.NewService(store, db, deindexer)

	var cleaner scheduler.Cleaner
	if appConfig.Scheduler.Cleanup {
		cleaner = cleanupService
	}
	if !appConfig.Scheduler.Reindex {
		indexer = nil
	}
	appScheduler := scheduler.NewScheduler(store, indexer, cleaner, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	rl := appConfig.RateLimit
	rateLimiter := ratelimit.NewRateLimiter(ratelimit.Limits{
		PerMinute: rl.RequestsPerMinute,
		PerHour:   rl.RequestsPerHour,
		PerDay:    rl.RequestsPerDay,
	}, rl.Enabled)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	if appConfig.Logging.LogRequests {
		r.Use(gin.Logger())
	}
	r.MaxMultipartMemory = appConfig.Storage.MaxUploadBytes()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	handlers.RegisterRoutes(r, handlers.Deps{
		Store:         store,
		Categories:    categories,
		Files:         files,
		Search:        searchIndex,
		Scheduler:     appScheduler,
		Cleanup:       cleanupService,
		Limiter:       rateLimiter,
		Location:      loc,
		MaxUpload:     appConfig.Storage.MaxUploadBytes(),
		UploadTimeout: appConfig.Storage.GetUploadTimeout(),
		RetentionDays: appConfig.Cleanup.RetentionDays,
	})

	port := getEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// applyEnvOverrides lets deployment environments replace connection settings
func applyEnvOverrides(cfg *config.Config) {
	cfg.Database.Type = getEnv("DB_TYPE", cfg.Database.Type)

	switch cfg.Database.Type {
	case "mysql":
		m := &cfg.Database.MySQL
		m.Host = getEnvOrConfig(m.Host, "DB_HOST", "mysql")
		m.Port = getEnvInt("DB_PORT", m.Port, 3306)
		m.User = getEnvOrConfig(m.User, "DB_USER", "facility_user")
		m.Password = getEnvOrConfig(m.Password, "DB_PASSWORD", "")
		m.Database = getEnvOrConfig(m.Database, "DB_NAME", "facility_db")
	case "postgres":
		p := &cfg.Database.Postgres
		p.Host = getEnvOrConfig(p.Host, "DB_HOST", "postgres")
		p.Port = getEnvInt("DB_PORT", p.Port, 5432)
		p.User = getEnvOrConfig(p.User, "DB_USER", "facility_user")
		p.Password = getEnvOrConfig(p.Password, "DB_PASSWORD", "")
		p.Database = getEnvOrConfig(p.Database, "DB_NAME", "facility_db")
		p.SSLMode = getEnvOrConfig(p.SSLMode, "DB_SSLMODE", "disable")
	default:
		cfg.Database.SQLite.Path = getEnv("SQLITE_PATH", cfg.Database.SQLite.Path)
	}

	meili := &cfg.Search.Meilisearch
	meili.Host = getEnvOrConfig(meili.Host, "MEILISEARCH_HOST", "http://localhost:7700")
	meili.APIKey = getEnvOrConfig(meili.APIKey, "MEILISEARCH_API_KEY", "")

	minio := &cfg.Storage.Minio
	minio.AccessKey = getEnvOrConfig(minio.AccessKey, "MINIO_ACCESS_KEY", "")
	minio.SecretKey = getEnvOrConfig(minio.SecretKey, "MINIO_SECRET_KEY", "")
}

func setupLogging(cfg config.LoggingConfig) {
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	gin.SetMode(getEnv("GIN_MODE", gin.ReleaseMode))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnvInt(envKey string, configValue, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	v, err := strconv.Atoi(getEnv(envKey, fmt.Sprint(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}
