package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/config"
	"github.com/vnkhanh/e-learning-backend/routes"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/storage"
	"github.com/vnkhanh/e-learning-backend/utils"
	"github.com/vnkhanh/e-learning-backend/ws"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	store := storage.New(db)
	hub := ws.NewHub()

	var assets services.AssetStore
	if cfg.SupabaseURL != "" {
		assets = utils.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	} else {
		log.Println("SUPABASE_URL not set, thumbnail uploads disabled")
	}

	var generator services.QuestionGenerator
	if cfg.GeminiAPIKey != "" {
		generator = services.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Println("GEMINI_API_KEY not set, question generation disabled")
	}

	users := services.NewUserService(store)
	catalog := services.NewCatalogService(store, assets, hub)
	enrollments := services.NewEnrollmentService(store, hub, cfg.CertificateBaseURL)
	quiz := services.NewQuizService(store, enrollments, generator, services.NewPDFReader(cfg.DocumentTimeout))
	moderation := services.NewModerationService(store, hub)

	utils.RunStartupCleanup(context.Background(), moderation)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	routes.SetupRouter(r, routes.Deps{
		DB:              db,
		Hub:             hub,
		Tokens:          utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Users:           users,
		Catalog:         catalog,
		Enrollments:     enrollments,
		Quiz:            quiz,
		Moderation:      moderation,
		Recommendations: services.NewRecommendationClient(cfg.RecommendationURL, cfg.RecommendationTimeout),
	})

	r.GET("/", func(c *gin.Context) {
		c.String(200, "E-learning server is running")
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("Server running at Port:" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("server exited")
}
