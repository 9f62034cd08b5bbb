package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/studybuddy/study-buddy-api/api/swagger"
	"github.com/studybuddy/study-buddy-api/internal/catalog"
	"github.com/studybuddy/study-buddy-api/internal/handler"
	"github.com/studybuddy/study-buddy-api/internal/middleware"
	"github.com/studybuddy/study-buddy-api/internal/repository"
	"github.com/studybuddy/study-buddy-api/internal/service"
	"github.com/studybuddy/study-buddy-api/pkg/cache"
	"github.com/studybuddy/study-buddy-api/pkg/config"
	"github.com/studybuddy/study-buddy-api/pkg/database"
	"github.com/studybuddy/study-buddy-api/pkg/logger"
	corsmiddleware "github.com/studybuddy/study-buddy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studybuddy/study-buddy-api/pkg/middleware/requestid"
)

// @title Study Buddy API
// @version 1.0.0
// @description Study partner matching for university courses
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Matches.CacheTTL, logr)
	}

	courseCatalog := catalog.New(cfg.Catalog.Path, logr)
	courseCatalog.Load()
	if courseCatalog.Len() == 0 {
		logr.Warn("course catalog is empty, enrollment is disabled until the catalog file is fixed",
			zap.String("path", cfg.Catalog.Path))
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
	})
	catalogSvc := service.NewCatalogService(courseCatalog, cacheSvc, cfg.Catalog.CacheTTL, logr)
	courseSvc := service.NewCourseService(courseRepo, courseCatalog, validate, logr)
	matchSvc := service.NewMatchService(matchRepo, userRepo, courseRepo, cacheSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, courseRepo, userRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	matchHandler := handler.NewMatchHandler(matchSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.GET("/catalog", catalogHandler.List)
		api.GET("/catalog/search", catalogHandler.Search)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/courses", courseHandler.List)
		authed.POST("/courses", courseHandler.Create)
		authed.DELETE("/courses/:id", courseHandler.Delete)
		authed.GET("/courses/:id/users", courseHandler.Users)
		authed.GET("/courses/:id/messages", messageHandler.ListCourseMessages)
		authed.POST("/courses/:id/messages", messageHandler.PostCourseMessage)

		authed.GET("/matches", matchHandler.List)
		authed.POST("/matches", matchHandler.Create)
		authed.PATCH("/matches/:id", matchHandler.Respond)
		authed.DELETE("/matches", matchHandler.Withdraw)

		authed.GET("/dm", messageHandler.Conversation)
		authed.POST("/dm", messageHandler.SendDirectMessage)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
