package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campsite/internal/config"
	"campsite/internal/database"
	"campsite/internal/docstore"
	"campsite/internal/middleware"
	"campsite/internal/modules/auth"
	"campsite/internal/modules/catalog"
	"campsite/internal/modules/feed"
	"campsite/internal/modules/pricing"
	"campsite/internal/modules/reservation"
	jwtsvc "campsite/internal/pkg/jwt"
	"campsite/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	catalogService, err := catalog.NewService(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	log.Info().Int("site_types", catalogService.TypeCount()).
		Int("sites", len(catalogService.SiteIDs())).Msg("catalog loaded")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store connection failed")
	}
	defer store.Close()

	reservationStore := repository.NewReservationStore(store, catalogService, repository.Config{
		StaleAfter: cfg.SessionStaleAfter,
		OpTimeout:  cfg.StoreOpTimeout,
	})

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := feed.NewHub()
	defer hub.Close()

	authService := auth.NewService(cfg.AdminUser, cfg.AdminPasswordHash, j)
	authHandler := auth.NewHandler(authService)

	catalogHandler := catalog.NewHandler(catalogService)

	reservationService := reservation.NewService(reservationStore, catalogService, hub)
	reservationHandler := reservation.NewHandler(reservationService)

	pricingService := pricing.NewService(reservationStore)
	pricingHandler := pricing.NewHandler(pricingService)

	feedHandler := feed.NewHandler(hub)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.CORS(), gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		reservationHandler.RegisterPublicRoutes(v1)
		pricingHandler.RegisterPublicRoutes(v1)
		feedHandler.RegisterRoutes(v1)

		admin := v1.Group("/")
		admin.Use(middleware.AdminAuth(j))
		{
			reservationHandler.RegisterAdminRoutes(admin)
			pricingHandler.RegisterAdminRoutes(admin)
		}
	}

	log.Info().Str("addr", cfg.ListenAddr).Str("backend", cfg.StoreBackend).Msg("starting api")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	if cfg.StoreBackend == "redis" {
		return docstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKeyPrefix), nil
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return docstore.NewSQLStore(db)
}
