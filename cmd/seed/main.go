package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campsite/internal/config"
	"campsite/internal/database"
	"campsite/internal/docstore"
	"campsite/internal/domain"
	"campsite/internal/modules/catalog"
	"campsite/internal/repository"
)

// Default price tables for a fresh deployment, in pesos. Every catalog site
// type must appear here or seeding fails the completeness check on purpose.
var defaultDailyPrices = domain.PriceTable{
	"A": 350, "B": 300, "C": 300, "D": 250, "E": 450, "F": 400, "G": 500,
}

var defaultMonthlyPrices = domain.PriceTable{
	"A": 5200, "B": 4500, "C": 4500, "D": 3800, "E": 6800, "F": 6000, "G": 7500,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	reset := flag.Bool("reset", false, "wipe existing reservations before provisioning")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	catalogService, err := catalog.NewService(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store connection failed")
	}
	defer store.Close()

	reservationStore := repository.NewReservationStore(store, catalogService, repository.Config{
		StaleAfter: cfg.SessionStaleAfter,
		OpTimeout:  cfg.StoreOpTimeout,
	})

	ctx := context.Background()

	for _, siteID := range catalogService.SiteIDs() {
		if *reset {
			if err := reservationStore.ResetSite(ctx, siteID); err != nil {
				log.Fatal().Err(err).Str("site", string(siteID)).Msg("reset failed")
			}
			continue
		}
		if err := reservationStore.ProvisionSite(ctx, siteID); err != nil {
			log.Fatal().Err(err).Str("site", string(siteID)).Msg("provisioning failed")
		}
	}
	log.Info().Int("sites", len(catalogService.SiteIDs())).Bool("reset", *reset).Msg("sites provisioned")

	seedPrices(ctx, reservationStore, domain.PriceDaily, defaultDailyPrices)
	seedPrices(ctx, reservationStore, domain.PriceMonthly, defaultMonthlyPrices)
}

// seedPrices writes the default table only when none is stored yet, so
// re-running the seeder never clobbers operator-maintained prices.
func seedPrices(ctx context.Context, store *repository.ReservationStore, kind domain.PriceKind, table domain.PriceTable) {
	if _, err := store.FetchPriceTable(ctx, kind); err == nil {
		log.Info().Str("kind", string(kind)).Msg("price table already present, keeping it")
		return
	}
	if err := store.ReplacePriceTable(ctx, kind, table); err != nil {
		log.Fatal().Err(err).Str("kind", string(kind)).Msg("price seeding failed")
	}
	log.Info().Str("kind", string(kind)).Int("entries", len(table)).Msg("price table seeded")
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
