package pricing

import (
	"context"

	"github.com/rs/zerolog/log"

	"campsite/internal/domain"
)

// PriceStore is the pricing-facing slice of the store adapter.
type PriceStore interface {
	FetchPriceTable(ctx context.Context, kind domain.PriceKind) (domain.PriceTable, error)
	ReplacePriceTable(ctx context.Context, kind domain.PriceKind, table domain.PriceTable) error
}

// Service maintains the daily and monthly price tables. The two tables are
// independent; each update replaces its table wholesale and is refused
// outright unless every site type is priced.
type Service struct {
	store PriceStore
}

func NewService(store PriceStore) *Service {
	return &Service{store: store}
}

// Prices returns the requested table.
func (s *Service) Prices(ctx context.Context, kind domain.PriceKind) (domain.PriceTable, error) {
	return s.store.FetchPriceTable(ctx, kind)
}

// UpdatePrices replaces the table. On any failure nothing was written: the
// adapter validates completeness before touching the store.
func (s *Service) UpdatePrices(ctx context.Context, kind domain.PriceKind, table domain.PriceTable) error {
	if err := s.store.ReplacePriceTable(ctx, kind, table); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("price table update refused")
		return err
	}
	log.Info().Str("kind", string(kind)).Int("entries", len(table)).Msg("price table replaced")
	return nil
}

// Quote is the per-night and per-month price for one site type, as shown on
// the reservation submission view.
type Quote struct {
	SiteType domain.SiteType `json:"site_type"`
	Daily    float64         `json:"daily"`
	Monthly  float64         `json:"monthly"`
}

// QuoteForSite looks up both tables for the site's type.
func (s *Service) QuoteForSite(ctx context.Context, siteID domain.SiteID) (Quote, error) {
	daily, err := s.store.FetchPriceTable(ctx, domain.PriceDaily)
	if err != nil {
		return Quote{}, err
	}
	monthly, err := s.store.FetchPriceTable(ctx, domain.PriceMonthly)
	if err != nil {
		return Quote{}, err
	}
	t := siteID.Type()
	return Quote{SiteType: t, Daily: daily[t], Monthly: monthly[t]}, nil
}
