package reservation

import (
	"context"

	"campsite/internal/domain"
)

// Store is the reservation-facing slice of the store adapter.
type Store interface {
	FetchAllReservations(ctx context.Context) (map[domain.SiteID]domain.ReservationSet, error)
	FetchReservationsForSite(ctx context.Context, siteID domain.SiteID) (domain.ReservationSet, error)
	FetchSiteIDs(ctx context.Context) ([]domain.SiteID, error)
	UpsertReservation(ctx context.Context, siteID domain.SiteID, res domain.Reservation, precondition func(domain.ReservationSet) error) error
	DeleteReservation(ctx context.Context, siteID domain.SiteID, startKey string) error
}

// Catalog answers whether a site exists at all.
type Catalog interface {
	HasSite(id domain.SiteID) bool
}

// EventSink receives reservation lifecycle events for live subscribers.
// May be nil; events are best-effort.
type EventSink interface {
	ReservationCreated(siteID domain.SiteID, res domain.Reservation)
	ReservationCancelled(siteID domain.SiteID, startKey string)
}
