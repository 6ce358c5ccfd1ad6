package reservation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"campsite/internal/docstore"
	"campsite/internal/domain"
)

// IsAvailable decides whether candidate can be booked against the existing
// reservations. Any closed-interval overlap rejects the candidate, so a stay
// ending on a given day conflicts with one starting that same day. Adding
// reservations to existing can only flip the answer from true to false.
func IsAvailable(existing domain.ReservationSet, candidate domain.DateRange) bool {
	for _, r := range existing {
		if candidate.Overlaps(r.Range()) {
			return false
		}
	}
	return true
}

// Service orchestrates reservation creation and cancellation: fresh-read
// availability checks, a re-validated commit so the check-then-write window
// cannot double-book, and boolean-reporting cancellation.
type Service struct {
	store   Store
	catalog Catalog
	events  EventSink
}

func NewService(store Store, catalog Catalog, events EventSink) *Service {
	return &Service{store: store, catalog: catalog, events: events}
}

// ProposeRequest carries the raw reservation attempt. Dates stay as text
// until validated so the invalid-range rejection can be reported as an
// outcome instead of a transport error.
type ProposeRequest struct {
	SiteID domain.SiteID
	Start  string
	End    string
	Name   string
}

// validate runs the caller-fixable checks shared by Propose and Commit.
// Second return is only meaningful when the outcome is Accepted.
func (s *Service) validate(req ProposeRequest) (Outcome, domain.DateRange, error) {
	if !s.catalog.HasSite(req.SiteID) {
		return "", domain.DateRange{}, ErrUnknownSite
	}
	if strings.TrimSpace(req.Name) == "" {
		return RejectedEmptyName, domain.DateRange{}, nil
	}
	rng, err := domain.ParseDateRange(req.Start, req.End)
	if err != nil {
		return RejectedInvalidRange, domain.DateRange{}, nil
	}
	return Accepted, rng, nil
}

// Propose performs a fresh fetch and availability check without writing
// anything. The answer may be stale the moment it returns; Commit re-checks.
func (s *Service) Propose(ctx context.Context, req ProposeRequest) (Outcome, error) {
	outcome, rng, err := s.validate(req)
	if err != nil {
		return "", err
	}
	if outcome != Accepted {
		return outcome, nil
	}

	existing, err := s.store.FetchReservationsForSite(ctx, req.SiteID)
	if err != nil {
		return "", err
	}
	if !IsAvailable(existing, rng) {
		return RejectedOverlap, nil
	}
	return Accepted, nil
}

// Commit persists the reservation. The availability check is re-run against
// a fresh read inside the store's per-site write serialization, so a commit
// racing another one for the same site either persists alone or comes back
// as RejectedOverlap; the caller re-surfaces that to the user rather than
// treating it as a hard failure.
func (s *Service) Commit(ctx context.Context, req ProposeRequest) (domain.Reservation, Outcome, error) {
	outcome, rng, err := s.validate(req)
	if err != nil {
		return domain.Reservation{}, "", err
	}
	if outcome != Accepted {
		return domain.Reservation{}, outcome, nil
	}

	res := domain.NewReservation(strings.TrimSpace(req.Name), rng)
	err = s.store.UpsertReservation(ctx, req.SiteID, res, func(existing domain.ReservationSet) error {
		if !IsAvailable(existing, rng) {
			return errNotAvailable
		}
		return nil
	})
	switch {
	case err == nil:
		log.Info().Str("site", string(req.SiteID)).Str("range", rng.String()).
			Str("name", res.Name).Msg("reservation committed")
		if s.events != nil {
			s.events.ReservationCreated(req.SiteID, res)
		}
		return res, Accepted, nil
	case errors.Is(err, errNotAvailable), errors.Is(err, docstore.ErrConflict):
		// Lost the race after an accepting Propose, or another writer kept
		// the document moving; either way the slot is taken.
		return domain.Reservation{}, RejectedOverlap, nil
	default:
		return domain.Reservation{}, "", err
	}
}

// Cancel deletes the reservation keyed by its ISO start date. Reports false
// on any failure: already cancelled, unknown site, or unreachable store.
// Cancelling twice yields true then false, never an error.
func (s *Service) Cancel(ctx context.Context, siteID domain.SiteID, startKey string) bool {
	if err := s.store.DeleteReservation(ctx, siteID, startKey); err != nil {
		log.Warn().Err(err).Str("site", string(siteID)).Str("start", startKey).
			Msg("cancellation failed")
		return false
	}
	log.Info().Str("site", string(siteID)).Str("start", startKey).Msg("reservation cancelled")
	if s.events != nil {
		s.events.ReservationCancelled(siteID, startKey)
	}
	return true
}

// AllReservations returns every site's reservations for listing views.
func (s *Service) AllReservations(ctx context.Context) (map[domain.SiteID]domain.ReservationSet, error) {
	return s.store.FetchAllReservations(ctx)
}

// SiteReservations returns one site's reservations in start-date order.
func (s *Service) SiteReservations(ctx context.Context, siteID domain.SiteID) ([]domain.Reservation, error) {
	if !s.catalog.HasSite(siteID) {
		return nil, ErrUnknownSite
	}
	set, err := s.store.FetchReservationsForSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return set.Ordered(), nil
}
