package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"campsite/internal/docstore"
	"campsite/internal/domain"
)

const (
	sitesCollection  = "sites"
	pricesCollection = "prices"
)

// SiteCatalog is the slice of the catalog the adapter needs: the fixed set of
// site types (price-table completeness) without pulling in the whole module.
type SiteCatalog interface {
	SiteTypes() []domain.SiteType
}

// Config tunes the adapter's session and timeout behavior. Zero values fall
// back to the reference settings.
type Config struct {
	// StaleAfter is how old the store session may get before a mutating
	// operation transparently reconnects first. Reference: 60 minutes.
	StaleAfter time.Duration
	// OpTimeout bounds every store call; a hang surfaces as an unavailable
	// store instead of blocking the caller forever.
	OpTimeout time.Duration
	// Now is the clock, injectable for staleness tests.
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 60 * time.Minute
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 10 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ReservationStore adapts the generic document store into the typed
// operations the rest of the system uses. It owns the persisted layout:
//
//	sites/{site_id}            -> {"2024-06-10": {name, start, end, duration}, ...}
//	prices/daily_prices        -> {"A": 350, ...}
//	prices/monthly_prices      -> {"A": 5200, ...}
//
// Read-merge-write cycles for one site run under a per-site mutex and a
// version-guarded write, so concurrent writers cannot silently lose updates.
type ReservationStore struct {
	store   docstore.Store
	catalog SiteCatalog
	cfg     Config

	sessionMu   sync.Mutex
	connectedAt time.Time

	locksMu   sync.Mutex
	siteLocks map[domain.SiteID]*sync.Mutex
}

func NewReservationStore(store docstore.Store, catalog SiteCatalog, cfg Config) *ReservationStore {
	cfg.applyDefaults()
	return &ReservationStore{
		store:       store,
		catalog:     catalog,
		cfg:         cfg,
		connectedAt: cfg.Now(),
		siteLocks:   make(map[domain.SiteID]*sync.Mutex),
	}
}

// reservationRecord is the persisted per-reservation value. Dates stay in
// their ISO text form on the wire to match the legacy document layout.
type reservationRecord struct {
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

func encodeSet(set domain.ReservationSet) ([]byte, error) {
	doc := make(map[string]reservationRecord, len(set))
	for _, r := range set.Ordered() {
		doc[r.Key()] = reservationRecord{
			Name:     r.Name,
			Start:    r.Start.Format(domain.DateLayout),
			End:      r.End.Format(domain.DateLayout),
			Duration: r.DurationDays,
		}
	}
	return json.Marshal(doc)
}

func decodeSet(data []byte) (domain.ReservationSet, error) {
	var doc map[string]reservationRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode site document: %w", err)
		}
	}
	set := make(domain.ReservationSet, len(doc))
	for key, rec := range doc {
		rng, err := domain.ParseDateRange(rec.Start, rec.End)
		if err != nil {
			return nil, fmt.Errorf("corrupt reservation %q: %w", key, err)
		}
		set.Put(domain.NewReservation(rec.Name, rng))
	}
	return set, nil
}

// FetchAllReservations returns every site's reservation set.
func (r *ReservationStore) FetchAllReservations(ctx context.Context) (map[domain.SiteID]domain.ReservationSet, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	ids, err := r.store.ListIDs(ctx, sitesCollection)
	if err != nil {
		return nil, err
	}
	all := make(map[domain.SiteID]domain.ReservationSet, len(ids))
	for _, id := range ids {
		data, _, err := r.store.Get(ctx, sitesCollection, id)
		if err != nil {
			return nil, err
		}
		set, err := decodeSet(data)
		if err != nil {
			return nil, err
		}
		all[domain.SiteID(id)] = set
	}
	return all, nil
}

// FetchReservationsForSite returns the current reservation set for one site.
// A site that was never provisioned reports not-found.
func (r *ReservationStore) FetchReservationsForSite(ctx context.Context, siteID domain.SiteID) (domain.ReservationSet, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	data, _, err := r.store.Get(ctx, sitesCollection, string(siteID))
	if err != nil {
		return nil, err
	}
	return decodeSet(data)
}

// FetchSiteIDs lists the provisioned sites in key order.
func (r *ReservationStore) FetchSiteIDs(ctx context.Context) ([]domain.SiteID, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	ids, err := r.store.ListIDs(ctx, sitesCollection)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SiteID, len(ids))
	for i, id := range ids {
		out[i] = domain.SiteID(id)
	}
	return out, nil
}

// UpsertReservation merges res into the site's document via read-merge-write.
// The optional precondition runs against the freshly read set while the
// per-site lock is held; returning an error aborts the write and surfaces
// that error unchanged. A concurrent version conflict triggers exactly one
// re-read + re-check before giving up.
func (r *ReservationStore) UpsertReservation(ctx context.Context, siteID domain.SiteID, res domain.Reservation, precondition func(domain.ReservationSet) error) error {
	lock := r.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	if err := r.ensureFresh(ctx); err != nil {
		return err
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, version, err := r.store.Get(ctx, sitesCollection, string(siteID))
		if err != nil {
			return err
		}
		set, err := decodeSet(data)
		if err != nil {
			return err
		}
		if precondition != nil {
			if err := precondition(set); err != nil {
				return err
			}
		}
		set.Put(res)
		encoded, err := encodeSet(set)
		if err != nil {
			return err
		}
		lastErr = r.store.SetIf(ctx, sitesCollection, string(siteID), encoded, version)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, docstore.ErrConflict) {
			return lastErr
		}
		log.Warn().Str("site", string(siteID)).Msg("concurrent site write, re-checking")
	}
	return lastErr
}

// DeleteReservation removes the reservation stored under startKey. Deleting
// an absent key reports not-found; callers reduce that to a boolean so a
// double cancellation stays harmless.
func (r *ReservationStore) DeleteReservation(ctx context.Context, siteID domain.SiteID, startKey string) error {
	lock := r.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	if err := r.ensureFresh(ctx); err != nil {
		return err
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, version, err := r.store.Get(ctx, sitesCollection, string(siteID))
		if err != nil {
			return err
		}
		set, err := decodeSet(data)
		if err != nil {
			return err
		}
		res, ok := set.Get(startKey)
		if !ok {
			return fmt.Errorf("%w: reservation %s/%s", docstore.ErrNotFound, siteID, startKey)
		}
		delete(set, res.Start)
		encoded, err := encodeSet(set)
		if err != nil {
			return err
		}
		lastErr = r.store.SetIf(ctx, sitesCollection, string(siteID), encoded, version)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, docstore.ErrConflict) {
			return lastErr
		}
	}
	return lastErr
}

// ProvisionSite creates an empty reservation document if none exists.
func (r *ReservationStore) ProvisionSite(ctx context.Context, siteID domain.SiteID) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	err := r.store.SetIf(ctx, sitesCollection, string(siteID), []byte("{}"), 0)
	if errors.Is(err, docstore.ErrConflict) {
		return nil
	}
	return err
}

// ResetSite replaces the site's document with an empty reservation set.
func (r *ReservationStore) ResetSite(ctx context.Context, siteID domain.SiteID) error {
	lock := r.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := r.opContext(ctx)
	defer cancel()
	return r.store.Set(ctx, sitesCollection, string(siteID), []byte("{}"))
}

// FetchPriceTable loads the daily or monthly table.
func (r *ReservationStore) FetchPriceTable(ctx context.Context, kind domain.PriceKind) (domain.PriceTable, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPriceKind, kind)
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	data, _, err := r.store.Get(ctx, pricesCollection, kind.DocumentID())
	if err != nil {
		return nil, err
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s price table: %w", kind, err)
	}
	table := make(domain.PriceTable, len(raw))
	for t, p := range raw {
		table[domain.SiteType(t)] = p
	}
	return table, nil
}

// ReplacePriceTable overwrites the stored table wholesale. The write only
// happens when the new table carries exactly one entry per catalog site
// type; anything else is a validation failure with no partial application.
func (r *ReservationStore) ReplacePriceTable(ctx context.Context, kind domain.PriceKind, table domain.PriceTable) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPriceKind, kind)
	}
	types := r.catalog.SiteTypes()
	if len(table) != len(types) {
		return fmt.Errorf("%w: got %d entries, want %d", ErrIncompletePriceTable, len(table), len(types))
	}
	for _, t := range types {
		if _, ok := table[t]; !ok {
			return fmt.Errorf("%w: missing type %q", ErrIncompletePriceTable, t)
		}
	}

	if err := r.ensureFresh(ctx); err != nil {
		return err
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	raw := make(map[string]float64, len(table))
	for t, p := range table {
		raw[string(t)] = p
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, pricesCollection, kind.DocumentID(), encoded)
}

func (r *ReservationStore) siteLock(siteID domain.SiteID) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock, ok := r.siteLocks[siteID]
	if !ok {
		lock = &sync.Mutex{}
		r.siteLocks[siteID] = lock
	}
	return lock
}

// ensureFresh reconnects at most once per call when the session crossed the
// staleness threshold. Invisible to the caller apart from latency.
func (r *ReservationStore) ensureFresh(ctx context.Context) error {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()

	now := r.cfg.Now()
	if now.Sub(r.connectedAt) <= r.cfg.StaleAfter {
		return nil
	}
	log.Info().Dur("session_age", now.Sub(r.connectedAt)).Msg("store session stale, reconnecting")
	reconnectCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	if err := r.store.Reconnect(reconnectCtx); err != nil {
		return err
	}
	r.connectedAt = now
	return nil
}

func (r *ReservationStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.OpTimeout)
}
