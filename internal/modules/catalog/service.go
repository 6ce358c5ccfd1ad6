package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"campsite/internal/domain"
)

var ErrEmptyCatalog = errors.New("catalog defines no reservable sites")

// Service holds the static site catalog: site type -> ordered site IDs,
// loaded once from a declarative JSON file. The catalog never changes during
// normal operation; Reload re-reads the file for the rare layout change.
type Service struct {
	path string

	mu    sync.RWMutex
	types []domain.SiteType
	sites map[domain.SiteType][]domain.SiteID
}

// catalogFile mirrors the on-disk layout:
//
//	{"reservable_sites": {"A": ["A1", "A2"], "B": ["B1"], ...}}
type catalogFile struct {
	ReservableSites map[string][]string `json:"reservable_sites"`
}

func NewService(path string) (*Service, error) {
	s := &Service{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalog file and replaces the in-memory mapping
// atomically. Site IDs keep the file's order within a type; types are sorted.
func (s *Service) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	if len(file.ReservableSites) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyCatalog, s.path)
	}

	types := make([]domain.SiteType, 0, len(file.ReservableSites))
	sites := make(map[domain.SiteType][]domain.SiteID, len(file.ReservableSites))
	for t, ids := range file.ReservableSites {
		st := domain.SiteType(t)
		types = append(types, st)
		list := make([]domain.SiteID, len(ids))
		for i, id := range ids {
			list[i] = domain.SiteID(id)
		}
		sites[st] = list
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	s.mu.Lock()
	s.types = types
	s.sites = sites
	s.mu.Unlock()
	return nil
}

// SiteTypes returns the fixed, sorted set of site categories.
func (s *Service) SiteTypes() []domain.SiteType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SiteType, len(s.types))
	copy(out, s.types)
	return out
}

// TypeCount is the number of site categories; price tables must cover all
// of them to be accepted.
func (s *Service) TypeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.types)
}

// SitesOfType returns the ordered site IDs for one category.
func (s *Service) SitesOfType(t domain.SiteType) []domain.SiteID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SiteID, len(s.sites[t]))
	copy(out, s.sites[t])
	return out
}

// SiteIDs returns every reservable site, grouped by type order.
func (s *Service) SiteIDs() []domain.SiteID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SiteID
	for _, t := range s.types {
		out = append(out, s.sites[t]...)
	}
	return out
}

// HasSite reports whether the catalog knows the given site.
func (s *Service) HasSite(id domain.SiteID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, candidate := range s.sites[id.Type()] {
		if candidate == id {
			return true
		}
	}
	return false
}
