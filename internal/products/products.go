package products

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/api"
)

const (
	cacheKey = "metabolic-ninja:products"
	cacheTTL = 24 * time.Hour
)

// Service serves the names of every product that can be requested for
// prediction, which is the metabolite list of the richest universal
// database. The list is kept in the shared cache so that not every replica
// has to parse the database, with a process-local copy on top.
type Service struct {
	cache     Cache
	universal *universal.Repository

	lock  sync.RWMutex
	local []api.Product
}

func NewService(cache Cache, repo *universal.Repository) *Service {
	return &Service{cache: cache, universal: repo}
}

// Warm computes and caches the product list ahead of the first request.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.List(ctx)
	return err
}

func (s *Service) List(ctx context.Context) ([]api.Product, error) {
	s.lock.RLock()
	local := s.local
	s.lock.RUnlock()
	if local != nil {
		return local, nil
	}

	if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
		slog.Warn("error reading product cache", "error", err)
	} else if cached != nil {
		var listing []api.Product
		if err := json.Unmarshal(cached, &listing); err != nil {
			slog.Warn("discarding malformed product cache entry", "error", err)
		} else {
			s.store(listing)
			return listing, nil
		}
	}

	model, err := s.universal.Load(universal.BiGGRhea)
	if err != nil {
		return nil, fmt.Errorf("error loading product source: %w", err)
	}
	listing := make([]api.Product, 0, len(model.Metabolites))
	for _, metabolite := range model.Metabolites {
		listing = append(listing, api.Product{Name: metabolite.Name})
	}
	slog.Debug("computed product list", "products", len(listing))

	if payload, err := json.Marshal(listing); err != nil {
		slog.Warn("error serializing product list", "error", err)
	} else if err := s.cache.Set(ctx, cacheKey, payload, cacheTTL); err != nil {
		slog.Warn("error writing product cache", "error", err)
	}

	s.store(listing)
	return listing, nil
}

func (s *Service) store(listing []api.Product) {
	s.lock.Lock()
	s.local = listing
	s.lock.Unlock()
}
