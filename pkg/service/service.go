// Package service coordinates remote fetches against the freshness
// cache: it decides when a cached dataset is still acceptable, performs
// the multi-step position fetch with its price hydration, and stores
// fresh results for the next caller.
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/internal/obs"
	"github.com/satishjaiswal/hyperliquid-position/pkg/cache"
	"github.com/satishjaiswal/hyperliquid-position/pkg/hyperliquid"
	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
)

// Logical dataset names used as cache keys.
const (
	KeyPositions      = "positions"
	KeyAccountSummary = "account_summary"
	KeyMarkPrices     = "mark_prices"
	KeyUserFills      = "user_fills"
	KeyOpenOrders     = "open_orders"
)

// FetchPolicy controls how a request interacts with the cache.
type FetchPolicy struct {
	UseCache     bool
	ForceRefresh bool
}

func (p FetchPolicy) readsCache() bool {
	return p.UseCache && !p.ForceRefresh
}

type PositionService struct {
	client hyperliquid.Client
	cache  *cache.Cache
	logger *logrus.Logger
}

func New(client hyperliquid.Client, c *cache.Cache, logger *logrus.Logger) *PositionService {
	return &PositionService{
		client: client,
		cache:  c,
		logger: logger,
	}
}

// PositionsAndAccount returns the wallet's open positions with hydrated
// mark prices, plus its margin summary. The two datasets are cached and
// served as a pair: a partial cache hit counts as a full miss, so a
// caller never sees positions and account state from different fetch
// cycles.
func (s *PositionService) PositionsAndAccount(ctx context.Context, policy FetchPolicy) ([]models.Position, models.AccountSummary, error) {
	if policy.readsCache() {
		positions, account, ok := s.cachedPair()
		if ok {
			s.logger.Debug("Using cached position and account data")
			return positions, account, nil
		}
	}

	s.logger.Info("Fetching fresh position and account data")

	start := time.Now()
	positions, account, err := s.client.ClearinghouseState(ctx)
	if err != nil {
		obs.FetchesTotal.WithLabelValues(KeyPositions, "error").Inc()
		return nil, models.AccountSummary{}, errors.Wrap(err, "fetch positions")
	}

	if len(positions) > 0 {
		book, err := s.client.AllMids(ctx)
		if err != nil {
			// A failed price fetch would leave every mark price at
			// zero; better to fail the whole dataset and let the
			// caller's retry cadence handle it.
			obs.FetchesTotal.WithLabelValues(KeyPositions, "error").Inc()
			return nil, models.AccountSummary{}, errors.Wrap(err, "fetch mark prices")
		}
		s.hydrateMarkPrices(positions, book)
		if policy.UseCache {
			s.cache.Set(KeyMarkPrices, book)
		}
	}

	obs.FetchesTotal.WithLabelValues(KeyPositions, "ok").Inc()
	obs.FetchDuration.WithLabelValues(KeyPositions).Observe(time.Since(start).Seconds())

	if policy.UseCache {
		s.cache.Set(KeyPositions, positions)
		s.cache.Set(KeyAccountSummary, account)
	}
	return positions, account, nil
}

func (s *PositionService) cachedPair() ([]models.Position, models.AccountSummary, bool) {
	rawPositions, okPositions := s.cache.Get(KeyPositions, 0)
	rawAccount, okAccount := s.cache.Get(KeyAccountSummary, 0)
	if !okPositions || !okAccount {
		obs.CacheMisses.WithLabelValues(KeyPositions).Inc()
		return nil, models.AccountSummary{}, false
	}

	positions, okPositions := rawPositions.([]models.Position)
	account, okAccount := rawAccount.(models.AccountSummary)
	if !okPositions || !okAccount {
		obs.CacheMisses.WithLabelValues(KeyPositions).Inc()
		return nil, models.AccountSummary{}, false
	}

	obs.CacheHits.WithLabelValues(KeyPositions).Inc()
	return positions, account, true
}

// hydrateMarkPrices fills in each position's mark price by symbol
// lookup. A position whose symbol has no quote keeps a zero mark price;
// that is not an error.
func (s *PositionService) hydrateMarkPrices(positions []models.Position, book *models.PriceBook) {
	for i := range positions {
		price, ok := book.Price(positions[i].Symbol)
		if !ok {
			s.logger.WithField("symbol", positions[i].Symbol).Debug("No mark price for position symbol")
			continue
		}
		positions[i].MarkPrice = price
	}
}

// Prices returns the current price book, filtered to the requested
// symbols when any are given.
func (s *PositionService) Prices(ctx context.Context, symbols []string, policy FetchPolicy) (*models.PriceBook, error) {
	if policy.readsCache() {
		if raw, ok := s.cache.Get(KeyMarkPrices, 0); ok {
			if book, ok := raw.(*models.PriceBook); ok {
				obs.CacheHits.WithLabelValues(KeyMarkPrices).Inc()
				s.logger.Debug("Using cached price data")
				return filterBook(book, symbols), nil
			}
		}
		obs.CacheMisses.WithLabelValues(KeyMarkPrices).Inc()
	}

	s.logger.Info("Fetching fresh price data")

	start := time.Now()
	book, err := s.client.AllMids(ctx)
	if err != nil {
		obs.FetchesTotal.WithLabelValues(KeyMarkPrices, "error").Inc()
		return nil, errors.Wrap(err, "fetch mark prices")
	}
	obs.FetchesTotal.WithLabelValues(KeyMarkPrices, "ok").Inc()
	obs.FetchDuration.WithLabelValues(KeyMarkPrices).Observe(time.Since(start).Seconds())

	if policy.UseCache {
		s.cache.Set(KeyMarkPrices, book)
	}
	return filterBook(book, symbols), nil
}

func filterBook(book *models.PriceBook, symbols []string) *models.PriceBook {
	if len(symbols) == 0 {
		return book
	}
	return book.Filter(symbols)
}

// Fills returns the most recent fills, newest first, capped at limit
// when limit is positive.
func (s *PositionService) Fills(ctx context.Context, limit int, policy FetchPolicy) ([]models.Fill, error) {
	if policy.readsCache() {
		if raw, ok := s.cache.Get(KeyUserFills, 0); ok {
			if fills, ok := raw.([]models.Fill); ok {
				obs.CacheHits.WithLabelValues(KeyUserFills).Inc()
				return capFills(fills, limit), nil
			}
		}
		obs.CacheMisses.WithLabelValues(KeyUserFills).Inc()
	}

	s.logger.Info("Fetching fresh fills data")

	start := time.Now()
	fills, err := s.client.UserFills(ctx)
	if err != nil {
		obs.FetchesTotal.WithLabelValues(KeyUserFills, "error").Inc()
		return nil, errors.Wrap(err, "fetch fills")
	}
	obs.FetchesTotal.WithLabelValues(KeyUserFills, "ok").Inc()
	obs.FetchDuration.WithLabelValues(KeyUserFills).Observe(time.Since(start).Seconds())

	if policy.UseCache {
		s.cache.Set(KeyUserFills, fills)
	}
	return capFills(fills, limit), nil
}

func capFills(fills []models.Fill, limit int) []models.Fill {
	if limit > 0 && len(fills) > limit {
		return fills[:limit]
	}
	return fills
}

// OpenOrders returns the wallet's resting orders, capped at limit when
// limit is positive.
func (s *PositionService) OpenOrders(ctx context.Context, limit int, policy FetchPolicy) ([]models.Order, error) {
	if policy.readsCache() {
		if raw, ok := s.cache.Get(KeyOpenOrders, 0); ok {
			if orders, ok := raw.([]models.Order); ok {
				obs.CacheHits.WithLabelValues(KeyOpenOrders).Inc()
				return capOrders(orders, limit), nil
			}
		}
		obs.CacheMisses.WithLabelValues(KeyOpenOrders).Inc()
	}

	s.logger.Info("Fetching fresh orders data")

	start := time.Now()
	orders, err := s.client.OpenOrders(ctx)
	if err != nil {
		obs.FetchesTotal.WithLabelValues(KeyOpenOrders, "error").Inc()
		return nil, errors.Wrap(err, "fetch open orders")
	}
	obs.FetchesTotal.WithLabelValues(KeyOpenOrders, "ok").Inc()
	obs.FetchDuration.WithLabelValues(KeyOpenOrders).Observe(time.Since(start).Seconds())

	if policy.UseCache {
		s.cache.Set(KeyOpenOrders, orders)
	}
	return capOrders(orders, limit), nil
}

func capOrders(orders []models.Order, limit int) []models.Order {
	if limit > 0 && len(orders) > limit {
		return orders[:limit]
	}
	return orders
}

// InvalidateCache drops the position-related datasets so the next
// request fetches fresh data.
func (s *PositionService) InvalidateCache() {
	dropped := 0
	for _, key := range []string{KeyPositions, KeyAccountSummary, KeyMarkPrices} {
		if s.cache.Delete(key) {
			dropped++
		}
	}
	s.logger.WithField("count", dropped).Info("Invalidated cached position data")
}

// CleanupCache sweeps expired entries using the cache's default TTL.
func (s *PositionService) CleanupCache() int {
	return s.cache.CleanupExpired(0)
}

func (s *PositionService) CacheStats() cache.Stats {
	return s.cache.Stats()
}
