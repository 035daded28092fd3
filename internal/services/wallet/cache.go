package wallet

import (
	"context"
	"log"

	"civicreward/internal/repositories/cache"
)

func (s *service) cachedView(ctx context.Context, userID string) (*View, bool) {
	key := cache.WalletKey(userID)
	var view View
	found, err := s.cache.Get(ctx, key, &view)
	if err != nil {
		log.Printf("⚠️ Wallet cache read failed for %s: %v", userID, err)
		return nil, false
	}
	if !found || view.Wallet == nil {
		s.metrics.RecordCacheMiss(key)
		return nil, false
	}
	s.metrics.RecordCacheHit(key)
	return &view, true
}

func (s *service) storeView(ctx context.Context, userID string, view *View) {
	if err := s.cache.SetWithTTL(ctx, cache.WalletKey(userID), view, CacheDuration); err != nil {
		log.Printf("⚠️ Wallet cache write failed for %s: %v", userID, err)
	}
}

func (s *service) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.WalletKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("⚠️ Error invalidating wallet cache for %v: %v", userIDs, err)
	}
}
