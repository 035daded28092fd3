package progression

import (
	"context"
	"fmt"
	"log"

	"civicreward/internal/repositories"
)

// Seed upserts the default levels and badges.
func Seed(ctx context.Context, repo repositories.RewardRepository) error {
	if err := repo.UpsertLevels(ctx, DefaultLevels()); err != nil {
		return err
	}
	return repo.UpsertBadges(ctx, DefaultBadges())
}

// LoadCatalog reads the catalog from storage, seeding the defaults first
// when no level exists yet.
func LoadCatalog(ctx context.Context, repo repositories.RewardRepository) (*Catalog, error) {
	levels, err := repo.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		log.Println("🌱 Level catalog empty, seeding defaults")
		if err := Seed(ctx, repo); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		if levels, err = repo.ListLevels(ctx); err != nil {
			return nil, err
		}
	}

	badges, err := repo.ListBadges(ctx, false)
	if err != nil {
		return nil, err
	}
	return NewCatalog(levels, badges)
}
