package repositories

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db      *gorm.DB
	rewards RewardRepository
	wallets WalletRepository
}

// NewStore returns the PostgreSQL-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:      db,
		rewards: NewRewardRepository(db),
		wallets: NewWalletRepository(db),
	}
}

func (s *gormStore) Rewards() RewardRepository { return s.rewards }

func (s *gormStore) Wallets() WalletRepository { return s.wallets }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
