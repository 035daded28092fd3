package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type memoryState struct {
	users         map[string]models.User
	contributions []models.ContributionRecord
	levels        map[int]models.Level
	badges        map[string]models.Badge
	wallets       map[string]models.Wallet
	transactions  []models.WalletTransaction
	exchanges     []models.ExchangeRequest
	withdrawals   []models.WithdrawalRequest
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:   make(map[string]models.User),
		levels:  make(map[int]models.Level),
		badges:  make(map[string]models.Badge),
		wallets: make(map[string]models.Wallet),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for id, u := range s.users {
		u.Badges = u.Badges.Clone()
		u.GrantedBadges = append(pq.StringArray(nil), u.GrantedBadges...)
		c.users[id] = u
	}
	for id, l := range s.levels {
		c.levels[id] = l
	}
	for code, b := range s.badges {
		c.badges[code] = b
	}
	for id, w := range s.wallets {
		c.wallets[id] = w
	}
	c.contributions = append([]models.ContributionRecord(nil), s.contributions...)
	c.transactions = append([]models.WalletTransaction(nil), s.transactions...)
	c.exchanges = append([]models.ExchangeRequest(nil), s.exchanges...)
	c.withdrawals = append([]models.WithdrawalRequest(nil), s.withdrawals...)
	return c
}

// MemoryStore is an in-process Store used by tests and by STORE=memory in
// development. One mutex serializes every operation; a transaction holds it
// for its whole duration and restores a snapshot when fn fails. Each
// transaction copies the full state, so write cost grows with the data set.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    &sync.Mutex{},
		state: newMemoryState(),
	}
}

func (s *MemoryStore) Rewards() RewardRepository { return &memoryRewards{s} }

func (s *MemoryStore) Wallets() WalletRepository { return &memoryWallets{s} }

func (s *MemoryStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.state = *snapshot
			panic(p)
		}
		if err != nil {
			*s.state = *snapshot
		}
	}()

	return fn(&MemoryStore{mu: s.mu, state: s.state, inTx: true})
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func window(total, limit, offset int) (int, int) {
	if offset >= total {
		return total, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}

type memoryRewards struct {
	s *MemoryStore
}

func (r *memoryRewards) EnsureUser(_ context.Context, userID, regionID string) error {
	defer r.s.lock()()
	st := r.s.state

	u, ok := st.users[userID]
	if !ok {
		now := time.Now()
		u = models.User{
			ID:             userID,
			CurrentLevelID: 1,
			Badges:         models.BadgeSet{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	if regionID != "" {
		u.RegionID = regionID
	}
	st.users[userID] = u
	return nil
}

func (r *memoryRewards) GetUser(_ context.Context, userID string) (*models.User, error) {
	defer r.s.lock()()

	u, ok := r.s.state.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.Badges = u.Badges.Clone()
	u.GrantedBadges = append(pq.StringArray(nil), u.GrantedBadges...)
	return &u, nil
}

func (r *memoryRewards) IncrementPoints(_ context.Context, userID string, delta int64, at time.Time) (int64, error) {
	defer r.s.lock()()
	st := r.s.state

	u, ok := st.users[userID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	u.TotalPoints += delta
	ts := at
	u.LastContributionAt = &ts
	u.UpdatedAt = at
	st.users[userID] = u
	return u.TotalPoints, nil
}

func (r *memoryRewards) UpdateProgress(_ context.Context, userID string, levelID int, badges models.BadgeSet, at time.Time) error {
	defer r.s.lock()()
	st := r.s.state

	u, ok := st.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.CurrentLevelID = levelID
	u.Badges = badges.Clone()
	u.UpdatedAt = at
	st.users[userID] = u
	return nil
}

func (r *memoryRewards) GrantBadge(_ context.Context, userID, code string) error {
	defer r.s.lock()()
	st := r.s.state

	u, ok := st.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if u.HasGrant(code) {
		return nil
	}
	u.GrantedBadges = append(append(pq.StringArray(nil), u.GrantedBadges...), code)
	st.users[userID] = u
	return nil
}

func (r *memoryRewards) DebitExchangeablePoints(_ context.Context, userID string, points int64) error {
	defer r.s.lock()()
	st := r.s.state

	u, ok := st.users[userID]
	if !ok || u.ExchangeablePoints() < points {
		return apperrors.ErrInsufficientPoints
	}
	u.ExchangedPoints += points
	st.users[userID] = u
	return nil
}

func (r *memoryRewards) CreateContribution(_ context.Context, rec *models.ContributionRecord) error {
	defer r.s.lock()()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	r.s.state.contributions = append(r.s.state.contributions, *rec)
	return nil
}

func (r *memoryRewards) ListContributions(_ context.Context, userID string, opts ListOptions) ([]models.ContributionRecord, int64, error) {
	defer r.s.lock()()

	var matched []models.ContributionRecord
	all := r.s.state.contributions
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			matched = append(matched, all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start, end := window(len(matched), opts.Limit, opts.Offset)
	return matched[start:end], int64(len(matched)), nil
}

func (r *memoryRewards) ContributionCounts(_ context.Context, userID string) (map[models.ContributionType]int64, error) {
	defer r.s.lock()()

	counts := make(map[models.ContributionType]int64)
	for _, rec := range r.s.state.contributions {
		if rec.UserID == userID {
			counts[rec.Type]++
		}
	}
	return counts, nil
}

func (r *memoryRewards) ContributionStats(ctx context.Context, userID string) (*models.ContributionStats, error) {
	defer r.s.lock()()

	stats := &models.ContributionStats{
		UserID:              userID,
		ContributionsByType: make(map[models.ContributionType]int64),
	}
	for _, rec := range r.s.state.contributions {
		if rec.UserID != userID {
			continue
		}
		stats.TotalContributions++
		stats.TotalPointsEarned += rec.PointsAwarded
		stats.ContributionsByType[rec.Type]++
		if stats.LastContributionDate == nil || rec.CreatedAt.After(*stats.LastContributionDate) {
			ts := rec.CreatedAt
			stats.LastContributionDate = &ts
		}
	}
	return stats, nil
}

func (r *memoryRewards) Leaderboard(_ context.Context, q LeaderboardQuery) ([]models.User, error) {
	defer r.s.lock()()

	var users []models.User
	for _, u := range r.s.state.users {
		if u.TotalPoints <= 0 {
			continue
		}
		if q.RegionID != "" && u.RegionID != q.RegionID {
			continue
		}
		u.Badges = u.Badges.Clone()
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		switch {
		case a.LastContributionAt == nil && b.LastContributionAt != nil:
			return false
		case a.LastContributionAt != nil && b.LastContributionAt == nil:
			return true
		case a.LastContributionAt != nil && !a.LastContributionAt.Equal(*b.LastContributionAt):
			return a.LastContributionAt.After(*b.LastContributionAt)
		}
		return a.ID < b.ID
	})

	start, end := window(len(users), q.Limit, q.Offset)
	return users[start:end], nil
}

func (r *memoryRewards) CountAhead(_ context.Context, regionID string, points int64) (int64, error) {
	defer r.s.lock()()

	var count int64
	for _, u := range r.s.state.users {
		if regionID != "" && u.RegionID != regionID {
			continue
		}
		if u.TotalPoints > points {
			count++
		}
	}
	return count, nil
}

func (r *memoryRewards) ListLevels(_ context.Context) ([]models.Level, error) {
	defer r.s.lock()()

	levels := make([]models.Level, 0, len(r.s.state.levels))
	for _, l := range r.s.state.levels {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

func (r *memoryRewards) ListBadges(_ context.Context, activeOnly bool) ([]models.Badge, error) {
	defer r.s.lock()()

	badges := make([]models.Badge, 0, len(r.s.state.badges))
	for _, b := range r.s.state.badges {
		if activeOnly && !b.Active {
			continue
		}
		badges = append(badges, b)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].Code < badges[j].Code })
	return badges, nil
}

func (r *memoryRewards) UpsertLevels(_ context.Context, levels []models.Level) error {
	defer r.s.lock()()

	for _, l := range levels {
		r.s.state.levels[l.LevelID] = l
	}
	return nil
}

func (r *memoryRewards) UpsertBadges(_ context.Context, badges []models.Badge) error {
	defer r.s.lock()()

	for _, b := range badges {
		r.s.state.badges[b.Code] = b
	}
	return nil
}

func (r *memoryRewards) Totals(_ context.Context) (*models.RewardStats, error) {
	defer r.s.lock()()

	stats := &models.RewardStats{TotalContributions: int64(len(r.s.state.contributions))}
	for _, u := range r.s.state.users {
		if u.TotalPoints > 0 {
			stats.UsersWithPoints++
		}
		stats.TotalPointsAwarded += u.TotalPoints
	}
	return stats, nil
}

type memoryWallets struct {
	s *MemoryStore
}

func (r *memoryWallets) EnsureWallet(_ context.Context, userID string) (*models.Wallet, error) {
	defer r.s.lock()()

	w, ok := r.s.state.wallets[userID]
	if !ok {
		w = *models.NewWallet(userID, time.Now())
		r.s.state.wallets[userID] = w
	}
	return &w, nil
}

func (r *memoryWallets) GetWallet(_ context.Context, userID string) (*models.Wallet, error) {
	defer r.s.lock()()

	w, ok := r.s.state.wallets[userID]
	if !ok {
		return nil, apperrors.ErrWalletNotFound
	}
	return &w, nil
}

func (r *memoryWallets) mutate(userID string, fn func(w *models.Wallet) error) error {
	defer r.s.lock()()

	w, ok := r.s.state.wallets[userID]
	if !ok {
		return apperrors.ErrWalletNotFound
	}
	if err := fn(&w); err != nil {
		return err
	}
	r.s.state.wallets[userID] = w
	return nil
}

func (r *memoryWallets) Credit(_ context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	return r.mutate(userID, func(w *models.Wallet) error {
		w.AvailableBalance = w.AvailableBalance.Add(amount)
		w.TotalBalance = w.TotalBalance.Add(amount)
		w.TotalTransactions++
		w.UpdatedAt = at
		return nil
	})
}

func (r *memoryWallets) Reserve(_ context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	err := r.mutate(userID, func(w *models.Wallet) error {
		if w.AvailableBalance.LessThan(amount) {
			return apperrors.ErrInsufficientBalance
		}
		w.AvailableBalance = w.AvailableBalance.Sub(amount)
		w.PendingBalance = w.PendingBalance.Add(amount)
		w.TotalTransactions++
		w.UpdatedAt = at
		return nil
	})
	if err == apperrors.ErrWalletNotFound {
		return apperrors.ErrInsufficientBalance
	}
	return err
}

func (r *memoryWallets) Settle(_ context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	err := r.mutate(userID, func(w *models.Wallet) error {
		if w.PendingBalance.LessThan(amount) {
			return apperrors.ErrInsufficientBalance
		}
		w.PendingBalance = w.PendingBalance.Sub(amount)
		w.TotalBalance = w.TotalBalance.Sub(amount)
		w.UpdatedAt = at
		return nil
	})
	if err == apperrors.ErrWalletNotFound {
		return apperrors.ErrInsufficientBalance
	}
	return err
}

func (r *memoryWallets) Release(_ context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	err := r.mutate(userID, func(w *models.Wallet) error {
		if w.PendingBalance.LessThan(amount) {
			return apperrors.ErrInsufficientBalance
		}
		w.PendingBalance = w.PendingBalance.Sub(amount)
		w.AvailableBalance = w.AvailableBalance.Add(amount)
		w.UpdatedAt = at
		return nil
	})
	if err == apperrors.ErrWalletNotFound {
		return apperrors.ErrInsufficientBalance
	}
	return err
}

func (r *memoryWallets) CreateTransaction(_ context.Context, tx *models.WalletTransaction) error {
	defer r.s.lock()()

	for _, existing := range r.s.state.transactions {
		if existing.ReferenceID == tx.ReferenceID || existing.ID == tx.ID {
			return apperrors.ErrAlreadyProcessed
		}
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	r.s.state.transactions = append(r.s.state.transactions, *tx)
	return nil
}

func (r *memoryWallets) findTransaction(match func(*models.WalletTransaction) bool) (int, bool) {
	for i := range r.s.state.transactions {
		if match(&r.s.state.transactions[i]) {
			return i, true
		}
	}
	return -1, false
}

func (r *memoryWallets) GetTransaction(_ context.Context, id string) (*models.WalletTransaction, error) {
	defer r.s.lock()()

	i, ok := r.findTransaction(func(tx *models.WalletTransaction) bool { return tx.ID == id })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	tx := r.s.state.transactions[i]
	return &tx, nil
}

func (r *memoryWallets) GetTransactionByReference(_ context.Context, referenceID string) (*models.WalletTransaction, error) {
	defer r.s.lock()()

	i, ok := r.findTransaction(func(tx *models.WalletTransaction) bool { return tx.ReferenceID == referenceID })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	tx := r.s.state.transactions[i]
	return &tx, nil
}

func (r *memoryWallets) TransitionTransaction(_ context.Context, referenceID string, to models.TransactionStatus, at time.Time) error {
	defer r.s.lock()()

	i, ok := r.findTransaction(func(tx *models.WalletTransaction) bool { return tx.ReferenceID == referenceID })
	if !ok {
		return apperrors.ErrNotFound
	}
	tx := &r.s.state.transactions[i]
	if tx.Status != models.TransactionStatusPending {
		return apperrors.ErrAlreadyProcessed
	}
	ts := at
	tx.Status = to
	tx.CompletedAt = &ts
	return nil
}

func (r *memoryWallets) ListTransactions(_ context.Context, filter TransactionFilter) ([]models.WalletTransaction, int64, error) {
	defer r.s.lock()()

	var matched []models.WalletTransaction
	all := r.s.state.transactions
	for i := len(all) - 1; i >= 0; i-- {
		tx := all[i]
		if tx.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		matched = append(matched, tx)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start, end := window(len(matched), filter.Limit, filter.Offset)
	return matched[start:end], int64(len(matched)), nil
}

func (r *memoryWallets) CreateExchange(_ context.Context, ex *models.ExchangeRequest) error {
	defer r.s.lock()()

	for _, existing := range r.s.state.exchanges {
		if existing.ReferenceID == ex.ReferenceID {
			return apperrors.ErrAlreadyProcessed
		}
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	r.s.state.exchanges = append(r.s.state.exchanges, *ex)
	return nil
}

func (r *memoryWallets) ListExchanges(_ context.Context, filter ExchangeFilter) ([]models.ExchangeRequest, int64, error) {
	defer r.s.lock()()

	var matched []models.ExchangeRequest
	all := r.s.state.exchanges
	for i := len(all) - 1; i >= 0; i-- {
		ex := all[i]
		if filter.UserID != "" && ex.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && ex.Status != filter.Status {
			continue
		}
		matched = append(matched, ex)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start, end := window(len(matched), filter.Limit, filter.Offset)
	return matched[start:end], int64(len(matched)), nil
}

func (r *memoryWallets) ExchangeTotals(_ context.Context) (int64, decimal.Decimal, error) {
	defer r.s.lock()()

	var points int64
	amount := decimal.Zero
	for _, ex := range r.s.state.exchanges {
		if ex.Status != models.TransactionStatusCompleted {
			continue
		}
		points += ex.PointsExchanged
		amount = amount.Add(ex.AmountCFA)
	}
	return points, amount, nil
}

func (r *memoryWallets) CreateWithdrawal(_ context.Context, w *models.WithdrawalRequest) error {
	defer r.s.lock()()

	for _, existing := range r.s.state.withdrawals {
		if existing.ReferenceID == w.ReferenceID || existing.ID == w.ID {
			return apperrors.ErrAlreadyProcessed
		}
	}
	if w.RequestedAt.IsZero() {
		w.RequestedAt = time.Now()
	}
	r.s.state.withdrawals = append(r.s.state.withdrawals, *w)
	return nil
}

func (r *memoryWallets) findWithdrawal(match func(*models.WithdrawalRequest) bool) (int, bool) {
	for i := range r.s.state.withdrawals {
		if match(&r.s.state.withdrawals[i]) {
			return i, true
		}
	}
	return -1, false
}

func (r *memoryWallets) GetWithdrawal(_ context.Context, id string) (*models.WithdrawalRequest, error) {
	defer r.s.lock()()

	i, ok := r.findWithdrawal(func(w *models.WithdrawalRequest) bool { return w.ID == id })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	w := r.s.state.withdrawals[i]
	return &w, nil
}

func (r *memoryWallets) GetWithdrawalByReference(_ context.Context, referenceID string) (*models.WithdrawalRequest, error) {
	defer r.s.lock()()

	i, ok := r.findWithdrawal(func(w *models.WithdrawalRequest) bool { return w.ReferenceID == referenceID })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	w := r.s.state.withdrawals[i]
	return &w, nil
}

func (r *memoryWallets) TransitionWithdrawal(_ context.Context, id string, to models.WithdrawalStatus, at time.Time) error {
	defer r.s.lock()()

	i, ok := r.findWithdrawal(func(w *models.WithdrawalRequest) bool { return w.ID == id })
	if !ok {
		return apperrors.ErrNotFound
	}
	w := &r.s.state.withdrawals[i]
	if w.Status != models.WithdrawalStatusPending {
		return apperrors.ErrAlreadyProcessed
	}
	ts := at
	w.Status = to
	switch to {
	case models.WithdrawalStatusCompleted:
		w.CompletedAt = &ts
	case models.WithdrawalStatusCancelled:
		w.CancelledAt = &ts
	}
	return nil
}

func (r *memoryWallets) SetPayoutID(_ context.Context, id, payoutID string) error {
	defer r.s.lock()()

	i, ok := r.findWithdrawal(func(w *models.WithdrawalRequest) bool { return w.ID == id })
	if !ok {
		return apperrors.ErrNotFound
	}
	r.s.state.withdrawals[i].PayoutID = payoutID
	return nil
}

func (r *memoryWallets) CountWithdrawals(_ context.Context, status models.WithdrawalStatus) (int64, error) {
	defer r.s.lock()()

	var count int64
	for _, w := range r.s.state.withdrawals {
		if w.Status == status {
			count++
		}
	}
	return count, nil
}
