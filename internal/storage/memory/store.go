package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage"

	"github.com/google/uuid"
)

// Store хранилище в памяти: для локального запуска и тестов.
type Store struct {
	mu           sync.RWMutex
	configs      map[string]*models.BotConfig
	statuses     map[string]*models.BotStatus
	transactions map[string][]models.Transaction
	records      map[string][]models.NotificationRecord
}

var _ storage.Store = (*Store)(nil)

// New instance
func New() *Store {
	return &Store{
		configs:      make(map[string]*models.BotConfig),
		statuses:     make(map[string]*models.BotStatus),
		transactions: make(map[string][]models.Transaction),
		records:      make(map[string][]models.NotificationRecord),
	}
}

func (s *Store) Close() error { return nil }

// PutConfig upsert конфига.
func (s *Store) PutConfig(cfg models.BotConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.UserID] = &cfg
}

// PutStatus upsert статуса.
func (s *Store) PutStatus(st models.BotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.UserID] = &st
}

// AddTransaction дописывает транзакцию в историю.
func (s *Store) AddTransaction(tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
}

func (s *Store) GetConfig(_ context.Context, userID string) (*models.BotConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *cfg
	return &out, nil
}

func (s *Store) GetStatus(_ context.Context, userID string) (*models.BotStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneStatus(st), nil
}

func (s *Store) UpdateStatus(_ context.Context, userID string, patch models.StatusPatch) (*models.BotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[userID]
	if !ok {
		st = &models.BotStatus{UserID: userID}
		s.statuses[userID] = st
	}
	patch.Apply(st)
	st.UpdatedAt = time.Now()
	return cloneStatus(st), nil
}

func (s *Store) GetRecentTransactions(_ context.Context, userID string, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	all := append([]models.Transaction(nil), s.transactions[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) AppendRecord(_ context.Context, userID string, rec *models.NotificationRecord) (*models.NotificationRecord, error) {
	out := *rec
	out.UserID = userID
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = append(s.records[userID], out)
	return &out, nil
}

func (s *Store) RecentRecords(_ context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.records[userID]
	out := make([]models.NotificationRecord, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, src[i])
	}
	return out, nil
}

func cloneStatus(st *models.BotStatus) *models.BotStatus {
	out := *st
	if st.LastStartedAt != nil {
		t := *st.LastStartedAt
		out.LastStartedAt = &t
	}
	if st.LastStoppedAt != nil {
		t := *st.LastStoppedAt
		out.LastStoppedAt = &t
	}
	return &out
}
