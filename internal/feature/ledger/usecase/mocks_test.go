package usecase

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
)

// mockLedgerStore is a mock implementation of LedgerStore.
type mockLedgerStore struct {
	// WithAccountFunc is called when the WithAccount method is invoked.
	WithAccountFunc func(ctx context.Context, userID uint, fn func(ctx context.Context, acc Account) error) error
	calls           int
}

// WithAccount is the mock implementation of the WithAccount method.
func (m *mockLedgerStore) WithAccount(ctx context.Context, userID uint, fn func(ctx context.Context, acc Account) error) error {
	m.calls++
	if m.WithAccountFunc != nil {
		return m.WithAccountFunc(ctx, userID, fn)
	}
	return domain.ErrUserNotFound
}

// fakeStore は最小限の全か無か台帳です。usecase のテストでのみ使います。
type fakeStore struct {
	mu       sync.Mutex
	balances map[uint]decimal.Decimal
	holdings map[uint]map[string]entity.Holding
	txs      map[uint][]entity.Transaction
}

func newFakeStore(users map[uint]decimal.Decimal) *fakeStore {
	s := &fakeStore{
		balances: users,
		holdings: make(map[uint]map[string]entity.Holding),
		txs:      make(map[uint][]entity.Transaction),
	}
	for id := range users {
		s.holdings[id] = make(map[string]entity.Holding)
	}
	return s
}

func (s *fakeStore) WithAccount(ctx context.Context, userID uint, fn func(ctx context.Context, acc Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	acc := &fakeAccount{userID: userID, balance: balance, holdings: make(map[string]entity.Holding)}
	for k, v := range s.holdings[userID] {
		acc.holdings[k] = v
	}
	acc.txs = append(acc.txs, s.txs[userID]...)

	if err := fn(ctx, acc); err != nil {
		return err
	}
	s.balances[userID] = acc.balance
	s.holdings[userID] = acc.holdings
	s.txs[userID] = acc.txs
	return nil
}

type fakeAccount struct {
	userID   uint
	balance  decimal.Decimal
	holdings map[string]entity.Holding
	txs      []entity.Transaction
}

func (a *fakeAccount) Balance() decimal.Decimal { return a.balance }

func (a *fakeAccount) Holding(_ context.Context, code string) (*entity.Holding, error) {
	h, ok := a.holdings[code]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (a *fakeAccount) SetBalance(_ context.Context, b decimal.Decimal) error {
	a.balance = b
	return nil
}

func (a *fakeAccount) SaveHolding(_ context.Context, h entity.Holding) error {
	a.holdings[h.Code] = h
	return nil
}

func (a *fakeAccount) DeleteHolding(_ context.Context, code string) error {
	delete(a.holdings, code)
	return nil
}

func (a *fakeAccount) AppendTransaction(_ context.Context, t entity.Transaction) error {
	a.txs = append(a.txs, t)
	return nil
}

func (a *fakeAccount) Portfolio(_ context.Context, recent int) (*entity.Portfolio, error) {
	p := &entity.Portfolio{UserID: a.userID, Balance: a.balance, Holdings: []entity.Holding{}}
	for _, h := range a.holdings {
		p.Holdings = append(p.Holdings, h)
	}
	for i := len(a.txs) - 1; i >= 0 && len(p.Transactions) < recent; i-- {
		p.Transactions = append(p.Transactions, a.txs[i])
	}
	return p, nil
}

// mockObserver records ObserveTrade calls.
type mockObserver struct {
	mu    sync.Mutex
	calls [][2]string
}

func (m *mockObserver) ObserveTrade(tradeType, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, [2]string{tradeType, result})
}
