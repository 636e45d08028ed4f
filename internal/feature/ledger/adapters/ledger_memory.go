package adapters

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/feature/ledger/usecase"
)

// memoryAccountState はユーザー1人分の台帳です。
type memoryAccountState struct {
	balance      decimal.Decimal
	holdings     map[string]entity.Holding
	transactions []entity.Transaction // 追記順（古い順）
}

// memoryAccountEntry はユーザーごとの排他ロックと台帳を保持します。
type memoryAccountEntry struct {
	mu    sync.Mutex
	state memoryAccountState
}

// ledgerMemory はLedgerStoreのインメモリ実装です。
// ユーザーごとのミューテックスで取引を直列化し、作業コピーへの書き込みを
// コールバック成功時にだけ反映することで all-or-nothing を保証します。
type ledgerMemory struct {
	mu             sync.Mutex
	accounts       map[uint]*memoryAccountEntry
	initialBalance decimal.Decimal
	autoProvision  bool
	logger         *slog.Logger
}

// ledgerMemoryがLedgerStoreを実装していることをコンパイル時に検証します。
var _ usecase.LedgerStore = (*ledgerMemory)(nil)

// MemoryOption configures the in-memory ledger.
type MemoryOption func(*ledgerMemory)

// WithAutoProvision は未知のユーザーを初期残高で自動作成します。
// 縮退後もトークン検証済みのユーザーが取引を続けられるようにするためのものです。
// 永続台帳に口座を持つユーザーでも残高は初期値、保有株は空から始まります。
func WithAutoProvision(initialBalance decimal.Decimal) MemoryOption {
	return func(m *ledgerMemory) {
		m.autoProvision = true
		m.initialBalance = initialBalance
	}
}

// NewLedgerMemory はインメモリ台帳を生成します。
func NewLedgerMemory(opts ...MemoryOption) *ledgerMemory {
	m := &ledgerMemory{accounts: make(map[uint]*memoryAccountEntry), logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open は userID の口座を balance で作成します。既に存在する場合は何もしません。
func (m *ledgerMemory) Open(userID uint, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[userID]; ok {
		return
	}
	m.accounts[userID] = newMemoryAccountEntry(balance)
}

func newMemoryAccountEntry(balance decimal.Decimal) *memoryAccountEntry {
	return &memoryAccountEntry{state: memoryAccountState{
		balance:  balance,
		holdings: make(map[string]entity.Holding),
	}}
}

func (m *ledgerMemory) entry(userID uint) (*memoryAccountEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.accounts[userID]
	if ok {
		return e, true
	}
	if !m.autoProvision || userID == 0 {
		return nil, false
	}
	e = newMemoryAccountEntry(m.initialBalance)
	m.accounts[userID] = e
	m.logger.Warn("auto-provisioned in-memory ledger account; durable balance and holdings are not carried over",
		"user_id", userID, "initial_balance", m.initialBalance.StringFixed(2))
	return e, true
}

// WithAccount はユーザーのロックを取得し、作業コピーに対して fn を実行します。
func (m *ledgerMemory) WithAccount(ctx context.Context, userID uint, fn func(ctx context.Context, acc usecase.Account) error) error {
	e, ok := m.entry(userID)
	if !ok {
		return domain.ErrUserNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work := &memoryAccount{
		userID:   userID,
		base:     &e.state,
		balance:  e.state.balance,
		holdings: maps.Clone(e.state.holdings),
	}
	if err := fn(ctx, work); err != nil {
		return err
	}

	// コミット
	e.state.balance = work.balance
	e.state.holdings = work.holdings
	e.state.transactions = append(e.state.transactions, work.pending...)
	return nil
}

// memoryAccount はロック中のユーザーに対する作業コピーです。
type memoryAccount struct {
	userID   uint
	base     *memoryAccountState
	balance  decimal.Decimal
	holdings map[string]entity.Holding
	pending  []entity.Transaction
}

func (a *memoryAccount) Balance() decimal.Decimal {
	return a.balance
}

func (a *memoryAccount) Holding(_ context.Context, code string) (*entity.Holding, error) {
	h, ok := a.holdings[code]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (a *memoryAccount) SetBalance(_ context.Context, balance decimal.Decimal) error {
	a.balance = balance
	return nil
}

func (a *memoryAccount) SaveHolding(_ context.Context, h entity.Holding) error {
	h.UserID = a.userID
	a.holdings[h.Code] = h
	return nil
}

func (a *memoryAccount) DeleteHolding(_ context.Context, code string) error {
	delete(a.holdings, code)
	return nil
}

func (a *memoryAccount) AppendTransaction(_ context.Context, t entity.Transaction) error {
	t.UserID = a.userID
	a.pending = append(a.pending, t)
	return nil
}

func (a *memoryAccount) Portfolio(_ context.Context, recent int) (*entity.Portfolio, error) {
	holdings := slices.SortedFunc(maps.Values(a.holdings), func(x, y entity.Holding) int {
		return strings.Compare(x.Code, y.Code)
	})

	all := len(a.base.transactions) + len(a.pending)
	n := all
	if recent > 0 && recent < n {
		n = recent
	}
	txs := make([]entity.Transaction, 0, n)
	for i := all - 1; i >= 0 && len(txs) < n; i-- {
		if i >= len(a.base.transactions) {
			txs = append(txs, a.pending[i-len(a.base.transactions)])
		} else {
			txs = append(txs, a.base.transactions[i])
		}
	}

	if holdings == nil {
		holdings = []entity.Holding{}
	}
	return &entity.Portfolio{
		UserID:       a.userID,
		Balance:      a.balance,
		Holdings:     holdings,
		Transactions: txs,
	}, nil
}
