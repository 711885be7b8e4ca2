package integration

import (
	"context"
	"fmt"
	"sync"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// --- In-Memory Company Repo ---

type inMemoryCompanyRepo struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]*domain.Company
}

func newInMemoryCompanyRepo() *inMemoryCompanyRepo {
	return &inMemoryCompanyRepo{companies: make(map[uuid.UUID]*domain.Company)}
}

func (r *inMemoryCompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[c.ID] = c
	return nil
}

func (r *inMemoryCompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*domain.Transaction
	byWallet map[uuid.UUID][]domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		byID:     make(map[uuid.UUID]*domain.Transaction),
		byWallet: make(map[uuid.UUID][]domain.Transaction),
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.byID[t.ID] = &cp
	r.byWallet[t.WalletID] = append(r.byWallet[t.WalletID], cp)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.byWallet[walletID]
	out := make([]domain.Transaction, len(entries))
	copy(out, entries)
	return out, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes all "transactions" behind a single mutex,
// mirroring the row-lock serialization the real store provides.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	var once sync.Once
	return &memTx{release: func() { once.Do(t.mu.Unlock) }}, nil
}

// memTx is released on either Commit or Rollback, whichever comes first.
type memTx struct {
	pgx.Tx
	release func()
}

func (t *memTx) Commit(ctx context.Context) error {
	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.release()
	return nil
}
