package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const confirmCacheTTL = 24 * time.Hour

// TransferConfig tunes the transfer workflow.
type TransferConfig struct {
	ProcessingDelay time.Duration // simulated confirmation delay
	FlowTTL         time.Duration // abandoned flows expire after this
	OpLockTTL       time.Duration // per-wallet single-flight lock TTL
}

// TransferServiceImpl implements ports.TransferService.
//
// A flow instance is single-use and lives only in the flow store until its
// confirm step commits. Validation happens at each step boundary; the
// processing delay is never started for an amount the details step rejected.
type TransferServiceImpl struct {
	flows      ports.FlowStore
	userRepo   ports.UserRepository
	compRepo   ports.CompanyRepository
	authz      ports.AuthorizationService
	ledger     ports.LedgerService
	txRepo     ports.TransactionRepository
	opLocks    ports.WalletLockStore
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	publisher  ports.EventPublisher
	cfg        TransferConfig
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	flows ports.FlowStore,
	userRepo ports.UserRepository,
	compRepo ports.CompanyRepository,
	authz ports.AuthorizationService,
	ledger ports.LedgerService,
	txRepo ports.TransactionRepository,
	opLocks ports.WalletLockStore,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	publisher ports.EventPublisher,
	cfg TransferConfig,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		flows:      flows,
		userRepo:   userRepo,
		compRepo:   compRepo,
		authz:      authz,
		ledger:     ledger,
		txRepo:     txRepo,
		opLocks:    opLocks,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		publisher:  publisher,
		cfg:        cfg,
		log:        log,
	}
}

// Start opens a fresh workflow instance at the identity step.
func (s *TransferServiceImpl) Start(ctx context.Context, ownerID uuid.UUID) (*domain.TransferFlow, error) {
	// Ensure the wallet exists before handing out a flow.
	if _, err := s.ledger.CurrentBalance(ctx, ownerID); err != nil {
		return nil, err
	}

	flow := domain.NewTransferFlow(ownerID)
	if err := s.flows.Save(ctx, flow, s.cfg.FlowTTL); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save flow: %w", err))
	}

	s.log.Info().
		Str("flow_id", flow.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("transfer flow started")

	return flow, nil
}

// ConfirmIdentity verifies the requester's name and the pre-shared company
// secret. On mismatch the flow stays in the identity step.
func (s *TransferServiceImpl) ConfirmIdentity(ctx context.Context, ownerID, flowID uuid.UUID, req ports.IdentityConfirmation) (*domain.TransferFlow, error) {
	flow, err := s.loadFlow(ctx, ownerID, flowID)
	if err != nil {
		return nil, err
	}
	if flow.State != domain.FlowStateAwaitingIdentity {
		return nil, apperror.ErrFlowState("identity confirmation")
	}

	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apperror.Validation("first and last name are required")
	}

	user, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil || user.CompanyID == nil {
		return nil, apperror.ErrInvalidAuthorization()
	}

	company, err := s.compRepo.GetByID(ctx, *user.CompanyID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch company: %w", err))
	}
	if company == nil || !s.authz.Verify(req.CompanySecret, company.AuthDigest) {
		s.log.Warn().
			Str("flow_id", flowID.String()).
			Str("owner_id", ownerID.String()).
			Msg("transfer authorization rejected")
		return nil, apperror.ErrInvalidAuthorization()
	}

	flow.FirstName = req.FirstName
	flow.LastName = req.LastName
	flow.Advance(domain.FlowStateAwaitingDetails)
	if err := s.flows.Save(ctx, flow, s.cfg.FlowTTL); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save flow: %w", err))
	}

	return flow, nil
}

// SubmitDetails validates network, destination address, and amount. Every
// rule is checked here, before the processing step can ever start.
func (s *TransferServiceImpl) SubmitDetails(ctx context.Context, ownerID, flowID uuid.UUID, req ports.PaymentDetails) (*domain.TransferFlow, error) {
	flow, err := s.loadFlow(ctx, ownerID, flowID)
	if err != nil {
		return nil, err
	}
	if flow.State != domain.FlowStateAwaitingDetails && flow.State != domain.FlowStateAwaitingConfirmation {
		return nil, apperror.ErrFlowState("payment details")
	}

	network, ok := domain.LookupNetwork(req.Network)
	if !ok {
		return nil, apperror.ErrUnknownNetwork(string(req.Network))
	}
	if strings.TrimSpace(req.ToAddress) == "" {
		return nil, apperror.ErrInvalidAddress()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Amount.LessThan(network.MinAmount) {
		return nil, apperror.ErrBelowMinimum(string(network.Code), network.MinAmount.String())
	}

	wallet, err := s.ledger.CurrentBalance(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// Boundary inclusive: the full balance may be transferred.
	if req.Amount.GreaterThan(wallet.Balance) {
		return nil, apperror.ErrInsufficientBalance()
	}

	flow.Network = network.Code
	flow.ToAddress = strings.TrimSpace(req.ToAddress)
	flow.Amount = req.Amount
	flow.Advance(domain.FlowStateAwaitingConfirmation)
	if err := s.flows.Save(ctx, flow, s.cfg.FlowTTL); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save flow: %w", err))
	}

	return flow, nil
}

// Confirm runs the processing step and commits the debit. It is idempotent
// per flow instance: re-submitting a completed confirm returns the original
// transaction without touching the ledger again. Only one mutation may be in
// flight per wallet; concurrent confirms are rejected.
func (s *TransferServiceImpl) Confirm(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.Transaction, error) {
	idempKey := domain.BuildConfirmKey(ownerID, flowID)

	// Layer 1: Redis idempotency check.
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	// Layer 2: DB idempotency check.
	idempLog, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransaction(idempLog.ResponseJSON)
	}

	flow, err := s.loadFlow(ctx, ownerID, flowID)
	if err != nil {
		return nil, err
	}
	if flow.IsCompleted() && flow.TransactionID != nil {
		txn, err := s.txRepo.GetByID(ctx, *flow.TransactionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("fetch committed transaction: %w", err))
		}
		if txn != nil {
			return txn, nil
		}
	}
	if flow.State != domain.FlowStateAwaitingConfirmation {
		return nil, apperror.ErrFlowState("confirmation")
	}

	wallet, err := s.ledger.CurrentBalance(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.opLocks.Acquire(ctx, wallet.ID, s.cfg.OpLockTTL)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire wallet lock: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrOperationInFlight()
	}
	defer func() {
		if err := s.opLocks.Release(context.WithoutCancel(ctx), wallet.ID); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", wallet.ID.String()).Msg("failed to release wallet lock")
		}
	}()

	flow.Advance(domain.FlowStateProcessing)
	if err := s.flows.Save(ctx, flow, s.cfg.FlowTTL); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save flow: %w", err))
	}

	// Simulated confirmation delay. The timer is tied to the request
	// context: an interrupted confirm rolls the flow back to the
	// confirmation step without touching the ledger.
	timer := time.NewTimer(s.cfg.ProcessingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.rollbackToConfirmation(ctx, flow)
		return nil, apperror.ErrProcessingInterrupted()
	}

	_, txn, err := s.ledger.Apply(ctx, ownerID, ports.LedgerEntry{
		Type:           domain.TransactionTypeTransfer,
		Direction:      domain.DirectionDebit,
		Amount:         flow.Amount,
		Network:        flow.Network,
		ToAddress:      flow.ToAddress,
		IdempotencyKey: idempKey,
	})
	if err != nil {
		// A failed write leaves the flow re-confirmable; the ledger view
		// must be re-fetched, never trusted optimistically.
		s.rollbackToConfirmation(ctx, flow)
		return nil, err
	}

	flow.TransactionID = &txn.ID
	flow.Advance(domain.FlowStateCompleted)
	if err := s.flows.Save(ctx, flow, s.cfg.FlowTTL); err != nil {
		s.log.Warn().Err(err).Str("flow_id", flow.ID.String()).Msg("failed to persist completed flow state")
	}

	// Post-process: cache in Redis (best-effort).
	if respJSON, err := json.Marshal(txn); err == nil {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, confirmCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache confirm result in redis")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, ownerID, txn); err != nil {
			s.log.Warn().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to publish transfer event")
		}
	}

	s.log.Info().
		Str("flow_id", flow.ID.String()).
		Str("tx_id", txn.ID.String()).
		Str("network", string(txn.Network)).
		Str("amount", txn.Amount.String()).
		Msg("transfer completed")

	return txn, nil
}

// Get returns the current flow state.
func (s *TransferServiceImpl) Get(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.TransferFlow, error) {
	return s.loadFlow(ctx, ownerID, flowID)
}

// Abandon discards a flow. Nothing committed: no ledger entry exists unless
// the confirm step finished, and completed flows cannot be un-committed.
func (s *TransferServiceImpl) Abandon(ctx context.Context, ownerID, flowID uuid.UUID) error {
	flow, err := s.loadFlow(ctx, ownerID, flowID)
	if err != nil {
		return err
	}
	if flow.State == domain.FlowStateProcessing {
		return apperror.ErrFlowState("a non-processing")
	}
	if err := s.flows.Delete(ctx, ownerID, flowID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete flow: %w", err))
	}
	return nil
}

func (s *TransferServiceImpl) loadFlow(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.TransferFlow, error) {
	flow, err := s.flows.Get(ctx, ownerID, flowID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load flow: %w", err))
	}
	if flow == nil {
		return nil, apperror.ErrFlowNotFound()
	}
	return flow, nil
}

// rollbackToConfirmation returns an interrupted or failed confirm to the
// confirmation step so the client can retry explicitly.
func (s *TransferServiceImpl) rollbackToConfirmation(ctx context.Context, flow *domain.TransferFlow) {
	flow.Advance(domain.FlowStateAwaitingConfirmation)
	if err := s.flows.Save(context.WithoutCancel(ctx), flow, s.cfg.FlowTTL); err != nil {
		s.log.Warn().Err(err).Str("flow_id", flow.ID.String()).Msg("failed to roll flow back to confirmation")
	}
}

// unmarshalCachedTransaction deserializes a cached transaction.
func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}
