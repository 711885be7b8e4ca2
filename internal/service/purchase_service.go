package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	cardNumberRe = regexp.MustCompile(`^[0-9]{16}$`)
	cardCVVRe    = regexp.MustCompile(`^[0-9]{3}$`)
	cardExpiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

// quickBuyDenominations are the fixed amounts offered by the quick-buy
// shortcut.
var quickBuyDenominations = []int64{50, 100, 250, 500, 1000}

// PurchaseServiceImpl implements ports.PurchaseService. The card form is
// format-validated only and never charged; a valid submission credits the
// wallet through the ledger.
type PurchaseServiceImpl struct {
	ledger    ports.LedgerService
	opLocks   ports.WalletLockStore
	publisher ports.EventPublisher
	opLockTTL time.Duration
	log       zerolog.Logger
}

// NewPurchaseService creates a new PurchaseServiceImpl.
func NewPurchaseService(
	ledger ports.LedgerService,
	opLocks ports.WalletLockStore,
	publisher ports.EventPublisher,
	opLockTTL time.Duration,
	log zerolog.Logger,
) *PurchaseServiceImpl {
	return &PurchaseServiceImpl{
		ledger:    ledger,
		opLocks:   opLocks,
		publisher: publisher,
		opLockTTL: opLockTTL,
		log:       log,
	}
}

// Denominations returns the quick-buy presets.
func (s *PurchaseServiceImpl) Denominations() []decimal.Decimal {
	out := make([]decimal.Decimal, len(quickBuyDenominations))
	for i, d := range quickBuyDenominations {
		out[i] = decimal.NewFromInt(d)
	}
	return out
}

// Buy validates the simulated card form and credits the wallet. No partial
// submission is possible: every field check must pass before the ledger is
// touched.
func (s *PurchaseServiceImpl) Buy(ctx context.Context, ownerID uuid.UUID, req ports.PurchaseRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if err := validateCard(req.Card); err != nil {
		return nil, err
	}

	wallet, err := s.ledger.CurrentBalance(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.opLocks.Acquire(ctx, wallet.ID, s.opLockTTL)
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

	_, txn, err := s.ledger.Apply(ctx, ownerID, ports.LedgerEntry{
		Type:      domain.TransactionTypeBuy,
		Direction: domain.DirectionCredit,
		Amount:    req.Amount,
		Network:   domain.DefaultNetwork,
		ToAddress: domain.BuyAddressMarker,
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, ownerID, txn); err != nil {
			s.log.Warn().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to publish purchase event")
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("amount", req.Amount.String()).
		Msg("purchase completed")

	return txn, nil
}

// validateCard runs the simulated card-form checks: cardholder name, 16-digit
// number passing Luhn, MM/YY expiry not in the past, 3-digit CVV.
func validateCard(card ports.CardDetails) error {
	if strings.TrimSpace(card.HolderName) == "" {
		return apperror.Validation("cardholder name is required")
	}
	if !cardNumberRe.MatchString(card.Number) {
		return apperror.Validation("card number must be 16 digits")
	}
	if !luhnValid(card.Number) {
		return apperror.Validation("card number failed checksum")
	}
	if !cardCVVRe.MatchString(card.CVV) {
		return apperror.Validation("CVV must be 3 digits")
	}
	if !expiryInFuture(card.Expiry, time.Now()) {
		return apperror.Validation("card expiry must be MM/YY and not in the past")
	}
	return nil
}

// luhnValid checks the Luhn checksum of a digit string.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// expiryInFuture reports whether an MM/YY expiry is this month or later.
func expiryInFuture(expiry string, now time.Time) bool {
	m := cardExpiryRe.FindStringSubmatch(expiry)
	if m == nil {
		return false
	}
	month := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	year := 2000 + int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.Before(endOfMonth)
}
