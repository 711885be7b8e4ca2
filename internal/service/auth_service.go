package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var pinFormatRe = regexp.MustCompile(`^[0-9]{4}$`)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	hasher     ports.PinHasher
	tokenSvc   ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	hasher ports.PinHasher,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		hasher:     hasher,
		tokenSvc:   tokenSvc,
	}
}

// Register creates a new user together with their wallet. The wallet address
// is generated here, once, and the PIN is digested before anything persists.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	if !pinFormatRe.MatchString(req.Pin) {
		return nil, apperror.ErrMalformedPin()
	}

	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	pinHash, err := s.hasher.Hash(req.Pin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	address, err := generateWalletAddress()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate address: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CompanyID:    req.CompanyID,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   user.ID,
		Address:   address,
		PinHash:   pinHash,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	return &ports.RegisterResponse{
		UserID:   user.ID,
		WalletID: wallet.ID,
		Address:  wallet.Address,
	}, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid || !user.IsActive() {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// generateWalletAddress produces the opaque display address. It is not a
// real chain address; the service never broadcasts anything.
func generateWalletAddress() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}
