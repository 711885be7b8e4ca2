package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqpEvents "custodial-wallet/internal/adapter/events/rabbitmq"
	httpHandler "custodial-wallet/internal/adapter/http/handler"
	redisStorage "custodial-wallet/internal/adapter/storage/redis"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/service"
	"custodial-wallet/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on in-memory storage: miniredis
// behind the real Redis stores, map-backed postgres repos, and real services
// wired through the real HTTP layer. Rate limiting is disabled so tests can
// hammer endpoints freely.

const (
	testPassword      = "StrongPass123!"
	testPin           = "1234"
	testCompanySecret = "corp-secret-123"
)

type testApp struct {
	server    *httptest.Server
	redis     *miniredis.Miniredis
	companyID uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	sessionStore := redisStorage.NewSessionStore(rdb)
	flowStore := redisStorage.NewFlowStore(rdb)
	walletLock := redisStorage.NewWalletLock(rdb)
	idempCache := redisStorage.NewIdempotencyCache(rdb)

	// Core services
	hashSvc := service.NewArgon2PinHasher()
	tokenSvc := service.NewJWTTokenService("integration-test-secret", 24*time.Hour, "custodial-wallet-test")
	authzSvc := service.NewHMACAuthorizationService("company-auth-key")

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	compRepo := newInMemoryCompanyRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	idempRepo := newInMemoryIdempotencyRepo()
	transactor := newInMemoryTransactor()

	// Seed the company users transfer on behalf of.
	companyID := uuid.New()
	require.NoError(t, compRepo.Create(context.Background(), &domain.Company{
		ID:         companyID,
		Name:       "Acme Exports",
		AuthDigest: authzSvc.Digest(testCompanySecret),
		CreatedAt:  time.Now().UTC(),
	}))

	log := logger.NewWithWriter("error", io.Discard)

	// Business services
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, idempRepo, transactor, log)
	pinGate := service.NewPinGate(walletRepo, sessionStore, hashSvc, service.PinGateConfig{
		MaxAttempts: 3,
		Lockout:     5 * time.Minute,
		UnlockTTL:   15 * time.Minute,
	}, log)
	transferSvc := service.NewTransferService(
		flowStore, userRepo, compRepo, authzSvc, ledgerSvc, txRepo,
		walletLock, idempRepo, idempCache, amqpEvents.NoopPublisher{},
		service.TransferConfig{
			ProcessingDelay: 20 * time.Millisecond,
			FlowTTL:         30 * time.Minute,
			OpLockTTL:       30 * time.Second,
		}, log)
	purchaseSvc := service.NewPurchaseService(ledgerSvc, walletLock, amqpEvents.NoopPublisher{}, 30*time.Second, log)
	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PinGate:        pinGate,
		LedgerSvc:      ledgerSvc,
		TransferSvc:    transferSvc,
		PurchaseSvc:    purchaseSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	return &testApp{
		server:    httptest.NewServer(router),
		redis:     mr,
		companyID: companyID,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// do issues a JSON request against the test server.
func (a *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// decodeData unwraps the success envelope and closes the body.
func decodeData(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	data, _ := envelope["data"].(map[string]interface{})
	return data
}

// errorCode unwraps the error envelope and closes the body.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.ErrorCode
}

func registerUser(t *testing.T, app *testApp, username string, withCompany bool) {
	t.Helper()
	body := map[string]any{
		"username":   username,
		"password":   testPassword,
		"pin":        testPin,
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}
	if withCompany {
		body["company_id"] = app.companyID.String()
	}
	resp := app.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func loginAndGetToken(t *testing.T, app *testApp, username string) string {
	t.Helper()
	resp := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func unlockWallet(t *testing.T, app *testApp, token string) {
	t.Helper()
	resp := app.do(t, http.MethodPost, "/api/v1/wallet/unlock", token, map[string]string{"pin": testPin})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func validCardBody(amount int64) map[string]any {
	return map[string]any{
		"amount": amount,
		"card": map[string]string{
			"holder_name": "Ada Lovelace",
			"number":      "4111111111111111",
			"expiry":      "12/99",
			"cvv":         "123",
		},
	}
}

func walletBalance(t *testing.T, app *testApp, token string) string {
	t.Helper()
	resp := app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	balance, _ := data["balance"].(string)
	return balance
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "ada",
		"password":   testPassword,
		"pin":        testPin,
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	assert.NotEmpty(t, data["user_id"])
	assert.NotEmpty(t, data["wallet_id"])
	assert.Regexp(t, "^0x[0-9a-f]{40}$", data["address"])

	token := loginAndGetToken(t, app, "ada")
	assert.NotEmpty(t, token)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)

	resp := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "ada",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_001", errorCode(t, resp))
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)

	resp := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "ada",
		"password":   testPassword,
		"pin":        testPin,
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "AUTH_002", errorCode(t, resp))
}

func TestIntegration_RegisterRejectsMalformedPin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "ada",
		"password":   testPassword,
		"pin":        "12ab",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_JWT_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp := app.do(t, http.MethodGet, "/api/v1/wallet", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_PinGate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")

	// Wallet is sealed until the PIN is verified.
	resp := app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PIN_003", errorCode(t, resp))

	// Wrong PIN is rejected.
	resp = app.do(t, http.MethodPost, "/api/v1/wallet/unlock", token, map[string]string{"pin": "9999"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "PIN_001", errorCode(t, resp))

	// Correct PIN opens the gate.
	unlockWallet(t, app, token)
	assert.Equal(t, "0", walletBalance(t, app, token))

	// Locking seals it again.
	resp = app.do(t, http.MethodPost, "/api/v1/wallet/lock", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIntegration_PinLockoutAfterThreeFailures(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")

	for i := 0; i < 3; i++ {
		resp := app.do(t, http.MethodPost, "/api/v1/wallet/unlock", token, map[string]string{"pin": "9999"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "PIN_001", errorCode(t, resp))
	}

	// Even the correct PIN is refused until the cool-down elapses.
	resp := app.do(t, http.MethodPost, "/api/v1/wallet/unlock", token, map[string]string{"pin": testPin})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PIN_002", errorCode(t, resp))

	// Cool-down over: counter expired, the correct PIN works again.
	app.redis.FastForward(6 * time.Minute)
	unlockWallet(t, app, token)
}

func TestIntegration_PurchaseCreditsWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodPost, "/api/v1/purchases", token, validCardBody(100))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "BUY", data["type"])
	assert.Equal(t, "100", data["signed_amount"])

	assert.Equal(t, "100", walletBalance(t, app, token))

	resp = app.do(t, http.MethodGet, "/api/v1/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeData(t, resp)
	assert.Equal(t, float64(1), list["total"])
}

func TestIntegration_PurchaseRejectsBadCard(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	body := validCardBody(100)
	body["card"].(map[string]string)["number"] = "4111111111111112" // fails checksum
	resp := app.do(t, http.MethodPost, "/api/v1/purchases", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VAL_001", errorCode(t, resp))

	assert.Equal(t, "0", walletBalance(t, app, token))
}

func TestIntegration_PurchaseDenominations(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodGet, "/api/v1/purchases/denominations", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	denoms, _ := data["denominations"].([]interface{})
	require.Len(t, denoms, 5)
	assert.Equal(t, "50", denoms[0])
	assert.Equal(t, "1000", denoms[4])
}

func TestIntegration_TransferEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", true)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	// Fund the wallet first.
	resp := app.do(t, http.MethodPost, "/api/v1/purchases", token, validCardBody(100))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Step 1: open the flow.
	resp = app.do(t, http.MethodPost, "/api/v1/transfers", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	flowID, _ := data["id"].(string)
	require.NotEmpty(t, flowID)
	assert.Equal(t, "awaiting_identity", data["state"])

	// Step 2: confirm identity with the company secret.
	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/identity", token, map[string]string{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"company_secret": testCompanySecret,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, "awaiting_details", data["state"])

	// Step 3: submit payment details.
	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/details", token, map[string]any{
		"network":    "TRC20",
		"to_address": "TXYZdestaddress000000000000000000",
		"amount":     40,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, "awaiting_confirmation", data["state"])

	// Step 4: confirm. The debit lands exactly once.
	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	txID, _ := data["id"].(string)
	require.NotEmpty(t, txID)
	assert.Equal(t, "TRANSFER", data["type"])
	assert.Equal(t, "-40", data["signed_amount"])

	assert.Equal(t, "60", walletBalance(t, app, token))

	// Replayed confirm returns the same transaction without a second debit.
	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, txID, data["id"])
	assert.Equal(t, "60", walletBalance(t, app, token))

	// Flow reads back as completed.
	resp = app.do(t, http.MethodGet, "/api/v1/transfers/"+flowID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, "completed", data["state"])
}

func TestIntegration_TransferWrongCompanySecret(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", true)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodPost, "/api/v1/transfers", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	flowID, _ := decodeData(t, resp)["id"].(string)

	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/identity", token, map[string]string{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"company_secret": "wrong-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TRF_001", errorCode(t, resp))
}

func TestIntegration_TransferWithoutCompanyRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", false)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodPost, "/api/v1/transfers", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	flowID, _ := decodeData(t, resp)["id"].(string)

	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/identity", token, map[string]string{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"company_secret": testCompanySecret,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TRF_001", errorCode(t, resp))
}

func TestIntegration_TransferOverBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", true)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodPost, "/api/v1/purchases", token, validCardBody(100))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodPost, "/api/v1/transfers", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	flowID, _ := decodeData(t, resp)["id"].(string)

	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/identity", token, map[string]string{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"company_secret": testCompanySecret,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodPost, "/api/v1/transfers/"+flowID+"/details", token, map[string]any{
		"network":    "TRC20",
		"to_address": "TXYZdestaddress000000000000000000",
		"amount":     150,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "WAL_001", errorCode(t, resp))

	// Balance untouched.
	assert.Equal(t, "100", walletBalance(t, app, token))
}

func TestIntegration_TransferAbandon(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "ada", true)
	token := loginAndGetToken(t, app, "ada")
	unlockWallet(t, app, token)

	resp := app.do(t, http.MethodPost, "/api/v1/transfers", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	flowID, _ := decodeData(t, resp)["id"].(string)

	resp = app.do(t, http.MethodDelete, "/api/v1/transfers/"+flowID, token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/v1/transfers/"+flowID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "TRF_005", errorCode(t, resp))
}
