//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tillpos/internal/config"
	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/router"
	"tillpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string // supervisor JWT, not pinned to a terminal
	engine *gin.Engine
	cancel context.CancelFunc
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("tillpos_test"),
		tcPostgres.WithUsername("tillpos"),
		tcPostgres.WithPassword("tillpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                   8000,
		Env:                    "test",
		JWTSecret:              "test-secret-key",
		JWTExpirationHours:     8,
		JWTRefreshHours:        24,
		DatabaseURL:            pgURL,
		RedisURL:               rdURL,
		WorkerPoolSize:         1,
		SuspendedOrderTTLHours: 24,
		PriceCacheSeconds:      60,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed a supervisor with no terminal pin — tests pick the register via
	// the ?terminal= query parameter.
	hash, err := bcrypt.GenerateFromPassword([]byte("tillpos-e2e"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "super.e2e",
		Name:         "Supervisor E2E",
		PasswordHash: string(hash),
		Role:         "supervisor",
		Active:       true,
	}).Error)

	r, _, workerHandlers := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	poolCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	worker.StartPool(poolCtx, rdb, workerHandlers, cfg.WorkerPoolSize)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "super.e2e", "password": "tillpos-e2e"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server: srv,
		db:     db,
		token:  loginBody.AccessToken,
		engine: r,
		cancel: cancel,
	}
}

func (env *testEnv) createProduct(t *testing.T, name, barcode, price string, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"barcode":  barcode,
			"name":     name,
			"category": "e2e",
			"price":    price,
			"stock":    stock,
		}),
		env.adminToken(t),
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

// adminToken lazily creates and logs in an admin; product creation is
// admin-only.
func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("tillpos-admin"), bcrypt.DefaultCost)
	require.NoError(t, err)
	err = env.db.Where("username = ?", "admin.e2e").
		FirstOrCreate(&model.User{
			Username:     "admin.e2e",
			Name:         "Admin E2E",
			PasswordHash: string(hash),
			Role:         "admin",
			Active:       true,
		}).Error
	require.NoError(t, err)

	resp := do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "tillpos-admin"}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	return body.AccessToken
}

func (env *testEnv) openSession(t *testing.T, terminal int, opening string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/sessions/open",
		jsonBody(t, map[string]any{"terminal": terminal, "opening_balance": opening}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess struct {
		SessionID string `json:"session_id"`
	}
	decodeJSON(t, resp, &sess)
	return sess.SessionID
}

func (env *testEnv) productStock(t *testing.T, id string) int {
	t.Helper()
	var stock int
	require.NoError(t, env.db.Raw("SELECT stock FROM products WHERE id = ?", id).Scan(&stock).Error)
	return stock
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Soda 500ml", "7890001000001", "250", 20)
	env.openSession(t, 1, "1000")

	// Build the cart
	addResp := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 3}),
		env.token,
	)
	require.Equal(t, http.StatusOK, addResp.StatusCode)
	var cartBody struct {
		Total        string `json:"total"`
		RemainingDue string `json:"remaining_due"`
	}
	decodeJSON(t, addResp, &cartBody)
	assert.Equal(t, "750", cartBody.Total)

	// Finalize with an inline cash tender, overpaid
	finResp := do(t, env.server, "POST", "/v1/checkout?terminal=1",
		jsonBody(t, map[string]any{"method": "cash", "amount": "750", "received_amount": "800"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, finResp.StatusCode)
	var order struct {
		ID           string `json:"id"`
		TicketNumber int    `json:"ticket_number"`
		Total        string `json:"total"`
		Change       string `json:"change"`
		Status       string `json:"status"`
	}
	decodeJSON(t, finResp, &order)
	assert.Equal(t, 1, order.TicketNumber)
	assert.Equal(t, "completed", order.Status)
	assert.Equal(t, "750", order.Total)
	assert.Equal(t, "50", order.Change)

	assert.Equal(t, 17, env.productStock(t, productID))

	// Cart is empty after commit
	cartResp := do(t, env.server, "GET", "/v1/cart?terminal=1", nil, env.token)
	require.Equal(t, http.StatusOK, cartResp.StatusCode)
	var emptyCart struct {
		Items []any `json:"items"`
	}
	decodeJSON(t, cartResp, &emptyCart)
	assert.Empty(t, emptyCart.Items)

	// Order shows up in the list
	listResp := do(t, env.server, "GET", "/v1/orders", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(1), list.Total)

	// The async worker posts one ledger entry per payment
	assert.Eventually(t, func() bool {
		var n int64
		if err := env.db.Raw("SELECT COUNT(*) FROM ledger_entries WHERE reference = ?", order.ID).Scan(&n).Error; err != nil {
			return false
		}
		return n == 1
	}, 10*time.Second, 200*time.Millisecond)
}

func TestE2E_InsufficientStockAbortsSale(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Scarce Juice", "7890001000002", "150", 1)
	env.openSession(t, 1, "500")

	addResp := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 2}),
		env.token,
	)
	require.Equal(t, http.StatusOK, addResp.StatusCode)

	finResp := do(t, env.server, "POST", "/v1/checkout?terminal=1",
		jsonBody(t, map[string]any{"method": "cash", "amount": "300"}),
		env.token,
	)
	assert.Equal(t, http.StatusConflict, finResp.StatusCode)
	finResp.Body.Close()

	// Nothing committed: stock untouched, no order, cart still holds the line
	assert.Equal(t, 1, env.productStock(t, productID))

	var orders int64
	require.NoError(t, env.db.Raw("SELECT COUNT(*) FROM orders").Scan(&orders).Error)
	assert.Zero(t, orders)

	cartResp := do(t, env.server, "GET", "/v1/cart?terminal=1", nil, env.token)
	var cartBody struct {
		Items []any `json:"items"`
	}
	decodeJSON(t, cartResp, &cartBody)
	assert.Len(t, cartBody.Items, 1)
}

func TestE2E_VoidRestoresStock(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Milk 1L", "7890001000003", "200", 10)
	env.openSession(t, 1, "500")

	addResp := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 3}),
		env.token,
	)
	require.Equal(t, http.StatusOK, addResp.StatusCode)

	finResp := do(t, env.server, "POST", "/v1/checkout?terminal=1",
		jsonBody(t, map[string]any{"method": "cash", "amount": "600"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, finResp.StatusCode)
	var order struct {
		ID string `json:"id"`
	}
	decodeJSON(t, finResp, &order)
	require.Equal(t, 7, env.productStock(t, productID))

	voidResp := do(t, env.server, "POST", "/v1/orders/"+order.ID+"/void",
		jsonBody(t, map[string]any{"reason": "entry mistake during e2e"}),
		env.token,
	)
	assert.Equal(t, http.StatusNoContent, voidResp.StatusCode)
	voidResp.Body.Close()

	assert.Equal(t, 10, env.productStock(t, productID))

	// Voiding twice is rejected
	again := do(t, env.server, "POST", "/v1/orders/"+order.ID+"/void",
		jsonBody(t, map[string]any{"reason": "double void attempt"}),
		env.token,
	)
	assert.Equal(t, http.StatusBadRequest, again.StatusCode)
	again.Body.Close()
}

// Two registers race for the last units of one product. The conditional
// decrement lets exactly the fitting request commit; the loser rolls back
// whole and stock never goes negative.
func TestE2E_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Last Units", "7890001000007", "100", 3)
	env.openSession(t, 1, "500")
	env.openSession(t, 2, "500")

	for _, terminal := range []int{1, 2} {
		resp := do(t, env.server, "POST", fmt.Sprintf("/v1/cart/items?terminal=%d", terminal),
			jsonBody(t, map[string]any{"product_id": productID, "quantity": 2}),
			env.token,
		)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i, terminal := range []int{1, 2} {
		wg.Add(1)
		go func(i, terminal int) {
			defer wg.Done()
			resp := do(t, env.server, "POST", fmt.Sprintf("/v1/checkout?terminal=%d", terminal),
				jsonBody(t, map[string]any{"method": "cash", "amount": "200"}),
				env.token,
			)
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i, terminal)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, statuses)
	assert.Equal(t, 1, env.productStock(t, productID))

	var orders int64
	require.NoError(t, env.db.Raw("SELECT COUNT(*) FROM orders").Scan(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestE2E_SuspendAndResume(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Bread", "7890001000004", "120", 30)
	env.openSession(t, 1, "500")

	addResp := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 2}),
		env.token,
	)
	require.Equal(t, http.StatusOK, addResp.StatusCode)

	susResp := do(t, env.server, "POST", "/v1/suspended?terminal=1",
		jsonBody(t, map[string]any{"reason": "customer forgot wallet"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, susResp.StatusCode)
	var parked struct {
		ID string `json:"id"`
	}
	decodeJSON(t, susResp, &parked)

	// The working cart is empty while the sale is parked
	cartResp := do(t, env.server, "GET", "/v1/cart?terminal=1", nil, env.token)
	var cartBody struct {
		Items []any `json:"items"`
	}
	decodeJSON(t, cartResp, &cartBody)
	assert.Empty(t, cartBody.Items)

	// Resume on a different register
	env.openSession(t, 2, "300")
	resResp := do(t, env.server, "POST", fmt.Sprintf("/v1/suspended/%s/resume?terminal=2", parked.ID), nil, env.token)
	require.Equal(t, http.StatusOK, resResp.StatusCode)
	var resumed struct {
		Items []any  `json:"items"`
		Total string `json:"total"`
	}
	decodeJSON(t, resResp, &resumed)
	assert.Len(t, resumed.Items, 1)
	assert.Equal(t, "240", resumed.Total)

	// The record was consumed — a second resume 404s
	secondResp := do(t, env.server, "POST", fmt.Sprintf("/v1/suspended/%s/resume?terminal=2", parked.ID), nil, env.token)
	assert.Equal(t, http.StatusNotFound, secondResp.StatusCode)
	secondResp.Body.Close()
}

func TestE2E_SessionCloseWithVariance(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Coffee", "7890001000005", "500", 10)
	sessionID := env.openSession(t, 1, "1000")

	addResp := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 1}),
		env.token,
	)
	require.Equal(t, http.StatusOK, addResp.StatusCode)

	finResp := do(t, env.server, "POST", "/v1/checkout?terminal=1",
		jsonBody(t, map[string]any{"method": "cash", "amount": "500"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, finResp.StatusCode)
	finResp.Body.Close()

	// Expected cash is 1500; counting 1490 is a 0.67% shortfall
	closeResp := do(t, env.server, "POST", "/v1/sessions/close",
		jsonBody(t, map[string]any{"session_id": sessionID, "counted_cash": "1490"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Variance struct {
			Amount  string `json:"amount"`
			Percent string `json:"percent"`
			Level   string `json:"level"`
		} `json:"variance"`
		Status string `json:"status"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "-10", closed.Variance.Amount)
	assert.Equal(t, "-0.67", closed.Variance.Percent)
	assert.Equal(t, "normal", closed.Variance.Level)
	assert.Equal(t, "closed", closed.Status)

	// Sales are blocked once the register is dark
	blocked := do(t, env.server, "POST", "/v1/cart/items?terminal=1",
		jsonBody(t, map[string]any{"product_id": productID, "quantity": 1}),
		env.token,
	)
	assert.Equal(t, http.StatusConflict, blocked.StatusCode)
	blocked.Body.Close()
}

func TestE2E_PriceCheckIsPublic(t *testing.T) {
	env := setupTestEnv(t)

	env.createProduct(t, "Chocolate", "7890001000006", "350", 5)

	resp := do(t, env.server, "GET", "/v1/price/7890001000006", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var price struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	decodeJSON(t, resp, &price)
	assert.Equal(t, "Chocolate", price.Name)
	assert.Equal(t, "350", price.Price)
}
