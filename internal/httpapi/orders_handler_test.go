package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

type apiFixture struct {
	server *httptest.Server
	users  domain.UserRepository
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()

	users := memory.NewUserRepository()
	require.NoError(t, users.Create(domain.User{ID: "u-1", Email: "u1@example.com"}))
	require.NoError(t, users.Create(domain.User{ID: "admin", Email: "admin@example.com", IsAdmin: true}))

	service := orders.NewService(
		memory.NewOrderRepository(),
		users,
		memory.NewTimelineRepository(),
		memory.NewOutboxRepository(),
		nil,
	)

	decoder := httpapi.StaticTokenDecoder{
		userToken:  {UserID: "u-1"},
		adminToken: {UserID: "admin", IsAdmin: true},
	}

	handler := httpapi.NewOrdersHandler(service, memory.NewIdempotencyRepository())
	server := httptest.NewServer(httpapi.NewRouter(handler, decoder))
	t.Cleanup(server.Close)

	return apiFixture{server: server, users: users}
}

func orderPayload(userID string) []byte {
	body, _ := json.Marshal(domain.OrderRequest{
		UserID: userID,
		Items: []domain.OrderRequestItem{
			{ProductID: "p-1", Name: "Sneakers", PriceMinor: 500, Qty: 2},
			{ProductID: "p-2", Name: "T-Shirt", PriceMinor: 300, Qty: 1},
		},
		TotalMinor:    1300,
		PaymentMethod: domain.PaymentMethodCOD,
	})
	return body
}

func doRequest(t *testing.T, method, url, token string, body []byte, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func createOrder(t *testing.T, f apiFixture, userID string) string {
	t.Helper()
	resp, payload := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload(userID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := payload["order"].(map[string]any)
	return order["id"].(string)
}

func TestCreateOrder(t *testing.T) {
	f := newAPI(t)

	resp, payload := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload("u-1"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "Order placed successfully", payload["message"])

	order := payload["order"].(map[string]any)
	require.NotEmpty(t, order["id"])
	require.Equal(t, "pending", order["status"])
	require.Equal(t, float64(1300), order["total_minor"])
}

func TestCreateOrderGuest(t *testing.T) {
	f := newAPI(t)

	resp, payload := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload(""), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	order := payload["order"].(map[string]any)
	guest, err := f.users.GetByEmail(domain.GuestEmail)
	require.NoError(t, err)
	require.Equal(t, guest.ID, order["user_id"])
}

func TestCreateOrderUnknownUser(t *testing.T) {
	f := newAPI(t)

	resp, payload := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload("missing"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "User not found", payload["message"])
}

func TestCreateOrderBadBody(t *testing.T) {
	f := newAPI(t)

	resp, _ := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", []byte("{broken"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	f := newAPI(t)
	headers := map[string]string{"Idempotency-Key": "ck-1"}

	resp, first := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload("u-1"), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, second := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload("u-1"), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	firstOrder := first["order"].(map[string]any)
	secondOrder := second["order"].(map[string]any)
	require.Equal(t, firstOrder["id"], secondOrder["id"], "replay must return the stored order, not create a new one")
}

func TestCreateOrderIdempotencyKeyReuse(t *testing.T) {
	f := newAPI(t)
	headers := map[string]string{"Idempotency-Key": "ck-2"}

	resp, _ := doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload("u-1"), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Тот же ключ с другим телом запроса.
	resp, _ = doRequest(t, http.MethodPost, f.server.URL+"/api/orders", "", orderPayload(""), headers)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetOrderWithHistory(t *testing.T) {
	f := newAPI(t)
	orderID := createOrder(t, f, "u-1")

	resp, payload := doRequest(t, http.MethodGet, f.server.URL+"/api/orders/"+orderID, "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	order := payload["order"].(map[string]any)
	require.Equal(t, orderID, order["id"])
	timeline := payload["timeline"].([]any)
	require.Len(t, timeline, 1)

	resp, _ = doRequest(t, http.MethodGet, f.server.URL+"/api/orders/missing", "", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListByUser(t *testing.T) {
	f := newAPI(t)
	createOrder(t, f, "u-1")
	createOrder(t, f, "u-1")

	resp, payload := doRequest(t, http.MethodGet, f.server.URL+"/api/orders/user/u-1", "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["orders"].([]any), 2)
}

func TestListMine(t *testing.T) {
	f := newAPI(t)
	createOrder(t, f, "u-1")

	resp, _ := doRequest(t, http.MethodGet, f.server.URL+"/api/orders/my-orders", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, payload := doRequest(t, http.MethodGet, f.server.URL+"/api/orders/my-orders", userToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["orders"].([]any), 1)
}

func TestListAllRequiresAdmin(t *testing.T) {
	f := newAPI(t)
	createOrder(t, f, "u-1")

	resp, _ := doRequest(t, http.MethodGet, f.server.URL+"/api/orders", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, f.server.URL+"/api/orders", userToken, nil, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, payload := doRequest(t, http.MethodGet, f.server.URL+"/api/orders", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["orders"].([]any), 1)
}

func TestUpdateStatus(t *testing.T) {
	f := newAPI(t)
	orderID := createOrder(t, f, "u-1")
	url := fmt.Sprintf("%s/api/orders/%s/status", f.server.URL, orderID)

	body := []byte(`{"status":"processing","reason":"payment confirmed"}`)

	resp, _ := doRequest(t, http.MethodPatch, url, userToken, body, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, payload := doRequest(t, http.MethodPatch, url, adminToken, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order := payload["order"].(map[string]any)
	require.Equal(t, "processing", order["status"])

	// Переход назад в pending запрещён.
	resp, _ = doRequest(t, http.MethodPatch, url, adminToken, []byte(`{"status":"pending"}`), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUnknownToken(t *testing.T) {
	f := newAPI(t)

	resp, _ := doRequest(t, http.MethodGet, f.server.URL+"/api/orders/my-orders", "bogus", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
