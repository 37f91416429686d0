package orderservice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-order/internal/adapter/memory"
	"coffee-order/internal/shared/logger"
)

func newTestRouter() (*mux.Router, *recordingSink) {
	log := logger.New("order-service-test")
	sink := &recordingSink{}
	svc := New(memory.NewOrderStore(), sink, log)

	router := mux.NewRouter()
	NewOrderHTTPHandler(svc, log).Register(router)
	return router, sink
}

func doJSON(t *testing.T, router *mux.Router, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createTestOrder(t *testing.T, router *mux.Router, userID string) orderResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/orders", userID, createOrderRequest{
		Items: []createOrderItemRequest{
			{MenuID: 1, Name: "Americano", Price: 4.50, Quantity: 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_CreateOrder(t *testing.T) {
	router, _ := newTestRouter()

	resp := createTestOrder(t, router, "alice")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, "pending", resp.Status)
	assert.InDelta(t, 9.00, resp.TotalAmount, 0.001)
	require.Len(t, resp.Items, 1)
	assert.InDelta(t, 4.50, resp.Items[0].Price, 0.001)
}

func TestHandler_CreateOrderRejectsBadRequests(t *testing.T) {
	router, _ := newTestRouter()

	// no identity header
	rec := doJSON(t, router, http.MethodPost, "/orders", "", createOrderRequest{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// empty item list
	rec = doJSON(t, router, http.MethodPost, "/orders", "alice", createOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown fields are refused
	rec = doJSON(t, router, http.MethodPost, "/orders", "alice", map[string]any{
		"items": []any{}, "surprise": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// wrong content type
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte("items=1")))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-User-ID", "alice")
	plain := httptest.NewRecorder()
	router.ServeHTTP(plain, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, plain.Code)
}

func TestHandler_GetAndListOrders(t *testing.T) {
	router, _ := newTestRouter()
	created := createTestOrder(t, router, "alice")

	rec := doJSON(t, router, http.MethodGet, "/orders/"+created.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)

	// a different user sees 404, not 403
	rec = doJSON(t, router, http.MethodGet, "/orders/"+created.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/orders", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodGet, "/orders", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestHandler_SetStatus(t *testing.T) {
	router, _ := newTestRouter()
	created := createTestOrder(t, router, "alice")

	rec := doJSON(t, router, http.MethodPatch, "/orders/"+created.ID+"/status", "staff", setStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "confirmed", got.Status)

	// skipping a stage conflicts
	rec = doJSON(t, router, http.MethodPatch, "/orders/"+created.ID+"/status", "staff", setStatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown status values are a client error
	rec = doJSON(t, router, http.MethodPatch, "/orders/"+created.ID+"/status", "staff", setStatusRequest{Status: "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/orders/no-such-order/status", "staff", setStatusRequest{Status: "confirmed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CancelOrder(t *testing.T) {
	router, _ := newTestRouter()
	created := createTestOrder(t, router, "alice")

	rec := doJSON(t, router, http.MethodDelete, "/orders/"+created.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/orders/"+created.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cancelled", got.Status)

	// already terminal: cancelling again is idempotent
	rec = doJSON(t, router, http.MethodDelete, "/orders/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ReportPayment(t *testing.T) {
	router, sink := newTestRouter()
	created := createTestOrder(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/orders/"+created.ID+"/payment", "gateway", reportPaymentRequest{Outcome: "succeeded"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	sink.mu.Lock()
	payments := append([]string(nil), sink.payments...)
	sink.mu.Unlock()
	require.Len(t, payments, 1)
	assert.Equal(t, created.ID+"/succeeded/gateway", payments[0])

	rec = doJSON(t, router, http.MethodPost, "/orders/"+created.ID+"/payment", "gateway", reportPaymentRequest{Outcome: "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/orders/no-such-order/payment", "gateway", reportPaymentRequest{Outcome: "failed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	router, _ := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
