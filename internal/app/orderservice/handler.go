package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"coffee-order/internal/domain/orders"
	"coffee-order/internal/ports"
	"coffee-order/internal/shared/logger"
)

// OrderHTTPHandler adapts HTTP requests to the OrderService. Identity-token
// verification lives outside this core; callers supply the verified user id
// in the X-User-ID header.
type OrderHTTPHandler struct {
	svc    ports.OrderService
	logger *logger.Logger
}

// NewOrderHTTPHandler wires an HTTP handler around the OrderService.
func NewOrderHTTPHandler(svc ports.OrderService, log *logger.Logger) *OrderHTTPHandler {
	return &OrderHTTPHandler{svc: svc, logger: log}
}

// Register mounts the order routes on the provided router.
func (handler *OrderHTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/orders", handler.handleCreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders", handler.handleListOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders/{orderId}", handler.handleGetOrder).Methods(http.MethodGet)
	router.HandleFunc("/orders/{orderId}/status", handler.handleSetStatus).Methods(http.MethodPatch)
	router.HandleFunc("/orders/{orderId}", handler.handleCancelOrder).Methods(http.MethodDelete)
	router.HandleFunc("/orders/{orderId}/payment", handler.handleReportPayment).Methods(http.MethodPost)
	router.HandleFunc("/health", handler.handleHealth).Methods(http.MethodGet)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createOrderRequest struct {
	Items []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuID   int     `json:"menuId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"` // decimal currency units
	Quantity int     `json:"quantity"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type reportPaymentRequest struct {
	Outcome string `json:"outcome"` // "succeeded" | "failed"
}

type orderItemResponse struct {
	MenuID   int     `json:"menuId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toOrderResponse(order *orders.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Items))
	for i, it := range order.Items {
		items[i] = orderItemResponse{
			MenuID:   it.MenuID,
			Name:     it.Name,
			Price:    it.UnitPrice.ToFloat(),
			Quantity: it.Quantity,
		}
	}
	return orderResponse{
		ID:          order.ID,
		UserID:      order.OwnerID,
		Items:       items,
		TotalAmount: order.TotalAmount.ToFloat(),
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// --- Handlers ---

func (handler *OrderHTTPHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	userID, ok := handler.requireUser(ctx, w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return
	}

	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	items := make([]ports.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = ports.ItemInput{
			MenuID:    it.MenuID,
			Name:      it.Name,
			UnitPrice: orders.NewMoneyFromFloat(it.Price),
			Quantity:  it.Quantity,
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order, err := handler.svc.PlaceOrder(ctxWithTimeout, userID, items)
	if err != nil {
		handler.mapError(ctxWithTimeout, w, err)
		return
	}

	handler.writeJSON(ctx, w, http.StatusCreated, toOrderResponse(order))
}

func (handler *OrderHTTPHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	userID, ok := handler.requireUser(ctx, w, r)
	if !ok {
		return
	}

	list, err := handler.svc.ListOrders(ctx, userID)
	if err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	resp := make([]orderResponse, len(list))
	for i := range list {
		resp[i] = toOrderResponse(&list[i])
	}
	handler.writeJSON(ctx, w, http.StatusOK, resp)
}

func (handler *OrderHTTPHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	userID, ok := handler.requireUser(ctx, w, r)
	if !ok {
		return
	}

	orderID := mux.Vars(r)["orderId"]
	order, err := handler.svc.GetOrder(ctx, orderID, userID)
	if err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	handler.writeJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func (handler *OrderHTTPHandler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	if _, ok := handler.requireUser(ctx, w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	defer r.Body.Close()

	var req setStatusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	requested, err := orders.ParseStatus(req.Status)
	if err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	orderID := mux.Vars(r)["orderId"]
	order, err := handler.svc.SetStatus(ctx, orderID, requested)
	if err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	handler.writeJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func (handler *OrderHTTPHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	userID, ok := handler.requireUser(ctx, w, r)
	if !ok {
		return
	}

	orderID := mux.Vars(r)["orderId"]
	order, err := handler.svc.Cancel(ctx, orderID, userID)
	if err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	handler.writeJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func (handler *OrderHTTPHandler) handleReportPayment(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context())

	userID, ok := handler.requireUser(ctx, w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	defer r.Body.Close()

	var req reportPaymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}
	if req.Outcome != "succeeded" && req.Outcome != "failed" {
		handler.httpError(ctx, w, http.StatusBadRequest, "outcome must be succeeded or failed", errors.New("bad payment outcome: "+req.Outcome))
		return
	}

	orderID := mux.Vars(r)["orderId"]
	if err := handler.svc.ReportPayment(ctx, orderID, req.Outcome, userID); err != nil {
		handler.mapError(ctx, w, err)
		return
	}

	handler.writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (handler *OrderHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ---

func (handler *OrderHTTPHandler) withReqID(ctx context.Context) context.Context {
	return handler.logger.WithRequestID(ctx, uuid.NewString())
}

func (handler *OrderHTTPHandler) requireUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing X-User-ID header", errors.New("unauthenticated request"))
		return "", false
	}
	return userID, true
}

// mapError translates domain errors to HTTP statuses. Invalid transitions
// carry both states so the caller can see what was rejected.
func (handler *OrderHTTPHandler) mapError(ctx context.Context, w http.ResponseWriter, err error) {
	var transitionErr *orders.InvalidTransitionError
	switch {
	case errors.Is(err, orders.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "order not found", err)
	case errors.Is(err, orders.ErrValidation):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.As(err, &transitionErr):
		handler.httpError(ctx, w, http.StatusConflict, transitionErr.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

func (handler *OrderHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	handler.logger.Error(ctx, "http_request_failed", msg, err)
	handler.writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func (handler *OrderHTTPHandler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		handler.logger.Error(ctx, "http_response_encode_failed", "Failed to encode response", err)
	}
}
