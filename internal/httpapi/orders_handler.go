// Package httpapi — REST-поверхность витрины поверх chi.
package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
)

const (
	maxBodyBytes      = 1 << 20
	defaultListLimit  = 100
	idempotencyKeyTTL = 24 * time.Hour
	headerIdempotency = "Idempotency-Key"
)

// OrdersHandler обслуживает REST-операции над заказами.
type OrdersHandler struct {
	service     *orders.Service
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewOrdersHandler создаёт handler заказов. idempotency опционален: nil
// отключает дедупликацию по Idempotency-Key (поведение по умолчанию —
// at-least-once без дедупликации).
func NewOrdersHandler(service *orders.Service, idempotency domain.IdempotencyRepository) *OrdersHandler {
	return &OrdersHandler{
		service:     service,
		idempotency: idempotency,
		logger:      log.WithField("component", "orders-handler"),
	}
}

// Routes монтирует маршруты заказов на роутер.
func (h *OrdersHandler) Routes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.listAll)
		r.Get("/my-orders", h.listMine)
		r.Get("/user/{userID}", h.listByUser)
		r.Get("/{orderID}", h.get)
		r.Patch("/{orderID}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read request body")
		return
	}

	key := r.Header.Get(headerIdempotency)
	if key == "" || h.idempotency == nil {
		status, payload := h.createOrder(r, body)
		writeJSON(w, status, payload)
		return
	}

	h.createIdempotent(w, r, key, body)
}

// createIdempotent оборачивает создание заказа в запись idempotency-key:
// завершённый запрос повторяет сохранённый ответ, конкурентный дубль
// получает 409, неуспешный запрос разрешается повторить.
func (h *OrdersHandler) createIdempotent(w http.ResponseWriter, r *http.Request, key string, body []byte) {
	hash := requestHash(r.Method, r.URL.Path, body)

	record, err := h.idempotency.CreateProcessing(key, hash, time.Now().UTC().Add(idempotencyKeyTTL))
	switch {
	case err == nil:
		// Первый запрос с этим ключом.
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		writeMessage(w, http.StatusUnprocessableEntity, "idempotency key was already used with a different request")
		return
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone:
			h.replay(w, record)
			return
		case domain.IdempotencyStatusProcessing:
			writeMessage(w, http.StatusConflict, "request with this idempotency key is already being processed")
			return
		case domain.IdempotencyStatusFailed:
			// Прошлая попытка провалилась: разрешаем повтор.
		}
	default:
		h.logger.WithError(err).Warn("idempotency bookkeeping failed, processing without dedup")
		status, payload := h.createOrder(r, body)
		writeJSON(w, status, payload)
		return
	}

	status, payload := h.createOrder(r, body)

	stored, err := json.Marshal(payload)
	if err == nil {
		if status >= 200 && status <= 299 {
			err = h.idempotency.MarkDone(key, stored, status)
		} else {
			err = h.idempotency.MarkFailed(key, stored, status)
		}
	}
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("idempotency record update failed")
	}

	writeJSON(w, status, payload)
}

func (h *OrdersHandler) replay(w http.ResponseWriter, record domain.IdempotencyRecord) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.HTTPStatus)
	if _, err := w.Write(record.ResponseBody); err != nil {
		h.logger.WithError(err).Warn("idempotent replay write failed")
	}
}

// createOrder выполняет собственно создание и возвращает статус и payload
// ответа; пара пригодна и для немедленной записи, и для сохранения в
// idempotency-запись.
func (h *OrdersHandler) createOrder(r *http.Request, body []byte) (int, any) {
	var req domain.OrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, map[string]string{"message": "invalid request body"}
	}

	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		return errorResponse(err)
	}

	return http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	}
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	ordersList, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userID"), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": ordersList})
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ordersList, err := h.service.ListByUser(r.Context(), identity.UserID, listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": ordersList})
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !identity.IsAdmin {
		writeMessage(w, http.StatusForbidden, "admin access required")
		return
	}

	ordersList, err := h.service.ListAll(r.Context(), listLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": ordersList})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !identity.IsAdmin {
		writeMessage(w, http.StatusForbidden, "admin access required")
		return
	}

	var req struct {
		Status domain.OrderStatus `json:"status"`
		Reason string             `json:"reason"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated",
		"order":   order,
	})
}

// errorResponse — аналог writeError для путей, где ответ сначала
// сохраняется, а пишется позже.
func errorResponse(err error) (int, any) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusBadRequest, map[string]string{"message": "User not found"}
	case isValidationError(err):
		return http.StatusBadRequest, map[string]string{"message": err.Error()}
	default:
		log.WithError(err).Error("order creation failed")
		return http.StatusInternalServerError, map[string]string{"message": "internal server error"}
	}
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func requestHash(method, path string, body []byte) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%s", method, path, body))
	return hex.EncodeToString(sum[:])
}
