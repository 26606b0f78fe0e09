package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrConnectivity возвращается, когда сервер вообще не ответил. Корзина при
// этом сохраняется, повтор отправки выполняет сам пользователь.
var ErrConnectivity = errors.New("could not reach the store, please check your connection and try again")

// RejectedError — заказ отклонён сервером: статус не 2xx и сообщение,
// которое показывается пользователю дословно.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Coupon — состояние применённого купона на момент оформления.
type Coupon struct {
	Code    string
	Applied bool
}

// couponPercents — процент скидки по коду купона.
var couponPercents = map[string]int64{
	"welcome10": 10,
}

// DiscountMinor возвращает размер скидки для промежуточной суммы subtotal.
func (c Coupon) DiscountMinor(subtotalMinor int64) int64 {
	if !c.Applied {
		return 0
	}
	pct, ok := couponPercents[c.Code]
	if !ok {
		return 0
	}
	return subtotalMinor * pct / 100
}

// Confirmation — подтверждение принятого заказа.
type Confirmation struct {
	OrderID    string
	TotalMinor int64
}

// Client отправляет оформленный заказ на сервер витрины.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithHTTPClient подменяет транспорт (таймауты, тесты).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger подменяет логгер клиента.
func WithLogger(logger *log.Entry) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient создаёт клиент отправки заказов для базового URL сервера.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  log.WithField("component", "checkout-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitOption настраивает одну отправку заказа.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey прикладывает к запросу заголовок Idempotency-Key,
// защищающий от дублей при повторной отправке той же формы.
func WithIdempotencyKey(key string) SubmitOption {
	return func(o *submitOptions) { o.idempotencyKey = key }
}

// Submit собирает payload из корзины и формы и отправляет его на сервер.
//
// Три исхода различаются типом ошибки: nil с Confirmation при успехе
// (корзина очищается), *RejectedError при ответе не 2xx (корзина
// сохраняется, сообщение сервера отдаётся дословно), ErrConnectivity при
// транспортной ошибке (корзина сохраняется).
func (c *Client) Submit(ctx context.Context, store *cart.Store, form Form, method domain.PaymentMethod, coupon Coupon, opts ...SubmitOption) (Confirmation, error) {
	var so submitOptions
	for _, opt := range opts {
		opt(&so)
	}

	items := store.Items()
	if len(items) == 0 {
		return Confirmation{}, fmt.Errorf("submit order: %w", domain.ErrCartEmpty)
	}

	subtotal := domain.SubtotalMinor(items)
	discount := coupon.DiscountMinor(subtotal)

	req := buildRequest(store.OwnerKey(), items, form, method, coupon, subtotal, discount)

	body, err := json.Marshal(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if so.idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", so.idempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).Warn("order submission transport failure")
		return Confirmation{}, ErrConnectivity
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.WithError(err).Warn("order submission response read failure")
		return Confirmation{}, ErrConnectivity
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Confirmation{}, &RejectedError{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(respBody, resp.StatusCode),
		}
	}

	var payload struct {
		Message string       `json:"message"`
		Order   domain.Order `json:"order"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return Confirmation{}, fmt.Errorf("decode order confirmation: %w", err)
	}

	// Заказ принят: только теперь корзину можно очистить.
	store.Clear(ctx)

	return Confirmation{
		OrderID:    payload.Order.ID,
		TotalMinor: payload.Order.TotalMinor,
	}, nil
}

func buildRequest(ownerKey string, items []domain.CartLineItem, form Form, method domain.PaymentMethod, coupon Coupon, subtotal, discount int64) domain.OrderRequest {
	reqItems := make([]domain.OrderRequestItem, 0, len(items))
	for _, item := range items {
		reqItems = append(reqItems, domain.OrderRequestItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Qty:        item.Qty,
			Size:       item.Size,
			Color:      item.Color,
		})
	}

	address := domain.Address{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Address:   form.Address,
		City:      form.City,
		State:     form.State,
		Zip:       form.Zip,
	}

	couponCode := ""
	if coupon.Applied && discount > 0 {
		couponCode = coupon.Code
	}

	return domain.OrderRequest{
		UserID:        ownerKey,
		Items:         reqItems,
		TotalMinor:    subtotal - discount,
		DiscountMinor: discount,
		CouponCode:    couponCode,
		PaymentMethod: method,
		Shipping:      address,
		Billing:       address,
	}
}

func rejectionMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("order was rejected (status %d)", statusCode)
}
