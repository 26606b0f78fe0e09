package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в витрине.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, но обработка ещё не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ взят в работу (сборка/упаковка).
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён до отгрузки.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Статусы двигаются только вперёд; отмена доступна из pending и processing.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// PaymentMethod перечисляет способы оплаты, которые витрина фиксирует в заказе.
// Оплата не проводится сервисом — метод только записывается.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// Valid проверяет способ оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodWallet:
		return true
	default:
		return false
	}
}

// Address хранит адрес доставки или плательщика.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// OrderItem — позиция заказа. Это снапшот данных товара на момент оформления,
// а не ссылка на каталог: последующие изменения каталога не затрагивают заказ.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
}

// Order агрегирует состояние размещённого заказа.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Items         []OrderItem   `json:"items"`
	TotalMinor    int64         `json:"total_minor"`
	DiscountMinor int64         `json:"discount_minor"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Shipping      Address       `json:"shipping_address"`
	Billing       Address       `json:"billing_address"`
	Status        OrderStatus   `json:"status"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.DiscountMinor < 0 {
		errs = append(errs, ErrDiscountNegative)
	}
	if !o.PaymentMethod.Valid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}

	// Сверяем сумму заказа с суммой позиций минус скидка.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc-o.DiscountMinor != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
