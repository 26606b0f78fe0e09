package domain

// OrderRequestItem — позиция в payload оформления заказа.
type OrderRequestItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
}

// OrderRequest — транзиентный payload, который клиент отправляет
// на POST /api/orders. В базу он не пишется как есть: сервис заказов
// превращает его в снапшот Order.
type OrderRequest struct {
	// UserID пуст или равен GuestOwnerKey для гостевых заказов.
	UserID        string             `json:"user_id,omitempty"`
	Items         []OrderRequestItem `json:"items"`
	TotalMinor    int64              `json:"total_minor"`
	DiscountMinor int64              `json:"discount_minor"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	Shipping      Address            `json:"shipping_address"`
	Billing       Address            `json:"billing_address"`
}

// IsGuest сообщает, что запрос пришёл без авторизованной личности.
func (r OrderRequest) IsGuest() bool {
	return r.UserID == "" || r.UserID == GuestOwnerKey
}

// CheckTotals сверяет арифметику payload: total = sum(price*qty) - discount.
// Сверка с актуальными ценами каталога здесь сознательно не выполняется.
func (r OrderRequest) CheckTotals() error {
	if r.DiscountMinor < 0 {
		return ErrDiscountNegative
	}
	var calc int64
	for _, item := range r.Items {
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc-r.DiscountMinor != r.TotalMinor {
		return ErrTotalMismatch
	}
	return nil
}
