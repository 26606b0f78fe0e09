package domain

// GuestOwnerKey — фиксированный ключ владельца корзины для неавторизованных сессий.
const GuestOwnerKey = "guest"

// Product — явный входной контракт товара, попадающего в корзину.
// Слой корзины не доверяет «утиной» форме каталожных объектов: всё,
// что нужно для снапшота позиции, перечислено здесь.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64  `json:"price_minor"`
	ImageRef   string `json:"image_ref,omitempty"`
	// Stock — остаток на момент просмотра; в корзине он только справочный.
	Stock int32 `json:"stock"`
}

// CartKey — составной ключ позиции корзины. Две позиции совпадают,
// только если совпадают товар, размер и цвет.
type CartKey struct {
	ProductID string
	Size      string
	Color     string
}

// CartLineItem — одна позиция корзины с зафиксированной ценой.
type CartLineItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
	ImageRef   string `json:"image_ref,omitempty"`
	// StockAtAdd — остаток товара на момент добавления (справочно).
	StockAtAdd int32 `json:"stock_at_add"`
}

// Key возвращает составной ключ позиции.
func (i CartLineItem) Key() CartKey {
	return CartKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// SubtotalMinor считает сумму позиций корзины без скидок и доставки.
func SubtotalMinor(items []CartLineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.PriceMinor * int64(item.Qty)
	}
	return sum
}
