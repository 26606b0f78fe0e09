package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора владельца заказа.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отрицательной скидки.
	ErrDiscountNegative = errors.New("discount_minor must be non-negative")
	// Ошибка несоответствия суммы заказа сумме позиций минус скидка.
	ErrTotalMismatch = errors.New("order total does not match items sum minus discount")
	// Ошибка неподдерживаемого способа оплаты.
	ErrPaymentMethodInvalid = errors.New("unsupported payment method")
	// Ошибка недопустимого перехода статуса заказа.
	ErrStatusTransitionInvalid = errors.New("order status transition is not allowed")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists возвращается при нарушении уникальности email/id.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrCartOwnerRequired — корзине нужен явный владелец (id пользователя или guest).
	ErrCartOwnerRequired = errors.New("cart owner key is required")
	// ErrCartEmpty — попытка оформить заказ из пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой hash запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим payload.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is used with different request payload")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
