package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми,
	// с опциональным ограничением на количество.
	ListByUser(userID string, limit int) ([]Order, error)
	// ListAll возвращает все заказы (административная выборка), новые первыми.
	ListAll(limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	// Снапшот items при сохранении не перезаписывается.
	Save(order Order) error
}

// UserRepository описывает минимальное хранилище пользователей для потока заказов.
type UserRepository interface {
	// Create сохраняет пользователя; ErrUserAlreadyExists при конфликте id/email.
	Create(user User) error
	// GetByID возвращает пользователя или ErrUserNotFound.
	GetByID(id string) (User, error)
	// GetByEmail возвращает пользователя по email или ErrUserNotFound.
	GetByEmail(email string) (User, error)
}
