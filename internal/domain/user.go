package domain

import "time"

// GuestEmail — сентинельный email гостевого пользователя. Запись с таким
// email создаётся лениво при первом гостевом заказе и переиспользуется.
const GuestEmail = "guest@storefront.local"

// User — минимальное представление пользователя, нужное потоку заказов.
// Полный профиль живёт во внешнем сервисе аутентификации.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// IsGuest проверяет, является ли пользователь гостевой записью.
func (u User) IsGuest() bool {
	return u.Email == GuestEmail
}
