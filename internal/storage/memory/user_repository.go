package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// userRepositoryInMemory — in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// Create сохраняет пользователя; ErrUserAlreadyExists при конфликте id или email.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}

	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID возвращает пользователя или ErrUserNotFound.
func (r *userRepositoryInMemory) GetByID(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail возвращает пользователя по email или ErrUserNotFound.
func (r *userRepositoryInMemory) GetByEmail(email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.byID[id], nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
