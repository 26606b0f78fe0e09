package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(id string) (domain.User, error) {
	return r.getBy(`SELECT id, email, is_admin, created_at FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	return r.getBy(`SELECT id, email, is_admin, created_at FROM users WHERE email = $1`, email)
}

func (r *userRepository) getBy(query string, arg any) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
