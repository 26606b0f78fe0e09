package httpapi

import (
	"context"
	"net/http"
	"strings"
)

// Identity — личность, извлечённая из запроса. Аутентификация как таковая
// живёт снаружи: сюда приходит уже выданный токен.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// TokenDecoder превращает bearer-токен в Identity.
type TokenDecoder interface {
	Decode(token string) (Identity, error)
}

// StaticTokenDecoder — табличный декодер для разработки и тестов.
type StaticTokenDecoder map[string]Identity

// Decode возвращает Identity токена или ошибку, если токен неизвестен.
func (d StaticTokenDecoder) Decode(token string) (Identity, error) {
	identity, ok := d[token]
	if !ok {
		return Identity{}, errUnknownToken
	}
	return identity, nil
}

type unknownTokenError struct{}

func (unknownTokenError) Error() string { return "unknown token" }

var errUnknownToken = unknownTokenError{}

type identityCtxKey struct{}

// IdentityFrom возвращает личность запроса, если она установлена.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	return identity, ok
}

// WithIdentity кладёт личность в контекст; используется middleware и тестами.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// BearerAuth извлекает Identity из заголовка Authorization. Запросы без
// токена остаются анонимными, запросы с неизвестным токеном отклоняются.
func BearerAuth(decoder TokenDecoder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if decoder == nil || header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			identity, err := decoder.Decode(token)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
