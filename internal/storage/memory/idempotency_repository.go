package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// idempotencyRepositoryInMemory — in-memory реализация IdempotencyRepository.
type idempotencyRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.IdempotencyRecord
}

// NewIdempotencyRepository возвращает in-memory хранилище ключей идемпотентности.
func NewIdempotencyRepository() domain.IdempotencyRepository {
	return &idempotencyRepositoryInMemory{
		items: make(map[string]domain.IdempotencyRecord),
	}
}

// CreateProcessing регистрирует ключ в статусе processing. Если ключ уже
// существует, возвращает сохранённую запись: с ErrIdempotencyHashMismatch при
// другом хэше запроса, с ErrIdempotencyKeyAlreadyExists при совпадении.
func (r *idempotencyRepositoryInMemory) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[key]; ok {
		if existing.RequestHash != requestHash {
			return cloneIdempotencyRecord(existing), domain.ErrIdempotencyHashMismatch
		}
		return cloneIdempotencyRecord(existing), domain.ErrIdempotencyKeyAlreadyExists
	}

	now := time.Now().UTC()
	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[key] = record
	return cloneIdempotencyRecord(record), nil
}

// Get возвращает запись по ключу или ErrIdempotencyKeyNotFound.
func (r *idempotencyRepositoryInMemory) Get(key string) (domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[key]
	if !ok {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	return cloneIdempotencyRecord(record), nil
}

// MarkDone сохраняет успешный ответ для повторной выдачи.
func (r *idempotencyRepositoryInMemory) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

// MarkFailed сохраняет ответ-ошибку: повторный запрос сможет попробовать снова.
func (r *idempotencyRepositoryInMemory) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

// DeleteExpired удаляет записи с истёкшим TTL, не более limit за вызов.
func (r *idempotencyRepositoryInMemory) DeleteExpired(before time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	deleted := 0
	for key, record := range r.items {
		if deleted >= limit {
			break
		}
		if record.TTLAt.Before(before) {
			delete(r.items, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *idempotencyRepositoryInMemory) markStatus(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.items[key]
	if !ok {
		return domain.ErrIdempotencyKeyNotFound
	}

	body := make([]byte, len(responseBody))
	copy(body, responseBody)

	record.Status = status
	record.ResponseBody = body
	record.HTTPStatus = httpStatus
	record.UpdatedAt = time.Now().UTC()
	r.items[key] = record
	return nil
}

func cloneIdempotencyRecord(record domain.IdempotencyRecord) domain.IdempotencyRecord {
	body := make([]byte, len(record.ResponseBody))
	copy(body, record.ResponseBody)
	record.ResponseBody = body
	return record
}

var _ domain.IdempotencyRepository = (*idempotencyRepositoryInMemory)(nil)
