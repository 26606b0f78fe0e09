package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("write response failed")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError переводит доменную ошибку в HTTP-ответ. Ошибки персистентности
// и прочие неожиданные ошибки схлопываются в общий 500 без деталей.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusBadRequest, "User not found")
	case errors.Is(err, domain.ErrOrderNotFound):
		writeMessage(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrStatusTransitionInvalid),
		errors.Is(err, domain.ErrOrderVersionConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case isValidationError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrUserRequired,
		domain.ErrItemsRequired,
		domain.ErrItemQtyInvalid,
		domain.ErrItemPriceInvalid,
		domain.ErrDiscountNegative,
		domain.ErrTotalMismatch,
		domain.ErrPaymentMethodInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
