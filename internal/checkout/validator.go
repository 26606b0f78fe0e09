// Package checkout реализует клиентскую часть оформления заказа:
// валидацию формы доставки/оплаты и отправку заказа на сервер.
package checkout

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Form — форма оформления заказа, заполняемая покупателем.
type Form struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`

	// Реквизиты карты проверяются только при paymentMethod == card.
	CardNumber string `json:"card_number,omitempty"`
	CardName   string `json:"card_name,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"`
	CardCVV    string `json:"card_cvv,omitempty"`
}

// Result — результат валидации. При неуспехе Field и Message указывают на
// первое нарушенное правило; остальные поля не проверяются.
type Result struct {
	Valid   bool   `json:"valid"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe = regexp.MustCompile(`\D`)
	cardRe   = regexp.MustCompile(`^\d{13,19}$`)
	expiryRe = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
)

func ok() Result {
	return Result{Valid: true}
}

func fail(field, message string) Result {
	return Result{Field: field, Message: message}
}

// Validate проверяет форму относительно текущего момента.
func Validate(form Form, method domain.PaymentMethod) Result {
	return ValidateAt(form, method, time.Now())
}

// ValidateAt проверяет форму оформления заказа. Правила применяются по
// порядку с остановкой на первом нарушении; функция чистая и не ходит в сеть.
func ValidateAt(form Form, method domain.PaymentMethod, now time.Time) Result {
	required := []struct {
		field string
		label string
		value string
	}{
		{"first_name", "First name", form.FirstName},
		{"last_name", "Last name", form.LastName},
		{"email", "Email", form.Email},
		{"phone", "Phone", form.Phone},
		{"address", "Address", form.Address},
		{"city", "City", form.City},
		{"state", "State", form.State},
		{"zip", "ZIP code", form.Zip},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fail(f.field, fmt.Sprintf("%s is required", f.label))
		}
	}

	if !emailRe.MatchString(strings.TrimSpace(form.Email)) {
		return fail("email", "Please enter a valid email address")
	}

	if len(digitsRe.ReplaceAllString(form.Phone, "")) < 10 {
		return fail("phone", "Please enter a valid phone number")
	}

	if method == domain.PaymentMethodCard {
		if r := validateCard(form, now); !r.Valid {
			return r
		}
	}

	return ok()
}

func validateCard(form Form, now time.Time) Result {
	number := digitsRe.ReplaceAllString(form.CardNumber, "")
	if !cardRe.MatchString(number) {
		return fail("card_number", "Please enter a valid card number")
	}

	if strings.TrimSpace(form.CardName) == "" {
		return fail("card_name", "Cardholder name is required")
	}

	match := expiryRe.FindStringSubmatch(strings.TrimSpace(form.CardExpiry))
	if match == nil {
		return fail("card_expiry", "Expiry must be in MM/YY format")
	}
	month := int(match[1][0]-'0')*10 + int(match[1][1]-'0')
	year := 2000 + int(match[2][0]-'0')*10 + int(match[2][1]-'0')
	if month < 1 || month > 12 {
		return fail("card_expiry", "Expiry must be in MM/YY format")
	}
	// Карта валидна до конца месяца, указанного в expiry.
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fail("card_expiry", "Card has expired")
	}

	if !cvvRe.MatchString(strings.TrimSpace(form.CardCVV)) {
		return fail("card_cvv", "Please enter a valid CVV")
	}

	return ok()
}
