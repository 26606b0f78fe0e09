// Package currency форматирует денежные суммы для витрины.
//
// Все суммы в системе хранятся в минорных единицах (центах) как int64;
// перевод в строку для покупателя происходит только здесь.
package currency

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCode — валюта витрины по умолчанию.
const DefaultCode = "USD"

// DefaultTag — локаль витрины по умолчанию.
var DefaultTag = language.AmericanEnglish

// Format превращает сумму в минорных единицах в строку с символом валюты и
// локализованным разделением разрядов, например 130000 -> "$1,300.00".
// Неизвестный ISO-код трактуется как DefaultCode.
func Format(amountMinor int64, code string, tag language.Tag) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.MustParseISO(DefaultCode)
	}

	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.NarrowSymbol(unit))

	sign := ""
	if amountMinor < 0 {
		sign = "-"
		amountMinor = -amountMinor
	}

	major := float64(amountMinor) / 100
	value := p.Sprint(number.Decimal(major,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))

	return sign + symbol + value
}

// FormatDefault форматирует сумму в валюте и локали витрины по умолчанию.
func FormatDefault(amountMinor int64) string {
	return Format(amountMinor, DefaultCode, DefaultTag)
}
