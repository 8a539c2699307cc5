package forecast

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount разбирает денежную сумму. Пустая строка, NaN, Inf и любой
// нечисловой ввод дают невалидную сумму, которая считается нулем.
func ParseAmount(raw string) decimal.NullDecimal {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.NullDecimal{}
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(parsed)
}

// AmountFromFloat переводит float64 в сумму, отбрасывая NaN и бесконечности.
func AmountFromFloat(value float64) decimal.NullDecimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(value))
}

// Amount возвращает валидную сумму из целого числа.
func Amount(value int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(value))
}

func amountOf(value decimal.NullDecimal) decimal.Decimal {
	if !value.Valid {
		return decimal.Zero
	}
	return value.Decimal
}
