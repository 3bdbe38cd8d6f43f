package sale

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/subscription-sales/internal"
)

var hundred = decimal.NewFromInt(100)

// OrderTotal is price times quantity with no intermediate rounding.
func OrderTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// ToMinorUnits converts a major-unit amount to cents, truncating toward zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Truncate(0).IntPart()
}

func FromMinorUnits(value int64) decimal.Decimal {
	return decimal.New(value, -2)
}

// ParseCardExpiry splits an "MM/YY" expiry into a two-character month and a
// four-character year.
func ParseCardExpiry(expiry string) (month, year string, appErr *internal.AppError) {
	invalid := internal.NewValidationError(MessageInvalidExpiry, internal.ErrCodeInvalidExpiryFormat)

	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return "", "", invalid
	}

	mm, yy := parts[0], parts[1]
	if len(mm) < 1 || len(mm) > 2 || len(yy) != 2 || !isDigits(mm) || !isDigits(yy) {
		return "", "", invalid
	}
	n, _ := strconv.Atoi(mm)
	if n < 1 || n > 12 {
		return "", "", invalid
	}

	if len(mm) == 1 {
		mm = "0" + mm
	}
	return mm, "20" + yy, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
