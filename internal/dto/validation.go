package dto

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shopspring/decimal"
)

// MoneyTag is the validation tag for positive amounts with at most two decimals.
const MoneyTag = "money"

// RegisterMoneyValidation teaches v to validate decimal.Decimal fields.
// Decimals are validated through their string form so that tags like
// "required" and "money" apply to them.
func RegisterMoneyValidation(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	return v.RegisterValidation(MoneyTag, validateMoney)
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && utils.HasAtMostDecimals(d, utils.MoneyPrecision)
}

// NewValidator returns a validator that reads `validate` tags and knows about money.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = RegisterMoneyValidation(v)
	return v
}
