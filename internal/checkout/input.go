package checkout

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Customer is the contact block copied onto the order.
type Customer struct {
	Name            string `validate:"required,max=255"`
	Email           string `validate:"required,email,max=255"`
	Phone           string `validate:"required,max=64"`
	ShippingAddress string `validate:"required,max=1000"`
}

// Input is everything a checkout needs besides the cart scope.
type Input struct {
	Customer       Customer
	DeliveryMethod enums.DeliveryMethod
	// DeliveryDistance in kilometres; nil applies the configured default.
	DeliveryDistance *decimal.Decimal
}

var inputValidator = validator.New()

var customerFieldNames = map[string]string{
	"Name":            "customer_name",
	"Email":           "customer_email",
	"Phone":           "customer_phone",
	"ShippingAddress": "shipping_address",
}

func (in Input) normalized() Input {
	out := in
	out.Customer.Name = strings.TrimSpace(in.Customer.Name)
	out.Customer.Email = strings.TrimSpace(in.Customer.Email)
	out.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	out.Customer.ShippingAddress = strings.TrimSpace(in.Customer.ShippingAddress)
	if out.DeliveryMethod == "" {
		out.DeliveryMethod = enums.DeliveryMethodStandard
	}
	return out
}

// validate checks the input and resolves the delivery distance. The distance
// is returned unrounded; the fee tier is chosen from it as given.
func (in Input) validate(defaultDistance decimal.Decimal) (decimal.Decimal, error) {
	fields := map[string]string{}

	if err := inputValidator.Struct(in.Customer); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate checkout input")
		}
		for _, fe := range verrs {
			name := customerFieldNames[fe.Field()]
			if name == "" {
				name = strings.ToLower(fe.Field())
			}
			fields[name] = fe.Tag()
		}
	}
	if !in.DeliveryMethod.IsValid() {
		fields["delivery_method"] = "oneof standard express"
	}

	distance := defaultDistance
	if in.DeliveryDistance != nil {
		distance = *in.DeliveryDistance
	}
	if distance.IsNegative() {
		fields["delivery_distance"] = "must not be negative"
	}

	if len(fields) > 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout details").WithDetails(fields)
	}
	return distance, nil
}
