package checkout

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/controllers/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type placeOrderRequest struct {
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	CustomerPhone    string           `json:"customer_phone"`
	ShippingAddress  string           `json:"shipping_address"`
	DeliveryMethod   string           `json:"delivery_method"`
	DeliveryDistance *decimal.Decimal `json:"delivery_distance"`
}

func (p placeOrderRequest) toInput() checkoutsvc.Input {
	return checkoutsvc.Input{
		Customer: checkoutsvc.Customer{
			Name:            p.CustomerName,
			Email:           p.CustomerEmail,
			Phone:           p.CustomerPhone,
			ShippingAddress: p.ShippingAddress,
		},
		DeliveryMethod:   enums.DeliveryMethod(strings.ToLower(strings.TrimSpace(p.DeliveryMethod))),
		DeliveryDistance: p.DeliveryDistance,
	}
}

type placeOrderResponse struct {
	OrderNumber string    `json:"order_number"`
	Order       dto.Order `json:"order"`
}

type previewResponse struct {
	Items            []dto.CartLine `json:"items"`
	DeliveryDistance string         `json:"delivery_distance"`
	dto.Quote
}

// Preview prices the caller's cart, including the delivery fee for the
// requested distance, without placing an order.
func Preview(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		distance, err := validators.ParseQueryDecimal(r, "delivery_distance")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preview, err := svc.Preview(r.Context(), scopeFromRequest(r), distance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, previewResponse{
			Items:            dto.NewCartLines(preview.Lines),
			DeliveryDistance: dto.Money(preview.Distance),
			Quote:            dto.NewQuote(preview.Quote),
		})
	}
}

// Place converts the caller's cart into an order.
func Place(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), scopeFromRequest(r), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Location", "/api/v1/orders/"+result.OrderNumber)
		responses.WriteSuccessStatus(w, http.StatusCreated, placeOrderResponse{
			OrderNumber: result.OrderNumber,
			Order:       dto.NewOrder(*result.Order),
		})
	}
}

func scopeFromRequest(r *http.Request) cartsvc.Scope {
	ctx := r.Context()
	return cartsvc.NewScope(middleware.SessionIDFromContext(ctx), middleware.AccountIDFromContext(ctx))
}
