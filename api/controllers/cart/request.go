package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/middleware"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	// pointer so an omitted quantity fails "required" while 0 reaches the range check
	Quantity *int `json:"quantity" validate:"required"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func scopeFromRequest(r *http.Request) cartsvc.Scope {
	ctx := r.Context()
	return cartsvc.NewScope(middleware.SessionIDFromContext(ctx), middleware.AccountIDFromContext(ctx))
}
