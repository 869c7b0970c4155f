package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/controllers/dto"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
)

type cartResponse struct {
	Items     []dto.CartLine `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  string         `json:"subtotal"`
}

func newCartResponse(view *cartsvc.View) cartResponse {
	if view == nil {
		return cartResponse{Items: []dto.CartLine{}, Subtotal: dto.Money(decimal.Zero)}
	}
	return cartResponse{
		Items:     dto.NewCartLines(view.Lines),
		ItemCount: view.ItemCount,
		Subtotal:  dto.Money(view.Subtotal),
	}
}

type clearResponse struct {
	Removed int64 `json:"removed"`
}
