package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	internalorders "github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

type listResponse struct {
	Orders     []dto.Order `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type detachResponse struct {
	Detached int64 `json:"detached"`
}

// Get returns one order. Guests can read orders placed from their session,
// signed-in customers their own, and admins any.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.GetByNumber(r.Context(), viewerFromRequest(r), chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto.NewOrder(*order))
	}
}

// List pages through the signed-in account's order history, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		if accountID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view order history"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForAccount(r.Context(), *accountID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := listResponse{Orders: make([]dto.Order, 0, len(list.Orders)), NextCursor: list.NextCursor}
		for _, o := range list.Orders {
			out.Orders = append(out.Orders, dto.NewOrder(o))
		}
		responses.WriteSuccess(w, out)
	}
}

// UpdateStatus moves an order along its lifecycle. Admin only.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]string{"status": "unknown value"}))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderNumber"), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"order_number": order.OrderNumber,
				"status":       order.Status,
			})
			logg.Info(ctx, "order.status.updated")
		}
		responses.WriteSuccess(w, dto.NewOrder(*order))
	}
}

// DetachAccount unlinks every order of a deleted account. Admin only.
func DetachAccount(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		accountID, err := validators.ParseUUID(chi.URLParam(r, "accountID"), "account_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		n, err := svc.DetachAccount(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detachResponse{Detached: n})
	}
}

func viewerFromRequest(r *http.Request) internalorders.Viewer {
	ctx := r.Context()
	return internalorders.Viewer{
		SessionID: middleware.SessionIDFromContext(ctx),
		AccountID: middleware.AccountIDFromContext(ctx),
		Admin:     middleware.RoleFromContext(ctx) == string(enums.AccountRoleAdmin),
	}
}
