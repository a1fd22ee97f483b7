package controllers

import (
	"net/http"

	"github.com/fineshyttt/commerce-backend/api/responses"
	"github.com/fineshyttt/commerce-backend/api/validators"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
)

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
	Notes  string `json:"notes" validate:"max=500"`
}

// AdminUpdateOrderStatus moves an order through the lifecycle on behalf of staff.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), actor, orderID, enums.OrderStatus(req.Status), req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
