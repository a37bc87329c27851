package controllers

import (
	"net/http"

	"github.com/rmagtoto/tindahan-backend/api/responses"
	checkoutsvc "github.com/rmagtoto/tindahan-backend/internal/checkout"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
)

// CheckoutExecute converts a cart into a recorded sale.
func CheckoutExecute(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCartID(ctx, cartID.String())
		}

		transaction, err := svc.Execute(ctx, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transaction)
	}
}

// CheckoutState reports the checkout state machine position for a cart.
func CheckoutState(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"cartId": cartID,
			"state":  svc.State(cartID),
		})
	}
}
