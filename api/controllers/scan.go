package controllers

import (
	"net/http"

	"github.com/rmagtoto/tindahan-backend/api/responses"
	"github.com/rmagtoto/tindahan-backend/api/validators"
	"github.com/rmagtoto/tindahan-backend/internal/scan"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
)

type scanRequest struct {
	Barcode string `json:"barcode" validate:"required,min=1,max=64"`
}

// ScanBarcode pushes one barcode read through the scan pipeline.
func ScanBarcode(ctrl *scan.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan pipeline unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBarcode(logg.WithCartID(ctx, cartID.String()), payload.Barcode)
		}

		result, err := ctrl.HandleScan(ctx, cartID, payload.Barcode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ScanSession reports the poll-able scan session state for a cart.
func ScanSession(ctrl *scan.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan pipeline unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := ctrl.SessionState(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// ScanSessionClose tears down a cart's scan session, aborting any in-flight scan.
func ScanSessionClose(ctrl *scan.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan pipeline unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl.CloseSession(cartID)
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}
