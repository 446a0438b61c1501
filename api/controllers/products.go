package controllers

import (
	"net/http"

	"github.com/jamrock-club/jamrock-backend/api/responses"
	productsvc "github.com/jamrock-club/jamrock-backend/internal/products"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
)

// ProductList serves the active catalog.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ProductResponse, 0, len(items))
		for _, item := range items {
			out = append(out, newProductResponse(item))
		}
		responses.WriteSuccess(w, out)
	}
}
