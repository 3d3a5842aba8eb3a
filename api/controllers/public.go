package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/boost-backend/api/responses"
	"github.com/angelmondragon/boost-backend/internal/public"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/logger"
)

type OfferCardReader interface {
	OfferCard(ctx context.Context, tokenOrCode string) (*public.OfferCard, error)
}

// PublicOfferCard serves the consumer landing page data for a scanned code.
func PublicOfferCard(svc OfferCardReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "public offer service unavailable"))
			return
		}
		tokenOrCode := strings.TrimSpace(chi.URLParam(r, "tokenOrCode"))
		if tokenOrCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token or code is required"))
			return
		}

		card, err := svc.OfferCard(r.Context(), tokenOrCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}
