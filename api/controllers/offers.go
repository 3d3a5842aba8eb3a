package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/api/responses"
	"github.com/angelmondragon/boost-backend/api/validators"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/logger"
)

type offerCreateRequest struct {
	MerchantID         uuid.UUID        `json:"merchant_id" validate:"required"`
	Name               string           `json:"name" validate:"required,max=100"`
	DiscountText       string           `json:"discount_text" validate:"required,max=100"`
	Terms              *string          `json:"terms,omitempty"`
	CapDaily           int              `json:"cap_daily" validate:"omitempty,min=1,max=10000"`
	ActiveHours        *string          `json:"active_hours,omitempty"`
	ValuePerRedemption *decimal.Decimal `json:"value_per_redemption" validate:"required"`
}

type offerUpdateRequest struct {
	Name               *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DiscountText       *string          `json:"discount_text,omitempty" validate:"omitempty,min=1,max=100"`
	Terms              *string          `json:"terms,omitempty"`
	CapDaily           *int             `json:"cap_daily,omitempty" validate:"omitempty,min=1,max=10000"`
	ActiveHours        *string          `json:"active_hours,omitempty"`
	Status             *string          `json:"status,omitempty"`
	ValuePerRedemption *decimal.Decimal `json:"value_per_redemption,omitempty"`
}

func (req offerUpdateRequest) toInput() (offers.UpdateInput, error) {
	input := offers.UpdateInput{
		Name:               req.Name,
		DiscountText:       req.DiscountText,
		Terms:              req.Terms,
		CapDaily:           req.CapDaily,
		ActiveHours:        req.ActiveHours,
		ValuePerRedemption: req.ValuePerRedemption,
	}
	if req.Status != nil {
		status, err := enums.ParseOfferStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			return offers.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer status")
		}
		input.Status = &status
	}
	return input, nil
}

// OfferCreate creates an active offer under a merchant the caller administers.
func OfferCreate(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req offerCreateRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), caller, offers.CreateInput{
			MerchantID:         req.MerchantID,
			Name:               req.Name,
			DiscountText:       req.DiscountText,
			Terms:              req.Terms,
			CapDaily:           req.CapDaily,
			ActiveHours:        req.ActiveHours,
			ValuePerRedemption: *req.ValuePerRedemption,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

func OfferList(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := validators.ParseOptionalUUIDQuery(r, "merchant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.OfferStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOfferStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}
		limit, offset, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), caller, offers.ListInput{
			MerchantID: merchantID,
			Status:     status,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func OfferGet(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func OfferUpdate(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req offerUpdateRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Update(r.Context(), caller, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// OfferDelete retires an offer by moving it to expired.
func OfferDelete(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
