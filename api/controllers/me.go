package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/api/responses"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	"github.com/angelmondragon/boost-backend/pkg/logger"
)

type meResponse struct {
	UID        string     `json:"uid"`
	Email      string     `json:"email"`
	Role       enums.Role `json:"role,omitempty"`
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	IsPrimary  bool       `json:"is_primary"`
}

// Me echoes the verified caller.
func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meResponse{
			UID:        caller.UID,
			Email:      caller.Email,
			Role:       caller.Role,
			MerchantID: caller.MerchantID,
			IsPrimary:  caller.IsPrimary,
		})
	}
}
