package controllers

import (
	"bytes"
	"net/http"

	"github.com/angelmondragon/boost-backend/api/responses"
	"github.com/angelmondragon/boost-backend/api/validators"
	"github.com/angelmondragon/boost-backend/internal/ledger"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/logger"
)

// LedgerSummary totals what is owed to a merchant. Owners must name the
// merchant; scoped callers default to their own.
func LedgerSummary(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		summary, err := svc.Summary(r.Context(), caller, merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// LedgerExport renders a merchant's ledger as a CSV attachment.
func LedgerExport(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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
		if merchantID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "merchant_id is required"))
			return
		}

		rows, err := svc.Export(r.Context(), caller, *merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf, rows); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render ledger export"))
			return
		}
		responses.WriteAttachment(w, "text/csv", ledger.ExportFilename(*merchantID), buf.Bytes())
	}
}
