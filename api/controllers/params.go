package controllers

import (
	"net/http"

	"github.com/angelmondragon/boost-backend/api/middleware"
	"github.com/angelmondragon/boost-backend/api/validators"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	maxPageOffset    = 1_000_000
)

func callerFromRequest(r *http.Request) (auth.Caller, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok || caller.UID == "" {
		return auth.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func parsePage(r *http.Request) (limit, offset int, err error) {
	limit, err = validators.ParseQueryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = validators.ParseQueryInt(r, "offset", 0, 0, maxPageOffset)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
