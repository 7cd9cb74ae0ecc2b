package handlers

import (
	"errors"
	"net/http"

	"ledgersync/internal/catalog"
	"ledgersync/internal/reconcile"
	"ledgersync/internal/services/xero"
)

// statusFor maps a sync failure to the HTTP status returned to the caller.
func statusFor(err error) int {
	var connErr *xero.ConnectionError
	switch {
	case errors.Is(err, reconcile.ErrRunInProgress):
		return http.StatusConflict
	case xero.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.As(err, &connErr), errors.Is(err, catalog.ErrCatalog):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
