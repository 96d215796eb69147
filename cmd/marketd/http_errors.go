package main

import (
	"context"
	"errors"
	"net/http"

	cartapp "github.com/harvestmkt/marketcore/internal/cart/app"
	catalogapp "github.com/harvestmkt/marketcore/internal/catalog/app"
	checkoutapp "github.com/harvestmkt/marketcore/internal/checkout/app"
	"github.com/harvestmkt/marketcore/internal/ledger"
	orderapp "github.com/harvestmkt/marketcore/internal/order/app"
	"github.com/harvestmkt/marketcore/internal/session"
)

// httpStatusFromErr maps domain errors onto HTTP status codes at the
// outer edge. Anything unrecognized is INTERNAL with a generic message so
// ledger internals never leak to clients.
func httpStatusFromErr(err error) (int, string, string) {
	switch {
	case errors.Is(err, cartapp.ErrInvalidInput),
		errors.Is(err, catalogapp.ErrInvalidInput),
		errors.Is(err, orderapp.ErrInvalidAddress),
		errors.Is(err, cartapp.ErrNotInCart),
		errors.Is(err, checkoutapp.ErrEmptyCart),
		errors.Is(err, ledger.ErrWriteRejected):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()

	case errors.Is(err, catalogapp.ErrNotFound),
		errors.Is(err, orderapp.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()

	case errors.Is(err, ledger.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UNAVAILABLE", err.Error()

	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}
