package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// ErrorResponse is the JSON body for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeError maps domain errors onto HTTP statuses. Policy failures are
// surfaced verbatim; internal failures are logged with context and returned
// as an opaque message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, sharelink.ErrEmptyObjectKey),
		errors.Is(err, sharelink.ErrMissingBucket),
		errors.Is(err, sharelink.ErrMissingEndpoint):
		status = http.StatusBadRequest
	case errors.Is(err, sharelink.ErrLinkNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sharelink.ErrLinkExpired):
		status = http.StatusGone
	case errors.Is(err, sharelink.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	default:
		status = http.StatusInternalServerError
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		message = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message})
}
