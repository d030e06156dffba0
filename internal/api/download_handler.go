package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// DownloadHandler handles public redemption requests.
type DownloadHandler struct {
	service sharelink.Service
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service sharelink.Service) *DownloadHandler {
	return &DownloadHandler{service: service}
}

// Routes returns the public redemption routes
func (h *DownloadHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Resolve)

	return r
}

// Resolve redeems a ticket and redirects to the signed URL. The redirect is
// temporary (307) so clients re-request through the redemption URL rather
// than caching the signed one.
func (h *DownloadHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	signed, err := h.service.RedeemLink(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, signed.URL, http.StatusTemporaryRedirect)
}
