package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-sharelink/pkg/sharelink/oss"
)

// BucketHandler proxies read-only listing requests to the storage provider.
type BucketHandler struct {
	client *oss.Client
}

// NewBucketHandler creates a new bucket handler. A nil client makes the
// listing endpoints report unavailable.
func NewBucketHandler(client *oss.Client) *BucketHandler {
	return &BucketHandler{client: client}
}

// Routes returns the operator listing routes
func (h *BucketHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/buckets", h.ListBuckets)
	r.Get("/objects", h.ListObjects)

	return r
}

// ListBuckets returns every bucket visible to the configured credentials
func (h *BucketHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, "object listing is not configured", http.StatusServiceUnavailable)
		return
	}

	buckets, err := h.client.ListBuckets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, buckets)
}

// ListObjects lists keys of one bucket, optionally filtered by prefix
func (h *BucketHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, "object listing is not configured", http.StatusServiceUnavailable)
		return
	}

	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		http.Error(w, "Bucket name is required", http.StatusBadRequest)
		return
	}

	objects, err := h.client.ListObjects(r.Context(),
		bucket,
		r.URL.Query().Get("prefix"),
		r.URL.Query().Get("continuation-token"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, objects)
}
