package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/utils"
)

// LinkHandler handles operator-facing link management requests.
type LinkHandler struct {
	service sharelink.Service
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(service sharelink.Service) *LinkHandler {
	return &LinkHandler{service: service}
}

// Routes returns the operator routes for link management
func (h *LinkHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/sign", h.CreateLink)
	r.Get("/links", h.ListLinks)
	r.Get("/links/{id}", h.GetLink)
	r.Delete("/links/{id}", h.DeleteLink)
	r.Post("/cleanup", h.Cleanup)

	return r
}

// CreateLinkRequest is the request body for issuing a download link
type CreateLinkRequest struct {
	ObjectKey        string `json:"object_key"`
	Bucket           string `json:"bucket,omitempty"`
	Endpoint         string `json:"endpoint,omitempty"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	MaxDownloads     *int64 `json:"max_downloads,omitempty"`
	DownloadFilename string `json:"download_filename,omitempty"`
}

// CreateLinkResponse is the response body for an issued link
type CreateLinkResponse struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
	MaxDownloads *int64    `json:"max_downloads,omitempty"`
}

// LinkResponse is the response body for a single ledger row
type LinkResponse struct {
	ID               uuid.UUID `json:"id"`
	ObjectKey        string    `json:"object_key"`
	Bucket           string    `json:"bucket,omitempty"`
	Endpoint         string    `json:"endpoint,omitempty"`
	DownloadFilename string    `json:"download_filename,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	MaxDownloads     *int64    `json:"max_downloads,omitempty"`
	DownloadsServed  int64     `json:"downloads_served"`
	CreatedAt        time.Time `json:"created_at"`
	IsExpired        bool      `json:"is_expired"`
	DownloadURL      string    `json:"download_url"`
}

// ListLinksResponse is the response body for a link listing
type ListLinksResponse struct {
	Links []LinkResponse `json:"links"`
	Total int            `json:"total"`
}

// DeleteResponse reports the outcome of a deletion
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateLink issues a new download link
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	issued, err := h.service.IssueLink(r.Context(), sharelink.IssueLinkRequest{
		ObjectKey:        req.ObjectKey,
		Bucket:           req.Bucket,
		Endpoint:         req.Endpoint,
		ExpiresIn:        time.Duration(req.ExpiresInSeconds) * time.Second,
		MaxDownloads:     req.MaxDownloads,
		DownloadFilename: utils.SanitizeFilename(req.DownloadFilename),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateLinkResponse{
		ID:           issued.Ticket.ID,
		URL:          issued.URL,
		ExpiresAt:    issued.Ticket.ExpiresAt,
		MaxDownloads: issued.Ticket.MaxDownloads,
	})
}

// ListLinks returns ledger rows, newest first
func (h *LinkHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	records, err := h.service.ListLinks(r.Context(), sharelink.ListLinksRequest{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	links := make([]LinkResponse, 0, len(records))
	for _, record := range records {
		links = append(links, h.toLinkResponse(record))
	}

	render.JSON(w, r, ListLinksResponse{Links: links, Total: len(links)})
}

// GetLink returns a single ledger row
func (h *LinkHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	record, err := h.service.GetLink(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, h.toLinkResponse(record))
}

// DeleteLink removes a link from the ledger and the live cache
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.DeleteLink(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if deleted {
		render.JSON(w, r, DeleteResponse{Success: true, Message: "Link deleted successfully"})
	} else {
		render.JSON(w, r, DeleteResponse{Success: false, Message: "Link not found"})
	}
}

// Cleanup removes expired or exhausted links from both stores
func (h *LinkHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CleanupLinks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func (h *LinkHandler) toLinkResponse(record *sharelink.LinkRecord) LinkResponse {
	return LinkResponse{
		ID:               record.ID,
		ObjectKey:        record.ObjectKey,
		Bucket:           record.Bucket,
		Endpoint:         record.Endpoint,
		DownloadFilename: record.DownloadFilename,
		ExpiresAt:        record.ExpiresAt,
		MaxDownloads:     record.MaxDownloads,
		DownloadsServed:  record.DownloadsServed,
		CreatedAt:        record.CreatedAt,
		IsExpired:        record.IsExpired,
		DownloadURL:      h.service.PublicURL(record.ID),
	}
}
